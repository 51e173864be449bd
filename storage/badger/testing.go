package badger

// NewMemoryStores creates a collection store and task repository backed by
// an in-memory BadgerDB. Intended for tests and ephemeral setups.
func NewMemoryStores() (*CollectionRepository, *TaskRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}
	return NewCollectionRepository(backend), NewTaskRepository(backend), backend, nil
}
