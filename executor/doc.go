// Package executor runs background tasks on a bounded worker pool with
// durable status records.
//
// Tasks are identified by uuid and persisted through their whole lifecycle,
// so status survives a restart. The concurrency cap bounds how many tasks
// run simultaneously; excess submissions queue as PENDING until a worker
// frees up. Cancel records the CANCELLED outcome immediately; a running
// task body additionally observes it through its context, and whatever
// it returns afterwards is discarded.
package executor
