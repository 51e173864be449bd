// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/quanta/core"
)

var (
	float32SliceSer = ord.NewSliceSer[float32](varint.Float32)
	stringSliceSer  = ord.NewSliceSer[string](ord.String)
)

// timeSer serializes a time.Time as UTC microseconds. Zero times survive a
// round trip as zero times.
type timeSer struct{}

func (timeSer) Marshal(t time.Time, bs []byte) (n int) {
	zero := t.IsZero()
	n = ord.Bool.Marshal(zero, bs)
	if !zero {
		n += varint.Int64.Marshal(t.UnixMicro(), bs[n:])
	}
	return
}

func (timeSer) Unmarshal(bs []byte) (t time.Time, n int, err error) {
	zero, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || zero {
		return
	}
	micros, n1, err := varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t = time.UnixMicro(micros).UTC()
	return
}

func (timeSer) Size(t time.Time) (size int) {
	size = ord.Bool.Size(t.IsZero())
	if !t.IsZero() {
		size += varint.Int64.Size(t.UnixMicro())
	}
	return
}

var timeMUS = timeSer{}

// locationSer serializes a core.Location.
type locationSer struct{}

func (locationSer) Marshal(l core.Location, bs []byte) (n int) {
	n = varint.Int.Marshal(l.Page, bs)
	n += ord.String.Marshal(l.Kind, bs[n:])
	n += ord.String.Marshal(l.Section, bs[n:])
	return
}

func (locationSer) Unmarshal(bs []byte) (l core.Location, n int, err error) {
	l.Page, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	l.Kind, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	l.Section, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (locationSer) Size(l core.Location) int {
	return varint.Int.Size(l.Page) + ord.String.Size(l.Kind) + ord.String.Size(l.Section)
}

var locationMUS = locationSer{}

// unitSer serializes a core.RetrievalUnit including its embedding vector.
type unitSer struct{}

func (unitSer) Marshal(u core.RetrievalUnit, bs []byte) (n int) {
	n = ord.String.Marshal(u.Id, bs)
	n += ord.String.Marshal(u.DocumentId, bs[n:])
	n += ord.String.Marshal(u.Text, bs[n:])
	n += locationMUS.Marshal(u.Location, bs[n:])
	n += stringSliceSer.Marshal(u.Headings, bs[n:])
	n += varint.Int.Marshal(u.TokenCount, bs[n:])
	n += float32SliceSer.Marshal(u.Vector, bs[n:])
	return
}

func (unitSer) Unmarshal(bs []byte) (u core.RetrievalUnit, n int, err error) {
	var n1 int
	u.Id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	u.DocumentId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	u.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	u.Location, n1, err = locationMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	u.Headings, n1, err = stringSliceSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	u.TokenCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	u.Vector, n1, err = float32SliceSer.Unmarshal(bs[n:])
	n += n1
	return
}

func (unitSer) Size(u core.RetrievalUnit) int {
	return ord.String.Size(u.Id) +
		ord.String.Size(u.DocumentId) +
		ord.String.Size(u.Text) +
		locationMUS.Size(u.Location) +
		stringSliceSer.Size(u.Headings) +
		varint.Int.Size(u.TokenCount) +
		float32SliceSer.Size(u.Vector)
}

// UnitMUS serializes retrieval units for persistence.
var UnitMUS = unitSer{}

// metaSer serializes a core.CollectionMeta.
type metaSer struct{}

func (metaSer) Marshal(m core.CollectionMeta, bs []byte) (n int) {
	n = ord.String.Marshal(m.Name, bs)
	n += varint.Int.Marshal(m.Dim, bs[n:])
	n += timeMUS.Marshal(m.CreatedAt, bs[n:])
	return
}

func (metaSer) Unmarshal(bs []byte) (m core.CollectionMeta, n int, err error) {
	var n1 int
	m.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	m.Dim, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (metaSer) Size(m core.CollectionMeta) int {
	return ord.String.Size(m.Name) + varint.Int.Size(m.Dim) + timeMUS.Size(m.CreatedAt)
}

// CollectionMetaMUS serializes collection metadata for persistence.
var CollectionMetaMUS = metaSer{}

// taskSer serializes a core.Task.
type taskSer struct{}

func (taskSer) Marshal(t core.Task, bs []byte) (n int) {
	n = ord.String.Marshal(t.Id, bs)
	n += ord.String.Marshal(t.Type, bs[n:])
	n += varint.Int.Marshal(int(t.Status), bs[n:])
	n += timeMUS.Marshal(t.CreatedAt, bs[n:])
	n += timeMUS.Marshal(t.StartedAt, bs[n:])
	n += timeMUS.Marshal(t.CompletedAt, bs[n:])
	n += ord.String.Marshal(t.Result, bs[n:])
	n += ord.String.Marshal(t.Error, bs[n:])
	return
}

func (taskSer) Unmarshal(bs []byte) (t core.Task, n int, err error) {
	var n1 int
	t.Id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	t.Type, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var status int
	status, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Status = core.TaskStatus(status)
	t.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.StartedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.CompletedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Result, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Error, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (taskSer) Size(t core.Task) int {
	return ord.String.Size(t.Id) +
		ord.String.Size(t.Type) +
		varint.Int.Size(int(t.Status)) +
		timeMUS.Size(t.CreatedAt) +
		timeMUS.Size(t.StartedAt) +
		timeMUS.Size(t.CompletedAt) +
		ord.String.Size(t.Result) +
		ord.String.Size(t.Error)
}

// TaskMUS serializes task records for persistence.
var TaskMUS = taskSer{}

// MarshalUnit serializes a RetrievalUnit to bytes.
func MarshalUnit(unit *core.RetrievalUnit) []byte {
	buf := make([]byte, UnitMUS.Size(*unit))
	UnitMUS.Marshal(*unit, buf)
	return buf
}

// UnmarshalUnit deserializes a RetrievalUnit from bytes.
func UnmarshalUnit(data []byte) (*core.RetrievalUnit, error) {
	unit, _, err := UnitMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// MarshalCollectionMeta serializes a CollectionMeta to bytes.
func MarshalCollectionMeta(meta *core.CollectionMeta) []byte {
	buf := make([]byte, CollectionMetaMUS.Size(*meta))
	CollectionMetaMUS.Marshal(*meta, buf)
	return buf
}

// UnmarshalCollectionMeta deserializes a CollectionMeta from bytes.
func UnmarshalCollectionMeta(data []byte) (*core.CollectionMeta, error) {
	meta, _, err := CollectionMetaMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// MarshalTask serializes a Task to bytes.
func MarshalTask(task *core.Task) []byte {
	buf := make([]byte, TaskMUS.Size(*task))
	TaskMUS.Marshal(*task, buf)
	return buf
}

// UnmarshalTask deserializes a Task from bytes.
func UnmarshalTask(data []byte) (*core.Task, error) {
	task, _, err := TaskMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
