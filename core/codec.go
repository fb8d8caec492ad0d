package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// RecordMUS serializes Records in MUS format for embedded stores.
//
// Layout: id, title, description (strings), embedding (length-prefixed
// float32 list, length 0 for none), inserted and updated timestamps
// (Unix microseconds).
var RecordMUS = recordMUS{}

type recordMUS struct{}

// Marshal writes v into bs, which must hold at least Size(v) bytes.
func (recordMUS) Marshal(v Record, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.Id), bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += marshalVector(v.Embedding, bs[n:])
	n += varint.Int64.Marshal(v.InsertedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

// Unmarshal decodes a Record from bs.
func (recordMUS) Unmarshal(bs []byte) (v Record, n int, err error) {
	id, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Id = ID(id)

	var n1 int
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Description, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Embedding, n1, err = unmarshalVector(bs[n:])
	n += n1
	if err != nil {
		return
	}

	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt = time.UnixMicro(micros).UTC()

	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

// Size returns the number of bytes Marshal needs for v.
func (recordMUS) Size(v Record) (size int) {
	size = ord.String.Size(string(v.Id))
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Description)
	size += sizeVector(v.Embedding)
	size += varint.Int64.Size(v.InsertedAt.UnixMicro())
	size += varint.Int64.Size(v.UpdatedAt.UnixMicro())
	return
}

func marshalVector(vec []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(vec), bs)
	for _, f := range vec {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (vec []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("%w: negative vector length %d", ErrCorruptRecord, length)
	}
	if length == 0 {
		return nil, n, nil
	}

	vec = make([]float32, length)
	for i := range vec {
		var n1 int
		vec[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return vec, n, nil
}

func sizeVector(vec []float32) (size int) {
	size = varint.Int.Size(len(vec))
	for _, f := range vec {
		size += raw.Float32.Size(f)
	}
	return size
}
