package models

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// TupleSchema maps marker field names to their position in the wire tuple.
type TupleSchema struct {
	Name      int `json:"name" msgpack:"name"`
	StartTime int `json:"startTime" msgpack:"startTime"`
	EndTime   int `json:"endTime" msgpack:"endTime"`
	Phase     int `json:"phase" msgpack:"phase"`
	Category  int `json:"category" msgpack:"category"`
	Data      int `json:"data" msgpack:"data"`
}

// MarkerTupleSchema is the fixed tuple layout consumed by the profiler.
var MarkerTupleSchema = TupleSchema{
	Name:      0,
	StartTime: 1,
	EndTime:   2,
	Phase:     3,
	Category:  4,
	Data:      5,
}

const tupleLen = 6

// Tuple returns the marker as a positional array in MarkerTupleSchema order.
func (m Marker) Tuple() []interface{} {
	t := make([]interface{}, tupleLen)
	t[MarkerTupleSchema.Name] = m.Name
	t[MarkerTupleSchema.StartTime] = m.StartTime
	t[MarkerTupleSchema.EndTime] = m.EndTime
	t[MarkerTupleSchema.Phase] = int(m.Phase)
	t[MarkerTupleSchema.Category] = m.Category
	t[MarkerTupleSchema.Data] = m.Data
	return t
}

// MarshalJSON encodes the marker as its positional tuple.
func (m Marker) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Tuple())
}

// EncodeMsgpack encodes the marker as its positional tuple.
func (m Marker) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(tupleLen); err != nil {
		return err
	}
	for _, v := range m.Tuple() {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}
