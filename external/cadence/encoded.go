package cadence

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v4"
)

// ConversionError reports which workflow argument could not be converted
type ConversionError struct {
	Op    string
	Index int
	Type  reflect.Type
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("unable to %s argument %d (%v): %s", e.Op, e.Index, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// MsgPackDataConverter passes workflow and activity arguments as a stream of
// msgpack values. Struct fields use their json names so schema types keep
// the same keys they have on the API.
type MsgPackDataConverter struct{}

func NewMsgPackDataConverter() *MsgPackDataConverter {
	return &MsgPackDataConverter{}
}

func (c *MsgPackDataConverter) ToData(values ...interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf).UseJSONTag(true)

	for i, v := range values {
		if err := enc.Encode(v); err != nil {
			return nil, &ConversionError{Op: "encode", Index: i, Type: reflect.TypeOf(v), Err: err}
		}
	}
	return buf.Bytes(), nil
}

func (c *MsgPackDataConverter) FromData(input []byte, targets ...interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(input)).UseJSONTag(true)

	for i, target := range targets {
		if err := dec.Decode(target); err != nil {
			return &ConversionError{Op: "decode", Index: i, Type: reflect.TypeOf(target), Err: err}
		}
	}
	return nil
}
