package common

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

// UnmarshalAndDisallowUnknownFields decodes value into v, failing on fields v does not
// declare. Numbers in untyped positions are kept as json.Number.
func UnmarshalAndDisallowUnknownFields(value []byte, v any) error {

	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// Unmarshal decodes value into v, keeping numbers in untyped positions as json.Number so
// integer parameters survive without float rounding.
func Unmarshal(value []byte, v any) error {

	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
