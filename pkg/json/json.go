// Package json wraps goccy/go-json with the settings fetchcsv relies on:
// numbers decode as literal text and encoding never escapes HTML, so a
// value renders the same way it arrived.
package json

import (
	"bytes"
	stdjson "encoding/json"
	"io"

	gojson "github.com/goccy/go-json"
)

// Decoder is the streaming decoder used for response bodies
type Decoder = gojson.Decoder

// Delim is a JSON array or object delimiter token
type Delim = gojson.Delim

// Number is a JSON number kept as its literal text
type Number = gojson.Number

// NewDecoder returns a decoder over r with UseNumber enabled
func NewDecoder(r io.Reader) *Decoder {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// NewBytesDecoder is NewDecoder over an in-memory body
func NewBytesDecoder(data []byte) *Decoder {
	return NewDecoder(bytes.NewReader(data))
}

// Valid reports whether data is a single valid JSON document. It checks
// grammar only; goccy's Valid decodes numbers as float64 and rejects
// literals such as 1e400.
func Valid(data []byte) bool {
	return stdjson.Valid(data)
}

// AppendString appends s to dst as a quoted JSON string
func AppendString(dst []byte, s string) []byte {
	b, err := gojson.MarshalNoEscape(s)
	if err != nil {
		// strings always encode; keep the raw text rather than drop it
		return append(dst, s...)
	}
	return append(dst, b...)
}
