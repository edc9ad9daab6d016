package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/chazu/quill/pkg/sketch"
	"github.com/fxamacker/cbor/v2"
)

// Format selects the wire encoding of a Document.
type Format int

const (
	FormatJSON Format = iota
	FormatCBOR
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCBOR:
		return "cbor"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat maps "json" or "cbor" to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "cbor":
		return FormatCBOR, nil
	}
	return FormatJSON, fmt.Errorf("unknown format %q, expected json or cbor", s)
}

// DocumentTag is the CBOR tag wrapping an encoded Document ("QUIL").
const DocumentTag uint64 = 0x5155494c

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	tags := cbor.NewTagSet()
	err := tags.Add(
		cbor.TagOptions{EncTag: cbor.EncTagRequired, DecTag: cbor.DecTagRequired},
		reflect.TypeOf(Document{}),
		DocumentTag,
	)
	if err != nil {
		panic(err)
	}
	cborEnc, err = cbor.EncOptions{Sort: cbor.SortCanonical}.EncModeWithTags(tags)
	if err != nil {
		panic(err)
	}
	cborDec, err = cbor.DecOptions{}.DecModeWithTags(tags)
	if err != nil {
		panic(err)
	}
}

// Marshal encodes sk in format f.
func Marshal(sk *sketch.Sketch, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return MarshalJSON(sk)
	case FormatCBOR:
		return MarshalCBOR(sk)
	}
	return nil, fmt.Errorf("marshal: unknown format %s", f)
}

// Unmarshal decodes data in format f.
func Unmarshal(data []byte, f Format) (*sketch.Sketch, error) {
	switch f {
	case FormatJSON:
		return UnmarshalJSON(data)
	case FormatCBOR:
		return UnmarshalCBOR(data)
	}
	return nil, fmt.Errorf("unmarshal: unknown format %s", f)
}

// Detect guesses the format of data: JSON documents are objects, CBOR
// documents start with their tag.
func Detect(data []byte) Format {
	if t := bytes.TrimSpace(data); len(t) > 0 && t[0] == '{' {
		return FormatJSON
	}
	return FormatCBOR
}

// MarshalJSON encodes sk as indented JSON.
func MarshalJSON(sk *sketch.Sketch) ([]byte, error) {
	data, err := json.MarshalIndent(Encode(sk), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return data, nil
}

// UnmarshalJSON decodes a JSON document.
func UnmarshalJSON(data []byte) (*sketch.Sketch, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal json: %w", err)
	}
	return Decode(&doc)
}

// MarshalCBOR encodes sk as tagged canonical CBOR.
func MarshalCBOR(sk *sketch.Sketch) ([]byte, error) {
	data, err := cborEnc.Marshal(Encode(sk))
	if err != nil {
		return nil, fmt.Errorf("marshal cbor: %w", err)
	}
	return data, nil
}

// UnmarshalCBOR decodes a tagged CBOR document.
func UnmarshalCBOR(data []byte) (*sketch.Sketch, error) {
	var doc Document
	if err := cborDec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal cbor: %w", err)
	}
	return Decode(&doc)
}
