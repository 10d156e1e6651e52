package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"

	"github.com/1broseidon/docktile/internal/layout"
)

// Codec converts snapshots to and from stored bytes.
type Codec interface {
	Name() string
	Marshal(snap layout.Snapshot) ([]byte, error)
	Unmarshal(data []byte, snap *layout.Snapshot) error
}

// Codec names accepted in configuration.
const (
	CodecJSON = "json"
	CodecCBOR = "cbor"
)

// JSONCodec stores snapshots as indented JSON. Decoding tolerates comments
// and trailing commas so hand-edited files load.
type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecJSON }

func (JSONCodec) Marshal(snap layout.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (JSONCodec) Unmarshal(data []byte, snap *layout.Snapshot) error {
	return json.Unmarshal(jsonc.ToJSON(data), snap)
}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	// Core deterministic encoding: equal snapshots give equal bytes.
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("persist: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("persist: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBORCodec stores snapshots as deterministic CBOR.
type CBORCodec struct{}

func (CBORCodec) Name() string { return CodecCBOR }

func (CBORCodec) Marshal(snap layout.Snapshot) ([]byte, error) {
	return cborEnc.Marshal(snap)
}

func (CBORCodec) Unmarshal(data []byte, snap *layout.Snapshot) error {
	return cborDec.Unmarshal(data, snap)
}

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecCBOR:
		return CBORCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q (want %s or %s)", name, CodecJSON, CodecCBOR)
}

// sniff picks the codec that produced data. JSON always starts with an
// object, optionally after whitespace or a comment; a CBOR snapshot starts
// with a map header.
func sniff(data []byte) Codec {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '/') {
		return JSONCodec{}
	}
	return CBORCodec{}
}
