// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/bureau-foundation/skystream/lib/dagcbor"
)

// encMode encodes with Core Deterministic Encoding (RFC 8949 §4.2).
// For text keys the bytewise order of encoded keys is length first,
// which is the DAG-CBOR map order.
var encMode cbor.EncMode

// decMode accepts only what a strict DAG-CBOR decoder accepts, plus
// unknown struct fields, which are ignored.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// cid.CID and similar identifiers serialize through MarshalText.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IndefLength:     cbor.IndefLengthForbidden,
		MaxNestedLevels: dagcbor.DefaultMaxDepth,
		NaN:             cbor.NaNDecodeForbidden,
		Inf:             cbor.InfDecodeForbidden,
		// Records have text keys only. The CBOR default for any-typed
		// targets is map[any]any, which encoding/json cannot print.
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// RawMessage is a raw encoded CBOR value, for fields whose decoding
// is deferred.
type RawMessage = cbor.RawMessage

// FromValue unmarshals a decoded DAG-CBOR value into out.
func FromValue(value dagcbor.Value, out any) error {
	data, err := dagcbor.Encode(value)
	if err != nil {
		return err
	}
	return decMode.Unmarshal(data, out)
}

// ToValue marshals in and decodes the result as a DAG-CBOR value.
// Floats in the result are widened to float64 by the value tree.
func ToValue(in any) (dagcbor.Value, error) {
	data, err := encMode.Marshal(in)
	if err != nil {
		return nil, err
	}
	return dagcbor.Decode(data)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for the
// entire contents of data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}

// DiagnoseFirst returns the diagnostic notation for the first data
// item in data and the unconsumed remainder. A firehose frame is two
// items back to back, so two calls render header and body.
func DiagnoseFirst(data []byte) (string, []byte, error) {
	return cbor.DiagnoseFirst(data)
}
