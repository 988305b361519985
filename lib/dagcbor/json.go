// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dagcbor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
)

// JSON rendering follows the AT Protocol data model conventions:
// links become {"$link": "<cid>"} and byte strings become
// {"$bytes": "<base64, no padding>"}. Map entries keep their order.

// MarshalJSON renders null.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// MarshalJSON renders the link object form.
func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Link string `json:"$link"`
	}{l.CID.String()})
}

// MarshalJSON renders the bytes object form.
func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Bytes string `json:"$bytes"`
	}{base64.RawStdEncoding.EncodeToString(b)})
}

// MarshalJSON renders the map as a JSON object in entry order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, entry := range m {
		if i > 0 {
			buffer.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		item, err := marshalItem(entry.Value)
		if err != nil {
			return nil, err
		}
		buffer.Write(item)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// MarshalJSON renders the array, writing nil elements as null.
func (a Array) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			buffer.WriteByte(',')
		}
		item, err := marshalItem(v)
		if err != nil {
			return nil, err
		}
		buffer.Write(item)
	}
	buffer.WriteByte(']')
	return buffer.Bytes(), nil
}

func marshalItem(v Value) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}
