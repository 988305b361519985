// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"fmt"

	"github.com/bureau-foundation/skystream/lib/cid"
	"github.com/bureau-foundation/skystream/lib/dagcbor"
)

// Link is a struct field holding a tag 42 content link. CBOR null
// decodes to the zero Link.
type Link struct {
	CID cid.CID
}

var cborNull = []byte{0xf6}

// MarshalCBOR encodes the link as tag 42, or null when undefined.
func (l Link) MarshalCBOR() ([]byte, error) {
	if !l.CID.Defined() {
		return cborNull, nil
	}
	return dagcbor.Encode(dagcbor.Link{CID: l.CID})
}

// UnmarshalCBOR decodes a tag 42 item.
func (l *Link) UnmarshalCBOR(data []byte) error {
	if bytes.Equal(data, cborNull) {
		*l = Link{}
		return nil
	}
	value, err := dagcbor.Decode(data)
	if err != nil {
		return err
	}
	link, ok := value.(dagcbor.Link)
	if !ok {
		return fmt.Errorf("codec: expected a link, got %s", value.Kind())
	}
	l.CID = link.CID
	return nil
}

// MarshalJSON renders the link in the {"$link": "..."} form.
func (l Link) MarshalJSON() ([]byte, error) {
	if !l.CID.Defined() {
		return []byte("null"), nil
	}
	return dagcbor.Link{CID: l.CID}.MarshalJSON()
}

// String returns the CID string, or "" for the zero Link.
func (l Link) String() string {
	if !l.CID.Defined() {
		return ""
	}
	return l.CID.String()
}
