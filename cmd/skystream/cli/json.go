// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"io"
	"os"
	"reflect"
)

// JSONOutput adds a --json flag to a params struct when embedded.
//
//	type listParams struct {
//	    cli.JSONOutput
//	}
//
//	if done, err := params.EmitJSON(os.Stdout, filters); done {
//	    return err
//	}
//	// text output
type JSONOutput struct {
	OutputJSON bool `flag:"json" desc:"output as JSON"`
}

// EmitJSON writes result as indented JSON to w when --json is set and
// reports whether it did. A nil slice is written as [].
func (j *JSONOutput) EmitJSON(w io.Writer, result any) (bool, error) {
	if !j.OutputJSON {
		return false, nil
	}
	return true, WriteJSON(w, normalizeNilSlice(result))
}

// WriteJSON writes value as indented JSON. A nil w means stdout.
func WriteJSON(w io.Writer, value any) error {
	if w == nil {
		w = os.Stdout
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}
