// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

type sharedParams struct {
	ConfigPath string `flag:"config" desc:"config file"`
	LogLevel   string `flag:"log-level" default:"info"`
}

type testParams struct {
	sharedParams
	JSONOutput
	Endpoint string        `flag:"endpoint,e" desc:"relay"`
	Cursor   int64         `flag:"cursor" default:"-1"`
	Limit    int           `flag:"limit" default:"10"`
	Interval time.Duration `flag:"interval" default:"5s"`
	DIDs     []string      `flag:"did"`
	Ignored  string
}

func TestBindFlags(t *testing.T) {
	var params testParams
	flagSet := FlagsFromParams("test", &params)

	if params.Cursor != -1 || params.Limit != 10 || params.Interval != 5*time.Second || params.LogLevel != "info" {
		t.Errorf("defaults not applied: %+v", params)
	}

	err := flagSet.Parse([]string{
		"-e", "wss://relay.test",
		"--cursor", "42",
		"--did", "did:plc:a", "--did", "did:plc:b",
		"--json",
		"--config", "/etc/skystream.yaml",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.Endpoint != "wss://relay.test" || params.Cursor != 42 || !params.OutputJSON {
		t.Errorf("params = %+v", params)
	}
	if len(params.DIDs) != 2 || params.DIDs[1] != "did:plc:b" {
		t.Errorf("DIDs = %v", params.DIDs)
	}
	if params.ConfigPath != "/etc/skystream.yaml" {
		t.Errorf("embedded field not bound: %q", params.ConfigPath)
	}
	if flagSet.Lookup("Ignored") != nil || flagSet.Lookup("ignored") != nil {
		t.Error("untagged field was bound")
	}
}

func TestBindFlagsRejectsBadInput(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(testParams{}, flagSet); err == nil {
		t.Error("non-pointer params accepted")
	}
	var unsupported struct {
		Ratio float32 `flag:"ratio"`
	}
	if err := BindFlags(&unsupported, flagSet); err == nil {
		t.Error("unsupported field type accepted")
	}
	var badDefault struct {
		Limit int `flag:"limit" default:"ten"`
	}
	if err := BindFlags(&badDefault, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("unparseable default accepted")
	}
}

func TestEmitJSON(t *testing.T) {
	var output bytes.Buffer
	off := JSONOutput{}
	if done, _ := off.EmitJSON(&output, []string{"a"}); done || output.Len() != 0 {
		t.Error("EmitJSON wrote without --json")
	}

	on := JSONOutput{OutputJSON: true}
	var nilSlice []string
	done, err := on.EmitJSON(&output, nilSlice)
	if !done || err != nil {
		t.Fatalf("EmitJSON = %v, %v", done, err)
	}
	if strings.TrimSpace(output.String()) != "[]" {
		t.Errorf("nil slice rendered as %q", output.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, test := range tests {
		got, err := ParseLevel(test.input)
		if err != nil || got != test.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", test.input, got, err, test.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel accepted an unknown level")
	}
}

func TestNewHandler(t *testing.T) {
	var text, structured bytes.Buffer
	slog.New(NewHandler(&text, slog.LevelInfo, true)).Info("hello", "seq", 7)
	slog.New(NewHandler(&structured, slog.LevelInfo, false)).Info("hello", "seq", 7)
	slog.New(NewHandler(&structured, slog.LevelWarn, false)).Info("dropped")

	if !strings.Contains(text.String(), "msg=hello seq=7") {
		t.Errorf("text output = %q", text.String())
	}
	if !strings.Contains(structured.String(), `"seq":7`) || strings.Contains(structured.String(), "dropped") {
		t.Errorf("JSON output = %q", structured.String())
	}
}
