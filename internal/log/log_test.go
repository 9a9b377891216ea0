package log

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace": zerolog.TraceLevel,
		"DEBUG": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"bogus": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetLogger_ComponentField(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewJSONLogger(&buf, "debug"))
	defer SetLogger(NewConsoleLogger(&bytes.Buffer{}, "info"))

	Vault.Debug().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["component"] != "vault" || entry["message"] != "hello" {
		t.Errorf("entry = %v", entry)
	}
}

func TestWithLockID(t *testing.T) {
	var buf bytes.Buffer
	l := WithLockID(NewJSONLogger(&buf, "info"), "abc")
	l.Info().Msg("x")
	if !bytes.Contains(buf.Bytes(), []byte(`"lock_id":"abc"`)) {
		t.Errorf("missing lock_id: %s", buf.String())
	}
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.log")
	if err := Init("info", true, path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init("info", false, filepath.Join(t.TempDir(), "missing", "x.log")); err == nil {
		t.Error("Init should fail for an unwritable file")
	}
}
