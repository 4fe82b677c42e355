package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug", "json")
	logger.Debug().Str("phone", "+97412345678").Msg("[OTP] issued")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	if line["message"] != "[OTP] issued" {
		t.Fatalf("message = %v", line["message"])
	}
	if line["service"] != "scavenger-hunt" {
		t.Fatalf("service = %v", line["service"])
	}
}

func TestNewWithWriterUnknownLevelDefaultsToInfo(t *testing.T) {
	logger := NewWithWriter(&bytes.Buffer{}, "chatty", "json")
	if got := logger.GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("level = %v, want %v", got, zerolog.InfoLevel)
	}
}
