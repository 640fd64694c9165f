package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriter_TagsServiceName(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info")

	log.Info().Msg("started")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	if line["service"] != serviceName {
		t.Errorf("service field = %v, want %q", line["service"], serviceName)
	}
	if line["message"] != "started" {
		t.Errorf("message field = %v", line["message"])
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info().Msg("suppressed")
	log.Warn().Msg("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info line emitted at warn level")
	}
	if !strings.Contains(out, "emitted") {
		t.Error("warn line missing at warn level")
	}
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	log := New("not-a-level")
	if got := log.GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", got)
	}
}
