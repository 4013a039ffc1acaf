package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

func TestConsoleWriter(t *testing.T) {
	var out bytes.Buffer
	writer := &ConsoleWriter{Out: &out}
	logger := zerolog.New(writer)

	logger.Info().Str("launcher", "gclient").Bool("command", true).Msg("python3 -u gclient.py sync")
	logger.Warn().Str("launcher", "gclient").Int("code", 2).Msg("update failed")
	logger.Error().Err(eris.New("boom")).Msg("Failed to launch")

	lines := out.String()
	for _, want := range []string{
		"gclient: $ python3 -u gclient.py sync",
		"gclient: update failed (exit code 2)",
		"Error: Failed to launch\nboom",
	} {
		if !strings.Contains(lines, want) {
			t.Errorf("output is missing %q:\n%s", want, lines)
		}
	}
}

func TestConsoleWriterRejectsGarbage(t *testing.T) {
	writer := &ConsoleWriter{Out: &bytes.Buffer{}}
	if _, err := writer.Write([]byte("not json")); err == nil {
		t.Error("expected a decode error")
	}
}
