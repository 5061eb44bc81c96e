package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_SilentByDefault(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(false)

	Debug("debug %d", 1)
	Info("info")
	Warn("warn")
	Section("section")

	assert.Empty(t, buf.String())
}

func TestLogger_Verbose(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(true)
	defer SetVerbose(false)

	Debug("query %q", "test")
	Info("mode: %s", "hybrid")
	Warn("degraded")
	Section("Search Execution")

	out := buf.String()
	assert.Contains(t, out, `[DEBUG] query "test"`)
	assert.Contains(t, out, "[INFO] mode: hybrid")
	assert.Contains(t, out, "[WARN] degraded")
	assert.Contains(t, out, "=== Search Execution ===")
}

func TestLogger_ErrorAlwaysPrints(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(false)

	Error("boom: %v", "nope")
	assert.Contains(t, buf.String(), "[ERROR] boom: nope")
}
