package debug_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/jsemit/pkg/debug"
)

func TestGetPackageAndFuncFromFuncName(t *testing.T) {
	tests := []struct {
		in       string
		wantPkg  string
		wantFunc string
	}{
		{"github.com/walteh/jsemit/pkg/inline.Expand", "pkg/inline", "Expand"},
		{"github.com/walteh/jsemit/pkg/output.(*Stack).Capture", "pkg/output", "(*Stack).Capture"},
		{"main.main", "main", "main"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			pkg, fn := debug.GetPackageAndFuncFromFuncName(tt.in)
			assert.Equal(t, tt.wantPkg, pkg)
			assert.Equal(t, tt.wantFunc, fn)
		})
	}
}

func TestFormatCaller(t *testing.T) {
	assert.Equal(t, "pkg/inline:expand.go:42", debug.FormatCaller("pkg/inline", "/src/pkg/inline/expand.go", 42, false))
	assert.Equal(t, "expand.go", debug.FileNameOfPath("expand.go"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := debug.NewLogger(&buf, debug.LoggerOptions{Level: "warn", Caller: true})
	require.NoError(t, err)

	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, debug.RunID, entry["run"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := debug.NewLogger(&bytes.Buffer{}, debug.LoggerOptions{Level: "loud"})
	assert.Error(t, err)
}
