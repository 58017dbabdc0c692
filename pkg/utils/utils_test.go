package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWorkspace(t *testing.T) {
	tests := []struct {
		workspace string
		valid     bool
	}{
		{"site-a", true},
		{"Tower_2", true},
		{"", false},
		{"-leading", false},
		{"has space", false},
		{"../etc", false},
	}

	for _, tt := range tests {
		t.Run(tt.workspace, func(t *testing.T) {
			err := ValidateWorkspace(tt.workspace)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "alice", SanitizeString("  ali\x00ce\n"))
	assert.Equal(t, "invoice.pdf", SanitizeFileName("../../invoice.pdf"))
	assert.Equal(t, "scan.png", SanitizeFileName(`C:\Users\pm\scan.png`))
	assert.Equal(t, "upload", SanitizeFileName(""))
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	logger, err := NewLogger(LoggerConfig{Level: "debug", OutputPath: path, Format: "json"})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"timestamp"`)
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "verbose", OutputPath: "stderr", Format: "console"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
	assert.True(t, logger.Core().Enabled(0))
}
