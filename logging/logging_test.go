package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitLogsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	Configure(&Configuration{Path: path})
	defer Close()

	l := New()
	l.Info("written to file")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "written to file")
}

func TestUnitWithoutFile(t *testing.T) {
	Configure(&Configuration{})
	assert.Equal(t, os.Stderr, New().Out)
	assert.NoError(t, Close())
}
