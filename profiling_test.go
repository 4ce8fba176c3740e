package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGORecordingPublishesOnStop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.pgo")

	stop, err := startDefaultPGORecording(path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing at the target until stop")

	require.NoError(t, stop())
	require.NoError(t, stop(), "stop is idempotent")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestPGORecordingRejectsSecondCapture(t *testing.T) {
	dir := t.TempDir()
	stop, err := startDefaultPGORecording(filepath.Join(dir, "a.pgo"))
	require.NoError(t, err)
	defer stop()

	_, err = startDefaultPGORecording(filepath.Join(dir, "b.pgo"))
	require.Error(t, err)
	leftovers, err := filepath.Glob(filepath.Join(dir, "b.pgo*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "a failed start cleans up its temp file")
}

func TestPGORecordingMissingDirectory(t *testing.T) {
	_, err := startDefaultPGORecording(filepath.Join(t.TempDir(), "missing", "default.pgo"))
	assert.Error(t, err)
}
