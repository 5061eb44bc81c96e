package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultscout/vaultscout/internal/core/ports/driving"
)

func TestIndexCmd_Use(t *testing.T) {
	assert.Equal(t, "index", indexCmd.Use)
}

func TestIndexCmd_HasForceFlag(t *testing.T) {
	flag := indexCmd.Flags().Lookup("force")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestIndexCmd_PrintsStats(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"index"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Scanned 3 notes")
	assert.Contains(t, buf.String(), "2 indexed (5 chunks)")
	assert.Contains(t, buf.String(), "1 skipped")
}

func TestIndexCmd_ForceFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := indexOrchestrator.(*mockIndexOrchestrator)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"index", "--force"})
	defer func() {
		rootCmd.SetArgs(nil)
		indexForce = false
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.True(t, mock.lastForce)
}

func TestIndexCmd_SyncError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	indexOrchestrator = &mockIndexOrchestrator{err: errors.New("vault missing")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"index"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "index failed")
}

func TestIndexStatsZero(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	indexOrchestrator = &mockIndexOrchestrator{stats: driving.IndexStats{}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"index"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Scanned 0 notes")
}
