package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

func TestExpandCmd_Use(t *testing.T) {
	assert.Equal(t, "expand [query]", expandCmd.Use)
}

func TestExpandCmd_DefaultStrategy(t *testing.T) {
	flag := expandCmd.Flags().Lookup("strategy")
	require.NotNil(t, flag)
	assert.Equal(t, "s", flag.Shorthand)
	assert.Equal(t, "rules", flag.DefValue)
}

func TestExpandCmd_PrintsAnalysis(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	queryExpander = &mockExpander{
		analysis: &domain.QueryAnalysis{
			Original:   "ml",
			Expanded:   "ml machine learning",
			Strategy:   domain.ExpandRules,
			Intent:     domain.IntentLookup,
			Entities:   []string{"ml"},
			Confidence: 0.85,
		},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"expand", "ml"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Original:   ml")
	assert.Contains(t, buf.String(), "Expanded:   ml machine learning")
	assert.Contains(t, buf.String(), "Strategy:   rules")
	assert.Contains(t, buf.String(), "Entities:   ml")
	assert.Contains(t, buf.String(), "Confidence: 85%")
}

func TestExpandCmd_ExpanderError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	queryExpander = &mockExpander{err: errors.New("llm unreachable")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"expand", "ml"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expansion failed")
}
