package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultscout/vaultscout/internal/core/domain"
)

func TestExpand_EmptyQuery(t *testing.T) {
	svc := NewExpansionService(nil)

	_, err := svc.Expand(context.Background(), "  ", domain.ExpandRules)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExpand_UnknownStrategy(t *testing.T) {
	svc := NewExpansionService(nil)

	_, err := svc.Expand(context.Background(), "query", domain.ExpansionStrategy("quantum"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExpand_NoneIsIdentity(t *testing.T) {
	svc := NewExpansionService(nil)

	analysis, err := svc.Expand(context.Background(), "ml pipelines", domain.ExpandNone)
	require.NoError(t, err)
	assert.Equal(t, "ml pipelines", analysis.Expanded)
	assert.Equal(t, 1.0, analysis.Confidence)
}

func TestExpand_RulesAppendSynonyms(t *testing.T) {
	svc := NewExpansionService(nil)

	analysis, err := svc.Expand(context.Background(), "ml pipelines", domain.ExpandRules)
	require.NoError(t, err)

	assert.Equal(t, "ml pipelines machine learning", analysis.Expanded)
	assert.Equal(t, domain.ExpandRules, analysis.Strategy)
	assert.Equal(t, 0.85, analysis.Confidence)
}

func TestExpand_RulesNoMatchHighConfidence(t *testing.T) {
	svc := NewExpansionService(nil)

	analysis, err := svc.Expand(context.Background(), "weekend plans", domain.ExpandRules)
	require.NoError(t, err)
	assert.Equal(t, "weekend plans", analysis.Expanded)
	assert.Equal(t, 0.95, analysis.Confidence)
}

func TestExpand_RulesDeterministic(t *testing.T) {
	svc := NewExpansionService(nil)

	first, err := svc.Expand(context.Background(), "rag with llm eval", domain.ExpandRules)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.Expand(context.Background(), "rag with llm eval", domain.ExpandRules)
		require.NoError(t, err)
		assert.Equal(t, first.Expanded, again.Expanded)
		assert.Equal(t, first.Confidence, again.Confidence)
	}
}

func TestExpand_RulesStripPunctuation(t *testing.T) {
	svc := NewExpansionService(nil)

	analysis, err := svc.Expand(context.Background(), "what is rag?", domain.ExpandRules)
	require.NoError(t, err)
	assert.Equal(t, "what is rag? retrieval augmented generation", analysis.Expanded)
}

func TestExpand_CustomSynonymTable(t *testing.T) {
	svc := NewExpansionService(nil)
	svc.SetSynonyms(map[string][]string{"gtd": {"getting things done"}})

	analysis, err := svc.Expand(context.Background(), "gtd weekly review", domain.ExpandRules)
	require.NoError(t, err)
	assert.Equal(t, "gtd weekly review getting things done", analysis.Expanded)

	// The default table is gone
	analysis, err = svc.Expand(context.Background(), "ml", domain.ExpandRules)
	require.NoError(t, err)
	assert.Equal(t, "ml", analysis.Expanded)
}

func TestExpand_LLMRewrite(t *testing.T) {
	llm := &mockLLMService{reply: "ml machine learning pipelines orchestration\nignored explanation"}
	svc := NewExpansionService(llm)

	analysis, err := svc.Expand(context.Background(), "ml pipelines", domain.ExpandLLM)
	require.NoError(t, err)

	// Only the first line of the reply survives
	assert.Equal(t, "ml machine learning pipelines orchestration", analysis.Expanded)
	assert.Equal(t, domain.ExpandLLM, analysis.Strategy)
	assert.Equal(t, 0.9, analysis.Confidence)
	assert.Equal(t, 1, llm.calls)
}

func TestExpand_LLMFailureFallsBackToRules(t *testing.T) {
	llm := &mockLLMService{err: errors.New("model offline")}
	svc := NewExpansionService(llm)

	analysis, err := svc.Expand(context.Background(), "ml pipelines", domain.ExpandLLM)
	require.NoError(t, err)

	assert.Equal(t, "ml pipelines machine learning", analysis.Expanded)
	assert.Equal(t, domain.ExpandRules, analysis.Strategy, "fallback should be visible in the strategy")
	assert.Equal(t, 0.85, analysis.Confidence)
}

func TestExpand_LLMNilFallsBackToRules(t *testing.T) {
	svc := NewExpansionService(nil)

	analysis, err := svc.Expand(context.Background(), "ml pipelines", domain.ExpandLLM)
	require.NoError(t, err)
	assert.Equal(t, "ml pipelines machine learning", analysis.Expanded)
	assert.Equal(t, domain.ExpandRules, analysis.Strategy)
}

func TestExpand_HybridBlendsConfidence(t *testing.T) {
	llm := &mockLLMService{reply: "ml pipelines machine learning workflow orchestration"}
	svc := NewExpansionService(llm)

	analysis, err := svc.Expand(context.Background(), "ml pipelines", domain.ExpandHybrid)
	require.NoError(t, err)

	assert.Equal(t, "ml pipelines machine learning workflow orchestration", analysis.Expanded)
	assert.Equal(t, domain.ExpandHybrid, analysis.Strategy)
	// Rule confidence 0.85 blended with LLM confidence 0.9
	assert.InDelta(t, 0.875, analysis.Confidence, 1e-9)
}

func TestExpand_HybridLLMFailureUsesRuleBaseline(t *testing.T) {
	llm := &mockLLMService{err: errors.New("quota exceeded")}
	svc := NewExpansionService(llm)

	analysis, err := svc.Expand(context.Background(), "ml pipelines", domain.ExpandHybrid)
	require.NoError(t, err)
	assert.Equal(t, "ml pipelines machine learning", analysis.Expanded)
	assert.Equal(t, domain.ExpandRules, analysis.Strategy)
	assert.Equal(t, 0.85, analysis.Confidence)
}

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		query string
		want  domain.QueryIntent
	}{
		{"how does gradient descent work", domain.IntentQuestion},
		{"gradient descent convergence?", domain.IntentQuestion},
		{"what is rag", domain.IntentQuestion},
		{"find meeting notes from june", domain.IntentCommand},
		{"list open projects", domain.IntentCommand},
		{"gradient descent", domain.IntentLookup},
		{"kubernetes networking", domain.IntentLookup},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, detectIntent(tt.query))
		})
	}
}

func TestDetectEntities(t *testing.T) {
	entities := detectEntities(`notes about [[Project Atlas]] tagged #ml/training with "exact phrase"`)

	assert.Equal(t, []string{"Project Atlas", "ml/training", "exact phrase"}, entities)
	assert.Empty(t, detectEntities("plain query"))
}

func TestRuleConfidence(t *testing.T) {
	assert.Equal(t, 0.95, ruleConfidence(0))
	assert.Equal(t, 0.85, ruleConfidence(1))
	assert.InDelta(t, 0.80, ruleConfidence(2), 1e-9)
	assert.Equal(t, 0.5, ruleConfidence(20), "confidence floors at 0.5")
}
