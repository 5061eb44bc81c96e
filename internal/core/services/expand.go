package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vaultscout/vaultscout/internal/core/domain"
	"github.com/vaultscout/vaultscout/internal/core/ports/driven"
	"github.com/vaultscout/vaultscout/internal/core/ports/driving"
	"github.com/vaultscout/vaultscout/internal/logger"
)

// Ensure ExpansionService implements the interface.
var _ driving.QueryExpander = (*ExpansionService)(nil)

// rewritePrompt asks the model for a single-line query rewrite. The
// contract matters: anything beyond one line is discarded.
const rewritePrompt = `Rewrite this note search query to improve recall.
Add relevant synonyms and expand abbreviations. Keep the original terms.
Reply with the rewritten query only, on a single line, no explanations.

Query: %s`

// defaultSynonyms is the deterministic abbreviation/synonym table for
// rule-based expansion. Keys are matched against lowercased query terms.
var defaultSynonyms = map[string][]string{
	"ml":     {"machine learning"},
	"ai":     {"artificial intelligence"},
	"nlp":    {"natural language processing"},
	"llm":    {"large language model"},
	"rag":    {"retrieval augmented generation"},
	"db":     {"database"},
	"k8s":    {"kubernetes"},
	"api":    {"interface"},
	"auth":   {"authentication"},
	"repo":   {"repository"},
	"docs":   {"documentation"},
	"config": {"configuration"},
	"perf":   {"performance"},
	"algo":   {"algorithm"},
	"func":   {"function"},
}

var (
	wikilinkPattern = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	tagPattern      = regexp.MustCompile(`#([\p{L}\d/_-]+)`)
	phrasePattern   = regexp.MustCompile(`"([^"]+)"`)
)

// questionWords open interrogative queries.
var questionWords = map[string]bool{
	"who": true, "what": true, "when": true, "where": true,
	"why": true, "how": true, "which": true, "does": true, "is": true,
}

// commandWords open imperative queries.
var commandWords = map[string]bool{
	"find": true, "show": true, "list": true, "open": true, "get": true,
}

// ExpansionService rewrites short or ambiguous queries into a richer
// form before retrieval. The rule-based strategy is deterministic and
// needs no external calls; the LLM strategy is used only when a model is
// configured and falls back to rules on any failure.
//
// The service is stateless: each call is a pure function of its inputs
// plus at most one LLM round-trip.
type ExpansionService struct {
	llm      driven.LLMService
	synonyms map[string][]string
}

// NewExpansionService creates an expansion service. The LLM may be nil.
func NewExpansionService(llm driven.LLMService) *ExpansionService {
	return &ExpansionService{
		llm:      llm,
		synonyms: defaultSynonyms,
	}
}

// SetSynonyms replaces the rule table. Used by tests and configuration.
func (s *ExpansionService) SetSynonyms(table map[string][]string) {
	if table != nil {
		s.synonyms = table
	}
}

// Expand analyses and rewrites a query using the given strategy.
func (s *ExpansionService) Expand(
	ctx context.Context, query string, strategy domain.ExpansionStrategy,
) (*domain.QueryAnalysis, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidInput
	}

	analysis := &domain.QueryAnalysis{
		Original: query,
		Expanded: query,
		Intent:   detectIntent(query),
		Entities: detectEntities(query),
		Strategy: strategy,
	}

	switch strategy {
	case domain.ExpandNone:
		analysis.Confidence = 1.0
		return analysis, nil

	case domain.ExpandRules:
		expanded, matches := s.ruleExpand(query)
		analysis.Expanded = expanded
		analysis.Confidence = ruleConfidence(matches)
		return analysis, nil

	case domain.ExpandLLM:
		return s.llmExpand(ctx, analysis)

	case domain.ExpandHybrid:
		return s.hybridExpand(ctx, analysis)

	default:
		return nil, fmt.Errorf("%w: unknown expansion strategy %q", domain.ErrInvalidInput, strategy)
	}
}

// ruleExpand appends synonym expansions for known abbreviations.
// Deterministic: term order follows the original query.
func (s *ExpansionService) ruleExpand(query string) (string, int) {
	terms := strings.Fields(query)
	expanded := make([]string, 0, len(terms))
	matches := 0

	seen := make(map[string]bool)
	for _, term := range terms {
		expanded = append(expanded, term)
		seen[strings.ToLower(term)] = true
	}

	for _, term := range terms {
		key := strings.ToLower(strings.Trim(term, `.,;:!?"'`))
		for _, syn := range s.synonyms[key] {
			if seen[syn] {
				continue
			}
			expanded = append(expanded, syn)
			seen[syn] = true
			matches++
		}
	}

	return strings.Join(expanded, " "), matches
}

// llmExpand asks the model for a rewrite, falling back to the rule table
// when the model is missing or fails.
func (s *ExpansionService) llmExpand(
	ctx context.Context, analysis *domain.QueryAnalysis,
) (*domain.QueryAnalysis, error) {
	if s.llm == nil {
		logger.Debug("LLM unavailable, falling back to rule expansion")
		expanded, matches := s.ruleExpand(analysis.Original)
		analysis.Expanded = expanded
		analysis.Strategy = domain.ExpandRules
		analysis.Confidence = ruleConfidence(matches)
		return analysis, nil
	}

	rewritten, err := s.rewrite(ctx, analysis.Original)
	if err != nil || rewritten == "" {
		logger.Warn("LLM expansion failed: %v (falling back to rules)", err)
		expanded, matches := s.ruleExpand(analysis.Original)
		analysis.Expanded = expanded
		analysis.Strategy = domain.ExpandRules
		analysis.Confidence = ruleConfidence(matches)
		return analysis, nil
	}

	analysis.Expanded = rewritten
	analysis.Confidence = 0.9
	return analysis, nil
}

// hybridExpand uses the rule table as baseline and the model as
// ornamentation on top of it, blending both confidence scores.
func (s *ExpansionService) hybridExpand(
	ctx context.Context, analysis *domain.QueryAnalysis,
) (*domain.QueryAnalysis, error) {
	ruleExpanded, matches := s.ruleExpand(analysis.Original)
	ruleConf := ruleConfidence(matches)

	if s.llm == nil {
		analysis.Expanded = ruleExpanded
		analysis.Strategy = domain.ExpandRules
		analysis.Confidence = ruleConf
		return analysis, nil
	}

	rewritten, err := s.rewrite(ctx, ruleExpanded)
	if err != nil || rewritten == "" {
		logger.Warn("Hybrid expansion: LLM failed: %v (using rule baseline)", err)
		analysis.Expanded = ruleExpanded
		analysis.Strategy = domain.ExpandRules
		analysis.Confidence = ruleConf
		return analysis, nil
	}

	analysis.Expanded = rewritten
	analysis.Confidence = (ruleConf + 0.9) / 2
	return analysis, nil
}

// rewrite sends the rewrite prompt and sanitises the reply to one line.
func (s *ExpansionService) rewrite(ctx context.Context, query string) (string, error) {
	reply, err := s.llm.RewriteQuery(ctx, query)
	if err != nil {
		return "", err
	}

	reply = strings.TrimSpace(reply)
	if idx := strings.IndexByte(reply, '\n'); idx >= 0 {
		reply = strings.TrimSpace(reply[:idx])
	}
	return reply, nil
}

// ruleConfidence maps the number of rule matches to a confidence score.
// An untouched query is high-confidence (nothing to get wrong); each
// substitution adds uncertainty.
func ruleConfidence(matches int) float64 {
	if matches == 0 {
		return 0.95
	}
	conf := 0.85 - 0.05*float64(matches-1)
	if conf < 0.5 {
		conf = 0.5
	}
	return conf
}

// detectIntent classifies the query as question, command, or lookup.
func detectIntent(query string) domain.QueryIntent {
	if strings.HasSuffix(strings.TrimSpace(query), "?") {
		return domain.IntentQuestion
	}

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return domain.IntentLookup
	}
	if questionWords[terms[0]] {
		return domain.IntentQuestion
	}
	if commandWords[terms[0]] {
		return domain.IntentCommand
	}
	return domain.IntentLookup
}

// detectEntities extracts [[wikilinks]], #tags, and "quoted phrases".
func detectEntities(query string) []string {
	var entities []string

	for _, m := range wikilinkPattern.FindAllStringSubmatch(query, -1) {
		entities = append(entities, m[1])
	}
	for _, m := range tagPattern.FindAllStringSubmatch(query, -1) {
		entities = append(entities, m[1])
	}
	for _, m := range phrasePattern.FindAllStringSubmatch(query, -1) {
		entities = append(entities, m[1])
	}

	return entities
}
