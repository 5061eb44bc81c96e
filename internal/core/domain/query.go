package domain

// ExpansionStrategy selects how a query is rewritten before retrieval.
type ExpansionStrategy string

// Available expansion strategies.
const (
	// ExpandNone disables query expansion.
	ExpandNone ExpansionStrategy = ""

	// ExpandRules applies the deterministic abbreviation/synonym table.
	ExpandRules ExpansionStrategy = "rules"

	// ExpandLLM asks the configured language model for a richer rewrite.
	// Falls back to rules when the model is unavailable or fails.
	ExpandLLM ExpansionStrategy = "llm"

	// ExpandHybrid runs the rule table first and lets the model ornament
	// the result, combining both confidence scores.
	ExpandHybrid ExpansionStrategy = "hybrid"
)

// QueryIntent classifies what the user is trying to do.
type QueryIntent string

// Recognised query intents.
const (
	IntentQuestion QueryIntent = "question"
	IntentLookup   QueryIntent = "lookup"
	IntentCommand  QueryIntent = "command"
)

// QueryAnalysis records how a query was interpreted and expanded.
// It is created fresh per search and never persisted.
type QueryAnalysis struct {
	// Original is the query as submitted, after whitespace trimming.
	Original string

	// Expanded is the query actually sent to retrieval.
	Expanded string

	// Intent is the detected query intent.
	Intent QueryIntent

	// Entities are detected named references: [[wikilinks]], #tags,
	// and "quoted phrases".
	Entities []string

	// Confidence is the expander's confidence in the rewrite, in [0, 1].
	Confidence float64

	// Strategy is the expansion strategy that produced Expanded.
	Strategy ExpansionStrategy
}
