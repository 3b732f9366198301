// Package config provides configuration constants for the query compiler.
package config

const (
	// SearchFieldPrefix is prepended to the capitalized name of searchable properties.
	SearchFieldPrefix = "searchFor"

	// LifecycleFieldPrefix is prepended to the capitalized name of the lifecycle property.
	LifecycleFieldPrefix = "lifecycleFor"

	// NestedFieldPrefix is prepended to the capitalized name of nested properties.
	NestedFieldPrefix = "nestedFor"

	// DefaultDateLayout formats time.Time placeholder parameters.
	DefaultDateLayout = "2006-01-02 15:04:05"

	// DefaultTypeField is the document field carrying the entity discriminator.
	DefaultTypeField = "_class"

	// MaxDeterminizedStates bounds the automaton built for regexp predicates.
	MaxDeterminizedStates = 10000

	// ScriptLang is the scripting language of generated fragments.
	ScriptLang = "painless"

	// ScoreField is the pseudo column that requests relevance scoring when used in ORDER BY.
	ScoreField = "_score"

	// MissingIdentifier is the right-hand identifier that asks for a missing field.
	MissingIdentifier = "missing"

	// BatchWorkerLimit caps the number of clauses compiled concurrently by a batch request.
	BatchWorkerLimit = 8

	// MaxBatchSize is the maximum number of clauses accepted by one batch request.
	MaxBatchSize = 500

	// HighlightFragmentSize is the length in characters of a highlighted fragment.
	HighlightFragmentSize = 100
)
