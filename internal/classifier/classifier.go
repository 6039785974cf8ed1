// Package classifier maps an utterance to an intent, a confidence and the
// entities for that intent.
//
// Classification runs an ordered chain of strategies: learned phrases
// first, then the catalog, then the ai_response fallback. It performs no
// I/O and never learns; promotion is the learner's job.
package classifier

import (
	"strings"

	"github.com/HendryAvila/sage/internal/catalog"
	"github.com/HendryAvila/sage/internal/entities"
)

// FallbackIntent is returned when no strategy matches.
const FallbackIntent = "ai_response"

// Fixed confidences.
const (
	LearnedConfidence  = 0.9
	FallbackConfidence = 0.5
	MaxConfidence      = 0.95
)

// Source names the strategy that produced a result.
type Source string

const (
	SourceLearned  Source = "learned"
	SourceCatalog  Source = "catalog"
	SourceFallback Source = "fallback"
)

// Result is the outcome of classifying one utterance.
type Result struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   entities.Entities `json:"entities"`
	Source     Source            `json:"source"`
}

// Input is what each strategy sees.
type Input struct {
	// Text is the normalized utterance: lowercased and trimmed.
	Text string
	// Context is the running summary from earlier turns. The built-in
	// strategies do not score on it.
	Context string
}

// Strategy is one link of the classification chain.
type Strategy interface {
	Name() Source
	// Match returns the intent and confidence when the strategy applies.
	Match(in Input) (intent string, confidence float64, ok bool)
}

// Classifier runs strategies in order and extracts entities for the winner.
type Classifier struct {
	strategies []Strategy
	meta       entities.Metadata
}

// New returns a classifier running learned → catalog → fallback.
// learned may be nil.
func New(c *catalog.Catalog, learned LearnedTable) *Classifier {
	var chain []Strategy
	if learned != nil {
		chain = append(chain, NewLearnedStrategy(learned))
	}
	chain = append(chain, NewCatalogStrategy(c))
	return &Classifier{strategies: chain, meta: c}
}

// NewWithStrategies returns a classifier running the given chain. meta
// supplies static entity values and may be nil.
func NewWithStrategies(meta entities.Metadata, strategies ...Strategy) *Classifier {
	return &Classifier{strategies: strategies, meta: meta}
}

// Normalize lowercases and trims an utterance.
func Normalize(utterance string) string {
	return strings.ToLower(strings.TrimSpace(utterance))
}

// Classify returns the best intent for utterance. contextText is passed to
// every strategy.
func (c *Classifier) Classify(utterance, contextText string) Result {
	in := Input{Text: Normalize(utterance), Context: contextText}

	for _, s := range c.strategies {
		intent, conf, ok := s.Match(in)
		if !ok {
			continue
		}
		return Result{
			Intent:     intent,
			Confidence: conf,
			Entities:   entities.Extract(c.meta, intent, in.Text),
			Source:     s.Name(),
		}
	}

	return Result{
		Intent:     FallbackIntent,
		Confidence: FallbackConfidence,
		Entities:   entities.Entities{},
		Source:     SourceFallback,
	}
}
