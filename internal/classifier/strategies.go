package classifier

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/HendryAvila/sage/internal/catalog"
)

// ─── Learned ────────────────────────────────────────────────────────────────

// LearnedTable looks up a learned phrase contained in text.
type LearnedTable interface {
	Match(text string) (intent string, ok bool)
}

type learnedStrategy struct {
	table LearnedTable
}

// NewLearnedStrategy trusts learned phrases absolutely: the first phrase
// contained in the utterance wins with LearnedConfidence.
func NewLearnedStrategy(t LearnedTable) Strategy {
	return learnedStrategy{table: t}
}

func (learnedStrategy) Name() Source { return SourceLearned }

func (s learnedStrategy) Match(in Input) (string, float64, bool) {
	if in.Text == "" {
		return "", 0, false
	}
	intent, ok := s.table.Match(in.Text)
	if !ok {
		return "", 0, false
	}
	return intent, LearnedConfidence, true
}

// ─── Catalog ────────────────────────────────────────────────────────────────

type compiledPhrase struct {
	intent string
	phrase string
	re     *regexp.Regexp
}

type catalogStrategy struct {
	catalog *catalog.Catalog

	mu       sync.Mutex
	version  uint64
	compiled []compiledPhrase
}

// NewCatalogStrategy scores every catalog phrase with a word-boundary
// match. The score is len(phrase)/len(utterance); the strictly highest
// score wins, so earlier catalog entries win ties. Confidence is twice the
// score, capped at MaxConfidence.
func NewCatalogStrategy(c *catalog.Catalog) Strategy {
	return &catalogStrategy{catalog: c}
}

func (*catalogStrategy) Name() Source { return SourceCatalog }

func (s *catalogStrategy) Match(in Input) (string, float64, bool) {
	textLen := utf8.RuneCountInString(in.Text)
	if textLen == 0 {
		return "", 0, false
	}

	best := ""
	bestScore := 0.0
	for _, cp := range s.phrases() {
		if !cp.re.MatchString(in.Text) {
			continue
		}
		score := float64(utf8.RuneCountInString(cp.phrase)) / float64(textLen)
		if score > bestScore {
			bestScore = score
			best = cp.intent
		}
	}
	if best == "" {
		return "", 0, false
	}
	return best, min(bestScore*2, MaxConfidence), true
}

// phrases returns the compiled phrase list, rebuilding it when the
// catalog has changed.
func (s *catalogStrategy) phrases() []compiledPhrase {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.catalog.Version()
	if s.compiled != nil && v == s.version {
		return s.compiled
	}
	var out []compiledPhrase
	for _, in := range s.catalog.Intents() {
		for _, p := range in.Phrases {
			out = append(out, compiledPhrase{intent: in.ID, phrase: p, re: PhraseRegexp(p)})
		}
	}
	s.compiled = out
	s.version = v
	return out
}

// wordStart and wordEnd stand in for \b, which RE2 only applies to ASCII: a phrase
// must not touch a letter, mark, digit or underscore on either side.
const (
	wordStart = `(?:^|[^\p{L}\p{M}\p{N}_])`
	wordEnd   = `(?:$|[^\p{L}\p{M}\p{N}_])`
)

// PhraseRegexp compiles a literal phrase into a word-bounded pattern in
// which each run of whitespace matches one or more whitespace characters.
func PhraseRegexp(phrase string) *regexp.Regexp {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(wordStart + strings.Join(words, `\s+`) + wordEnd)
}
