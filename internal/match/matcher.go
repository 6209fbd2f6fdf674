// Package match reconciles free-text venue mentions against the canonical
// researched-venue list. Composer output is untrusted; nothing reaches the
// routing stage without passing through here.
package match

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
)

// Tier identifies which matching strategy produced a score.
type Tier string

const (
	TierExact        Tier = "exact"
	TierSubstring    Tier = "substring"
	TierTypoTolerant Tier = "typo-tolerant"
	TierTokenOverlap Tier = "token-overlap"
	TierNone         Tier = "none"
)

// Config holds the matching thresholds. All values are empirical and tunable.
type Config struct {
	// Floor is the global acceptance floor applied to the best candidate.
	Floor float64
	// SubstringScore is awarded for containment in either direction.
	SubstringScore float64
	// TypoThreshold is the minimum character-similarity ratio.
	TypoThreshold float64
	// TypoMaxLenDiff fast-rejects the typo tier when lengths differ by more.
	TypoMaxLenDiff int
	// TokenThreshold is the minimum token-set Jaccard overlap.
	TokenThreshold float64
}

// DefaultConfig returns the thresholds used in production.
func DefaultConfig() Config {
	return Config{
		Floor:          0.5,
		SubstringScore: 0.9,
		TypoThreshold:  0.85,
		TypoMaxLenDiff: 5,
		TokenThreshold: 0.5,
	}
}

// Result records how one mention was resolved, for diagnostics and tests.
type Result struct {
	Mention     string
	MatchedName string
	Tier        Tier
	Score       float64
}

// Report is the outcome of one matching pass.
type Report struct {
	// Matched holds the accepted canonical locations in mention order.
	Matched []model.EnhancedLocation
	// Results holds one entry per input mention, including misses.
	Results []Result
}

// Matcher scores mentions against canonical locations using tiered rules.
type Matcher struct {
	cfg Config
}

// New creates a Matcher. Zero-value thresholds fall back to defaults.
func New(cfg Config) *Matcher {
	def := DefaultConfig()
	if cfg.Floor <= 0 {
		cfg.Floor = def.Floor
	}
	if cfg.SubstringScore <= 0 {
		cfg.SubstringScore = def.SubstringScore
	}
	if cfg.TypoThreshold <= 0 {
		cfg.TypoThreshold = def.TypoThreshold
	}
	if cfg.TypoMaxLenDiff <= 0 {
		cfg.TypoMaxLenDiff = def.TypoMaxLenDiff
	}
	if cfg.TokenThreshold <= 0 {
		cfg.TokenThreshold = def.TokenThreshold
	}
	return &Matcher{cfg: cfg}
}

// Match resolves each mention to at most one canonical location. A location
// accepted for one mention leaves the pool for the rest of the pass, so the
// assignment is one-to-one.
func (m *Matcher) Match(mentions []string, locations []model.EnhancedLocation) *Report {
	report := &Report{}
	used := make([]bool, len(locations))

	for _, mention := range mentions {
		bestScore := 0.0
		bestTier := TierNone
		bestIdx := -1

		for idx, loc := range locations {
			if used[idx] {
				continue
			}
			score, tier := m.score(mention, loc.Name)
			if score > bestScore {
				bestScore = score
				bestTier = tier
				bestIdx = idx
				if tier == TierExact {
					break
				}
			}
		}

		result := Result{Mention: mention, Tier: TierNone, Score: bestScore}
		if bestIdx >= 0 && bestScore >= m.cfg.Floor {
			used[bestIdx] = true
			result.MatchedName = locations[bestIdx].Name
			result.Tier = bestTier
			report.Matched = append(report.Matched, locations[bestIdx])
		} else {
			zap.L().Warn("match: unmatched venue mention",
				zap.String("mention", mention),
				zap.Float64("best_score", bestScore),
			)
		}
		report.Results = append(report.Results, result)
	}

	return report
}

// score runs the tiered rules for one mention/candidate pair.
func (m *Matcher) score(mention, candidate string) (float64, Tier) {
	a := normalize(mention)
	b := normalize(candidate)
	if a == "" || b == "" {
		return 0, TierNone
	}

	if a == b {
		return 1.0, TierExact
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return m.cfg.SubstringScore, TierSubstring
	}

	if r := m.typoScore(a, b); r >= m.cfg.TypoThreshold {
		return r, TierTypoTolerant
	}

	if overlap := tokenOverlap(a, b); overlap >= m.cfg.TokenThreshold {
		return overlap, TierTokenOverlap
	}

	return 0, TierNone
}

// typoScore computes the character-similarity ratio, fast-rejecting pairs
// whose lengths differ too much to be plausible misspellings. Candidate names
// carrying a trailing locality ("Museum of Fine Arts, Boston") are also
// compared against the segment before the comma, since a misspelled mention
// usually omits the locality.
func (m *Matcher) typoScore(a, b string) float64 {
	best := 0.0
	if lenDiff(a, b) <= m.cfg.TypoMaxLenDiff {
		best = similarityRatio(a, b)
	}
	if head, _, found := strings.Cut(b, ","); found {
		head = strings.TrimSpace(head)
		if lenDiff(a, head) <= m.cfg.TypoMaxLenDiff {
			if r := similarityRatio(a, head); r > best {
				best = r
			}
		}
	}
	return best
}

var fold = cases.Fold()

func normalize(s string) string {
	return strings.TrimSpace(fold.String(s))
}

func lenDiff(a, b string) int {
	d := len([]rune(a)) - len([]rune(b))
	if d < 0 {
		return -d
	}
	return d
}

// similarityRatio computes 2*LCS/(len(a)+len(b)) over runes, the classic
// sequence-similarity ratio: 1.0 for identical strings, 0.0 for disjoint.
func similarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// tokenOverlap computes Jaccard similarity on whitespace token sets, with
// common punctuation stripped from token edges.
func tokenOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}

	union := len(setA)
	for tok := range setB {
		if !setA[tok] {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	tokens := strings.Fields(s)
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,;:!?()[]{}\"'")
		if tok != "" {
			set[tok] = true
		}
	}
	return set
}
