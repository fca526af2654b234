package matcher

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Weights tunes the scorer. Name and Customer weight the similarity term;
// CustomerCode and PartNumber are flat bonuses for exact substrings.
type Weights struct {
	Name         float64
	Customer     float64
	CustomerCode int
	PartNumber   int
	Threshold    int
}

// DefaultWeights returns the stock scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Name:         0.6,
		Customer:     0.4,
		CustomerCode: 25,
		PartNumber:   30,
		Threshold:    40,
	}
}

// Candidate is a project as seen by the scorer, with its fields already
// normalized.
type Candidate struct {
	ID           string
	name         string
	customer     string
	customerCode string
	partNumber   string
}

// NewCandidate normalizes the matched fields of a project.
func NewCandidate(id, name, customer, customerCode, partNumber string) Candidate {
	return Candidate{
		ID:           id,
		name:         normalize(name),
		customer:     normalize(customer),
		customerCode: normalize(customerCode),
		partNumber:   normalize(partNumber),
	}
}

// Scorer scores folder names against candidates.
type Scorer struct {
	w Weights
}

// NewScorer returns a scorer using w.
func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Weights returns the scorer configuration.
func (s *Scorer) Weights() Weights {
	return s.w
}

// Score returns a 0..100 score of folder against c. The bonuses are added
// after the similarity term, so a bonus never lowers a score.
func (s *Scorer) Score(folder string, c Candidate) int {
	return s.score(normalize(folder), c)
}

func (s *Scorer) score(folder string, c Candidate) int {
	base := s.w.Name*similarity(folder, c.name) + s.w.Customer*similarity(folder, c.customer)
	score := int(math.Round(100 * base))
	score = min(max(score, 0), 100)

	if c.customerCode != "" && strings.Contains(folder, c.customerCode) {
		score += s.w.CustomerCode
	}
	if c.partNumber != "" && strings.Contains(folder, c.partNumber) {
		score += s.w.PartNumber
	}
	return min(score, 100)
}

// Best returns the highest scoring candidate for folder. Ties go to the
// lower project id. ok is false when no candidate reaches the threshold;
// score is then the best score seen.
func (s *Scorer) Best(folder string, candidates []Candidate) (id string, score int, ok bool) {
	folder = normalize(folder)
	for _, c := range candidates {
		sc := s.score(folder, c)
		if sc > score || (sc == score && id != "" && c.ID < id) {
			id, score = c.ID, sc
		}
	}
	if id == "" || score < s.w.Threshold {
		return "", score, false
	}
	return id, score, true
}

var foldWidth = transform.Chain(norm.NFKC, width.Fold)

// normalize applies NFKC, width folding and case folding and drops
// separators.
func normalize(s string) string {
	folded, _, err := transform.String(foldWidth, s)
	if err != nil {
		folded = s
	}
	// a Caser holds state and cannot be shared
	folded = cases.Fold().String(folded)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			return -1
		}
		return r
	}, folded)
}

// similarity is 1 when needle is contained in haystack, otherwise the
// Sørensen–Dice coefficient over rune bigrams. Both are normalized.
func similarity(haystack, needle string) float64 {
	if needle == "" || haystack == "" {
		return 0
	}
	if strings.Contains(haystack, needle) {
		return 1
	}
	a, na := bigrams(haystack)
	b, nb := bigrams(needle)
	if na == 0 || nb == 0 {
		return 0
	}
	shared := 0
	for g, n := range b {
		shared += min(n, a[g])
	}
	return 2 * float64(shared) / float64(na+nb)
}

func bigrams(s string) (map[[2]rune]int, int) {
	r := []rune(s)
	if len(r) < 2 {
		return nil, 0
	}
	out := make(map[[2]rune]int, len(r)-1)
	for i := 0; i+1 < len(r); i++ {
		out[[2]rune{r[i], r[i+1]}]++
	}
	return out, len(r) - 1
}
