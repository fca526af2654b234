package matcher

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "ＢＹＤ-8891", want: "byd8891"},
		{in: " 前梁 壳体_V2 ", want: "前梁壳体v2"},
		{in: "Front.Beam", want: "frontbeam"},
		{in: "ｶﾞ", want: "ガ"},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		needle   string
		want     float64
	}{
		{name: "substring", haystack: "2024前梁壳体探伤", needle: "前梁壳体", want: 1},
		{name: "partial bigrams", haystack: "前梁壳", needle: "前梁壳体", want: 0.8},
		{name: "disjoint", haystack: "长安支架", needle: "前梁壳体", want: 0},
		{name: "empty needle", haystack: "abc", needle: "", want: 0},
		{name: "single rune miss", haystack: "abc", needle: "z", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := similarity(normalize(tt.haystack), normalize(tt.needle))
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("similarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorer_Score(t *testing.T) {
	s := NewScorer(DefaultWeights())
	c := NewCandidate("PRJ-202403-001", "前梁壳体", "比亚迪", "BYD", "8891")

	tests := []struct {
		folder string
		want   int
	}{
		{folder: "比亚迪前梁壳体探伤", want: 100},
		{folder: "前梁壳体探伤报告", want: 60},
		{folder: "前梁壳", want: 48},
		{folder: "比亚迪_BYD-8891", want: 95},
		{folder: "ＢＹＤ-2024", want: 25},
		{folder: "X光检测_8891", want: 30},
		{folder: "长安支架", want: 0},
	}
	for _, tt := range tests {
		if got := s.Score(tt.folder, c); got != tt.want {
			t.Errorf("Score(%q) = %d, want %d", tt.folder, got, tt.want)
		}
	}
}

func TestScorer_PartNumberNeverLowersScore(t *testing.T) {
	s := NewScorer(DefaultWeights())
	c := NewCandidate("PRJ-202403-001", "前梁壳体", "比亚迪", "BYD", "8891")

	for _, base := range []string{"前梁", "比亚迪前梁壳体", "X光检测", "BYD 前梁壳", ""} {
		without := s.Score(base, c)
		with := s.Score(base+"_8891", c)
		if with < without {
			t.Errorf("Score(%q) = %d < Score(%q) = %d", base+"_8891", with, base, without)
		}
	}
}

func TestScorer_Best(t *testing.T) {
	s := NewScorer(DefaultWeights())
	candidates := []Candidate{
		NewCandidate("PRJ-202403-002", "前梁壳体", "长安", "", ""),
		NewCandidate("PRJ-202403-001", "前梁壳体", "长安", "", ""),
		NewCandidate("PRJ-202402-007", "支架", "吉利", "", ""),
	}

	id, score, ok := s.Best("前梁壳体探伤", candidates)
	if !ok || id != "PRJ-202403-001" || score != 60 {
		t.Errorf("Best() = (%s, %d, %v), want the lower id with 60", id, score, ok)
	}

	id, score, ok = s.Best("杂项资料", candidates)
	if ok || id != "" || score != 0 {
		t.Errorf("Best() = (%s, %d, %v), want unassigned", id, score, ok)
	}

	// customer alone is 40, the threshold
	id, _, ok = s.Best("吉利", candidates)
	if !ok || id != "PRJ-202402-007" {
		t.Errorf("Best(吉利) = (%s, %v), want PRJ-202402-007", id, ok)
	}
}
