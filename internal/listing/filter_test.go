package listing

import (
	"reflect"
	"testing"

	"github.com/conorfennell/chainquiz/internal/domain"
)

func quizzes() []domain.Quiz {
	return []domain.Quiz{
		{ID: 0, Title: "a", Category: "DeFi"},
		{ID: 1, Title: "b", Category: "Web3"},
		{ID: 2, Title: "c", Category: "DeFi"},
		{ID: 3, Title: "d", Category: "NFTs"},
	}
}

func ids(qs []domain.Quiz) []int64 {
	out := []int64{}
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

func TestQuizzes(t *testing.T) {
	testCases := []struct {
		name     string
		category string
		expected []int64
	}{
		{name: "All is identity", category: All, expected: []int64{0, 1, 2, 3}},
		{name: "empty selection is identity", category: "", expected: []int64{0, 1, 2, 3}},
		{name: "preserves order", category: "DeFi", expected: []int64{0, 2}},
		{name: "single match", category: "NFTs", expected: []int64{3}},
		{name: "no match", category: "Smart Contracts", expected: []int64{}},
		{name: "exact match only", category: "defi", expected: []int64{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Quizzes(quizzes(), tc.category))
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Expected %v, but got %v", tc.expected, got)
			}
		})
	}
}

func TestAllReturnsSameCollection(t *testing.T) {
	in := quizzes()
	out := Quizzes(in, All)
	if len(out) != len(in) || &out[0] != &in[0] {
		t.Error("Expected All to return the input collection unchanged")
	}
}

func TestArticles(t *testing.T) {
	articles := []domain.Article{
		{ID: 1, Category: "DeFi", Difficulty: domain.Beginner},
		{ID: 2, Category: "DeFi", Difficulty: domain.Advanced},
		{ID: 3, Category: "Web3", Difficulty: domain.Beginner},
	}
	got := Articles(articles, "DeFi", string(domain.Beginner))
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Expected only article 1, but got %+v", got)
	}
	if got := Articles(articles, All, string(domain.Beginner)); len(got) != 2 {
		t.Errorf("Expected 2 beginner articles, but got %d", len(got))
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("DeFi", Categories); got != "DeFi" {
		t.Errorf("Expected 'DeFi', but got '%s'", got)
	}
	if got := Normalize("Gardening", Categories); got != All {
		t.Errorf("Expected unknown category to map to All, but got '%s'", got)
	}
}
