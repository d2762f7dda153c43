// Package listing filters fetched quiz and article collections for display.
package listing

import "github.com/conorfennell/chainquiz/internal/domain"

// All is the category that selects everything.
const All = "All"

// Categories is the fixed tab order shown on both listings.
var Categories = []string{All, "Blockchain", "Web3", "Smart Contracts", "DeFi", "NFTs"}

// ByField returns the items whose field equals selected, in their original
// order. All and the empty string return items unchanged.
func ByField[T any](items []T, selected string, field func(T) string) []T {
	if selected == All || selected == "" {
		return items
	}
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if field(item) == selected {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Quizzes filters quizzes by category.
func Quizzes(quizzes []domain.Quiz, category string) []domain.Quiz {
	return ByField(quizzes, category, func(q domain.Quiz) string { return q.Category })
}

// Articles filters articles by category and then by difficulty.
func Articles(articles []domain.Article, category, difficulty string) []domain.Article {
	byCategory := ByField(articles, category, func(a domain.Article) string { return a.Category })
	return ByField(byCategory, difficulty, func(a domain.Article) string { return string(a.Difficulty) })
}

// Normalize maps unknown selections to All so a stray query parameter never
// produces an error page.
func Normalize(selected string, known []string) string {
	for _, k := range known {
		if k == selected {
			return selected
		}
	}
	return All
}
