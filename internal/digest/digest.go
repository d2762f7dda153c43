// Package digest fingerprints authored content so re-importing an unchanged
// file never publishes it twice.
package digest

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/conorfennell/chainquiz/internal/authoring"
)

// Normalize cleans each part and joins them. Each part is trimmed,
// lowercased and has its line endings normalized.
func Normalize(parts ...string) string {
	cleaned := make([]string, len(parts))
	for i, part := range parts {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		cleaned[i] = p
	}
	// Joined with a newline so adjacent parts cannot run together.
	return strings.Join(cleaned, "\n")
}

// Hash normalizes parts and returns their SHA-256 hash as a hex string.
func Hash(parts ...string) string {
	hashBytes := sha256.Sum256([]byte(Normalize(parts...)))
	return fmt.Sprintf("%x", hashBytes)
}

// Article fingerprints an article form.
func Article(f authoring.ArticleForm) string {
	return Hash("article", f.Title, f.Category, f.Difficulty, f.Content)
}

// Quiz fingerprints a quiz form, including every question, option and answer.
func Quiz(f authoring.QuizForm) string {
	parts := []string{"quiz", f.Title, f.Category, f.Reward}
	for _, q := range f.Questions {
		parts = append(parts, q.Text)
		parts = append(parts, q.Options[:]...)
		parts = append(parts, strconv.Itoa(q.Correct))
	}
	return Hash(parts...)
}
