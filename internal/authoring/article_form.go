package authoring

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/conorfennell/chainquiz/internal/domain"
)

const wordsPerMinute = 200

// ArticleCreator publishes an article and returns its id.
type ArticleCreator interface {
	CreateArticle(ctx context.Context, article domain.Article) (int64, error)
}

// ArticleForm is the form state of the article writing page.
type ArticleForm struct {
	Title      string `form:"title" validate:"required"`
	Content    string `form:"content" validate:"required"`
	Category   string `form:"category" validate:"required"`
	Difficulty string `form:"difficulty" validate:"required"`
	ReadTime   int    `form:"read_time"` // minutes; estimated from content when zero
}

// NewArticleForm returns the form's initial state.
func NewArticleForm() ArticleForm {
	return ArticleForm{Category: "Blockchain", Difficulty: string(domain.Beginner)}
}

// EstimateReadTime returns whole minutes at 200 words per minute, at least 1.
func EstimateReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Article validates the form and converts it to an article ready to publish.
func (f ArticleForm) Article() (domain.Article, error) {
	if err := check(f); err != nil {
		return domain.Article{}, err
	}
	readTime := f.ReadTime
	if readTime <= 0 {
		readTime = EstimateReadTime(f.Content)
	}
	return domain.Article{
		Title:      strings.TrimSpace(f.Title),
		Content:    f.Content,
		Category:   f.Category,
		Difficulty: domain.Difficulty(f.Difficulty),
		ReadTime:   readTime,
	}, nil
}

// Submit validates the form and issues one createArticle write.
func (f ArticleForm) Submit(ctx context.Context, c ArticleCreator) (int64, error) {
	article, err := f.Article()
	if err != nil {
		return -1, err
	}
	id, err := c.CreateArticle(ctx, article)
	if err != nil {
		return -1, fmt.Errorf("failed to create article %q: %w", article.Title, err)
	}
	return id, nil
}

// ParseArticleForm rebuilds form state from posted values.
func ParseArticleForm(values url.Values) ArticleForm {
	f := ArticleForm{
		Title:      values.Get("title"),
		Content:    values.Get("content"),
		Category:   values.Get("category"),
		Difficulty: values.Get("difficulty"),
	}
	if rt, err := strconv.Atoi(values.Get("read_time")); err == nil {
		f.ReadTime = rt
	}
	return f
}
