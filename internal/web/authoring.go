package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/conorfennell/chainquiz/internal/authoring"
	"github.com/conorfennell/chainquiz/internal/listing"
)

func formError(err error) string {
	var verr *authoring.ValidationError
	if errors.As(err, &verr) {
		return "Please fill in all required fields: " + strings.Join(verr.Fields, ", ")
	}
	return err.Error()
}

func (s *Server) articleFormData(form authoring.ArticleForm) map[string]interface{} {
	return map[string]interface{}{
		"Title":        "Write Article",
		"Form":         form,
		"Categories":   listing.Categories[1:],
		"Difficulties": difficultyNames()[1:],
	}
}

// handleGetWriteArticle renders an empty article form.
func (s *Server) handleGetWriteArticle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.articleFormData(authoring.NewArticleForm())
		if _, msg := s.account(); msg != "" {
			data["WalletMessage"] = msg
		}
		s.render(w, "write_article", data)
	}
}

// handlePostWriteArticle publishes the article in one createArticle call.
func (s *Server) handlePostWriteArticle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		form := authoring.ParseArticleForm(r.PostForm)
		data := s.articleFormData(form)

		id, err := form.Submit(r.Context(), s.articles)
		if err != nil {
			s.logger.Warn("Article not published", "title", form.Title, "error", err)
			if !errors.Is(err, authoring.ErrInvalid) {
				err = errors.New(walletMessage(err))
			}
			data["Error"] = formError(err)
			s.render(w, "article_form", data)
			return
		}

		s.logger.Info("Article published", "id", id, "title", form.Title)
		data["Form"] = authoring.NewArticleForm()
		data["Published"] = form.Title
		data["PublishedID"] = id
		s.render(w, "article_form", data)
	}
}

func (s *Server) quizFormData(form authoring.QuizForm) map[string]interface{} {
	return map[string]interface{}{
		"Title":      "Create Quiz",
		"Form":       form,
		"Categories": listing.Categories[1:],
	}
}

// handleGetCreateQuiz renders a quiz form with one blank question.
func (s *Server) handleGetCreateQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.quizFormData(authoring.NewQuizForm())
		if _, msg := s.account(); msg != "" {
			data["WalletMessage"] = msg
		}
		s.render(w, "create_quiz", data)
	}
}

// handleAddQuestion re-renders the posted form with one more blank question.
func (s *Server) handleAddQuestion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		form := authoring.ParseQuizForm(r.PostForm)
		form.AddQuestion()
		s.render(w, "quiz_form", s.quizFormData(form))
	}
}

// handlePostCreateQuiz publishes the quiz, funding its reward, in one
// createQuiz call.
func (s *Server) handlePostCreateQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		form := authoring.ParseQuizForm(r.PostForm)
		data := s.quizFormData(form)

		id, err := form.Submit(r.Context(), s.quizzes)
		if err != nil {
			s.logger.Warn("Quiz not created", "title", form.Title, "error", err)
			if !errors.Is(err, authoring.ErrInvalid) {
				err = errors.New(walletMessage(err))
			}
			data["Error"] = formError(err)
			s.render(w, "quiz_form", data)
			return
		}

		s.logger.Info("Quiz created", "id", id, "title", form.Title)
		data["Form"] = authoring.NewQuizForm()
		data["Published"] = form.Title
		data["PublishedID"] = id
		s.render(w, "quiz_form", data)
	}
}
