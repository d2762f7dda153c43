package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/conorfennell/chainquiz/internal/listing"
	"github.com/conorfennell/chainquiz/internal/quiz"
)

// handleQuizzes renders the quiz grid for the selected category. HTMX
// requests get only the grid.
func (s *Server) handleQuizzes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := listing.Normalize(r.URL.Query().Get("category"), listing.Categories)
		data := map[string]interface{}{
			"Title":      "Quizzes",
			"Categories": listing.Categories,
			"Category":   category,
		}

		quizzes, err := s.quizzes.GetAllQuizzes(r.Context())
		if err != nil {
			s.logger.Error("Error fetching quizzes", "error", err)
			data["Error"] = "Could not load quizzes. Please try again."
		} else {
			data["Quizzes"] = listing.Quizzes(quizzes, category)
		}

		if isHTMX(r) {
			s.render(w, "quiz_grid", data)
			return
		}
		s.render(w, "quizzes", data)
	}
}

// handleQuiz opens a new attempt at the quiz with the given index.
func (s *Server) handleQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.ParseUint(r.PathValue("index"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid quiz index", http.StatusBadRequest)
			return
		}

		account, msg := s.account()
		if msg != "" {
			s.render(w, "wallet_missing", map[string]interface{}{"Title": "Quiz", "Message": msg})
			return
		}

		session := quiz.Start(r.Context(), s.quizzes, index, account, s.logger)
		snap := session.Snapshot()

		// A failed session accepts no further actions, so it gets no view.
		status := http.StatusOK
		token := ""
		switch {
		case errors.Is(snap.Err, quiz.ErrQuizNotFound):
			status = http.StatusNotFound
		case snap.State == quiz.Failed:
			status = http.StatusBadGateway
		default:
			token = s.views.add(&view{quiz: session})
		}
		s.renderStatus(w, status, "quiz", map[string]interface{}{
			"Title": snap.Quiz.Title,
			"Token": token,
			"Snap":  snap,
		})
	}
}

// handleSelectOption records the pending option and re-renders the panel.
func (s *Server) handleSelectOption() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, session := s.quizView(w, r)
		if session == nil {
			return
		}
		option, err := strconv.Atoi(r.PostFormValue("option"))
		if err != nil {
			http.Error(w, "Invalid option", http.StatusBadRequest)
			return
		}
		if err := session.SelectOption(option); err != nil && !errors.Is(err, quiz.ErrNotInProgress) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.render(w, "quiz_panel", map[string]interface{}{"Token": token, "Snap": session.Snapshot()})
	}
}

// handleNextQuestion submits the pending option and advances. Without a
// pending option the panel is re-rendered unchanged.
func (s *Server) handleNextQuestion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, session := s.quizView(w, r)
		if session == nil {
			return
		}
		// Submits run under the server context and survive a client disconnect.
		err := session.Next(s.baseCtx)
		if err != nil && !errors.Is(err, quiz.ErrNoSelection) && !errors.Is(err, quiz.ErrNotInProgress) {
			s.logger.Error("Error advancing quiz", "error", err)
		}
		s.render(w, "quiz_panel", map[string]interface{}{"Token": token, "Snap": session.Snapshot()})
	}
}

func (s *Server) quizView(w http.ResponseWriter, r *http.Request) (string, *quiz.Session) {
	token := r.PathValue("token")
	v := s.views.get(token)
	if v == nil || v.quiz == nil {
		s.renderStatus(w, http.StatusGone, "expired", nil)
		return token, nil
	}
	return token, v.quiz
}
