package web

import (
	"net/http"
	"strconv"

	"github.com/conorfennell/chainquiz/internal/domain"
	"github.com/conorfennell/chainquiz/internal/listing"
	"github.com/conorfennell/chainquiz/internal/reader"
)

func difficultyNames() []string {
	names := []string{listing.All}
	for _, d := range domain.Difficulties {
		names = append(names, string(d))
	}
	return names
}

// handleArticles renders the article grid filtered by category and difficulty.
func (s *Server) handleArticles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		category := listing.Normalize(q.Get("category"), listing.Categories)
		difficulty := listing.Normalize(q.Get("difficulty"), difficultyNames())
		data := map[string]interface{}{
			"Title":        "Articles",
			"Categories":   listing.Categories,
			"Category":     category,
			"Difficulties": difficultyNames(),
			"Difficulty":   difficulty,
		}

		articles, err := s.articles.GetArticles(r.Context())
		if err != nil {
			s.logger.Error("Error fetching articles", "error", err)
			data["Error"] = "Could not load articles. Please try again."
		} else {
			data["Articles"] = listing.Articles(articles, category, difficulty)
		}

		if isHTMX(r) {
			s.render(w, "article_grid", data)
			return
		}
		s.render(w, "articles", data)
	}
}

// handleArticle renders one article and, with a wallet connected, starts its
// read tracker.
func (s *Server) handleArticle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid article ID", http.StatusBadRequest)
			return
		}

		article, err := s.articles.GetArticle(r.Context(), id)
		if err != nil {
			s.logger.Error("Error fetching article", "id", id, "error", err)
			s.renderStatus(w, http.StatusBadGateway, "article", map[string]interface{}{
				"Title": "Article",
				"Error": "Failed to fetch article. Please try again.",
			})
			return
		}
		if article == nil {
			s.renderStatus(w, http.StatusNotFound, "article", map[string]interface{}{"Title": "Article"})
			return
		}

		data := map[string]interface{}{
			"Title":   article.Title,
			"Article": article,
			"Body":    s.renderMarkdown(article.Content),
		}
		account, msg := s.account()
		if msg != "" {
			data["WalletMessage"] = msg
			s.render(w, "article", data)
			return
		}

		tracker := reader.New(*article, account, s.articles,
			reader.WithInterval(s.tick),
			reader.WithLogger(s.logger),
		)
		tracker.Start(s.baseCtx)
		token := s.views.add(&view{tracker: tracker})
		data["Token"] = token
		data["Status"] = tracker.Status()
		s.render(w, "article", data)
	}
}

// handleScroll records a scroll position reported by the page.
func (s *Server) handleScroll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, tracker := s.readerView(w, r)
		if tracker == nil {
			return
		}
		pos, err := parseScroll(r)
		if err != nil {
			http.Error(w, "Invalid scroll position", http.StatusBadRequest)
			return
		}
		tracker.Scrolled(pos)
		s.render(w, "reward_status", map[string]interface{}{"Token": token, "Status": tracker.Status()})
	}
}

// handleReadStatus renders the dwell and reward state for polling.
func (s *Server) handleReadStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, tracker := s.readerView(w, r)
		if tracker == nil {
			return
		}
		s.render(w, "reward_status", map[string]interface{}{"Token": token, "Status": tracker.Status()})
	}
}

// handleLeave drops a view when its page is closed.
func (s *Server) handleLeave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.views.remove(r.PathValue("token"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) readerView(w http.ResponseWriter, r *http.Request) (string, *reader.Tracker) {
	token := r.PathValue("token")
	v := s.views.get(token)
	if v == nil || v.tracker == nil {
		s.renderStatus(w, http.StatusGone, "expired", nil)
		return token, nil
	}
	return token, v.tracker
}

func parseScroll(r *http.Request) (reader.ScrollPosition, error) {
	var pos reader.ScrollPosition
	var err error
	if pos.Top, err = strconv.ParseFloat(r.PostFormValue("top"), 64); err != nil {
		return pos, err
	}
	if pos.ClientHeight, err = strconv.ParseFloat(r.PostFormValue("client_height"), 64); err != nil {
		return pos, err
	}
	if pos.ContentHeight, err = strconv.ParseFloat(r.PostFormValue("content_height"), 64); err != nil {
		return pos, err
	}
	return pos, nil
}
