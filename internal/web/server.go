package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/yuin/goldmark"

	"github.com/conorfennell/chainquiz/internal/authoring"
	"github.com/conorfennell/chainquiz/internal/domain"
	"github.com/conorfennell/chainquiz/internal/importer"
	"github.com/conorfennell/chainquiz/internal/quiz"
	"github.com/conorfennell/chainquiz/internal/reader"
	"github.com/conorfennell/chainquiz/internal/storage"
	"github.com/conorfennell/chainquiz/internal/units"
	"github.com/conorfennell/chainquiz/internal/wallet"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Wallet is the signing account shared by every view.
type Wallet interface {
	Account() (common.Address, error)
}

// QuizService is the quiz contract as the pages use it.
type QuizService interface {
	quiz.Contract
	authoring.QuizCreator
	GetQuizzesByUser(ctx context.Context, user common.Address) ([]domain.Quiz, error)
	GetUserTotalScore(ctx context.Context, user common.Address) (uint64, error)
}

// ArticleService is the article contract as the pages use it.
type ArticleService interface {
	reader.Rewarder
	authoring.ArticleCreator
	GetArticle(ctx context.Context, id uint64) (*domain.Article, error)
	GetArticles(ctx context.Context) ([]domain.Article, error)
}

// Importer manages content sources.
type Importer interface {
	AddSource(path string) (*storage.Source, error)
	Run(ctx context.Context) (importer.Report, error)
}

// Config holds the dependencies for the HTTP server.
type Config struct {
	DB       *storage.DB
	Wallet   Wallet
	Quizzes  QuizService
	Articles ArticleService
	Importer Importer
	Logger   *slog.Logger

	// BaseContext bounds work that outlives a request, such as reward calls.
	BaseContext  context.Context
	IdleTimeout  time.Duration
	TickInterval time.Duration // dwell tick; one second when zero
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	db        *storage.DB
	wallet    Wallet
	quizzes   QuizService
	articles  ArticleService
	importer  Importer
	logger    *slog.Logger
	baseCtx   context.Context
	tick      time.Duration
	views     *registry
	markdown  goldmark.Markdown
	router    *http.ServeMux
	templates *template.Template
}

// NewServer creates and configures a new server.
func NewServer(cfg Config) (*Server, error) {
	tpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	baseCtx := cfg.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = time.Second
	}

	s := &Server{
		db:        cfg.DB,
		wallet:    cfg.Wallet,
		quizzes:   cfg.Quizzes,
		articles:  cfg.Articles,
		importer:  cfg.Importer,
		logger:    logger,
		baseCtx:   baseCtx,
		tick:      tick,
		views:     newRegistry(idle, logger),
		markdown:  goldmark.New(),
		router:    http.NewServeMux(),
		templates: tpl,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run reaps idle views until ctx is done, then closes the rest.
func (s *Server) Run(ctx context.Context) {
	s.views.run(ctx)
}

// routes sets up the routing for the server.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem for static assets: %w", err)
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.Handle("GET /{$}", http.RedirectHandler("/quizzes", http.StatusSeeOther))

	s.router.HandleFunc("GET /quizzes", s.handleQuizzes())
	s.router.HandleFunc("GET /quiz/{index}", s.handleQuiz())
	s.router.HandleFunc("POST /views/{token}/select", s.handleSelectOption())
	s.router.HandleFunc("POST /views/{token}/next", s.handleNextQuestion())

	s.router.HandleFunc("GET /articles", s.handleArticles())
	s.router.HandleFunc("GET /article/{id}", s.handleArticle())
	s.router.HandleFunc("POST /views/{token}/scroll", s.handleScroll())
	s.router.HandleFunc("GET /views/{token}/status", s.handleReadStatus())
	s.router.HandleFunc("POST /views/{token}/leave", s.handleLeave())

	s.router.HandleFunc("GET /write-article", s.handleGetWriteArticle())
	s.router.HandleFunc("POST /write-article", s.handlePostWriteArticle())
	s.router.HandleFunc("GET /create-quiz", s.handleGetCreateQuiz())
	s.router.HandleFunc("POST /create-quiz", s.handlePostCreateQuiz())
	s.router.HandleFunc("POST /create-quiz/questions", s.handleAddQuestion())

	s.router.HandleFunc("GET /profile", s.handleProfile())

	// Source management routes
	s.router.HandleFunc("GET /sources", s.handleGetSources())
	s.router.HandleFunc("POST /sources", s.handlePostSource())
	s.router.HandleFunc("DELETE /sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /sync", s.handlePostSync())
	return nil
}

var templateFuncs = template.FuncMap{
	"ether":  units.FormatEther,
	"inc":    func(i int) int { return i + 1 },
	"letter": func(i int) string { return string(rune('A' + i)) },
	"short": func(a common.Address) string {
		h := a.Hex()
		return h[:6] + "…" + h[len(h)-4:]
	},
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	},
}

// render executes a template into a buffer so a failed render never sends a
// partial page.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	s.renderStatus(w, http.StatusOK, name, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("Failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// account returns the connected account, or the wallet error as a message
// ready to show.
func (s *Server) account() (common.Address, string) {
	if s.wallet == nil {
		return common.Address{}, walletMessage(nil)
	}
	account, err := s.wallet.Account()
	if err != nil {
		return common.Address{}, walletMessage(err)
	}
	return account, ""
}

func walletMessage(err error) string {
	if err == nil || errors.Is(err, wallet.ErrProviderAbsent) {
		return "No wallet is connected. Set wallet.private_key (or CHAINQUIZ_WALLET__PRIVATE_KEY) and restart to use this page."
	}
	return err.Error()
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (s *Server) renderMarkdown(content string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(content), &buf); err != nil {
		s.logger.Warn("Failed to render markdown, showing plain text", "error", err)
		return template.HTML(template.HTMLEscapeString(content))
	}
	return template.HTML(buf.String())
}
