// Package importer publishes article and quiz drafts found in content
// sources and retires quizzes whose files have disappeared.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/conorfennell/chainquiz/internal/authoring"
	"github.com/conorfennell/chainquiz/internal/digest"
	"github.com/conorfennell/chainquiz/internal/gitsource"
	"github.com/conorfennell/chainquiz/internal/parser"
	"github.com/conorfennell/chainquiz/internal/storage"
)

const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// QuizPublisher creates imported quizzes and deactivates orphaned ones.
type QuizPublisher interface {
	authoring.QuizCreator
	DeactivateQuiz(ctx context.Context, quizID uint64) error
}

// RepoSyncer brings a local clone of a git source up to date.
type RepoSyncer func(ctx context.Context, repoURL, localPath string, logger *slog.Logger) error

// Report summarises one import run.
type Report struct {
	Sources     int
	Published   int
	Unchanged   int
	Deactivated int
	Dropped     int
	Errors      []error
}

// Importer reconciles content sources against the import ledger.
type Importer struct {
	db       *storage.DB
	quizzes  QuizPublisher
	articles authoring.ArticleCreator
	reposDir string
	syncRepo RepoSyncer
	logger   *slog.Logger

	mu sync.Mutex // one run at a time
}

// New creates an importer that clones git sources under reposDir.
func New(db *storage.DB, quizzes QuizPublisher, articles authoring.ArticleCreator, reposDir string, logger *slog.Logger) *Importer {
	return &Importer{
		db:       db,
		quizzes:  quizzes,
		articles: articles,
		reposDir: reposDir,
		syncRepo: gitsource.Sync,
		logger:   logger,
	}
}

// AddSource registers a local directory or git URL. Adding a path twice
// returns the existing source.
func (im *Importer) AddSource(path string) (*storage.Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("source path cannot be empty")
	}

	sourceType := SourceLocal
	if gitsource.IsRemote(path) {
		sourceType = SourceGit
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve source path %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source path %s: %w", abs, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("source path %s is not a directory", abs)
		}
		path = abs
	}

	existing, err := im.db.FindSourceByPath(path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	id, err := im.db.InsertSource(path, sourceType)
	if err != nil {
		return nil, err
	}
	im.logger.Info("Added source", "id", id, "type", sourceType, "path", path)
	return &storage.Source{ID: id, Path: path, Type: sourceType}, nil
}

// Run iterates over all sources and reconciles them.
func (im *Importer) Run(ctx context.Context) (Report, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	var report Report
	im.logger.Info("Starting import for all sources...")
	sources, err := im.db.GetAllSources()
	if err != nil {
		return report, fmt.Errorf("failed to get sources: %w", err)
	}
	if len(sources) == 0 {
		im.logger.Info("No sources configured. Add one with --add_source <path/or/url.git>")
		return report, nil
	}

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		im.logger.Info("Importing source", "id", source.ID, "type", source.Type, "path", source.Path)
		report.Sources++

		dir := source.Path
		if source.Type == SourceGit {
			localPath, err := gitsource.LocalPath(im.reposDir, source.Path)
			if err != nil {
				report.Errors = append(report.Errors, err)
				continue
			}
			if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("failed to create repos directory: %w", err))
				continue
			}
			if err := im.syncRepo(ctx, source.Path, localPath, im.logger); err != nil {
				im.logger.Error("Error syncing git repo", "url", source.Path, "error", err)
				report.Errors = append(report.Errors, err)
				continue
			}
			dir = localPath
		}
		im.reconcile(ctx, source, dir, &report)
	}

	im.logger.Info("Import complete",
		"sources", report.Sources,
		"published", report.Published,
		"deactivated", report.Deactivated,
		"errors", len(report.Errors),
	)
	return report, nil
}

func (im *Importer) reconcile(ctx context.Context, source storage.Source, dir string, report *Report) {
	found := make(map[string]bool)
	failed := len(report.Errors)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		doc, parseErr := parser.ParseFile(path)
		if errors.Is(parseErr, parser.ErrNoDocument) {
			im.logger.Debug("Skipping file without a draft", "path", path)
			return nil
		}
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}

		hash, title := fingerprint(doc)
		found[hash] = true

		existing, findErr := im.db.FindImportByHash(hash)
		if findErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("db check for %s: %w", hash, findErr))
			return nil
		}
		if existing != nil {
			report.Unchanged++
			return nil
		}

		id, pubErr := im.publish(ctx, doc)
		if pubErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("publishing %s: %w", path, pubErr))
			return nil
		}
		im.logger.Info("Published draft", "kind", doc.Kind, "title", title, "id", id, "hash", hash)
		report.Published++

		imp := storage.Import{Hash: hash, Kind: doc.Kind.String(), Title: title, ChainID: id, SourceID: source.ID}
		if err := im.db.InsertImport(imp); err != nil {
			report.Errors = append(report.Errors, err)
		}
		return nil
	})
	if walkErr != nil {
		im.logger.Error("Error walking directory", "path", dir, "error", walkErr)
		report.Errors = append(report.Errors, fmt.Errorf("walking %s: %w", dir, walkErr))
		return
	}

	imports, err := im.db.GetImportsBySourceID(source.ID)
	if err != nil {
		report.Errors = append(report.Errors, err)
		return
	}
	for _, imp := range imports {
		if found[imp.Hash] {
			continue
		}
		if imp.Kind == parser.KindQuiz.String() && imp.ChainID >= 0 {
			if err := im.quizzes.DeactivateQuiz(ctx, uint64(imp.ChainID)); err != nil {
				// Keep the record so the next run retries.
				im.logger.Warn("Failed to deactivate orphaned quiz", "id", imp.ChainID, "error", err)
				report.Errors = append(report.Errors, err)
				continue
			}
			report.Deactivated++
		}
		im.logger.Info("Orphaned import, dropping", "kind", imp.Kind, "hash", imp.Hash)
		if err := im.db.DeleteImportByHash(imp.Hash); err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Dropped++
	}

	if err := im.db.UpdateSourceLastScanned(source.ID); err != nil {
		im.logger.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}
	im.logger.Info("Reconciliation complete", "path", dir, "errors", len(report.Errors)-failed)
}

func (im *Importer) publish(ctx context.Context, doc *parser.Document) (int64, error) {
	if doc.Kind == parser.KindQuiz {
		return doc.Quiz.Submit(ctx, im.quizzes)
	}
	return doc.Article.Submit(ctx, im.articles)
}

func fingerprint(doc *parser.Document) (hash, title string) {
	if doc.Kind == parser.KindQuiz {
		return digest.Quiz(doc.Quiz), doc.Quiz.Title
	}
	return digest.Article(doc.Article), doc.Article.Title
}
