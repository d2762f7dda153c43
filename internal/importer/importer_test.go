package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/conorfennell/chainquiz/internal/domain"
	"github.com/conorfennell/chainquiz/internal/storage"
)

const articleFile = `Title: Intro to DeFi
Category: DeFi
Difficulty: Beginner
---
Lending pools and automated market makers.
`

const quizFile = `Quiz: Wallet basics
Category: Web3
Reward: 0.01
Q: What signs a transaction?
O: The node
O: The wallet
O: The miner
O: The contract
A: 1
`

type fakeChain struct {
	quizzes     []domain.Quiz
	articles    []domain.Article
	deactivated []uint64
	createErr   error
}

func (f *fakeChain) CreateQuiz(ctx context.Context, quiz domain.Quiz) (int64, error) {
	if f.createErr != nil {
		return domain.UnknownQuizID, f.createErr
	}
	f.quizzes = append(f.quizzes, quiz)
	return int64(len(f.quizzes) - 1), nil
}

func (f *fakeChain) DeactivateQuiz(ctx context.Context, quizID uint64) error {
	f.deactivated = append(f.deactivated, quizID)
	return nil
}

func (f *fakeChain) CreateArticle(ctx context.Context, article domain.Article) (int64, error) {
	f.articles = append(f.articles, article)
	return int64(len(f.articles)), nil
}

func newTestImporter(t *testing.T) (*Importer, *fakeChain, *storage.DB) {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	chain := &fakeChain{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, chain, chain, t.TempDir(), logger), chain, db
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunPublishesOnceAndDeactivatesOrphans(t *testing.T) {
	im, chain, db := newTestImporter(t)
	dir := t.TempDir()
	writeFile(t, dir, "defi.md", articleFile)
	writeFile(t, dir, "wallet.md", quizFile)
	writeFile(t, dir, "README.md", "# Content\nNothing to import here.")
	writeFile(t, dir, "notes.txt", quizFile)

	source, err := im.AddSource(dir)
	if err != nil {
		t.Fatalf("AddSource() returned an unexpected error: %v", err)
	}
	ctx := context.Background()

	report, err := im.Run(ctx)
	if err != nil {
		t.Fatalf("Run() returned an unexpected error: %v", err)
	}
	if report.Published != 2 || len(report.Errors) != 0 {
		t.Fatalf("Expected 2 published and no errors, but got %+v", report)
	}
	if len(chain.quizzes) != 1 || len(chain.articles) != 1 {
		t.Fatalf("Expected one quiz and one article on chain, but got %d and %d", len(chain.quizzes), len(chain.articles))
	}
	if chain.quizzes[0].Reward.String() != "10000000000000000" {
		t.Errorf("Expected reward in wei, but got %s", chain.quizzes[0].Reward)
	}
	if chain.articles[0].ReadTime != 1 {
		t.Errorf("Expected estimated read time 1, but got %d", chain.articles[0].ReadTime)
	}

	report, err = im.Run(ctx)
	if err != nil {
		t.Fatalf("Second Run() returned an unexpected error: %v", err)
	}
	if report.Published != 0 || report.Unchanged != 2 {
		t.Errorf("Expected nothing new on the second run, but got %+v", report)
	}

	if err := os.Remove(filepath.Join(dir, "wallet.md")); err != nil {
		t.Fatal(err)
	}
	report, err = im.Run(ctx)
	if err != nil {
		t.Fatalf("Third Run() returned an unexpected error: %v", err)
	}
	if report.Deactivated != 1 || report.Dropped != 1 {
		t.Errorf("Expected one deactivated quiz, but got %+v", report)
	}
	if len(chain.deactivated) != 1 || chain.deactivated[0] != 0 {
		t.Errorf("Expected quiz 0 deactivated, but got %v", chain.deactivated)
	}

	imports, err := db.GetImportsBySourceID(source.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(imports) != 1 || imports[0].Kind != "article" {
		t.Errorf("Expected only the article import to remain, but got %+v", imports)
	}

	sources, err := db.GetAllSources()
	if err != nil {
		t.Fatal(err)
	}
	if !sources[0].LastScanned.Valid {
		t.Error("Expected last_scanned to be set")
	}
}

func TestRunRetriesFailedPublish(t *testing.T) {
	im, chain, _ := newTestImporter(t)
	dir := t.TempDir()
	writeFile(t, dir, "wallet.md", quizFile)
	if _, err := im.AddSource(dir); err != nil {
		t.Fatal(err)
	}

	chain.createErr = errors.New("execution reverted")
	report, err := im.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Published != 0 || len(report.Errors) != 1 {
		t.Fatalf("Expected one publish error, but got %+v", report)
	}

	chain.createErr = nil
	report, err = im.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Published != 1 {
		t.Errorf("Expected the quiz to publish on retry, but got %+v", report)
	}
}

func TestRunSyncsGitSources(t *testing.T) {
	im, chain, _ := newTestImporter(t)
	var synced []string
	im.syncRepo = func(ctx context.Context, repoURL, localPath string, logger *slog.Logger) error {
		synced = append(synced, repoURL)
		if err := os.MkdirAll(localPath, 0o755); err != nil {
			return err
		}
		writeFile(t, localPath, "defi.md", articleFile)
		return nil
	}

	if _, err := im.AddSource("https://github.com/acme/content.git"); err != nil {
		t.Fatal(err)
	}
	report, err := im.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(synced) != 1 || report.Published != 1 || len(chain.articles) != 1 {
		t.Errorf("Expected one synced repo and one article, but got %v and %+v", synced, report)
	}
}

func TestAddSource(t *testing.T) {
	im, _, _ := newTestImporter(t)
	dir := t.TempDir()

	first, err := im.AddSource(dir)
	if err != nil {
		t.Fatalf("AddSource() returned an unexpected error: %v", err)
	}
	if first.Type != SourceLocal {
		t.Errorf("Expected a local source, but got %s", first.Type)
	}
	second, err := im.AddSource(dir)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("Expected the existing source %d, but got %d", first.ID, second.ID)
	}

	git, err := im.AddSource("git@github.com:acme/content.git")
	if err != nil {
		t.Fatal(err)
	}
	if git.Type != SourceGit {
		t.Errorf("Expected a git source, but got %s", git.Type)
	}

	if _, err := im.AddSource(""); err == nil {
		t.Error("Expected an error for an empty path")
	}
	if _, err := im.AddSource(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}

func TestRunWithoutSources(t *testing.T) {
	im, _, _ := newTestImporter(t)
	report, err := im.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Sources != 0 {
		t.Errorf("Expected no sources, but got %d", report.Sources)
	}
}
