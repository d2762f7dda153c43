// Package quiz drives a single attempt at a quiz.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/conorfennell/chainquiz/internal/domain"
)

var (
	ErrQuizNotFound  = errors.New("quiz not found")
	ErrNotInProgress = errors.New("quiz is not in progress")
	ErrNoSelection   = errors.New("no option selected")
	ErrInvalidOption = errors.New("option out of range")
)

// State is the position of a session in its lifecycle.
type State int

const (
	Loading State = iota
	AlreadyAttempted
	InProgress
	Finished
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case AlreadyAttempted:
		return "already-attempted"
	case InProgress:
		return "in-progress"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Contract is the part of the quiz contract a session needs.
type Contract interface {
	GetAllQuizzes(ctx context.Context) ([]domain.Quiz, error)
	HasParticipated(ctx context.Context, quizID uint64, user common.Address) (bool, error)
	GetUserScore(ctx context.Context, quizID uint64, user common.Address) (uint64, error)
	SubmitAnswer(ctx context.Context, quizID uint64, questionIndex, option int) error
}

// Session is one account's attempt at one quiz. It only moves forward.
type Session struct {
	contract Contract
	quizID   uint64
	account  common.Address
	logger   *slog.Logger

	mu         sync.Mutex
	state      State
	quiz       domain.Quiz
	current    int
	score      int
	selected   int // -1 when nothing is pending
	priorScore uint64
	priorKnown bool
	submitErrs int
	err        error
}

// Snapshot is a consistent copy of a session's state for rendering.
type Snapshot struct {
	State         State
	Quiz          domain.Quiz
	QuizID        uint64
	Account       common.Address
	Current       int
	Total         int
	Score         int
	Selected      int
	PriorScore    uint64
	PriorKnown    bool
	FailedSubmits int
	Err           error
}

// Question returns the question being answered, or nil outside InProgress.
func (s Snapshot) Question() *domain.Question {
	if s.State != InProgress || s.Current >= len(s.Quiz.Questions) {
		return nil
	}
	return &s.Quiz.Questions[s.Current]
}

// HasSelection reports whether an option is pending.
func (s Snapshot) HasSelection() bool {
	return s.Selected >= 0
}

// Number is the one-based position of the current question.
func (s Snapshot) Number() int {
	return s.Current + 1
}

// New returns a session in the Loading state. Call Load to fetch the quiz.
func New(contract Contract, quizID uint64, account common.Address, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		contract: contract,
		quizID:   quizID,
		account:  account,
		logger:   logger.With("quiz_id", quizID, "account", account.Hex()),
		state:    Loading,
		selected: -1,
	}
}

// Start creates a session and loads it. A failed load leaves the session in
// Failed with the cause available through Snapshot.
func Start(ctx context.Context, contract Contract, quizID uint64, account common.Address, logger *slog.Logger) *Session {
	s := New(contract, quizID, account, logger)
	s.Load(ctx)
	return s
}

// Load fetches the quiz and the account's participation. It only acts on a
// session still in Loading.
func (s *Session) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Loading {
		return
	}

	quizzes, err := s.contract.GetAllQuizzes(ctx)
	if err != nil {
		s.fail(fmt.Errorf("failed to fetch quizzes: %w", err))
		return
	}
	if s.quizID >= uint64(len(quizzes)) {
		s.fail(fmt.Errorf("%w: index %d of %d", ErrQuizNotFound, s.quizID, len(quizzes)))
		return
	}
	s.quiz = quizzes[s.quizID]

	attempted, err := s.contract.HasParticipated(ctx, s.quizID, s.account)
	if err != nil {
		s.fail(fmt.Errorf("failed to check participation: %w", err))
		return
	}

	if attempted {
		s.state = AlreadyAttempted
		score, err := s.contract.GetUserScore(ctx, s.quizID, s.account)
		if err != nil {
			s.logger.Warn("Failed to fetch prior score", "error", err)
			return
		}
		s.priorScore = score
		s.priorKnown = true
		return
	}

	s.current = 0
	s.score = 0
	if len(s.quiz.Questions) == 0 {
		s.state = Finished
		return
	}
	s.state = InProgress
	s.logger.Debug("Quiz session started", "questions", len(s.quiz.Questions))
}

func (s *Session) fail(err error) {
	s.state = Failed
	s.err = err
	s.logger.Error("Quiz session failed to load", "error", err)
}

// SelectOption records a pending choice for the current question. It never
// advances the session.
func (s *Session) SelectOption(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return ErrNotInProgress
	}
	if index < 0 || index >= domain.OptionCount {
		return fmt.Errorf("%w: %d", ErrInvalidOption, index)
	}
	s.selected = index
	return nil
}

// Next scores the pending choice, submits it on chain and advances to the
// next question. Without a pending choice it returns ErrNoSelection and
// leaves the session unchanged. A failed submission is logged and does not
// stop the session.
func (s *Session) Next(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return ErrNotInProgress
	}
	if s.selected < 0 {
		return ErrNoSelection
	}

	question := s.quiz.Questions[s.current]
	if s.selected == question.CorrectOption {
		s.score++
	}

	if err := s.contract.SubmitAnswer(ctx, s.quizID, s.current, s.selected); err != nil {
		s.submitErrs++
		s.logger.Warn("Failed to submit answer", "question", s.current, "option", s.selected, "error", err)
	}

	s.selected = -1
	s.current++
	if s.current >= len(s.quiz.Questions) {
		s.state = Finished
		s.logger.Info("Quiz finished", "score", s.score, "questions", len(s.quiz.Questions))
	}
	return nil
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:         s.state,
		Quiz:          s.quiz,
		QuizID:        s.quizID,
		Account:       s.account,
		Current:       s.current,
		Total:         len(s.quiz.Questions),
		Score:         s.score,
		Selected:      s.selected,
		PriorScore:    s.priorScore,
		PriorKnown:    s.priorKnown,
		FailedSubmits: s.submitErrs,
		Err:           s.err,
	}
}
