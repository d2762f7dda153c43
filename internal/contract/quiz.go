package contract

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/conorfennell/chainquiz/internal/domain"
)

// quizTuple mirrors the contract's Quiz struct; field order matters.
type quizTuple struct {
	Title     string
	Category  string
	Questions []questionTuple
	IsActive  bool
	Creator   common.Address
	Reward    *big.Int
}

type questionTuple struct {
	QuestionText  string
	Options       [4]string
	CorrectOption uint8
}

type quizCreatedEvent struct {
	QuizId   *big.Int
	Title    string
	Category string
	Creator  common.Address
	Reward   *big.Int
}

// QuizContract is the proxy for the quiz contract.
type QuizContract struct {
	*boundContract
}

// NewQuizContract binds the quiz contract at address.
func NewQuizContract(address common.Address, backend Backend, signer Signer, journal Journal, logger *slog.Logger) (*QuizContract, error) {
	c, err := newBoundContract("quiz", "quiz.json", address, backend, signer, journal, logger)
	if err != nil {
		return nil, err
	}
	return &QuizContract{c}, nil
}

// GetAllQuizzes returns every quiz; each quiz's ID is its index.
func (q *QuizContract) GetAllQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	out, err := q.call(ctx, "getAllQuizzes")
	if err != nil {
		return nil, err
	}
	return decodeQuizzes(out[0], true), nil
}

// GetQuizzesByCategory returns the contract's category query. The results
// carry domain.UnknownQuizID.
func (q *QuizContract) GetQuizzesByCategory(ctx context.Context, category string) ([]domain.Quiz, error) {
	out, err := q.call(ctx, "getQuizzesByCategory", category)
	if err != nil {
		return nil, err
	}
	return decodeQuizzes(out[0], false), nil
}

// GetQuizzesByUser returns the quizzes created by user. The results carry
// domain.UnknownQuizID.
func (q *QuizContract) GetQuizzesByUser(ctx context.Context, user common.Address) ([]domain.Quiz, error) {
	out, err := q.call(ctx, "getQuizzesByUser", user)
	if err != nil {
		return nil, err
	}
	return decodeQuizzes(out[0], false), nil
}

// GetUserScore returns the on-chain score of user for one quiz.
func (q *QuizContract) GetUserScore(ctx context.Context, quizID uint64, user common.Address) (uint64, error) {
	out, err := q.call(ctx, "getUserScore", new(big.Int).SetUint64(quizID), user)
	if err != nil {
		return 0, err
	}
	return toUint64(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int)), nil
}

// GetUserTotalScore returns the score of user summed over all quizzes.
func (q *QuizContract) GetUserTotalScore(ctx context.Context, user common.Address) (uint64, error) {
	out, err := q.call(ctx, "getUserTotalScore", user)
	if err != nil {
		return 0, err
	}
	return toUint64(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int)), nil
}

// HasParticipated reports whether user already answered the quiz.
func (q *QuizContract) HasParticipated(ctx context.Context, quizID uint64, user common.Address) (bool, error) {
	out, err := q.call(ctx, "hasParticipated", new(big.Int).SetUint64(quizID), user)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// CreateQuiz publishes a quiz, paying its reward as the transaction value.
// It returns the id from the QuizCreated event, or domain.UnknownQuizID when
// the receipt carries none.
func (q *QuizContract) CreateQuiz(ctx context.Context, quiz domain.Quiz) (int64, error) {
	texts := make([]string, len(quiz.Questions))
	options := make([][4]string, len(quiz.Questions))
	correct := make([]uint8, len(quiz.Questions))
	for i, question := range quiz.Questions {
		texts[i] = question.Text
		options[i] = question.Options
		c, err := optionIndex(question.CorrectOption)
		if err != nil {
			return domain.UnknownQuizID, fmt.Errorf("question %d: %w", i, err)
		}
		correct[i] = c
	}
	reward := quiz.Reward
	if reward == nil {
		reward = new(big.Int)
	}

	receipt, err := q.send(ctx, "createQuiz", quiz.Title, reward, quiz.Title, quiz.Category, texts, options, correct, reward)
	if err != nil {
		return domain.UnknownQuizID, err
	}

	var ev quizCreatedEvent
	found, err := q.findEvent(receipt, "QuizCreated", &ev)
	if err != nil {
		return domain.UnknownQuizID, err
	}
	if !found || ev.QuizId == nil || !ev.QuizId.IsInt64() {
		return domain.UnknownQuizID, nil
	}
	return ev.QuizId.Int64(), nil
}

// SubmitAnswer records one answer on chain.
func (q *QuizContract) SubmitAnswer(ctx context.Context, quizID uint64, questionIndex, option int) error {
	opt, err := optionIndex(option)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("quiz %d question %d", quizID, questionIndex)
	_, err = q.send(ctx, "submitAnswer", subject, nil,
		new(big.Int).SetUint64(quizID), big.NewInt(int64(questionIndex)), opt)
	return err
}

// optionIndex converts an option index to the contract's uint8 without
// wrapping. Values the contract might reject are passed through unchanged.
func optionIndex(v int) (uint8, error) {
	if v < 0 || v > math.MaxUint8 {
		return 0, fmt.Errorf("%w: %d", ErrOptionOverflow, v)
	}
	return uint8(v), nil
}

// DeactivateQuiz marks a quiz inactive.
func (q *QuizContract) DeactivateQuiz(ctx context.Context, quizID uint64) error {
	_, err := q.send(ctx, "deactivateQuiz", "quiz "+strconv.FormatUint(quizID, 10), nil, new(big.Int).SetUint64(quizID))
	return err
}

func decodeQuizzes(raw interface{}, indexed bool) []domain.Quiz {
	tuples := *abi.ConvertType(raw, new([]quizTuple)).(*[]quizTuple)
	quizzes := make([]domain.Quiz, 0, len(tuples))
	for i, t := range tuples {
		id := domain.UnknownQuizID
		if indexed {
			id = int64(i)
		}
		quizzes = append(quizzes, t.toDomain(id))
	}
	return quizzes
}

func (t quizTuple) toDomain(id int64) domain.Quiz {
	questions := make([]domain.Question, len(t.Questions))
	for i, q := range t.Questions {
		questions[i] = domain.Question{
			Text:          q.QuestionText,
			Options:       q.Options,
			CorrectOption: int(q.CorrectOption),
		}
	}
	reward := t.Reward
	if reward == nil {
		reward = new(big.Int)
	}
	return domain.Quiz{
		ID:        id,
		Title:     t.Title,
		Category:  t.Category,
		Questions: questions,
		Active:    t.IsActive,
		Creator:   t.Creator,
		Reward:    reward,
	}
}
