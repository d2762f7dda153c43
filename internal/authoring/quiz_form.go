package authoring

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/conorfennell/chainquiz/internal/domain"
	"github.com/conorfennell/chainquiz/internal/units"
)

// QuizCreator publishes a quiz and returns its id.
type QuizCreator interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (int64, error)
}

// QuestionForm is the form state of one question.
type QuestionForm struct {
	Text    string                     `form:"text" validate:"required"`
	Options [domain.OptionCount]string `form:"options" validate:"dive,required"`
	Correct int                        `form:"correct"`
}

// QuizForm is the form state of the quiz creation page.
type QuizForm struct {
	Title     string         `form:"title" validate:"required"`
	Category  string         `form:"category" validate:"required"`
	Questions []QuestionForm `form:"questions" validate:"required,min=1,dive"`
	Reward    string         `form:"reward" validate:"required"` // ether
}

// NewQuizForm returns an empty form with one blank question.
func NewQuizForm() QuizForm {
	return QuizForm{Questions: []QuestionForm{{}}, Reward: "0"}
}

// AddQuestion appends a blank question.
func (f *QuizForm) AddQuestion() {
	f.Questions = append(f.Questions, QuestionForm{})
}

// SetQuestion sets the text of question q. Unknown indexes are ignored.
func (f *QuizForm) SetQuestion(q int, text string) {
	if q >= 0 && q < len(f.Questions) {
		f.Questions[q].Text = text
	}
}

// SetOption sets option o of question q. Unknown indexes are ignored.
func (f *QuizForm) SetOption(q, o int, text string) {
	if q >= 0 && q < len(f.Questions) && o >= 0 && o < domain.OptionCount {
		f.Questions[q].Options[o] = text
	}
}

// SetCorrect sets the correct option of question q. The value is not
// range-checked; the contract is the authority on what it accepts.
func (f *QuizForm) SetCorrect(q, option int) {
	if q >= 0 && q < len(f.Questions) {
		f.Questions[q].Correct = option
	}
}

// Quiz validates the form and converts it to a quiz ready to publish.
func (f QuizForm) Quiz() (domain.Quiz, error) {
	if err := check(f); err != nil {
		return domain.Quiz{}, err
	}
	reward, err := units.ToWei(f.Reward)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("invalid reward: %w", err)
	}

	questions := make([]domain.Question, len(f.Questions))
	for i, q := range f.Questions {
		questions[i] = domain.Question{
			Text:          strings.TrimSpace(q.Text),
			Options:       q.Options,
			CorrectOption: q.Correct,
		}
	}
	return domain.Quiz{
		ID:        domain.UnknownQuizID,
		Title:     strings.TrimSpace(f.Title),
		Category:  f.Category,
		Questions: questions,
		Active:    true,
		Reward:    reward,
	}, nil
}

// Submit validates the form and issues one createQuiz write.
func (f QuizForm) Submit(ctx context.Context, c QuizCreator) (int64, error) {
	quiz, err := f.Quiz()
	if err != nil {
		return domain.UnknownQuizID, err
	}
	id, err := c.CreateQuiz(ctx, quiz)
	if err != nil {
		return domain.UnknownQuizID, fmt.Errorf("failed to create quiz %q: %w", quiz.Title, err)
	}
	return id, nil
}

// ParseQuizForm rebuilds form state from posted values. Question fields are
// named question-N, option-N-M and correct-N; "questions" carries the count.
func ParseQuizForm(values url.Values) QuizForm {
	f := QuizForm{
		Title:    values.Get("title"),
		Category: values.Get("category"),
		Reward:   values.Get("reward"),
	}
	count, err := strconv.Atoi(values.Get("questions"))
	if err != nil || count < 1 {
		count = 1
	}
	f.Questions = make([]QuestionForm, count)
	for q := 0; q < count; q++ {
		f.SetQuestion(q, values.Get(fmt.Sprintf("question-%d", q)))
		for o := 0; o < domain.OptionCount; o++ {
			f.SetOption(q, o, values.Get(fmt.Sprintf("option-%d-%d", q, o)))
		}
		if c, err := strconv.Atoi(values.Get(fmt.Sprintf("correct-%d", q))); err == nil {
			f.SetCorrect(q, c)
		}
	}
	return f
}
