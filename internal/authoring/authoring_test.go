package authoring

import (
	"context"
	"errors"
	"math/big"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/conorfennell/chainquiz/internal/domain"
)

type recorder struct {
	quizzes  []domain.Quiz
	articles []domain.Article
	err      error
}

func (r *recorder) CreateQuiz(ctx context.Context, quiz domain.Quiz) (int64, error) {
	r.quizzes = append(r.quizzes, quiz)
	return int64(len(r.quizzes) - 1), r.err
}

func (r *recorder) CreateArticle(ctx context.Context, article domain.Article) (int64, error) {
	r.articles = append(r.articles, article)
	return int64(len(r.articles) - 1), r.err
}

func filledQuizForm() QuizForm {
	f := NewQuizForm()
	f.Title = "Wallets"
	f.Category = "Web3"
	f.Reward = "0.01"
	f.SetQuestion(0, "What signs transactions?")
	for o, text := range []string{"the node", "the wallet", "the miner", "the contract"} {
		f.SetOption(0, o, text)
	}
	f.SetCorrect(0, 1)
	return f
}

func TestQuizFormSubmit(t *testing.T) {
	r := &recorder{}
	id, err := filledQuizForm().Submit(context.Background(), r)
	if err != nil {
		t.Fatalf("Submit() returned an unexpected error: %v", err)
	}
	if id != 0 || len(r.quizzes) != 1 {
		t.Fatalf("Expected exactly one createQuiz call, but got %d", len(r.quizzes))
	}
	quiz := r.quizzes[0]
	if quiz.Title != "Wallets" || quiz.Category != "Web3" {
		t.Errorf("Unexpected quiz header: %+v", quiz)
	}
	if quiz.Reward.Cmp(big.NewInt(1e16)) != 0 {
		t.Errorf("Expected reward 1e16 wei, but got %s", quiz.Reward)
	}
	if len(quiz.Questions) != 1 || quiz.Questions[0].CorrectOption != 1 || quiz.Questions[0].Options[1] != "the wallet" {
		t.Errorf("Unexpected questions: %+v", quiz.Questions)
	}
}

func TestQuizFormRequiredFields(t *testing.T) {
	f := filledQuizForm()
	f.Title = ""
	f.AddQuestion()

	r := &recorder{}
	_, err := f.Submit(context.Background(), r)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Expected ErrInvalid, but got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a ValidationError, but got %T", err)
	}
	joined := strings.Join(verr.Fields, " ")
	for _, field := range []string{"title", "questions[1].text", "questions[1].options[0]"} {
		if !strings.Contains(joined, field) {
			t.Errorf("Expected missing field %s in %v", field, verr.Fields)
		}
	}
	if len(r.quizzes) != 0 {
		t.Error("Expected no write for an invalid form")
	}
}

func TestQuizFormCorrectOptionNotRangeChecked(t *testing.T) {
	f := filledQuizForm()
	f.SetCorrect(0, 7)
	quiz, err := f.Quiz()
	if err != nil {
		t.Fatalf("Quiz() returned an unexpected error: %v", err)
	}
	if quiz.Questions[0].CorrectOption != 7 {
		t.Errorf("Expected correct option to pass through as 7, but got %d", quiz.Questions[0].CorrectOption)
	}
}

func TestQuizFormBadReward(t *testing.T) {
	f := filledQuizForm()
	f.Reward = "ten"
	if _, err := f.Quiz(); err == nil {
		t.Error("Expected an error for a non-numeric reward")
	}
}

func TestQuizFormCreatorError(t *testing.T) {
	r := &recorder{err: errors.New("user denied signature")}
	if _, err := filledQuizForm().Submit(context.Background(), r); err == nil {
		t.Error("Expected the contract error to be returned")
	}
}

func TestParseQuizForm(t *testing.T) {
	values := url.Values{
		"title":      {"Tokens"},
		"category":   {"DeFi"},
		"reward":     {"1"},
		"questions":  {"2"},
		"question-0": {"first"},
		"option-0-0": {"a"},
		"option-0-3": {"d"},
		"correct-0":  {"3"},
		"question-1": {"second"},
		"correct-1":  {"not a number"},
		"question-9": {"ignored"},
		"option-1-7": {"ignored"},
	}
	f := ParseQuizForm(values)
	if f.Title != "Tokens" || f.Category != "DeFi" || f.Reward != "1" {
		t.Errorf("Unexpected header fields: %+v", f)
	}
	if len(f.Questions) != 2 {
		t.Fatalf("Expected 2 questions, but got %d", len(f.Questions))
	}
	want := QuestionForm{Text: "first", Options: [4]string{"a", "", "", "d"}, Correct: 3}
	if !reflect.DeepEqual(f.Questions[0], want) {
		t.Errorf("Expected %+v, but got %+v", want, f.Questions[0])
	}
	if f.Questions[1].Text != "second" || f.Questions[1].Correct != 0 {
		t.Errorf("Unexpected second question: %+v", f.Questions[1])
	}

	if got := ParseQuizForm(url.Values{}); len(got.Questions) != 1 {
		t.Errorf("Expected an empty post to keep one blank question, but got %d", len(got.Questions))
	}
}

func TestArticleFormSubmit(t *testing.T) {
	r := &recorder{}
	f := NewArticleForm()
	f.Title = "Gas"
	f.Content = strings.Repeat("word ", 450)

	if _, err := f.Submit(context.Background(), r); err != nil {
		t.Fatalf("Submit() returned an unexpected error: %v", err)
	}
	if len(r.articles) != 1 {
		t.Fatalf("Expected one createArticle call, but got %d", len(r.articles))
	}
	a := r.articles[0]
	if a.Category != "Blockchain" || a.Difficulty != domain.Beginner {
		t.Errorf("Expected form defaults, but got %s/%s", a.Category, a.Difficulty)
	}
	if a.ReadTime != 3 {
		t.Errorf("Expected estimated read time 3, but got %d", a.ReadTime)
	}
}

func TestArticleFormRequiredFields(t *testing.T) {
	r := &recorder{}
	_, err := ParseArticleForm(url.Values{"title": {"Only a title"}}).Submit(context.Background(), r)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a ValidationError, but got %v", err)
	}
	if !reflect.DeepEqual(verr.Fields, []string{"content", "category", "difficulty"}) {
		t.Errorf("Unexpected missing fields: %v", verr.Fields)
	}
	if len(r.articles) != 0 {
		t.Error("Expected no write for an invalid form")
	}
}

func TestEstimateReadTime(t *testing.T) {
	testCases := []struct {
		words    int
		expected int
	}{
		{0, 1},
		{1, 1},
		{200, 1},
		{201, 2},
		{1000, 5},
	}
	for _, tc := range testCases {
		if got := EstimateReadTime(strings.Repeat("w ", tc.words)); got != tc.expected {
			t.Errorf("EstimateReadTime(%d words): expected %d, but got %d", tc.words, tc.expected, got)
		}
	}
}
