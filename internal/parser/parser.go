// Package parser reads article and quiz drafts from plain-text files.
//
// An article starts with a "Title:" header and keeps its body after a "---"
// line:
//
//	Title: Intro to DeFi
//	Category: DeFi
//	Difficulty: Beginner
//	ReadTime: 5
//	---
//	Body text...
//
// A quiz starts with a "Quiz:" header followed by questions:
//
//	Quiz: Wallet basics
//	Category: Web3
//	Reward: 0.01
//	Q: What signs a transaction?
//	O: The node
//	O: The wallet
//	O: The miner
//	O: The contract
//	A: 1
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/conorfennell/chainquiz/internal/authoring"
	"github.com/conorfennell/chainquiz/internal/domain"
)

const (
	titlePrefix      = "Title:"
	quizPrefix       = "Quiz:"
	categoryPrefix   = "Category:"
	difficultyPrefix = "Difficulty:"
	readTimePrefix   = "ReadTime:"
	rewardPrefix     = "Reward:"
	questionPrefix   = "Q:"
	optionPrefix     = "O:"
	answerPrefix     = "A:"
	separator        = "---"
)

var prefixes = []string{
	titlePrefix, quizPrefix, categoryPrefix, difficultyPrefix, readTimePrefix,
	rewardPrefix, questionPrefix, optionPrefix, answerPrefix,
}

// ErrNoDocument is returned for files that hold neither an article nor a quiz.
var ErrNoDocument = errors.New("no article or quiz header found")

// Kind is the type of draft a file holds.
type Kind int

const (
	KindNone Kind = iota
	KindArticle
	KindQuiz
)

func (k Kind) String() string {
	switch k {
	case KindArticle:
		return "article"
	case KindQuiz:
		return "quiz"
	}
	return "none"
}

// Document is one parsed draft. Only the form matching Kind is filled.
type Document struct {
	Kind    Kind
	Article authoring.ArticleForm
	Quiz    authoring.QuizForm
}

type state int

const (
	seeking state = iota
	readingHeader
	readingBody
	readingQuestion
)

// ParseFile reads a file from the given path and extracts its draft.
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts one draft.
func Parse(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &Document{}
	var body []string
	var question *authoring.QuestionForm
	var questionText []string
	options := 0
	currentState := seeking
	lineNo := 0

	finishQuestion := func() {
		if question == nil {
			return
		}
		question.Text = strings.TrimSpace(strings.Join(questionText, "\n"))
		doc.Quiz.Questions = append(doc.Quiz.Questions, *question)
		question = nil
		questionText = nil
		options = 0
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if currentState == readingBody {
			body = append(body, line)
			continue
		}

		prefix, value := splitPrefix(line)

		if currentState == seeking {
			switch prefix {
			case titlePrefix:
				doc.Kind = KindArticle
				doc.Article.Title = value
				currentState = readingHeader
			case quizPrefix:
				doc.Kind = KindQuiz
				doc.Quiz.Title = value
				currentState = readingHeader
			default:
				if strings.TrimSpace(line) != "" {
					return nil, ErrNoDocument
				}
			}
			continue
		}

		if strings.TrimSpace(line) == separator {
			if doc.Kind == KindArticle {
				currentState = readingBody
			} else {
				finishQuestion()
				currentState = readingHeader
			}
			continue
		}

		switch {
		case prefix == categoryPrefix:
			doc.Article.Category = value
			doc.Quiz.Category = value
		case prefix == difficultyPrefix:
			doc.Article.Difficulty = value
		case prefix == readTimePrefix:
			minutes, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid read time %q: %w", lineNo, value, err)
			}
			doc.Article.ReadTime = minutes
		case prefix == rewardPrefix:
			doc.Quiz.Reward = value
		case prefix == questionPrefix && doc.Kind == KindQuiz:
			finishQuestion() // A new question always starts a new entry
			question = &authoring.QuestionForm{}
			questionText = []string{value}
			currentState = readingQuestion
		case prefix == optionPrefix && currentState == readingQuestion:
			if options < domain.OptionCount {
				question.Options[options] = value
			}
			options++
		case prefix == answerPrefix && currentState == readingQuestion:
			correct, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid answer index %q: %w", lineNo, value, err)
			}
			question.Correct = correct
		case prefix == "" && currentState == readingQuestion && options == 0:
			questionText = append(questionText, line)
		}
	}

	finishQuestion() // Finish the very last question in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if doc.Kind == KindNone {
		return nil, ErrNoDocument
	}
	if doc.Kind == KindArticle {
		doc.Article.Content = strings.TrimSpace(strings.Join(body, "\n"))
	}
	return doc, nil
}

func splitPrefix(line string) (string, string) {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return p, strings.TrimSpace(line[len(p):])
		}
	}
	return "", ""
}
