package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OptionCount is the fixed number of answer options on every question.
const OptionCount = 4

// UnknownQuizID marks quizzes returned by contract queries that do not expose
// the quiz's position in the full collection.
const UnknownQuizID int64 = -1

// Question is a single multiple-choice question inside a quiz.
type Question struct {
	Text          string
	Options       [OptionCount]string
	CorrectOption int // 0..3
}

// Quiz is a quiz as stored by the quiz contract.
// ID is the quiz's index in getAllQuizzes, which is also its on-chain id.
type Quiz struct {
	ID        int64
	Title     string
	Category  string
	Questions []Question
	Active    bool
	Creator   common.Address
	Reward    *big.Int // wei
}
