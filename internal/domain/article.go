package domain

import "github.com/ethereum/go-ethereum/common"

// Difficulty is the reading level of an article.
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Difficulties lists every difficulty tier in ascending order.
var Difficulties = []Difficulty{Beginner, Intermediate, Advanced}

// Article is an article as stored by the article contract.
type Article struct {
	ID         uint64
	Title      string
	Content    string
	Category   string
	Difficulty Difficulty
	ReadTime   int // minutes
	Views      uint64
	Author     common.Address
}
