package domain

import "time"

// TxStatus is the outcome of a contract write as seen by this process.
type TxStatus int

const (
	TxFailed TxStatus = iota
	TxConfirmed
	TxReverted
)

func (s TxStatus) String() string {
	switch s {
	case TxConfirmed:
		return "confirmed"
	case TxReverted:
		return "reverted"
	default:
		return "failed"
	}
}

// Transaction records one contract write issued on behalf of an account.
// Hash is empty when the write never reached the network.
type Transaction struct {
	ID        int64
	Hash      string
	Method    string
	Account   string
	Subject   string
	Status    TxStatus
	Error     string
	CreatedAt time.Time
}
