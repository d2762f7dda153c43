package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"
)

// Well-known development key (hardhat/anvil account #0).
const devKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
const devAccount = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestOpenWithKey(t *testing.T) {
	b, err := Open(devKey, big.NewInt(31337))
	if err != nil {
		t.Fatalf("Open() returned an unexpected error: %v", err)
	}
	if !b.Connected() {
		t.Fatal("Expected bridge to be connected")
	}
	account, err := b.Account()
	if err != nil {
		t.Fatalf("Account() returned an unexpected error: %v", err)
	}
	if account.Hex() != devAccount {
		t.Errorf("Expected account %s, but got %s", devAccount, account.Hex())
	}

	opts, err := b.TransactOpts(context.Background())
	if err != nil {
		t.Fatalf("TransactOpts() returned an unexpected error: %v", err)
	}
	if opts.From != account {
		t.Errorf("Expected transactor from %s, but got %s", account.Hex(), opts.From.Hex())
	}
	if call := b.CallOpts(context.Background()); call.From != account {
		t.Errorf("Expected call opts from %s, but got %s", account.Hex(), call.From.Hex())
	}
}

func TestOpenWithoutKey(t *testing.T) {
	b, err := Open("", big.NewInt(1))
	if err != nil {
		t.Fatalf("Open() returned an unexpected error: %v", err)
	}
	if b.Connected() {
		t.Error("Expected bridge without a key to be disconnected")
	}
	if _, err := b.Account(); !errors.Is(err, ErrProviderAbsent) {
		t.Errorf("Expected ErrProviderAbsent from Account(), but got %v", err)
	}
	if _, err := b.Accounts(context.Background()); !errors.Is(err, ErrProviderAbsent) {
		t.Errorf("Expected ErrProviderAbsent from Accounts(), but got %v", err)
	}
	if _, err := b.TransactOpts(context.Background()); !errors.Is(err, ErrProviderAbsent) {
		t.Errorf("Expected ErrProviderAbsent from TransactOpts(), but got %v", err)
	}
}

func TestOpenWithBadKey(t *testing.T) {
	if _, err := Open("not-hex", big.NewInt(1)); err == nil {
		t.Error("Expected an error for a malformed key")
	}
}
