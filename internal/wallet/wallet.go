// Package wallet holds the process-wide signing identity used for every
// contract call. It is opened once at startup and shared by all views.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrProviderAbsent is returned when no signing key has been configured.
var ErrProviderAbsent = errors.New("no wallet configured: set wallet.private_key (or CHAINQUIZ_WALLET__PRIVATE_KEY) to connect an account")

// Bridge exposes the configured account and signs transactions for it.
type Bridge struct {
	key     *ecdsa.PrivateKey
	chainID *big.Int
	account common.Address
}

// Open builds a bridge from a hex-encoded private key. An empty key yields a
// bridge without an account; every signing operation on it reports
// ErrProviderAbsent so read-only pages keep working.
func Open(privateKeyHex string, chainID *big.Int) (*Bridge, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if privateKeyHex == "" {
		return &Bridge{chainID: chainID}, nil
	}

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse wallet private key: %w", err)
	}
	return &Bridge{
		key:     key,
		chainID: chainID,
		account: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Connected reports whether a signing account is available.
func (b *Bridge) Connected() bool {
	return b != nil && b.key != nil
}

// Account returns the current account.
func (b *Bridge) Account() (common.Address, error) {
	if !b.Connected() {
		return common.Address{}, ErrProviderAbsent
	}
	return b.account, nil
}

// Accounts mirrors the provider's account listing: one entry when connected.
func (b *Bridge) Accounts(ctx context.Context) ([]common.Address, error) {
	account, err := b.Account()
	if err != nil {
		return nil, err
	}
	return []common.Address{account}, nil
}

// CallOpts returns options for read-only calls, sent from the current
// account when there is one.
func (b *Bridge) CallOpts(ctx context.Context) *bind.CallOpts {
	opts := &bind.CallOpts{Context: ctx}
	if b.Connected() {
		opts.From = b.account
	}
	return opts
}

// TransactOpts returns signing options bound to ctx.
func (b *Bridge) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if !b.Connected() {
		return nil, ErrProviderAbsent
	}
	opts, err := bind.NewKeyedTransactorWithChainID(b.key, b.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor for %s: %w", b.account.Hex(), err)
	}
	opts.Context = ctx
	return opts, nil
}
