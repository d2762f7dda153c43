// Package contract is a typed proxy over the quiz and article contracts.
// Reads are plain calls; writes are signed by the wallet, waited on until
// mined and recorded in the transaction journal.
package contract

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/conorfennell/chainquiz/internal/domain"
)

//go:embed abi/*.json
var abiFiles embed.FS

// ErrReverted is returned when a transaction was mined but failed.
var ErrReverted = errors.New("transaction reverted")

// ErrOptionOverflow is returned for option indexes that do not fit in a uint8.
var ErrOptionOverflow = errors.New("option index does not fit in uint8")

// Backend is the chain connection; *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Signer supplies call and transaction options for the current account.
type Signer interface {
	CallOpts(ctx context.Context) *bind.CallOpts
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

// Journal records every write attempt.
type Journal interface {
	InsertTransaction(tx domain.Transaction) error
}

func loadABI(name string) (abi.ABI, error) {
	f, err := abiFiles.Open("abi/" + name)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to open %s abi: %w", name, err)
	}
	defer f.Close()

	parsed, err := abi.JSON(f)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse %s abi: %w", name, err)
	}
	return parsed, nil
}

// boundContract carries the plumbing shared by both proxies.
type boundContract struct {
	name    string
	address common.Address
	abi     abi.ABI
	bound   *bind.BoundContract
	backend Backend
	signer  Signer
	journal Journal
	logger  *slog.Logger
}

func newBoundContract(name, abiFile string, address common.Address, backend Backend, signer Signer, journal Journal, logger *slog.Logger) (*boundContract, error) {
	parsed, err := loadABI(abiFile)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &boundContract{
		name:    name,
		address: address,
		abi:     parsed,
		bound:   bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend: backend,
		signer:  signer,
		journal: journal,
		logger:  logger.With("contract", name),
	}, nil
}

func (c *boundContract) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := c.bound.Call(c.signer.CallOpts(ctx), &out, method, params...); err != nil {
		return nil, fmt.Errorf("failed to call %s.%s: %w", c.name, method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("failed to call %s.%s: empty result", c.name, method)
	}
	return out, nil
}

// send signs and broadcasts one transaction and waits for its receipt.
// Exactly one attempt is made.
func (c *boundContract) send(ctx context.Context, method, subject string, value *big.Int, params ...interface{}) (*types.Receipt, error) {
	opts, err := c.signer.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	opts.Value = value

	entry := domain.Transaction{
		Method:  method,
		Account: opts.From.Hex(),
		Subject: subject,
		Status:  domain.TxFailed,
	}

	tx, err := c.bound.Transact(opts, method, params...)
	if err != nil {
		entry.Error = err.Error()
		c.record(entry)
		return nil, fmt.Errorf("failed to send %s.%s: %w", c.name, method, err)
	}
	entry.Hash = tx.Hash().Hex()
	c.logger.Info("Transaction sent", "method", method, "subject", subject, "tx", entry.Hash)

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		entry.Error = err.Error()
		c.record(entry)
		return nil, fmt.Errorf("failed waiting for %s.%s (%s): %w", c.name, method, entry.Hash, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		entry.Status = domain.TxReverted
		entry.Error = ErrReverted.Error()
		c.record(entry)
		return receipt, fmt.Errorf("%s.%s (%s): %w", c.name, method, entry.Hash, ErrReverted)
	}

	entry.Status = domain.TxConfirmed
	c.record(entry)
	return receipt, nil
}

func (c *boundContract) record(entry domain.Transaction) {
	if c.journal == nil {
		return
	}
	if err := c.journal.InsertTransaction(entry); err != nil {
		c.logger.Warn("Failed to journal transaction", "method", entry.Method, "tx", entry.Hash, "error", err)
	}
}

// findEvent decodes the first log in receipt emitted by this contract for event.
func (c *boundContract) findEvent(receipt *types.Receipt, event string, out interface{}) (bool, error) {
	ev, ok := c.abi.Events[event]
	if !ok || receipt == nil {
		return false, nil
	}
	for _, l := range receipt.Logs {
		if l == nil || l.Address != c.address || len(l.Topics) == 0 || l.Topics[0] != ev.ID {
			continue
		}
		if err := c.bound.UnpackLog(out, event, *l); err != nil {
			return false, fmt.Errorf("failed to decode %s event: %w", event, err)
		}
		return true, nil
	}
	return false, nil
}

func toUint64(v *big.Int) uint64 {
	if v == nil || !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}
