package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the subset of *ethclient.Client the keeper uses.
type Backend interface {
	bind.ContractCaller
	bind.DeployBackend
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Submitter owns the nonce of one signing identity. Every strategy submits
// through the same Submitter so nonces are allocated in one place.
type Submitter struct {
	backend Backend
	signer  *Signer

	mu        sync.Mutex
	nonce     uint64
	haveNonce bool
}

func NewSubmitter(backend Backend, signer *Signer) (*Submitter, error) {
	if backend == nil {
		return nil, errors.New("chain backend is required")
	}
	if signer == nil {
		return nil, errors.New("signer is required")
	}
	return &Submitter{backend: backend, signer: signer}, nil
}

func (s *Submitter) Address() common.Address {
	return s.signer.Address()
}

func (s *Submitter) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return s.backend.SuggestGasPrice(ctx)
}

func (s *Submitter) EstimateGas(ctx context.Context, to common.Address, data []byte) (uint64, error) {
	return s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: s.signer.Address(),
		To:   &to,
		Data: data,
	})
}

// Send signs and broadcasts a call to the given contract. The nonce is held
// across allocation, signing and broadcast; a failed broadcast forces the
// next Send to re-read the pending nonce from the node.
func (s *Submitter) Send(ctx context.Context, to common.Address, data []byte, gasLimit uint64, gasPrice *big.Int) (*types.Transaction, error) {
	if gasPrice == nil || gasPrice.Sign() <= 0 {
		return nil, errors.New("gas price must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.haveNonce {
		nonce, err := s.backend.PendingNonceAt(ctx, s.signer.Address())
		if err != nil {
			return nil, fmt.Errorf("pending nonce: %w", err)
		}
		s.nonce = nonce
		s.haveNonce = true
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    s.nonce,
		To:       &to,
		Value:    new(big.Int),
		Gas:      gasLimit,
		GasPrice: new(big.Int).Set(gasPrice),
		Data:     data,
	})
	signed, err := s.signer.SignTx(tx)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		s.haveNonce = false
		return nil, err
	}
	s.nonce++
	return signed, nil
}

// WaitMined blocks until the transaction has a receipt or ctx ends.
func (s *Submitter) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return bind.WaitMined(ctx, s.backend, tx)
}
