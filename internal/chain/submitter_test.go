package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := NewSigner(hexutil.Encode(crypto.FromECDSA(key)), big.NewInt(1))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if signer.Address() != crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatalf("signer address mismatch")
	}
	return signer
}

func TestNewSignerRejectsEmptyKey(t *testing.T) {
	if _, err := NewSigner("  ", big.NewInt(1)); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := NewSigner(strings.Repeat("1", 64), nil); err == nil {
		t.Fatalf("expected error for missing chain id")
	}
}

func TestSubmitterAllocatesSequentialNonces(t *testing.T) {
	backend := &fakeBackend{nonce: 7}
	signer := newTestSigner(t)
	sub, err := NewSubmitter(backend, signer)
	if err != nil {
		t.Fatalf("new submitter: %v", err)
	}
	to := common.HexToAddress("0x01")
	for i := 0; i < 2; i++ {
		if _, err := sub.Send(context.Background(), to, []byte{0x01}, 100000, big.NewInt(1e9)); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if backend.nonceCalls != 1 {
		t.Fatalf("expected one nonce fetch, got %d", backend.nonceCalls)
	}
	if backend.sent[0].Nonce() != 7 || backend.sent[1].Nonce() != 8 {
		t.Fatalf("unexpected nonces %d %d", backend.sent[0].Nonce(), backend.sent[1].Nonce())
	}
	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1)), backend.sent[0])
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if from != signer.Address() {
		t.Fatalf("unexpected sender %s", from.Hex())
	}
	if backend.sent[0].Gas() != 100000 {
		t.Fatalf("unexpected gas limit %d", backend.sent[0].Gas())
	}
}

func TestSubmitterRefetchesNonceAfterFailure(t *testing.T) {
	backend := &fakeBackend{nonce: 3, sendErr: errors.New("nonce too low")}
	sub, err := NewSubmitter(backend, newTestSigner(t))
	if err != nil {
		t.Fatalf("new submitter: %v", err)
	}
	to := common.HexToAddress("0x01")
	if _, err := sub.Send(context.Background(), to, nil, 21000, big.NewInt(1)); err == nil {
		t.Fatalf("expected send failure")
	}
	backend.sendErr = nil
	backend.nonce = 4
	tx, err := sub.Send(context.Background(), to, nil, 21000, big.NewInt(1))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if backend.nonceCalls != 2 || tx.Nonce() != 4 {
		t.Fatalf("expected refetched nonce 4, got %d after %d fetches", tx.Nonce(), backend.nonceCalls)
	}
}

func TestSubmitterRejectsZeroGasPrice(t *testing.T) {
	sub, err := NewSubmitter(&fakeBackend{}, newTestSigner(t))
	if err != nil {
		t.Fatalf("new submitter: %v", err)
	}
	if _, err := sub.Send(context.Background(), common.Address{}, nil, 1, big.NewInt(0)); err == nil {
		t.Fatalf("expected error for zero gas price")
	}
}

func TestSubmitterEstimateGasUsesSignerAsSender(t *testing.T) {
	backend := &fakeBackend{estimate: 250000}
	signer := newTestSigner(t)
	sub, _ := NewSubmitter(backend, signer)
	gas, err := sub.EstimateGas(context.Background(), common.HexToAddress("0x01"), []byte{0x02})
	if err != nil || gas != 250000 {
		t.Fatalf("estimate: %d %v", gas, err)
	}
	if backend.calls[0].From != signer.Address() {
		t.Fatalf("expected estimate from signer address")
	}
}

func TestSubmitterWaitMined(t *testing.T) {
	backend := &fakeBackend{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, GasUsed: 21000}}
	sub, _ := NewSubmitter(backend, newTestSigner(t))
	tx, err := sub.Send(context.Background(), common.HexToAddress("0x01"), nil, 21000, big.NewInt(1))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	receipt, err := sub.WaitMined(ctx, tx)
	if err != nil {
		t.Fatalf("wait mined: %v", err)
	}
	if receipt.GasUsed != 21000 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}
