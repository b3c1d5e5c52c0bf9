package state

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

type TxStatus string

const (
	TxPending      TxStatus = "pending"
	TxConfirmed    TxStatus = "confirmed"
	TxFailed       TxStatus = "failed"
	TxInconclusive TxStatus = "inconclusive"
)

// TxRecord is the journal entry for one submitted arbitrage transaction.
// Amounts are decimal strings of base units.
type TxRecord struct {
	Hash           string   `msgpack:"hash"`
	Strategy       string   `msgpack:"strategy"`
	Contract       string   `msgpack:"contract"`
	Status         TxStatus `msgpack:"status"`
	FlashAmount    string   `msgpack:"flash_amount"`
	MinOut         string   `msgpack:"min_out"`
	ExpectedProfit string   `msgpack:"expected_profit"`
	Nonce          uint64   `msgpack:"nonce"`
	GasLimit       uint64   `msgpack:"gas_limit"`
	GasPriceWei    string   `msgpack:"gas_price_wei"`
	GasUsed        uint64   `msgpack:"gas_used,omitempty"`
	Block          uint64   `msgpack:"block,omitempty"`
	Error          string   `msgpack:"error,omitempty"`
	SubmittedAtMS  int64    `msgpack:"submitted_at_ms"`
	UpdatedAtMS    int64    `msgpack:"updated_at_ms"`
}

func (r TxRecord) Terminal() bool {
	return r.Status == TxConfirmed || r.Status == TxFailed || r.Status == TxInconclusive
}

func TxKey(hash string) string {
	return "tx:" + strings.ToLower(hash)
}

func LastTxKey(strategy string) string {
	return "strategy:" + strategy + ":last_tx"
}

// SaveTx writes the record and points the strategy's last_tx at it.
func SaveTx(ctx context.Context, store Store, record TxRecord) error {
	if store == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(record.Hash) == "" {
		return errors.New("tx record hash is required")
	}
	payload, err := msgpack.Marshal(&record)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, TxKey(record.Hash), base64.StdEncoding.EncodeToString(payload)); err != nil {
		return err
	}
	if record.Strategy == "" {
		return nil
	}
	return store.Set(ctx, LastTxKey(record.Strategy), strings.ToLower(record.Hash))
}

func LoadTx(ctx context.Context, store Store, hash string) (TxRecord, bool, error) {
	if store == nil {
		return TxRecord{}, false, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	raw, ok, err := store.Get(ctx, TxKey(hash))
	if err != nil {
		return TxRecord{}, false, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return TxRecord{}, false, nil
	}
	payload, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return TxRecord{}, false, err
	}
	var record TxRecord
	if err := msgpack.Unmarshal(payload, &record); err != nil {
		return TxRecord{}, false, err
	}
	return record, true, nil
}

// LastTx returns the most recent journal entry for a strategy.
func LastTx(ctx context.Context, store Store, strategy string) (TxRecord, bool, error) {
	if store == nil {
		return TxRecord{}, false, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	hash, ok, err := store.Get(ctx, LastTxKey(strategy))
	if err != nil || !ok || hash == "" {
		return TxRecord{}, false, err
	}
	return LoadTx(ctx, store, hash)
}
