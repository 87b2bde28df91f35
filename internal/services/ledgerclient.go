package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LedgerClient talks JSON over HTTP to the external settlement ledger
// service. Payloads are plain value types so the engine stays
// independent of the ledger's own transaction encoding.
type LedgerClient struct {
	baseURL string
	client  *http.Client
}

func NewLedgerClient(baseURL string, timeout time.Duration) *LedgerClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LedgerClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (lc *LedgerClient) CommitRound(ctx context.Context, commitHash string) (*RoundHandle, error) {
	var handle RoundHandle
	err := lc.post(ctx, "/rounds/commit", map[string]any{
		"commit_hash": commitHash,
	}, &handle)
	if err != nil {
		return nil, err
	}
	return &handle, nil
}

func (lc *LedgerClient) RevealAndSettle(ctx context.Context, secret, salt string) (*SettlementResult, error) {
	var result SettlementResult
	err := lc.post(ctx, "/rounds/settle", map[string]any{
		"secret": secret,
		"salt":   salt,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (lc *LedgerClient) ExecuteCashOut(ctx context.Context, playerID string, multiplier float64) (*TxReceipt, error) {
	var receipt TxReceipt
	err := lc.post(ctx, "/cashouts", map[string]any{
		"player_id":  playerID,
		"multiplier": multiplier,
	}, &receipt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (lc *LedgerClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lc.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := lc.client.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request failed: %v", err)
	}
	defer resp.Body.Close()

	// 4xx means the ledger rejected the call outright; retrying the
	// same payload cannot succeed. 5xx and transport errors are
	// transient.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return Permanent(fmt.Errorf("ledger rejected %s: status %d", path, resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode ledger response: %v", err)
	}
	return nil
}
