package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/rl1809/retail-ops/internal/core/canonical"
	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/port"
)

// 24 bytes is 192 bits of entropy.
const tokenBytes = 24

// Ledger issues and redeems confirmation tokens. It has no state of its own:
// tokens live in the store and every call runs inside the caller's unit of
// work, so a redemption commits or rolls back together with the mutation it
// guards.
type Ledger struct {
	ttl     time.Duration
	now     func() time.Time
	entropy io.Reader
}

func NewLedger(ttl time.Duration, now func() time.Time) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{ttl: ttl, now: now, entropy: rand.Reader}
}

// Issue stores a fresh unused token bound to action and the canonical form of payload.
func (l *Ledger) Issue(ctx context.Context, tx port.Tx, action domain.ActionKind, payload map[string]any) (domain.ConfirmationToken, error) {
	canon, err := canonical.Marshal(payload)
	if err != nil {
		return domain.ConfirmationToken{}, fmt.Errorf("canonical payload: %w", err)
	}

	raw := make([]byte, tokenBytes)
	if _, err := io.ReadFull(l.entropy, raw); err != nil {
		return domain.ConfirmationToken{}, fmt.Errorf("generate token: %w", err)
	}

	token := domain.ConfirmationToken{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		Action:    action,
		Payload:   canon,
		ExpiresAt: l.now().UTC().Add(l.ttl),
	}
	if err := tx.InsertToken(ctx, token); err != nil {
		return domain.ConfirmationToken{}, fmt.Errorf("insert token: %w", err)
	}
	return token, nil
}

// Redeem marks token used if it is unused, unexpired and bound to exactly
// action and payload. Any mismatch returns a token error and changes nothing.
func (l *Ledger) Redeem(ctx context.Context, tx port.Tx, token string, action domain.ActionKind, payload map[string]any) error {
	canon, err := canonical.Marshal(payload)
	if err != nil {
		return fmt.Errorf("canonical payload: %w", err)
	}

	stored, err := tx.GetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	switch {
	case stored == nil:
		return domain.Tokenf("unknown confirm_token")
	case stored.Used:
		return domain.Tokenf("confirm_token already used")
	case stored.Action != action:
		return domain.Tokenf("confirm_token was issued for %s, not %s", stored.Action, action)
	case stored.Payload != canon:
		return domain.Tokenf("confirm_token does not match this request")
	case l.now().After(stored.ExpiresAt):
		return domain.Tokenf("confirm_token expired at %s", stored.ExpiresAt.Format(time.RFC3339))
	}

	// The guarded update settles races between simultaneous redemptions.
	ok, err := tx.MarkTokenUsed(ctx, token)
	if err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}
	if !ok {
		return domain.Tokenf("confirm_token already used")
	}
	return nil
}
