package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lukman83/components-radar/internal/storage"
)

// ResendCooldown is how long the user waits between OTP resends.
const ResendCooldown = 120 * time.Second

// OTPTimer persists the end of the resend cooldown as unix milliseconds.
type OTPTimer struct {
	store storage.Store
	now   func() time.Time
}

func NewOTPTimer(store storage.Store) *OTPTimer {
	return &OTPTimer{store: store, now: time.Now}
}

// Restart begins a new cooldown.
func (t *OTPTimer) Restart(ctx context.Context) error {
	end := t.now().Add(ResendCooldown).UnixMilli()
	if err := t.store.Set(ctx, storage.KeyOTPTimerEnd, strconv.FormatInt(end, 10)); err != nil {
		return fmt.Errorf("store otp timer: %w", err)
	}
	return nil
}

// Remaining returns the time left before a resend is allowed, rounded up
// to whole seconds so it never shows 0 while resending is still refused.
func (t *OTPTimer) Remaining(ctx context.Context) time.Duration {
	raw, ok, err := t.store.Get(ctx, storage.KeyOTPTimerEnd)
	if err != nil || !ok {
		return 0
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	left := time.UnixMilli(ms).Sub(t.now())
	if left <= 0 {
		return 0
	}
	if r := left.Truncate(time.Second); r < left {
		return r + time.Second
	}
	return left
}

func (t *OTPTimer) Clear(ctx context.Context) error {
	return t.store.Delete(ctx, storage.KeyOTPTimerEnd)
}

func (t *OTPTimer) CanResend(ctx context.Context) bool {
	return t.Remaining(ctx) == 0
}
