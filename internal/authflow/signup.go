package authflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lukman83/components-radar/internal/storage"
)

// Step is a stage of the signup / password-reset wizard.
type Step string

const (
	StepNone          Step = "none"
	StepSignup        Step = "signup"
	StepOTP           Step = "otp"
	StepResetPassword Step = "resetPassword"
	StepLogin         Step = "login"
)

// ErrStepPrecondition is returned when a wizard step is entered without
// the data it depends on.
var ErrStepPrecondition = errors.New("signup flow precondition not met")

// SignupState is the persisted wizard progress.
type SignupState struct {
	CurrentStep  Step   `json:"currentStep"`
	UserEmail    string `json:"userEmail,omitempty"`
	UserID       string `json:"userId,omitempty"`
	OTPValue     string `json:"otpValue,omitempty"`
	OTPVerified  bool   `json:"otpVerified,omitempty"`
	// PendingToken is issued at signup and only becomes the session
	// token once the OTP is verified.
	PendingToken string `json:"pendingToken,omitempty"`
}

// SignupFlow tracks the multi-step verification wizard.
type SignupFlow struct {
	mu    sync.Mutex
	store storage.Store
	st    SignupState
}

// LoadSignupFlow restores the wizard from store.
func LoadSignupFlow(ctx context.Context, store storage.Store) (*SignupFlow, error) {
	f := &SignupFlow{store: store, st: SignupState{CurrentStep: StepNone}}
	ok, err := storage.GetJSON(ctx, store, storage.KeySignupFlow, &f.st)
	if err != nil {
		return nil, fmt.Errorf("load signup flow: %w", err)
	}
	if !ok || f.st.CurrentStep == "" {
		f.st.CurrentStep = StepNone
	}
	return f, nil
}

func (f *SignupFlow) State() SignupState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st
}

// Start begins a new wizard for email, discarding any previous one.
func (f *SignupFlow) Start(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email required", ErrStepPrecondition)
	}
	return f.update(ctx, func(st *SignupState) error {
		*st = SignupState{CurrentStep: StepSignup, UserEmail: email}
		return nil
	})
}

// MoveToOTP records the backend user id and advances to the OTP step.
func (f *SignupFlow) MoveToOTP(ctx context.Context, userID string) error {
	return f.update(ctx, func(st *SignupState) error {
		if st.UserEmail == "" {
			return fmt.Errorf("%w: otp step needs an email", ErrStepPrecondition)
		}
		st.CurrentStep = StepOTP
		if userID != "" {
			st.UserID = userID
		}
		return nil
	})
}

// HoldToken keeps a token issued before verification.
func (f *SignupFlow) HoldToken(ctx context.Context, token string) error {
	return f.update(ctx, func(st *SignupState) error {
		st.PendingToken = token
		return nil
	})
}

func (f *SignupFlow) SetOTP(ctx context.Context, otp string) error {
	return f.update(ctx, func(st *SignupState) error {
		st.OTPValue = otp
		return nil
	})
}

// MarkVerified records that the backend accepted the OTP.
func (f *SignupFlow) MarkVerified(ctx context.Context) error {
	return f.update(ctx, func(st *SignupState) error {
		st.OTPVerified = true
		return nil
	})
}

func (f *SignupFlow) MoveToResetPassword(ctx context.Context) error {
	return f.update(ctx, func(st *SignupState) error {
		if st.OTPValue == "" && !st.OTPVerified {
			return fmt.Errorf("%w: reset step needs a verified otp", ErrStepPrecondition)
		}
		st.CurrentStep = StepResetPassword
		return nil
	})
}

// CompleteResetPassword ends a reset; the user continues at login.
func (f *SignupFlow) CompleteResetPassword(ctx context.Context) error {
	return f.update(ctx, func(st *SignupState) error {
		*st = SignupState{CurrentStep: StepLogin, UserEmail: st.UserEmail}
		return nil
	})
}

func (f *SignupFlow) MoveToLogin(ctx context.Context) error {
	return f.update(ctx, func(st *SignupState) error {
		st.CurrentStep = StepLogin
		return nil
	})
}

// Reset clears the wizard after success.
func (f *SignupFlow) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.store.Delete(ctx, storage.KeySignupFlow); err != nil {
		return fmt.Errorf("clear signup flow: %w", err)
	}
	f.st = SignupState{CurrentStep: StepNone}
	return nil
}

// Cancel abandons the wizard.
func (f *SignupFlow) Cancel(ctx context.Context) error {
	return f.Reset(ctx)
}

func (f *SignupFlow) update(ctx context.Context, fn func(*SignupState) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.st
	if err := fn(&next); err != nil {
		return err
	}
	if err := storage.SetJSON(ctx, f.store, storage.KeySignupFlow, next); err != nil {
		return fmt.Errorf("persist signup flow: %w", err)
	}
	f.st = next
	return nil
}
