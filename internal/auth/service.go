package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lukman83/components-radar/internal/api"
	"github.com/lukman83/components-radar/internal/authflow"
	"github.com/lukman83/components-radar/internal/models"
	"github.com/lukman83/components-radar/internal/storage"
)

var (
	ErrNoEmail        = errors.New("no email on record for this flow")
	ErrResendTooSoon  = errors.New("otp resend is not available yet")
	ErrNotInOTPStep   = errors.New("no otp verification in progress")
	ErrNotInResetStep = errors.New("no password reset in progress")
)

// OpError is a failed auth operation. Message is what the user sees.
type OpError struct {
	Op      string
	Message string
	Err     error
}

func (e *OpError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *OpError) Unwrap() error { return e.Err }

// Message returns the user-facing text for err: the backend's message,
// the first field error, or the operation's fallback.
func Message(err error) string {
	var op *OpError
	if errors.As(err, &op) {
		return op.Message
	}
	if err == nil {
		return ""
	}
	return "Something went wrong. Please try again."
}

// Service runs the login, signup and password-reset flows against the
// backend and moves the auth modal machine on success only.
type Service struct {
	api     *api.Client
	store   storage.Store
	session *Session
	machine *authflow.Machine
	wizard  *authflow.SignupFlow
	timer   *OTPTimer
	log     zerolog.Logger
}

func NewService(client *api.Client, store storage.Store, session *Session, machine *authflow.Machine, wizard *authflow.SignupFlow, log zerolog.Logger) *Service {
	return &Service{
		api:     client,
		store:   store,
		session: session,
		machine: machine,
		wizard:  wizard,
		timer:   NewOTPTimer(store),
		log:     log.With().Str("component", "auth").Logger(),
	}
}

// Status is a snapshot of the sign-in state and any flow in progress.
type Status struct {
	Authenticated bool          `json:"authenticated"`
	User          *models.User  `json:"user,omitempty"`
	Modal         string        `json:"modal"`
	FlowType      string        `json:"flow_type"`
	Step          authflow.Step `json:"step"`
	Email         string        `json:"email,omitempty"`
	ResendIn      time.Duration `json:"resend_in"`
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	user, err := s.session.User(ctx)
	if err != nil {
		return Status{}, err
	}
	email, _ := s.email(ctx)
	return Status{
		Authenticated: s.session.IsAuthenticated(ctx),
		User:          user,
		Modal:         s.machine.Current().String(),
		FlowType:      s.machine.FlowType().String(),
		Step:          s.wizard.State().CurrentStep,
		Email:         email,
		ResendIn:      s.timer.Remaining(ctx),
	}, nil
}

// OpenLogin shows the login dialog.
func (s *Service) OpenLogin(ctx context.Context) error {
	return s.machine.Open(ctx, authflow.ModalLogin)
}

// OpenSignup shows the signup dialog, passing through login if nothing is open.
func (s *Service) OpenSignup(ctx context.Context) error {
	if s.machine.Current() == authflow.ModalNone {
		if err := s.OpenLogin(ctx); err != nil {
			return err
		}
	}
	return s.machine.Open(ctx, authflow.ModalSignup)
}

// OpenForgotPassword shows the reset request dialog from login.
func (s *Service) OpenForgotPassword(ctx context.Context) error {
	if s.machine.Current() == authflow.ModalNone {
		if err := s.OpenLogin(ctx); err != nil {
			return err
		}
	}
	return s.machine.Open(ctx, authflow.ModalForgotPassword)
}

// Close dismisses the current dialog.
func (s *Service) Close(ctx context.Context) error {
	return s.machine.Close(ctx)
}

func (s *Service) Signup(ctx context.Context, form SignupForm) (string, error) {
	const op, fallback = "signup", "Signup failed. Please try again."
	if err := Validate(form); err != nil {
		return "", s.fail(op, fallback, err)
	}
	if s.machine.Current() != authflow.ModalSignup {
		if err := s.OpenSignup(ctx); err != nil {
			return "", s.fail(op, fallback, err)
		}
	}

	resp, err := s.api.Signup(ctx, api.SignupRequest{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Password:  form.Password,
	})
	if err != nil {
		return "", s.fail(op, fallback, err)
	}

	if err := s.startOTP(ctx, form.Email, resp.UserID, resp.Token, authflow.FlowSignup); err != nil {
		return "", s.fail(op, fallback, err)
	}
	return orDefault(resp.Message, "Verification code sent to your email"), nil
}

func (s *Service) Login(ctx context.Context, form LoginForm) (string, error) {
	const op, fallback = "login", "Invalid credentials. Please try again."
	if err := Validate(form); err != nil {
		return "", s.fail(op, fallback, err)
	}

	resp, err := s.api.Login(ctx, api.LoginRequest{Email: form.Identifier, Password: form.Password})
	if err != nil {
		return "", s.fail(op, fallback, err)
	}

	user := resp.User
	if user == nil {
		user = &models.User{ID: resp.UserID}
		if strings.Contains(form.Identifier, "@") {
			user.Email = form.Identifier
		} else {
			user.Phone = form.Identifier
		}
	}
	if err := s.finishSignIn(ctx, resp.Token, user); err != nil {
		return "", s.fail(op, fallback, err)
	}
	return orDefault(resp.Message, "Login successful"), nil
}

func (s *Service) ForgotPassword(ctx context.Context, form ForgotPasswordForm) (string, error) {
	const op, fallback = "forgot password", "Failed to send reset email. Please try again."
	if err := Validate(form); err != nil {
		return "", s.fail(op, fallback, err)
	}
	if s.machine.Current() != authflow.ModalForgotPassword {
		if err := s.OpenForgotPassword(ctx); err != nil {
			return "", s.fail(op, fallback, err)
		}
	}

	resp, err := s.api.ForgotPassword(ctx, form.Email)
	if err != nil {
		return "", s.fail(op, fallback, err)
	}
	if err := s.startOTP(ctx, form.Email, "", "", authflow.FlowForgotPassword); err != nil {
		return "", s.fail(op, fallback, err)
	}
	return orDefault(resp.Message, "Reset OTP sent to your email"), nil
}

// VerifyOTP checks the code. A signup flow ends signed in; a reset flow
// moves on to choosing a new password.
func (s *Service) VerifyOTP(ctx context.Context, form OTPForm) (string, error) {
	const op, fallback = "verify otp", "OTP verification failed. Please try again."
	if err := Validate(form); err != nil {
		return "", s.fail(op, fallback, err)
	}
	if s.machine.Current() != authflow.ModalOTP {
		return "", s.fail(op, fallback, ErrNotInOTPStep)
	}
	email, err := s.email(ctx)
	if err != nil {
		return "", s.fail(op, fallback, err)
	}

	resp, err := s.api.VerifyOTP(ctx, email, form.OTP)
	if err != nil {
		return "", s.fail(op, fallback, err)
	}

	if err := s.wizard.SetOTP(ctx, form.OTP); err != nil {
		return "", s.fail(op, fallback, err)
	}
	if err := s.wizard.MarkVerified(ctx); err != nil {
		return "", s.fail(op, fallback, err)
	}

	if s.machine.FlowType() == authflow.FlowForgotPassword {
		if err := s.wizard.MoveToResetPassword(ctx); err != nil {
			return "", s.fail(op, fallback, err)
		}
		if _, err := s.machine.CompleteOTP(ctx); err != nil {
			return "", s.fail(op, fallback, err)
		}
		return orDefault(resp.Message, "OTP verified successfully"), nil
	}

	token := resp.Token
	if token == "" {
		token = s.wizard.State().PendingToken
	}
	if token != "" {
		if err := s.session.SignIn(ctx, token, resp.User); err != nil {
			return "", s.fail(op, fallback, err)
		}
	} else {
		s.log.Warn().Msg("otp verified but backend issued no token")
	}
	if _, err := s.machine.CompleteOTP(ctx); err != nil {
		return "", s.fail(op, fallback, err)
	}
	if err := s.wizard.Reset(ctx); err != nil {
		return "", s.fail(op, fallback, err)
	}
	_ = s.timer.Clear(ctx)
	return orDefault(resp.Message, "OTP verified successfully"), nil
}

// ResendOTP asks for a new code once the cooldown has passed.
func (s *Service) ResendOTP(ctx context.Context) (string, error) {
	const op, fallback = "resend otp", "Failed to resend OTP. Please try again."
	if !s.timer.CanResend(ctx) {
		left := s.timer.Remaining(ctx)
		return "", &OpError{Op: op, Message: fmt.Sprintf("You can resend the OTP in %s", left), Err: ErrResendTooSoon}
	}
	email, err := s.email(ctx)
	if err != nil {
		return "", s.fail(op, fallback, err)
	}
	resp, err := s.api.SendOTP(ctx, email)
	if err != nil {
		return "", s.fail(op, fallback, err)
	}
	if err := s.timer.Restart(ctx); err != nil {
		s.log.Warn().Err(err).Msg("could not persist otp timer")
	}
	return orDefault(resp.Message, "OTP resent successfully"), nil
}

// ResetPassword sets the new password and signs the user in.
func (s *Service) ResetPassword(ctx context.Context, form ResetPasswordForm) (string, error) {
	const op, fallback = "reset password", "Failed to reset password. Please try again."
	if err := Validate(form); err != nil {
		return "", s.fail(op, fallback, err)
	}
	if s.machine.Current() != authflow.ModalResetPassword {
		return "", s.fail(op, fallback, ErrNotInResetStep)
	}
	email, err := s.email(ctx)
	if err != nil {
		return "", s.fail(op, fallback, err)
	}

	resp, err := s.api.ResetPassword(ctx, api.ResetPasswordRequest{
		Email:    email,
		OTP:      s.wizard.State().OTPValue,
		Password: form.Password,
	})
	if err != nil {
		return "", s.fail(op, fallback, err)
	}

	if resp.Token == "" {
		// No auto-login: send the user back to the login dialog.
		if err := s.wizard.CompleteResetPassword(ctx); err != nil {
			return "", s.fail(op, fallback, err)
		}
		if err := s.machine.Close(ctx); err != nil {
			return "", s.fail(op, fallback, err)
		}
		if err := s.machine.Open(ctx, authflow.ModalLogin); err != nil {
			return "", s.fail(op, fallback, err)
		}
		return orDefault(resp.Message, "Password reset successfully. Please log in."), nil
	}

	if err := s.finishSignIn(ctx, resp.Token, resp.User); err != nil {
		return "", s.fail(op, fallback, err)
	}
	return "Password reset successfully and Logged In", nil
}

// CancelRegistration abandons a signup at the OTP step and deletes the
// unverified account.
func (s *Service) CancelRegistration(ctx context.Context) error {
	const op, fallback = "cancel registration", "Failed to cancel registration. Please try again."
	st := s.wizard.State()
	if st.UserID != "" && s.machine.FlowType() == authflow.FlowSignup {
		if err := s.api.DeleteUser(ctx, st.UserID); err != nil {
			return s.fail(op, fallback, err)
		}
	}
	if err := s.wizard.Cancel(ctx); err != nil {
		return s.fail(op, fallback, err)
	}
	if err := s.store.Delete(ctx, storage.KeyEmail); err != nil {
		return s.fail(op, fallback, err)
	}
	_ = s.timer.Clear(ctx)
	if err := s.machine.Close(ctx); err != nil {
		return s.fail(op, fallback, err)
	}
	return nil
}

// Logout clears the session and shows the login dialog.
func (s *Service) Logout(ctx context.Context) error {
	const op, fallback = "logout", "Failed to log out. Please try again."
	if err := s.session.SignOut(ctx); err != nil {
		return s.fail(op, fallback, err)
	}
	if err := s.machine.Close(ctx); err != nil {
		return s.fail(op, fallback, err)
	}
	if err := s.machine.Open(ctx, authflow.ModalLogin); err != nil {
		return s.fail(op, fallback, err)
	}
	return nil
}

func (s *Service) startOTP(ctx context.Context, email, userID, pendingToken string, flow authflow.FlowType) error {
	if err := s.store.Set(ctx, storage.KeyEmail, email); err != nil {
		return fmt.Errorf("store email: %w", err)
	}
	if err := s.wizard.Start(ctx, email); err != nil {
		return err
	}
	if pendingToken != "" {
		if err := s.wizard.HoldToken(ctx, pendingToken); err != nil {
			return err
		}
	}
	if err := s.wizard.MoveToOTP(ctx, userID); err != nil {
		return err
	}
	if err := s.machine.Begin(ctx, authflow.ModalOTP, flow); err != nil {
		return err
	}
	if err := s.timer.Restart(ctx); err != nil {
		s.log.Warn().Err(err).Msg("could not persist otp timer")
	}
	return nil
}

func (s *Service) finishSignIn(ctx context.Context, token string, user *models.User) error {
	if err := s.session.SignIn(ctx, token, user); err != nil {
		return err
	}
	if err := s.machine.Close(ctx); err != nil {
		return err
	}
	return s.wizard.Reset(ctx)
}

func (s *Service) email(ctx context.Context) (string, error) {
	if e := s.wizard.State().UserEmail; e != "" {
		return e, nil
	}
	e, ok, err := s.store.Get(ctx, storage.KeyEmail)
	if err != nil {
		return "", err
	}
	if !ok || e == "" {
		return "", ErrNoEmail
	}
	return e, nil
}

// fail wraps err with the message the user should see and logs failures
// that are not the user's or the backend's doing.
func (s *Service) fail(op, fallback string, err error) error {
	msg := fallback
	var verr ValidationError
	var apiErr *api.Error
	switch {
	case errors.As(err, &verr) && len(verr) > 0:
		msg = verr[0].Message
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		if apiErr.Message != "" {
			msg = apiErr.Message
		}
	default:
		s.log.Error().Err(err).Str("op", op).Msg("auth operation failed")
	}
	return &OpError{Op: op, Message: msg, Err: err}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
