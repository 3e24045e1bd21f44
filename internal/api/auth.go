package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/lukman83/components-radar/internal/models"
)

type SignupRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

type SignupResponse struct {
	UserID  string `json:"userId"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login, reset-password and, for some
// deployments, verifyotp.
type AuthResponse struct {
	Token   string       `json:"token"`
	UserID  string       `json:"userId,omitempty"`
	User    *models.User `json:"user,omitempty"`
	Message string       `json:"message"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
}

// MessageResponse is the common {message} reply.
type MessageResponse struct {
	Message string `json:"message"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (c *Client) Signup(ctx context.Context, in SignupRequest) (*SignupResponse, error) {
	var out SignupResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/signup", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, in LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendOTP(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/sendotp", emailRequest{Email: email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/verifyotp", verifyRequest{Email: email, OTP: otp}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/forgot-password", emailRequest{Email: email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResetPassword(ctx context.Context, in ResetPasswordRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/reset-password", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes an unverified registration.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/user/"+url.PathEscape(userID), nil, nil)
}
