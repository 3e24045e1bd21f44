package authflow

import (
	"errors"
	"fmt"
)

// Modal is the auth dialog currently shown. ModalNone means no dialog.
type Modal int

const (
	ModalNone Modal = iota
	ModalLogin
	ModalSignup
	ModalOTP
	ModalForgotPassword
	ModalResetPassword
)

var modalNames = [...]string{
	ModalNone:           "none",
	ModalLogin:          "login",
	ModalSignup:         "signup",
	ModalOTP:            "otp",
	ModalForgotPassword: "forgotpassword",
	ModalResetPassword:  "resetpassword",
}

func (m Modal) String() string {
	if m < 0 || int(m) >= len(modalNames) {
		return fmt.Sprintf("Modal(%d)", int(m))
	}
	return modalNames[m]
}

// ParseModal maps a stored or user-supplied name to a Modal. "null" and
// the empty string are ModalNone.
func ParseModal(s string) (Modal, error) {
	switch s {
	case "", "null":
		return ModalNone, nil
	}
	for i, name := range modalNames {
		if name == s {
			return Modal(i), nil
		}
	}
	return ModalNone, fmt.Errorf("unknown modal %q", s)
}

// storageValue is how the modal is written to client storage.
func (m Modal) storageValue() string {
	if m == ModalNone {
		return "null"
	}
	return m.String()
}

// FlowType tells which wizard an OTP step belongs to.
type FlowType int

const (
	FlowNone FlowType = iota
	FlowSignup
	FlowForgotPassword
)

func (f FlowType) String() string {
	switch f {
	case FlowSignup:
		return "signup"
	case FlowForgotPassword:
		return "forgotpassword"
	default:
		return "none"
	}
}

func ParseFlowType(s string) (FlowType, error) {
	switch s {
	case "", "none", "null":
		return FlowNone, nil
	case "signup":
		return FlowSignup, nil
	case "forgotpassword":
		return FlowForgotPassword, nil
	}
	return FlowNone, fmt.Errorf("unknown flow type %q", s)
}

// ErrInvalidTransition is returned for a move outside the transition table.
var ErrInvalidTransition = errors.New("invalid auth flow transition")

// transitions lists the moves allowed from each modal besides closing,
// which is always allowed.
var transitions = map[Modal][]Modal{
	ModalNone:           {ModalLogin},
	ModalLogin:          {ModalSignup, ModalForgotPassword},
	ModalSignup:         {ModalLogin, ModalOTP},
	ModalForgotPassword: {ModalOTP, ModalLogin},
	ModalOTP:            {ModalResetPassword},
	ModalResetPassword:  {},
}

// CanTransition reports whether from → to is allowed for the given flow.
func CanTransition(from, to Modal, flow FlowType) bool {
	if to == ModalNone || from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next != to {
			continue
		}
		if from == ModalOTP && to == ModalResetPassword {
			return flow == FlowForgotPassword
		}
		return true
	}
	return false
}
