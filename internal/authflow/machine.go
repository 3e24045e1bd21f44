package authflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lukman83/components-radar/internal/storage"
)

// Machine owns the current auth modal and flow type. Every change is
// written to storage before it becomes visible in memory, so a reload
// resumes exactly where the user left off.
type Machine struct {
	mu        sync.RWMutex
	store     storage.Store
	log       zerolog.Logger
	modal     Modal
	flow      FlowType
	listeners []func(Modal, FlowType)
}

// Load restores the machine from store. Missing or unreadable values
// start from ModalNone.
func Load(ctx context.Context, store storage.Store, log zerolog.Logger) (*Machine, error) {
	m := &Machine{store: store, log: log.With().Str("component", "authflow").Logger()}

	raw, _, err := store.Get(ctx, storage.KeyCurrentModal)
	if err != nil {
		return nil, fmt.Errorf("load current modal: %w", err)
	}
	if m.modal, err = ParseModal(raw); err != nil {
		m.log.Warn().Err(err).Msg("discarding stored modal")
	}

	raw, _, err = store.Get(ctx, storage.KeyAuthFlowType)
	if err != nil {
		return nil, fmt.Errorf("load auth flow type: %w", err)
	}
	if m.flow, err = ParseFlowType(raw); err != nil {
		m.log.Warn().Err(err).Msg("discarding stored flow type")
	}
	return m, nil
}

func (m *Machine) Current() Modal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modal
}

func (m *Machine) FlowType() FlowType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flow
}

// IsOpen reports whether any auth modal is showing.
func (m *Machine) IsOpen() bool {
	return m.Current() != ModalNone
}

// OnChange registers fn to be called after each committed change.
func (m *Machine) OnChange(fn func(Modal, FlowType)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Open moves to the given modal, keeping the flow type. Moving to
// ModalNone also clears the flow type.
func (m *Machine) Open(ctx context.Context, to Modal) error {
	m.mu.Lock()
	flow := m.flow
	if to == ModalNone {
		flow = FlowNone
	}
	return m.apply(ctx, to, flow)
}

// Begin moves to the given modal and tags it with flow in one step.
func (m *Machine) Begin(ctx context.Context, to Modal, flow FlowType) error {
	m.mu.Lock()
	return m.apply(ctx, to, flow)
}

// SetFlowType changes the flow type without moving.
func (m *Machine) SetFlowType(ctx context.Context, flow FlowType) error {
	m.mu.Lock()
	return m.apply(ctx, m.modal, flow)
}

// Close dismisses whatever is open.
func (m *Machine) Close(ctx context.Context) error {
	return m.Open(ctx, ModalNone)
}

// CompleteOTP advances after a successful verification: to the reset
// step for a forgot-password flow, otherwise closed.
func (m *Machine) CompleteOTP(ctx context.Context) (Modal, error) {
	m.mu.Lock()
	if m.modal != ModalOTP {
		from := m.modal
		m.mu.Unlock()
		return from, fmt.Errorf("%w: complete otp from %s", ErrInvalidTransition, from)
	}
	if m.flow == FlowForgotPassword {
		return ModalResetPassword, m.apply(ctx, ModalResetPassword, m.flow)
	}
	return ModalNone, m.apply(ctx, ModalNone, FlowNone)
}

// apply validates and persists the move. It must be called with mu held
// and releases it.
func (m *Machine) apply(ctx context.Context, to Modal, flow FlowType) error {
	from := m.modal
	if !CanTransition(from, to, flow) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s (flow %s)", ErrInvalidTransition, from, to, flow)
	}

	if err := m.persist(ctx, to, flow); err != nil {
		m.mu.Unlock()
		return err
	}
	m.modal, m.flow = to, flow
	listeners := append([]func(Modal, FlowType){}, m.listeners...)
	m.mu.Unlock()

	if from != to {
		m.log.Debug().Str("from", from.String()).Str("modal", to.String()).Str("flow", flow.String()).Msg("auth modal changed")
	}
	for _, fn := range listeners {
		fn(to, flow)
	}
	return nil
}

func (m *Machine) persist(ctx context.Context, to Modal, flow FlowType) error {
	if err := m.store.Set(ctx, storage.KeyCurrentModal, to.storageValue()); err != nil {
		return fmt.Errorf("persist modal: %w", err)
	}
	if flow == FlowNone {
		if err := m.store.Delete(ctx, storage.KeyAuthFlowType); err != nil {
			return fmt.Errorf("persist flow type: %w", err)
		}
		return nil
	}
	if err := m.store.Set(ctx, storage.KeyAuthFlowType, flow.String()); err != nil {
		return fmt.Errorf("persist flow type: %w", err)
	}
	return nil
}
