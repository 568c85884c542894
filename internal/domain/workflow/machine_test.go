package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePendingApproval, false},
		{StateApproved, false},
		{StateDispatched, false},
		{StateInProgress, false},
		{StateRejected, true},
		{StateCompleted, true},
		{StateCanceled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending", StatePendingApproval, true},
		{"completed", StateCompleted, true},
		{"invalid state", State("archived"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("archived"))
}

func TestDispatchMachine_LegalEdges(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
	}{
		{"approve pending", StatePendingApproval, TriggerApprove, StateApproved},
		{"reject pending", StatePendingApproval, TriggerReject, StateRejected},
		{"dispatch approved", StateApproved, TriggerDispatch, StateDispatched},
		{"cancel approved", StateApproved, TriggerCancel, StateCanceled},
		{"arrive dispatched", StateDispatched, TriggerArrive, StateInProgress},
		{"complete in_progress", StateInProgress, TriggerComplete, StateCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewDispatchMachine(tt.from)
			if err := m.Fire(ctx, tt.trigger); err != nil {
				t.Fatalf("Fire(%s) from %s: %v", tt.trigger, tt.from, err)
			}
			if m.State() != tt.want {
				t.Errorf("State() = %s, want %s", m.State(), tt.want)
			}
		})
	}
}

func TestDispatchMachine_IllegalEdges(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		from    State
		trigger Trigger
	}{
		{"approve twice", StateApproved, TriggerApprove},
		{"reject decided", StateRejected, TriggerReject},
		{"approve rejected", StateRejected, TriggerApprove},
		{"dispatch pending", StatePendingApproval, TriggerDispatch},
		{"complete approved", StateApproved, TriggerComplete},
		{"cancel completed", StateCompleted, TriggerCancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewDispatchMachine(tt.from)
			err := m.Fire(ctx, tt.trigger)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire(%s) from %s: err = %v, want ErrInvalidTransition", tt.trigger, tt.from, err)
			}
			if m.State() != tt.from {
				t.Errorf("state moved to %s on rejected trigger", m.State())
			}
		})
	}
}

func TestDispatchMachine_CanFire(t *testing.T) {
	m := NewDispatchMachine(StatePendingApproval)

	if !m.CanFire(TriggerApprove) {
		t.Error("CanFire(APPROVE) = false in pending_approval")
	}
	if m.CanFire(TriggerComplete) {
		t.Error("CanFire(COMPLETE) = true in pending_approval")
	}

	if got := len(m.PermittedTriggers()); got != 2 {
		t.Errorf("PermittedTriggers() len = %d, want 2", got)
	}
}

func TestDispatchMachine_GuardedTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePendingApproval).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context) bool { return false })
	m := builder.Build(StatePendingApproval)

	err := m.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire with failing guard: err = %v, want ErrGuardFailed", err)
	}
}
