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
		{StateDraft, false},
		{StateSent, false},
		{StateOverdue, false},
		{StatePaid, true},
		{StateCancelled, true},
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
		{"draft", StateDraft, true},
		{"cancelled", StateCancelled, true},
		{"unknown state", State("pending"), false},
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

func TestTrigger_String(t *testing.T) {
	if got := TriggerMarkOverdue.String(); got != "MARK_OVERDUE" {
		t.Errorf("Trigger.String() = %v, want %v", got, "MARK_OVERDUE")
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateDraft)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	if config2 := builder.Configure(StateDraft); config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	NewBuilder().Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	NewBuilder().Build(State("INVALID"))
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSent).
		PermitIf(TriggerMarkOverdue, StateOverdue, func(ctx context.Context) bool {
			return false
		})

	machine := builder.Build(StateSent)

	err := machine.Fire(context.Background(), TriggerMarkOverdue)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if machine.State() != StateSent {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateSent, machine.State())
	}
}

func TestStateConfiguration_PermitIf_FallsThroughToNextEdge(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSent).
		PermitIf(TriggerPay, StateOverdue, func(ctx context.Context) bool { return false }).
		PermitIf(TriggerPay, StatePaid, func(ctx context.Context) bool { return true })

	machine := builder.Build(StateSent)
	if err := machine.Fire(context.Background(), TriggerPay); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StatePaid {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StatePaid)
	}
}

func TestStateConfiguration_PermitPanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target state")
		}
	}()

	NewBuilder().Configure(StateDraft).Permit(TriggerSend, State("INVALID"))
}

func TestStateMachine_Fire_InvalidTransition(t *testing.T) {
	machine := NewStatusMachine(StateDraft)

	err := machine.Fire(context.Background(), TriggerPay)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if machine.State() != StateDraft {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateDraft, machine.State())
	}
}

func TestStateMachine_Fire_NoConfiguration(t *testing.T) {
	machine := NewBuilder().Build(StateDraft)

	if err := machine.Fire(context.Background(), TriggerSend); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if got := machine.PermittedTriggers(); len(got) != 0 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 0", len(got))
	}
}

func TestStateMachine_CanFire(t *testing.T) {
	machine := NewStatusMachine(StateDraft)

	tests := []struct {
		trigger  Trigger
		expected bool
	}{
		{TriggerSend, true},
		{TriggerCancel, true},
		{TriggerPay, false},
		{TriggerMarkOverdue, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.trigger), func(t *testing.T) {
			if got := machine.CanFire(tt.trigger); got != tt.expected {
				t.Errorf("CanFire() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStateMachine_Immutability(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).Permit(TriggerSend, StateSent)

	machine1 := builder.Build(StateDraft)
	machine2 := builder.Build(StateDraft)

	// rules added after Build must not leak into built machines
	builder.Configure(StateDraft).Permit(TriggerCancel, StateCancelled)

	if err := machine1.Fire(context.Background(), TriggerSend); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine2.State() != StateDraft {
		t.Errorf("machine2 state = %v, want %v", machine2.State(), StateDraft)
	}
	if machine2.CanFire(TriggerCancel) {
		t.Error("machine2 should not see rules configured after Build()")
	}
}

func TestStatusMachine_InvoiceLifecycle(t *testing.T) {
	ctx := WithDueDate(context.Background(), true)
	machine := NewStatusMachine(StateDraft)

	steps := []struct {
		trigger       Trigger
		expectedState State
	}{
		{TriggerSend, StateSent},
		{TriggerMarkOverdue, StateOverdue},
		{TriggerPay, StatePaid},
	}

	for i, step := range steps {
		if err := machine.Fire(ctx, step.trigger); err != nil {
			t.Errorf("Step %d: Fire(%v) failed: %v", i, step.trigger, err)
		}
		if machine.State() != step.expectedState {
			t.Errorf("Step %d: State after Fire(%v) = %v, want %v", i, step.trigger, machine.State(), step.expectedState)
		}
	}

	if !machine.State().IsTerminal() {
		t.Error("Final state should be terminal")
	}
	if triggers := machine.PermittedTriggers(); len(triggers) != 0 {
		t.Errorf("Terminal state should have 0 permitted triggers, got %d", len(triggers))
	}
}
