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
		{StateIdle, false},
		{StateProcessing, false},
		{StateAwaitingApproval, false},
		{StateSuccess, true},
		{StateError, true},
		{StateRejected, true},
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
		{"idle", StateIdle, true},
		{"success", StateSuccess, true},
		{"unknown state", State("POSTED"), false},
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

func TestBuilder_ConfigurePanics(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"invalid state", State("INVALID")},
		{"terminal state", StateSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Configure(%s) should panic", tt.state)
				}
			}()
			NewBuilder().Configure(tt.state)
		})
	}
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	NewBuilder().Build(State("INVALID"))
}

func TestStateConfiguration_PermitPanicsOnInvalidTarget(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target state")
		}
	}()

	NewBuilder().Configure(StateIdle).Permit(TriggerUpload, State("INVALID"))
}

func TestStateMachine_FireReportsTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateIdle).Permit(TriggerUpload, StateProcessing)
	machine := builder.Build(StateIdle)

	tr, err := machine.Fire(context.Background(), TriggerUpload)
	if err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}

	want := Transition{From: StateIdle, To: StateProcessing, Trigger: TriggerUpload}
	if tr != want {
		t.Errorf("Fire() = %+v, want %+v", tr, want)
	}
	if machine.State() != StateProcessing {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateProcessing)
	}
}

type guardKey struct{}

func TestStateConfiguration_PermitIf(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateProcessing).
		PermitIf(TriggerExtractionSucceeded, StateAwaitingApproval, func(ctx context.Context) bool {
			ok, _ := ctx.Value(guardKey{}).(bool)
			return ok
		})

	passing := builder.Build(StateProcessing)
	ctx := context.WithValue(context.Background(), guardKey{}, true)
	if _, err := passing.Fire(ctx, TriggerExtractionSucceeded); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if passing.State() != StateAwaitingApproval {
		t.Errorf("State = %v, want %v", passing.State(), StateAwaitingApproval)
	}

	failing := builder.Build(StateProcessing)
	_, err := failing.Fire(context.Background(), TriggerExtractionSucceeded)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if failing.State() != StateProcessing {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateProcessing, failing.State())
	}
}

func TestStateMachine_Fire_InvalidTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateIdle).Permit(TriggerUpload, StateProcessing)
	machine := builder.Build(StateIdle)

	_, err := machine.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if machine.State() != StateIdle {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateIdle, machine.State())
	}
}

func TestStateMachine_Fire_FromTerminal(t *testing.T) {
	machine := NewBuilder().Build(StateError)

	_, err := machine.Fire(context.Background(), TriggerUpload)
	if !errors.Is(err, ErrTerminalState) {
		t.Errorf("Fire() error = %v, want %v", err, ErrTerminalState)
	}
	if len(machine.PermittedTriggers()) != 0 {
		t.Errorf("terminal state should have no permitted triggers")
	}
}

func TestStateMachine_CanFireAndPermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateAwaitingApproval).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerApprove, StateSuccess)
	machine := builder.Build(StateAwaitingApproval)

	if !machine.CanFire(TriggerApprove) || !machine.CanFire(TriggerReject) {
		t.Error("CanFire() should be true for configured triggers")
	}
	if machine.CanFire(TriggerUpload) {
		t.Error("CanFire() should be false for unconfigured trigger")
	}

	triggers := machine.PermittedTriggers()
	if len(triggers) != 2 || triggers[0] != TriggerApprove || triggers[1] != TriggerReject {
		t.Errorf("PermittedTriggers() = %v, want [APPROVE REJECT]", triggers)
	}
}

func TestStateMachine_Independence(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateIdle).Permit(TriggerUpload, StateProcessing)

	machine1 := builder.Build(StateIdle)
	machine2 := builder.Build(StateIdle)

	// Configuring after Build must not affect built machines
	builder.Configure(StateIdle).Permit(TriggerExtractionFailed, StateError)

	if _, err := machine1.Fire(context.Background(), TriggerUpload); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine2.State() != StateIdle {
		t.Errorf("machine2 state = %v, want %v (machines should be independent)", machine2.State(), StateIdle)
	}
	if machine2.CanFire(TriggerExtractionFailed) {
		t.Error("machine2 should not see transitions configured after Build()")
	}
}
