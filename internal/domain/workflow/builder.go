package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides whether a configured transition may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects per-state transition rules and builds machines from them
type StateMachineBuilder interface {
	// Configure returns the rule set for the given state, creating it on first use
	Configure(state State) StateConfiguration

	// Build creates an independent machine positioned at initialState
	Build(initialState State) StateMachine
}

// StateConfiguration declares the transitions leaving one state
type StateConfiguration interface {
	// Permit allows trigger to move the machine to toState
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf allows trigger to move the machine to toState when guard passes
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type edge struct {
	to    State
	guard GuardFunc
}

// rules maps trigger -> candidate edges, evaluated in declaration order
type rules map[Trigger][]edge

func (r rules) clone() rules {
	c := make(rules, len(r))
	for trigger, edges := range r {
		c[trigger] = append([]edge(nil), edges...)
	}
	return c
}

type stateRules struct {
	rules rules
}

type builder struct {
	states map[State]*stateRules
}

type machine struct {
	current State
	states  map[State]rules
}

// NewBuilder creates an empty state machine builder
func NewBuilder() StateMachineBuilder {
	return &builder{states: make(map[State]*stateRules)}
}

func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	sr, ok := b.states[state]
	if !ok {
		sr = &stateRules{rules: make(rules)}
		b.states[state] = sr
	}
	return sr
}

func (b *builder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	// machines must not observe later Configure calls
	states := make(map[State]rules, len(b.states))
	for state, sr := range b.states {
		states[state] = sr.rules.clone()
	}

	return &machine{current: initialState, states: states}
}

func (sr *stateRules) Permit(trigger Trigger, toState State) StateConfiguration {
	return sr.PermitIf(trigger, toState, nil)
}

func (sr *stateRules) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	sr.rules[trigger] = append(sr.rules[trigger], edge{to: toState, guard: guard})
	return sr
}

func (m *machine) State() State {
	return m.current
}

// CanFire reports whether any edge exists for trigger; guards are not evaluated.
func (m *machine) CanFire(trigger Trigger) bool {
	return len(m.states[m.current][trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	edges := m.states[m.current][trigger]
	if len(edges) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, e := range edges {
		if e.guard == nil || e.guard(ctx) {
			m.current = e.to
			return nil
		}
	}

	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}

func (m *machine) PermittedTriggers() []Trigger {
	r := m.states[m.current]
	triggers := make([]Trigger, 0, len(r))
	for trigger := range r {
		triggers = append(triggers, trigger)
	}
	return triggers
}
