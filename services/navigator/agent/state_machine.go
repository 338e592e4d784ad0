// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import "fmt"

// allowedTransitions is the loop lifecycle. ABORTED is reachable from
// every non-terminal state so the iteration cap and cancellation can
// fire wherever the loop happens to be.
var allowedTransitions = map[State][]State{
	StateThinking:  {StateActing, StateComplete, StateAborted},
	StateActing:    {StateObserving, StateAborted},
	StateObserving: {StateThinking, StateAborted},
	StateComplete:  {},
	StateAborted:   {},
}

// stateMachine tracks one loop's lifecycle state. Not safe for
// concurrent use; each loop instance owns exactly one.
type stateMachine struct {
	state State
}

func newStateMachine() *stateMachine {
	return &stateMachine{state: StateThinking}
}

// transition moves to next, or fails with ErrBadTransition leaving the
// state unchanged.
func (m *stateMachine) transition(next State) error {
	for _, allowed := range allowedTransitions[m.state] {
		if allowed == next {
			m.state = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrBadTransition, m.state, next)
}
