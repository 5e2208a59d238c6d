// Package fsm defines the capture session state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
)

const (
	EventStart  Event = "start"
	EventResult Event = "result"
	EventStop   Event = "stop"
	EventFail   Event = "fail"
)

// Transition applies one event to the current state.
//
// The only legal shape is Idle -> Listening -> Idle. A failure always lands
// back in Idle: the capture surface must never stay stuck in Listening.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateListening, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventResult, EventStop:
			return StateIdle, nil
		default:
			// EventStart lands here too: there is no Listening -> Listening
			// transition, the controller redirects a second start to a stop.
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
