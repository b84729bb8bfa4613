// Package session tracks the per-user conversation state machine.
package session

import (
	"fmt"
	"time"
)

type State string

const (
	Idle                State = ""
	AwaitingLink        State = "awaiting_link"
	AwaitingJoin        State = "awaiting_join"
	AwaitingSchedule    State = "awaiting_schedule"
	AwaitingHeaderText  State = "awaiting_header_text"
	AwaitingHeaderMedia State = "awaiting_header_media"
)

func (s State) String() string {
	if s == Idle {
		return "idle"
	}
	return string(s)
}

type Event string

const (
	EvRegister    Event = "register"     // /register
	EvLink        Event = "link"         // valid invite link submitted
	EvJoined      Event = "joined"       // bot added to the chat (any outcome)
	EvSchedule    Event = "schedule"     // /schedule
	EvHeaderText  Event = "header_text"  // edit-text action
	EvHeaderMedia Event = "header_media" // edit-media action
	EvDone        Event = "done"         // flow finished
	EvCancel      Event = "cancel"       // /cancel
)

// ErrTransition is returned for events that do not apply to a state.
type ErrTransition struct {
	From  State
	Event Event
}

func (e *ErrTransition) Error() string {
	return fmt.Sprintf("session: event %q not allowed in state %s", e.Event, e.From)
}

// Starting a flow is allowed from any state and replaces the previous one.
var entry = map[Event]State{
	EvRegister:    AwaitingLink,
	EvSchedule:    AwaitingSchedule,
	EvHeaderText:  AwaitingHeaderText,
	EvHeaderMedia: AwaitingHeaderMedia,
}

var transitions = map[State]map[Event]State{
	AwaitingLink:        {EvLink: AwaitingJoin, EvDone: Idle},
	AwaitingJoin:        {EvJoined: Idle, EvDone: Idle},
	AwaitingSchedule:    {EvDone: Idle},
	AwaitingHeaderText:  {EvDone: Idle},
	AwaitingHeaderMedia: {EvDone: Idle},
}

// Next returns the state after ev.
func Next(from State, ev Event) (State, error) {
	if ev == EvCancel {
		return Idle, nil
	}
	if to, ok := entry[ev]; ok {
		return to, nil
	}
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return from, &ErrTransition{From: from, Event: ev}
}

// Session is one user's conversation.
type Session struct {
	UserID      int64     `json:"user_id"`
	State       State     `json:"state"`
	PendingLink string    `json:"pending_link,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Fire applies ev. Returning to idle clears the pending link.
func (s *Session) Fire(ev Event) error {
	to, err := Next(s.State, ev)
	if err != nil {
		return err
	}
	s.State = to
	if to == Idle || to == AwaitingLink {
		s.PendingLink = ""
	}
	s.UpdatedAt = time.Now()
	return nil
}
