// internal/navigation/navigator.go

// Package navigation tracks the single selection the user is drilling
// through: years -> days of a year -> visits of a day -> entries of a
// visit. The whole selection lives in one Navigator rather than ambient
// globals, so every transition is an explicit call and every consumer
// reads one consistent snapshot.
package navigation

import (
	"errors"
	"sync"

	"angpao-ledger/internal/notify"
)

// Level is the hierarchy level currently in view.
type Level string

const (
	LevelYears   Level = "years"
	LevelDays    Level = "days"
	LevelVisits  Level = "visits"
	LevelEntries Level = "entries"
)

// Node kinds accepted by HandleDeleted.
const (
	KindYear  = "year"
	KindDay   = "day"
	KindVisit = "visit"
)

// ErrInvalidTransition is returned for a selection or back step the
// current state does not allow.
var ErrInvalidTransition = errors.New("invalid navigation transition")

// Selected is one chosen node: its document id plus a display label
// (the year number, or the day/visit name).
type Selected struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// State is an immutable snapshot of the selection. The selection is
// always strictly nested: Day is only set when Year is, Visit only when
// Day is.
type State struct {
	Level Level     `json:"level"`
	Year  *Selected `json:"year,omitempty"`
	Day   *Selected `json:"day,omitempty"`
	Visit *Selected `json:"visit,omitempty"`
}

// Navigator owns the selection for one session.
type Navigator struct {
	mu    sync.Mutex
	state State
	bus   notify.Publisher
}

// New creates a navigator at the years level with nothing selected.
func New(bus notify.Publisher) *Navigator {
	return &Navigator{state: State{Level: LevelYears}, bus: bus}
}

// State returns the current snapshot.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// SelectYear moves from the years list into one year's days.
func (n *Navigator) SelectYear(id, label string) (State, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state.Level != LevelYears {
		return n.state, ErrInvalidTransition
	}
	n.state = State{
		Level: LevelDays,
		Year:  &Selected{ID: id, Label: label},
	}
	return n.publishLocked()
}

// SelectDay moves from a year's days into one day's visits.
func (n *Navigator) SelectDay(id, label string) (State, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state.Level != LevelDays || n.state.Year == nil {
		return n.state, ErrInvalidTransition
	}
	n.state = State{
		Level: LevelVisits,
		Year:  n.state.Year,
		Day:   &Selected{ID: id, Label: label},
	}
	return n.publishLocked()
}

// SelectVisit moves from a day's visits into one visit's entries.
func (n *Navigator) SelectVisit(id, label string) (State, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state.Level != LevelVisits || n.state.Day == nil {
		return n.state, ErrInvalidTransition
	}
	n.state = State{
		Level: LevelEntries,
		Year:  n.state.Year,
		Day:   n.state.Day,
		Visit: &Selected{ID: id, Label: label},
	}
	return n.publishLocked()
}

// Back steps up one level, dropping the deepest selection.
func (n *Navigator) Back() (State, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch n.state.Level {
	case LevelDays:
		n.state = State{Level: LevelYears}
	case LevelVisits:
		n.state = State{Level: LevelDays, Year: n.state.Year}
	case LevelEntries:
		n.state = State{Level: LevelVisits, Year: n.state.Year, Day: n.state.Day}
	default:
		return n.state, ErrInvalidTransition
	}
	return n.publishLocked()
}

// Reset clears the selection entirely, as on sign-out or fresh sign-in.
func (n *Navigator) Reset() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = State{Level: LevelYears}
	st, _ := n.publishLocked()
	return st
}

// HandleDeleted performs the implicit back step when the node just
// deleted is part of the current selection. Deleting a node that is not
// selected leaves the state alone.
func (n *Navigator) HandleDeleted(kind, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch kind {
	case KindYear:
		if n.state.Year == nil || n.state.Year.ID != id {
			return
		}
		n.state = State{Level: LevelYears}
	case KindDay:
		if n.state.Day == nil || n.state.Day.ID != id {
			return
		}
		n.state = State{Level: LevelDays, Year: n.state.Year}
	case KindVisit:
		if n.state.Visit == nil || n.state.Visit.ID != id {
			return
		}
		n.state = State{Level: LevelVisits, Year: n.state.Year, Day: n.state.Day}
	default:
		return
	}
	n.publishLocked()
}

func (n *Navigator) publishLocked() (State, error) {
	st := n.state
	if n.bus != nil {
		n.bus.Publish(notify.Event{Kind: notify.KindNavigationChanged, State: st})
	}
	return st, nil
}
