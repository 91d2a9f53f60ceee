// Package reducer folds the ordered room event stream into the local room
// state mirror and derives the action log from the same events.
package reducer

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gotdibbs/poinz/internal/event"
	"github.com/gotdibbs/poinz/internal/prefs"
	"github.com/gotdibbs/poinz/internal/room"
)

// Server-side rejection reasons the session guard recognizes on a failed
// join. Matched by substring since the server embeds them in a sentence.
const (
	reasonFormatValidation = "Format validation failed"
	reasonNotAuthorized    = "Not authorized"
)

const commandJoinRoom = "joinRoom"

// Reducer applies one event at a time to a room state snapshot. It is pure
// apart from writes of the local user's identity presets to the preference
// store; the caller invokes it serially, so no locking happens here.
type Reducer struct {
	prefs prefs.Store
	log   zerolog.Logger

	now   func() time.Time
	newID func() string
}

// New constructs a reducer writing identity presets to store and diagnostics
// to logger. store may be nil when no preference persistence is wanted.
func New(store prefs.Store, logger *zerolog.Logger) *Reducer {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Reducer{
		prefs: store,
		log:   l,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Apply folds a single event into state and returns the resulting snapshot.
// The input state is never mutated. Events for foreign rooms, unknown event
// types, and undecodable payloads leave the state unchanged.
func (r *Reducer) Apply(state room.State, evt event.Event) room.State {
	if next, handled := r.guardJoinRejection(state, evt); handled {
		return next
	}

	// The event that confirms our own join may carry a room id the client
	// has not recorded yet; adopt it before the scope check.
	adopting := evt.Type == event.TypeJoinedRoom && state.RoomID == ""

	if !adopting && evt.RoomID != state.RoomID {
		r.log.Warn().
			Str("eventRoomId", evt.RoomID).
			Str("roomId", state.RoomID).
			Str("type", string(evt.Type)).
			Msg("dropping event for foreign room")
		return state
	}

	entry, ok := handlers[evt.Type]
	if !ok {
		r.log.Warn().Str("type", string(evt.Type)).Msg("no handler for event")
		return state
	}

	next := state.Clone()
	if adopting {
		next.RoomID = evt.RoomID
	}

	if entry.transition != nil {
		if err := entry.transition(r, state, &next, evt); err != nil {
			r.log.Warn().Err(err).Str("type", string(evt.Type)).Msg("event payload not applicable")
			return state
		}
	}

	return r.composeLog(entry.log, state, next, evt)
}

// guardJoinRejection special-cases a rejected join command before normal
// dispatch. A username format failure silently clears the stored username
// preset; an authorization failure surfaces the target room id so the join
// flow can prompt for a password. Both swallow the event.
func (r *Reducer) guardJoinRejection(state room.State, evt event.Event) (room.State, bool) {
	if evt.Type != event.TypeCommandRejected {
		return state, false
	}

	var p event.CommandRejectedPayload
	if err := evt.DecodePayload(&p); err != nil {
		r.log.Warn().Err(err).Msg("undecodable commandRejected payload")
		return state, true
	}
	if p.Command.Name != commandJoinRoom {
		return state, false
	}

	switch {
	case strings.Contains(p.Reason, reasonFormatValidation):
		// A previously valid preset can turn invalid after a server-side
		// format change. Repair it silently.
		next := state.Clone()
		next.PresetUsername = ""
		r.setPref(func(s prefs.Store) error { return s.SetPresetUsername("") })
		return next, true
	case strings.Contains(p.Reason, reasonNotAuthorized):
		next := state.Clone()
		next.AuthorizationFailed = evt.RoomID
		return next, true
	}

	return state, false
}

// setPref applies a preference store write, logging instead of failing: the
// presets are a convenience and must never break a state transition.
func (r *Reducer) setPref(write func(prefs.Store) error) {
	if r.prefs == nil {
		return
	}
	if err := write(r.prefs); err != nil {
		r.log.Warn().Err(err).Msg("preference store write failed")
	}
}

// resetState returns the state a session restarts from after the local user
// leaves or is kicked. The presets survive since they mirror the store.
func resetState(old room.State) room.State {
	next := room.New()
	next.PresetUsername = old.PresetUsername
	next.PresetEmail = old.PresetEmail
	next.PresetAvatar = old.PresetAvatar
	return next
}
