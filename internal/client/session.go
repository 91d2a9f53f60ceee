// Package client runs a room session: it seeds the initial state from the
// preference store, issues the join command, and folds every received event
// through the reducer into the current snapshot.
package client

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gotdibbs/poinz/internal/auth"
	"github.com/gotdibbs/poinz/internal/event"
	"github.com/gotdibbs/poinz/internal/prefs"
	"github.com/gotdibbs/poinz/internal/reducer"
	"github.com/gotdibbs/poinz/internal/room"
	"github.com/gotdibbs/poinz/internal/transport/ws"
)

// Transport delivers server events in order and carries outgoing commands.
type Transport interface {
	ReadEvent(ctx context.Context) (event.Event, error)
	SendCommand(ctx context.Context, cmd ws.Command) error
	Close() error
}

// joinRoomPayload is the payload of the outgoing joinRoom command. The
// password travels with the command; the server does the hashing.
type joinRoomPayload struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Avatar   int    `json:"avatar,omitempty"`
	Password string `json:"password,omitempty"`
}

// Session holds the live room state for one client connection. Events are
// applied strictly in arrival order on the Run goroutine; State hands out
// snapshots to other goroutines.
type Session struct {
	transport Transport
	reducer   *reducer.Reducer
	prefs     prefs.Store
	log       zerolog.Logger

	// OnChange, when set, observes every applied event with the resulting
	// snapshot. Called from the Run goroutine.
	OnChange func(st room.State, evt event.Event)

	mu    sync.Mutex
	state room.State
}

// New builds a session on top of transport. The preference store seeds the
// identity presets of the initial state.
func New(transport Transport, store prefs.Store, logger *zerolog.Logger) (*Session, error) {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}

	st := room.New()
	st.CardConfig = room.DefaultCardConfig()
	if store != nil {
		presets, err := store.Presets()
		if err != nil {
			return nil, err
		}
		st.PresetUsername = presets.Username
		st.PresetEmail = presets.Email
		st.PresetAvatar = presets.Avatar
	}

	return &Session{
		transport: transport,
		reducer:   reducer.New(store, &l),
		prefs:     store,
		log:       l,
		state:     st,
	}, nil
}

// State returns a snapshot of the current room state.
func (s *Session) State() room.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Join issues a joinRoom command for roomID and records its correlation id
// so the resulting joinedRoom event is recognized as our own.
func (s *Session) Join(ctx context.Context, roomID, username, password string) error {
	s.mu.Lock()
	if username == "" {
		username = s.state.PresetUsername
	}
	payload := joinRoomPayload{
		Username: username,
		Email:    s.state.PresetEmail,
		Avatar:   s.state.PresetAvatar,
		Password: password,
	}
	correlationID := uuid.NewString()
	s.state.PendingJoinCommandID = correlationID
	s.mu.Unlock()

	cmd := ws.Command{
		ID:      correlationID,
		Name:    "joinRoom",
		RoomID:  roomID,
		Payload: payload,
	}
	if err := s.transport.SendCommand(ctx, cmd); err != nil {
		return err
	}
	s.log.Info().Str("roomId", roomID).Str("correlationId", correlationID).Msg("join requested")
	return nil
}

// Run reads events until the context is cancelled or the connection fails.
func (s *Session) Run(ctx context.Context) error {
	for {
		evt, err := s.transport.ReadEvent(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		s.apply(evt)
	}
}

func (s *Session) apply(evt event.Event) {
	s.mu.Lock()
	s.state = s.reducer.Apply(s.state, evt)
	next := s.state
	s.mu.Unlock()

	if evt.Type == event.TypeTokenIssued && next.UserToken != "" {
		s.inspectToken(next)
	}

	if s.OnChange != nil {
		s.OnChange(next, evt)
	}
}

// inspectToken decodes the issued token's claims for a sanity check against
// the identity we resolved from the event stream.
func (s *Session) inspectToken(st room.State) {
	claims, err := auth.Inspect(st.UserToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("user token not inspectable")
		return
	}
	if claims.UserID != "" && st.UserID != "" && claims.UserID != st.UserID {
		s.log.Warn().
			Str("tokenUserId", claims.UserID).
			Str("userId", st.UserID).
			Msg("user token subject does not match own user id")
		return
	}
	s.log.Debug().Str("tokenUserId", claims.UserID).Str("tokenRoomId", claims.RoomID).Msg("user token issued")
}
