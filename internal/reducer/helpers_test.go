package reducer

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gotdibbs/poinz/internal/event"
	"github.com/gotdibbs/poinz/internal/log"
	"github.com/gotdibbs/poinz/internal/prefs"
	"github.com/gotdibbs/poinz/internal/room"
)

// newTestReducer returns a reducer with a deterministic clock and id
// sequence, writing presets to the returned in-memory store.
func newTestReducer(t *testing.T) (*Reducer, *prefs.MemoryStore) {
	t.Helper()

	store := prefs.NewMemoryStore()
	r := New(store, log.Nop())
	r.now = func() time.Time {
		return time.Date(2021, 3, 4, 13, 37, 0, 0, time.UTC)
	}
	seq := 0
	r.newID = func() string {
		seq++
		return fmt.Sprintf("log-%d", seq)
	}
	return r, store
}

func mustEvent(t *testing.T, typ event.Type, roomID, userID string, payload any) event.Event {
	t.Helper()

	evt := event.Event{Type: typ, RoomID: roomID, UserID: userID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		evt.Payload = json.RawMessage(raw)
	}
	return evt
}

// joinedState returns a state as it looks after a resolved own join.
func joinedState() room.State {
	st := room.New()
	st.RoomID = "r1"
	st.UserID = "u1"
	st.Users["u1"] = room.User{ID: "u1", Username: "Anna"}
	st.Users["u2"] = room.User{ID: "u2", Username: "Ben"}
	st.Stories["s1"] = room.Story{ID: "s1", Title: "Login page", CreatedAt: 100}
	st.SelectedStory = "s1"
	st.HighlightedStory = "s1"
	st.CardConfig = room.DefaultCardConfig()
	return st
}

func latestLog(t *testing.T, st room.State) room.LogEntry {
	t.Helper()
	if len(st.ActionLog) == 0 {
		t.Fatalf("expected an action log entry, log is empty")
	}
	return st.ActionLog[0]
}
