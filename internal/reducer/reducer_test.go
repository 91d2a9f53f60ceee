package reducer

import (
	"reflect"
	"testing"

	"github.com/gotdibbs/poinz/internal/event"
	"github.com/gotdibbs/poinz/internal/room"
)

func TestRoomCreatedChangesNothing(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	got := r.Apply(st, mustEvent(t, event.TypeRoomCreated, "r1", "u1", nil))

	if !reflect.DeepEqual(got, st) {
		t.Fatalf("roomCreated changed state:\n got %+v\nwant %+v", got, st)
	}
}

func TestUnknownEventTypeIgnored(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	got := r.Apply(st, mustEvent(t, "somethingNew", "r1", "u1", nil))

	if !reflect.DeepEqual(got, st) {
		t.Fatalf("unknown event type changed state")
	}
	if reflect.ValueOf(got.Users).Pointer() != reflect.ValueOf(st.Users).Pointer() {
		t.Fatalf("unknown event type produced a new snapshot")
	}
}

func TestForeignRoomEventDropped(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	got := r.Apply(st, mustEvent(t, event.TypeStoryAdded, "other-room", "u1", event.StoryAddedPayload{
		StoryID: "s9", Title: "Sneaky",
	}))

	if !reflect.DeepEqual(got, st) {
		t.Fatalf("foreign room event changed state")
	}
	// The guard must hand back the input snapshot, not a copy.
	if reflect.ValueOf(got.Stories).Pointer() != reflect.ValueOf(st.Stories).Pointer() {
		t.Fatalf("foreign room event produced a new snapshot")
	}
}

func TestOwnJoinAdoptsFullSnapshot(t *testing.T) {
	r, store := newTestReducer(t)
	st := room.New()
	st.PendingJoinCommandID = "c1"

	consensus := 5.0
	evt := mustEvent(t, event.TypeJoinedRoom, "r1", "u1", event.JoinedRoomPayload{
		Users: []event.UserData{
			{ID: "u1", Username: "Anna"},
			{ID: "u2", Username: "Ben", Disconnected: true},
		},
		Stories: []event.StoryData{
			{ID: "s1", Title: "Login page", CreatedAt: 100},
			{ID: "s2", Title: "Signup page", CreatedAt: 200, Revealed: true, Consensus: &consensus},
		},
		Estimations: []event.EstimationData{
			{StoryID: "s2", UserID: "u1", Value: 5},
			{StoryID: "s2", UserID: "u2", Value: 5},
		},
		CardConfig:        []event.CardData{{Label: "XS", Value: 1}, {Label: "XL", Value: 13}},
		AutoReveal:        true,
		PasswordProtected: true,
		SelectedStory:     "s1",
	})
	evt.CorrelationID = "c1"

	got := r.Apply(st, evt)

	if got.RoomID != "r1" || got.UserID != "u1" {
		t.Fatalf("identity not adopted: roomId=%q userId=%q", got.RoomID, got.UserID)
	}
	if got.PendingJoinCommandID != "" || got.AuthorizationFailed != "" {
		t.Fatalf("join markers not cleared: %+v", got)
	}
	if len(got.Users) != 2 || got.Users["u2"].Username != "Ben" || !got.Users["u2"].Disconnected {
		t.Fatalf("users not indexed: %+v", got.Users)
	}
	if len(got.Stories) != 2 || got.Stories["s2"].Consensus == nil || *got.Stories["s2"].Consensus != 5 {
		t.Fatalf("stories not indexed: %+v", got.Stories)
	}
	if got.Estimations["s2"]["u2"] != 5 {
		t.Fatalf("estimations not indexed: %+v", got.Estimations)
	}
	if len(got.CardConfig) != 2 || got.CardConfig[1].Label != "XL" {
		t.Fatalf("card config not adopted: %+v", got.CardConfig)
	}
	if !got.AutoReveal || !got.PasswordProtected {
		t.Fatalf("room policy not adopted: %+v", got)
	}
	if got.SelectedStory != "s1" || got.HighlightedStory != "s1" {
		t.Fatalf("selection not adopted: selected=%q highlighted=%q", got.SelectedStory, got.HighlightedStory)
	}

	presets, err := store.Presets()
	if err != nil {
		t.Fatalf("read presets: %v", err)
	}
	if presets.UserID != "u1" {
		t.Fatalf("own user id not persisted, got %q", presets.UserID)
	}
}

func TestOtherJoinMergesUsersOnly(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	evt := mustEvent(t, event.TypeJoinedRoom, "r1", "u3", event.JoinedRoomPayload{
		Users: []event.UserData{
			{ID: "u1", Username: "Anna"},
			{ID: "u2", Username: "Ben"},
			{ID: "u3", Username: "Cleo"},
		},
		// A stray snapshot must not leak past the user list.
		Stories: []event.StoryData{{ID: "s9", Title: "Bogus"}},
	})
	evt.CorrelationID = "not-ours"

	got := r.Apply(st, evt)

	if got.UserID != "u1" {
		t.Fatalf("own identity changed on someone else's join: %q", got.UserID)
	}
	if len(got.Users) != 3 || got.Users["u3"].Username != "Cleo" {
		t.Fatalf("user list not merged: %+v", got.Users)
	}
	if _, ok := got.Stories["s9"]; ok {
		t.Fatalf("foreign join merged more than the user list")
	}
	if entry := latestLog(t, got); entry.Message != "Cleo joined the room" {
		t.Fatalf("unexpected log entry %q", entry.Message)
	}
}

func TestJoinWithoutPendingCorrelationKeepsIdentity(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()
	st.PendingJoinCommandID = "c7"

	evt := mustEvent(t, event.TypeJoinedRoom, "r1", "u3", event.JoinedRoomPayload{
		Users: []event.UserData{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}},
	})

	got := r.Apply(st, evt)
	if got.UserID != "u1" || got.PendingJoinCommandID != "c7" {
		t.Fatalf("non-matching correlation id resolved the join: %+v", got)
	}
}

func TestOwnLeaveResets(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()
	st.PresetUsername = "Anna"
	st.UserToken = "tok"
	st.ActionLog = []room.LogEntry{{LogID: "old", Message: "something"}}

	got := r.Apply(st, mustEvent(t, event.TypeLeftRoom, "r1", "u1", nil))

	want := room.New()
	want.PresetUsername = "Anna"
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("own leave did not reset state:\n got %+v\nwant %+v", got, want)
	}
}

func TestOtherLeaveRemovesUser(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	got := r.Apply(st, mustEvent(t, event.TypeLeftRoom, "r1", "u2", nil))

	if _, ok := got.Users["u2"]; ok {
		t.Fatalf("left user still present: %+v", got.Users)
	}
	if got.Users["u1"].Username != "Anna" {
		t.Fatalf("remaining users damaged: %+v", got.Users)
	}
	if entry := latestLog(t, got); entry.Message != "Ben left the room" {
		t.Fatalf("unexpected log entry %q", entry.Message)
	}
}

func TestOwnKickResets(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()
	st.PresetEmail = "anna@example.com"

	// u2 kicks u1: the subject comes from the payload, not the envelope.
	got := r.Apply(st, mustEvent(t, event.TypeKicked, "r1", "u2", event.KickedPayload{UserID: "u1"}))

	want := room.New()
	want.PresetEmail = "anna@example.com"
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("own kick did not reset state:\n got %+v\nwant %+v", got, want)
	}
}

func TestOtherKickRemovesSubject(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	got := r.Apply(st, mustEvent(t, event.TypeKicked, "r1", "u1", event.KickedPayload{UserID: "u2"}))

	if _, ok := got.Users["u2"]; ok {
		t.Fatalf("kicked user still present")
	}
	if entry := latestLog(t, got); entry.Message != "Ben was kicked from the room by Anna" {
		t.Fatalf("unexpected log entry %q", entry.Message)
	}
}

func TestConnectionLost(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	got := r.Apply(st, mustEvent(t, event.TypeConnectionLost, "r1", "u2", nil))
	if !got.Users["u2"].Disconnected {
		t.Fatalf("user not marked disconnected")
	}

	// Unknown subject: nothing changes, nothing logged.
	before := len(got.ActionLog)
	got = r.Apply(got, mustEvent(t, event.TypeConnectionLost, "r1", "ghost", nil))
	if len(got.ActionLog) != before {
		t.Fatalf("unknown subject produced a log entry")
	}
}

func TestStoryAddedScenario(t *testing.T) {
	r, _ := newTestReducer(t)
	st := room.New()
	st.RoomID = "r1"

	got := r.Apply(st, mustEvent(t, event.TypeStoryAdded, "r1", "u1", event.StoryAddedPayload{
		StoryID:     "s1",
		Title:       "Feature X",
		Description: "d",
		CreatedAt:   100,
	}))

	want := room.Story{ID: "s1", Title: "Feature X", Description: "d", CreatedAt: 100}
	if !reflect.DeepEqual(got.Stories["s1"], want) {
		t.Fatalf("story not indexed:\n got %+v\nwant %+v", got.Stories["s1"], want)
	}
	entry := latestLog(t, got)
	if entry.Message != ` added new story "Feature X"` {
		t.Fatalf("unexpected log entry %q", entry.Message)
	}
	if entry.LogID == "" || entry.Tstamp == "" {
		t.Fatalf("log entry missing id or timestamp: %+v", entry)
	}
}

func TestStoryTrashClearsHighlight(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	got := r.Apply(st, mustEvent(t, event.TypeStoryTrashed, "r1", "u1", event.StoryRefPayload{StoryID: "s1"}))

	if !got.Stories["s1"].Trashed {
		t.Fatalf("story not trashed")
	}
	if got.HighlightedStory != "" {
		t.Fatalf("highlight not cleared, got %q", got.HighlightedStory)
	}
	// Selection is an independent concern and stays put.
	if got.SelectedStory != "s1" {
		t.Fatalf("selection changed, got %q", got.SelectedStory)
	}
}

func TestStoryDeletedRemovesEntry(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	got := r.Apply(st, mustEvent(t, event.TypeStoryDeleted, "r1", "u1", event.StoryRefPayload{StoryID: "s1"}))

	if _, ok := got.Stories["s1"]; ok {
		t.Fatalf("deleted story still present")
	}
	// Title in the log must come from the pre-transition snapshot.
	if entry := latestLog(t, got); entry.Message != `Anna deleted story "Login page"` {
		t.Fatalf("unexpected log entry %q", entry.Message)
	}
}

func TestStorySelectedHighlightOnlyIfUnset(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()
	st.Stories["s2"] = room.Story{ID: "s2", Title: "Other"}
	st.HighlightedStory = "s1"
	st.Applause = true

	got := r.Apply(st, mustEvent(t, event.TypeStorySelected, "r1", "u1", event.StoryRefPayload{StoryID: "s2"}))

	if got.SelectedStory != "s2" {
		t.Fatalf("story not selected")
	}
	if got.HighlightedStory != "s1" {
		t.Fatalf("highlight moved although already set")
	}
	if got.Applause {
		t.Fatalf("applause not cleared on selection")
	}

	got.HighlightedStory = ""
	got = r.Apply(got, mustEvent(t, event.TypeStorySelected, "r1", "u1", event.StoryRefPayload{StoryID: "s1"}))
	if got.HighlightedStory != "s1" {
		t.Fatalf("highlight not adopted when unset")
	}
}

func TestEstimationRoundLifecycle(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	st = r.Apply(st, mustEvent(t, event.TypeStoryEstimateGiven, "r1", "u1", event.EstimationGivenPayload{StoryID: "s1", Value: 5}))
	st = r.Apply(st, mustEvent(t, event.TypeStoryEstimateGiven, "r1", "u2", event.EstimationGivenPayload{StoryID: "s1", Value: 8}))
	if st.Estimations["s1"]["u1"] != 5 || st.Estimations["s1"]["u2"] != 8 {
		t.Fatalf("estimates not recorded: %+v", st.Estimations)
	}

	st = r.Apply(st, mustEvent(t, event.TypeStoryEstimateCleared, "r1", "u2", event.StoryRefPayload{StoryID: "s1"}))
	if _, ok := st.Estimations["s1"]["u2"]; ok {
		t.Fatalf("cleared estimate still present")
	}

	st = r.Apply(st, mustEvent(t, event.TypeRevealed, "r1", "u1", event.StoryRefPayload{StoryID: "s1"}))
	if !st.Stories["s1"].Revealed {
		t.Fatalf("story not revealed")
	}

	st = r.Apply(st, mustEvent(t, event.TypeConsensusAchieved, "r1", "u1", event.ConsensusAchievedPayload{StoryID: "s1", Value: 5}))
	if !st.Applause {
		t.Fatalf("no applause after consensus")
	}
	if st.Stories["s1"].Consensus == nil || *st.Stories["s1"].Consensus != 5 {
		t.Fatalf("consensus not recorded: %+v", st.Stories["s1"])
	}

	st = r.Apply(st, mustEvent(t, event.TypeNewEstimationRoundStarted, "r1", "u1", event.StoryRefPayload{StoryID: "s1"}))
	if st.Stories["s1"].Revealed {
		t.Fatalf("revealed flag survived new round")
	}
	if st.Stories["s1"].Consensus != nil {
		t.Fatalf("consensus survived new round")
	}
	if _, ok := st.Estimations["s1"]; ok {
		t.Fatalf("estimations survived new round")
	}
	if st.Applause {
		t.Fatalf("applause survived new round")
	}
}

func TestRoomPolicyEvents(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	st = r.Apply(st, mustEvent(t, event.TypeAutoRevealOn, "r1", "u1", nil))
	if !st.AutoReveal {
		t.Fatalf("auto reveal not enabled")
	}
	st = r.Apply(st, mustEvent(t, event.TypeAutoRevealOff, "r1", "u1", nil))
	if st.AutoReveal {
		t.Fatalf("auto reveal not disabled")
	}

	st = r.Apply(st, mustEvent(t, event.TypePasswordSet, "r1", "u1", nil))
	if !st.PasswordProtected {
		t.Fatalf("password flag not set")
	}
	st = r.Apply(st, mustEvent(t, event.TypePasswordCleared, "r1", "u1", nil))
	if st.PasswordProtected {
		t.Fatalf("password flag not cleared")
	}

	st = r.Apply(st, mustEvent(t, event.TypeCardConfigSet, "r1", "u1", event.CardConfigSetPayload{
		CardConfig: []event.CardData{{Label: "S", Value: 2}, {Label: "M", Value: 5}},
	}))
	if len(st.CardConfig) != 2 || st.CardConfig[0].Label != "S" {
		t.Fatalf("card config not replaced: %+v", st.CardConfig)
	}
}

func TestProfileEventsMirrorOwnPresets(t *testing.T) {
	r, store := newTestReducer(t)
	st := joinedState()

	st = r.Apply(st, mustEvent(t, event.TypeUsernameSet, "r1", "u1", event.UsernameSetPayload{Username: "Annika"}))
	st = r.Apply(st, mustEvent(t, event.TypeEmailSet, "r1", "u1", event.EmailSetPayload{Email: " Annika@Example.com "}))
	st = r.Apply(st, mustEvent(t, event.TypeAvatarSet, "r1", "u1", event.AvatarSetPayload{Avatar: 3}))

	u := st.Users["u1"]
	if u.Username != "Annika" || u.Email != " Annika@Example.com " || u.Avatar != 3 {
		t.Fatalf("own profile not updated: %+v", u)
	}
	// md5 of the lowercased, trimmed address
	if u.EmailHash != "ec710ac8158c3512011b2a0f7256f3f4" {
		t.Fatalf("email hash not computed: %q", u.EmailHash)
	}
	if st.PresetUsername != "Annika" || st.PresetEmail != " Annika@Example.com " || st.PresetAvatar != 3 {
		t.Fatalf("presets not mirrored into state: %+v", st)
	}

	presets, err := store.Presets()
	if err != nil {
		t.Fatalf("read presets: %v", err)
	}
	if presets.Username != "Annika" || presets.Email != " Annika@Example.com " || presets.Avatar != 3 {
		t.Fatalf("presets not persisted: %+v", presets)
	}

	// The same events for another user must not touch our presets.
	st = r.Apply(st, mustEvent(t, event.TypeUsernameSet, "r1", "u2", event.UsernameSetPayload{Username: "Bernard"}))
	if st.PresetUsername != "Annika" {
		t.Fatalf("foreign username leaked into presets")
	}
}

func TestExcludedIncludedToggle(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	st = r.Apply(st, mustEvent(t, event.TypeExcludedFromEstimations, "r1", "u2", nil))
	if !st.Users["u2"].Excluded {
		t.Fatalf("user not excluded")
	}
	st = r.Apply(st, mustEvent(t, event.TypeIncludedInEstimations, "r1", "u2", nil))
	if st.Users["u2"].Excluded {
		t.Fatalf("user not included again")
	}
}

func TestTokenIssued(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	got := r.Apply(st, mustEvent(t, event.TypeTokenIssued, "r1", "u1", event.TokenIssuedPayload{Token: "jwt-here"}))
	if got.UserToken != "jwt-here" {
		t.Fatalf("token not stored")
	}
	if len(got.ActionLog) != 0 {
		t.Fatalf("tokenIssued must not log")
	}
}

func TestCommandRejectedGeneric(t *testing.T) {
	r, _ := newTestReducer(t)
	st := joinedState()

	got := r.Apply(st, mustEvent(t, event.TypeCommandRejected, "r1", "u1", event.CommandRejectedPayload{
		Command: event.RejectedCommand{ID: "c9", Name: "giveStoryEstimate"},
		Reason:  "story already revealed",
	}))

	if !got.UnseenError {
		t.Fatalf("unseenError not set")
	}
	entry := latestLog(t, got)
	if entry.Message != "Command rejected: story already revealed" || !entry.IsError {
		t.Fatalf("unexpected log entry %+v", entry)
	}
}

func TestJoinRejectionClearsUsernamePreset(t *testing.T) {
	r, store := newTestReducer(t)
	_ = store.SetPresetUsername("ancient name")
	st := room.New()
	st.PresetUsername = "ancient name"
	st.PendingJoinCommandID = "c1"

	got := r.Apply(st, mustEvent(t, event.TypeCommandRejected, "r1", "u1", event.CommandRejectedPayload{
		Command: event.RejectedCommand{ID: "c1", Name: "joinRoom"},
		Reason:  `Command validation failed: Format validation failed (username) in /commands/joinRoom`,
	}))

	if got.PresetUsername != "" {
		t.Fatalf("username preset not cleared in state")
	}
	presets, _ := store.Presets()
	if presets.Username != "" {
		t.Fatalf("username preset not cleared in store")
	}
	if got.UnseenError {
		t.Fatalf("validation repair must stay invisible")
	}
}

func TestJoinRejectionNotAuthorized(t *testing.T) {
	r, _ := newTestReducer(t)
	st := room.New()
	st.PresetUsername = "Anna"
	st.PendingJoinCommandID = "c1"

	got := r.Apply(st, mustEvent(t, event.TypeCommandRejected, "locked-room", "u1", event.CommandRejectedPayload{
		Command: event.RejectedCommand{ID: "c1", Name: "joinRoom", RoomID: "locked-room"},
		Reason:  "Not authorized to join room locked-room",
	}))

	if got.AuthorizationFailed != "locked-room" {
		t.Fatalf("authorizationFailed not recorded, got %q", got.AuthorizationFailed)
	}
	if got.UnseenError || len(got.ActionLog) != 0 {
		t.Fatalf("authorization failure leaked into error surface: %+v", got)
	}
	if got.PresetUsername != "Anna" {
		t.Fatalf("unrelated state changed: %+v", got)
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	r, _ := newTestReducer(t)
	before := joinedState()

	after := r.Apply(before, mustEvent(t, event.TypeStoryChanged, "r1", "u1", event.StoryChangedPayload{
		StoryID: "s1", Title: "Renamed",
	}))

	if before.Stories["s1"].Title != "Login page" {
		t.Fatalf("prior snapshot mutated: %+v", before.Stories["s1"])
	}
	if after.Stories["s1"].Title != "Renamed" {
		t.Fatalf("new snapshot missing change: %+v", after.Stories["s1"])
	}
}
