package reducer

import (
	"fmt"

	"github.com/gotdibbs/poinz/internal/event"
	"github.com/gotdibbs/poinz/internal/room"
)

// tstampLayout formats action log timestamps.
const tstampLayout = "15:04"

// logMessage is the resolved outcome of a log producer.
type logMessage struct {
	text    string
	isError bool
}

// logProducer derives the action log line for an event. username is the
// acting user's name resolved from the post-transition state; producers that
// describe removed entities read from old instead. A nil result appends
// nothing.
type logProducer func(username string, old, next room.State, evt event.Event) *logMessage

// staticLog produces the same line for every occurrence of an event.
func staticLog(text string) logProducer {
	return func(string, room.State, room.State, event.Event) *logMessage {
		return &logMessage{text: text}
	}
}

// templateLog produces a line with the acting username substituted in.
func templateLog(format string) logProducer {
	return func(username string, _, _ room.State, _ event.Event) *logMessage {
		return &logMessage{text: fmt.Sprintf(format, username)}
	}
}

// composeLog invokes the producer with the pre- and post-transition
// snapshots and prepends the resulting entry. The log is a derived artifact:
// its absence never affects the state transition itself.
func (r *Reducer) composeLog(produce logProducer, old, next room.State, evt event.Event) room.State {
	if produce == nil {
		return next
	}

	// The acting username comes from the new state: for a just-joined user
	// the old snapshot has no entry yet.
	username := next.Users[evt.UserID].Username

	msg := produce(username, old, next, evt)
	if msg == nil || msg.text == "" {
		return next
	}

	entry := room.LogEntry{
		Tstamp:  r.now().Format(tstampLayout),
		LogID:   r.newID(),
		Message: msg.text,
		IsError: msg.isError,
	}
	next.ActionLog = append([]room.LogEntry{entry}, next.ActionLog...)
	return next
}

func logJoinedRoom(username string, _, _ room.State, _ event.Event) *logMessage {
	if username == "" {
		return &logMessage{text: "A new user joined the room"}
	}
	return &logMessage{text: fmt.Sprintf("%s joined the room", username)}
}

func logLeftRoom(_ string, old, _ room.State, evt event.Event) *logMessage {
	if evt.UserID == old.UserID {
		// Own leave resets the whole state; nothing to log onto.
		return nil
	}
	// The user is already gone from the new state.
	return &logMessage{text: fmt.Sprintf("%s left the room", old.Users[evt.UserID].Username)}
}

func logKicked(username string, old, _ room.State, evt event.Event) *logMessage {
	var p event.KickedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return nil
	}
	if p.UserID == old.UserID {
		return nil
	}
	subject := old.Users[p.UserID].Username
	return &logMessage{text: fmt.Sprintf("%s was kicked from the room by %s", subject, username)}
}

func logConnectionLost(username string, old, _ room.State, evt event.Event) *logMessage {
	if _, ok := old.Users[evt.UserID]; !ok {
		return nil
	}
	return &logMessage{text: fmt.Sprintf("%s lost the connection", username)}
}

func logStoryAdded(username string, _, _ room.State, evt event.Event) *logMessage {
	var p event.StoryAddedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return nil
	}
	return &logMessage{text: fmt.Sprintf("%s added new story %q", username, p.Title)}
}

func logStoryChanged(username string, _, _ room.State, evt event.Event) *logMessage {
	var p event.StoryChangedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return nil
	}
	return &logMessage{text: fmt.Sprintf("%s changed story %q", username, p.Title)}
}

func logStoryTrashed(username string, old, _ room.State, evt event.Event) *logMessage {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return nil
	}
	return &logMessage{text: fmt.Sprintf("%s moved story %q to trash", username, old.Stories[p.StoryID].Title)}
}

func logStoryRestored(username string, _, next room.State, evt event.Event) *logMessage {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return nil
	}
	return &logMessage{text: fmt.Sprintf("%s restored story %q", username, next.Stories[p.StoryID].Title)}
}

func logStoryDeleted(username string, old, _ room.State, evt event.Event) *logMessage {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return nil
	}
	// The new state no longer holds the story; the title must come from
	// the old snapshot.
	return &logMessage{text: fmt.Sprintf("%s deleted story %q", username, old.Stories[p.StoryID].Title)}
}

func logStorySelected(username string, _, next room.State, evt event.Event) *logMessage {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return nil
	}
	story, ok := next.Stories[p.StoryID]
	if !ok {
		return nil
	}
	return &logMessage{text: fmt.Sprintf("%s selected story %q", username, story.Title)}
}

func logImportFailed(_ string, _, _ room.State, evt event.Event) *logMessage {
	var p event.ImportFailedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return nil
	}
	return &logMessage{text: fmt.Sprintf("Story import failed: %s", p.Message), isError: true}
}

func logUsernameSet(username string, old, _ room.State, evt event.Event) *logMessage {
	previous := old.Users[evt.UserID].Username
	if previous == "" {
		return &logMessage{text: fmt.Sprintf("%s set their username", username)}
	}
	if previous == username {
		return nil
	}
	return &logMessage{text: fmt.Sprintf("%q is now called %q", previous, username)}
}

func logEmailSet(username string, _, _ room.State, _ event.Event) *logMessage {
	return &logMessage{text: fmt.Sprintf("%s set their email address", username)}
}

func logAvatarSet(username string, _, _ room.State, _ event.Event) *logMessage {
	return &logMessage{text: fmt.Sprintf("%s changed their avatar", username)}
}

func logConsensusAchieved(_ string, old, next room.State, evt event.Event) *logMessage {
	var p event.ConsensusAchievedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return nil
	}
	// Title from the old snapshot: the log describes what changed.
	title := old.Stories[p.StoryID].Title
	label := next.CardConfig.FormatValue(p.Value)
	return &logMessage{text: fmt.Sprintf("Consensus achieved for story %q: %s", title, label)}
}

func logRevealed(_ string, old, _ room.State, evt event.Event) *logMessage {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return nil
	}
	return &logMessage{text: fmt.Sprintf("Estimates revealed for story %q", old.Stories[p.StoryID].Title)}
}

func logNewRound(_ string, _, next room.State, evt event.Event) *logMessage {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return nil
	}
	return &logMessage{text: fmt.Sprintf("New estimation round started for story %q", next.Stories[p.StoryID].Title)}
}

func logCommandRejected(_ string, _, _ room.State, evt event.Event) *logMessage {
	var p event.CommandRejectedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return nil
	}
	return &logMessage{text: fmt.Sprintf("Command rejected: %s", p.Reason), isError: true}
}
