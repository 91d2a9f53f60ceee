package reducer

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gotdibbs/poinz/internal/event"
	"github.com/gotdibbs/poinz/internal/prefs"
	"github.com/gotdibbs/poinz/internal/room"
)

// transitionFn mutates the pre-cloned next snapshot. old is the snapshot the
// event arrived on; handlers that remove entities read titles and names from
// it when composing logs.
type transitionFn func(r *Reducer, old room.State, next *room.State, evt event.Event) error

// handlerEntry pairs a state transition with an optional log producer.
// Either side may be nil: a nil transition leaves the state untouched
// (log-only events), a nil log keeps the event out of the action log.
type handlerEntry struct {
	transition transitionFn
	log        logProducer
}

var handlers = map[event.Type]handlerEntry{
	event.TypeRoomCreated: {},

	event.TypeJoinedRoom: {transition: applyJoinedRoom, log: logJoinedRoom},
	event.TypeLeftRoom:   {transition: applyLeftRoom, log: logLeftRoom},
	event.TypeKicked:     {transition: applyKicked, log: logKicked},

	event.TypeConnectionLost: {transition: applyConnectionLost, log: logConnectionLost},

	event.TypeStoryAdded:    {transition: applyStoryAdded, log: logStoryAdded},
	event.TypeStoryChanged:  {transition: applyStoryChanged, log: logStoryChanged},
	event.TypeStoryTrashed:  {transition: applyStoryTrashed, log: logStoryTrashed},
	event.TypeStoryRestored: {transition: applyStoryRestored, log: logStoryRestored},
	event.TypeStoryDeleted:  {transition: applyStoryDeleted, log: logStoryDeleted},
	event.TypeStorySelected: {transition: applyStorySelected, log: logStorySelected},
	event.TypeImportFailed:  {log: logImportFailed},

	event.TypeUsernameSet: {transition: applyUsernameSet, log: logUsernameSet},
	event.TypeEmailSet:    {transition: applyEmailSet, log: logEmailSet},
	event.TypeAvatarSet:   {transition: applyAvatarSet, log: logAvatarSet},

	event.TypeExcludedFromEstimations: {
		transition: applyExcluded,
		log:        templateLog("%s is now excluded from estimations"),
	},
	event.TypeIncludedInEstimations: {
		transition: applyIncluded,
		log:        templateLog("%s is no longer excluded from estimations"),
	},

	// Estimates in progress must not leak to others via the log.
	event.TypeStoryEstimateGiven:   {transition: applyEstimateGiven},
	event.TypeStoryEstimateCleared: {transition: applyEstimateCleared},

	event.TypeConsensusAchieved:         {transition: applyConsensusAchieved, log: logConsensusAchieved},
	event.TypeRevealed:                  {transition: applyRevealed, log: logRevealed},
	event.TypeNewEstimationRoundStarted: {transition: applyNewRound, log: logNewRound},

	event.TypeCardConfigSet: {transition: applyCardConfigSet, log: staticLog("Card configuration changed")},
	event.TypeAutoRevealOn:  {transition: applyAutoReveal(true), log: staticLog("Auto reveal is now on")},
	event.TypeAutoRevealOff: {transition: applyAutoReveal(false), log: staticLog("Auto reveal is now off")},

	event.TypePasswordSet: {
		transition: applyPassword(true),
		log:        templateLog("%s set a password for this room"),
	},
	event.TypePasswordCleared: {
		transition: applyPassword(false),
		log:        templateLog("%s removed the password protection"),
	},

	event.TypeTokenIssued:     {transition: applyTokenIssued},
	event.TypeCommandRejected: {transition: applyCommandRejected, log: logCommandRejected},
}

func applyJoinedRoom(r *Reducer, old room.State, next *room.State, evt event.Event) error {
	var p event.JoinedRoomPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("joinedRoom payload: %w", err)
	}

	ownJoin := old.PendingJoinCommandID != "" && old.PendingJoinCommandID == evt.CorrelationID
	if !ownJoin {
		// Someone else joined: the server sends the updated complete user
		// list; everything else is unchanged for us.
		next.Users = room.IndexUsers(p.Users)
		return nil
	}

	next.RoomID = evt.RoomID
	next.UserID = evt.UserID
	next.Users = room.IndexUsers(p.Users)
	next.Stories = room.IndexStories(p.Stories)
	next.Estimations = room.IndexEstimations(p.Estimations)
	if cards := room.CardsFrom(p.CardConfig); cards != nil {
		next.CardConfig = cards
	}
	next.AutoReveal = p.AutoReveal
	next.PasswordProtected = p.PasswordProtected
	next.SelectedStory = p.SelectedStory
	if next.HighlightedStory == "" {
		next.HighlightedStory = p.SelectedStory
	}
	next.PendingJoinCommandID = ""
	next.AuthorizationFailed = ""

	r.setPref(func(s prefs.Store) error { return s.SetPresetUserID(evt.UserID) })
	return nil
}

func applyLeftRoom(_ *Reducer, old room.State, next *room.State, evt event.Event) error {
	if evt.UserID == old.UserID {
		*next = resetState(old)
		return nil
	}
	delete(next.Users, evt.UserID)
	return nil
}

func applyKicked(_ *Reducer, old room.State, next *room.State, evt event.Event) error {
	var p event.KickedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("kicked payload: %w", err)
	}
	// The kicked user is in the payload; the envelope user id is the kicker.
	if p.UserID == old.UserID {
		*next = resetState(old)
		return nil
	}
	delete(next.Users, p.UserID)
	return nil
}

func applyConnectionLost(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	u, ok := next.Users[evt.UserID]
	if !ok {
		return nil
	}
	u.Disconnected = true
	next.Users[evt.UserID] = u
	return nil
}

func applyStoryAdded(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.StoryAddedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("storyAdded payload: %w", err)
	}
	next.Stories[p.StoryID] = room.Story{
		ID:          p.StoryID,
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
	return nil
}

func applyStoryChanged(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.StoryChangedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("storyChanged payload: %w", err)
	}
	story, ok := next.Stories[p.StoryID]
	if !ok {
		return nil
	}
	story.Title = p.Title
	story.Description = p.Description
	next.Stories[p.StoryID] = story
	return nil
}

func applyStoryTrashed(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("storyTrashed payload: %w", err)
	}
	story, ok := next.Stories[p.StoryID]
	if !ok {
		return nil
	}
	story.Trashed = true
	next.Stories[p.StoryID] = story
	if next.HighlightedStory == p.StoryID {
		next.HighlightedStory = ""
	}
	return nil
}

func applyStoryRestored(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("storyRestored payload: %w", err)
	}
	story, ok := next.Stories[p.StoryID]
	if !ok {
		return nil
	}
	story.Trashed = false
	next.Stories[p.StoryID] = story
	return nil
}

func applyStoryDeleted(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("storyDeleted payload: %w", err)
	}
	// No tombstone: absence means "not known", same as never added.
	delete(next.Stories, p.StoryID)
	return nil
}

func applyStorySelected(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("storySelected payload: %w", err)
	}
	next.SelectedStory = p.StoryID
	if next.HighlightedStory == "" {
		next.HighlightedStory = p.StoryID
	}
	next.Applause = false
	return nil
}

func applyUsernameSet(r *Reducer, old room.State, next *room.State, evt event.Event) error {
	var p event.UsernameSetPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("usernameSet payload: %w", err)
	}
	u := next.Users[evt.UserID]
	u.ID = evt.UserID
	u.Username = p.Username
	next.Users[evt.UserID] = u

	if evt.UserID == old.UserID {
		next.PresetUsername = p.Username
		r.setPref(func(s prefs.Store) error { return s.SetPresetUsername(p.Username) })
	}
	return nil
}

func applyEmailSet(r *Reducer, old room.State, next *room.State, evt event.Event) error {
	var p event.EmailSetPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("emailSet payload: %w", err)
	}
	u := next.Users[evt.UserID]
	u.ID = evt.UserID
	u.Email = p.Email
	u.EmailHash = gravatarHash(p.Email)
	next.Users[evt.UserID] = u

	if evt.UserID == old.UserID {
		next.PresetEmail = p.Email
		r.setPref(func(s prefs.Store) error { return s.SetPresetEmail(p.Email) })
	}
	return nil
}

func applyAvatarSet(r *Reducer, old room.State, next *room.State, evt event.Event) error {
	var p event.AvatarSetPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("avatarSet payload: %w", err)
	}
	u := next.Users[evt.UserID]
	u.ID = evt.UserID
	u.Avatar = p.Avatar
	next.Users[evt.UserID] = u

	if evt.UserID == old.UserID {
		next.PresetAvatar = p.Avatar
		r.setPref(func(s prefs.Store) error { return s.SetPresetAvatar(p.Avatar) })
	}
	return nil
}

func applyExcluded(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	u, ok := next.Users[evt.UserID]
	if !ok {
		return nil
	}
	u.Excluded = true
	next.Users[evt.UserID] = u
	return nil
}

func applyIncluded(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	u, ok := next.Users[evt.UserID]
	if !ok {
		return nil
	}
	u.Excluded = false
	next.Users[evt.UserID] = u
	return nil
}

func applyEstimateGiven(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.EstimationGivenPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("storyEstimateGiven payload: %w", err)
	}
	byUser := next.Estimations[p.StoryID]
	if byUser == nil {
		byUser = make(map[string]float64)
		next.Estimations[p.StoryID] = byUser
	}
	byUser[evt.UserID] = p.Value
	return nil
}

func applyEstimateCleared(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("storyEstimateCleared payload: %w", err)
	}
	if byUser, ok := next.Estimations[p.StoryID]; ok {
		delete(byUser, evt.UserID)
	}
	return nil
}

func applyConsensusAchieved(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.ConsensusAchievedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("consensusAchieved payload: %w", err)
	}
	next.Applause = true
	story, ok := next.Stories[p.StoryID]
	if !ok {
		return nil
	}
	value := p.Value
	story.Consensus = &value
	next.Stories[p.StoryID] = story
	return nil
}

func applyRevealed(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("revealed payload: %w", err)
	}
	story, ok := next.Stories[p.StoryID]
	if !ok {
		return nil
	}
	story.Revealed = true
	next.Stories[p.StoryID] = story
	return nil
}

func applyNewRound(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.StoryRefPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("newEstimationRoundStarted payload: %w", err)
	}
	if story, ok := next.Stories[p.StoryID]; ok {
		story.Revealed = false
		story.Consensus = nil
		next.Stories[p.StoryID] = story
	}
	delete(next.Estimations, p.StoryID)
	next.Applause = false
	return nil
}

func applyCardConfigSet(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.CardConfigSetPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("cardConfigSet payload: %w", err)
	}
	next.CardConfig = room.CardsFrom(p.CardConfig)
	return nil
}

func applyAutoReveal(on bool) transitionFn {
	return func(_ *Reducer, _ room.State, next *room.State, _ event.Event) error {
		next.AutoReveal = on
		return nil
	}
}

func applyPassword(protected bool) transitionFn {
	return func(_ *Reducer, _ room.State, next *room.State, _ event.Event) error {
		next.PasswordProtected = protected
		return nil
	}
}

func applyTokenIssued(_ *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.TokenIssuedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("tokenIssued payload: %w", err)
	}
	next.UserToken = p.Token
	return nil
}

func applyCommandRejected(r *Reducer, _ room.State, next *room.State, evt event.Event) error {
	var p event.CommandRejectedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return fmt.Errorf("commandRejected payload: %w", err)
	}
	next.UnseenError = true
	r.log.Warn().
		Str("command", p.Command.Name).
		Str("reason", p.Reason).
		Msg("server rejected command")
	return nil
}

// gravatarHash is the gravatar contract for email hashes: md5 hex of the
// lowercase, trimmed address. Not a security boundary.
func gravatarHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}
