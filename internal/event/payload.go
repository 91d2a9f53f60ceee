package event

import "encoding/json"

// UserData is the wire shape of a room participant inside event payloads.
type UserData struct {
	ID           string `json:"id"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	EmailHash    string `json:"emailHash,omitempty"`
	Avatar       int    `json:"avatar,omitempty"`
	Excluded     bool   `json:"excluded,omitempty"`
	Disconnected bool   `json:"disconnected,omitempty"`
}

// StoryData is the wire shape of a story inside event payloads.
type StoryData struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	CreatedAt   int64    `json:"createdAt"`
	Trashed     bool     `json:"trashed,omitempty"`
	Revealed    bool     `json:"revealed,omitempty"`
	Consensus   *float64 `json:"consensus,omitempty"`
}

// EstimationData is one user's estimate for one story, as delivered in the
// join snapshot.
type EstimationData struct {
	StoryID string  `json:"storyId"`
	UserID  string  `json:"userId"`
	Value   float64 `json:"value"`
}

// CardData is a single entry of the room's card configuration.
type CardData struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// JoinedRoomPayload captures the payload for joinedRoom events. For the
// joining user it carries the full room snapshot; other participants only
// consume the updated user list.
type JoinedRoomPayload struct {
	Users             []UserData       `json:"users"`
	Stories           []StoryData      `json:"stories,omitempty"`
	Estimations       []EstimationData `json:"estimations,omitempty"`
	CardConfig        []CardData       `json:"cardConfig,omitempty"`
	AutoReveal        bool             `json:"autoReveal,omitempty"`
	PasswordProtected bool             `json:"passwordProtected,omitempty"`
	SelectedStory     string           `json:"selectedStory,omitempty"`
}

// KickedPayload captures the payload for kicked events. UserID is the kicked
// user; the kicking user is on the event envelope.
type KickedPayload struct {
	UserID string `json:"userId"`
}

// StoryAddedPayload captures the payload for storyAdded events.
type StoryAddedPayload struct {
	StoryID     string `json:"storyId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

// StoryChangedPayload captures the payload for storyChanged events.
type StoryChangedPayload struct {
	StoryID     string `json:"storyId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// StoryRefPayload captures payloads that reference a story by id
// (trash, restore, delete, select, reveal, new round).
type StoryRefPayload struct {
	StoryID string `json:"storyId"`
}

// ImportFailedPayload captures the payload for importFailed events.
type ImportFailedPayload struct {
	Message string `json:"message"`
}

// UsernameSetPayload captures the payload for usernameSet events.
type UsernameSetPayload struct {
	Username string `json:"username"`
}

// EmailSetPayload captures the payload for emailSet events.
type EmailSetPayload struct {
	Email string `json:"email"`
}

// AvatarSetPayload captures the payload for avatarSet events.
type AvatarSetPayload struct {
	Avatar int `json:"avatar"`
}

// EstimationGivenPayload captures the payload for storyEstimateGiven events.
type EstimationGivenPayload struct {
	StoryID string  `json:"storyId"`
	Value   float64 `json:"value"`
}

// ConsensusAchievedPayload captures the payload for consensusAchieved events.
type ConsensusAchievedPayload struct {
	StoryID string  `json:"storyId"`
	Value   float64 `json:"value"`
}

// CardConfigSetPayload captures the payload for cardConfigSet events.
type CardConfigSetPayload struct {
	CardConfig []CardData `json:"cardConfig"`
}

// TokenIssuedPayload captures the payload for tokenIssued events.
type TokenIssuedPayload struct {
	Token string `json:"token"`
}

// RejectedCommand describes the command a commandRejected event refers to.
type RejectedCommand struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CommandRejectedPayload captures the payload for commandRejected events.
type CommandRejectedPayload struct {
	Command RejectedCommand `json:"command"`
	Reason  string          `json:"reason"`
}
