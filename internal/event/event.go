package event

import (
	"encoding/json"
	"strings"
)

// Type identifies the kind of a room event.
type Type string

// Room lifecycle events.
const (
	// TypeRoomCreated records that a room came into existence.
	TypeRoomCreated Type = "roomCreated"
	// TypeJoinedRoom records a user joining a room.
	TypeJoinedRoom Type = "joinedRoom"
	// TypeLeftRoom records a user leaving a room.
	TypeLeftRoom Type = "leftRoom"
	// TypeKicked records a user being removed by another user.
	TypeKicked Type = "kicked"
	// TypeConnectionLost records that a user's connection dropped.
	TypeConnectionLost Type = "connectionLost"
)

// Story events.
const (
	TypeStoryAdded    Type = "storyAdded"
	TypeStoryChanged  Type = "storyChanged"
	TypeStoryTrashed  Type = "storyTrashed"
	TypeStoryRestored Type = "storyRestored"
	TypeStoryDeleted  Type = "storyDeleted"
	TypeStorySelected Type = "storySelected"
	// TypeImportFailed records a failed story import. Log-only.
	TypeImportFailed Type = "importFailed"
)

// User profile events.
const (
	TypeUsernameSet             Type = "usernameSet"
	TypeEmailSet                Type = "emailSet"
	TypeAvatarSet               Type = "avatarSet"
	TypeExcludedFromEstimations Type = "excludedFromEstimations"
	TypeIncludedInEstimations   Type = "includedInEstimations"
)

// Estimation events.
const (
	TypeStoryEstimateGiven        Type = "storyEstimateGiven"
	TypeConsensusAchieved         Type = "consensusAchieved"
	TypeStoryEstimateCleared      Type = "storyEstimateCleared"
	TypeRevealed                  Type = "revealed"
	TypeNewEstimationRoundStarted Type = "newEstimationRoundStarted"
)

// Room policy events.
const (
	TypeCardConfigSet   Type = "cardConfigSet"
	TypeAutoRevealOn    Type = "autoRevealOn"
	TypeAutoRevealOff   Type = "autoRevealOff"
	TypePasswordSet     Type = "passwordSet"
	TypePasswordCleared Type = "passwordCleared"
)

// Session events.
const (
	// TypeTokenIssued delivers the credential the command layer attaches
	// to subsequent commands.
	TypeTokenIssued Type = "tokenIssued"
	// TypeCommandRejected records that the server refused a command.
	TypeCommandRejected Type = "commandRejected"
)

// catalogue lists every event type the server emits.
var catalogue = map[Type]struct{}{
	TypeRoomCreated:               {},
	TypeJoinedRoom:                {},
	TypeLeftRoom:                  {},
	TypeKicked:                    {},
	TypeConnectionLost:            {},
	TypeStoryAdded:                {},
	TypeStoryChanged:              {},
	TypeStoryTrashed:              {},
	TypeStoryRestored:             {},
	TypeStoryDeleted:              {},
	TypeStorySelected:             {},
	TypeImportFailed:              {},
	TypeUsernameSet:               {},
	TypeEmailSet:                  {},
	TypeAvatarSet:                 {},
	TypeExcludedFromEstimations:   {},
	TypeIncludedInEstimations:     {},
	TypeStoryEstimateGiven:        {},
	TypeConsensusAchieved:         {},
	TypeStoryEstimateCleared:      {},
	TypeRevealed:                  {},
	TypeNewEstimationRoundStarted: {},
	TypeCardConfigSet:             {},
	TypeAutoRevealOn:              {},
	TypeAutoRevealOff:             {},
	TypePasswordSet:               {},
	TypePasswordCleared:           {},
	TypeTokenIssued:               {},
	TypeCommandRejected:           {},
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Known reports whether the type belongs to the server's event catalogue.
// Unknown types are ignored by the reducer.
func (t Type) Known() bool {
	_, ok := catalogue[t]
	return ok
}

// Event is a single room event as delivered by the server.
type Event struct {
	// ID is the server-assigned event identifier.
	ID string `json:"id,omitempty"`
	// Type identifies the kind of event.
	Type Type `json:"name"`
	// RoomID is the room this event belongs to.
	RoomID string `json:"roomId"`
	// UserID is the user that triggered the event. For most events this is
	// also the subject; kicked carries its subject in the payload instead.
	UserID string `json:"userId"`
	// CorrelationID echoes the id of the command that produced this event,
	// letting the originating client recognize its own action.
	CorrelationID string `json:"correlationId,omitempty"`
	// Payload holds event-specific data as JSON.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodePayload unmarshals the event payload into v. A missing payload
// leaves v untouched.
func (e Event) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}
