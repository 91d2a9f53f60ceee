package room

// User is a participant in the room as mirrored by this client.
type User struct {
	ID           string
	Username     string
	Email        string
	EmailHash    string
	Avatar       int
	Excluded     bool
	Disconnected bool
}

// Story is an estimable work item within the room.
type Story struct {
	ID          string
	Title       string
	Description string
	CreatedAt   int64
	Trashed     bool
	Revealed    bool
	Consensus   *float64
}

// LogEntry is one line of the human-readable action log.
type LogEntry struct {
	Tstamp  string
	LogID   string
	Message string
	IsError bool
}

// State is the local mirror of a room, reconstructed purely from the ordered
// event stream. One live instance exists per client session; every applied
// event produces a new snapshot and leaves prior snapshots untouched.
type State struct {
	RoomID string
	UserID string

	Users   map[string]User
	Stories map[string]Story
	// Estimations maps story id to user id to estimate value. A missing
	// inner map means no estimates were given this round.
	Estimations map[string]map[string]float64

	SelectedStory    string
	HighlightedStory string

	CardConfig        CardConfig
	AutoReveal        bool
	PasswordProtected bool

	// Applause is true exactly while a just-achieved consensus celebration
	// should display.
	Applause bool

	// ActionLog is newest-first. Entries are never removed here; trimming
	// is the UI's concern.
	ActionLog []LogEntry

	// PendingJoinCommandID correlates an in-flight join request. Once the
	// join resolves, UserID is the sole source of own-identity.
	PendingJoinCommandID string
	// AuthorizationFailed holds the room id of a password-protected join
	// that was rejected, consumed by the join-flow UI.
	AuthorizationFailed string
	// UnseenError is set whenever the server rejects a command.
	UnseenError bool

	// UserToken is the opaque credential issued by the server after join.
	UserToken string

	// Presets mirror the local preference store.
	PresetUsername string
	PresetEmail    string
	PresetAvatar   int
}

// New returns the initial empty state a session starts from.
func New() State {
	return State{
		Users:       make(map[string]User),
		Stories:     make(map[string]Story),
		Estimations: make(map[string]map[string]float64),
	}
}

// Clone returns a deep copy of the state. Mutating the copy never affects
// the receiver, which keeps earlier snapshots valid.
func (s State) Clone() State {
	out := s

	out.Users = make(map[string]User, len(s.Users))
	for id, u := range s.Users {
		out.Users[id] = u
	}

	out.Stories = make(map[string]Story, len(s.Stories))
	for id, st := range s.Stories {
		if st.Consensus != nil {
			v := *st.Consensus
			st.Consensus = &v
		}
		out.Stories[id] = st
	}

	out.Estimations = make(map[string]map[string]float64, len(s.Estimations))
	for storyID, byUser := range s.Estimations {
		inner := make(map[string]float64, len(byUser))
		for userID, value := range byUser {
			inner[userID] = value
		}
		out.Estimations[storyID] = inner
	}

	if s.CardConfig != nil {
		out.CardConfig = make(CardConfig, len(s.CardConfig))
		copy(out.CardConfig, s.CardConfig)
	}
	if s.ActionLog != nil {
		out.ActionLog = make([]LogEntry, len(s.ActionLog))
		copy(out.ActionLog, s.ActionLog)
	}

	return out
}
