package room

import "github.com/gotdibbs/poinz/internal/event"

// IndexUsers projects the server-supplied user list into a map keyed by
// user id. The server always supplies complete lists, so the result replaces
// any previous mapping wholesale.
func IndexUsers(users []event.UserData) map[string]User {
	out := make(map[string]User, len(users))
	for _, u := range users {
		out[u.ID] = User{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			EmailHash:    u.EmailHash,
			Avatar:       u.Avatar,
			Excluded:     u.Excluded,
			Disconnected: u.Disconnected,
		}
	}
	return out
}

// IndexStories projects the server-supplied story list into a map keyed by
// story id.
func IndexStories(stories []event.StoryData) map[string]Story {
	out := make(map[string]Story, len(stories))
	for _, st := range stories {
		story := Story{
			ID:          st.ID,
			Title:       st.Title,
			Description: st.Description,
			CreatedAt:   st.CreatedAt,
			Trashed:     st.Trashed,
			Revealed:    st.Revealed,
		}
		if st.Consensus != nil {
			v := *st.Consensus
			story.Consensus = &v
		}
		out[story.ID] = story
	}
	return out
}

// IndexEstimations projects the flat estimation list of a join snapshot into
// the nested story id to user id mapping.
func IndexEstimations(estimations []event.EstimationData) map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for _, e := range estimations {
		byUser := out[e.StoryID]
		if byUser == nil {
			byUser = make(map[string]float64)
			out[e.StoryID] = byUser
		}
		byUser[e.UserID] = e.Value
	}
	return out
}

// CardsFrom converts wire card entries into the domain card configuration.
func CardsFrom(cards []event.CardData) CardConfig {
	if len(cards) == 0 {
		return nil
	}
	out := make(CardConfig, 0, len(cards))
	for _, c := range cards {
		out = append(out, Card{Label: c.Label, Value: c.Value, Color: c.Color})
	}
	return out
}
