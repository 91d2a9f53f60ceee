package room

import "strconv"

// Card is a single selectable estimation value with its display label.
type Card struct {
	Label string
	Value float64
	Color string
}

// CardConfig is the ordered set of valid estimation values for a room.
type CardConfig []Card

// Label resolves an estimate value to its display label. The second return
// is false when the value is not part of the configuration.
func (c CardConfig) Label(value float64) (string, bool) {
	for _, card := range c {
		if card.Value == value {
			return card.Label, true
		}
	}
	return "", false
}

// FormatValue returns the display label for an estimate value, falling back
// to the numeric form for values outside the configuration.
func (c CardConfig) FormatValue(value float64) string {
	if label, ok := c.Label(value); ok {
		return label
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// DefaultCardConfig is the card set rooms start with until the server
// delivers a custom configuration.
func DefaultCardConfig() CardConfig {
	return CardConfig{
		{Label: "?", Value: -2, Color: "#bdbfbf"},
		{Label: "1/2", Value: 0.5, Color: "#667a66"},
		{Label: "1", Value: 1, Color: "#839e7a"},
		{Label: "2", Value: 2, Color: "#8cb876"},
		{Label: "3", Value: 3, Color: "#96ba5b"},
		{Label: "5", Value: 5, Color: "#b6c77d"},
		{Label: "8", Value: 8, Color: "#c9c857"},
		{Label: "13", Value: 13, Color: "#d9be3b"},
		{Label: "21", Value: 21, Color: "#d6cda1"},
		{Label: "34", Value: 34, Color: "#9fa6bd"},
		{Label: "55", Value: 55, Color: "#6a80ab"},
		{Label: "BIG", Value: -1, Color: "#1d508f"},
	}
}
