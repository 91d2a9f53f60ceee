// Package ws is the thin event source the reducer sits behind: it delivers
// server events in arrival order and carries outgoing commands. It never
// reorders or buffers; ordering correctness is the server's contract.
package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/gotdibbs/poinz/internal/event"
)

// frame is the wire envelope around a single server event.
type frame struct {
	Type  string      `json:"type"`
	Event event.Event `json:"event"`
}

// Command is the envelope for outgoing commands. ID doubles as the
// correlation id echoed back on resulting events.
type Command struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	RoomID  string `json:"roomId"`
	UserID  string `json:"userId,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Client is a websocket connection to the room server.
type Client struct {
	conn *websocket.Conn
	log  zerolog.Logger
}

// Dial connects to the server at url.
func Dial(ctx context.Context, url string, logger *zerolog.Logger) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Client{conn: conn, log: l}, nil
}

// ReadEvent blocks until the next server event arrives.
func (c *Client) ReadEvent(ctx context.Context) (event.Event, error) {
	var f frame
	if err := wsjson.Read(ctx, c.conn, &f); err != nil {
		return event.Event{}, fmt.Errorf("read event: %w", err)
	}
	return decodeFrame(f)
}

// SendCommand writes a command to the server.
func (c *Client) SendCommand(ctx context.Context, cmd Command) error {
	if err := wsjson.Write(ctx, c.conn, cmd); err != nil {
		return fmt.Errorf("send command %s: %w", cmd.Name, err)
	}
	c.log.Debug().Str("command", cmd.Name).Str("id", cmd.ID).Msg("command sent")
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// decodeFrame lifts the inner event out of the envelope. The outer type is
// the authoritative discriminator; some server versions omit the inner name.
func decodeFrame(f frame) (event.Event, error) {
	evt := f.Event
	if evt.Type == "" {
		evt.Type = event.Type(f.Type)
	}
	if !evt.Type.IsValid() {
		return event.Event{}, fmt.Errorf("frame without event type")
	}
	if f.Type != "" && string(evt.Type) != f.Type {
		return event.Event{}, fmt.Errorf("frame type %q does not match event name %q", f.Type, evt.Type)
	}
	return evt, nil
}

// parseFrame decodes a raw wire message. Split from ReadEvent so decoding is
// testable without a connection.
func parseFrame(raw []byte) (event.Event, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return event.Event{}, fmt.Errorf("decode frame: %w", err)
	}
	return decodeFrame(f)
}
