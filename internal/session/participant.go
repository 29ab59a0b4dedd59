// Package session tracks the open client connections of each meeting and
// enforces the two-party cap.
package session

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid"
)

// Conn is the transport slice a Participant writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Participant is one joined connection. Writes are serialized through a
// mutex because the transport allows a single concurrent writer.
type Participant struct {
	ConnectionID string
	MeetingID    string
	AttendeeID   string
	Name         string
	SpokenLocale string
	TargetLocale string

	conn    Conn
	writeMu sync.Mutex
	open    atomic.Bool
}

func NewParticipant(conn Conn, meetingID, attendeeID, name, spokenLocale, targetLocale string) *Participant {
	id, err := gonanoid.Nanoid()
	if err != nil {
		// Entropy exhaustion does not happen in practice.
		panic(err)
	}
	p := &Participant{
		ConnectionID: id,
		MeetingID:    meetingID,
		AttendeeID:   attendeeID,
		Name:         name,
		SpokenLocale: spokenLocale,
		TargetLocale: targetLocale,
		conn:         conn,
	}
	p.open.Store(true)
	return p
}

// SendJSON writes one text frame. Writing to a closed participant returns
// websocket.ErrCloseSent so callers can drop the event silently.
func (p *Participant) SendJSON(v any) error {
	if !p.open.Load() {
		return websocket.ErrCloseSent
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// Ping writes a transport-level ping frame.
func (p *Participant) Ping() error {
	if !p.open.Load() {
		return websocket.ErrCloseSent
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteMessage(websocket.PingMessage, nil)
}

// Open reports whether the transport is still usable.
func (p *Participant) Open() bool {
	return p.open.Load()
}

// Close marks the participant closed and closes the transport. Safe to call
// more than once.
func (p *Participant) Close() {
	if p.open.Swap(false) {
		_ = p.conn.Close()
	}
}
