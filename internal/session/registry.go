package session

import (
	"errors"
	"sync"
)

// ErrMeetingFull rejects a third join on a two-party meeting.
var ErrMeetingFull = errors.New("meeting already has two participants")

const maxPerMeeting = 2

// Registry is the process-global index of open participants. All mutations
// go through one mutex so the two-party cap holds under concurrent joins.
type Registry struct {
	mu        sync.Mutex
	byConn    map[string]*Participant
	byMeeting map[string]map[string]*Participant
}

func NewRegistry() *Registry {
	return &Registry{
		byConn:    make(map[string]*Participant),
		byMeeting: make(map[string]map[string]*Participant),
	}
}

// Add registers a participant, enforcing the cap against members whose
// transport is still open.
func (r *Registry) Add(p *Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.byMeeting[p.MeetingID]
	live := 0
	for _, m := range members {
		if m.Open() {
			live++
		}
	}
	if live >= maxPerMeeting {
		return ErrMeetingFull
	}

	if members == nil {
		members = make(map[string]*Participant)
		r.byMeeting[p.MeetingID] = members
	}
	members[p.ConnectionID] = p
	r.byConn[p.ConnectionID] = p
	return nil
}

func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)
	if members := r.byMeeting[p.MeetingID]; members != nil {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.byMeeting, p.MeetingID)
		}
	}
}

func (r *Registry) Get(connID string) *Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byConn[connID]
}

// Partner returns the other open participant of a meeting, or nil.
func (r *Registry) Partner(meetingID, connID string) *Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, m := range r.byMeeting[meetingID] {
		if id != connID && m.Open() {
			return m
		}
	}
	return nil
}

// Broadcast returns every open participant of a meeting.
func (r *Registry) Broadcast(meetingID string) []*Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Participant
	for _, m := range r.byMeeting[meetingID] {
		if m.Open() {
			out = append(out, m)
		}
	}
	return out
}
