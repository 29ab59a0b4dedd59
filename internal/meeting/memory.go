package meeting

import (
	"context"
	"sync"
)

// MemoryStore keeps meetings in process memory. Used when no DynamoDB table
// is configured; metadata does not survive a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	meetings  map[string]Meeting
	attendees map[string][]Attendee
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		meetings:  make(map[string]Meeting),
		attendees: make(map[string][]Attendee),
	}
}

func (s *MemoryStore) SaveMeeting(_ context.Context, m Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[m.MeetingID] = m
	return nil
}

func (s *MemoryStore) GetMeeting(_ context.Context, meetingID string) (Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meetings[meetingID]
	if !ok {
		return Meeting{}, ErrMeetingNotFound
	}
	return m, nil
}

func (s *MemoryStore) SaveAttendee(_ context.Context, a Attendee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendees[a.MeetingID] = append(s.attendees[a.MeetingID], a)
	return nil
}
