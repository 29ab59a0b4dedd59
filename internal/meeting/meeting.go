// Package meeting owns meeting and attendee metadata for the REST surface.
// The pipeline never touches this store; it only sees ids the client echoes
// back on join.
package meeting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrMeetingNotFound = errors.New("meeting not found")

type Meeting struct {
	MeetingID string    `json:"meetingId" dynamodbav:"meetingId"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt"`
}

type Attendee struct {
	AttendeeID string    `json:"attendeeId" dynamodbav:"attendeeId"`
	MeetingID  string    `json:"meetingId" dynamodbav:"meetingId"`
	Name       string    `json:"name" dynamodbav:"name"`
	JoinedAt   time.Time `json:"joinedAt" dynamodbav:"joinedAt"`
}

// Store persists meeting metadata.
type Store interface {
	SaveMeeting(ctx context.Context, m Meeting) error
	GetMeeting(ctx context.Context, meetingID string) (Meeting, error)
	SaveAttendee(ctx context.Context, a Attendee) error
}

// Service issues ids and enforces meeting existence over a Store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create makes a new meeting with its first attendee.
func (s *Service) Create(ctx context.Context, attendeeName string) (Meeting, Attendee, error) {
	m := Meeting{
		MeetingID: uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveMeeting(ctx, m); err != nil {
		return Meeting{}, Attendee{}, err
	}
	a, err := s.addAttendee(ctx, m, attendeeName)
	if err != nil {
		return Meeting{}, Attendee{}, err
	}
	return m, a, nil
}

// Join adds an attendee to an existing meeting.
func (s *Service) Join(ctx context.Context, meetingID, attendeeName string) (Meeting, Attendee, error) {
	m, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return Meeting{}, Attendee{}, err
	}
	a, err := s.addAttendee(ctx, m, attendeeName)
	if err != nil {
		return Meeting{}, Attendee{}, err
	}
	return m, a, nil
}

func (s *Service) addAttendee(ctx context.Context, m Meeting, name string) (Attendee, error) {
	a := Attendee{
		AttendeeID: uuid.NewString(),
		MeetingID:  m.MeetingID,
		Name:       name,
		JoinedAt:   time.Now().UTC(),
	}
	if err := s.store.SaveAttendee(ctx, a); err != nil {
		return Attendee{}, err
	}
	return a, nil
}
