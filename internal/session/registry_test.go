package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopConn struct{}

func (nopConn) WriteMessage(int, []byte) error { return nil }
func (nopConn) Close() error                   { return nil }

func newTestParticipant(meetingID, name string) *Participant {
	return NewParticipant(nopConn{}, meetingID, "att-"+name, name, "en-US", "es-US")
}

func TestTwoPartyCap(t *testing.T) {
	r := NewRegistry()

	a := newTestParticipant("m1", "alice")
	b := newTestParticipant("m1", "bob")
	c := newTestParticipant("m1", "carol")

	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(b))
	assert.ErrorIs(t, r.Add(c), ErrMeetingFull)

	// A slot frees up when a member leaves.
	r.Remove(a.ConnectionID)
	assert.NoError(t, r.Add(c))
}

func TestClosedMemberDoesNotCountAgainstCap(t *testing.T) {
	r := NewRegistry()

	a := newTestParticipant("m1", "alice")
	b := newTestParticipant("m1", "bob")
	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(b))

	a.Close()
	c := newTestParticipant("m1", "carol")
	assert.NoError(t, r.Add(c))
}

func TestPartner(t *testing.T) {
	r := NewRegistry()

	a := newTestParticipant("m1", "alice")
	b := newTestParticipant("m1", "bob")
	require.NoError(t, r.Add(a))

	assert.Nil(t, r.Partner("m1", a.ConnectionID), "no partner before second join")

	require.NoError(t, r.Add(b))
	got := r.Partner("m1", a.ConnectionID)
	require.NotNil(t, got)
	assert.Equal(t, b.ConnectionID, got.ConnectionID)

	b.Close()
	assert.Nil(t, r.Partner("m1", a.ConnectionID), "closed partner is not returned")
}

func TestPartnerIsolatedPerMeeting(t *testing.T) {
	r := NewRegistry()

	a := newTestParticipant("m1", "alice")
	x := newTestParticipant("m2", "xavier")
	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(x))

	assert.Nil(t, r.Partner("m1", a.ConnectionID))
}

func TestBroadcastReturnsOpenMembers(t *testing.T) {
	r := NewRegistry()

	a := newTestParticipant("m1", "alice")
	b := newTestParticipant("m1", "bob")
	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(b))

	assert.Len(t, r.Broadcast("m1"), 2)
	a.Close()
	assert.Len(t, r.Broadcast("m1"), 1)
}

func TestRemoveUnknownConnIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Remove("missing")
	assert.Nil(t, r.Get("missing"))
}
