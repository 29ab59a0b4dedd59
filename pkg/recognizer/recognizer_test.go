package recognizer

import (
	"encoding/json"
	"fmt"
	"testing"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageResponse(text string, isFinal bool, start, duration float64) *msginterfaces.MessageResponse {
	raw := fmt.Sprintf(`{
		"type": "Results",
		"is_final": %t,
		"start": %g,
		"duration": %g,
		"channel": {"alternatives": [{"transcript": %q}]}
	}`, isFinal, start, duration, text)
	var mr msginterfaces.MessageResponse
	if err := json.Unmarshal([]byte(raw), &mr); err != nil {
		panic(err)
	}
	return &mr
}

func TestFrameQueueFIFO(t *testing.T) {
	q := newFrameQueue()
	q.Push([]byte{1})
	q.Push([]byte{2})

	assert.Equal(t, []byte{1}, <-q.C())
	assert.Equal(t, []byte{2}, <-q.C())
	assert.Equal(t, 0, q.Len())
}

func TestFrameQueueDropsOldestWhenFull(t *testing.T) {
	q := newFrameQueue()
	for i := 0; i < frameQueueDepth+3; i++ {
		q.Push([]byte{byte(i)})
	}
	require.Equal(t, frameQueueDepth, q.Len())

	// The three oldest frames were evicted.
	assert.Equal(t, []byte{3}, <-q.C())
}

func TestFrameQueueReset(t *testing.T) {
	q := newFrameQueue()
	q.Push([]byte{1})
	q.Push([]byte{2})

	q.Reset()
	assert.Equal(t, 0, q.Len())

	q.Push([]byte{9})
	assert.Equal(t, []byte{9}, <-q.C())
}

func TestFactoryRejectsMisconfiguration(t *testing.T) {
	_, err := NewFactory(ProviderAWS, nil, "", nil)
	assert.Error(t, err)

	_, err = NewFactory(ProviderDeepgram, nil, "", nil)
	assert.Error(t, err)

	_, err = NewFactory(Provider("azure"), nil, "", nil)
	assert.Error(t, err)
}

func TestDeepgramSessionMapsMessages(t *testing.T) {
	var got []Transcript
	s := &deepgramSession{
		lang:    "en-US",
		handler: func(tr Transcript) { got = append(got, tr) },
		closed:  make(chan struct{}),
	}
	s.alive.Store(true)

	require.NoError(t, s.Message(messageResponse("hello there", true, 1.5, 0.8)))
	require.NoError(t, s.Message(messageResponse("", false, 0, 0)))

	require.Len(t, got, 2)
	assert.Equal(t, "hello there", got[0].Text)
	assert.True(t, got[0].IsFinal)
	assert.Equal(t, int64(1500), got[0].StartMs)
	assert.Equal(t, int64(2300), got[0].EndMs)
	assert.False(t, got[1].IsFinal)
}
