package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-voice-go/internal/contracts/providers"
)

func TestUtteranceBuffer_AppendAndFreeze(t *testing.T) {
	b := NewUtteranceBuffer()

	require.NoError(t, b.Append(Fragment{Text: "turn on"}))
	require.NoError(t, b.Append(Fragment{Text: "the lights", Offset: 2 * time.Second}))
	assert.Equal(t, 2, b.Len())

	last, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, "the lights", last.Text)

	assert.Nil(t, b.Segments(), "unfrozen buffer may not be consumed")

	b.Freeze()
	assert.True(t, b.Frozen())
	assert.Error(t, b.Append(Fragment{Text: "too late"}), "frozen buffer rejects appends")
	assert.Equal(t, 2, b.Len())

	b.Freeze() // idempotent
	assert.True(t, b.Frozen())
}

func TestUtteranceBuffer_SegmentsChronological(t *testing.T) {
	b := NewUtteranceBuffer()
	first := providers.Segment{Audio: providers.PCM{Data: []byte{1}, SampleRate: 16000, Channels: 1}}
	second := providers.Segment{Audio: providers.PCM{Data: []byte{2}, SampleRate: 16000, Channels: 1}}

	require.NoError(t, b.Append(Fragment{Text: "a", Segment: first}))
	require.NoError(t, b.Append(Fragment{Text: "b", Segment: second}))
	b.Freeze()

	segments := b.Segments()
	require.Len(t, segments, 2)
	assert.Equal(t, []byte{1}, segments[0].Audio.Data)
	assert.Equal(t, []byte{2}, segments[1].Audio.Data)
}

func TestUtteranceBuffer_EmptyLast(t *testing.T) {
	b := NewUtteranceBuffer()
	_, ok := b.Last()
	assert.False(t, ok)
}

func TestOpenerSet_Matches(t *testing.T) {
	openers := EnglishOpeners()

	assert.True(t, openers.Matches("how far is"))
	assert.True(t, openers.Matches("um tell me about"))
	assert.True(t, openers.Matches("What is the..."))
	assert.False(t, openers.Matches("how far is the moon"))
	assert.False(t, openers.Matches("turn on the lights"))
	assert.False(t, openers.Matches(""))
}
