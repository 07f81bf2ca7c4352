package capture

import (
	"fmt"
	"time"

	"companion-voice-go/internal/contracts/providers"
)

// Fragment is one transcribed chunk retained during capture. Offset is the
// fragment's position within the current utterance window.
type Fragment struct {
	Text    string
	Offset  time.Duration
	Segment providers.Segment
}

// UtteranceBuffer collects the retained fragments of one utterance. It is
// mutable while capturing and frozen once finalized; a frozen buffer rejects
// further appends.
type UtteranceBuffer struct {
	fragments []Fragment
	frozen    bool
}

// NewUtteranceBuffer returns an empty, unfrozen buffer.
func NewUtteranceBuffer() *UtteranceBuffer {
	return &UtteranceBuffer{}
}

// Append retains a fragment. Appending to a frozen buffer is a caller bug.
func (b *UtteranceBuffer) Append(fragment Fragment) error {
	if b.frozen {
		return fmt.Errorf("append to frozen utterance buffer")
	}
	b.fragments = append(b.fragments, fragment)
	return nil
}

// Freeze finalizes the buffer. Idempotent.
func (b *UtteranceBuffer) Freeze() {
	b.frozen = true
}

// Frozen reports whether the buffer has been finalized.
func (b *UtteranceBuffer) Frozen() bool {
	return b.frozen
}

// Len returns the number of retained fragments.
func (b *UtteranceBuffer) Len() int {
	return len(b.fragments)
}

// Last returns the most recently retained fragment.
func (b *UtteranceBuffer) Last() (Fragment, bool) {
	if len(b.fragments) == 0 {
		return Fragment{}, false
	}
	return b.fragments[len(b.fragments)-1], true
}

// Fragments returns the retained fragments in capture order.
func (b *UtteranceBuffer) Fragments() []Fragment {
	out := make([]Fragment, len(b.fragments))
	copy(out, b.fragments)
	return out
}

// Segments returns the retained audio in chronological order. Only a frozen
// buffer may be consumed.
func (b *UtteranceBuffer) Segments() []providers.Segment {
	if !b.frozen {
		return nil
	}
	out := make([]providers.Segment, len(b.fragments))
	for i, f := range b.fragments {
		out[i] = f.Segment
	}
	return out
}
