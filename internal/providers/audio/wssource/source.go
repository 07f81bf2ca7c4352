// Package wssource feeds capture from binary WebSocket frames. The device
// streams raw 16-bit PCM; the source slices the stream into fixed-duration
// segments.
package wssource

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"companion-voice-go/internal/contracts/providers"
	"companion-voice-go/internal/platform/errors"
	"companion-voice-go/internal/platform/logging"
)

const bytesPerSample = 2

// ControlHandler receives control frames the device interleaves with the
// audio stream, e.g. playback start/stop notifications.
type ControlHandler func(kind, state string)

// controlFrame is the JSON control message read from the device. It mirrors
// the outbound control frames the transport writes.
type controlFrame struct {
	Type  string `json:"type"`
	State string `json:"state,omitempty"`
}

// frameConn is the slice of *websocket.Conn the source needs; tests swap in
// a fake.
type frameConn interface {
	ReadMessage() (int, []byte, error)
	SetReadDeadline(t time.Time) error
}

// Source adapts one device connection to the AudioSource contract. The
// transport owns the connection lifecycle; Close here only releases the
// capture claim.
//
// The mutex serializes Next because the capture task and the interrupt
// monitor may overlap at the speaking-state boundary, and the underlying
// connection permits a single reader.
type Source struct {
	mu       sync.Mutex
	conn     frameConn
	rate     int
	channels int
	leftover []byte
	closed   bool
	control  ControlHandler
	logger   *logging.Logger
}

// New wraps an accepted device connection.
func New(conn *websocket.Conn, sampleRate, channels int, logger *logging.Logger) *Source {
	return &Source{conn: conn, rate: sampleRate, channels: channels, logger: logger}
}

// HandleControl registers the callback invoked for device control frames.
// The handler runs on the capture goroutine and must not call back into the
// source.
func (s *Source) HandleControl(fn ControlHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.control = fn
}

// Open verifies the connection is still usable.
func (s *Source) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.closed {
		return errors.New(errors.KindAudio, "wssource.open", "device connection is gone")
	}
	return nil
}

// Next accumulates binary frames until one chunk's worth of samples has
// arrived or the chunk duration elapses. A short or empty segment is not an
// error; it reads as silence downstream.
func (s *Source) Next(ctx context.Context, d time.Duration) (providers.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil || s.closed {
		return providers.Segment{}, errors.New(errors.KindAudio, "wssource.next", "device connection is gone")
	}
	if err := ctx.Err(); err != nil {
		return providers.Segment{}, err
	}

	want := int(d.Seconds() * float64(s.rate*s.channels*bytesPerSample))
	deadline := time.Now().Add(d)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	buf := s.leftover
	s.leftover = nil
	for len(buf) < want {
		if err := s.conn.SetReadDeadline(deadline); err != nil {
			return providers.Segment{}, errors.Wrap(errors.KindAudio, "wssource.next", "set read deadline", err)
		}
		msgType, frame, err := s.conn.ReadMessage()
		if err != nil {
			if isTimeout(err) {
				break
			}
			s.closed = true
			s.logger.WarnTag("capture", "device stream ended: %v", err)
			return providers.Segment{}, errors.Wrap(errors.KindAudio, "wssource.next", "read audio frame", err)
		}
		if msgType != websocket.BinaryMessage {
			s.dispatchControl(frame)
			continue
		}
		buf = append(buf, frame...)
	}

	if len(buf) > want {
		s.leftover = buf[want:]
		buf = buf[:want]
	}

	return providers.Segment{
		Audio:    providers.PCM{Data: buf, SampleRate: s.rate, Channels: s.channels},
		Captured: time.Now(),
	}, nil
}

// Close releases the capture claim; the transport closes the connection.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leftover = nil
	return nil
}

// Detach marks the connection unusable after the transport tears it down.
func (s *Source) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Source) dispatchControl(frame []byte) {
	if s.control == nil {
		return
	}
	var msg controlFrame
	if err := json.Unmarshal(frame, &msg); err != nil || msg.Type == "" {
		return
	}
	s.control(msg.Type, msg.State)
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	var t timeout
	if stderrors.As(err, &t) {
		return t.Timeout()
	}
	return false
}
