package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-voice-go/internal/domain/capture"
	"companion-voice-go/internal/domain/eventbus"
	"companion-voice-go/internal/domain/session"
	"companion-voice-go/internal/platform/errors"
)

// scriptedListener hands out transcripts in order; past the script it blocks
// until the context ends.
type scriptedListener struct {
	mu      sync.Mutex
	replies []string
	errs    map[int]error
	i       int
}

func (l *scriptedListener) Listen(ctx context.Context, _ capture.Request) (string, error) {
	l.mu.Lock()
	i := l.i
	l.i++
	l.mu.Unlock()

	if i >= len(l.replies) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err, ok := l.errs[i]; ok && err != nil {
		return "", err
	}
	return l.replies[i], nil
}

func (l *scriptedListener) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.i
}

type recordedUtterance struct {
	identity string
	text     string
}

func newTestSessions() *session.Manager {
	return session.NewManager(session.Config{
		Triggers:   map[string][]string{"piper": {"hey piper"}},
		EndPhrases: []string{"goodbye"},
		Timeout:    30 * time.Second,
	})
}

func runPipeline(t *testing.T, p *Pipeline) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

func TestPipeline_RoutesSessionUtterances(t *testing.T) {
	listener := &scriptedListener{replies: []string{
		"hey piper",
		"what time is it",
		"random background chatter",
	}}
	sessions := newTestSessions()

	var mu sync.Mutex
	var handled []recordedUtterance
	p := NewPipeline(PipelineConfig{
		Listener: listener,
		Sessions: sessions,
		Handler: func(_ context.Context, identity, text string) {
			mu.Lock()
			handled = append(handled, recordedUtterance{identity, text})
			mu.Unlock()
		},
		SilenceThreshold: 2 * time.Second,
		MaxTotalTime:     30 * time.Second,
	})

	runPipeline(t, p)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []recordedUtterance{
		{"piper", "hey piper"},
		{"piper", "what time is it"},
		{"piper", "random background chatter"},
	}, handled, "every utterance inside the session reaches the handler")
}

func TestPipeline_IgnoresUtterancesOutsideSession(t *testing.T) {
	listener := &scriptedListener{replies: []string{"what time is it"}}

	var mu sync.Mutex
	var handled []recordedUtterance
	p := NewPipeline(PipelineConfig{
		Listener: listener,
		Sessions: newTestSessions(),
		Handler: func(_ context.Context, identity, text string) {
			mu.Lock()
			handled = append(handled, recordedUtterance{identity, text})
			mu.Unlock()
		},
	})

	runPipeline(t, p)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, handled)
}

func TestPipeline_PublishesFinalizedUtterances(t *testing.T) {
	listener := &scriptedListener{replies: []string{"hey piper"}}
	bus := eventbus.New()

	var mu sync.Mutex
	var published []recordedUtterance
	require.NoError(t, bus.Subscribe(eventbus.TopicUtteranceFinalized, func(identity, text string) {
		mu.Lock()
		published = append(published, recordedUtterance{identity, text})
		mu.Unlock()
	}))

	p := NewPipeline(PipelineConfig{
		Listener: listener,
		Sessions: newTestSessions(),
		Bus:      bus,
	})

	runPipeline(t, p)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []recordedUtterance{{"piper", "hey piper"}}, published)
}

func TestPipeline_AudioErrorEndsRun(t *testing.T) {
	hard := errors.New(errors.KindAudio, "test", "source gone")
	listener := &scriptedListener{
		replies: []string{""},
		errs:    map[int]error{0: hard},
	}
	p := NewPipeline(PipelineConfig{
		Listener: listener,
		Sessions: newTestSessions(),
	})

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindAudio))
}

func TestPipeline_TranscribeErrorKeepsRunning(t *testing.T) {
	soft := errors.New(errors.KindTranscribe, "test", "degraded")
	listener := &scriptedListener{
		replies: []string{"", "hey piper"},
		errs:    map[int]error{0: soft},
	}
	bus := eventbus.New()

	heard := make(chan string, 1)
	require.NoError(t, bus.Subscribe(eventbus.TopicUtteranceFinalized, func(_, text string) {
		heard <- text
	}))

	p := NewPipeline(PipelineConfig{
		Listener: listener,
		Sessions: newTestSessions(),
		Bus:      bus,
	})

	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { done <- p.Run(ctx) }()

	select {
	case text := <-heard:
		assert.Equal(t, "hey piper", text)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not survive a transcription error")
	}

	cancel()
	assert.NoError(t, <-done)
}

type speakingFlag struct {
	mu sync.Mutex
	v  bool
}

func (s *speakingFlag) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}

func (s *speakingFlag) set(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
}

func TestPipeline_WaitsInsteadOfListeningWhileSpeaking(t *testing.T) {
	speaking := &speakingFlag{v: true}
	listener := &scriptedListener{replies: []string{"hey piper"}}
	p := NewPipeline(PipelineConfig{
		Listener: listener,
		Sessions: newTestSessions(),
		Speaking: speaking,
		IdleWait: 5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// While the assistant speaks the loop must wait, not re-invoke Listen.
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, listener.calls(), "no listen calls during playback")

	speaking.set(false)
	require.Eventually(t, func() bool {
		return listener.calls() > 0
	}, 2*time.Second, 5*time.Millisecond, "capture resumes once playback ends")

	cancel()
	assert.NoError(t, <-done)
}

type stubMonitor struct {
	ran chan struct{}
}

func (m *stubMonitor) Run(ctx context.Context) error {
	close(m.ran)
	<-ctx.Done()
	return ctx.Err()
}

func TestPipeline_RunsMonitorAlongsideCapture(t *testing.T) {
	monitor := &stubMonitor{ran: make(chan struct{})}
	p := NewPipeline(PipelineConfig{
		Listener: &scriptedListener{},
		Sessions: newTestSessions(),
		Monitor:  monitor,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	select {
	case <-monitor.ran:
	default:
		t.Fatal("monitor never started")
	}
}

func TestBusSessionEvents_Republish(t *testing.T) {
	bus := eventbus.New()
	opened := make(chan string, 1)
	require.NoError(t, bus.Subscribe(eventbus.TopicSessionOpened, func(identity, _ string) {
		opened <- identity
	}))

	BusSessionEvents{Bus: bus}.SessionOpened("piper", "abc")
	assert.Equal(t, "piper", <-opened)
}
