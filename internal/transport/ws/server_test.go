package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPipeline struct {
	started chan struct{}
	done    chan struct{}
}

func (p *stubPipeline) Run(ctx context.Context) error {
	close(p.started)
	<-ctx.Done()
	close(p.done)
	return nil
}

func newUpgradeServer(t *testing.T, builder PipelineBuilder) (*Server, *httptest.Server, context.CancelFunc) {
	t.Helper()
	s := NewServer(ServerConfig{Path: "/"}, builder, nil)
	ctx, cancel := context.WithCancel(context.Background())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.handle(ctx, w, req)
	}))
	t.Cleanup(ts.Close)
	return s, ts, cancel
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestHandle_StartsPipelinePerConnection(t *testing.T) {
	pipeline := &stubPipeline{started: make(chan struct{}), done: make(chan struct{})}
	var gotDevice string
	s, ts, cancel := newUpgradeServer(t, func(_ *websocket.Conn, deviceID string) (Runner, error) {
		gotDevice = deviceID
		return pipeline, nil
	})
	defer cancel()

	header := http.Header{"Device-Id": []string{"dev-42"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-pipeline.started:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline never started")
	}
	assert.Equal(t, "dev-42", gotDevice)
	assert.Equal(t, 1, s.Sessions())

	cancel()
	select {
	case <-pipeline.done:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline never stopped on shutdown")
	}
}

func TestHandle_BuilderErrorRejectsConnection(t *testing.T) {
	s, ts, cancel := newUpgradeServer(t, func(*websocket.Conn, string) (Runner, error) {
		return nil, assert.AnError
	})
	defer cancel()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err, "upgrade succeeds before the builder runs")
	defer conn.Close()

	// The server closes the connection; the next read fails.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, s.Sessions())
}

func TestHub_CloseAllCancelsSessions(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	h.register(&session{id: "a", cancel: cancel})

	require.Equal(t, 1, h.Count())
	h.CloseAll()
	assert.Equal(t, 0, h.Count())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
