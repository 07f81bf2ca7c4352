package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// controlMessage is the JSON control frame sent to the device.
type controlMessage struct {
	Type  string `json:"type"`
	State string `json:"state,omitempty"`
}

// DevicePlayback steers playback on the remote device over the control
// channel. Writes are serialized; the gorilla connection permits a single
// writer.
type DevicePlayback struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewDevicePlayback wraps an accepted device connection.
func NewDevicePlayback(conn *websocket.Conn) *DevicePlayback {
	return &DevicePlayback{conn: conn}
}

// StopImmediately tells the device to halt audio output mid-stream.
func (p *DevicePlayback) StopImmediately() error {
	return p.send(controlMessage{Type: "playback", State: "stop"})
}

func (p *DevicePlayback) send(msg controlMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, payload)
}
