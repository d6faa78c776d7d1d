package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/vssut/academia-backend/internal/model"
)

const (
	writeWait = 10 * time.Second
	// PongWait bounds how long a monitor may stay silent before it is dropped.
	PongWait = 60 * time.Second
	// PingPeriod must be shorter than PongWait.
	PingPeriod = (PongWait * 9) / 10
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// WriteSnapshot sends the initial ledger snapshot.
func WriteSnapshot(conn *websocket.Conn, examID string, attempts []model.ExamAttempt) error {
	return WriteTyped(conn, SnapshotMessage{
		Event:    EventSnapshot,
		ExamID:   examID,
		Attempts: attempts,
	})
}

// WriteAttempt forwards one ledger transition.
func WriteAttempt(conn *websocket.Conn, ev model.AttemptEvent) error {
	return WriteTyped(conn, AttemptMessage{Event: EventAttempt, Payload: ev})
}

// WritePing sends a control ping frame.
func WritePing(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline of PongWait.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(PongWait))
	return conn.ReadJSON(v)
}
