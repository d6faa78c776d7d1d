package websocket

import "github.com/vssut/academia-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action of a monitor client message.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventSnapshot Event = "snapshot"
	EventAttempt  Event = "attempt"
	EventPong     Event = "pong"
)

// SnapshotMessage is the first message a monitor receives: the ledger as it
// stood when the stream was attached.
type SnapshotMessage struct {
	Event    Event               `json:"event"`
	ExamID   string              `json:"exam_id"`
	Attempts []model.ExamAttempt `json:"attempts"`
}

// AttemptMessage forwards a single ledger transition.
type AttemptMessage struct {
	Event   Event              `json:"event"`
	Payload model.AttemptEvent `json:"payload"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
