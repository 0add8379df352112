package ws

// Frame types a device may send on its live reading channel.
const (
	FrameStart     = "start"
	FrameHeartbeat = "heartbeat"
	FramePause     = "pause"
	FrameResume    = "resume"
	FrameEnd       = "end"
	FramePing      = "ping"
)

// ClientFrame is the envelope for all inbound frames. Only the fields
// relevant to Type are set.
type ClientFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`

	// start
	BookKind      string `json:"book_kind,omitempty"`
	BookID        uint   `json:"book_id,omitempty"`
	StartPosition string `json:"start_position,omitempty"`

	// heartbeat
	Seq          uint64 `json:"seq,omitempty"`
	Position     string `json:"position,omitempty"`
	DeltaSeconds int64  `json:"delta_seconds,omitempty"`

	// end
	EndPosition string `json:"end_position,omitempty"`
}

// ServerFrame is the ack/error envelope written back to the device.
type ServerFrame struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Error     string      `json:"error,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}
