package protocol

import "github.com/dkeye/RemoteDesk/internal/domain"

type SessionCreated struct {
	SessionID domain.SessionID `json:"session_id"`
	Password  *string          `json:"password"`
}

type JoinResponse struct {
	Success   bool             `json:"success"`
	SessionID domain.SessionID `json:"session_id,omitempty"`
	Error     string           `json:"error,omitempty"`
	Rejected  bool             `json:"rejected,omitempty"`
	Message   string           `json:"message,omitempty"`
}

type PasswordUpdated struct {
	Success  bool    `json:"success"`
	Password *string `json:"password,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type ClientDisconnected struct {
	ClientID  domain.ConnID    `json:"client_id"`
	SessionID domain.SessionID `json:"session_id,omitempty"`
	Kicked    bool             `json:"kicked,omitempty"`
}

type RequestPending struct {
	PendingID  domain.PendingID  `json:"pending_id"`
	SessionID  domain.SessionID  `json:"session_id"`
	ClientID   domain.ConnID     `json:"client_id"`
	ClientInfo map[string]string `json:"client_info"`
	Message    string            `json:"message"`
}

type RequestSent struct {
	PendingID domain.PendingID `json:"pending_id"`
	SessionID domain.SessionID `json:"session_id"`
	Message   string           `json:"message"`
}

type ClientConnected struct {
	ClientID  domain.ConnID    `json:"client_id"`
	SessionID domain.SessionID `json:"session_id"`
	Message   string           `json:"message"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type SharingStarted struct {
	Quality string `json:"quality"`
	FPS     int    `json:"fps"`
}

type QualityChanged struct {
	Quality string `json:"quality"`
}

type InputAck struct {
	Success bool        `json:"success"`
	Event   MessageType `json:"event"`
	Error   string      `json:"error,omitempty"`
}

// Frame is the screen_frame payload.
type Frame struct {
	Frame              string  `json:"frame"`
	ActualScreenWidth  int     `json:"actual_screen_width"`
	ActualScreenHeight int     `json:"actual_screen_height"`
	CanvasWidth        int     `json:"canvas_width"`
	CanvasHeight       int     `json:"canvas_height"`
	ScaleFactor        float64 `json:"scale_factor"`
}
