package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/dkeye/RemoteDesk/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Session actions carried in connection_request.data.action.
const (
	ActionCreateSession = "create_session"
	ActionJoinSession   = "join_session"
	ActionSetPassword   = "set_password"
	ActionDisconnect    = "disconnect"
	ActionKickClient    = "kick_client"

	ShareStart = "start"
	ShareStop  = "stop"
)

// Variant is one decoded inbound message.
type Variant interface{ variant() }

type (
	CreateSession struct {
		Password string
	}
	JoinSession struct {
		SessionID domain.SessionID
		Password  string
		UserAgent string
	}
	SetPassword struct {
		SessionID domain.SessionID
		Password  string
	}
	LeaveSession struct{}
	KickClient   struct {
		SessionID domain.SessionID
	}
	// UnknownAction is kept for forward compatibility and ignored by the router.
	UnknownAction struct {
		Type   MessageType
		Action string
	}

	Approve struct {
		PendingID domain.PendingID
	}
	Reject struct {
		PendingID domain.PendingID
		Reason    string
	}

	StartSharing struct {
		Quality string
	}
	StopSharing   struct{}
	ChangeQuality struct {
		Quality string
	}

	MouseEvent struct {
		X, Y   int
		Button string
		Action string
		DeltaY float64
	}
	KeyEvent struct {
		Key       string
		Action    string
		Modifiers Modifiers
	}

	// Signal is an opaque offer/answer/candidate. Description and Candidate are
	// filled when the payload looks like a WebRTC object; relaying never uses them.
	Signal struct {
		Description *webrtc.SessionDescription
		Candidate   *webrtc.ICECandidateInit
	}

	// Passive types are valid inbound but carry no broker action.
	Passive struct{}
)

type Modifiers struct {
	Ctrl  bool `json:"ctrl"`
	Shift bool `json:"shift"`
	Alt   bool `json:"alt"`
	Meta  bool `json:"meta"`
}

func (CreateSession) variant() {}
func (JoinSession) variant()   {}
func (SetPassword) variant()   {}
func (LeaveSession) variant()  {}
func (KickClient) variant()    {}
func (UnknownAction) variant() {}
func (Approve) variant()       {}
func (Reject) variant()        {}
func (StartSharing) variant()  {}
func (StopSharing) variant()   {}
func (ChangeQuality) variant() {}
func (MouseEvent) variant()    {}
func (KeyEvent) variant()      {}
func (Signal) variant()        {}
func (Passive) variant()       {}

// Inbound is a decoded envelope. Envelope is kept for relaying.
type Inbound struct {
	Envelope Envelope
	Body     Variant
}

// ParseError marks an inbound message the broker cannot accept.
// The transport closes the connection when it sees one.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed message: %s: %v", e.Reason, e.Err)
	}
	return "malformed message: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(reason string, err error) error {
	return &ParseError{Reason: reason, Err: err}
}

// Decode parses one inbound frame into an envelope and its variant.
func Decode(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Inbound{}, parseErr("bad json", err)
	}
	if !IsInbound(env.Type) {
		return Inbound{}, parseErr(fmt.Sprintf("unknown type %q", env.Type), nil)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || data[0] != '{' {
		return Inbound{}, parseErr("data must be an object", nil)
	}

	body, err := decodeBody(env.Type, data)
	if err != nil {
		return Inbound{}, err
	}
	return Inbound{Envelope: env, Body: body}, nil
}

func decodeBody(t MessageType, data json.RawMessage) (Variant, error) {
	switch t {
	case TypeConnectionRequest:
		return decodeSessionAction(data)
	case TypeConnectionApprove:
		var p struct {
			PendingID string `json:"pending_id"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, parseErr("approve payload", err)
		}
		return Approve{PendingID: domain.PendingID(p.PendingID)}, nil
	case TypeConnectionReject:
		var p struct {
			PendingID string `json:"pending_id"`
			Reason    string `json:"reason"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, parseErr("reject payload", err)
		}
		return Reject{PendingID: domain.PendingID(p.PendingID), Reason: p.Reason}, nil
	case TypeScreenShare:
		var p struct {
			Action  string `json:"action"`
			Quality string `json:"quality"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, parseErr("screen_share payload", err)
		}
		switch p.Action {
		case ShareStart:
			return StartSharing{Quality: p.Quality}, nil
		case ShareStop:
			return StopSharing{}, nil
		}
		return UnknownAction{Type: t, Action: p.Action}, nil
	case TypeQualityChange:
		var p struct {
			Quality string `json:"quality"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, parseErr("quality_change payload", err)
		}
		return ChangeQuality{Quality: p.Quality}, nil
	case TypeMouseEvent:
		return decodeMouse(data)
	case TypeKeyboardEvent:
		return decodeKey(data)
	case TypeOffer, TypeAnswer, TypeICECandidate:
		return decodeSignal(t, data), nil
	}
	return Passive{}, nil
}

func decodeSessionAction(data json.RawMessage) (Variant, error) {
	var p struct {
		Action    string `json:"action"`
		SessionID string `json:"session_id"`
		Password  string `json:"password"`
		UserAgent string `json:"user_agent"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, parseErr("connection_request payload", err)
	}
	sid := domain.SessionID(p.SessionID)
	switch p.Action {
	case ActionCreateSession:
		return CreateSession{Password: p.Password}, nil
	case ActionJoinSession:
		return JoinSession{SessionID: sid, Password: p.Password, UserAgent: p.UserAgent}, nil
	case ActionSetPassword:
		return SetPassword{SessionID: sid, Password: p.Password}, nil
	case ActionDisconnect:
		return LeaveSession{}, nil
	case ActionKickClient:
		return KickClient{SessionID: sid}, nil
	}
	return UnknownAction{Type: TypeConnectionRequest, Action: p.Action}, nil
}

func decodeMouse(data json.RawMessage) (Variant, error) {
	var p struct {
		X      *float64 `json:"x"`
		Y      *float64 `json:"y"`
		Button *string  `json:"button"`
		Action *string  `json:"action"`
		DeltaY float64  `json:"deltaY"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, parseErr("mouse_event payload", err)
	}
	if p.X == nil || p.Y == nil || p.Action == nil {
		return nil, parseErr("mouse_event requires x, y and action", nil)
	}
	ev := MouseEvent{
		X:      int(math.Trunc(*p.X)),
		Y:      int(math.Trunc(*p.Y)),
		Action: *p.Action,
		DeltaY: p.DeltaY,
	}
	if p.Button != nil {
		ev.Button = *p.Button
	}
	return ev, nil
}

func decodeKey(data json.RawMessage) (Variant, error) {
	var p struct {
		Key       *string    `json:"key"`
		Action    *string    `json:"action"`
		Modifiers *Modifiers `json:"modifiers"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, parseErr("keyboard_event payload", err)
	}
	if p.Key == nil || p.Action == nil {
		return nil, parseErr("keyboard_event requires key and action", nil)
	}
	ev := KeyEvent{Key: *p.Key, Action: *p.Action}
	if p.Modifiers != nil {
		ev.Modifiers = *p.Modifiers
	}
	return ev, nil
}

// decodeSignal accepts both flat ({"type","sdp"}) and nested ({"sdp":{...}})
// shapes. Anything else is still a valid opaque signal.
func decodeSignal(t MessageType, data json.RawMessage) Signal {
	var s Signal
	switch t {
	case TypeOffer, TypeAnswer:
		var flat webrtc.SessionDescription
		if err := json.Unmarshal(data, &flat); err == nil && flat.SDP != "" {
			s.Description = &flat
			return s
		}
		var nested struct {
			SDP webrtc.SessionDescription `json:"sdp"`
		}
		if err := json.Unmarshal(data, &nested); err == nil && nested.SDP.SDP != "" {
			s.Description = &nested.SDP
		}
	case TypeICECandidate:
		var flat webrtc.ICECandidateInit
		if err := json.Unmarshal(data, &flat); err == nil && flat.Candidate != "" {
			s.Candidate = &flat
			return s
		}
		var nested struct {
			Candidate webrtc.ICECandidateInit `json:"candidate"`
		}
		if err := json.Unmarshal(data, &nested); err == nil && nested.Candidate.Candidate != "" {
			s.Candidate = &nested.Candidate
		}
	}
	return s
}

// MediaSections counts m= lines of a parseable offer/answer, or -1.
func (s Signal) MediaSections() int {
	if s.Description == nil {
		return -1
	}
	parsed, err := s.Description.Unmarshal()
	if err != nil {
		return -1
	}
	return len(parsed.MediaDescriptions)
}
