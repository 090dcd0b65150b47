// Package protocol defines the JSON envelope exchanged with hosts and clients
// and decodes inbound envelopes into a closed set of variants.
package protocol

import (
	"encoding/json"

	"github.com/dkeye/RemoteDesk/internal/domain"
)

// MessageType is the envelope discriminator.
type MessageType string

const (
	// Inbound (host/client -> broker)
	TypeOffer                    MessageType = "offer"
	TypeAnswer                   MessageType = "answer"
	TypeICECandidate             MessageType = "ice_candidate"
	TypeScreenShare              MessageType = "screen_share"
	TypeMouseEvent               MessageType = "mouse_event"
	TypeKeyboardEvent            MessageType = "keyboard_event"
	TypeConnectionRequest        MessageType = "connection_request"
	TypeConnectionResponse       MessageType = "connection_response"
	TypeQualityChange            MessageType = "quality_change"
	TypeConnectionRequestPending MessageType = "connection_request_pending"
	TypeConnectionApprove        MessageType = "connection_approve"
	TypeConnectionReject         MessageType = "connection_reject"

	// Outbound only (broker -> host/client)
	TypeSessionCreated           MessageType = "session_created"
	TypeSessionJoinResponse      MessageType = "session_join_response"
	TypePasswordUpdated          MessageType = "password_updated"
	TypeClientDisconnected       MessageType = "client_disconnected"
	TypeConnectionRequestSent    MessageType = "connection_request_sent"
	TypeConnectionApprovalFailed MessageType = "connection_approval_failed"
	TypeClientConnected          MessageType = "client_connected"
	TypeSharingStarted           MessageType = "sharing_started"
	TypeSharingStopped           MessageType = "sharing_stopped"
	TypeSharingError             MessageType = "sharing_error"
	TypeQualityChanged           MessageType = "quality_changed"
	TypeScreenFrame              MessageType = "screen_frame"
	TypeInputAck                 MessageType = "input_ack"
)

var inboundTypes = map[MessageType]struct{}{
	TypeOffer:                    {},
	TypeAnswer:                   {},
	TypeICECandidate:             {},
	TypeScreenShare:              {},
	TypeMouseEvent:               {},
	TypeKeyboardEvent:            {},
	TypeConnectionRequest:        {},
	TypeConnectionResponse:       {},
	TypeQualityChange:            {},
	TypeConnectionRequestPending: {},
	TypeConnectionApprove:        {},
	TypeConnectionReject:         {},
}

// IsInbound reports whether t may be sent by a host or client.
func IsInbound(t MessageType) bool {
	_, ok := inboundTypes[t]
	return ok
}

// Envelope is the wire shape of every message in both directions.
// Data stays raw so relayed payloads are forwarded byte for byte.
type Envelope struct {
	Type     MessageType     `json:"type"`
	Data     json.RawMessage `json:"data"`
	TargetID domain.ConnID   `json:"target_id,omitempty"`
	SourceID domain.ConnID   `json:"source_id,omitempty"`
}

// Message is an outbound envelope with a typed payload.
type Message struct {
	Type     MessageType   `json:"type"`
	Data     any           `json:"data"`
	TargetID domain.ConnID `json:"target_id,omitempty"`
	SourceID domain.ConnID `json:"source_id,omitempty"`
}

// New builds an outbound message. A nil payload is sent as {}.
func New(t MessageType, data any) Message {
	if data == nil {
		data = struct{}{}
	}
	return Message{Type: t, Data: data}
}
