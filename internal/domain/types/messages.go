package types

import (
	"fmt"
	"strings"
	"time"
)

// Envelope is the opaque unit the relay stores and the push channel delivers.
type Envelope struct {
	ID        string `json:"id"`
	Topic     Topic  `json:"topic"`
	From      Handle `json:"from"`
	To        Handle `json:"to"`
	Payload   []byte `json:"payload"`
	Timestamp int64  `json:"timestamp"`
}

// MessageKind discriminates Message payloads.
type MessageKind string

const (
	KindMessage             MessageKind = "message"
	KindDelivered           MessageKind = "delivered"
	KindUnschedule          MessageKind = "unschedule"
	KindEnableSMSActivation MessageKind = "enable_sms_activation"
)

// Message is the content carried by a MessageInst.
type Message struct {
	Kind            MessageKind `json:"kind"`
	Text            string      `json:"text,omitempty"`
	ScheduledMillis int64       `json:"scheduled_ms,omitempty"`
	Enabled         bool        `json:"enabled,omitempty"`
}

// Conversation addresses a MessageInst. An empty participant list means an
// account-level control message.
type Conversation struct {
	Participants []Handle `json:"participants"`
	Name         string   `json:"name,omitempty"`
	SenderGUID   string   `json:"sender_guid,omitempty"`
	AfterGUID    string   `json:"after_guid,omitempty"`
}

// MessageInst is a decoded inbound message or an outbound message to send.
type MessageInst struct {
	ID            string        `json:"id"`
	Sender        Handle        `json:"sender"`
	Conversation  *Conversation `json:"conversation,omitempty"`
	Message       Message       `json:"message"`
	Target        []string      `json:"target,omitempty"`
	SendDelivered bool          `json:"-"`
	SentMillis    int64         `json:"sent_ms,omitempty"`
}

// NewMessageInst builds an outbound message from sender within conv.
func NewMessageInst(conv Conversation, sender Handle, msg Message) MessageInst {
	return MessageInst{Sender: sender, Conversation: &conv, Message: msg}
}

// HasPayload reports whether the message carries user-visible content.
func (m MessageInst) HasPayload() bool {
	return m.Message.Kind == KindMessage && m.Message.Text != ""
}

// String renders the message for the interactive console.
func (m MessageInst) String() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(m.Sender.String())
	if m.Conversation != nil && m.Conversation.Name != "" {
		b.WriteString(" in ")
		b.WriteString(m.Conversation.Name)
	}
	b.WriteString("] ")
	switch m.Message.Kind {
	case KindMessage:
		b.WriteString(m.Message.Text)
		if m.Message.ScheduledMillis > 0 {
			fmt.Fprintf(&b, " (scheduled for %s)", time.UnixMilli(m.Message.ScheduledMillis).Format(time.RFC3339))
		}
	default:
		b.WriteString(string(m.Message.Kind))
	}
	return b.String()
}

// Position is the last known location of a handle.
type Position struct {
	Handle    Handle  `json:"handle"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// RegistrationBundle is what a user publishes to the relay for one push token.
type RegistrationBundle struct {
	UserID     string        `json:"user_id"`
	Handles    []Handle      `json:"handles"`
	Services   []string      `json:"services"`
	PushToken  string        `json:"push_token"`
	SigningKey Ed25519Public `json:"signing_key"`
	DeviceKey  X25519Public  `json:"device_key"`
	Signature  []byte        `json:"signature"`
}

// SignedBytes returns the canonical bytes covered by Signature.
func (b RegistrationBundle) SignedBytes() []byte {
	var sb strings.Builder
	sb.WriteString(b.UserID)
	sb.WriteByte('\n')
	for _, h := range b.Handles {
		sb.WriteString(h.String())
		sb.WriteByte(',')
	}
	sb.WriteByte('\n')
	sb.WriteString(strings.Join(b.Services, ","))
	sb.WriteByte('\n')
	sb.WriteString(b.PushToken)
	sb.WriteByte('\n')
	sb.Write(b.DeviceKey[:])
	return []byte(sb.String())
}
