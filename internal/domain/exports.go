package domain

import (
	interfaces "pushchat/internal/domain/interfaces"
	types "pushchat/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Handle             = types.Handle
	Fingerprint        = types.Fingerprint
	Topic              = types.Topic
	X25519Public       = types.X25519Public
	X25519Private      = types.X25519Private
	Ed25519Public      = types.Ed25519Public
	Ed25519Private     = types.Ed25519Private
	DeviceIdentity     = types.DeviceIdentity
	Registration       = types.Registration
	UserIdentity       = types.UserIdentity
	PushState          = types.PushState
	SessionState       = types.SessionState
	Envelope           = types.Envelope
	MessageKind        = types.MessageKind
	Message            = types.Message
	Conversation       = types.Conversation
	MessageInst        = types.MessageInst
	Position           = types.Position
	RegistrationBundle = types.RegistrationBundle
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	RelayClient      = interfaces.RelayClient
	StateSink        = interfaces.StateSink
	Subscription     = interfaces.Subscription
	MessageClient    = interfaces.MessageClient
	LocationService  = interfaces.LocationService
	RotationListener = interfaces.RotationListener
	IdentityService  = interfaces.IdentityService
	Registrar        = interfaces.Registrar
)

const (
	TopicMessages = types.TopicMessages
	TopicLocation = types.TopicLocation

	ServiceMessages = types.ServiceMessages
	ServiceLocation = types.ServiceLocation

	KindMessage             = types.KindMessage
	KindDelivered           = types.KindDelivered
	KindUnschedule          = types.KindUnschedule
	KindEnableSMSActivation = types.KindEnableSMSActivation
)

// DefaultServices lists the relay services every user registers for.
var DefaultServices = types.DefaultServices

// NewMessageInst builds an outbound message; see types.NewMessageInst.
func NewMessageInst(conv Conversation, sender Handle, msg Message) MessageInst {
	return types.NewMessageInst(conv, sender, msg)
}

// CloneUsers deep-copies a user list.
func CloneUsers(users []UserIdentity) []UserIdentity { return types.CloneUsers(users) }
