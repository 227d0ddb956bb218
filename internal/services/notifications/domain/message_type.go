package domain

import "strings"

const (
	// MessageTypeTurnReady tells a player that a tile was dealt to them.
	MessageTypeTurnReady = "game.turn.ready"
)

// DeliveryPolicy defines the service-owned effective channels for one message type.
type DeliveryPolicy struct {
	Email bool
}

// NormalizeMessageType normalizes a producer-provided message type token.
func NormalizeMessageType(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ResolveDeliveryPolicy returns the effective channel policy for one message type.
func ResolveDeliveryPolicy(messageType string) DeliveryPolicy {
	switch NormalizeMessageType(messageType) {
	case MessageTypeTurnReady:
		return DeliveryPolicy{Email: true}
	default:
		// Everything else stays in the inbox only.
		return DeliveryPolicy{}
	}
}
