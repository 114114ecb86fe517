package service

import (
	"bible-chat/backend/internal/auth"
)

// Logical model ids accepted from clients.
const (
	ModelChat      = "chat-model"
	ModelReasoning = "chat-model-reasoning"
)

// ModelCatalog maps logical model ids to provider model names.
type ModelCatalog struct {
	Chat      string
	Reasoning string
	Title     string
}

// Resolve returns the provider model for a logical id.
func (c ModelCatalog) Resolve(id string) (string, bool) {
	switch id {
	case ModelChat:
		return c.Chat, true
	case ModelReasoning:
		return c.Reasoning, true
	}
	return "", false
}

// Entitlement is what a user type is allowed to do.
type Entitlement struct {
	MaxMessagesPerDay int
}

// Entitlements holds the entitlement of every user type.
type Entitlements map[auth.UserType]Entitlement

// DefaultEntitlements returns the stock limits.
func DefaultEntitlements() Entitlements {
	return Entitlements{
		auth.UserTypeGuest:   {MaxMessagesPerDay: 20},
		auth.UserTypeRegular: {MaxMessagesPerDay: 100},
	}
}

// For returns the entitlement of t, falling back to the guest entitlement.
func (e Entitlements) For(t auth.UserType) Entitlement {
	if ent, ok := e[t]; ok {
		return ent
	}
	return e[auth.UserTypeGuest]
}
