package domain

import "time"

type ActionKind string

const (
	ActionReserve      ActionKind = "reserve"
	ActionTransfer     ActionKind = "transfer"
	ActionCreateTicket ActionKind = "create_ticket"
)

// ConfirmationToken binds an action kind to one exact canonical payload.
// Once Used is set or ExpiresAt has passed the token is inert.
type ConfirmationToken struct {
	Token     string
	Action    ActionKind
	Payload   string
	ExpiresAt time.Time
	Used      bool
}
