package domain

import "time"

type AuditEntry struct {
	ID        int64
	Action    ActionKind
	Role      Role
	Payload   string // canonical JSON snapshot
	CreatedAt time.Time
}
