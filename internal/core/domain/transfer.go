package domain

import "time"

type TransferStatus string

const (
	TransferStatusPending       TransferStatus = "pending"
	InboundStatusInboundPending TransferStatus = "inbound_pending"
)

// Transfer is recorded intent only; neither location's inventory changes.
type Transfer struct {
	ID            int64
	FromLocation  string
	ToLocation    string
	SKU           string
	Qty           int
	Status        TransferStatus
	CreatedAt     time.Time
	CreatedByRole Role
}

type InboundExpectation struct {
	ID           int64
	TransferID   int64
	LocationID   string
	SKU          string
	Qty          int
	ExpectedDate time.Time
	Status       TransferStatus
}
