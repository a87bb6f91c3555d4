package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	TicketIDPrefix    = "TCKT"
	TicketStatusOpen  = "open"
	TicketSummaryMax  = 80
	ticketNumberWidth = 4
)

type Ticket struct {
	ID          string
	OpenedDate  time.Time
	LocationID  string
	Category    string
	Severity    string
	Summary     string
	Status      string
	Channel     string
	Description string
}

// FormatTicketID renders n with the fixed zero-padded width.
func FormatTicketID(n int) string {
	return fmt.Sprintf("%s%0*d", TicketIDPrefix, ticketNumberWidth, n)
}

// TicketNumber extracts the numeric suffix of a ticket id.
func TicketNumber(id string) (int, bool) {
	if !strings.HasPrefix(id, TicketIDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(id[len(TicketIDPrefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Summarize truncates description to TicketSummaryMax characters.
func Summarize(description string) string {
	runes := []rune(description)
	if len(runes) <= TicketSummaryMax {
		return description
	}
	return string(runes[:TicketSummaryMax])
}
