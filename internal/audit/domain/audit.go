package domain

import "time"

// Audit is one inventory-count event for a lab. Date is stored in UTC.
type Audit struct {
	ID    int64
	LabID int64
	Date  time.Time
	Notes string
}

// Summary is an audit with its item tallies, as shown on the lab page.
type Summary struct {
	Audit
	ItemCount int
	// Mismatched counts items whose system and physical quantities are both present and differ.
	Mismatched int
}
