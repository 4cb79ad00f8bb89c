package domain

import "time"

// Item is one audited stock-keeping unit within an audit, comparing the system-recorded
// quantity with the physically counted one. Quantities are nil when absent.
type Item struct {
	ID          int64
	AuditID     int64
	Code        string
	Name        string
	SystemQty   *int64
	PhysicalQty *int64
	Status      string
}

// SearchFilter holds the optional conditions of an item search. Zero values mean "not supplied";
// every supplied condition must hold.
type SearchFilter struct {
	// Query matches code or name, case-insensitive substring.
	Query string
	// Status matches status, case-insensitive substring.
	Status string
	// LabID matches the owning audit's lab exactly.
	LabID *int64
	// DateFrom and DateTo bound the audit date, both inclusive.
	DateFrom *time.Time
	DateTo   *time.Time
	// Limit caps the number of rows returned; must be positive.
	Limit int
}

// SearchRow is an item joined with its audit date and lab.
type SearchRow struct {
	Item
	LabID     int64
	LabName   string
	AuditDate time.Time
}
