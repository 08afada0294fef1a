package entity

import "errors"

// ErrBookingConflict is returned by booking persistence when the requested
// slot overlaps a blocking booking. It is an expected outcome, not an
// infrastructure failure.
var ErrBookingConflict = errors.New("booking slot conflict")

// ErrNotFound is the storage-level miss repositories translate lookups to.
var ErrNotFound = errors.New("record not found")

// ErrActiveDealExists reports the unique active-deal-per-lead slot: an
// insert lost the race against another non-refunded deal for the lead.
var ErrActiveDealExists = errors.New("lead already has an active deal")

// ErrActiveProposalExists is the proposal counterpart, one SENT/VIEWED
// proposal per lead.
var ErrActiveProposalExists = errors.New("lead already has an active proposal")
