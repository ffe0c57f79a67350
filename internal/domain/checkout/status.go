package checkout

// Status represents the reconciliation state of a checkout session
type Status string

const (
	StatusOpen      Status = "OPEN"      // Remaining > 0, accepting entries
	StatusSettled   Status = "SETTLED"   // Remaining == 0, removal still allowed
	StatusConfirmed Status = "CONFIRMED" // Terminal, entries handed off
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusSettled, StatusConfirmed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if no further mutation is allowed
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed
}

// CanAdmit returns true if new payment entries may be admitted
func (s Status) CanAdmit() bool {
	return s == StatusOpen
}

// CanRemove returns true if entries may be removed
func (s Status) CanRemove() bool {
	return s == StatusOpen || s == StatusSettled
}

// CanConfirm returns true if the session can be confirmed
func (s Status) CanConfirm() bool {
	return s == StatusSettled
}
