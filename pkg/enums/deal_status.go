package enums

import "fmt"

// DealStatus represents the lifecycle state of a sale deal. A deal is decided
// exactly once: both APPROVED and REJECTED are terminal.
type DealStatus string

const (
	DealStatusPending  DealStatus = "pending"
	DealStatusApproved DealStatus = "approved"
	DealStatusRejected DealStatus = "rejected"
)

var validDealStatuses = []DealStatus{
	DealStatusPending,
	DealStatusApproved,
	DealStatusRejected,
}

// String implements fmt.Stringer.
func (s DealStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DealStatus.
func (s DealStatus) IsValid() bool {
	for _, candidate := range validDealStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the deal has been decided.
func (s DealStatus) IsTerminal() bool {
	return s == DealStatusApproved || s == DealStatusRejected
}

// ParseDealStatus converts raw input into a DealStatus.
func ParseDealStatus(value string) (DealStatus, error) {
	for _, candidate := range validDealStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deal status %q", value)
}
