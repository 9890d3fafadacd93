package enums

import "fmt"

// ProductStatus represents the theft/tamper state of a registered product.
//
// The status lattice only moves forward: FOR_SALE -> LOCKED -> STOLEN.
// STOLEN is terminal and LOCKED never returns to FOR_SALE.
type ProductStatus string

const (
	ProductStatusForSale ProductStatus = "for_sale"
	ProductStatusLocked  ProductStatus = "locked"
	ProductStatusStolen  ProductStatus = "stolen"
)

var validProductStatuses = []ProductStatus{
	ProductStatusForSale,
	ProductStatusLocked,
	ProductStatusStolen,
}

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the lattice permits moving to the target
// status. The table is identical for every caller; actor privilege never
// widens it.
func (s ProductStatus) CanTransitionTo(target ProductStatus) bool {
	if !target.IsValid() {
		return false
	}
	switch s {
	case ProductStatusForSale:
		return target == ProductStatusLocked || target == ProductStatusStolen
	case ProductStatusLocked:
		return target == ProductStatusStolen
	case ProductStatusStolen:
		return false
	default:
		return false
	}
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}
