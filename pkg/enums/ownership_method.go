package enums

import "fmt"

// OwnershipMethod records how a party came to hold a product.
type OwnershipMethod string

const (
	OwnershipMethodRegistration OwnershipMethod = "registration"
	OwnershipMethodDealApproved OwnershipMethod = "deal_approved"
)

var validOwnershipMethods = []OwnershipMethod{
	OwnershipMethodRegistration,
	OwnershipMethodDealApproved,
}

// String implements fmt.Stringer.
func (m OwnershipMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known OwnershipMethod.
func (m OwnershipMethod) IsValid() bool {
	for _, candidate := range validOwnershipMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseOwnershipMethod converts raw input into an OwnershipMethod.
func ParseOwnershipMethod(value string) (OwnershipMethod, error) {
	for _, candidate := range validOwnershipMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ownership method %q", value)
}
