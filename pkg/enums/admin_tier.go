package enums

import "fmt"

// AdminTier is an admin's privilege level. Only FULL-tier admins may manage
// roles and tiers; deal decisions are open to either tier.
type AdminTier string

const (
	AdminTierLimited AdminTier = "limited"
	AdminTierFull    AdminTier = "full"
)

var validAdminTiers = []AdminTier{
	AdminTierLimited,
	AdminTierFull,
}

// String implements fmt.Stringer.
func (t AdminTier) String() string {
	return string(t)
}

// IsValid reports whether the value is a known AdminTier.
func (t AdminTier) IsValid() bool {
	for _, candidate := range validAdminTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseAdminTier converts raw input into an AdminTier.
func ParseAdminTier(value string) (AdminTier, error) {
	for _, candidate := range validAdminTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid admin tier %q", value)
}
