package deals

import (
	"time"

	"github.com/serialguard/serialguard-backend/pkg/enums"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
)

// SellerProfile is the slice of the owning user that eligibility cares about.
type SellerProfile struct {
	Role enums.UserRole
}

// SellabilityCheck carries everything needed to decide whether one product
// can enter a deal. It is a pure value; the caller resolves the rows.
type SellabilityCheck struct {
	SerialNumber string
	Status       enums.ProductStatus
	Seller       SellerProfile
	RegisteredAt time.Time
}

// DaysSince counts whole days between registeredAt and now. Partial days
// truncate, so a product registered 71 hours ago has been held for 2 days.
func DaysSince(registeredAt, now time.Time) int {
	return int(now.Sub(registeredAt).Hours() / 24)
}

// CheckSellable validates one product against the eligibility rules:
// the product must be FOR_SALE, and a plain-user seller must have held it for
// at least cooldownDays whole days. The cooldown binds plain users only;
// shopkeepers and admins sell immediately. A nil return means the product
// may be sold.
func CheckSellable(check SellabilityCheck, now time.Time, cooldownDays int) *pkgerrors.Error {
	if check.Status != enums.ProductStatusForSale {
		return pkgerrors.New(pkgerrors.CodeNotEligible, "product is not for sale").
			WithDetails(map[string]any{
				"serial_number": check.SerialNumber,
				"status":        check.Status.String(),
			})
	}

	if sellsImmediately(check.Seller) {
		return nil
	}

	held := DaysSince(check.RegisteredAt, now)
	if held < cooldownDays {
		return pkgerrors.New(pkgerrors.CodeNotEligible, "seller cooldown has not elapsed").
			WithDetails(map[string]any{
				"serial_number": check.SerialNumber,
				"held_days":     held,
				"required_days": cooldownDays,
			})
	}
	return nil
}

func sellsImmediately(seller SellerProfile) bool {
	switch seller.Role {
	case enums.UserRoleAdmin, enums.UserRoleShopkeeper:
		return true
	default:
		return false
	}
}
