package authz

import (
	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/pkg/enums"
)

// Actor is the identity a request acts under. It is resolved once by the
// auth middleware and passed explicitly to every service call.
type Actor struct {
	UserID             uuid.UUID
	Role               enums.UserRole
	AdminTier          enums.AdminTier
	ShopkeeperApproved bool
}

// IsAdmin reports whether the actor holds the admin role at any tier.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// IsFullAdmin reports whether the actor is a FULL-tier admin.
func (a Actor) IsFullAdmin() bool {
	return a.Role == enums.UserRoleAdmin && a.AdminTier == enums.AdminTierFull
}

// CanChangeStatus reports whether the actor may move the product through the
// status lattice. Only the current owner or an admin qualifies; which
// transitions are legal is the lattice's concern, not the gate's.
func CanChangeStatus(actor Actor, ownerID uuid.UUID) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.UserID != uuid.Nil && actor.UserID == ownerID
}

// CanDecideDeal reports whether the actor may approve or reject deals.
// Both admin tiers decide deals.
func CanDecideDeal(actor Actor) bool {
	return actor.IsAdmin()
}

// CanViewDeal reports whether the actor may read a deal. Participants and
// admins only.
func CanViewDeal(actor Actor, buyerID uuid.UUID, sellerID *uuid.UUID) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.UserID == uuid.Nil {
		return false
	}
	if actor.UserID == buyerID {
		return true
	}
	return sellerID != nil && actor.UserID == *sellerID
}

// CanViewFullHistory reports whether the actor sees the complete audit trail
// of a product. Current owner and admins see everything; previous owners are
// limited to the rows they appear in.
func CanViewFullHistory(actor Actor, ownerID uuid.UUID) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.UserID != uuid.Nil && actor.UserID == ownerID
}

// CanManageRoles reports whether the actor may change another user's role,
// admin tier, or shopkeeper approval. Restricted to FULL-tier admins.
func CanManageRoles(actor Actor) bool {
	return actor.IsFullAdmin()
}
