package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/pkg/enums"
)

func TestCanChangeStatus(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()

	if !CanChangeStatus(Actor{UserID: owner, Role: enums.UserRoleUser}, owner) {
		t.Fatal("owner denied")
	}
	if CanChangeStatus(Actor{UserID: stranger, Role: enums.UserRoleUser}, owner) {
		t.Fatal("stranger allowed")
	}
	if !CanChangeStatus(Actor{UserID: stranger, Role: enums.UserRoleAdmin}, owner) {
		t.Fatal("admin denied")
	}
	if CanChangeStatus(Actor{}, uuid.Nil) {
		t.Fatal("anonymous actor allowed against nil owner")
	}
}

func TestCanDecideDealBothTiers(t *testing.T) {
	if !CanDecideDeal(Actor{Role: enums.UserRoleAdmin, AdminTier: enums.AdminTierLimited}) {
		t.Fatal("limited admin denied")
	}
	if !CanDecideDeal(Actor{Role: enums.UserRoleAdmin, AdminTier: enums.AdminTierFull}) {
		t.Fatal("full admin denied")
	}
	if CanDecideDeal(Actor{Role: enums.UserRoleShopkeeper}) {
		t.Fatal("shopkeeper allowed")
	}
}

func TestCanViewDeal(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	outsider := uuid.New()

	if !CanViewDeal(Actor{UserID: buyer, Role: enums.UserRoleUser}, buyer, &seller) {
		t.Fatal("buyer denied")
	}
	if !CanViewDeal(Actor{UserID: seller, Role: enums.UserRoleUser}, buyer, &seller) {
		t.Fatal("seller denied")
	}
	if CanViewDeal(Actor{UserID: outsider, Role: enums.UserRoleUser}, buyer, &seller) {
		t.Fatal("outsider allowed")
	}
	if CanViewDeal(Actor{UserID: outsider, Role: enums.UserRoleUser}, buyer, nil) {
		t.Fatal("outsider allowed on off-platform deal")
	}
	if !CanViewDeal(Actor{UserID: outsider, Role: enums.UserRoleAdmin}, buyer, &seller) {
		t.Fatal("admin denied")
	}
}

func TestCanManageRolesRequiresFullTier(t *testing.T) {
	if CanManageRoles(Actor{Role: enums.UserRoleAdmin, AdminTier: enums.AdminTierLimited}) {
		t.Fatal("limited admin allowed to manage roles")
	}
	if !CanManageRoles(Actor{Role: enums.UserRoleAdmin, AdminTier: enums.AdminTierFull}) {
		t.Fatal("full admin denied")
	}
	if CanManageRoles(Actor{Role: enums.UserRoleUser, AdminTier: enums.AdminTierFull}) {
		t.Fatal("non-admin with tier allowed")
	}
}

func TestCanViewFullHistory(t *testing.T) {
	owner := uuid.New()
	previous := uuid.New()

	if !CanViewFullHistory(Actor{UserID: owner, Role: enums.UserRoleUser}, owner) {
		t.Fatal("owner denied")
	}
	if CanViewFullHistory(Actor{UserID: previous, Role: enums.UserRoleUser}, owner) {
		t.Fatal("previous owner granted full history")
	}
	if !CanViewFullHistory(Actor{UserID: previous, Role: enums.UserRoleAdmin}, owner) {
		t.Fatal("admin denied")
	}
}
