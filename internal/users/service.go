package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/internal/authz"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	"github.com/serialguard/serialguard-backend/pkg/enums"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service defines account administration operations. Role changes are gated
// to FULL-tier admins; shopkeeper approval is open to any admin.
type Service interface {
	Get(ctx context.Context, actor authz.Actor, userID uuid.UUID) (*models.User, error)
	SetRole(ctx context.Context, input SetRoleInput) (*models.User, error)
	ApproveShopkeeper(ctx context.Context, actor authz.Actor, userID uuid.UUID) (*models.User, error)
}

type service struct {
	repo Repository
}

// SetRoleInput carries a role or tier change for a target account.
type SetRoleInput struct {
	Actor     authz.Actor
	UserID    uuid.UUID
	Role      enums.UserRole
	AdminTier *enums.AdminTier
}

// NewService builds the user administration service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, actor authz.Actor, userID uuid.UUID) (*models.User, error) {
	if !actor.IsAdmin() && actor.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account restricted to its owner")
	}
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

// SetRole changes the target's role and, for admins, the tier. Self-demotion
// is rejected so a deployment cannot lock itself out of role management.
func (s *service) SetRole(ctx context.Context, input SetRoleInput) (*models.User, error) {
	if !authz.CanManageRoles(input.Actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "full admin tier required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role").
			WithDetails(map[string]any{"role": string(input.Role)})
	}
	if input.AdminTier != nil && !input.AdminTier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown admin tier").
			WithDetails(map[string]any{"admin_tier": string(*input.AdminTier)})
	}
	if input.AdminTier != nil && input.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin tier only applies to admins")
	}
	if input.Actor.UserID == input.UserID && input.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot demote your own account")
	}

	user, err := s.repo.FindUserByID(ctx, input.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	updates := map[string]any{"role": input.Role}
	if input.Role == enums.UserRoleAdmin {
		tier := enums.AdminTierLimited
		if input.AdminTier != nil {
			tier = *input.AdminTier
		}
		updates["admin_tier"] = tier
		user.AdminTier = &tier
	} else {
		updates["admin_tier"] = nil
		user.AdminTier = nil
	}

	if err := s.repo.UpdateRole(ctx, user.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
	}
	user.Role = input.Role
	return user, nil
}

// ApproveShopkeeper marks a shopkeeper account as approved. Either admin
// tier may approve; approving an already-approved account is a no-op.
func (s *service) ApproveShopkeeper(ctx context.Context, actor authz.Actor, userID uuid.UUID) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.Role != enums.UserRoleShopkeeper {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is not a shopkeeper")
	}
	if user.ShopkeeperApproved {
		return user, nil
	}

	if err := s.repo.UpdateRole(ctx, user.ID, map[string]any{"shopkeeper_approved": true}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve shopkeeper")
	}
	user.ShopkeeperApproved = true
	return user, nil
}
