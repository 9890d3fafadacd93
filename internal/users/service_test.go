package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/internal/authz"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	"github.com/serialguard/serialguard-backend/pkg/enums"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	Repository

	users   map[uuid.UUID]*models.User
	updates map[uuid.UUID]map[string]any
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		users:   map[uuid.UUID]*models.User{},
		updates: map[uuid.UUID]map[string]any{},
	}
}

func (s *stubUserRepo) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *stubUserRepo) UpdateRole(_ context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates[id] = updates
	return nil
}

func fullAdmin() authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin, AdminTier: enums.AdminTierFull}
}

func limitedAdmin() authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin, AdminTier: enums.AdminTierLimited}
}

func newUserService(t *testing.T, repo *stubUserRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestSetRoleRequiresFullTier(t *testing.T) {
	repo := newStubUserRepo()
	target := &models.User{ID: uuid.New(), Role: enums.UserRoleUser}
	repo.users[target.ID] = target
	svc := newUserService(t, repo)

	_, err := svc.SetRole(context.Background(), SetRoleInput{
		Actor:  limitedAdmin(),
		UserID: target.ID,
		Role:   enums.UserRoleShopkeeper,
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeForbidden {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeForbidden)
	}
}

func TestSetRolePromoteToAdminDefaultsTier(t *testing.T) {
	repo := newStubUserRepo()
	target := &models.User{ID: uuid.New(), Role: enums.UserRoleUser}
	repo.users[target.ID] = target
	svc := newUserService(t, repo)

	user, err := svc.SetRole(context.Background(), SetRoleInput{
		Actor:  fullAdmin(),
		UserID: target.ID,
		Role:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if user.AdminTier == nil || *user.AdminTier != enums.AdminTierLimited {
		t.Fatalf("tier = %v, want default limited", user.AdminTier)
	}
	if repo.updates[target.ID]["admin_tier"] != enums.AdminTierLimited {
		t.Fatalf("persisted updates = %v", repo.updates[target.ID])
	}
}

func TestSetRoleDemoteClearsTier(t *testing.T) {
	repo := newStubUserRepo()
	tier := enums.AdminTierFull
	target := &models.User{ID: uuid.New(), Role: enums.UserRoleAdmin, AdminTier: &tier}
	repo.users[target.ID] = target
	svc := newUserService(t, repo)

	user, err := svc.SetRole(context.Background(), SetRoleInput{
		Actor:  fullAdmin(),
		UserID: target.ID,
		Role:   enums.UserRoleUser,
	})
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if user.AdminTier != nil {
		t.Fatal("tier not cleared on demotion")
	}
	if repo.updates[target.ID]["admin_tier"] != nil {
		t.Fatalf("persisted tier = %v", repo.updates[target.ID]["admin_tier"])
	}
}

func TestSetRoleRejectsSelfDemotion(t *testing.T) {
	repo := newStubUserRepo()
	actor := fullAdmin()
	tier := enums.AdminTierFull
	repo.users[actor.UserID] = &models.User{ID: actor.UserID, Role: enums.UserRoleAdmin, AdminTier: &tier}
	svc := newUserService(t, repo)

	_, err := svc.SetRole(context.Background(), SetRoleInput{
		Actor:  actor,
		UserID: actor.UserID,
		Role:   enums.UserRoleUser,
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeValidation)
	}
}

func TestSetRoleRejectsTierForNonAdmin(t *testing.T) {
	repo := newStubUserRepo()
	target := &models.User{ID: uuid.New(), Role: enums.UserRoleUser}
	repo.users[target.ID] = target
	svc := newUserService(t, repo)

	tier := enums.AdminTierFull
	_, err := svc.SetRole(context.Background(), SetRoleInput{
		Actor:     fullAdmin(),
		UserID:    target.ID,
		Role:      enums.UserRoleShopkeeper,
		AdminTier: &tier,
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeValidation)
	}
}

func TestApproveShopkeeper(t *testing.T) {
	repo := newStubUserRepo()
	target := &models.User{ID: uuid.New(), Role: enums.UserRoleShopkeeper}
	repo.users[target.ID] = target
	svc := newUserService(t, repo)

	user, err := svc.ApproveShopkeeper(context.Background(), fullAdmin(), target.ID)
	if err != nil {
		t.Fatalf("ApproveShopkeeper: %v", err)
	}
	if !user.ShopkeeperApproved {
		t.Fatal("approval not applied")
	}
	if repo.updates[target.ID]["shopkeeper_approved"] != true {
		t.Fatalf("persisted updates = %v", repo.updates[target.ID])
	}
}

func TestApproveShopkeeperAllowsLimitedTier(t *testing.T) {
	repo := newStubUserRepo()
	target := &models.User{ID: uuid.New(), Role: enums.UserRoleShopkeeper}
	repo.users[target.ID] = target
	svc := newUserService(t, repo)

	user, err := svc.ApproveShopkeeper(context.Background(), limitedAdmin(), target.ID)
	if err != nil {
		t.Fatalf("ApproveShopkeeper: %v", err)
	}
	if !user.ShopkeeperApproved {
		t.Fatal("approval not applied")
	}
	if repo.updates[target.ID]["shopkeeper_approved"] != true {
		t.Fatalf("persisted updates = %v", repo.updates[target.ID])
	}
}

func TestApproveShopkeeperRejectsNonAdmin(t *testing.T) {
	repo := newStubUserRepo()
	target := &models.User{ID: uuid.New(), Role: enums.UserRoleShopkeeper}
	repo.users[target.ID] = target
	svc := newUserService(t, repo)

	actor := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleShopkeeper}
	_, err := svc.ApproveShopkeeper(context.Background(), actor, target.ID)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeForbidden {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeForbidden)
	}
}

func TestApproveShopkeeperIsIdempotent(t *testing.T) {
	repo := newStubUserRepo()
	target := &models.User{ID: uuid.New(), Role: enums.UserRoleShopkeeper, ShopkeeperApproved: true}
	repo.users[target.ID] = target
	svc := newUserService(t, repo)

	user, err := svc.ApproveShopkeeper(context.Background(), fullAdmin(), target.ID)
	if err != nil {
		t.Fatalf("ApproveShopkeeper: %v", err)
	}
	if !user.ShopkeeperApproved {
		t.Fatal("approval lost")
	}
	if _, wrote := repo.updates[target.ID]; wrote {
		t.Fatal("idempotent approval still wrote an update")
	}
}

func TestApproveShopkeeperRejectsOtherRoles(t *testing.T) {
	repo := newStubUserRepo()
	target := &models.User{ID: uuid.New(), Role: enums.UserRoleUser}
	repo.users[target.ID] = target
	svc := newUserService(t, repo)

	_, err := svc.ApproveShopkeeper(context.Background(), fullAdmin(), target.ID)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeValidation)
	}
}

func TestGetRestrictedToSelfOrAdmin(t *testing.T) {
	repo := newStubUserRepo()
	target := &models.User{ID: uuid.New(), Role: enums.UserRoleUser}
	repo.users[target.ID] = target
	svc := newUserService(t, repo)

	self := authz.Actor{UserID: target.ID, Role: enums.UserRoleUser}
	if _, err := svc.Get(context.Background(), self, target.ID); err != nil {
		t.Fatalf("self lookup denied: %v", err)
	}

	stranger := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	if _, err := svc.Get(context.Background(), stranger, target.ID); pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatal("stranger allowed to read account")
	}

	if _, err := svc.Get(context.Background(), limitedAdmin(), target.ID); err != nil {
		t.Fatalf("admin lookup denied: %v", err)
	}
}
