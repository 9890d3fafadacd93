package products

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/internal/authz"
	"github.com/serialguard/serialguard-backend/pkg/config"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	"github.com/serialguard/serialguard-backend/pkg/enums"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
	"gorm.io/gorm"
)

type stubRepo struct {
	Repository

	products   map[string]*models.Product
	ownerCount int64

	createErr  error
	updateRows int64
	updateErr  error

	statusLogs []models.ProductStatusLog
	ownerships []models.ProductOwnership
}

func newStubRepo() *stubRepo {
	return &stubRepo{products: map[string]*models.Product{}, updateRows: 1}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) CreateProduct(_ context.Context, product *models.Product) (*models.Product, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	product.ID = uuid.New()
	s.products[product.SerialNumber] = product
	return product, nil
}

func (s *stubRepo) FindBySerial(_ context.Context, serial string) (*models.Product, error) {
	product, ok := s.products[serial]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *product
	return &clone, nil
}

func (s *stubRepo) FindBySerialForUpdate(ctx context.Context, serial string) (*models.Product, error) {
	return s.FindBySerial(ctx, serial)
}

func (s *stubRepo) CountByOwner(_ context.Context, _ uuid.UUID) (int64, error) {
	return s.ownerCount, nil
}

func (s *stubRepo) UpdateStatusGuarded(_ context.Context, productID uuid.UUID, from, to string) (int64, error) {
	if s.updateErr != nil {
		return 0, s.updateErr
	}
	if s.updateRows > 0 {
		for _, product := range s.products {
			if product.ID == productID {
				product.Status = enums.ProductStatus(to)
			}
		}
	}
	return s.updateRows, nil
}

func (s *stubRepo) AppendStatusLog(_ context.Context, entry *models.ProductStatusLog) error {
	s.statusLogs = append(s.statusLogs, *entry)
	return nil
}

func (s *stubRepo) AppendOwnership(_ context.Context, entry *models.ProductOwnership) error {
	s.ownerships = append(s.ownerships, *entry)
	return nil
}

type stubUsers struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUsers) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func testRegistryConfig() config.RegistryConfig {
	return config.RegistryConfig{
		SellerCooldownDays:     3,
		UserProductQuota:       3,
		ShopkeeperProductQuota: 25,
		MaxDealItems:           50,
	}
}

func newTestService(t *testing.T, repo *stubRepo, users *stubUsers) *service {
	t.Helper()
	svc, err := NewService(repo, users, stubTx{}, testRegistryConfig(), nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc.(*service)
}

func seedUser(role enums.UserRole, approved bool) (*stubUsers, *models.User) {
	user := &models.User{
		ID:                 uuid.New(),
		Role:               role,
		ShopkeeperApproved: approved,
		IsActive:           true,
	}
	return &stubUsers{users: map[uuid.UUID]*models.User{user.ID: user}}, user
}

func TestRegisterCreatesProductWithAuditRows(t *testing.T) {
	repo := newStubRepo()
	usersStub, owner := seedUser(enums.UserRoleUser, false)
	svc := newTestService(t, repo, usersStub)

	product, err := svc.Register(context.Background(), RegisterInput{
		Actor:        authz.Actor{UserID: owner.ID, Role: owner.Role},
		SerialNumber: "SN-100",
		Name:         "Camera",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if product.Status != enums.ProductStatusForSale {
		t.Fatalf("status = %s", product.Status)
	}

	if len(repo.statusLogs) != 1 {
		t.Fatalf("status logs = %d", len(repo.statusLogs))
	}
	entry := repo.statusLogs[0]
	if entry.OldStatus != nil {
		t.Fatal("registration log should have nil old status")
	}
	if entry.NewStatus != enums.ProductStatusForSale || entry.Note != "Registered" {
		t.Fatalf("unexpected registration log: %+v", entry)
	}

	if len(repo.ownerships) != 1 {
		t.Fatalf("ownership rows = %d", len(repo.ownerships))
	}
	ownership := repo.ownerships[0]
	if ownership.PreviousOwnerID != nil {
		t.Fatal("registration ownership should have nil previous owner")
	}
	if ownership.NewOwnerID != owner.ID || ownership.Method != enums.OwnershipMethodRegistration {
		t.Fatalf("unexpected ownership row: %+v", ownership)
	}
}

func TestRegisterEnforcesQuota(t *testing.T) {
	repo := newStubRepo()
	repo.ownerCount = 3
	usersStub, owner := seedUser(enums.UserRoleUser, false)
	svc := newTestService(t, repo, usersStub)

	_, err := svc.Register(context.Background(), RegisterInput{
		Actor:        authz.Actor{UserID: owner.ID, Role: owner.Role},
		SerialNumber: "SN-101",
		Name:         "Camera",
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeValidation)
	}
}

func TestRegisterApprovedShopkeeperGetsLargerQuota(t *testing.T) {
	repo := newStubRepo()
	repo.ownerCount = 10
	usersStub, owner := seedUser(enums.UserRoleShopkeeper, true)
	svc := newTestService(t, repo, usersStub)

	if _, err := svc.Register(context.Background(), RegisterInput{
		Actor:        authz.Actor{UserID: owner.ID, Role: owner.Role},
		SerialNumber: "SN-102",
		Name:         "Camera",
	}); err != nil {
		t.Fatalf("approved shopkeeper under quota rejected: %v", err)
	}
}

func TestRegisterDuplicateSerialConflicts(t *testing.T) {
	repo := newStubRepo()
	repo.createErr = errors.New(`duplicate key value violates unique constraint "uq_products_serial_number"`)
	usersStub, owner := seedUser(enums.UserRoleUser, false)
	svc := newTestService(t, repo, usersStub)

	_, err := svc.Register(context.Background(), RegisterInput{
		Actor:        authz.Actor{UserID: owner.ID, Role: owner.Role},
		SerialNumber: "SN-100",
		Name:         "Camera",
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeConflict {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeConflict)
	}
}

func seedProduct(repo *stubRepo, ownerID uuid.UUID, status enums.ProductStatus) *models.Product {
	product := &models.Product{
		ID:           uuid.New(),
		SerialNumber: "SN-200",
		Name:         "Camera",
		Status:       status,
		OwnerID:      ownerID,
		RegisteredAt: time.Now().UTC().AddDate(0, 0, -10),
	}
	repo.products[product.SerialNumber] = product
	return product
}

func TestChangeStatusHappyPath(t *testing.T) {
	repo := newStubRepo()
	usersStub, owner := seedUser(enums.UserRoleUser, false)
	seedProduct(repo, owner.ID, enums.ProductStatusForSale)
	svc := newTestService(t, repo, usersStub)

	updated, err := svc.ChangeStatus(context.Background(), ChangeStatusInput{
		Actor:        authz.Actor{UserID: owner.ID, Role: owner.Role},
		SerialNumber: "SN-200",
		Target:       enums.ProductStatusLocked,
	})
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if updated.Status != enums.ProductStatusLocked {
		t.Fatalf("status = %s", updated.Status)
	}
	if len(repo.statusLogs) != 1 {
		t.Fatalf("status logs = %d", len(repo.statusLogs))
	}
	entry := repo.statusLogs[0]
	if entry.OldStatus == nil || *entry.OldStatus != enums.ProductStatusForSale {
		t.Fatalf("old status = %v", entry.OldStatus)
	}
	if entry.Note != "User changed status" {
		t.Fatalf("note = %q", entry.Note)
	}
}

func TestChangeStatusAdminNote(t *testing.T) {
	repo := newStubRepo()
	usersStub, owner := seedUser(enums.UserRoleUser, false)
	seedProduct(repo, owner.ID, enums.ProductStatusForSale)
	svc := newTestService(t, repo, usersStub)

	admin := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	if _, err := svc.ChangeStatus(context.Background(), ChangeStatusInput{
		Actor:        admin,
		SerialNumber: "SN-200",
		Target:       enums.ProductStatusStolen,
	}); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if repo.statusLogs[0].Note != "Admin changed status" {
		t.Fatalf("note = %q", repo.statusLogs[0].Note)
	}
}

func TestChangeStatusRejectsIllegalTransitions(t *testing.T) {
	cases := []struct {
		name string
		from enums.ProductStatus
		to   enums.ProductStatus
	}{
		{"locked back to for_sale", enums.ProductStatusLocked, enums.ProductStatusForSale},
		{"stolen to locked", enums.ProductStatusStolen, enums.ProductStatusLocked},
		{"stolen to for_sale", enums.ProductStatusStolen, enums.ProductStatusForSale},
		{"self transition", enums.ProductStatusForSale, enums.ProductStatusForSale},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubRepo()
			usersStub, owner := seedUser(enums.UserRoleUser, false)
			seedProduct(repo, owner.ID, tc.from)
			svc := newTestService(t, repo, usersStub)

			_, err := svc.ChangeStatus(context.Background(), ChangeStatusInput{
				Actor:        authz.Actor{UserID: owner.ID, Role: owner.Role},
				SerialNumber: "SN-200",
				Target:       tc.to,
			})
			if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeIllegalTransition {
				t.Fatalf("code = %s, want %s", code, pkgerrors.CodeIllegalTransition)
			}
			if len(repo.statusLogs) != 0 {
				t.Fatal("illegal transition wrote an audit row")
			}
		})
	}
}

func TestChangeStatusForbiddenForNonOwner(t *testing.T) {
	repo := newStubRepo()
	usersStub, owner := seedUser(enums.UserRoleUser, false)
	seedProduct(repo, owner.ID, enums.ProductStatusForSale)
	svc := newTestService(t, repo, usersStub)

	stranger := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	_, err := svc.ChangeStatus(context.Background(), ChangeStatusInput{
		Actor:        stranger,
		SerialNumber: "SN-200",
		Target:       enums.ProductStatusLocked,
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeForbidden {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeForbidden)
	}
}

func TestChangeStatusConcurrentModification(t *testing.T) {
	repo := newStubRepo()
	repo.updateRows = 0
	usersStub, owner := seedUser(enums.UserRoleUser, false)
	seedProduct(repo, owner.ID, enums.ProductStatusForSale)
	svc := newTestService(t, repo, usersStub)

	_, err := svc.ChangeStatus(context.Background(), ChangeStatusInput{
		Actor:        authz.Actor{UserID: owner.ID, Role: owner.Role},
		SerialNumber: "SN-200",
		Target:       enums.ProductStatusLocked,
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeConcurrentModified {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeConcurrentModified)
	}
}

func TestChangeStatusUnknownSerial(t *testing.T) {
	repo := newStubRepo()
	usersStub, owner := seedUser(enums.UserRoleUser, false)
	svc := newTestService(t, repo, usersStub)

	_, err := svc.ChangeStatus(context.Background(), ChangeStatusInput{
		Actor:        authz.Actor{UserID: owner.ID, Role: owner.Role},
		SerialNumber: "SN-404",
		Target:       enums.ProductStatusLocked,
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeNotFound {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeNotFound)
	}
}

func TestVerifySerialRequiresNoIdentity(t *testing.T) {
	repo := newStubRepo()
	usersStub, owner := seedUser(enums.UserRoleUser, false)
	seedProduct(repo, owner.ID, enums.ProductStatusStolen)
	svc := newTestService(t, repo, usersStub)

	verification, err := svc.VerifySerial(context.Background(), "SN-200")
	if err != nil {
		t.Fatalf("VerifySerial: %v", err)
	}
	if verification.Product.Status != enums.ProductStatusStolen {
		t.Fatalf("status = %s", verification.Product.Status)
	}
	if verification.SaleEligible {
		t.Fatal("stolen product reported sellable")
	}

	if _, err := svc.VerifySerial(context.Background(), "SN-404"); pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatal("unknown serial should be NOT_FOUND")
	}
}

func TestVerifySerialReportsSaleEligibility(t *testing.T) {
	repo := newStubRepo()
	usersStub, owner := seedUser(enums.UserRoleUser, false)
	product := seedProduct(repo, owner.ID, enums.ProductStatusForSale)
	svc := newTestService(t, repo, usersStub)

	verification, err := svc.VerifySerial(context.Background(), "SN-200")
	if err != nil {
		t.Fatalf("VerifySerial: %v", err)
	}
	if !verification.SaleEligible {
		t.Fatal("held 10 days, should be sellable")
	}

	product.RegisteredAt = time.Now().UTC().Add(-24 * time.Hour)
	verification, err = svc.VerifySerial(context.Background(), "SN-200")
	if err != nil {
		t.Fatalf("VerifySerial: %v", err)
	}
	if verification.SaleEligible {
		t.Fatal("held 1 day, cooldown should block sale")
	}
}
