package grants

import (
	"context"
	"errors"
	"testing"
	"time"

	"petbook-access/internal/platform/logger"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Grant
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Grant{}}
}

func (r *testRepo) Create(ctx context.Context, g Grant) error {
	if g.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[g.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) Update(ctx context.Context, g Grant) error {
	if _, ok := r.byID[g.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Grant, error) {
	g, ok := r.byID[id]
	if !ok {
		return Grant{}, errRepoNotFound
	}
	return g, nil
}

func (r *testRepo) ListByPair(ctx context.Context, petID, professionalID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.PetID == petID && g.ProfessionalID == professionalID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) ListByPet(ctx context.Context, petID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.PetID == petID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) ListByProfessional(ctx context.Context, professionalID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.ProfessionalID == professionalID {
			out = append(out, g)
		}
	}
	return out, nil
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil, logger.Nop())
	return svc, repo
}

// -------------------------
// Tests
// -------------------------

func TestService_RequestGrant_CreatesPending(t *testing.T) {
	svc, _ := newTestService()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	g, err := svc.RequestGrant(context.Background(), "pet-1", "pro-1")
	if err != nil {
		t.Fatalf("RequestGrant error: %v", err)
	}
	if g.Kind != KindPersistent {
		t.Fatalf("expected persistent, got %s", g.Kind)
	}
	if g.Status != StatusPending {
		t.Fatalf("expected pending, got %s", g.Status)
	}
	if g.GrantedAt != nil || g.RevokedAt != nil || g.ExpiresAt != nil {
		t.Fatalf("expected no timestamps on fresh request")
	}
}

func TestService_RequestGrant_IdempotentWhilePendingOrGranted(t *testing.T) {
	svc, _ := newTestService()

	g1, err := svc.RequestGrant(context.Background(), "pet-1", "pro-1")
	if err != nil {
		t.Fatalf("RequestGrant #1 error: %v", err)
	}

	g2, err := svc.RequestGrant(context.Background(), "pet-1", "pro-1")
	if err != nil {
		t.Fatalf("RequestGrant #2 error: %v", err)
	}
	if g2.ID != g1.ID {
		t.Fatalf("expected same grant while pending, got %s vs %s", g1.ID, g2.ID)
	}

	if _, err := svc.SetStatus(context.Background(), g1.ID, StatusGranted); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}

	g3, err := svc.RequestGrant(context.Background(), "pet-1", "pro-1")
	if err != nil {
		t.Fatalf("RequestGrant #3 error: %v", err)
	}
	if g3.ID != g1.ID || g3.Status != StatusGranted {
		t.Fatalf("expected existing granted grant back, got %+v", g3)
	}
}

func TestService_SetStatus_GrantAndRevoke(t *testing.T) {
	svc, _ := newTestService()

	now1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	now2 := now1.Add(time.Hour)

	svc.now = func() time.Time { return now1 }
	g, err := svc.RequestGrant(context.Background(), "pet-1", "pro-1")
	if err != nil {
		t.Fatalf("RequestGrant error: %v", err)
	}

	granted, err := svc.SetStatus(context.Background(), g.ID, StatusGranted)
	if err != nil {
		t.Fatalf("SetStatus granted error: %v", err)
	}
	if granted.GrantedAt == nil || *granted.GrantedAt != now1 {
		t.Fatalf("expected GrantedAt = now1")
	}
	if granted.RevokedAt != nil {
		t.Fatalf("expected RevokedAt nil after grant")
	}

	svc.now = func() time.Time { return now2 }
	revoked, err := svc.SetStatus(context.Background(), g.ID, StatusRevoked)
	if err != nil {
		t.Fatalf("SetStatus revoked error: %v", err)
	}
	if revoked.RevokedAt == nil || *revoked.RevokedAt != now2 {
		t.Fatalf("expected RevokedAt = now2")
	}
	// GrantedAt y RevokedAt son mutuamente excluyentes.
	if revoked.GrantedAt != nil {
		t.Fatalf("expected GrantedAt cleared after revoke")
	}
}

func TestService_SetStatus_Idempotent(t *testing.T) {
	svc, _ := newTestService()

	g, _ := svc.RequestGrant(context.Background(), "pet-1", "pro-1")
	if _, err := svc.SetStatus(context.Background(), g.ID, StatusGranted); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}

	again, err := svc.SetStatus(context.Background(), g.ID, StatusGranted)
	if err != nil {
		t.Fatalf("expected idempotent re-grant, got %v", err)
	}
	if again.Status != StatusGranted {
		t.Fatalf("expected granted, got %s", again.Status)
	}
}

func TestService_SetStatus_TemporaryIsImmutable(t *testing.T) {
	svc, _ := newTestService()

	g, err := svc.GrantTemporary(context.Background(), "pet-1", "pro-1", 24*time.Hour)
	if err != nil {
		t.Fatalf("GrantTemporary error: %v", err)
	}

	if _, err := svc.SetStatus(context.Background(), g.ID, StatusRevoked); err != ErrBadState {
		t.Fatalf("expected ErrBadState revoking temporary, got %v", err)
	}
}

func TestService_ReRequestAfterRevoke(t *testing.T) {
	svc, _ := newTestService()

	g, _ := svc.RequestGrant(context.Background(), "pet-1", "pro-1")
	if _, err := svc.SetStatus(context.Background(), g.ID, StatusGranted); err != nil {
		t.Fatalf("grant error: %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), g.ID, StatusRevoked); err != nil {
		t.Fatalf("revoke error: %v", err)
	}

	again, err := svc.RequestGrant(context.Background(), "pet-1", "pro-1")
	if err != nil {
		t.Fatalf("re-request error: %v", err)
	}
	if again.ID != g.ID {
		t.Fatalf("expected revived grant, got new id")
	}
	if again.Status != StatusPending || again.GrantedAt != nil || again.RevokedAt != nil {
		t.Fatalf("expected clean pending after revival, got %+v", again)
	}
}

func TestService_CheckAccess_PersistentPath(t *testing.T) {
	svc, _ := newTestService()

	g, _ := svc.RequestGrant(context.Background(), "pet-1", "pro-1")

	ok, err := svc.CheckAccess(context.Background(), "pet-1", "pro-1")
	if err != nil || ok {
		t.Fatalf("expected no access while pending, got ok=%v err=%v", ok, err)
	}

	if _, err := svc.SetStatus(context.Background(), g.ID, StatusGranted); err != nil {
		t.Fatalf("grant error: %v", err)
	}

	ok, err = svc.CheckAccess(context.Background(), "pet-1", "pro-1")
	if err != nil || !ok {
		t.Fatalf("expected access when granted, got ok=%v err=%v", ok, err)
	}

	if _, err := svc.SetStatus(context.Background(), g.ID, StatusRevoked); err != nil {
		t.Fatalf("revoke error: %v", err)
	}

	ok, err = svc.CheckAccess(context.Background(), "pet-1", "pro-1")
	if err != nil || ok {
		t.Fatalf("expected no access after revoke, got ok=%v err=%v", ok, err)
	}
}

func TestService_CheckAccess_TemporaryPathExpires(t *testing.T) {
	svc, _ := newTestService()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if _, err := svc.GrantTemporary(context.Background(), "pet-1", "pro-1", 24*time.Hour); err != nil {
		t.Fatalf("GrantTemporary error: %v", err)
	}

	ok, err := svc.CheckAccess(context.Background(), "pet-1", "pro-1")
	if err != nil || !ok {
		t.Fatalf("expected access within ttl, got ok=%v err=%v", ok, err)
	}

	svc.now = func() time.Time { return now.Add(25 * time.Hour) }
	ok, err = svc.CheckAccess(context.Background(), "pet-1", "pro-1")
	if err != nil || ok {
		t.Fatalf("expected access expired at +25h, got ok=%v err=%v", ok, err)
	}
}

func TestService_CheckAccess_OtherProfessionalDenied(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.GrantTemporary(context.Background(), "pet-1", "pro-1", 24*time.Hour); err != nil {
		t.Fatalf("GrantTemporary error: %v", err)
	}

	ok, err := svc.CheckAccess(context.Background(), "pet-1", "pro-2")
	if err != nil || ok {
		t.Fatalf("expected no access for other professional, got ok=%v err=%v", ok, err)
	}
}
