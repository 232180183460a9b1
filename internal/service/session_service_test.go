package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/internal/models"
	"github.com/mnesleha/Shopwise/internal/service"
	"github.com/mnesleha/Shopwise/internal/util"
)

func newSessionService(
	users *MockUserRepo,
	refresh *MockRefreshRepo,
	verifications *MockEmailVerificationRepo,
	reconciler *MockReconciler,
	claimer *MockClaimer,
	limiter *MockRateLimiter,
) *service.SessionService {
	if users == nil {
		users = &MockUserRepo{}
	}
	if refresh == nil {
		refresh = &MockRefreshRepo{}
	}
	if verifications == nil {
		verifications = &MockEmailVerificationRepo{}
	}
	if reconciler == nil {
		reconciler = &MockReconciler{}
	}
	if claimer == nil {
		claimer = &MockClaimer{}
	}
	var rl service.RateLimiter
	if limiter != nil {
		rl = limiter
	}
	return service.NewSessionService(
		users, refresh, verifications,
		&MockPasswordHasher{}, &MockTokenProvider{}, rl,
		reconciler, claimer, &MockEmailProducer{},
		service.SessionConfig{},
		zap.NewNop(),
	)
}

func TestRegister_EmailExists(t *testing.T) {
	users := &MockUserRepo{
		ExistsByEmailFunc: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := newSessionService(users, nil, nil, nil, nil, nil)

	_, err := svc.Register(context.Background(), "user@example.com", "password123")
	if !errors.Is(err, service.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	var checkedEmail string
	var created *models.User
	users := &MockUserRepo{
		ExistsByEmailFunc: func(ctx context.Context, email string) (bool, error) {
			checkedEmail = email
			return false, nil
		},
		CreateFunc: func(ctx context.Context, u *models.User) error {
			u.ID = uuid.New()
			created = u
			return nil
		},
	}
	svc := newSessionService(users, nil, nil, nil, nil, nil)

	_, err := svc.Register(context.Background(), "  User@Example.COM ", "password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if checkedEmail != "user@example.com" {
		t.Errorf("email not normalized before lookup: %q", checkedEmail)
	}
	if created == nil || created.Password == "password123" {
		t.Error("password must be stored hashed")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newSessionService(nil, nil, nil, nil, nil, nil)

	_, err := svc.Login(context.Background(), "nobody@example.com", "pass", "")
	if !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}

	users := &MockUserRepo{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: uuid.New(), Email: email, Password: "hashed:other"}, nil
		},
	}
	svc = newSessionService(users, nil, nil, nil, nil, nil)
	_, err = svc.Login(context.Background(), "user@example.com", "pass", "")
	if !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_MergesCartAndClaimsOrders(t *testing.T) {
	userID := uuid.New()
	users := &MockUserRepo{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: userID, Email: email, Password: "hashed:pass", EmailVerified: true}, nil
		},
	}
	reconciler := &MockReconciler{
		ReconcileFunc: func(ctx context.Context, uid uuid.UUID, rawCartToken string) (*service.MergeReport, error) {
			if uid != userID || rawCartToken != "cart-tok" {
				t.Errorf("reconcile called with uid=%s token=%q", uid, rawCartToken)
			}
			return &service.MergeReport{Performed: true}, nil
		},
	}
	claimer := &MockClaimer{
		ClaimGuestOrdersFunc: func(ctx context.Context, user *models.User) (int, error) {
			return 2, nil
		},
	}
	svc := newSessionService(users, nil, nil, reconciler, claimer, nil)

	result, err := svc.Login(context.Background(), "user@example.com", "pass", "cart-tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CartMerge == nil || !result.CartMerge.Performed {
		t.Error("expected merge report with performed=true")
	}
	if result.ClaimedOrders != 2 {
		t.Errorf("expected 2 claimed orders, got %d", result.ClaimedOrders)
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshOpaque == "" {
		t.Error("expected token pair")
	}
}

func TestLogin_MergeFailureDoesNotFailLogin(t *testing.T) {
	userID := uuid.New()
	users := &MockUserRepo{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: userID, Email: email, Password: "hashed:pass"}, nil
		},
	}
	reconciler := &MockReconciler{
		ReconcileFunc: func(ctx context.Context, uid uuid.UUID, rawCartToken string) (*service.MergeReport, error) {
			return nil, errors.New("db down")
		},
	}
	claimer := &MockClaimer{
		ClaimGuestOrdersFunc: func(ctx context.Context, user *models.User) (int, error) {
			return 0, errors.New("also down")
		},
	}
	svc := newSessionService(users, nil, nil, reconciler, claimer, nil)

	result, err := svc.Login(context.Background(), "user@example.com", "pass", "cart-tok")
	if err != nil {
		t.Fatalf("login must survive merge/claim failures, got %v", err)
	}
	if result.CartMerge != nil {
		t.Error("failed merge must yield nil report")
	}
	if result.ClaimedOrders != 0 {
		t.Errorf("failed claim must degrade to 0, got %d", result.ClaimedOrders)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	userID := uuid.New()
	stored := &models.RefreshToken{
		UserID:    userID,
		TokenHash: util.Sha256Base64URL("old-opaque"),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	revoked := false
	refresh := &MockRefreshRepo{
		GetByHashFunc: func(ctx context.Context, hash string) (*models.RefreshToken, error) {
			if hash == stored.TokenHash {
				return stored, nil
			}
			return nil, nil
		},
		RevokeByHashFunc: func(ctx context.Context, hash string) (bool, error) {
			revoked = hash == stored.TokenHash
			return true, nil
		},
	}
	svc := newSessionService(nil, refresh, nil, nil, nil, nil)

	pair, err := svc.Refresh(context.Background(), "old-opaque")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !revoked {
		t.Error("old refresh token must be revoked")
	}
	if pair.RefreshOpaque == "old-opaque" {
		t.Error("refresh must rotate the opaque token")
	}
}

func TestRefresh_RevokedOrExpired(t *testing.T) {
	userID := uuid.New()
	refresh := &MockRefreshRepo{
		GetByHashFunc: func(ctx context.Context, hash string) (*models.RefreshToken, error) {
			return &models.RefreshToken{UserID: userID, Revoked: true, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	svc := newSessionService(nil, refresh, nil, nil, nil, nil)
	if _, err := svc.Refresh(context.Background(), "opaque"); !errors.Is(err, service.ErrTokenNotFoundOrRevoked) {
		t.Errorf("revoked: expected ErrTokenNotFoundOrRevoked, got %v", err)
	}

	refresh = &MockRefreshRepo{
		GetByHashFunc: func(ctx context.Context, hash string) (*models.RefreshToken, error) {
			return &models.RefreshToken{UserID: userID, ExpiresAt: time.Now().Add(-time.Minute)}, nil
		},
	}
	svc = newSessionService(nil, refresh, nil, nil, nil, nil)
	if _, err := svc.Refresh(context.Background(), "opaque"); !errors.Is(err, service.ErrTokenExpired) {
		t.Errorf("expired: expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyEmail_InvalidToken(t *testing.T) {
	svc := newSessionService(nil, nil, nil, nil, nil, nil)

	if _, err := svc.VerifyEmail(context.Background(), ""); !errors.Is(err, service.ErrInvalidOrExpiredToken) {
		t.Errorf("empty: expected ErrInvalidOrExpiredToken, got %v", err)
	}
	if _, err := svc.VerifyEmail(context.Background(), "bogus"); !errors.Is(err, service.ErrInvalidOrExpiredToken) {
		t.Errorf("unknown: expected ErrInvalidOrExpiredToken, got %v", err)
	}
}

func TestVerifyEmail_ConsumesAndClaims(t *testing.T) {
	userID := uuid.New()
	tokenID := uuid.New()
	raw := "verify-token"

	consumed := false
	verifications := &MockEmailVerificationRepo{
		GetValidByHashFunc: func(ctx context.Context, tokenHash string, now time.Time) (*models.EmailVerificationToken, error) {
			if tokenHash != util.Sha256Hex(raw) {
				t.Errorf("lookup by wrong hash: %q", tokenHash)
			}
			return &models.EmailVerificationToken{ID: tokenID, UserID: userID, Email: "u@example.com"}, nil
		},
		ConsumeFunc: func(ctx context.Context, id string) (bool, error) {
			consumed = id == tokenID.String()
			return true, nil
		},
	}
	var savedVerified bool
	users := &MockUserRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return &models.User{ID: userID, Email: "u@example.com"}, nil
		},
		UpdateEmailVerifiedFunc: func(ctx context.Context, user *models.User) error {
			savedVerified = user.EmailVerified
			return nil
		},
	}
	claimer := &MockClaimer{
		ClaimGuestOrdersFunc: func(ctx context.Context, user *models.User) (int, error) {
			if !user.EmailVerified {
				t.Error("claim must see the user as verified")
			}
			return 1, nil
		},
	}
	svc := newSessionService(users, nil, verifications, nil, claimer, nil)

	result, err := svc.VerifyEmail(context.Background(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !consumed {
		t.Error("token must be consumed")
	}
	if !savedVerified {
		t.Error("email_verified must be persisted")
	}
	if result.ClaimedOrders != 1 {
		t.Errorf("expected 1 claimed order, got %d", result.ClaimedOrders)
	}
}

func TestVerifyEmail_TokenRace(t *testing.T) {
	verifications := &MockEmailVerificationRepo{
		GetValidByHashFunc: func(ctx context.Context, tokenHash string, now time.Time) (*models.EmailVerificationToken, error) {
			return &models.EmailVerificationToken{ID: uuid.New(), UserID: uuid.New()}, nil
		},
		ConsumeFunc: func(ctx context.Context, id string) (bool, error) {
			return false, nil // перехвачен параллельным запросом
		},
	}
	svc := newSessionService(nil, nil, verifications, nil, nil, nil)

	if _, err := svc.VerifyEmail(context.Background(), "tok"); !errors.Is(err, service.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken on consume race, got %v", err)
	}
}

func TestRequestEmailVerification_AntiEnumeration(t *testing.T) {
	// несуществующая почта — тот же успех, что и существующая
	svc := newSessionService(nil, nil, nil, nil, nil, nil)
	if err := svc.RequestEmailVerification(context.Background(), "ghost@example.com", "1.2.3.4"); err != nil {
		t.Fatalf("unknown email must not error, got %v", err)
	}
}

func TestRequestEmailVerification_RateLimited(t *testing.T) {
	limiter := &MockRateLimiter{
		RateLimitHitFunc: func(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
			return true, nil
		},
	}
	svc := newSessionService(nil, nil, nil, nil, nil, limiter)

	err := svc.RequestEmailVerification(context.Background(), "user@example.com", "1.2.3.4")
	if !errors.Is(err, service.ErrTooManyRequests) {
		t.Fatalf("expected ErrTooManyRequests, got %v", err)
	}
}
