package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nanorand/nanorand"
	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/internal/models"
	"github.com/mnesleha/Shopwise/internal/producer"
	"github.com/mnesleha/Shopwise/internal/repository"
	"github.com/mnesleha/Shopwise/internal/util"
)

const (
	defaultAccessTTL       = 15 * time.Minute
	defaultRefreshTTL      = 30 * 24 * time.Hour
	defaultVerificationTTL = 24 * time.Hour

	verifyRequestsPerEmail = 3
	verifyRequestsPerIP    = 10
	verifyRateWindow       = time.Hour
)

type SessionConfig struct {
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	VerificationTTL time.Duration
}

func (c *SessionConfig) applyDefaults() {
	if c.AccessTTL <= 0 {
		c.AccessTTL = defaultAccessTTL
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = defaultRefreshTTL
	}
	if c.VerificationTTL <= 0 {
		c.VerificationTTL = defaultVerificationTTL
	}
}

// LoginResult — токены плюс побочные эффекты перехода в авторизованную
// сессию: отчёт о слиянии корзины и число приписанных гостевых заказов.
type LoginResult struct {
	User          *models.User
	Tokens        TokenPair
	CartMerge     *MergeReport
	ClaimedOrders int
}

type VerifyEmailResult struct {
	User          *models.User
	ClaimedOrders int
}

type SessionService struct {
	users         repository.UserRepo
	refreshTokens repository.RefreshRepo
	verifications repository.EmailVerificationRepo
	hasher        PasswordHasher
	tokens        TokenProvider
	limiter       RateLimiter // может быть nil
	reconciler    CartReconciler
	claimer       OrderClaimer
	producer      EmailProducer
	cfg           SessionConfig
	now           func() time.Time
	log           *zap.Logger
}

func NewSessionService(
	users repository.UserRepo,
	refreshTokens repository.RefreshRepo,
	verifications repository.EmailVerificationRepo,
	hasher PasswordHasher,
	tokens TokenProvider,
	limiter RateLimiter,
	reconciler CartReconciler,
	claimer OrderClaimer,
	emailProducer EmailProducer,
	cfg SessionConfig,
	log *zap.Logger,
) *SessionService {
	cfg.applyDefaults()
	return &SessionService{
		users:         users,
		refreshTokens: refreshTokens,
		verifications: verifications,
		hasher:        hasher,
		tokens:        tokens,
		limiter:       limiter,
		reconciler:    reconciler,
		claimer:       claimer,
		producer:      emailProducer,
		cfg:           cfg,
		now:           time.Now,
		log:           log,
	}
}

// Register создаёт аккаунт и отправляет письмо подтверждения почты.
// Почта считается занятой без учёта регистра.
func (s *SessionService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = util.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, NewValidationError(map[string]string{
			"email":    "This field is required.",
			"password": "This field is required.",
		})
	}
	if len(password) < 8 {
		return nil, NewValidationError(map[string]string{
			"password": "Password must be at least 8 characters.",
		})
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Email: email, Password: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.issueVerification(ctx, user); err != nil {
		// аккаунт уже создан; письмо можно перезапросить
		s.log.Error("failed to issue verification token", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	return user, nil
}

// Login аутентифицирует пользователя и выполняет переход сессии:
// слияние анонимной корзины (rawCartToken из cookie) и приписывание
// гостевых заказов. Сбой слияния/приписывания логин не валит.
func (s *SessionService) Login(ctx context.Context, email, password, rawCartToken string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Compare(user.Password, password) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{User: user, Tokens: pair}

	if rawCartToken != "" {
		report, err := s.reconciler.Reconcile(ctx, user.ID, rawCartToken)
		if err != nil {
			s.log.Error("cart reconcile on login failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		} else {
			result.CartMerge = report
		}
	}

	claimed, err := s.claimer.ClaimGuestOrders(ctx, user)
	if err != nil {
		s.log.Error("guest order claim on login failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		claimed = 0
	}
	result.ClaimedOrders = claimed

	return result, nil
}

// Refresh ротирует refresh-токен: старый отзывается, выдаётся новая пара.
func (s *SessionService) Refresh(ctx context.Context, rawRefresh string) (*TokenPair, error) {
	if rawRefresh == "" {
		return nil, ErrTokenNotFoundOrRevoked
	}

	hash := util.Sha256Base64URL(rawRefresh)
	stored, err := s.refreshTokens.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.Revoked {
		return nil, ErrTokenNotFoundOrRevoked
	}
	if s.now().After(stored.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	if _, err := s.refreshTokens.RevokeByHash(ctx, hash); err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout отзывает refresh-токен. Неизвестный токен — не ошибка.
func (s *SessionService) Logout(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" {
		return nil
	}
	_, err := s.refreshTokens.RevokeByHash(ctx, util.Sha256Base64URL(rawRefresh))
	return err
}

func (s *SessionService) Me(ctx context.Context) (*models.User, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *SessionService) ParseAccess(ctx context.Context, token string) (*Claims, error) {
	return s.tokens.ParseAndValidateAccess(ctx, token)
}

// VerifyEmail гасит одноразовый токен подтверждения, помечает почту
// подтверждённой и тут же приписывает гостевые заказы с этой почтой.
func (s *SessionService) VerifyEmail(ctx context.Context, rawToken string) (*VerifyEmailResult, error) {
	if rawToken == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	t, err := s.verifications.GetValidByHash(ctx, util.Sha256Hex(rawToken), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, err
	}

	consumed, err := s.verifications.Consume(ctx, t.ID.String())
	if err != nil {
		return nil, err
	}
	if !consumed {
		// токен перехвачен параллельным запросом
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := s.users.GetByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidOrExpiredToken
	}

	if !user.EmailVerified {
		user.EmailVerified = true
		if err := s.users.UpdateEmailVerified(ctx, user); err != nil {
			return nil, err
		}
	}

	claimed, err := s.claimer.ClaimGuestOrders(ctx, user)
	if err != nil {
		s.log.Error("guest order claim on verify failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		claimed = 0
	}

	return &VerifyEmailResult{User: user, ClaimedOrders: claimed}, nil
}

// RequestEmailVerification перевыпускает токен подтверждения. Ответ
// одинаков для существующей и несуществующей почты — перебором адресов
// базу не прощупать. Частота ограничена по почте и по IP.
func (s *SessionService) RequestEmailVerification(ctx context.Context, email, clientIP string) error {
	email = util.NormalizeEmail(email)
	if email == "" {
		return NewValidationError(map[string]string{"email": "This field is required."})
	}

	if s.limiter != nil {
		exceeded, err := s.limiter.RateLimitHit(ctx, "verify:email:"+email, verifyRequestsPerEmail, verifyRateWindow)
		if err != nil {
			s.log.Warn("rate limiter unavailable", zap.Error(err))
		} else if exceeded {
			return ErrTooManyRequests
		}
		if clientIP != "" {
			exceeded, err := s.limiter.RateLimitHit(ctx, "verify:ip:"+clientIP, verifyRequestsPerIP, verifyRateWindow)
			if err != nil {
				s.log.Warn("rate limiter unavailable", zap.Error(err))
			} else if exceeded {
				return ErrTooManyRequests
			}
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.EmailVerified {
		return nil
	}

	if err := s.issueVerification(ctx, user); err != nil {
		s.log.Error("failed to reissue verification token", zap.Error(err), zap.String("user_id", user.ID.String()))
	}
	return nil
}

func (s *SessionService) issueTokens(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	access, accessExp, err := s.tokens.SignAccess(ctx, userID, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	opaque, hash, refreshExp, err := s.tokens.NewRefresh(ctx, userID, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.refreshTokens.Create(ctx, &models.RefreshToken{
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: refreshExp,
	}); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshOpaque:    opaque,
		RefreshExpiresAt: refreshExp,
		RefreshHash:      hash,
	}, nil
}

func (s *SessionService) issueVerification(ctx context.Context, user *models.User) error {
	raw, err := nanorand.Gen(32)
	if err != nil {
		return err
	}

	token := &models.EmailVerificationToken{
		UserID:    user.ID,
		Email:     user.Email,
		TokenHash: util.Sha256Hex(raw),
		ExpiresAt: s.now().Add(s.cfg.VerificationTTL),
	}
	if err := s.verifications.Create(ctx, token); err != nil {
		return err
	}

	if s.producer != nil {
		msg := producer.EmailMessage{
			To:       user.Email,
			Subject:  "Verify your email",
			Template: "verify_email",
			Data: map[string]any{
				"token": raw,
			},
		}
		if err := s.producer.SendEmail(ctx, user.ID.String(), msg); err != nil {
			s.log.Error("failed to enqueue verification email", zap.Error(err))
		}
	}
	return nil
}
