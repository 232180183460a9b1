package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mnesleha/Shopwise/internal/service"
	"github.com/mnesleha/Shopwise/internal/util"
)

type HSProvider struct {
	accessSecret []byte
	issuer       string
	audience     string
	now          func() time.Time
}

func NewHSProvider(accessSecret, issuer, audience string) *HSProvider {
	return &HSProvider{
		accessSecret: []byte(accessSecret),
		issuer:       issuer,
		audience:     audience,
		now:          time.Now,
	}
}

type customClaims struct {
	Sub string `json:"sub"`
	jwt.RegisteredClaims
}

func (p *HSProvider) SignAccess(ctx context.Context, sub uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	now := p.now()
	exp := now.Add(ttl)

	claims := customClaims{
		Sub: sub.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   sub.String(),
			Audience:  []string{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(p.accessSecret)
	return signed, exp, err
}

// Refresh: opaque (случайная строка), в БД хранится sha256 base64url
func (p *HSProvider) NewRefresh(ctx context.Context, sub uuid.UUID, ttl time.Duration) (opaque string, hash string, exp time.Time, err error) {
	exp = p.now().Add(ttl)
	opaque, err = util.RandomOpaque(32)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return opaque, util.Sha256Base64URL(opaque), exp, nil
}

func (p *HSProvider) ParseAndValidateAccess(ctx context.Context, token string) (*service.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &customClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return p.accessSecret, nil
	}, jwt.WithAudience(p.audience), jwt.WithIssuer(p.issuer))
	if err != nil {
		return nil, err
	}
	cc, ok := parsed.Claims.(*customClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	uid, err := uuid.Parse(cc.Sub)
	if err != nil {
		return nil, err
	}
	return &service.Claims{UserID: uid, Exp: cc.ExpiresAt.Time}, nil
}
