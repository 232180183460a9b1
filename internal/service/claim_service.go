package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/internal/models"
	"github.com/mnesleha/Shopwise/internal/repository"
	"github.com/mnesleha/Shopwise/internal/util"
)

// ClaimService приписывает гостевые заказы к подтверждённому аккаунту.
type ClaimService struct {
	orders repository.OrderRepo
	now    func() time.Time
	log    *zap.Logger
}

func NewClaimService(orders repository.OrderRepo, log *zap.Logger) *ClaimService {
	return &ClaimService{orders: orders, now: time.Now, log: log}
}

// ClaimGuestOrders приписывает пользователю все гостевые заказы с его
// нормализованным email. Требует подтверждённой почты; без неё — no-op.
// Идемпотентен: уже приписанные заказы не трогаются.
func (s *ClaimService) ClaimGuestOrders(ctx context.Context, user *models.User) (int, error) {
	if user == nil || !user.EmailVerified {
		return 0, nil
	}

	n, err := s.orders.ClaimAllForEmail(ctx, user.ID, util.NormalizeEmail(user.Email), s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("claimed guest orders",
			zap.String("user_id", user.ID.String()),
			zap.Int64("count", n),
		)
	}
	return int(n), nil
}
