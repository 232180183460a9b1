package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/internal/models"
	"github.com/mnesleha/Shopwise/internal/repository"
	"github.com/mnesleha/Shopwise/internal/service"
	"github.com/mnesleha/Shopwise/internal/transport/http/dto"
	"github.com/mnesleha/Shopwise/internal/transport/http/handlers"
	"github.com/mnesleha/Shopwise/internal/util"
)

type stubOrderRepo struct {
	orders map[uuid.UUID]*models.Order
}

func (s *stubOrderRepo) Create(ctx context.Context, o *models.Order) error { return nil }

func (s *stubOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.orders[id], nil
}

func (s *stubOrderRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) List(ctx context.Context, f repository.OrderListFilter) ([]*models.Order, int64, error) {
	return nil, 0, nil
}

func (s *stubOrderRepo) CancelIfCreated(ctx context.Context, id uuid.UUID, f repository.CancelFields) (bool, error) {
	return false, nil
}

func (s *stubOrderRepo) SetGuestAccessToken(ctx context.Context, id uuid.UUID, tokenHash string, at time.Time) error {
	return nil
}

func (s *stubOrderRepo) ClaimAllForEmail(ctx context.Context, userID uuid.UUID, normalizedEmail string, at time.Time) (int64, error) {
	return 0, nil
}

func (s *stubOrderRepo) WithTx(ctx context.Context, fn func(txOrders repository.OrderRepo, txItems repository.OrderItemRepo, txCarts repository.CartRepo, txProducts repository.ProductRepo) error) error {
	return nil
}

func newGuestOrderRouter(t *testing.T, orders repository.OrderRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	checkout := service.NewCheckoutService(orders, nil, nil, nil, "secret", zap.NewNop())
	h := handlers.NewOrderHandler(checkout, handlers.CookieConfig{}, zap.NewNop())

	r := gin.New()
	r.GET("/guest/orders/:id/", h.GetGuest)
	return r
}

func TestGetGuest_MissingToken(t *testing.T) {
	r := newGuestOrderRouter(t, &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guest/orders/"+uuid.NewString()+"/", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body dto.BaseError
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body: %v", err)
	}
	if body.Code != dto.CodeMissingGuestToken {
		t.Errorf("expected %s, got %s", dto.CodeMissingGuestToken, body.Code)
	}
}

// Неверный токен и несуществующий заказ обязаны быть неотличимы.
func TestGetGuest_WrongTokenLooksLikeMissingOrder(t *testing.T) {
	orderID := uuid.New()
	raw := "guest-token"
	hash := util.Sha256Hex("secret" + raw)
	repo := &stubOrderRepo{orders: map[uuid.UUID]*models.Order{
		orderID: {ID: orderID, GuestAccessTokenHash: &hash},
	}}
	r := newGuestOrderRouter(t, repo)

	get := func(path string) (int, string) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code, strings.TrimSpace(w.Body.String())
	}

	wrongCode, wrongBody := get("/guest/orders/" + orderID.String() + "/?token=wrong")
	missCode, missBody := get("/guest/orders/" + uuid.NewString() + "/?token=" + raw)

	if wrongCode != http.StatusNotFound || missCode != http.StatusNotFound {
		t.Fatalf("expected 404/404, got %d/%d", wrongCode, missCode)
	}
	if wrongBody != missBody {
		t.Errorf("responses must be identical:\n%s\n%s", wrongBody, missBody)
	}

	okCode, _ := get("/guest/orders/" + orderID.String() + "/?token=" + raw)
	if okCode != http.StatusOK {
		t.Errorf("valid token: expected 200, got %d", okCode)
	}
}
