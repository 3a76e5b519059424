package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/pricing"
	orderrepo "storefront-checkout/internal/repository/order"
)

// Service is the in-process order boundary.
type Service struct {
	repo   orderrepo.Repository
	logger *log.Entry
	now    func() time.Time
}

func New(repo orderrepo.Repository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Service{
		repo:   repo,
		logger: logger.WithField("component", "order"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the request and stores a new unpaid order. Totals are
// recomputed from the items and must match what the caller sent.
func (s *Service) Create(ctx context.Context, userID string, req domain.OrderRequest) (*domain.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthenticated
	}
	if len(req.OrderItems) == 0 {
		return nil, fmt.Errorf("%w: no order items", domain.ErrInvalidInput)
	}
	if !req.ShippingAddress.Complete() {
		return nil, fmt.Errorf("%w: shipping address incomplete", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, fmt.Errorf("%w: payment method required", domain.ErrInvalidInput)
	}
	totals, err := pricing.Compute(req.OrderItems)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if totals != req.OrderTotals {
		return nil, fmt.Errorf("%w: totals do not match items (expected total %s)",
			domain.ErrInvalidInput, pricing.Decimal(totals.TotalPrice).StringFixed(2))
	}

	items := make([]domain.LineItem, len(req.OrderItems))
	copy(items, req.OrderItems)
	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		OrderItems:      items,
		ShippingAddress: *req.ShippingAddress,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		OrderTotals:     totals,
		CreatedAt:       s.now(),
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    pricing.Decimal(totals.TotalPrice).StringFixed(2),
	}).Info("order created")
	return order, nil
}

// PlaceOrder lets the checkout controller use this service as its boundary.
func (s *Service) PlaceOrder(ctx context.Context, sess domain.Session, req domain.OrderRequest) (*domain.Order, error) {
	return s.Create(ctx, sess.UserID, req)
}

// Get returns the order only to the user who placed it.
func (s *Service) Get(ctx context.Context, id, userID string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.ListByUser(ctx, userID, limit)
}
