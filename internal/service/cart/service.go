package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"storefront-checkout/internal/domain"
	cartrepo "storefront-checkout/internal/repository/cart"
)

// Service is the single writer for carts. Every mutation of one cart runs
// under that cart's lock and saves the whole record before returning.
type Service struct {
	repo        cartrepo.Repository
	productRepo productRepo
	locks       *keyedMutex
	logger      *log.Entry
	now         func() time.Time
}

type productRepo interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, productRepo productRepo, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Service{
		repo:        repo,
		productRepo: productRepo,
		locks:       newKeyedMutex(),
		logger:      logger.WithField("component", "cart"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type UpdateInput struct {
	Actions []UpdateAction `json:"actions"`
}

type UpdateAction struct {
	Action        string          `json:"action"`
	Slug          string          `json:"slug,omitempty"`
	LineItemID    string          `json:"lineItemId,omitempty"`
	Quantity      *int            `json:"quantity,omitempty"`
	Address       *domain.Address `json:"address,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
}

// Create starts an empty cart owned by the session's user, if any.
func (s *Service) Create(ctx context.Context, sess domain.Session) (*domain.Cart, error) {
	now := s.now()
	cart := &domain.Cart{
		ID:        uuid.NewString(),
		OwnerID:   sess.UserID,
		SessionID: uuid.NewString(),
		Items:     []domain.LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) Get(ctx context.Context, id string, sess domain.Session) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(cart, sess) {
		return nil, domain.ErrNotFound
	}
	return cart, nil
}

// Update applies all actions or none of them.
func (s *Service) Update(ctx context.Context, id string, sess domain.Session, in UpdateInput) (*domain.Cart, error) {
	if len(in.Actions) == 0 {
		return nil, fmt.Errorf("%w: actions required", domain.ErrInvalidInput)
	}
	return s.mutate(ctx, id, sess, func(cart *domain.Cart) error {
		for _, action := range in.Actions {
			if err := s.apply(ctx, cart, action); err != nil {
				return err
			}
		}
		if sess.Authenticated() && cart.OwnerID == "" {
			cart.OwnerID = sess.UserID
		}
		return domain.ValidateItems(cart.Items)
	})
}

// ClearItems empties the item list of the cart identified by sessionID.
// Address and payment method are kept. It reports false without touching the
// cart when the cart was reset since sessionID was read.
func (s *Service) ClearItems(ctx context.Context, id, sessionID string) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	cart, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if cart.SessionID != sessionID {
		s.logger.WithFields(log.Fields{
			"cart_id":  id,
			"expected": sessionID,
			"current":  cart.SessionID,
		}).Warn("cart session changed, not clearing items")
		return false, nil
	}
	cart.Items = []domain.LineItem{}
	cart.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, cart); err != nil {
		return false, err
	}
	return true, nil
}

// Reset clears everything and rotates the cart's session id.
func (s *Service) Reset(ctx context.Context, id string, sess domain.Session) (*domain.Cart, error) {
	return s.mutate(ctx, id, sess, func(cart *domain.Cart) error {
		cart.Items = []domain.LineItem{}
		cart.ShippingAddress = nil
		cart.PaymentMethod = ""
		cart.SessionID = uuid.NewString()
		return nil
	})
}

// Delete removes the cart. Carts the session cannot see are reported as not
// found.
func (s *Service) Delete(ctx context.Context, id string, sess domain.Session) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.Get(ctx, id, sess); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("cart_id", id).Debug("cart deleted")
	return nil
}

func (s *Service) mutate(ctx context.Context, id string, sess domain.Session, fn func(*domain.Cart) error) (*domain.Cart, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.Get(ctx, id, sess)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Service) apply(ctx context.Context, cart *domain.Cart, action UpdateAction) error {
	switch strings.ToLower(strings.TrimSpace(action.Action)) {
	case "addlineitem":
		slug := strings.ToLower(strings.TrimSpace(action.Slug))
		if slug == "" {
			return fmt.Errorf("%w: slug required", domain.ErrInvalidInput)
		}
		qty := 1
		if action.Quantity != nil {
			qty = *action.Quantity
		}
		if qty <= 0 {
			return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
		}
		if s.productRepo == nil {
			return errors.New("product repository unavailable")
		}
		product, err := s.productRepo.GetBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: product %q not found", domain.ErrInvalidInput, slug)
			}
			return err
		}
		addLineItem(cart, *product, qty)
	case "changelineitemquantity":
		lineID := strings.TrimSpace(action.LineItemID)
		if lineID == "" {
			return fmt.Errorf("%w: lineItemId required", domain.ErrInvalidInput)
		}
		if action.Quantity == nil || *action.Quantity < 0 {
			return fmt.Errorf("%w: quantity must be zero or positive", domain.ErrInvalidInput)
		}
		idx := indexOf(cart.Items, lineID)
		if idx < 0 {
			return fmt.Errorf("%w: line item %q not in cart", domain.ErrInvalidInput, lineID)
		}
		if *action.Quantity == 0 {
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
			return nil
		}
		cart.Items[idx].Quantity = *action.Quantity
	case "removelineitem":
		idx := indexOf(cart.Items, strings.TrimSpace(action.LineItemID))
		if idx < 0 {
			return fmt.Errorf("%w: line item %q not in cart", domain.ErrInvalidInput, action.LineItemID)
		}
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	case "setshippingaddress":
		if action.Address == nil {
			return fmt.Errorf("%w: address required", domain.ErrInvalidInput)
		}
		addr := trimAddress(*action.Address)
		cart.ShippingAddress = &addr
	case "setpaymentmethod":
		method := strings.TrimSpace(action.PaymentMethod)
		if method == "" {
			return fmt.Errorf("%w: paymentMethod required", domain.ErrInvalidInput)
		}
		cart.PaymentMethod = method
	default:
		return fmt.Errorf("%w: unsupported action %q", domain.ErrInvalidInput, action.Action)
	}
	return nil
}

// addLineItem snapshots the product. Adding a product already in the cart
// increases its quantity instead of adding a row.
func addLineItem(cart *domain.Cart, p domain.Product, qty int) {
	if idx := indexOf(cart.Items, p.ID); idx >= 0 {
		cart.Items[idx].Quantity += qty
		return
	}
	cart.Items = append(cart.Items, domain.LineItem{
		ID:       p.ID,
		Name:     p.Name,
		Slug:     p.Slug,
		Image:    p.Image,
		Price:    p.Price,
		Quantity: qty,
	})
}

func indexOf(items []domain.LineItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func trimAddress(a domain.Address) domain.Address {
	return domain.Address{
		FullName:   strings.TrimSpace(a.FullName),
		Address:    strings.TrimSpace(a.Address),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}

// visibleTo hides carts owned by another user. Anonymous carts are reachable
// by anyone holding the id.
func visibleTo(cart *domain.Cart, sess domain.Session) bool {
	return cart.OwnerID == "" || cart.OwnerID == sess.UserID
}
