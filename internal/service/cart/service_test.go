package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-checkout/internal/domain"
	cartrepo "storefront-checkout/internal/repository/cart"
)

type stubProductRepo struct {
	products map[string]domain.Product
	err      error
	lastSlug string
}

func (s *stubProductRepo) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	s.lastSlug = slug
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

type failingSaveRepo struct {
	cartrepo.Repository
	saveErr error
}

func (r *failingSaveRepo) Save(ctx context.Context, cart *domain.Cart) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.Repository.Save(ctx, cart)
}

func qty(n int) *int { return &n }

func newTestService(t *testing.T) (*Service, cartrepo.Repository) {
	t.Helper()
	repo := cartrepo.NewMemory()
	products := &stubProductRepo{products: map[string]domain.Product{
		"shirt": {ID: "p1", Slug: "shirt", Name: "Shirt", Image: "/images/p1.jpg", Price: 100},
		"pants": {ID: "p2", Slug: "pants", Name: "Pants", Price: 50},
	}}
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return New(repo, products, log.NewEntry(logger)), repo
}

func TestCreate(t *testing.T) {
	svc, repo := newTestService(t)
	cart, err := svc.Create(context.Background(), domain.Session{UserID: "u1"})
	require.NoError(t, err)
	assert.NotEmpty(t, cart.ID)
	assert.NotEmpty(t, cart.SessionID)
	assert.Equal(t, "u1", cart.OwnerID)
	assert.Empty(t, cart.Items)

	stored, err := repo.Get(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.SessionID, stored.SessionID)
}

func TestUpdate_AddLineItemMergesQuantity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cart, err := svc.Create(ctx, domain.Session{})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", Slug: "shirt"},
		{Action: "addLineItem", Slug: "pants", Quantity: qty(2)},
		{Action: "addLineItem", Slug: "Shirt", Quantity: qty(2)},
	}})
	require.NoError(t, err)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, domain.LineItem{ID: "p1", Name: "Shirt", Slug: "shirt", Image: "/images/p1.jpg", Price: 100, Quantity: 3}, updated.Items[0])
	assert.Equal(t, "p2", updated.Items[1].ID)
	assert.Equal(t, 2, updated.Items[1].Quantity)
}

func TestUpdate_ChangeQuantityZeroRemoves(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cart, _ := svc.Create(ctx, domain.Session{})
	_, err := svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", Slug: "shirt"},
		{Action: "addLineItem", Slug: "pants"},
	}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{Actions: []UpdateAction{
		{Action: "changeLineItemQuantity", LineItemID: "p2", Quantity: qty(5)},
		{Action: "changeLineItemQuantity", LineItemID: "p1", Quantity: qty(0)},
	}})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "p2", updated.Items[0].ID)
	assert.Equal(t, 5, updated.Items[0].Quantity)

	updated, err = svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{Actions: []UpdateAction{
		{Action: "removeLineItem", LineItemID: "p2"},
	}})
	require.NoError(t, err)
	assert.Empty(t, updated.Items)
}

func TestUpdate_IsAllOrNothing(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	cart, _ := svc.Create(ctx, domain.Session{})

	_, err := svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", Slug: "shirt"},
		{Action: "addLineItem", Slug: "missing"},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	stored, err := repo.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
}

func TestUpdate_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cart, _ := svc.Create(ctx, domain.Session{})

	cases := map[string]UpdateAction{
		"unknown action":       {Action: "explode"},
		"missing slug":         {Action: "addLineItem"},
		"negative add":         {Action: "addLineItem", Slug: "shirt", Quantity: qty(-1)},
		"missing line":         {Action: "changeLineItemQuantity", Quantity: qty(1)},
		"unknown line":         {Action: "changeLineItemQuantity", LineItemID: "nope", Quantity: qty(1)},
		"missing quantity":     {Action: "changeLineItemQuantity", LineItemID: "p1"},
		"remove unknown":       {Action: "removeLineItem", LineItemID: "nope"},
		"missing address":      {Action: "setShippingAddress"},
		"blank payment method": {Action: "setPaymentMethod", PaymentMethod: "  "},
	}
	for name, action := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{Actions: []UpdateAction{action}})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdate_AddressAndPayment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cart, _ := svc.Create(ctx, domain.Session{})

	updated, err := svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{Actions: []UpdateAction{
		{Action: "setShippingAddress", Address: &domain.Address{FullName: " Ann ", Address: "1 Main", City: "Oslo", PostalCode: "0150", Country: "NO"}},
		{Action: "setPaymentMethod", PaymentMethod: "PayPal"},
	}})
	require.NoError(t, err)
	require.NotNil(t, updated.ShippingAddress)
	assert.Equal(t, "Ann", updated.ShippingAddress.FullName)
	assert.True(t, updated.HasShippingAddress())
	assert.Equal(t, "PayPal", updated.PaymentMethod)
}

func TestUpdate_ClaimsAnonymousCart(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cart, _ := svc.Create(ctx, domain.Session{})

	updated, err := svc.Update(ctx, cart.ID, domain.Session{UserID: "u1"}, UpdateInput{Actions: []UpdateAction{
		{Action: "setPaymentMethod", PaymentMethod: "Stripe"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "u1", updated.OwnerID)
}

func TestOwnershipHidesForeignCarts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cart, _ := svc.Create(ctx, domain.Session{UserID: "u1"})

	_, err := svc.Get(ctx, cart.ID, domain.Session{UserID: "u2"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Get(ctx, cart.ID, domain.Session{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Update(ctx, cart.ID, domain.Session{UserID: "u2"}, UpdateInput{Actions: []UpdateAction{{Action: "setPaymentMethod", PaymentMethod: "PayPal"}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := svc.Get(ctx, cart.ID, domain.Session{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, cart.ID, got.ID)
}

func TestClearItemsKeepsAddressAndPayment(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	cart, _ := svc.Create(ctx, domain.Session{})
	_, err := svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", Slug: "shirt"},
		{Action: "setShippingAddress", Address: &domain.Address{FullName: "Ann", Address: "1 Main", City: "Oslo", PostalCode: "0150", Country: "NO"}},
		{Action: "setPaymentMethod", PaymentMethod: "PayPal"},
	}})
	require.NoError(t, err)

	applied, err := svc.ClearItems(ctx, cart.ID, cart.SessionID)
	require.NoError(t, err)
	assert.True(t, applied)

	stored, err := repo.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
	assert.True(t, stored.HasShippingAddress())
	assert.Equal(t, "PayPal", stored.PaymentMethod)
}

func TestClearItemsSkipsAfterReset(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	cart, _ := svc.Create(ctx, domain.Session{})
	staleSession := cart.SessionID

	reset, err := svc.Reset(ctx, cart.ID, domain.Session{})
	require.NoError(t, err)
	assert.NotEqual(t, staleSession, reset.SessionID)

	_, err = svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{Actions: []UpdateAction{{Action: "addLineItem", Slug: "pants"}}})
	require.NoError(t, err)

	applied, err := svc.ClearItems(ctx, cart.ID, staleSession)
	require.NoError(t, err)
	assert.False(t, applied)

	stored, err := repo.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1)
}

func TestResetClearsEverything(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cart, _ := svc.Create(ctx, domain.Session{})
	_, err := svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", Slug: "shirt"},
		{Action: "setPaymentMethod", PaymentMethod: "PayPal"},
	}})
	require.NoError(t, err)

	reset, err := svc.Reset(ctx, cart.ID, domain.Session{})
	require.NoError(t, err)
	assert.Empty(t, reset.Items)
	assert.Nil(t, reset.ShippingAddress)
	assert.Empty(t, reset.PaymentMethod)
}

func TestDeleteChecksOwnership(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	cart, err := svc.Create(ctx, domain.Session{UserID: "u1"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, cart.ID, domain.Session{UserID: "u2"}), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, cart.ID, domain.Session{UserID: "u1"}))

	_, err = repo.Get(ctx, cart.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, cart.ID, domain.Session{UserID: "u1"}), domain.ErrNotFound)
}

func TestSaveFailureLeavesStoredCart(t *testing.T) {
	base := cartrepo.NewMemory()
	repo := &failingSaveRepo{Repository: base}
	svc := New(repo, &stubProductRepo{products: map[string]domain.Product{"shirt": {ID: "p1", Slug: "shirt", Price: 1}}}, nil)
	ctx := context.Background()
	cart, err := svc.Create(ctx, domain.Session{})
	require.NoError(t, err)

	repo.saveErr = errors.New("disk full")
	_, err = svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{Actions: []UpdateAction{{Action: "addLineItem", Slug: "shirt"}}})
	require.Error(t, err)

	stored, err := base.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cart, _ := svc.Create(ctx, domain.Session{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Update(ctx, cart.ID, domain.Session{}, UpdateInput{Actions: []UpdateAction{{Action: "addLineItem", Slug: "shirt"}}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, cart.ID, domain.Session{})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 20, got.Items[0].Quantity)
	assert.Equal(t, 0, svc.locks.size())
}
