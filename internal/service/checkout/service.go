// Package checkout drives the guarded purchase flow: step guards, the
// checkout state machine and order submission.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/metrics"
	"storefront-checkout/internal/pricing"
)

type cartStore interface {
	Get(ctx context.Context, id string, sess domain.Session) (*domain.Cart, error)
	ClearItems(ctx context.Context, id, sessionID string) (bool, error)
}

// OrderPlacer is the order boundary.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, sess domain.Session, req domain.OrderRequest) (*domain.Order, error)
}

// EventPublisher announces placed orders. Publishing failures never undo an
// order.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, cartID string, order *domain.Order) error
}

// SubmissionLock keeps replicas from submitting the same cart at once. The
// in-process set already covers a single replica.
type SubmissionLock interface {
	TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error)
}

// completionTimeout bounds clearing the cart and publishing the event after
// an order was placed.
const completionTimeout = 10 * time.Second

type Options struct {
	SubmitTimeout time.Duration
	Events        EventPublisher
	Lock          SubmissionLock
	Metrics       *metrics.CheckoutMetrics
	Logger        *log.Entry
}

type Service struct {
	carts         cartStore
	orders        OrderPlacer
	events        EventPublisher
	lock          SubmissionLock
	metrics       *metrics.CheckoutMetrics
	logger        *log.Entry
	tracer        trace.Tracer
	submitTimeout time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func New(carts cartStore, orders OrderPlacer, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	timeout := opts.SubmitTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		carts:         carts,
		orders:        orders,
		events:        opts.Events,
		lock:          opts.Lock,
		metrics:       opts.Metrics,
		logger:        logger.WithField("component", "checkout"),
		tracer:        otel.Tracer("storefront-checkout/checkout"),
		submitTimeout: timeout,
		inFlight:      make(map[string]struct{}),
	}
}

// SummaryLine is one row of the place-order table.
type SummaryLine struct {
	domain.LineItem
	Subtotal float64 `json:"subtotal"`
}

// View is what a checkout step shows after its guard passed.
type View struct {
	Step   domain.Step        `json:"-"`
	State  State              `json:"state"`
	Wizard []WizardStep       `json:"wizard"`
	Cart   *domain.Cart       `json:"cart"`
	Lines  []SummaryLine      `json:"lines,omitempty"`
	Totals domain.OrderTotals `json:"totals"`
}

// Result of a successful submission.
type Result struct {
	OrderID  string        `json:"orderId"`
	Redirect string        `json:"redirect"`
	Order    *domain.Order `json:"order"`
	// Cleared is false when the cart was reset while the order was placed.
	Cleared bool `json:"cleared"`
}

// View runs the step's guard and returns the data the step renders. Guards
// are evaluated on every call.
func (s *Service) View(ctx context.Context, cartID string, step domain.Step, sess domain.Session) (*View, error) {
	if !step.Valid() {
		return nil, fmt.Errorf("%w: unknown checkout step", domain.ErrInvalidInput)
	}
	cart, err := s.carts.Get(ctx, cartID, sess)
	if err != nil {
		return nil, err
	}
	snap := Snapshot{Session: sess, Cart: cart, Submitting: s.Submitting(cartID)}
	if err := Check(step, snap); err != nil {
		s.recordGuard(err)
		return nil, err
	}
	totals, err := pricing.ForCart(cart)
	if err != nil {
		return nil, err
	}
	view := &View{
		Step:   step,
		State:  Resolve(snap),
		Wizard: Wizard(step),
		Cart:   cart,
		Totals: totals,
	}
	if step == domain.StepPlaceOrder {
		view.Lines = make([]SummaryLine, 0, len(cart.Items))
		for _, item := range cart.Items {
			view.Lines = append(view.Lines, SummaryLine{LineItem: item, Subtotal: pricing.LineSubtotal(item)})
		}
	}
	return view, nil
}

// Submitting reports whether an order for the cart is being placed.
func (s *Service) Submitting(cartID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[cartID]
	return ok
}

// Submit places the cart's order. A second call for the same cart while one
// is pending fails with ErrSubmissionInFlight and never reaches the boundary.
// On failure the cart is left as it was; on success only its items are
// cleared.
func (s *Service) Submit(ctx context.Context, cartID string, sess domain.Session) (*Result, error) {
	if !s.acquire(cartID) {
		s.metrics.SubmissionSkipped(metrics.OutcomeRejected)
		return nil, domain.ErrSubmissionInFlight
	}
	defer s.release(cartID)

	if s.lock != nil {
		unlock, ok, err := s.lock.TryLock(ctx, cartID)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.metrics.SubmissionSkipped(metrics.OutcomeRejected)
			return nil, domain.ErrSubmissionInFlight
		}
		defer unlock()
	}

	ctx, span := s.tracer.Start(ctx, "checkout.Submit", trace.WithAttributes(attribute.String("cart.id", cartID)))
	defer span.End()

	logger := s.logger.WithFields(log.Fields{"cart_id": cartID, "user_id": sess.UserID})

	cart, err := s.carts.Get(ctx, cartID, sess)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	sessionID := cart.SessionID

	snap := Snapshot{Session: sess, Cart: cart}
	if err := Check(domain.StepPlaceOrder, snap); err != nil {
		s.recordGuard(err)
		s.metrics.SubmissionSkipped(metrics.OutcomeGuarded)
		return nil, err
	}
	if state := Resolve(snap); !CanTransition(state, StateSubmitting) {
		err := stateViolation(state)
		s.recordGuard(err)
		s.metrics.SubmissionSkipped(metrics.OutcomeGuarded)
		return nil, err
	}
	if len(cart.Items) == 0 {
		s.metrics.SubmissionSkipped(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidInput)
	}
	totals, err := pricing.Compute(cart.Items)
	if err != nil {
		s.metrics.SubmissionSkipped(metrics.OutcomeInvalid)
		logger.WithError(err).Warn("cart failed pricing invariants")
		return nil, err
	}

	req := domain.OrderRequest{
		OrderItems:      cart.Items,
		ShippingAddress: cart.ShippingAddress,
		PaymentMethod:   cart.PaymentMethod,
		OrderTotals:     totals,
	}

	s.metrics.SubmissionStarted()
	started := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	order, err := s.orders.PlaceOrder(callCtx, sess, req)
	cancel()
	if err != nil {
		s.metrics.SubmissionFinished(metrics.OutcomeFailed, time.Since(started))
		subErr := &domain.SubmissionError{Message: submissionMessage(err), Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, subErr.Message)
		logger.WithError(err).Warn("order submission failed")
		return nil, subErr
	}
	s.metrics.SubmissionFinished(metrics.OutcomeSucceeded, time.Since(started))
	s.metrics.OrderPlaced(order.TotalPrice)
	span.SetAttributes(attribute.String("order.id", order.ID))

	// The order exists now. Finishing it must not depend on the caller
	// staying connected.
	doneCtx, cancelDone := context.WithTimeout(context.WithoutCancel(ctx), completionTimeout)
	defer cancelDone()

	result := &Result{OrderID: order.ID, Redirect: domain.OrderRoute(order.ID), Order: order}
	cleared, err := s.carts.ClearItems(doneCtx, cartID, sessionID)
	switch {
	case err != nil:
		span.RecordError(err)
		logger.WithError(err).WithField("order_id", order.ID).Error("order placed but cart items were not cleared")
	case cleared:
		result.Cleared = true
		s.metrics.CartCleared()
	default:
		s.metrics.StaleCompletion()
		logger.WithField("order_id", order.ID).Info("cart reset during submission, leaving its items")
	}

	if s.events != nil {
		if err := s.events.PublishOrderPlaced(doneCtx, cartID, order); err != nil {
			logger.WithError(err).WithField("order_id", order.ID).Error("failed to publish order placed event")
		}
	}

	logger.WithFields(log.Fields{
		"order_id": order.ID,
		"total":    pricing.Decimal(order.TotalPrice).StringFixed(2),
	}).Info("order placed")
	return result, nil
}

func (s *Service) acquire(cartID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[cartID]; busy {
		return false
	}
	s.inFlight[cartID] = struct{}{}
	return true
}

func (s *Service) release(cartID string) {
	s.mu.Lock()
	delete(s.inFlight, cartID)
	s.mu.Unlock()
}

func (s *Service) recordGuard(err error) {
	var violation *domain.GuardViolation
	if errors.As(err, &violation) {
		s.metrics.GuardRedirect(violation.Step.String(), violation.Redirect)
	}
}

// stateViolation sends the customer back to the step the state is missing.
func stateViolation(state State) error {
	step := state.Step()
	v := &domain.GuardViolation{Step: domain.StepPlaceOrder, Redirect: step.Route()}
	switch state {
	case StateLoginRequired:
		v.Rule = RuleAuthenticated
		v.Redirect = loginRedirect(domain.StepPlaceOrder)
	case StateAddressRequired:
		v.Rule = RuleShippingAddress
	case StatePaymentRequired:
		v.Rule = RulePaymentMethod
	default:
		v.Rule = state.String()
	}
	return v
}

// submissionMessage is what the customer sees. Boundary messages pass
// through unchanged.
func submissionMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "order submission timed out"
	}
	return err.Error()
}
