package checkout

import (
	"storefront-checkout/internal/domain"
)

// Snapshot is everything guards and the state machine look at. It is built
// fresh for every request.
type Snapshot struct {
	Session    domain.Session
	Cart       *domain.Cart
	Submitting bool
	OrderID    string
}

// Rule is one prerequisite of a step.
type Rule struct {
	Name      string
	Satisfied func(Snapshot) bool
	Redirect  string
}

const (
	RuleAuthenticated   = "authenticated"
	RuleShippingAddress = "shipping_address"
	RulePaymentMethod   = "payment_method"
)

func loginRedirect(step domain.Step) string {
	return domain.StepLogin.Route() + "?redirect=" + step.Route()
}

var requiredPredecessor = map[domain.Step][]Rule{
	domain.StepShipping: {
		{
			Name:      RuleAuthenticated,
			Satisfied: func(s Snapshot) bool { return s.Session.Authenticated() },
			Redirect:  loginRedirect(domain.StepShipping),
		},
	},
	domain.StepPayment: {
		{
			Name:      RuleShippingAddress,
			Satisfied: func(s Snapshot) bool { return s.Cart.HasShippingAddress() },
			Redirect:  domain.StepShipping.Route(),
		},
	},
	domain.StepPlaceOrder: {
		{
			Name:      RulePaymentMethod,
			Satisfied: func(s Snapshot) bool { return s.Cart.HasPaymentMethod() },
			Redirect:  domain.StepPayment.Route(),
		},
	},
}

// Check evaluates the rules of step and then those of every earlier step, so
// a later page can never be reached by skipping an earlier one. The step's
// own rules go first: a place order without a payment method always lands on
// the payment step.
func Check(step domain.Step, snap Snapshot) error {
	for _, rule := range Rules(step) {
		if !rule.Satisfied(snap) {
			return &domain.GuardViolation{Step: step, Rule: rule.Name, Redirect: rule.Redirect}
		}
	}
	return nil
}

// Rules returns the rules guarding step in evaluation order. A missing
// session always sends the customer to login with step as the return route.
func Rules(step domain.Step) []Rule {
	rules := append([]Rule(nil), requiredPredecessor[step]...)
	for _, s := range domain.Steps {
		if s >= step {
			break
		}
		rules = append(rules, requiredPredecessor[s]...)
	}
	for i := range rules {
		if rules[i].Name == RuleAuthenticated {
			rules[i].Redirect = loginRedirect(step)
		}
	}
	return rules
}
