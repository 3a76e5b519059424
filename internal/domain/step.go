package domain

import "strings"

// Step is a position in the checkout wizard. The numeric value is the
// 0-based wizard index.
type Step int

const (
	StepLogin Step = iota
	StepShipping
	StepPayment
	StepPlaceOrder
)

// Steps lists the checkout steps in the order the customer walks them.
var Steps = []Step{StepLogin, StepShipping, StepPayment, StepPlaceOrder}

var stepNames = map[Step]string{
	StepLogin:      "User Login",
	StepShipping:   "Shipping Address",
	StepPayment:    "Payment Method",
	StepPlaceOrder: "Place Order",
}

var stepRoutes = map[Step]string{
	StepLogin:      "/login",
	StepShipping:   "/shipping",
	StepPayment:    "/payment",
	StepPlaceOrder: "/placeorder",
}

func (s Step) Name() string {
	return stepNames[s]
}

// Route is the navigation target for the step.
func (s Step) Route() string {
	return stepRoutes[s]
}

func (s Step) String() string {
	return strings.TrimPrefix(s.Route(), "/")
}

func (s Step) Valid() bool {
	_, ok := stepNames[s]
	return ok
}

// ParseStep resolves a route segment such as "payment" or "/placeorder".
func ParseStep(raw string) (Step, bool) {
	want := "/" + strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "/")
	for step, route := range stepRoutes {
		if route == want {
			return step, true
		}
	}
	return 0, false
}

// OrderRoute is the confirmation view for a placed order.
func OrderRoute(orderID string) string {
	return "/order/" + orderID
}
