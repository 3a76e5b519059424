package checkout

import "storefront-checkout/internal/domain"

// State is the checkout state derived from session, cart and submission
// progress. It is never stored.
type State int

const (
	StateLoginRequired State = iota
	StateAddressRequired
	StatePaymentRequired
	StateReadyToSubmit
	StateSubmitting
	StateCompleted
)

var stateNames = map[State]string{
	StateLoginRequired:   "LoginRequired",
	StateAddressRequired: "AddressRequired",
	StatePaymentRequired: "PaymentRequired",
	StateReadyToSubmit:   "ReadyToSubmit",
	StateSubmitting:      "Submitting",
	StateCompleted:       "Completed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Step is the wizard step the customer works on in this state.
func (s State) Step() domain.Step {
	switch s {
	case StateLoginRequired:
		return domain.StepLogin
	case StateAddressRequired:
		return domain.StepShipping
	case StatePaymentRequired:
		return domain.StepPayment
	default:
		return domain.StepPlaceOrder
	}
}

// Resolve derives the state. A completed order wins over everything, then an
// in-flight submission, then the first missing prerequisite.
func Resolve(snap Snapshot) State {
	switch {
	case snap.OrderID != "":
		return StateCompleted
	case snap.Submitting:
		return StateSubmitting
	case !snap.Session.Authenticated():
		return StateLoginRequired
	case !snap.Cart.HasShippingAddress():
		return StateAddressRequired
	case !snap.Cart.HasPaymentMethod():
		return StatePaymentRequired
	default:
		return StateReadyToSubmit
	}
}

// CanTransition reports whether to is reachable from from in one move.
// Collection states advance one step at a time and fall back to any earlier
// collection state when a prerequisite disappears. A submission ends in
// Completed or returns to ReadyToSubmit.
func CanTransition(from, to State) bool {
	if from == to {
		return true
	}
	switch from {
	case StateLoginRequired, StateAddressRequired, StatePaymentRequired:
		return to == from+1 || to < from
	case StateReadyToSubmit:
		return to == StateSubmitting || to < StateReadyToSubmit
	case StateSubmitting:
		return to == StateCompleted || to == StateReadyToSubmit
	case StateCompleted:
		return to <= StateReadyToSubmit
	}
	return false
}
