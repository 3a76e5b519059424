package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-checkout/internal/domain"
)

func TestWizard(t *testing.T) {
	steps := Wizard(domain.StepPayment)
	require.Len(t, steps, 4)

	assert.Equal(t, WizardStep{Index: 0, Name: "User Login", Route: "/login", Status: WizardActive}, steps[0])
	assert.Equal(t, WizardActive, steps[1].Status)
	assert.Equal(t, WizardStep{Index: 2, Name: "Payment Method", Route: "/payment", Status: WizardActive}, steps[2])
	assert.Equal(t, WizardStep{Index: 3, Name: "Place Order", Route: "/placeorder", Status: WizardPending}, steps[3])
}

func TestWizardBounds(t *testing.T) {
	for _, s := range Wizard(domain.StepLogin)[1:] {
		assert.Equal(t, WizardPending, s.Status)
	}
	for _, s := range Wizard(domain.StepPlaceOrder) {
		assert.Equal(t, WizardActive, s.Status)
	}
}
