package checkout

import "storefront-checkout/internal/domain"

const (
	WizardActive  = "active"
	WizardPending = "pending"
)

type WizardStep struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Route  string `json:"route"`
	Status string `json:"status"`
}

// Wizard marks every step up to and including active as active. It is for
// display only and never gates navigation.
func Wizard(active domain.Step) []WizardStep {
	out := make([]WizardStep, 0, len(domain.Steps))
	for i, step := range domain.Steps {
		status := WizardPending
		if i <= int(active) {
			status = WizardActive
		}
		out = append(out, WizardStep{Index: i, Name: step.Name(), Route: step.Route(), Status: status})
	}
	return out
}
