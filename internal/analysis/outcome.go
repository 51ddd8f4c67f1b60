// Package analysis turns retrieved transcripts into structured,
// evidence-grounded causal explanations.
package analysis

import (
	"strings"

	"github.com/latticehq/rootcause/internal/corpus"
)

// Outcome is the fixed category describing why a conversation happened
type Outcome string

const (
	OutcomeEscalation            Outcome = "escalation"
	OutcomeFraudResolved         Outcome = "fraud_resolved"
	OutcomeDeliveryInvestigation Outcome = "delivery_investigation"
	OutcomeGeneralInquiry        Outcome = "general_inquiry"
)

// keywordFamily pairs an outcome with the metadata keywords that signal it
type keywordFamily struct {
	outcome  Outcome
	keywords []string
}

// outcomeFamilies are checked in fixed priority order; first match wins.
var outcomeFamilies = []keywordFamily{
	{OutcomeEscalation, []string{"escalation", "escalate", "supervisor", "complaint"}},
	{OutcomeFraudResolved, []string{"fraud", "unauthorized", "dispute", "chargeback"}},
	{OutcomeDeliveryInvestigation, []string{"delivery", "shipment", "package", "missing"}},
}

// ClassifyOutcome maps transcript metadata to an outcome category.
// Total function: metadata with no recognized keyword is a general inquiry.
func ClassifyOutcome(t *corpus.Transcript) Outcome {
	signal := strings.ToLower(t.Intent() + " " + t.ReasonForCall())

	for _, family := range outcomeFamilies {
		for _, kw := range family.keywords {
			if strings.Contains(signal, kw) {
				return family.outcome
			}
		}
	}
	return OutcomeGeneralInquiry
}
