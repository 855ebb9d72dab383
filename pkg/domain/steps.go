package domain

import "math"

// Step is a named point in the canonical workflow ordering. Handlers set
// CurrentStep to the step they represent, never to "current plus one", so
// retrying a handler is naturally idempotent.
type Step string

const (
	StepCreated              Step = "created"
	StepStateSelected        Step = "state_selected"
	StepTypeSelected         Step = "type_selected"
	StepEndingSelected       Step = "ending_selected"
	StepNameSet              Step = "name_set"
	StepNameChecked          Step = "name_checked"
	StepAgentSet             Step = "agent_set"
	StepSharesSet            Step = "shares_set"
	StepShareholdersAdded    Step = "shareholders_added"
	StepAuthorizedPartySet   Step = "authorized_party_set"
	StepCertificateGenerated Step = "certificate_generated"
	StepCertificateApproved  Step = "certificate_approved"
	StepCompleted            Step = "completed"
)

// CompanyTypeLLC is the one company-type family that skips the share
// structure step. All other types follow the corp ordering.
const CompanyTypeLLC = "LLC"

var corpOrder = []Step{
	StepCreated,
	StepStateSelected,
	StepTypeSelected,
	StepEndingSelected,
	StepNameSet,
	StepNameChecked,
	StepAgentSet,
	StepSharesSet,
	StepShareholdersAdded,
	StepAuthorizedPartySet,
	StepCertificateGenerated,
	StepCertificateApproved,
	StepCompleted,
}

var llcOrder = []Step{
	StepCreated,
	StepStateSelected,
	StepTypeSelected,
	StepEndingSelected,
	StepNameSet,
	StepNameChecked,
	StepAgentSet,
	StepShareholdersAdded,
	StepAuthorizedPartySet,
	StepCertificateGenerated,
	StepCertificateApproved,
	StepCompleted,
}

// StepOrderFor returns the canonical ordered step sequence for a company
// type. Unknown or unset types default to the corp ordering.
func StepOrderFor(companyType string) []Step {
	if companyType == CompanyTypeLLC {
		return llcOrder
	}
	return corpOrder
}

// StepIndex returns the position of step in the ordering for companyType,
// or -1 if the step is not part of that ordering.
func StepIndex(step Step, companyType string) int {
	for i, s := range StepOrderFor(companyType) {
		if s == step {
			return i
		}
	}
	return -1
}

// ProgressPercent computes rounded percentage progress through the
// ordering. An unrecognized step yields 0, never an error.
func ProgressPercent(step Step, companyType string) int {
	order := StepOrderFor(companyType)
	idx := StepIndex(step, companyType)
	if idx < 0 || len(order) < 2 {
		return 0
	}
	return int(math.Round(float64(idx) / float64(len(order)-1) * 100))
}

// CompletedSteps returns the ordering up to and including the current
// step. Empty on an unrecognized step.
func CompletedSteps(step Step, companyType string) []Step {
	idx := StepIndex(step, companyType)
	if idx < 0 {
		return []Step{}
	}
	order := StepOrderFor(companyType)
	out := make([]Step, idx+1)
	copy(out, order[:idx+1])
	return out
}

// RemainingSteps returns the ordering strictly after the current step.
// Empty on an unrecognized step.
func RemainingSteps(step Step, companyType string) []Step {
	idx := StepIndex(step, companyType)
	if idx < 0 {
		return []Step{}
	}
	order := StepOrderFor(companyType)
	out := make([]Step, len(order)-idx-1)
	copy(out, order[idx+1:])
	return out
}

// NextStep returns the step immediately after the current one, or "" when
// the current step is terminal or unrecognized.
func NextStep(step Step, companyType string) Step {
	order := StepOrderFor(companyType)
	idx := StepIndex(step, companyType)
	if idx < 0 || idx+1 >= len(order) {
		return ""
	}
	return order[idx+1]
}

// StepIsBefore reports whether a comes strictly before b in the ordering
// for companyType. Unrecognized steps are never "before" anything.
func StepIsBefore(a, b Step, companyType string) bool {
	ai := StepIndex(a, companyType)
	bi := StepIndex(b, companyType)
	if ai < 0 || bi < 0 {
		return false
	}
	return ai < bi
}
