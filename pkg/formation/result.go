package formation

import (
	"github.com/aretw0/charter/pkg/domain"
)

// Result is the structured outcome of a successful handler call. It always
// carries enough information for the caller to decide the next action.
type Result struct {
	SessionID string               `json:"session_id"`
	Success   bool                 `json:"success"`
	Message   string               `json:"message"`
	Status    domain.SessionStatus `json:"status"`
	Step      domain.Step          `json:"current_step"`
	// NextStep is the suggested next legal call, empty at terminal steps.
	NextStep domain.Step `json:"next_step,omitempty"`
	Progress int         `json:"progress_percent"`

	// ChoiceRequired is set when the handler declined to act because the
	// caller left an explicit choice ambiguous (e.g. default vs custom
	// registered agent). No mutation happened.
	ChoiceRequired bool `json:"choice_required,omitempty"`

	// Domain payloads, populated by the handlers that produce them.
	FullName         string                  `json:"full_name,omitempty"`
	NameCheck        *domain.NameCheckResult `json:"name_check,omitempty"`
	OwnershipTotal   float64                 `json:"ownership_total,omitempty"`
	ShareholderID    string                  `json:"shareholder_id,omitempty"`
	ShareholderCount int                     `json:"shareholder_count,omitempty"`
	Certificate      *domain.CertificateData `json:"certificate,omitempty"`
}

// newResult builds the common portion of a handler result from the
// session's post-mutation state.
func newResult(sess *domain.FormationSession, message string) *Result {
	companyType := sess.CompanyType()
	return &Result{
		SessionID: sess.SessionID,
		Success:   true,
		Message:   message,
		Status:    sess.Status,
		Step:      sess.CurrentStep,
		NextStep:  domain.NextStep(sess.CurrentStep, companyType),
		Progress:  domain.ProgressPercent(sess.CurrentStep, companyType),
	}
}

// StatusReport is the read-only introspection payload returned by
// Status and Resume.
type StatusReport struct {
	SessionID      string                   `json:"session_id"`
	Status         domain.SessionStatus     `json:"status"`
	Step           domain.Step              `json:"current_step"`
	NextStep       domain.Step              `json:"next_step,omitempty"`
	Progress       int                      `json:"progress_percent"`
	CompletedSteps []domain.Step            `json:"completed_steps"`
	RemainingSteps []domain.Step            `json:"remaining_steps"`
	Session        *domain.FormationSession `json:"session"`
}

// ReadinessReport is the outcome of the payment-readiness gate. It is a
// read-only aggregate check, not a transition.
type ReadinessReport struct {
	Ready          bool     `json:"ready"`
	MissingFields  []string `json:"missing_fields,omitempty"`
	OwnershipTotal float64  `json:"ownership_total"`
	// OwnershipComplete reports whether the sum equals 100 within the
	// gate's tolerance.
	OwnershipComplete bool `json:"ownership_complete"`
}
