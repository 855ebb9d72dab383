package mcp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/charter/pkg/domain"
)

// classify turns a domain error into a tool-facing error whose message
// tells the caller how to recover. Raw internals never reach the wire.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return errors.New("session not found; call formation_start to begin a new session")
	case errors.Is(err, domain.ErrSessionExpired):
		return errors.New("session expired; call formation_start to begin a new session")
	case errors.Is(err, domain.ErrCertificateExpired):
		return errors.New("certificate expired before approval; call formation_generate_certificate to issue a fresh one")
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		if len(vErr.Valid) > 0 {
			return fmt.Errorf("invalid %s: %s. Valid options: %s",
				vErr.Field, vErr.Reason, strings.Join(vErr.Valid, ", "))
		}
		return fmt.Errorf("invalid %s: %s", vErr.Field, vErr.Reason)
	}

	var rErr *domain.RequiredFieldError
	if errors.As(err, &rErr) {
		if rErr.Step != "" {
			return fmt.Errorf("%s is not set yet; complete the %s step first", rErr.Field, stepTool(rErr.Step))
		}
		return fmt.Errorf("%s is not set yet", rErr.Field)
	}

	var cErr *domain.CollaboratorError
	if errors.As(err, &cErr) {
		msg := fmt.Sprintf("%s is currently unavailable", cErr.Op)
		if cErr.Suggestion != "" {
			msg += "; " + cErr.Suggestion
		} else if cErr.Retryable {
			msg += "; try again shortly"
		}
		return errors.New(msg)
	}

	return err
}

// stepTool maps a step to the tool that performs it, so error guidance
// names something the caller can actually invoke.
func stepTool(step domain.Step) string {
	switch step {
	case domain.StepStateSelected:
		return "formation_set_state"
	case domain.StepTypeSelected:
		return "formation_set_company_type"
	case domain.StepEndingSelected:
		return "formation_set_entity_ending"
	case domain.StepNameSet:
		return "formation_set_company_name"
	case domain.StepNameChecked:
		return "formation_check_name"
	case domain.StepAgentSet:
		return "formation_set_registered_agent"
	case domain.StepSharesSet:
		return "formation_set_share_structure"
	case domain.StepShareholdersAdded:
		return "formation_add_shareholder"
	case domain.StepAuthorizedPartySet:
		return "formation_set_authorized_party"
	case domain.StepCertificateGenerated:
		return "formation_generate_certificate"
	case domain.StepCertificateApproved:
		return "formation_approve_certificate"
	default:
		return string(step)
	}
}
