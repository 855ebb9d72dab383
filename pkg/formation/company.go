package formation

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/validate"
)

// SetState selects the state of incorporation. Unsupported codes are
// rejected before anything is persisted.
func (s *Service) SetState(ctx context.Context, sessionID, state string) (*Result, error) {
	state = strings.ToUpper(strings.TrimSpace(state))

	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if !s.catalog.StateSupported(state) {
			return nil, domain.NewValidationError("state",
				fmt.Sprintf("%q is not a supported state of incorporation", state),
				s.catalog.SupportedStates()...)
		}

		if sess.CompanyDetails == nil {
			sess.CompanyDetails = &domain.CompanyDetails{}
		}
		sess.CompanyDetails.State = state
		s.markInProgress(sess)
		s.advanceStep(sess, domain.StepStateSelected)

		return newResult(sess, fmt.Sprintf("State of incorporation set to %s. Choose a company type: %s.",
			state, strings.Join(s.catalog.TypesFor(state), ", "))), nil
	})
}

// SetCompanyType selects the entity type. The type must be offered in the
// already-selected state; a mismatch lists the valid alternatives.
func (s *Service) SetCompanyType(ctx context.Context, sessionID, companyType string) (*Result, error) {
	companyType = strings.TrimSpace(companyType)

	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if sess.CompanyDetails == nil || sess.CompanyDetails.State == "" {
			return nil, domain.NewRequiredFieldError("state", domain.StepStateSelected)
		}

		state := sess.CompanyDetails.State
		if !s.catalog.TypeOffered(state, companyType) {
			return nil, domain.NewValidationError("company_type",
				fmt.Sprintf("%q is not offered in %s", companyType, state),
				s.catalog.TypesFor(state)...)
		}

		sess.CompanyDetails.CompanyType = companyType
		s.advanceStep(sess, domain.StepTypeSelected)

		return newResult(sess, fmt.Sprintf("Company type set to %s. Choose an entity ending: %s.",
			companyType, strings.Join(s.catalog.EndingsFor(companyType), ", "))), nil
	})
}

// SetEntityEnding selects the legal suffix. It must be drawn from the
// allowed set for the already-selected company type.
func (s *Service) SetEntityEnding(ctx context.Context, sessionID, ending string) (*Result, error) {
	ending = strings.TrimSpace(ending)

	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if sess.CompanyType() == "" {
			return nil, domain.NewRequiredFieldError("company_type", domain.StepTypeSelected)
		}

		companyType := sess.CompanyDetails.CompanyType
		if !s.catalog.EndingAllowed(companyType, ending) {
			return nil, domain.NewValidationError("entity_ending",
				fmt.Sprintf("%q is not an allowed ending for %s", ending, companyType),
				s.catalog.EndingsFor(companyType)...)
		}

		sess.CompanyDetails.EntityEnding = ending
		s.advanceStep(sess, domain.StepEndingSelected)

		return newResult(sess, fmt.Sprintf("Entity ending set to %q. Provide the base company name.", ending)), nil
	})
}

// SetCompanyName composes the full legal name from the caller's base name
// and the selected ending. Composition is deterministic; there is no
// separate full-name input path.
func (s *Service) SetCompanyName(ctx context.Context, sessionID, baseName string) (*Result, error) {
	baseName = strings.TrimSpace(baseName)

	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if sess.CompanyDetails == nil || sess.CompanyDetails.EntityEnding == "" {
			return nil, domain.NewRequiredFieldError("entity_ending", domain.StepEndingSelected)
		}

		if err := validate.BaseName("base_name", baseName, s.catalog.MinBaseNameLen, s.catalog.MaxBaseNameLen); err != nil {
			return nil, err
		}

		fullName := baseName + " " + sess.CompanyDetails.EntityEnding
		if err := validate.FullName("full_name", fullName, s.catalog.MaxFullNameLen); err != nil {
			return nil, err
		}

		sess.CompanyDetails.BaseName = baseName
		sess.CompanyDetails.FullName = fullName
		// A renamed company invalidates any earlier availability answer.
		sess.NameCheck = nil
		s.advanceStep(sess, domain.StepNameSet)

		res := newResult(sess, fmt.Sprintf("Company name set to %q. A name-availability check is recommended next.", fullName))
		res.FullName = fullName
		return res, nil
	})
}

// CheckName queries the external name-availability collaborator. The
// result is recorded on the session regardless of outcome and, by default
// policy, never blocks progression: timeouts and collaborator errors are
// captured as an advisory failed check.
func (s *Service) CheckName(ctx context.Context, sessionID string) (*Result, error) {
	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if sess.CompanyDetails == nil || sess.CompanyDetails.FullName == "" {
			return nil, domain.NewRequiredFieldError("full_name", domain.StepNameSet)
		}

		details := sess.CompanyDetails
		check := &domain.NameCheckResult{CheckedAt: s.now()}

		if s.names == nil {
			check.Failed = true
			check.Reason = "name-availability service is not configured"
		} else {
			resp, err := s.names.Check(ctx, details.FullName, details.State, details.CompanyType)
			if err != nil {
				s.logger.Warn("name check failed", "session_id", sess.SessionID, "err", err)
				check.Failed = true
				check.Reason = err.Error()
			} else {
				check.Available = resp.Available
				check.Reason = resp.Reason
				check.Suggestions = resp.Suggestions
			}
		}

		sess.NameCheck = check

		if s.cfg.BlockOnNameCheck && (check.Failed || !check.Available) {
			// Strict policy: record the result but do not advance.
			return nil, &domain.CollaboratorError{
				Op:         "name_check",
				Retryable:  true,
				Suggestion: "choose a different name or retry the availability check",
				Err:        fmt.Errorf("name %q is not confirmed available: %s", details.FullName, check.Reason),
			}
		}

		s.advanceStep(sess, domain.StepNameChecked)

		var msg string
		switch {
		case check.Failed:
			msg = "Name availability could not be verified. You may continue; availability will be confirmed at filing."
		case check.Available:
			msg = fmt.Sprintf("The name %q appears to be available.", details.FullName)
		default:
			msg = fmt.Sprintf("The name %q may not be available: %s. You may continue or pick a new name.", details.FullName, check.Reason)
		}

		res := newResult(sess, msg)
		res.NameCheck = check
		return res, nil
	})
}

// AddressSource values accepted by SetCompanyAddress.
const (
	AddressSourceCustom = "custom"
	AddressSourceAgent  = "agent"
)

// SetCompanyAddressRequest carries the company-address step input.
type SetCompanyAddressRequest struct {
	Source                string
	Address               *domain.Address
	VirtualMailInterested bool
}

// SetCompanyAddress records the company's mailing address, either a
// caller-supplied one or a copy of the registered agent's. It does not
// advance CurrentStep; the address is gathered alongside the agent step.
func (s *Service) SetCompanyAddress(ctx context.Context, sessionID string, req SetCompanyAddressRequest) (*Result, error) {
	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if sess.CompanyDetails == nil {
			sess.CompanyDetails = &domain.CompanyDetails{}
		}

		switch req.Source {
		case AddressSourceCustom:
			if err := validate.AddressComplete("address", req.Address); err != nil {
				return nil, err
			}
			addr := *req.Address
			sess.CompanyDetails.Address = &addr
		case AddressSourceAgent:
			if sess.RegisteredAgent == nil {
				return nil, domain.NewRequiredFieldError("registered_agent", domain.StepAgentSet)
			}
			addr := sess.RegisteredAgent.Address
			sess.CompanyDetails.Address = &addr
		default:
			return nil, domain.NewValidationError("source",
				fmt.Sprintf("%q is not a recognized address source", req.Source),
				AddressSourceCustom, AddressSourceAgent)
		}

		sess.CompanyDetails.AddressSource = req.Source
		sess.CompanyDetails.VirtualMailInterested = req.VirtualMailInterested
		s.markInProgress(sess)

		return newResult(sess, "Company address recorded."), nil
	})
}
