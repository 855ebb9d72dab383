package formation

import (
	"context"
	"fmt"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/validate"
)

// SetRegisteredAgentRequest carries the registered-agent step input.
// UseDefault is a tri-state: nil means the caller never made the choice,
// and the handler will ask rather than silently default.
type SetRegisteredAgentRequest struct {
	UseDefault *bool
	Agent      *domain.RegisteredAgent
}

// SetRegisteredAgent either copies the system default agent for the
// session's state or validates and stores a caller-supplied agent. No
// partial agent is ever persisted.
func (s *Service) SetRegisteredAgent(ctx context.Context, sessionID string, req SetRegisteredAgentRequest) (*Result, error) {
	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if req.UseDefault == nil {
			// Explicit-choice policy: do not guess on the caller's behalf.
			res := newResult(sess, "Specify use_default: true to appoint the system registered agent, or false and supply your own agent details.")
			res.Success = false
			res.ChoiceRequired = true
			return res, nil
		}

		if *req.UseDefault {
			if sess.CompanyDetails == nil || sess.CompanyDetails.State == "" {
				return nil, domain.NewRequiredFieldError("state", domain.StepStateSelected)
			}
			agent, ok := s.catalog.DefaultAgentFor(sess.CompanyDetails.State)
			if !ok {
				return nil, domain.NewValidationError("use_default",
					fmt.Sprintf("no default registered agent is available in %s", sess.CompanyDetails.State))
			}
			sess.RegisteredAgent = &agent
		} else {
			if req.Agent == nil {
				return nil, domain.NewValidationError("agent", "agent details are required when use_default is false")
			}
			if err := validateAgent(req.Agent); err != nil {
				return nil, err
			}
			agent := *req.Agent
			agent.IsDefault = false
			sess.RegisteredAgent = &agent
		}

		s.markInProgress(sess)
		s.advanceStep(sess, domain.StepAgentSet)

		return newResult(sess, fmt.Sprintf("Registered agent set to %q.", sess.RegisteredAgent.Name)), nil
	})
}

// validateAgent requires every field of a custom agent.
func validateAgent(agent *domain.RegisteredAgent) error {
	if err := validate.NonEmpty("agent.name", agent.Name); err != nil {
		return err
	}
	if err := validate.Email("agent.email", agent.Email); err != nil {
		return err
	}
	if err := validate.Phone("agent.phone", agent.Phone); err != nil {
		return err
	}
	return validate.AddressComplete("agent.address", &agent.Address)
}
