package formation

import (
	"context"
	"fmt"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/validate"
	"github.com/google/uuid"
)

// SetShareStructureRequest carries the share-structure step input.
// UseDefault nil asks the handler to choose for the caller, which it
// refuses except in the LLC short-circuit case.
type SetShareStructureRequest struct {
	UseDefault       *bool
	AuthorizedShares int64
	ParValuePerShare float64
}

// SetShareStructure sets authorized shares and par value for share-issuing
// company types. LLCs short-circuit with a success result that does not
// alter CurrentStep: the LLC ordering has no shares step.
func (s *Service) SetShareStructure(ctx context.Context, sessionID string, req SetShareStructureRequest) (*Result, error) {
	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if sess.CompanyType() == "" {
			return nil, domain.NewRequiredFieldError("company_type", domain.StepTypeSelected)
		}

		if sess.CompanyType() == domain.CompanyTypeLLC {
			return newResult(sess, "LLCs have no share structure; nothing to configure. Add members next."), nil
		}

		if req.UseDefault == nil {
			res := newResult(sess, "Specify use_default: true for the standard share structure, or false with authorized_shares and par_value_per_share.")
			res.Success = false
			res.ChoiceRequired = true
			return res, nil
		}

		if *req.UseDefault {
			shares := s.catalog.DefaultShares
			sess.ShareStructure = &shares
		} else {
			if err := validate.SharesInRange("authorized_shares", req.AuthorizedShares, s.catalog.MaxAuthorizedShares); err != nil {
				return nil, err
			}
			if err := validate.ParValue("par_value_per_share", req.ParValuePerShare); err != nil {
				return nil, err
			}
			sess.ShareStructure = &domain.ShareStructure{
				AuthorizedShares: req.AuthorizedShares,
				ParValuePerShare: req.ParValuePerShare,
			}
		}

		s.advanceStep(sess, domain.StepSharesSet)

		return newResult(sess, fmt.Sprintf("Share structure set: %d authorized shares at %g par value.",
			sess.ShareStructure.AuthorizedShares, sess.ShareStructure.ParValuePerShare)), nil
	})
}

// AddShareholder appends a shareholder/member record with a generated ID.
// The running ownership total is reported, never auto-normalized: totals
// above or below 100% are accepted here and enforced only at the
// payment-readiness boundary.
func (s *Service) AddShareholder(ctx context.Context, sessionID string, input domain.Shareholder) (*Result, error) {
	return s.update(ctx, sessionID, func(sess *domain.FormationSession) (*Result, error) {
		if err := validate.NonEmpty("shareholder.name", input.Name); err != nil {
			return nil, err
		}
		if err := validate.Email("shareholder.email", input.Email); err != nil {
			return nil, err
		}
		if err := validate.OptionalPhone("shareholder.phone", input.Phone); err != nil {
			return nil, err
		}
		if err := validate.OwnershipPercent("shareholder.ownership_percentage", input.OwnershipPercentage); err != nil {
			return nil, err
		}
		if err := validate.AddressComplete("shareholder.address", &input.Address); err != nil {
			return nil, err
		}

		input.ID = uuid.NewString()
		sess.Shareholders = append(sess.Shareholders, input)

		total := sess.OwnershipTotal()
		s.markInProgress(sess)
		s.advanceStep(sess, domain.StepShareholdersAdded)

		var msg string
		switch {
		case validate.OwnershipSumComplete(total):
			msg = fmt.Sprintf("Shareholder %q added. Total ownership is now 100%%; proceed to the authorized party.", input.Name)
		case total > 100:
			msg = fmt.Sprintf("Shareholder %q added. Total ownership is %.2f%%, which exceeds 100%% and must be corrected before payment.", input.Name, total)
		default:
			msg = fmt.Sprintf("Shareholder %q added. Total ownership is %.2f%%; add more shareholders or proceed.", input.Name, total)
		}

		res := newResult(sess, msg)
		res.ShareholderID = input.ID
		res.ShareholderCount = len(sess.Shareholders)
		res.OwnershipTotal = total
		return res, nil
	})
}
