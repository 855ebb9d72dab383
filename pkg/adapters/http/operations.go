package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/formation"
)

// operation runs one formation step for the session in the path. The
// request body carries the step's arguments.
type operation func(r *http.Request, sessionID string) (*formation.Result, error)

// Request bodies mirror the tool argument maps minus sessionId, which
// rides in the path.

type setStateBody struct {
	State string `json:"state"`
}

type setCompanyTypeBody struct {
	CompanyType string `json:"companyType"`
}

type setEntityEndingBody struct {
	EntityEnding string `json:"entityEnding"`
}

type setCompanyNameBody struct {
	BaseName string `json:"baseName"`
}

type setCompanyAddressBody struct {
	Source                    string          `json:"source"`
	Address                   *domain.Address `json:"address,omitempty"`
	VirtualPostMailInterested bool            `json:"virtualPostMailInterested,omitempty"`
}

type setRegisteredAgentBody struct {
	UseDefault *bool                   `json:"useDefault,omitempty"`
	Agent      *domain.RegisteredAgent `json:"agent,omitempty"`
}

type setShareStructureBody struct {
	UseDefault       *bool   `json:"useDefault,omitempty"`
	AuthorizedShares int64   `json:"authorizedShares,omitempty"`
	ParValuePerShare float64 `json:"parValuePerShare,omitempty"`
}

type addShareholderBody struct {
	Shareholder domain.Shareholder `json:"shareholder"`
}

type setAuthorizedPartyBody struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func decodeBody(r *http.Request, out any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return domain.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

func (s *Server) operations() map[string]operation {
	return map[string]operation{
		"set_state": func(r *http.Request, id string) (*formation.Result, error) {
			var body setStateBody
			if err := decodeBody(r, &body); err != nil {
				return nil, err
			}
			return s.svc.SetState(r.Context(), id, body.State)
		},
		"set_company_type": func(r *http.Request, id string) (*formation.Result, error) {
			var body setCompanyTypeBody
			if err := decodeBody(r, &body); err != nil {
				return nil, err
			}
			return s.svc.SetCompanyType(r.Context(), id, body.CompanyType)
		},
		"set_entity_ending": func(r *http.Request, id string) (*formation.Result, error) {
			var body setEntityEndingBody
			if err := decodeBody(r, &body); err != nil {
				return nil, err
			}
			return s.svc.SetEntityEnding(r.Context(), id, body.EntityEnding)
		},
		"set_company_name": func(r *http.Request, id string) (*formation.Result, error) {
			var body setCompanyNameBody
			if err := decodeBody(r, &body); err != nil {
				return nil, err
			}
			return s.svc.SetCompanyName(r.Context(), id, body.BaseName)
		},
		"check_name": func(r *http.Request, id string) (*formation.Result, error) {
			return s.svc.CheckName(r.Context(), id)
		},
		"set_company_address": func(r *http.Request, id string) (*formation.Result, error) {
			var body setCompanyAddressBody
			if err := decodeBody(r, &body); err != nil {
				return nil, err
			}
			return s.svc.SetCompanyAddress(r.Context(), id, formation.SetCompanyAddressRequest{
				Source:                body.Source,
				Address:               body.Address,
				VirtualMailInterested: body.VirtualPostMailInterested,
			})
		},
		"set_registered_agent": func(r *http.Request, id string) (*formation.Result, error) {
			var body setRegisteredAgentBody
			if err := decodeBody(r, &body); err != nil {
				return nil, err
			}
			return s.svc.SetRegisteredAgent(r.Context(), id, formation.SetRegisteredAgentRequest{
				UseDefault: body.UseDefault,
				Agent:      body.Agent,
			})
		},
		"set_share_structure": func(r *http.Request, id string) (*formation.Result, error) {
			var body setShareStructureBody
			if err := decodeBody(r, &body); err != nil {
				return nil, err
			}
			return s.svc.SetShareStructure(r.Context(), id, formation.SetShareStructureRequest{
				UseDefault:       body.UseDefault,
				AuthorizedShares: body.AuthorizedShares,
				ParValuePerShare: body.ParValuePerShare,
			})
		},
		"add_shareholder": func(r *http.Request, id string) (*formation.Result, error) {
			var body addShareholderBody
			if err := decodeBody(r, &body); err != nil {
				return nil, err
			}
			return s.svc.AddShareholder(r.Context(), id, body.Shareholder)
		},
		"set_authorized_party": func(r *http.Request, id string) (*formation.Result, error) {
			var body setAuthorizedPartyBody
			if err := decodeBody(r, &body); err != nil {
				return nil, err
			}
			return s.svc.SetAuthorizedParty(r.Context(), id, body.Name, body.Title)
		},
		"generate_certificate": func(r *http.Request, id string) (*formation.Result, error) {
			return s.svc.GenerateCertificate(r.Context(), id)
		},
		"approve_certificate": func(r *http.Request, id string) (*formation.Result, error) {
			return s.svc.ApproveCertificate(r.Context(), id)
		},
		"prepare_payment": func(r *http.Request, id string) (*formation.Result, error) {
			return s.svc.PreparePayment(r.Context(), id)
		},
		"complete_payment": func(r *http.Request, id string) (*formation.Result, error) {
			return s.svc.CompletePayment(r.Context(), id)
		},
		"fail_payment": func(r *http.Request, id string) (*formation.Result, error) {
			return s.svc.FailPayment(r.Context(), id)
		},
		"abandon": func(r *http.Request, id string) (*formation.Result, error) {
			return s.svc.Abandon(r.Context(), id)
		},
	}
}
