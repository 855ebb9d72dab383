package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/formation"
)

// Argument shapes for the tool surface. Tool calls arrive as flat maps;
// these structs are the typed boundary between the wire and the handlers.

type sessionArgs struct {
	SessionID string `mapstructure:"sessionId"`
}

type setStateArgs struct {
	SessionID string `mapstructure:"sessionId"`
	State     string `mapstructure:"state"`
}

type setCompanyTypeArgs struct {
	SessionID   string `mapstructure:"sessionId"`
	CompanyType string `mapstructure:"companyType"`
}

type setEntityEndingArgs struct {
	SessionID    string `mapstructure:"sessionId"`
	EntityEnding string `mapstructure:"entityEnding"`
}

type setCompanyNameArgs struct {
	SessionID string `mapstructure:"sessionId"`
	BaseName  string `mapstructure:"baseName"`
}

type setCompanyAddressArgs struct {
	SessionID                 string          `mapstructure:"sessionId"`
	Source                    string          `mapstructure:"source"`
	Address                   *domain.Address `mapstructure:"address"`
	VirtualPostMailInterested bool            `mapstructure:"virtualPostMailInterested"`
}

type setRegisteredAgentArgs struct {
	SessionID  string                  `mapstructure:"sessionId"`
	UseDefault *bool                   `mapstructure:"useDefault"`
	Agent      *domain.RegisteredAgent `mapstructure:"agent"`
}

type setShareStructureArgs struct {
	SessionID        string  `mapstructure:"sessionId"`
	UseDefault       *bool   `mapstructure:"useDefault"`
	AuthorizedShares int64   `mapstructure:"authorizedShares"`
	ParValuePerShare float64 `mapstructure:"parValuePerShare"`
}

type addShareholderArgs struct {
	SessionID   string             `mapstructure:"sessionId"`
	Shareholder domain.Shareholder `mapstructure:"shareholder"`
}

type setAuthorizedPartyArgs struct {
	SessionID string `mapstructure:"sessionId"`
	Name      string `mapstructure:"name"`
	Title     string `mapstructure:"title"`
}

// decodeArgs maps a tool-call argument map onto a typed request. Weak
// typing tolerates JSON's number erasure (every number arrives as
// float64).
func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build argument decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// resultHandler adapts a decoded-args handler returning formation.Result,
// classifying domain errors into caller guidance.
func resultHandler[A any](s *Server, name string, fn func(context.Context, A) (*formation.Result, error)) func(context.Context, mcp.CallToolRequest, map[string]any) (formation.Result, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, raw map[string]any) (formation.Result, error) {
		var args A
		if err := decodeArgs(raw, &args); err != nil {
			return formation.Result{}, err
		}
		res, err := fn(ctx, args)
		if err != nil {
			s.logger.Warn("tool call failed", "tool", name, "err", err)
			return formation.Result{}, classify(err)
		}
		return *res, nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("formation_start",
		mcp.WithDescription("Start a new company-formation session. Returns the session ID every later call requires."),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_start",
		func(ctx context.Context, args struct{}) (*formation.Result, error) {
			return s.svc.Start(ctx)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_set_state",
		mcp.WithDescription("Select the U.S. state of formation (e.g. DE, WY)."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithString("state", mcp.Required(), mcp.Description("Two-letter state code")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_set_state",
		func(ctx context.Context, args setStateArgs) (*formation.Result, error) {
			return s.svc.SetState(ctx, args.SessionID, args.State)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_set_company_type",
		mcp.WithDescription("Select the entity type offered in the chosen state (e.g. LLC, C-Corp)."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithString("companyType", mcp.Required(), mcp.Description("Entity type name")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_set_company_type",
		func(ctx context.Context, args setCompanyTypeArgs) (*formation.Result, error) {
			return s.svc.SetCompanyType(ctx, args.SessionID, args.CompanyType)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_set_entity_ending",
		mcp.WithDescription("Select the legal entity ending for the chosen type (e.g. LLC, Inc.)."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithString("entityEnding", mcp.Required(), mcp.Description("Entity ending")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_set_entity_ending",
		func(ctx context.Context, args setEntityEndingArgs) (*formation.Result, error) {
			return s.svc.SetEntityEnding(ctx, args.SessionID, args.EntityEnding)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_set_company_name",
		mcp.WithDescription("Set the company base name. The full legal name is composed as base name + entity ending."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithString("baseName", mcp.Required(), mcp.Description("Company name without the entity ending")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_set_company_name",
		func(ctx context.Context, args setCompanyNameArgs) (*formation.Result, error) {
			return s.svc.SetCompanyName(ctx, args.SessionID, args.BaseName)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_check_name",
		mcp.WithDescription("Check availability of the composed legal name with the state registry. Advisory: an unavailable or failed check does not block the flow."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_check_name",
		func(ctx context.Context, args sessionArgs) (*formation.Result, error) {
			return s.svc.CheckName(ctx, args.SessionID)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_set_company_address",
		mcp.WithDescription("Record the company mailing address, either a custom address or a copy of the registered agent's."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithString("source", mcp.Required(), mcp.Description("\"custom\" or \"agent\"")),
		mcp.WithObject("address", mcp.Description("Required when source is \"custom\": line1, line2, city, state, postal_code, country")),
		mcp.WithBoolean("virtualPostMailInterested", mcp.Description("Interest flag for virtual mail service")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_set_company_address",
		func(ctx context.Context, args setCompanyAddressArgs) (*formation.Result, error) {
			return s.svc.SetCompanyAddress(ctx, args.SessionID, formation.SetCompanyAddressRequest{
				Source:                args.Source,
				Address:               args.Address,
				VirtualMailInterested: args.VirtualPostMailInterested,
			})
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_set_registered_agent",
		mcp.WithDescription("Appoint the registered agent. Pass useDefault true for the system agent, or false with full agent details."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithBoolean("useDefault", mcp.Description("True to appoint the system default agent for the chosen state")),
		mcp.WithObject("agent", mcp.Description("Required when useDefault is false: name, email, phone, address")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_set_registered_agent",
		func(ctx context.Context, args setRegisteredAgentArgs) (*formation.Result, error) {
			return s.svc.SetRegisteredAgent(ctx, args.SessionID, formation.SetRegisteredAgentRequest{
				UseDefault: args.UseDefault,
				Agent:      args.Agent,
			})
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_set_share_structure",
		mcp.WithDescription("Set authorized shares and par value. LLCs have no share structure and this call succeeds as a no-op."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithBoolean("useDefault", mcp.Description("True for the standard structure (10,000,000 shares at $0.0001)")),
		mcp.WithNumber("authorizedShares", mcp.Description("Required when useDefault is false")),
		mcp.WithNumber("parValuePerShare", mcp.Description("Required when useDefault is false")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_set_share_structure",
		func(ctx context.Context, args setShareStructureArgs) (*formation.Result, error) {
			return s.svc.SetShareStructure(ctx, args.SessionID, formation.SetShareStructureRequest{
				UseDefault:       args.UseDefault,
				AuthorizedShares: args.AuthorizedShares,
				ParValuePerShare: args.ParValuePerShare,
			})
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_add_shareholder",
		mcp.WithDescription("Append a shareholder. Ownership percentages must sum to 100 before payment; the result reports the running total."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithObject("shareholder", mcp.Required(), mcp.Description("name, email, phone (optional), ownership_percentage, address, role (optional)")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_add_shareholder",
		func(ctx context.Context, args addShareholderArgs) (*formation.Result, error) {
			return s.svc.AddShareholder(ctx, args.SessionID, args.Shareholder)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_set_authorized_party",
		mcp.WithDescription("Name the person authorized to sign the formation filing."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Full legal name")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Role or title, e.g. CEO")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_set_authorized_party",
		func(ctx context.Context, args setAuthorizedPartyArgs) (*formation.Result, error) {
			return s.svc.SetAuthorizedParty(ctx, args.SessionID, args.Name, args.Title)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_generate_certificate",
		mcp.WithDescription("Generate the certificate of formation document. Requires name, agent, shareholders, and authorized party."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_generate_certificate",
		func(ctx context.Context, args sessionArgs) (*formation.Result, error) {
			return s.svc.GenerateCertificate(ctx, args.SessionID)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_approve_certificate",
		mcp.WithDescription("Approve the generated certificate. Fails if the certificate's review window has expired; regenerate in that case."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_approve_certificate",
		func(ctx context.Context, args sessionArgs) (*formation.Result, error) {
			return s.svc.ApproveCertificate(ctx, args.SessionID)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_get_status",
		mcp.WithDescription("Report current step, progress, and remaining steps for a session."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithOutputSchema[formation.StatusReport](),
	), mcp.NewStructuredToolHandler(s.handleStatus))

	s.mcpServer.AddTool(mcp.NewTool("formation_resume",
		mcp.WithDescription("Resume a previous session: returns the same progress snapshot as formation_get_status."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithOutputSchema[formation.StatusReport](),
	), mcp.NewStructuredToolHandler(s.handleResume))

	s.mcpServer.AddTool(mcp.NewTool("formation_payment_readiness",
		mcp.WithDescription("Check whether the session has everything payment requires. Read-only."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithOutputSchema[formation.ReadinessReport](),
	), mcp.NewStructuredToolHandler(s.handlePaymentReadiness))

	s.mcpServer.AddTool(mcp.NewTool("formation_prepare_payment",
		mcp.WithDescription("Run the payment-readiness gate and mark the session pending payment."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_prepare_payment",
		func(ctx context.Context, args sessionArgs) (*formation.Result, error) {
			return s.svc.PreparePayment(ctx, args.SessionID)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_complete_payment",
		mcp.WithDescription("Record a successful payment from the payment collaborator."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_complete_payment",
		func(ctx context.Context, args sessionArgs) (*formation.Result, error) {
			return s.svc.CompletePayment(ctx, args.SessionID)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_fail_payment",
		mcp.WithDescription("Record a failed payment from the payment collaborator."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_fail_payment",
		func(ctx context.Context, args sessionArgs) (*formation.Result, error) {
			return s.svc.FailPayment(ctx, args.SessionID)
		})))

	s.mcpServer.AddTool(mcp.NewTool("formation_abandon",
		mcp.WithDescription("Abandon a session. The record is kept until its TTL but accepts no further steps."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Formation session ID")),
		mcp.WithOutputSchema[formation.Result](),
	), mcp.NewStructuredToolHandler(resultHandler(s, "formation_abandon",
		func(ctx context.Context, args sessionArgs) (*formation.Result, error) {
			return s.svc.Abandon(ctx, args.SessionID)
		})))
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, raw map[string]any) (formation.StatusReport, error) {
	var args sessionArgs
	if err := decodeArgs(raw, &args); err != nil {
		return formation.StatusReport{}, err
	}
	report, err := s.svc.Status(ctx, args.SessionID)
	if err != nil {
		return formation.StatusReport{}, classify(err)
	}
	return *report, nil
}

func (s *Server) handleResume(ctx context.Context, request mcp.CallToolRequest, raw map[string]any) (formation.StatusReport, error) {
	var args sessionArgs
	if err := decodeArgs(raw, &args); err != nil {
		return formation.StatusReport{}, err
	}
	report, err := s.svc.Resume(ctx, args.SessionID)
	if err != nil {
		return formation.StatusReport{}, classify(err)
	}
	return *report, nil
}

func (s *Server) handlePaymentReadiness(ctx context.Context, request mcp.CallToolRequest, raw map[string]any) (formation.ReadinessReport, error) {
	var args sessionArgs
	if err := decodeArgs(raw, &args); err != nil {
		return formation.ReadinessReport{}, err
	}
	report, err := s.svc.PaymentReadiness(ctx, args.SessionID)
	if err != nil {
		return formation.ReadinessReport{}, classify(err)
	}
	return *report, nil
}
