// Package cli drives an interactive company-formation session in the
// terminal: the same step handlers the MCP tools call, fronted by prompts.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/charter"
	"github.com/aretw0/charter/internal/presentation/tui"
	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/formation"
)

// Options configures an interactive run.
type Options struct {
	// SessionID resumes an existing session; empty starts a new one.
	SessionID string
	Debug     bool
	// Plain disables the banner and markdown styling even on a TTY.
	Plain bool
}

// Run executes the interactive formation flow on stdin/stdout.
func Run(ctx context.Context, svc *formation.Service, opts Options) error {
	logger := createLogger(opts.Debug)
	interactive := !opts.Plain && term.IsTerminal(int(os.Stdout.Fd()))

	if interactive {
		tui.PrintBanner(strings.TrimSpace(charter.Version))
	}

	render := func(md string) (string, error) { return md, nil }
	if interactive {
		render = tui.NewRenderer()
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	f := &Flow{
		svc:    svc,
		in:     bufio.NewScanner(NewInterruptibleReader(os.Stdin, sigCtx.Done())),
		out:    os.Stdout,
		render: render,
		logger: logger,
	}

	return handleExecutionError(f.Run(sigCtx, opts.SessionID))
}

// Flow is the prompt loop. Input and output are injected so tests can
// script a whole session.
type Flow struct {
	svc    *formation.Service
	in     *bufio.Scanner
	out    io.Writer
	render func(string) (string, error)
	logger *slog.Logger
}

// NewFlow builds a Flow over the given reader/writer with plain output.
func NewFlow(svc *formation.Service, in io.Reader, out io.Writer) *Flow {
	return &Flow{
		svc:    svc,
		in:     bufio.NewScanner(in),
		out:    out,
		render: func(md string) (string, error) { return md, nil },
		logger: createLogger(false),
	}
}

// Run walks the session from its current step to certificate approval,
// prompting for each step's input.
func (f *Flow) Run(ctx context.Context, sessionID string) error {
	report, err := f.openSession(ctx, sessionID)
	if err != nil {
		return err
	}
	sessionID = report.SessionID

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if report.NextStep == "" || report.NextStep == domain.StepCompleted {
			break
		}

		f.logger.Debug("prompting step", "session_id", sessionID, "step", report.NextStep)
		if err := f.performStep(ctx, sessionID, report.NextStep); err != nil {
			if isInterrupted(err) {
				return err
			}
			// Recoverable input problem: show it and re-prompt the step.
			f.say("! %v", err)
		}

		report, err = f.svc.Status(ctx, sessionID)
		if err != nil {
			return err
		}
	}

	return f.finish(ctx, sessionID)
}

func (f *Flow) openSession(ctx context.Context, sessionID string) (*formation.StatusReport, error) {
	if sessionID == "" {
		res, err := f.svc.Start(ctx)
		if err != nil {
			return nil, err
		}
		f.md(fmt.Sprintf("# New formation session\n\nSession `%s` is active. Let's form your company.", res.SessionID))
		return f.svc.Status(ctx, res.SessionID)
	}

	report, err := f.svc.Resume(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	f.md(fmt.Sprintf("# Welcome back\n\nResuming session `%s` at **%s** (%d%% complete).",
		report.SessionID, report.Step, report.Progress))
	return report, nil
}

func (f *Flow) performStep(ctx context.Context, sessionID string, step domain.Step) error {
	switch step {
	case domain.StepStateSelected:
		return f.stepState(ctx, sessionID)
	case domain.StepTypeSelected:
		return f.stepCompanyType(ctx, sessionID)
	case domain.StepEndingSelected:
		return f.stepEntityEnding(ctx, sessionID)
	case domain.StepNameSet:
		return f.stepCompanyName(ctx, sessionID)
	case domain.StepNameChecked:
		return f.stepNameCheck(ctx, sessionID)
	case domain.StepAgentSet:
		return f.stepRegisteredAgent(ctx, sessionID)
	case domain.StepSharesSet:
		return f.stepShareStructure(ctx, sessionID)
	case domain.StepShareholdersAdded:
		return f.stepShareholders(ctx, sessionID)
	case domain.StepAuthorizedPartySet:
		return f.stepAuthorizedParty(ctx, sessionID)
	case domain.StepCertificateGenerated:
		return f.stepGenerateCertificate(ctx, sessionID)
	case domain.StepCertificateApproved:
		return f.stepApproveCertificate(ctx, sessionID)
	default:
		return fmt.Errorf("no prompt for step %q", step)
	}
}

// -- Step prompts --

func (f *Flow) stepState(ctx context.Context, sessionID string) error {
	states := f.svc.Catalog().SupportedStates()
	answer, err := f.ask(fmt.Sprintf("Which state would you like to form in? (%s)", strings.Join(states, ", ")))
	if err != nil {
		return err
	}
	res, err := f.svc.SetState(ctx, sessionID, answer)
	if err != nil {
		return err
	}
	f.report(res)
	return nil
}

func (f *Flow) stepCompanyType(ctx context.Context, sessionID string) error {
	report, err := f.svc.Status(ctx, sessionID)
	if err != nil {
		return err
	}
	types := f.svc.Catalog().TypesFor(report.Session.CompanyDetails.State)
	answer, err := f.ask(fmt.Sprintf("What type of company? (%s)", strings.Join(types, ", ")))
	if err != nil {
		return err
	}
	res, err := f.svc.SetCompanyType(ctx, sessionID, answer)
	if err != nil {
		return err
	}
	f.report(res)
	return nil
}

func (f *Flow) stepEntityEnding(ctx context.Context, sessionID string) error {
	report, err := f.svc.Status(ctx, sessionID)
	if err != nil {
		return err
	}
	endings := f.svc.Catalog().EndingsFor(report.Session.CompanyType())
	answer, err := f.ask(fmt.Sprintf("Pick a legal ending for the name (%s)", strings.Join(endings, ", ")))
	if err != nil {
		return err
	}
	res, err := f.svc.SetEntityEnding(ctx, sessionID, answer)
	if err != nil {
		return err
	}
	f.report(res)
	return nil
}

func (f *Flow) stepCompanyName(ctx context.Context, sessionID string) error {
	answer, err := f.ask("Company name (without the ending)?")
	if err != nil {
		return err
	}
	res, err := f.svc.SetCompanyName(ctx, sessionID, answer)
	if err != nil {
		return err
	}
	f.say("Full legal name: %s", res.FullName)
	f.report(res)
	return nil
}

func (f *Flow) stepNameCheck(ctx context.Context, sessionID string) error {
	f.say("Checking name availability with the state registry...")
	res, err := f.svc.CheckName(ctx, sessionID)
	if err != nil {
		return err
	}
	if res.NameCheck != nil {
		switch {
		case res.NameCheck.Failed:
			f.say("Could not verify availability right now; continuing anyway.")
		case res.NameCheck.Available:
			f.say("The name looks available.")
		default:
			f.say("The name may be taken: %s", res.NameCheck.Reason)
			if len(res.NameCheck.Suggestions) > 0 {
				f.say("Suggestions: %s", strings.Join(res.NameCheck.Suggestions, ", "))
			}
		}
	}
	f.report(res)
	return nil
}

func (f *Flow) stepRegisteredAgent(ctx context.Context, sessionID string) error {
	useDefault, err := f.askBool("Use the included registered agent service?")
	if err != nil {
		return err
	}

	req := formation.SetRegisteredAgentRequest{UseDefault: &useDefault}
	if !useDefault {
		agent, err := f.askAgent()
		if err != nil {
			return err
		}
		req.Agent = agent
	}

	res, err := f.svc.SetRegisteredAgent(ctx, sessionID, req)
	if err != nil {
		return err
	}
	f.report(res)

	return f.askCompanyAddress(ctx, sessionID, useDefault)
}

// askCompanyAddress gathers the mailing address alongside the agent step.
func (f *Flow) askCompanyAddress(ctx context.Context, sessionID string, agentAvailable bool) error {
	req := formation.SetCompanyAddressRequest{Source: formation.AddressSourceCustom}

	if agentAvailable {
		useAgent, err := f.askBool("Use the registered agent's address as the company address?")
		if err != nil {
			return err
		}
		if useAgent {
			req.Source = formation.AddressSourceAgent
		}
	}

	if req.Source == formation.AddressSourceCustom {
		f.say("Company mailing address:")
		addr, err := f.askAddress()
		if err != nil {
			return err
		}
		req.Address = addr
	}

	interested, err := f.askBool("Interested in a virtual mailbox for company mail?")
	if err != nil {
		return err
	}
	req.VirtualMailInterested = interested

	_, err = f.svc.SetCompanyAddress(ctx, sessionID, req)
	return err
}

func (f *Flow) stepShareStructure(ctx context.Context, sessionID string) error {
	useDefault, err := f.askBool("Use the standard share structure (10,000,000 shares at $0.0001)?")
	if err != nil {
		return err
	}

	req := formation.SetShareStructureRequest{UseDefault: &useDefault}
	if !useDefault {
		shares, err := f.askInt("Authorized shares?")
		if err != nil {
			return err
		}
		par, err := f.askFloat("Par value per share?")
		if err != nil {
			return err
		}
		req.AuthorizedShares = shares
		req.ParValuePerShare = par
	}

	res, err := f.svc.SetShareStructure(ctx, sessionID, req)
	if err != nil {
		return err
	}
	f.report(res)
	return nil
}

func (f *Flow) stepShareholders(ctx context.Context, sessionID string) error {
	for {
		sh, err := f.askShareholder()
		if err != nil {
			return err
		}
		res, err := f.svc.AddShareholder(ctx, sessionID, *sh)
		if err != nil {
			return err
		}
		f.say("Ownership recorded: %.2f%% total across %d shareholder(s).",
			res.OwnershipTotal, res.ShareholderCount)

		if res.OwnershipTotal >= 100 {
			return nil
		}
		more, err := f.askBool(fmt.Sprintf("Ownership is at %.2f%%; it must reach 100%% before payment. Add another shareholder?", res.OwnershipTotal))
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

func (f *Flow) stepAuthorizedParty(ctx context.Context, sessionID string) error {
	name, err := f.ask("Who is authorized to sign the formation documents? (full name)")
	if err != nil {
		return err
	}
	title, err := f.ask("Their title? (e.g. CEO, Managing Member)")
	if err != nil {
		return err
	}
	res, err := f.svc.SetAuthorizedParty(ctx, sessionID, name, title)
	if err != nil {
		return err
	}
	f.report(res)
	return nil
}

func (f *Flow) stepGenerateCertificate(ctx context.Context, sessionID string) error {
	ok, err := f.askBool("Everything is collected. Generate the certificate of formation?")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("certificate generation declined")
	}

	res, err := f.svc.GenerateCertificate(ctx, sessionID)
	if err != nil {
		return err
	}
	if res.Certificate != nil {
		f.md(fmt.Sprintf("## Certificate ready for review\n\nDownload: %s\n\nReview it before approving; it expires %s.",
			res.Certificate.DownloadURL, res.Certificate.ExpiresAt.Format("Jan 2 15:04 MST")))
	}
	f.report(res)
	return nil
}

func (f *Flow) stepApproveCertificate(ctx context.Context, sessionID string) error {
	ok, err := f.askBool("Approve the certificate as generated?")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("certificate approval declined")
	}

	res, err := f.svc.ApproveCertificate(ctx, sessionID)
	if err != nil {
		return err
	}
	f.report(res)
	return nil
}

func (f *Flow) finish(ctx context.Context, sessionID string) error {
	readiness, err := f.svc.PaymentReadiness(ctx, sessionID)
	if err != nil {
		return err
	}
	if !readiness.Ready {
		f.say("Not ready for payment yet; missing: %s", strings.Join(readiness.MissingFields, ", "))
		return nil
	}

	if _, err := f.svc.PreparePayment(ctx, sessionID); err != nil {
		return err
	}
	f.md(fmt.Sprintf("# All set\n\nSession `%s` is ready for payment and filing. Keep the session ID to track progress.", sessionID))
	return nil
}

// -- Input helpers --

func (f *Flow) ask(prompt string) (string, error) {
	fmt.Fprintf(f.out, "%s\n> ", prompt)
	if !f.in.Scan() {
		if err := f.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(f.in.Text()), nil
}

func (f *Flow) askBool(prompt string) (bool, error) {
	for {
		answer, err := f.ask(prompt + " (y/n)")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		f.say("Please answer y or n.")
	}
}

func (f *Flow) askInt(prompt string) (int64, error) {
	answer, err := f.ask(prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(answer, ",", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", answer)
	}
	return n, nil
}

func (f *Flow) askFloat(prompt string) (float64, error) {
	answer, err := f.ask(prompt)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(answer, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", answer)
	}
	return v, nil
}

func (f *Flow) askAddress() (*domain.Address, error) {
	addr := &domain.Address{}
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Street address", &addr.Line1},
		{"Unit / suite (optional)", &addr.Line2},
		{"City", &addr.City},
		{"State / region", &addr.State},
		{"Postal code", &addr.PostalCode},
		{"Country", &addr.Country},
	}
	for _, field := range fields {
		v, err := f.ask(field.prompt)
		if err != nil {
			return nil, err
		}
		*field.dst = v
	}
	return addr, nil
}

func (f *Flow) askAgent() (*domain.RegisteredAgent, error) {
	agent := &domain.RegisteredAgent{}
	var err error
	if agent.Name, err = f.ask("Agent name?"); err != nil {
		return nil, err
	}
	if agent.Email, err = f.ask("Agent email?"); err != nil {
		return nil, err
	}
	if agent.Phone, err = f.ask("Agent phone?"); err != nil {
		return nil, err
	}
	f.say("Agent address:")
	addr, err := f.askAddress()
	if err != nil {
		return nil, err
	}
	agent.Address = *addr
	return agent, nil
}

func (f *Flow) askShareholder() (*domain.Shareholder, error) {
	sh := &domain.Shareholder{}
	var err error
	if sh.Name, err = f.ask("Shareholder name?"); err != nil {
		return nil, err
	}
	if sh.Email, err = f.ask("Shareholder email?"); err != nil {
		return nil, err
	}
	if sh.Phone, err = f.ask("Shareholder phone? (optional)"); err != nil {
		return nil, err
	}
	if sh.OwnershipPercentage, err = f.askFloat("Ownership percentage?"); err != nil {
		return nil, err
	}
	f.say("Shareholder address:")
	addr, err := f.askAddress()
	if err != nil {
		return nil, err
	}
	sh.Address = *addr
	return sh, nil
}

// -- Output helpers --

func (f *Flow) say(format string, args ...any) {
	fmt.Fprintf(f.out, ">>> %s\n", fmt.Sprintf(format, args...))
}

func (f *Flow) md(markdown string) {
	rendered, err := f.render(markdown)
	if err != nil {
		rendered = markdown
	}
	fmt.Fprintln(f.out, rendered)
}

func (f *Flow) report(res *formation.Result) {
	if res == nil {
		return
	}
	if !res.Success {
		f.say("%s", res.Message)
		return
	}
	f.say("%s (%d%% complete)", res.Message, res.Progress)
}
