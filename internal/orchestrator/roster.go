package orchestrator

import (
	"github.com/mpellerin/tally/internal/agent"
	"github.com/mpellerin/tally/internal/capability"
	"github.com/mpellerin/tally/internal/crm"
	"github.com/mpellerin/tally/internal/email"
	"github.com/mpellerin/tally/internal/interrupt"
	"github.com/mpellerin/tally/internal/llm"
	"github.com/mpellerin/tally/internal/revisor"
)

// DefaultSensitive lists the capabilities gated behind human approval unless
// configured otherwise.
var DefaultSensitive = []string{"send_email", "generate_invoice"}

const rootPrompt = `You are the coordinator of a billing reconciliation team. Clients email activity reports for their contracted workers; your job is to reconcile those reports against the CRM, have timesheets validated, and get invoices generated and delivered.

You never touch data yourself. Delegate to your agents:
- query: looks up workers, timesheets, projects and invoices, and reads incoming email.
- validation: checks reported activity against saved timesheets and validates them.
- invoicing: generates and retrieves invoices once timesheets are validated.
- emailing: drafts and sends outgoing email.

Prefer delegate_tasks with one self-contained instruction per item when several independent lookups are needed. Validate timesheets before asking for an invoice. Answer the user only when the work is done.`

const queryPrompt = `You are a data retrieval agent for a billing team. Answer exactly the question you were given using the CRM and mailbox capabilities, then reply with the facts found. Do not take any action that changes data.`

const validationPrompt = `You are a timesheet validation agent. Compare reported activity against the saved timesheet, and validate the timesheet only when the figures match. Report any discrepancy instead of validating.`

const invoicingPrompt = `You are an invoicing agent. Generate invoices for validated periods and look up existing invoices. If generation fails because timesheets are not validated, report which ones are missing.`

const emailingPrompt = `You are an email agent for a billing team. Draft clear, professional messages. Send email only when explicitly instructed to.`

// RosterConfig wires the agent tree to its backing services.
type RosterConfig struct {
	// Provider generates completions for every agent.
	Provider llm.Provider
	// Classifier generates the revisor's verdicts. Defaults to Provider.
	Classifier llm.Provider
	// CRM is the client records backend.
	CRM crm.Client
	// Email is the mailbox backend.
	Email email.Store
	// Sensitive lists capability names requiring approval before execution.
	// Nil means DefaultSensitive; an empty slice gates nothing.
	Sensitive []string
	// Monitored is the agent whose dispatches the revisor reviews.
	Monitored string
	// MaxRejections bounds consecutive revisor rejections (0 = default).
	MaxRejections int
	// OnEvent receives execution events from every agent.
	OnEvent func(agent.Event)
}

// BuildRoster assembles the orchestrator tree: a coordinating root with the
// query, validation, invoicing and emailing agents beneath it.
func BuildRoster(cfg RosterConfig) *agent.Node {
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = cfg.Provider
	}
	sensitive := cfg.Sensitive
	if sensitive == nil {
		sensitive = DefaultSensitive
	}
	gate := gateSensitive(sensitive)

	query := agent.New(agent.Config{
		Name:         "query",
		Purpose:      "looks up workers, timesheets, projects, invoices and incoming email",
		SystemPrompt: queryPrompt,
		Provider:     cfg.Provider,
		Capabilities: gate(append(crm.QueryCapabilities(cfg.CRM), email.ReadEmailsCapability(cfg.Email))),
		OnEvent:      cfg.OnEvent,
	})
	validation := agent.New(agent.Config{
		Name:         "validation",
		Purpose:      "checks reported activity against timesheets and validates them",
		SystemPrompt: validationPrompt,
		Provider:     cfg.Provider,
		Capabilities: gate(crm.ValidationCapabilities(cfg.CRM)),
		OnEvent:      cfg.OnEvent,
	})
	invoicing := agent.New(agent.Config{
		Name:         "invoicing",
		Purpose:      "generates invoices for validated periods and retrieves existing ones",
		SystemPrompt: invoicingPrompt,
		Provider:     cfg.Provider,
		Capabilities: gate(crm.InvoiceCapabilities(cfg.CRM)),
		OnEvent:      cfg.OnEvent,
	})
	emailing := agent.New(agent.Config{
		Name:         "emailing",
		Purpose:      "drafts and sends outgoing email",
		SystemPrompt: emailingPrompt,
		Provider:     cfg.Provider,
		Capabilities: gate(email.Capabilities(cfg.Email)),
		OnEvent:      cfg.OnEvent,
	})

	return agent.New(agent.Config{
		Name:          "orchestrator",
		Purpose:       "coordinates billing reconciliation",
		SystemPrompt:  rootPrompt,
		Provider:      cfg.Provider,
		Subagents:     []*agent.Node{query, validation, invoicing, emailing},
		Revisor:       revisor.New(classifier, cfg.Monitored),
		MaxRejections: cfg.MaxRejections,
		OnEvent:       cfg.OnEvent,
	})
}

// gateSensitive returns a transform wrapping listed capabilities behind
// approval gates.
func gateSensitive(names []string) func([]capability.Capability) []capability.Capability {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(caps []capability.Capability) []capability.Capability {
		out := make([]capability.Capability, len(caps))
		for i, c := range caps {
			if set[c.Name()] {
				out[i] = interrupt.NewGate(c)
			} else {
				out[i] = c
			}
		}
		return out
	}
}
