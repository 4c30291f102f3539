package crm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mpellerin/tally/internal/capability"
)

func encode(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}

// SearchWorkersCapability looks up workers by name.
func SearchWorkersCapability(client Client) capability.Capability {
	return capability.New("search_workers",
		"Search CRM workers by full or partial name. Returns matching workers with their ids.",
		capability.Schema{
			Properties: map[string]capability.Property{
				"name": {Type: "string", Description: "Full or partial worker name, e.g. 'LEGUAY Elodie'"},
			},
			Required: []string{"name"},
		},
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Name string `json:"name"`
			}
			if err := capability.DecodeArgs(args, &in); err != nil {
				return "", err
			}
			workers, err := client.SearchWorkers(ctx, in.Name)
			if err != nil {
				return "", err
			}
			if len(workers) == 0 {
				return fmt.Sprintf("No workers match %q.", in.Name), nil
			}
			return encode(workers)
		})
}

// GetTimesheetsCapability returns a worker's timesheets.
func GetTimesheetsCapability(client Client) capability.Capability {
	return capability.New("get_timesheets",
		"Get a worker's timesheets, optionally filtered to one month (YYYY-MM).",
		capability.Schema{
			Properties: map[string]capability.Property{
				"worker_id": {Type: "string", Description: "CRM worker id"},
				"month":     {Type: "string", Description: "Optional reporting month, YYYY-MM"},
			},
			Required: []string{"worker_id"},
		},
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				WorkerID string `json:"worker_id"`
				Month    string `json:"month"`
			}
			if err := capability.DecodeArgs(args, &in); err != nil {
				return "", err
			}
			sheets, err := client.WorkerTimesheets(ctx, in.WorkerID, in.Month)
			if err != nil {
				return "", err
			}
			if len(sheets) == 0 {
				return fmt.Sprintf("No timesheets for worker %s.", in.WorkerID), nil
			}
			return encode(sheets)
		})
}

// ValidateTimesheetCapability marks a saved timesheet as validated.
func ValidateTimesheetCapability(client Client) capability.Capability {
	return capability.New("validate_timesheet",
		"Validate a saved timesheet so it becomes invoiceable. Fails if already validated.",
		capability.Schema{
			Properties: map[string]capability.Property{
				"timesheet_id": {Type: "string", Description: "CRM timesheet id"},
			},
			Required: []string{"timesheet_id"},
		},
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				TimesheetID string `json:"timesheet_id"`
			}
			if err := capability.DecodeArgs(args, &in); err != nil {
				return "", err
			}
			ts, err := client.ValidateTimesheet(ctx, in.TimesheetID)
			if err != nil {
				return "", err
			}
			return encode(ts)
		})
}

// SearchProjectsCapability looks up projects by name.
func SearchProjectsCapability(client Client) capability.Capability {
	return capability.New("search_projects",
		"Search CRM projects by full or partial name.",
		capability.Schema{
			Properties: map[string]capability.Property{
				"name": {Type: "string", Description: "Full or partial project name"},
			},
			Required: []string{"name"},
		},
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Name string `json:"name"`
			}
			if err := capability.DecodeArgs(args, &in); err != nil {
				return "", err
			}
			projects, err := client.SearchProjects(ctx, in.Name)
			if err != nil {
				return "", err
			}
			if len(projects) == 0 {
				return fmt.Sprintf("No projects match %q.", in.Name), nil
			}
			return encode(projects)
		})
}

// SearchInvoicesCapability returns existing invoices for a project period.
func SearchInvoicesCapability(client Client) capability.Capability {
	return capability.New("search_invoices",
		"List existing invoices, optionally filtered by project and month.",
		capability.Schema{
			Properties: map[string]capability.Property{
				"project_id": {Type: "string", Description: "Optional CRM project id"},
				"month":      {Type: "string", Description: "Optional month, YYYY-MM"},
			},
		},
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				ProjectID string `json:"project_id"`
				Month     string `json:"month"`
			}
			if err := capability.DecodeArgs(args, &in); err != nil {
				return "", err
			}
			invoices, err := client.SearchInvoices(ctx, in.ProjectID, in.Month)
			if err != nil {
				return "", err
			}
			if len(invoices) == 0 {
				return "No invoices found.", nil
			}
			return encode(invoices)
		})
}

// GenerateInvoiceCapability creates an invoice for a project period.
func GenerateInvoiceCapability(client Client) capability.Capability {
	return capability.New("generate_invoice",
		"Generate an invoice for a project and month. All timesheets for the period must be validated first.",
		capability.Schema{
			Properties: map[string]capability.Property{
				"project_id": {Type: "string", Description: "CRM project id"},
				"month":      {Type: "string", Description: "Invoiced month, YYYY-MM"},
				"amount":     {Type: "number", Description: "Invoice amount excluding tax"},
			},
			Required: []string{"project_id", "month", "amount"},
		},
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				ProjectID string  `json:"project_id"`
				Month     string  `json:"month"`
				Amount    float64 `json:"amount"`
			}
			if err := capability.DecodeArgs(args, &in); err != nil {
				return "", err
			}
			inv, err := client.GenerateInvoice(ctx, in.ProjectID, in.Month, in.Amount)
			if err != nil {
				return "", err
			}
			return encode(inv)
		})
}

// QueryCapabilities is the read-only CRM set used by the query agent.
func QueryCapabilities(client Client) []capability.Capability {
	return []capability.Capability{
		SearchWorkersCapability(client),
		GetTimesheetsCapability(client),
		SearchProjectsCapability(client),
		SearchInvoicesCapability(client),
	}
}

// ValidationCapabilities is the set used by the validation agent.
func ValidationCapabilities(client Client) []capability.Capability {
	return []capability.Capability{
		GetTimesheetsCapability(client),
		ValidateTimesheetCapability(client),
	}
}

// InvoiceCapabilities is the set used by the invoice agent.
func InvoiceCapabilities(client Client) []capability.Capability {
	return []capability.Capability{
		SearchProjectsCapability(client),
		SearchInvoicesCapability(client),
		GenerateInvoiceCapability(client),
	}
}
