// Package crm defines the interface to the company's CRM (workers, timesheets,
// projects, invoices) and an in-memory fake used for local runs and tests.
// The real HTTP client lives outside this module and plugs in behind Client.
package crm

import (
	"context"
	"errors"
)

// ErrNotFound indicates a CRM entity that does not exist.
var ErrNotFound = errors.New("crm: not found")

// Worker is a consultant registered in the CRM.
type Worker struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Title     string `json:"title,omitempty"`
}

// TimesheetState is the validation state of a timesheet.
type TimesheetState string

const (
	// TimesheetSaved means the worker entered the report but nobody validated it.
	TimesheetSaved TimesheetState = "saved"
	// TimesheetValidated means the report has been validated for invoicing.
	TimesheetValidated TimesheetState = "validated"
)

// Timesheet is one worker's activity report for one month on one project.
type Timesheet struct {
	ID       string `json:"id"`
	WorkerID string `json:"worker_id"`
	Project  string `json:"project_id"`
	// Month is the reporting period in YYYY-MM form.
	Month string `json:"month"`
	// DaysWorked is the declared number of worked days.
	DaysWorked float64 `json:"days_worked"`
	// Amount is the billable amount excluding tax.
	Amount float64        `json:"amount"`
	State  TimesheetState `json:"state"`
}

// Project is a client engagement that timesheets and invoices attach to.
type Project struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Client string `json:"client"`
}

// Invoice is a generated invoice for a project period.
type Invoice struct {
	ID      string  `json:"id"`
	Project string  `json:"project_id"`
	Month   string  `json:"month"`
	Amount  float64 `json:"amount"`
	State   string  `json:"state"`
}

// Client is the CRM surface the agents operate against.
type Client interface {
	// SearchWorkers finds workers whose name matches the query.
	SearchWorkers(ctx context.Context, name string) ([]Worker, error)
	// WorkerTimesheets returns a worker's timesheets, optionally filtered by
	// month (YYYY-MM, empty for all).
	WorkerTimesheets(ctx context.Context, workerID, month string) ([]Timesheet, error)
	// ValidateTimesheet marks a saved timesheet as validated.
	ValidateTimesheet(ctx context.Context, timesheetID string) (*Timesheet, error)
	// SearchProjects finds projects whose name matches the query.
	SearchProjects(ctx context.Context, name string) ([]Project, error)
	// SearchInvoices returns existing invoices for a project, optionally
	// filtered by month.
	SearchInvoices(ctx context.Context, projectID, month string) ([]Invoice, error)
	// GenerateInvoice creates an invoice for a project period.
	GenerateInvoice(ctx context.Context, projectID, month string, amount float64) (*Invoice, error)
}
