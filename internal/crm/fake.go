package crm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fake is an in-memory CRM seeded with a small demo dataset. It is safe for
// concurrent use.
type Fake struct {
	mu         sync.RWMutex
	workers    []Worker
	timesheets map[string]*Timesheet
	projects   []Project
	invoices   []Invoice
	nextID     int
}

// NewFake creates a fake CRM preloaded with the demo dataset: two consultants
// on the production line modernisation project with saved September reports.
func NewFake() *Fake {
	f := &Fake{
		workers: []Worker{
			{ID: "w-101", FirstName: "Elodie", LastName: "LEGUAY", Email: "elodie.leguay@company.com", Title: "Consultant"},
			{ID: "w-102", FirstName: "Didier", LastName: "GEIG", Email: "didier.geig@company.com", Title: "Consultant"},
			{ID: "w-103", FirstName: "Jon", LastName: "LEVIN", Email: "jon.levin@company.com", Title: "Consultant"},
		},
		timesheets: map[string]*Timesheet{
			"ts-2001": {ID: "ts-2001", WorkerID: "w-101", Project: "p-301", Month: "2025-09", DaysWorked: 22, Amount: 14452, State: TimesheetSaved},
			"ts-2002": {ID: "ts-2002", WorkerID: "w-102", Project: "p-301", Month: "2025-09", DaysWorked: 12, Amount: 7860, State: TimesheetSaved},
			"ts-2003": {ID: "ts-2003", WorkerID: "w-103", Project: "p-302", Month: "2025-09", DaysWorked: 18, Amount: 11700, State: TimesheetValidated},
		},
		projects: []Project{
			{ID: "p-301", Name: "Project Modernisation - Production Line", Client: "Acme Industrie"},
			{ID: "p-302", Name: "Data Platform Migration", Client: "Nordwind SA"},
		},
		nextID: 5000,
	}
	return f
}

// SearchWorkers implements Client.
func (f *Fake) SearchWorkers(ctx context.Context, name string) ([]Worker, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	query := strings.ToLower(strings.TrimSpace(name))
	var out []Worker
	for _, w := range f.workers {
		full := strings.ToLower(w.FirstName + " " + w.LastName)
		reversed := strings.ToLower(w.LastName + " " + w.FirstName)
		if query == "" || strings.Contains(full, query) || strings.Contains(reversed, query) {
			out = append(out, w)
		}
	}
	return out, nil
}

// WorkerTimesheets implements Client.
func (f *Fake) WorkerTimesheets(ctx context.Context, workerID, month string) ([]Timesheet, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	found := false
	for _, w := range f.workers {
		if w.ID == workerID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: worker %s", ErrNotFound, workerID)
	}

	var out []Timesheet
	for _, ts := range f.timesheets {
		if ts.WorkerID != workerID {
			continue
		}
		if month != "" && ts.Month != month {
			continue
		}
		out = append(out, *ts)
	}
	return out, nil
}

// ValidateTimesheet implements Client.
func (f *Fake) ValidateTimesheet(ctx context.Context, timesheetID string) (*Timesheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts, ok := f.timesheets[timesheetID]
	if !ok {
		return nil, fmt.Errorf("%w: timesheet %s", ErrNotFound, timesheetID)
	}
	if ts.State == TimesheetValidated {
		return nil, fmt.Errorf("timesheet %s is already validated", timesheetID)
	}
	ts.State = TimesheetValidated
	copied := *ts
	return &copied, nil
}

// SearchProjects implements Client.
func (f *Fake) SearchProjects(ctx context.Context, name string) ([]Project, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	query := strings.ToLower(strings.TrimSpace(name))
	var out []Project
	for _, p := range f.projects {
		if query == "" || strings.Contains(strings.ToLower(p.Name), query) {
			out = append(out, p)
		}
	}
	return out, nil
}

// SearchInvoices implements Client.
func (f *Fake) SearchInvoices(ctx context.Context, projectID, month string) ([]Invoice, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []Invoice
	for _, inv := range f.invoices {
		if projectID != "" && inv.Project != projectID {
			continue
		}
		if month != "" && inv.Month != month {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

// GenerateInvoice implements Client. Every timesheet for the period must be
// validated first.
func (f *Fake) GenerateInvoice(ctx context.Context, projectID, month string, amount float64) (*Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	exists := false
	for _, p := range f.projects {
		if p.ID == projectID {
			exists = true
			break
		}
	}
	if !exists {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}

	for _, ts := range f.timesheets {
		if ts.Project == projectID && ts.Month == month && ts.State != TimesheetValidated {
			return nil, fmt.Errorf("timesheet %s for %s is not validated", ts.ID, month)
		}
	}

	f.nextID++
	inv := Invoice{
		ID:      fmt.Sprintf("inv-%d", f.nextID),
		Project: projectID,
		Month:   month,
		Amount:  amount,
		State:   "created",
	}
	f.invoices = append(f.invoices, inv)
	return &inv, nil
}

var _ Client = (*Fake)(nil)
