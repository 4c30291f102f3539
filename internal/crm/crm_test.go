package crm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestFakeSearchWorkers(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	cases := []struct {
		query string
		want  string
	}{
		{"LEGUAY", "w-101"},
		{"leguay elodie", "w-101"},
		{"Elodie LEGUAY", "w-101"},
		{"GEIG", "w-102"},
	}
	for _, tc := range cases {
		workers, err := f.SearchWorkers(ctx, tc.query)
		if err != nil {
			t.Fatalf("SearchWorkers(%q) failed: %v", tc.query, err)
		}
		if len(workers) != 1 || workers[0].ID != tc.want {
			t.Errorf("SearchWorkers(%q) = %v, want single %s", tc.query, workers, tc.want)
		}
	}

	none, err := f.SearchWorkers(ctx, "DUPONT")
	if err != nil {
		t.Fatalf("SearchWorkers failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no match, got %v", none)
	}
}

func TestFakeTimesheets(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	sheets, err := f.WorkerTimesheets(ctx, "w-101", "2025-09")
	if err != nil {
		t.Fatalf("WorkerTimesheets failed: %v", err)
	}
	if len(sheets) != 1 {
		t.Fatalf("expected 1 timesheet, got %d", len(sheets))
	}
	if sheets[0].DaysWorked != 22 || sheets[0].Amount != 14452 {
		t.Errorf("unexpected seed data: %+v", sheets[0])
	}
	if sheets[0].State != TimesheetSaved {
		t.Errorf("seed timesheet should start saved, got %q", sheets[0].State)
	}

	if _, err := f.WorkerTimesheets(ctx, "w-999", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown worker, got %v", err)
	}
}

func TestFakeValidateTimesheet(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	ts, err := f.ValidateTimesheet(ctx, "ts-2001")
	if err != nil {
		t.Fatalf("ValidateTimesheet failed: %v", err)
	}
	if ts.State != TimesheetValidated {
		t.Errorf("expected validated, got %q", ts.State)
	}

	if _, err := f.ValidateTimesheet(ctx, "ts-2001"); err == nil {
		t.Error("validating twice should fail")
	}
	if _, err := f.ValidateTimesheet(ctx, "ts-9999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFakeGenerateInvoice(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	// Saved timesheets block invoicing.
	if _, err := f.GenerateInvoice(ctx, "p-301", "2025-09", 22312); err == nil {
		t.Fatal("invoicing with unvalidated timesheets should fail")
	}

	if _, err := f.ValidateTimesheet(ctx, "ts-2001"); err != nil {
		t.Fatalf("validate ts-2001: %v", err)
	}
	if _, err := f.ValidateTimesheet(ctx, "ts-2002"); err != nil {
		t.Fatalf("validate ts-2002: %v", err)
	}

	inv, err := f.GenerateInvoice(ctx, "p-301", "2025-09", 22312)
	if err != nil {
		t.Fatalf("GenerateInvoice failed: %v", err)
	}
	if inv.Amount != 22312 || inv.Month != "2025-09" {
		t.Errorf("unexpected invoice: %+v", inv)
	}

	found, err := f.SearchInvoices(ctx, "p-301", "2025-09")
	if err != nil {
		t.Fatalf("SearchInvoices failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != inv.ID {
		t.Errorf("invoice not listed: %v", found)
	}

	if _, err := f.GenerateInvoice(ctx, "p-999", "2025-09", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown project, got %v", err)
	}
}

func TestCapabilities(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	search := SearchWorkersCapability(f)
	out, err := search.Invoke(ctx, json.RawMessage(`{"name":"GEIG"}`))
	if err != nil {
		t.Fatalf("search_workers failed: %v", err)
	}
	if !strings.Contains(out, "w-102") || !strings.Contains(out, "Didier") {
		t.Errorf("unexpected search output: %s", out)
	}

	sheets := GetTimesheetsCapability(f)
	out, err = sheets.Invoke(ctx, json.RawMessage(`{"worker_id":"w-102","month":"2025-09"}`))
	if err != nil {
		t.Fatalf("get_timesheets failed: %v", err)
	}
	if !strings.Contains(out, "7860") {
		t.Errorf("expected amount in output, got %s", out)
	}

	validate := ValidateTimesheetCapability(f)
	if _, err := validate.Invoke(ctx, json.RawMessage(`{"timesheet_id":"ts-2002"}`)); err != nil {
		t.Fatalf("validate_timesheet failed: %v", err)
	}

	// Error surfaces to the caller for folding, not as text.
	if _, err := validate.Invoke(ctx, json.RawMessage(`{"timesheet_id":"ts-2002"}`)); err == nil {
		t.Error("second validation should return an error")
	}

	names := map[string]bool{}
	for _, c := range QueryCapabilities(f) {
		names[c.Name()] = true
	}
	for _, want := range []string{"search_workers", "get_timesheets", "search_projects", "search_invoices"} {
		if !names[want] {
			t.Errorf("query set missing %s", want)
		}
	}
	if names["validate_timesheet"] || names["generate_invoice"] {
		t.Error("query set must stay read-only")
	}
}
