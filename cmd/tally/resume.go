package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mpellerin/tally/internal/interrupt"
)

var (
	resumeApprove []string
	resumeReject  []string
	resumeEdit    []string
)

var resumeCmd = &cobra.Command{
	Use:   "resume <thread-id>",
	Short: "Resolve pending approvals on a suspended thread",
	Long: `Resume a suspended thread by deciding its pending interrupts:

  tally resume <thread> --approve <id>
  tally resume <thread> --reject <id>="amount is wrong"
  tally resume <thread> --edit <id>='{"subject":"Corrected subject"}'

Undecided interrupts stay pending; the thread remains suspended until every
one is resolved.`,
	Args: cobra.ExactArgs(1),
	RunE: resumeThread,
}

func init() {
	resumeCmd.Flags().StringArrayVar(&resumeApprove, "approve", nil, "Interrupt id to approve (repeatable)")
	resumeCmd.Flags().StringArrayVar(&resumeReject, "reject", nil, "Interrupt id to reject, as id=reason (repeatable)")
	resumeCmd.Flags().StringArrayVar(&resumeEdit, "edit", nil, "Interrupt id to edit, as id=json-overrides (repeatable)")
}

func resumeThread(cmd *cobra.Command, args []string) error {
	decisions, err := parseDecisions()
	if err != nil {
		return err
	}
	if len(decisions) == 0 {
		return fmt.Errorf("no decisions given: use --approve, --reject or --edit")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.orch.Resume(ctx, args[0], decisions)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func parseDecisions() (map[string]interrupt.Decision, error) {
	decisions := make(map[string]interrupt.Decision)

	for _, id := range resumeApprove {
		decisions[id] = interrupt.Decision{Type: interrupt.DecisionApprove}
	}
	for _, spec := range resumeReject {
		id, reason, _ := strings.Cut(spec, "=")
		if id == "" {
			return nil, fmt.Errorf("invalid --reject %q: want id=reason", spec)
		}
		decisions[id] = interrupt.Decision{Type: interrupt.DecisionReject, Reason: reason}
	}
	for _, spec := range resumeEdit {
		id, overrides, ok := strings.Cut(spec, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --edit %q: want id=json-overrides", spec)
		}
		if !json.Valid([]byte(overrides)) {
			return nil, fmt.Errorf("invalid --edit %q: overrides are not valid JSON", spec)
		}
		decisions[id] = interrupt.Decision{Type: interrupt.DecisionEdit, Edits: json.RawMessage(overrides)}
	}
	return decisions, nil
}
