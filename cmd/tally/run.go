package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mpellerin/tally/internal/interrupt"
	"github.com/mpellerin/tally/internal/orchestrator"
)

var runWatchDir string

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Run a reconciliation request through the agent team",
	Long: `Run a request through the orchestrator, for example:

  tally run "Process the latest Acme activity report and prepare the invoice"

If a sensitive action needs approval the run suspends and prints its pending
interrupts. Resolve them with 'tally resume', or pass --watch to block on
decision files dropped into a directory (<interrupt-id>.json, containing
{"type":"approve"}, {"type":"edit","edits":{...}} or
{"type":"reject","reason":"..."}).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRequest,
}

func init() {
	runCmd.Flags().StringVar(&runWatchDir, "watch", "", "Directory watched for decision files while suspended")
}

func runRequest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.orch.Invoke(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	for result.Suspended && runWatchDir != "" {
		printPending(result)
		decisions, err := collectDecisions(ctx, result.Pending, runWatchDir)
		if err != nil {
			return err
		}
		result, err = a.orch.Resume(ctx, result.ThreadID, decisions)
		if err != nil {
			return err
		}
	}

	printResult(result)
	return nil
}

// collectDecisions blocks until a decision file lands for every pending
// interrupt.
func collectDecisions(ctx context.Context, pending []interrupt.Suspend, dir string) (map[string]interrupt.Decision, error) {
	controller := interrupt.NewController()
	for _, s := range pending {
		controller.Raise(s)
	}

	watcher, err := interrupt.NewDecisionWatcher(dir, controller)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	defer watcher.Close()
	watcher.Scan()

	decisions := make(map[string]interrupt.Decision, len(pending))
	for _, s := range pending {
		d, err := controller.Wait(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		decisions[s.ID] = d
	}
	return decisions, nil
}

func printPending(result *orchestrator.Result) {
	yellow := color.New(color.FgYellow)
	yellow.Printf("Thread %s suspended, awaiting %d decision(s):\n", result.ThreadID, len(result.Pending))
	for _, s := range result.Pending {
		fmt.Printf("  [%s] %s (agent %s)\n", s.ID, s.Capability, s.Agent)
		fmt.Printf("      action: %s\n", string(s.Action))
	}
}

func printResult(result *orchestrator.Result) {
	if result.Suspended {
		printPending(result)
		fmt.Println("\nResolve with:")
		fmt.Printf("  tally resume %s --approve <interrupt-id>\n", result.ThreadID)
		fmt.Printf("  tally resume %s --reject <interrupt-id>=<reason>\n", result.ThreadID)
		return
	}

	if len(result.Todos) > 0 {
		fmt.Println("Plan:")
		for i, todo := range result.Todos {
			fmt.Printf("  %d. %s\n", i+1, todo.Content)
		}
		fmt.Println()
	}
	color.New(color.FgGreen).Println("Answer:")
	fmt.Println(result.Answer)
}
