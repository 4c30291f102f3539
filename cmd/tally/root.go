package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Billing reconciliation agent orchestrator",
	Long: `Tally runs a team of agents that reconcile client-emailed activity
reports against the CRM, validate timesheets, and generate and deliver
invoices.

Sensitive actions (sending email, generating invoices) suspend the run
until a human approves, edits or rejects them. Suspended threads persist
across processes and are resumed with 'tally resume'.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(versionCmd)
}
