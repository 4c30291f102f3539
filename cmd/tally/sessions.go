package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List suspended threads awaiting decisions",
	RunE:  listSessions,
}

func listSessions(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	summaries, err := a.orch.Sessions().Suspended(cmd.Context())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No suspended threads.")
		return nil
	}

	yellow := color.New(color.FgYellow)
	for _, s := range summaries {
		yellow.Printf("%s  (updated %s)\n", s.ThreadID, s.UpdatedAt.Format(time.RFC3339))
		for _, p := range s.Pending {
			fmt.Printf("  [%s] %s (agent %s)\n", p.ID, p.Capability, p.Agent)
		}
	}
	return nil
}
