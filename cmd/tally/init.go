package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mpellerin/tally/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the user configuration file",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.GetUserConfigPath()

	if err := config.WriteTemplate(path); err != nil {
		printStatus("✗", err.Error(), color.FgRed)
		return err
	}
	printStatus("✓", fmt.Sprintf("Created %s", path), color.FgGreen)

	if os.Getenv("ANTHROPIC_API_KEY") == "" && os.Getenv("OPENAI_API_KEY") == "" {
		printStatus("⚠", "Neither ANTHROPIC_API_KEY nor OPENAI_API_KEY is set (you can set one later)", color.FgYellow)
	}
	return nil
}

func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
