package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"anygent/internal/domain"
)

// StopCmd stops the agent run on the backend
type StopCmd struct{}

// Run executes the stop command
func (s *StopCmd) Run(cli *CLI) error {
	ack, err := cli.Container.Client.Stop(context.Background())
	if err != nil {
		return err
	}
	printAck(ack, "Agent stopped")
	return nil
}

// ResetCmd resets the agent session and its sandbox
type ResetCmd struct{}

// Run executes the reset command
func (r *ResetCmd) Run(cli *CLI) error {
	ack, err := cli.Container.Client.Reset(context.Background())
	if err != nil {
		return err
	}
	printAck(ack, "Agent reset and sandbox cleared")
	return nil
}

func printAck(ack domain.Ack, fallback string) {
	switch {
	case !ack.Success && ack.Error != "":
		fmt.Println(ack.Error)
	case ack.Message != "":
		fmt.Println(ack.Message)
	default:
		fmt.Println(fallback)
	}
}

// ModelsCmd lists the models available for the configured API key
type ModelsCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

// Run executes the models command
func (m *ModelsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	prefs, err := cli.Container.Preferences(ctx)
	if err != nil {
		return err
	}
	if !prefs.HasAPIKey() {
		return fmt.Errorf("%w: run 'anygent settings set api-key <key>' or set ANYGENT_API_KEY", domain.ErrNoAPIKey)
	}

	models, err := cli.Container.Client.Models(ctx, prefs.APIKey)
	if err != nil {
		return err
	}

	if m.Format == "json" {
		return printJSON(models)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tName\tContext")
	fmt.Fprintln(w, "──\t────\t───────")
	for _, model := range models {
		marker := ""
		if model.ID == prefs.SelectedModel {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\n", model.ID, marker, model.Name, humanize.Comma(int64(model.ContextLength)))
	}
	w.Flush()

	fmt.Printf("\n%d models. * marks the selected model.\n", len(models))
	return nil
}

// StatusCmd shows agent and sandbox status
type StatusCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

// Run executes the status command
func (s *StatusCmd) Run(cli *CLI) error {
	ctx := context.Background()
	if err := cli.Container.Client.Health(ctx); err != nil {
		return err
	}

	status, err := cli.Container.Client.Status(ctx)
	if err != nil {
		return err
	}

	if s.Format == "json" {
		return printJSON(status)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Backend\t%s\n", cli.Container.Client.BaseURL())
	fmt.Fprintf(w, "Session\t%s\n", status.SessionID)
	fmt.Fprintf(w, "Agent\t%s\n", status.Status)
	fmt.Fprintf(w, "Iteration\t%d/%d\n", status.CurrentIteration, status.MaxIterations)
	fmt.Fprintf(w, "Sandbox\t%s\n", sandboxSummary(status.Sandbox))
	w.Flush()
	return nil
}

func sandboxSummary(info *domain.SandboxInfo) string {
	switch {
	case info == nil, !info.Exists:
		return "none"
	case info.Error != "":
		return "error: " + info.Error
	case info.IsRunning:
		return "running"
	}
	return "stopped"
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
