package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"anygent/internal/domain"
)

// MemoryCmd shows the agent memory
type MemoryCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
	Limit  int    `help:"Maximum number of timeline rows" default:"20"`
}

// Run executes the memory command
func (m *MemoryCmd) Run(cli *CLI) error {
	memory, err := cli.Container.Client.Memory(context.Background())
	if err != nil {
		return err
	}

	if m.Format == "json" {
		return printJSON(memory)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Session\t%s\n", memory.SessionID)
	fmt.Fprintf(w, "Iterations\t%d/%d\n", memory.CurrentIteration, memory.MaxIterations)
	fmt.Fprintf(w, "Messages\t%d\n", memory.Stats.TotalMessages)
	fmt.Fprintf(w, "Tool calls\t%d\n", memory.Stats.ToolCalls)
	fmt.Fprintf(w, "Files created\t%d\n", memory.Stats.FilesCreated)
	w.Flush()

	if len(memory.Stats.FilesInContext) > 0 {
		fmt.Println("\nFiles in context:")
		for _, f := range memory.Stats.FilesInContext {
			fmt.Printf("  %s (%s)\n", f.Path, f.Type)
		}
	}

	fmt.Println("\nTimeline (newest first):")
	rows := memory.Timeline(m.Limit)
	if len(rows) == 0 {
		fmt.Println("  No activity yet.")
		return nil
	}
	for _, row := range rows {
		fmt.Println("  " + formatTimelineRow(row))
	}
	return nil
}

func formatTimelineRow(row domain.TimelineEntry) string {
	switch row.Kind {
	case domain.TimelineUser:
		return "user     " + row.Content
	case domain.TimelineThought:
		return "thought  " + row.Content
	case domain.TimelineToolCall:
		return "call     " + row.Content
	case domain.TimelineToolResult:
		symbol := domain.SymbolCreated
		if !row.OK {
			symbol = domain.SymbolError
		}
		return fmt.Sprintf("result   %s %s", symbol, row.Content)
	}
	return row.Content
}
