package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dustin/go-humanize"

	"anygent/internal/domain"
	"anygent/internal/logging"
	"anygent/internal/services"
)

// ChatCmd runs the agent once and prints transcript entries as they finalize
type ChatCmd struct {
	Message []string `arg:"" help:"Message for the agent"`
}

// Run executes the chat command
func (c *ChatCmd) Run(cli *CLI) error {
	ctx := context.Background()
	console, err := cli.Container.NewConsole(ctx)
	if err != nil {
		return err
	}
	cli.attachSound(console)

	printer := newTranscriptPrinter(os.Stdout)
	st := console.Store()
	unsubscribe := st.Subscribe(func() {
		printer.Flush(st.ChatEntries(), false)
	})
	defer unsubscribe()

	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	go stopOnSignal(sigCtx, console)

	err = console.Send(ctx, strings.Join(c.Message, " "))
	printer.Flush(st.ChatEntries(), true)

	switch {
	case errors.Is(err, domain.ErrNoAPIKey):
		return fmt.Errorf("%w: run 'anygent settings set api-key <key>' or set ANYGENT_API_KEY", err)
	case errors.Is(err, domain.ErrRunFailed):
		// Already printed as part of the transcript
		return errors.New("agent run failed")
	}
	return err
}

// stopOnSignal stops the run when ctx is cancelled by an interrupt
func stopOnSignal(ctx context.Context, console *services.ConsoleService) {
	<-ctx.Done()
	if !console.Running() {
		return
	}
	logging.Logger.Info("Interrupted, stopping agent run")

	stopCtx, cancel := context.WithTimeout(context.Background(), stopOnExitTimeout)
	defer cancel()
	if err := console.Stop(stopCtx); err != nil {
		logging.Logger.Warn("Failed to stop agent", "error", err)
	}
}

// transcriptPrinter writes chat entries in order, each once, as soon as the
// entry and every entry before it are final
type transcriptPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	printed int
}

func newTranscriptPrinter(out io.Writer) *transcriptPrinter {
	return &transcriptPrinter{out: out}
}

// Flush prints entries not printed yet. With force set, pending entries are
// printed as they are.
func (p *transcriptPrinter) Flush(entries []domain.ChatEntry, force bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.printed < len(entries) {
		entry := entries[p.printed]
		if !force && !entryFinal(entry) {
			return
		}
		if text := formatEntry(entry); text != "" {
			fmt.Fprintln(p.out, text)
		}
		p.printed++
	}
}

func entryFinal(e domain.ChatEntry) bool {
	switch e.Type {
	case domain.EntryAssistant:
		return !e.IsStreaming
	case domain.EntryFileCard:
		return e.FileStatus != domain.FileWriting
	case domain.EntryReadFileCard:
		return e.ReadStatus != domain.ReadReading
	}
	return true
}

func formatEntry(e domain.ChatEntry) string {
	switch e.Type {
	case domain.EntryAssistant:
		content := strings.TrimSpace(e.Content)
		if content == "" {
			return ""
		}
		if e.Iteration > 0 {
			return fmt.Sprintf("[iteration %d]\n%s\n", e.Iteration, content)
		}
		return content + "\n"
	case domain.EntryFileCard:
		return fmt.Sprintf("%s write %s (%s)", e.Symbol(), e.FilePath, e.FileStatus)
	case domain.EntryReadFileCard:
		line := fmt.Sprintf("%s read %s (%s)", e.Symbol(), e.FilePath, e.ReadStatus)
		if detail := readSummary(e.ReadResult); detail != "" {
			line += " " + detail
		}
		return line
	}
	// The user's own message is already on the command line
	return ""
}

func readSummary(r *domain.ReadResult) string {
	if r == nil {
		return ""
	}
	if r.Message != "" {
		return r.Message
	}
	parts := []string{fmt.Sprintf("%d/%d lines", r.LinesRead, r.TotalLines)}
	if r.FileSize > 0 {
		parts = append(parts, humanize.Bytes(uint64(r.FileSize)))
	}
	if r.Truncated {
		parts = append(parts, "truncated")
	}
	return strings.Join(parts, " · ")
}
