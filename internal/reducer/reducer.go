// Package reducer maps agent events onto console state. It owns the small
// state machine that correlates a *_start event with its later *_end or
// *_result event.
package reducer

import (
	"fmt"

	"anygent/internal/domain"
	"anygent/internal/events"
	"anygent/internal/logging"
)

// Store is the subset of the session store the reducer mutates
type Store interface {
	AddChatEntry(entry domain.ChatEntry) string
	AppendStreamingCode(chunk string)
	CurrentIteration() int
	MaxIterations() int
	SetAgentRunning(running bool)
	SetCodeStreaming(patch domain.CodeStreamingPatch)
	SetCurrentIteration(iteration int)
	SetMaxIterations(limit int)
	SetSandboxStatus(status domain.SandboxStatus)
	UpdateChatEntry(id string, fn func(*domain.ChatEntry)) bool
}

// Effects are fire-and-forget refreshes triggered by events. Implementations
// must not block the caller.
type Effects interface {
	RefreshFileTree()
	RefreshMemory()
}

// Stats counts events by outcome
type Stats struct {
	Applied int
	Unknown int
}

// openEntry is an assistant entry whose text is still streaming
type openEntry struct {
	id string
}

// inflightTool is the single open tool operation. It is either a writeOp or a readOp.
type inflightTool interface {
	entryID() string
}

type writeOp struct {
	id string
}

func (w writeOp) entryID() string { return w.id }

type readOp struct {
	id string
}

func (r readOp) entryID() string { return r.id }

// Reducer applies events to a Store in arrival order. It is not safe for
// concurrent use; one run is reduced on one goroutine.
type Reducer struct {
	effects Effects
	stats   Stats
	store   Store
	thought *openEntry
	tool    inflightTool
}

// New creates a reducer writing to store and triggering effects
func New(store Store, effects Effects) *Reducer {
	return &Reducer{
		effects: effects,
		store:   store,
	}
}

// Reset forgets every in-flight operation
func (r *Reducer) Reset() {
	r.thought = nil
	r.tool = nil
}

// Abort closes whatever is still open when a run ends without stream_end.
// A streaming thought keeps its partial text; an open tool card becomes an error.
func (r *Reducer) Abort() {
	r.finishThought(nil)
	r.failTool()
}

// Stats returns the event counters since creation
func (r *Reducer) Stats() Stats {
	return r.stats
}

// Apply reduces one event. It reports false for event types it does not know;
// those never touch the store.
func (r *Reducer) Apply(ev events.Event) bool {
	switch ev.Type {
	case events.TypeSandboxCreating:
		r.store.SetSandboxStatus(domain.SandboxCreating)

	case events.TypeSandboxReady:
		r.store.SetSandboxStatus(domain.SandboxReady)

	case events.TypeSandboxError:
		r.store.SetSandboxStatus(domain.SandboxError)
		r.addAssistant(fmt.Sprintf("Sandbox error: %s", ev.ResultError()), ev.Iteration)

	case events.TypeIterationStart, events.TypeIteration:
		if ev.MaxIterations > 0 {
			r.store.SetMaxIterations(ev.MaxIterations)
		}
		if ev.Iteration > 0 || ev.Type == events.TypeIteration {
			r.store.SetCurrentIteration(ev.Iteration)
		}

	case events.TypeThoughtStreamStart:
		r.finishThought(nil)
		id := r.store.AddChatEntry(domain.ChatEntry{
			IsStreaming: true,
			Iteration:   r.iteration(ev),
			Type:        domain.EntryAssistant,
		})
		r.thought = &openEntry{id: id}

	case events.TypeThoughtStreamChunk:
		if r.thought != nil {
			r.store.UpdateChatEntry(r.thought.id, func(e *domain.ChatEntry) {
				e.Content += ev.Chunk
			})
		}

	case events.TypeThoughtStreamEnd:
		content := ev.Content
		r.finishThought(&content)

	case events.TypeThought:
		if ev.Content != "" {
			r.addAssistant(ev.Content, r.iteration(ev))
		}

	case events.TypeCodeStreamStart:
		r.openWrite(ev.TargetPath(), ev)

	case events.TypeCodeStreamChunk:
		r.store.AppendStreamingCode(ev.Chunk)

	case events.TypeCodeStreamEnd:
		// content is already buffered from the chunks

	case events.TypeToolCall:
		// Non-streaming backends announce a write only through tool_call
		if ev.ToolName == events.ToolFileWrite {
			if _, open := r.tool.(writeOp); !open {
				r.openWrite(ev.TargetPath(), ev)
				r.store.AppendStreamingCode(ev.ArgumentString("content"))
			}
		}

	case events.TypeToolResult:
		if ev.ToolName == events.ToolFileWrite {
			r.resolveWrite(ev.ResultSuccess())
		}

	case events.TypeReadFileStart:
		r.openRead(ev.TargetPath(), ev)

	case events.TypeReadFileEnd:
		r.resolveRead(ev)

	case events.TypeToolError:
		r.failTool()
		r.store.SetCodeStreaming(domain.StopStreaming())

	case events.TypeComplete:
		r.effects.RefreshMemory()
		r.store.SetCodeStreaming(domain.StopStreaming())

	case events.TypeMaxIterationsReached:
		limit := ev.MaxIterations
		if limit <= 0 {
			limit = r.store.MaxIterations()
		}
		r.addAssistant(fmt.Sprintf("Maximum iterations (%d) reached. The agent has stopped.", limit), 0)
		r.store.SetCodeStreaming(domain.StopStreaming())

	case events.TypeError:
		r.addAssistant(fmt.Sprintf("Error: %s", ev.Error), 0)
		r.store.SetCodeStreaming(domain.StopStreaming())

	case events.TypeStreamEnd:
		r.finishThought(nil)
		r.failTool()
		r.store.SetAgentRunning(false)
		r.store.SetCodeStreaming(domain.StopStreaming())

	default:
		r.stats.Unknown++
		logging.Logger.Debug("Ignoring unknown event type", "type", ev.Type)
		return false
	}

	r.stats.Applied++
	return true
}

func (r *Reducer) iteration(ev events.Event) int {
	if ev.Iteration > 0 {
		return ev.Iteration
	}
	return r.store.CurrentIteration()
}

func (r *Reducer) addAssistant(content string, iteration int) {
	r.store.AddChatEntry(domain.ChatEntry{
		Content:   content,
		Iteration: iteration,
		Type:      domain.EntryAssistant,
	})
}

// finishThought closes the open assistant entry. A non-nil content replaces
// whatever the chunks accumulated.
func (r *Reducer) finishThought(content *string) {
	if r.thought == nil {
		return
	}
	r.store.UpdateChatEntry(r.thought.id, func(e *domain.ChatEntry) {
		if content != nil {
			e.Content = *content
		}
		e.IsStreaming = false
	})
	r.thought = nil
}

func (r *Reducer) openWrite(path string, ev events.Event) {
	r.supersedeTool()
	r.store.SetCodeStreaming(domain.StartStreaming(path, domain.ToolEditor, "Editing "+path))
	id := r.store.AddChatEntry(domain.ChatEntry{
		FilePath:   path,
		FileStatus: domain.FileWriting,
		Iteration:  r.iteration(ev),
		Type:       domain.EntryFileCard,
	})
	r.tool = writeOp{id: id}
}

func (r *Reducer) openRead(path string, ev events.Event) {
	r.supersedeTool()
	r.store.SetCodeStreaming(domain.StartStreaming(path, domain.ToolReader, "Reading "+path))
	id := r.store.AddChatEntry(domain.ChatEntry{
		FilePath:   path,
		Iteration:  r.iteration(ev),
		ReadStatus: domain.ReadReading,
		Type:       domain.EntryReadFileCard,
	})
	r.tool = readOp{id: id}
}

func (r *Reducer) resolveWrite(success bool) {
	op, ok := r.tool.(writeOp)
	if !ok {
		return
	}
	status := domain.FileError
	if success {
		status = domain.FileCreated
	}
	r.setFileStatus(op.id, status)
	r.tool = nil
	r.store.SetCodeStreaming(domain.StopStreaming())
	r.effects.RefreshFileTree()
}

func (r *Reducer) resolveRead(ev events.Event) {
	op, ok := r.tool.(readOp)
	if !ok {
		return
	}
	success := ev.ResultSuccess()
	status := domain.ReadError
	if success {
		status = domain.ReadDone
	}
	result := ev.ReadResult()
	r.store.UpdateChatEntry(op.id, func(e *domain.ChatEntry) {
		if e.ReadStatus.CanTransitionTo(status) {
			e.ReadStatus = status
		}
		e.ReadResult = result
	})
	r.tool = nil

	patch := domain.StopStreaming()
	if success {
		content := ev.ResultContent()
		patch.Content = &content
	}
	r.store.SetCodeStreaming(patch)
}

// failTool resolves whichever tool card is open as an error
func (r *Reducer) failTool() {
	switch op := r.tool.(type) {
	case writeOp:
		r.setFileStatus(op.id, domain.FileError)
	case readOp:
		r.store.UpdateChatEntry(op.id, func(e *domain.ChatEntry) {
			if e.ReadStatus.CanTransitionTo(domain.ReadError) {
				e.ReadStatus = domain.ReadError
			}
		})
	}
	r.tool = nil
}

// supersedeTool closes a tool card whose terminal event never arrived
func (r *Reducer) supersedeTool() {
	if r.tool == nil {
		return
	}
	logging.Logger.Debug("Tool operation superseded before its terminal event", "entry_id", r.tool.entryID())
	r.failTool()
}

func (r *Reducer) setFileStatus(id string, status domain.FileStatus) {
	r.store.UpdateChatEntry(id, func(e *domain.ChatEntry) {
		if e.FileStatus.CanTransitionTo(status) {
			e.FileStatus = status
		}
	})
}
