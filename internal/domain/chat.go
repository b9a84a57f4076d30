package domain

import "time"

// EntryType identifies the variant of a chat transcript entry
type EntryType string

const (
	EntryAssistant    EntryType = "assistant"
	EntryFileCard     EntryType = "file_card"
	EntryReadFileCard EntryType = "read_file_card"
	EntryUser         EntryType = "user"
)

// FileStatus is the lifecycle of a file-write card
type FileStatus string

const (
	FileCreated FileStatus = "created"
	FileError   FileStatus = "error"
	FileWriting FileStatus = "writing"
)

// ReadStatus is the lifecycle of a file-read card
type ReadStatus string

const (
	ReadDone    ReadStatus = "read"
	ReadError   ReadStatus = "error"
	ReadReading ReadStatus = "reading"
)

// Symbols shown next to file cards
const (
	SymbolCreated = "✓"
	SymbolError   = "✗"
	SymbolPending = "…"
)

// ReadResult holds the structured outcome of a file read reported by the agent
type ReadResult struct {
	FileName   string
	FileSize   int64
	LinesRead  int
	Message    string
	TotalLines int
	Truncated  bool
}

// ChatEntry is one displayed transcript item
type ChatEntry struct {
	Content     string
	FilePath    string
	FileStatus  FileStatus
	ID          string
	IsStreaming bool
	Iteration   int
	ReadResult  *ReadResult
	ReadStatus  ReadStatus
	Timestamp   time.Time
	Type        EntryType
}

// CanTransitionTo reports whether a file card may move from its current status to next.
// Cards only leave "writing"; terminal statuses never change.
func (s FileStatus) CanTransitionTo(next FileStatus) bool {
	if s == next {
		return true
	}
	return s == FileWriting && (next == FileCreated || next == FileError)
}

// CanTransitionTo reports whether a read card may move from its current status to next
func (s ReadStatus) CanTransitionTo(next ReadStatus) bool {
	if s == next {
		return true
	}
	return s == ReadReading && (next == ReadDone || next == ReadError)
}

// Clone returns a deep copy of the entry
func (e ChatEntry) Clone() ChatEntry {
	if e.ReadResult != nil {
		rr := *e.ReadResult
		e.ReadResult = &rr
	}
	return e
}

// Symbol returns the status glyph for file and read cards
func (e ChatEntry) Symbol() string {
	switch e.Type {
	case EntryFileCard:
		switch e.FileStatus {
		case FileCreated:
			return SymbolCreated
		case FileError:
			return SymbolError
		}
		return SymbolPending
	case EntryReadFileCard:
		switch e.ReadStatus {
		case ReadDone:
			return SymbolCreated
		case ReadError:
			return SymbolError
		}
		return SymbolPending
	}
	return ""
}
