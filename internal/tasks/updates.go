package tasks

import (
	"fmt"

	"github.com/desertthunder/wlx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadList Phase = iota
	EnrichChunk
	LookupEntry
	Commit
	ImportFile
	ExportFile
)

func (p Phase) String() string {
	switch p {
	case LoadList:
		return "load_list"
	case EnrichChunk:
		return "enrich_chunk"
	case LookupEntry:
		return "lookup_entry"
	case Commit:
		return "commit"
	case ImportFile:
		return "import_file"
	case ExportFile:
		return "export_file"
	default:
		return ""
	}
}

func loadListUpdate(uid string) ProgressUpdate {
	msg := "Loading sample watchlist..."
	if uid != "" {
		msg = "Loading watchlist..."
	}
	return ProgressUpdate{Phase: LoadList, Step: 1, Total: 1, Message: msg}
}

func enrichChunkUpdate(step, total, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnrichChunk,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Requesting ratings for %d entries...", step, total, size),
	}
}

func lookupEntryUpdate(step, total int, e models.Entry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LookupEntry,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, e.Label()),
	}
}

func lookupFailedUpdate(step, total int, e models.Entry, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LookupEntry,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, e.Label(), err),
	}
}

func commitUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Commit,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saving %d entries...", count),
	}
}

func importFileUpdate(path string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportFile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Read %d entries from %s", count, path),
	}
}

func exportFileUpdate(path string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportFile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("✓ Exported %d entries to %s", count, path),
		Data:    path,
	}
}
