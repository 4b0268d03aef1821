package backup

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
)

type Mode string

const (
	// ModeReplace empties the destination account before restoring.
	ModeReplace Mode = "replace"
	// ModeMerge adds the document's rows to what the account already has.
	ModeMerge Mode = "merge"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeReplace, ModeMerge:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrInvalidMode, s)
}

// ImportResult summarises a finished import. A run with rejected rows still
// succeeds; Errors tells what was skipped.
type ImportResult struct {
	Mode   Mode                 `json:"mode"`
	Counts map[Collection]int   `json:"counts"`
	Purged map[Collection]int64 `json:"purged,omitempty"`
	Errors []string             `json:"errors"`
}

func newImportResult(mode Mode, plan *Plan) *ImportResult {
	res := &ImportResult{
		Mode:   mode,
		Counts: make(map[Collection]int, len(plan.Insert)),
		Errors: []string{},
	}
	for _, c := range plan.Insert {
		res.Counts[c] = 0
	}
	return res
}

// ExportStats is side information about an export. It is not part of the
// document.
type ExportStats struct {
	Size    int
	Counts  map[Collection]int
	Summary string
}

func newExportStats(doc *Document, size int, plan *Plan) *ExportStats {
	stats := &ExportStats{Size: size, Counts: make(map[Collection]int, len(plan.Insert))}
	parts := make([]string, 0, len(plan.Insert))
	for _, c := range plan.Insert {
		n := doc.Len(c)
		stats.Counts[c] = n
		parts = append(parts, fmt.Sprintf("%s=%d", c, n))
	}
	stats.Summary = strings.Join(parts, " ")
	return stats
}
