package ingest

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/AngelCh415/jobkpi/internal/models"
)

// Normalize trims every cell (NFC-folding it so equal names compare equal)
// and drops rows whose cells are all empty. Input rows are not modified.
func Normalize(raw []models.RawRow) []models.Row {
	out := make([]models.Row, 0, len(raw))
	for _, r := range raw {
		row := make(models.Row, len(r))
		empty := true
		for k, v := range r {
			v = cleanCell(v)
			row[k] = v
			if v != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		out = append(out, row)
	}
	return out
}

func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return norm.NFC.String(s)
}

func isYes(s string) bool { return strings.EqualFold(strings.TrimSpace(s), "yes") }
