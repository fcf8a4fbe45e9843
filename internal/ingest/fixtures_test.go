package ingest

import (
	"io"
	"log/slog"
	"testing"

	"github.com/xuri/excelize/v2"
)

// xlsx builds a single-sheet workbook. A nil row leaves that sheet row blank.
func xlsx(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		if row == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

var oppHeader = []any{"Date", "Job", "Customer", "Opportunity Owner", "Status", "Revenue", "Membership Opportunity", "Membership Sold"}

var itemHeader = []any{"Job", "Opp. Owner", "Category", "Line Item", "Price"}

func oppsWorkbook(t *testing.T) []byte {
	return xlsx(t,
		oppHeader,
		[]any{"2024-01-02", "J1", "Acme", "Ana", "Won", "1200.50", "Yes", "yes"},
		[]any{"2024-01-03", "J2", "Birch", "Ana", "Lost", "", "YES", "no"},
		[]any{"2024-01-09", "J3", "Cole", "Bo", "Won", "$300", "", ""},
	)
}

func itemsWorkbook(t *testing.T) []byte {
	return xlsx(t,
		itemHeader,
		[]any{"J1", "Ana", "Plumbing", "Hydro Jetting Main Line", "900"},
		[]any{"J1", "Ana", "Water Heater", "Flush", "300.50"},
		[]any{"J3", "Bo", "Drain", "Descaling", "300"},
		[]any{"J8", "Cy", "Drain", "Orphan", "10"},
	)
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
