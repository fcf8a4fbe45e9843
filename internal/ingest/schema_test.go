package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AngelCh415/jobkpi/internal/models"
)

func TestValidate(t *testing.T) {
	schemas := DefaultSchemas()

	full := models.Row{"Date": "", "Job": "J1", "Customer": "", "Opportunity Owner": "", "Status": "", "Revenue": ""}
	if v := Validate([]models.Row{full}, schemas[Opportunities]); !v.Valid || len(v.Errors) != 0 {
		t.Fatalf("complete row rejected: %+v", v)
	}

	noRevenue := models.Row{"Date": "", "Job": "J1", "Customer": "", "Opportunity Owner": "", "Status": ""}
	v := Validate([]models.Row{noRevenue}, schemas[Opportunities])
	if v.Valid {
		t.Fatalf("missing Revenue accepted")
	}
	if len(v.Missing) != 1 || v.Missing[0] != "Revenue" {
		t.Fatalf("missing = %v", v.Missing)
	}
	if len(v.Errors) != 1 || !strings.Contains(v.Errors[0], "Revenue") {
		t.Fatalf("errors = %v", v.Errors)
	}
	var verr *ValidationError
	if err := v.Err(Opportunities); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := verr.Error(); got != "Opportunities file validation failed: Missing required columns: Revenue" {
		t.Fatalf("message = %q", got)
	}

	items := Validate([]models.Row{{"Job": "J1"}}, schemas[LineItems])
	want := []string{"Opp. Owner", "Category", "Line Item", "Price"}
	if strings.Join(items.Missing, "|") != strings.Join(want, "|") {
		t.Fatalf("line items missing = %v", items.Missing)
	}
}

func TestValidateEmpty(t *testing.T) {
	v := Validate(nil, DefaultSchemas()[LineItems])
	if v.Valid || len(v.Errors) != 1 || v.Errors[0] != "No data found in file" {
		t.Fatalf("empty input = %+v", v)
	}
	var nerr *NoDataError
	if err := v.Err(LineItems); !errors.As(err, &nerr) {
		t.Fatalf("expected NoDataError, got %v", err)
	}
}

func TestLoadSchemasAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	yml := "opportunities:\n  Opportunity Owner: [Technician]\nline_items:\n  Price: [Amount]\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	schemas, err := LoadSchemas(path)
	if err != nil {
		t.Fatalf("LoadSchemas: %v", err)
	}

	rows := []models.Row{{"Date": "2024-01-02", "Job": "J1", "Customer": "C", "Technician": "Ana", "Status": "Won", "Revenue": "5"}}
	if v := Validate(rows, schemas[Opportunities]); !v.Valid {
		t.Fatalf("alias not honoured: %+v", v)
	}
	opps := ToOpportunities(rows, schemas[Opportunities])
	if opps[0].Owner != "Ana" {
		t.Fatalf("owner = %q", opps[0].Owner)
	}

	if DefaultSchemas()[Opportunities].Columns[3].Aliases != nil {
		t.Fatalf("loading aliases changed the defaults")
	}
}

func TestLoadSchemasErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("opportunities:\n  Nope: [X]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSchemas(bad); err == nil {
		t.Fatalf("unknown column should fail")
	}
	if _, err := LoadSchemas(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("missing file should fail")
	}
	if s, err := LoadSchemas(""); err != nil || len(s) != 2 {
		t.Fatalf("empty path should return defaults, got %v %v", s, err)
	}
}

func TestToRecords(t *testing.T) {
	schemas := DefaultSchemas()
	opps := ToOpportunities([]models.Row{
		{"Date": "2024-01-02", "Job": "J1", "Customer": "Acme", "Opportunity Owner": "Ana", "Status": "Won",
			"Revenue": "100", "Membership Opportunity": "YES", "Membership Sold": "no", "Source": "Web"},
	}, schemas[Opportunities])
	o := opps[0]
	if o.JobID != "J1" || o.Customer != "Acme" || !o.Revenue.Valid || o.Revenue.Decimal.String() != "100" {
		t.Fatalf("opportunity = %+v", o)
	}
	if !o.MembershipOpportunity || o.MembershipSold {
		t.Fatalf("membership flags = %v/%v", o.MembershipOpportunity, o.MembershipSold)
	}
	if o.Fields["Source"] != "Web" {
		t.Fatalf("pass-through column lost")
	}

	items := ToLineItems([]models.Row{
		{"Job": "J1", "Opp. Owner": "Ana", "Category": "Drain", "Line Item": "Snake", "Price": "n/a"},
	}, schemas[LineItems])
	if items[0].Name != "Snake" || items[0].Owner != "Ana" || items[0].Price.Valid {
		t.Fatalf("line item = %+v", items[0])
	}
}
