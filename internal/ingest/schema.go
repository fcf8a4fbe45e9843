package ingest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AngelCh415/jobkpi/internal/models"
)

// Canonical column names of the two reports.
const (
	ColDate                  = "Date"
	ColJob                   = "Job"
	ColCustomer              = "Customer"
	ColOwner                 = "Opportunity Owner"
	ColStatus                = "Status"
	ColRevenue               = "Revenue"
	ColMembershipOpportunity = "Membership Opportunity"
	ColMembershipSold        = "Membership Sold"

	ColLineOwner = "Opp. Owner"
	ColCategory  = "Category"
	ColLineItem  = "Line Item"
	ColPrice     = "Price"
)

type Column struct {
	Name     string
	Aliases  []string
	Required bool
}

// Schema describes the columns one report kind must carry.
type Schema struct {
	Kind    Kind
	Columns []Column
}

type Schemas map[Kind]Schema

func DefaultSchemas() Schemas {
	return Schemas{
		Opportunities: {
			Kind: Opportunities,
			Columns: []Column{
				{Name: ColDate, Required: true},
				{Name: ColJob, Required: true},
				{Name: ColCustomer, Required: true},
				{Name: ColOwner, Required: true},
				{Name: ColStatus, Required: true},
				{Name: ColRevenue, Required: true},
				{Name: ColMembershipOpportunity},
				{Name: ColMembershipSold},
			},
		},
		LineItems: {
			Kind: LineItems,
			Columns: []Column{
				{Name: ColJob, Required: true},
				{Name: ColLineOwner, Required: true},
				{Name: ColCategory, Required: true},
				{Name: ColLineItem, Required: true},
				{Name: ColPrice, Required: true},
			},
		},
	}
}

// LoadSchemas returns the default schemas extended with the header aliases
// listed in a YAML file:
//
//	opportunities:
//	  Opportunity Owner: [Technician]
//	line_items:
//	  Price: [Amount]
//
// An empty path returns the defaults.
func LoadSchemas(path string) (Schemas, error) {
	schemas := DefaultSchemas()
	if path == "" {
		return schemas, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file map[string]map[string][]string
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for kindName, aliases := range file {
		kind, err := ParseKind(kindName)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		s := schemas[kind]
		for col, names := range aliases {
			i := s.index(col)
			if i < 0 {
				return nil, fmt.Errorf("%s: %s has no column %q", path, kind.Label(), col)
			}
			s.Columns[i].Aliases = append(s.Columns[i].Aliases, names...)
		}
		schemas[kind] = s
	}
	return schemas, nil
}

func (s Schema) index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// resolve maps canonical column names to the header text used in row.
func (s Schema) resolve(row models.Row) map[string]string {
	out := make(map[string]string, len(s.Columns))
	for _, c := range s.Columns {
		if _, ok := row[c.Name]; ok {
			out[c.Name] = c.Name
			continue
		}
		for _, a := range c.Aliases {
			if _, ok := row[a]; ok {
				out[c.Name] = a
				break
			}
		}
	}
	return out
}

// Validation is the outcome of checking rows against a schema.
type Validation struct {
	Valid   bool
	Errors  []string
	Missing []string
}

// Validate checks that the first row carries every required column. It
// reports problems in the result instead of failing.
func Validate(rows []models.Row, s Schema) Validation {
	if len(rows) == 0 {
		return Validation{Errors: []string{msgNoData}}
	}
	found := s.resolve(rows[0])
	var missing []string
	for _, c := range s.Columns {
		if !c.Required {
			continue
		}
		if _, ok := found[c.Name]; !ok {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return Validation{
			Errors:  []string{"Missing required columns: " + strings.Join(missing, ", ")},
			Missing: missing,
		}
	}
	return Validation{Valid: true, Errors: []string{}}
}

// Err converts a failed validation into a *ValidationError or *NoDataError.
func (v Validation) Err(kind Kind) error {
	switch {
	case v.Valid:
		return nil
	case len(v.Missing) > 0:
		return &ValidationError{Kind: kind, Missing: v.Missing}
	default:
		return &NoDataError{Kind: kind}
	}
}
