// Package merge joins line items onto opportunities by job id.
package merge

import (
	"slices"
	"sort"
	"strings"

	"github.com/AngelCh415/jobkpi/internal/models"
	"github.com/AngelCh415/jobkpi/internal/week"
)

// Jobs left-joins items onto opps. The result has one record per opportunity,
// in input order, each carrying the line items that share its job id and the
// week of its date. Items with no job id, or a job id no opportunity has, are
// dropped.
func Jobs(opps []models.Opportunity, items []models.LineItem) []models.MergedJob {
	byJob := make(map[string][]models.LineItem)
	for _, it := range items {
		if it.JobID == "" {
			continue
		}
		byJob[it.JobID] = append(byJob[it.JobID], it)
	}

	out := make([]models.MergedJob, 0, len(opps))
	for _, o := range opps {
		lineItems := []models.LineItem{}
		if o.JobID != "" {
			if li, ok := byJob[o.JobID]; ok {
				lineItems = slices.Clone(li)
			}
		}
		out = append(out, models.MergedJob{
			Opportunity: o,
			LineItems:   lineItems,
			Week:        week.Of(o.Date),
		})
	}
	return out
}

// Technicians returns the distinct non-blank owners, sorted.
func Technicians(jobs []models.MergedJob) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, j := range jobs {
		if strings.TrimSpace(j.Owner) == "" {
			continue
		}
		if _, ok := seen[j.Owner]; ok {
			continue
		}
		seen[j.Owner] = struct{}{}
		out = append(out, j.Owner)
	}
	sort.Strings(out)
	return out
}

// Weeks returns the distinct week ids present, sorted. Undated jobs are skipped.
func Weeks(jobs []models.MergedJob) []week.ID {
	seen := map[week.ID]struct{}{}
	out := []week.ID{}
	for _, j := range jobs {
		if !j.Week.Valid() {
			continue
		}
		if _, ok := seen[j.Week]; ok {
			continue
		}
		seen[j.Week] = struct{}{}
		out = append(out, j.Week)
	}
	sort.Slice(out, func(i, k int) bool { return out[i] < out[k] })
	return out
}
