// Package kpi computes the weekly performance snapshot and chart series over
// merged jobs. Everything here is a pure function of its inputs.
package kpi

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AngelCh415/jobkpi/internal/models"
	"github.com/AngelCh415/jobkpi/internal/week"
)

// All disables a filter dimension.
const All = "all"

const unknown = "Unknown"

// Service keyword phrases. A job counts for a phrase when any of its line
// items mentions any word of it.
const (
	HydroJetting = "hydro jetting"
	Descaling    = "descal"
	WaterHeater  = "water heater"
)

var hundred = decimal.NewFromInt(100)

type Filter struct {
	Technician string `json:"technician"`
	Week       string `json:"week"`
}

// DefaultFilter selects every technician and the current week.
func DefaultFilter() Filter {
	return Filter{Technician: All, Week: week.Current().String()}
}

// Normalized treats blank dimensions as All.
func (f Filter) Normalized() Filter {
	f.Technician = strings.TrimSpace(f.Technician)
	f.Week = strings.TrimSpace(f.Week)
	if f.Technician == "" {
		f.Technician = All
	}
	if f.Week == "" {
		f.Week = All
	}
	return f
}

func (f Filter) Match(j models.MergedJob) bool {
	if f.Technician != All && j.Owner != f.Technician {
		return false
	}
	if f.Week != All && string(j.Week) != f.Week {
		return false
	}
	return true
}

// Filtered returns the jobs matching both filter dimensions.
func Filtered(jobs []models.MergedJob, f Filter) []models.MergedJob {
	f = f.Normalized()
	out := []models.MergedJob{}
	for _, j := range jobs {
		if f.Match(j) {
			out = append(out, j)
		}
	}
	return out
}

func isStatus(j models.MergedJob, s string) bool { return strings.EqualFold(j.Status, s) }

// Calculate computes the KPI snapshot for the jobs selected by f. Jobs with
// status "invalid" are ignored; ratios with a zero denominator are 0.
func Calculate(jobs []models.MergedJob, f Filter) models.KPISnapshot {
	var valid, won []models.MergedJob
	for _, j := range Filtered(jobs, f) {
		if isStatus(j, "invalid") {
			continue
		}
		valid = append(valid, j)
		if isStatus(j, "won") {
			won = append(won, j)
		}
	}

	revenue := decimal.Zero
	for _, j := range won {
		if j.Revenue.Valid {
			revenue = revenue.Add(j.Revenue.Decimal)
		}
	}
	revenue = nonNegative(revenue)

	var memberOpps, memberSold int
	for _, j := range valid {
		if j.MembershipOpportunity {
			memberOpps++
		}
		if j.MembershipSold {
			memberSold++
		}
	}

	return models.KPISnapshot{
		AvgTicketValue:          round2(safeDiv(revenue, len(won))),
		JobCloseRatePct:         round2(pct(len(won), len(valid))),
		WeeklyRevenue:           round2(revenue),
		MembershipWinRatePct:    round2(pct(memberSold, memberOpps)),
		HydroJettingJobs:        CountServiceJobs(won, HydroJetting),
		DescalingJobs:           CountServiceJobs(won, Descaling),
		WaterHeaterJobs:         CountServiceJobs(won, WaterHeater),
		TotalJobs:               len(valid),
		WonJobs:                 len(won),
		MembershipOpportunities: memberOpps,
		MembershipsSold:         memberSold,
	}
}

// CountServiceJobs counts jobs with at least one line item whose category or
// name contains, case-insensitively, any whitespace-separated word of phrase.
func CountServiceJobs(jobs []models.MergedJob, phrase string) int {
	keywords := strings.Fields(strings.ToLower(phrase))
	if len(keywords) == 0 {
		return 0
	}
	n := 0
	for _, j := range jobs {
		if hasService(j.LineItems, keywords) {
			n++
		}
	}
	return n
}

func hasService(items []models.LineItem, keywords []string) bool {
	for _, it := range items {
		category := strings.ToLower(it.Category)
		name := strings.ToLower(it.Name)
		for _, kw := range keywords {
			if strings.Contains(category, kw) || strings.Contains(name, kw) {
				return true
			}
		}
	}
	return false
}

// RevenueByWeek sums won revenue per week for one technician (or All). The
// week filter is deliberately not applied: the series spans every week.
// Undated jobs land in an "Unknown" bucket. Won jobs with a blank revenue
// cell open no bucket; unparseable non-blank revenue counts as 0.
func RevenueByWeek(jobs []models.MergedJob, technician string) []models.RevenuePoint {
	technician = Filter{Technician: technician}.Normalized().Technician
	sums := map[string]decimal.Decimal{}
	for _, j := range jobs {
		if !isStatus(j, "won") || (!j.Revenue.Valid && strings.TrimSpace(j.RevenueText) == "") {
			continue
		}
		owner := j.Owner
		if owner == "" {
			owner = unknown
		}
		if technician != All && owner != technician {
			continue
		}
		wk := string(j.Week)
		if wk == "" {
			wk = unknown
		}
		if j.Revenue.Valid {
			sums[wk] = sums[wk].Add(j.Revenue.Decimal)
		} else {
			sums[wk] = sums[wk].Add(decimal.Zero)
		}
	}

	out := make([]models.RevenuePoint, 0, len(sums))
	for wk, v := range sums {
		out = append(out, models.RevenuePoint{Week: wk, Revenue: round2(v)})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Week < out[k].Week })
	return out
}

// StatusHistogram counts jobs per status among the jobs selected by f,
// invalid ones included. Entries follow first appearance.
func StatusHistogram(jobs []models.MergedJob, f Filter) []models.StatusCount {
	idx := map[string]int{}
	out := []models.StatusCount{}
	for _, j := range Filtered(jobs, f) {
		st := j.Status
		if st == "" {
			st = unknown
		}
		i, ok := idx[st]
		if !ok {
			i = len(out)
			idx[st] = i
			out = append(out, models.StatusCount{Status: st})
		}
		out[i].Count++
	}
	return out
}

// Aggregate computes the snapshot and both chart series for f.
func Aggregate(jobs []models.MergedJob, f Filter) models.Dashboard {
	f = f.Normalized()
	return models.Dashboard{
		KPIs:          Calculate(jobs, f),
		RevenueByWeek: RevenueByWeek(jobs, f.Technician),
		JobStatus:     StatusHistogram(jobs, f),
	}
}

func safeDiv(d decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return d.Div(decimal.NewFromInt(int64(n)))
}

func pct(part, whole int) decimal.Decimal {
	if whole <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(whole)))
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func round2(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }
