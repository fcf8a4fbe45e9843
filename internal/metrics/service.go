package metrics

import (
	"net/url"
	"strconv"

	"github.com/AngelCh415/jobkpi/internal/kpi"
	"github.com/AngelCh415/jobkpi/internal/models"
	"github.com/AngelCh415/jobkpi/internal/pipeline"
	"github.com/AngelCh415/jobkpi/internal/store"
	"github.com/AngelCh415/jobkpi/internal/telemetry"
)

// Service answers dashboard queries against the session store.
type Service struct{ st *store.SessionStore }

func NewService(st *store.SessionStore) *Service { return &Service{st: st} }

type StatusView struct {
	Status      pipeline.Status `json:"status"`
	Error       string          `json:"error,omitempty"`
	Technicians []string        `json:"technicians"`
	Weeks       []string        `json:"weeks"`
	Technician  string          `json:"technician"`
	Week        string          `json:"week"`
}

type DashboardView struct {
	Status pipeline.Status `json:"status"`
	Filter kpi.Filter      `json:"filter"`
	models.Dashboard
}

type JobsPage struct {
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Jobs   []JobView `json:"jobs"`
}

type JobView struct {
	JobID                 string         `json:"jobId"`
	Date                  string         `json:"date"`
	Week                  string         `json:"week,omitempty"`
	Customer              string         `json:"customer"`
	Owner                 string         `json:"ownerName"`
	Status                string         `json:"status"`
	Revenue               *float64       `json:"revenue"`
	MembershipOpportunity bool           `json:"membershipOpportunity"`
	MembershipSold        bool           `json:"membershipSold"`
	LineItems             []LineItemView `json:"lineItems"`
}

type LineItemView struct {
	Category string   `json:"category"`
	Name     string   `json:"lineItemName"`
	Owner    string   `json:"ownerName"`
	Price    *float64 `json:"price"`
}

func (s *Service) Status() StatusView {
	st := s.st.Load()
	weeks := st.Weeks()
	ids := make([]string, 0, len(weeks))
	for _, w := range weeks {
		ids = append(ids, w.String())
	}
	techs := st.Technicians()
	if techs == nil {
		techs = []string{}
	}
	f := st.Filter()
	return StatusView{
		Status:      st.Status(),
		Error:       st.Err(),
		Technicians: techs,
		Weeks:       ids,
		Technician:  f.Technician,
		Week:        f.Week,
	}
}

// Dashboard computes the KPIs for the technician/week in v, falling back to
// the session's selected filter for any parameter not given.
func (s *Service) Dashboard(v url.Values) DashboardView {
	st := s.st.Load()
	f := filterFrom(v, st.Filter())
	telemetry.DashboardsComputed.Inc()
	return DashboardView{Status: st.Status(), Filter: f, Dashboard: st.Dashboard(f)}
}

// Jobs lists the merged jobs matching the filter in v, paginated.
func (s *Service) Jobs(v url.Values) JobsPage {
	st := s.st.Load()
	f := filterFrom(v, st.Filter())
	rows := toJobViews(kpi.Filtered(st.Merged(), f))
	limit := atoiDef(v.Get("limit"), 100)
	offset := atoiDef(v.Get("offset"), 0)
	limit, offset = clampLimitOffset(limit, offset, len(rows))
	return JobsPage{Total: len(rows), Limit: limit, Offset: offset, Jobs: paginate(rows, limit, offset)}
}

func (s *Service) SetFilter(f kpi.Filter) StatusView {
	s.st.Update(func(st pipeline.State) pipeline.State { return st.WithFilter(f) })
	return s.Status()
}

func (s *Service) ResetFilters() StatusView {
	s.st.Update(func(st pipeline.State) pipeline.State { return st.ResetFilters() })
	return s.Status()
}

func (s *Service) Reset() StatusView {
	s.st.Reset()
	telemetry.MergedJobs.Set(0)
	return s.Status()
}

func filterFrom(v url.Values, def kpi.Filter) kpi.Filter {
	f := def
	if v.Has("technician") {
		f.Technician = v.Get("technician")
	}
	if v.Has("week") {
		f.Week = v.Get("week")
	}
	return f.Normalized()
}

func toJobViews(jobs []models.MergedJob) []JobView {
	rows := make([]JobView, 0, len(jobs))
	for _, j := range jobs {
		items := make([]LineItemView, 0, len(j.LineItems))
		for _, li := range j.LineItems {
			var price *float64
			if li.Price.Valid {
				p := li.Price.Decimal.InexactFloat64()
				price = &p
			}
			items = append(items, LineItemView{Category: li.Category, Name: li.Name, Owner: li.Owner, Price: price})
		}
		var revenue *float64
		if j.Revenue.Valid {
			r := j.Revenue.Decimal.InexactFloat64()
			revenue = &r
		}
		rows = append(rows, JobView{
			JobID:                 j.JobID,
			Date:                  j.Date,
			Week:                  j.Week.String(),
			Customer:              j.Customer,
			Owner:                 j.Owner,
			Status:                j.Status,
			Revenue:               revenue,
			MembershipOpportunity: j.MembershipOpportunity,
			MembershipSold:        j.MembershipSold,
			LineItems:             items,
		})
	}
	return rows
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	} // hard cap
	if offset > n {
		offset = n
	}
	return limit, offset
}
