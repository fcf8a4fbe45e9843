// Package pipeline holds the session state of the dashboard as an immutable
// value. Every transition returns a new State; the receiver is never changed.
package pipeline

import (
	"slices"

	"github.com/AngelCh415/jobkpi/internal/kpi"
	"github.com/AngelCh415/jobkpi/internal/merge"
	"github.com/AngelCh415/jobkpi/internal/models"
	"github.com/AngelCh415/jobkpi/internal/week"
)

type Status string

const (
	StatusEmpty   Status = "empty"
	StatusPartial Status = "partial"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

type State struct {
	opportunities []models.Opportunity
	lineItems     []models.LineItem
	hasOpps       bool
	hasItems      bool

	merged      []models.MergedJob
	technicians []string
	weeks       []week.ID

	err    string
	filter kpi.Filter
}

// New returns the empty state with default filters.
func New() State {
	return State{filter: kpi.DefaultFilter()}
}

// WithOpportunities installs a freshly loaded opportunities report, clears
// any previous error and re-merges when line items are present.
func (s State) WithOpportunities(recs []models.Opportunity) State {
	s.opportunities = recs
	s.hasOpps = true
	s.err = ""
	return s.remerge()
}

// WithLineItems is WithOpportunities for the line items report.
func (s State) WithLineItems(recs []models.LineItem) State {
	s.lineItems = recs
	s.hasItems = true
	s.err = ""
	return s.remerge()
}

// WithError records a failed processing attempt. Loaded reports are kept.
func (s State) WithError(err error) State {
	if err == nil {
		return s
	}
	s.err = err.Error()
	return s
}

// Reset drops all loaded data and restores the default filters.
func (s State) Reset() State { return New() }

func (s State) WithFilter(f kpi.Filter) State {
	s.filter = f.Normalized()
	return s
}

func (s State) WithTechnician(name string) State {
	f := s.filter
	f.Technician = name
	return s.WithFilter(f)
}

func (s State) WithWeek(id string) State {
	f := s.filter
	f.Week = id
	return s.WithFilter(f)
}

func (s State) ResetFilters() State {
	s.filter = kpi.DefaultFilter()
	return s
}

func (s State) remerge() State {
	if !s.hasOpps || !s.hasItems {
		return s
	}
	s.merged = merge.Jobs(s.opportunities, s.lineItems)
	s.technicians = merge.Technicians(s.merged)
	s.weeks = merge.Weeks(s.merged)
	return s
}

// Status reports empty, partial, ready or error. An error outranks the
// others.
func (s State) Status() Status {
	switch {
	case s.err != "":
		return StatusError
	case s.hasOpps && s.hasItems:
		return StatusReady
	case s.hasOpps || s.hasItems:
		return StatusPartial
	}
	return StatusEmpty
}

func (s State) Err() string            { return s.err }
func (s State) Filter() kpi.Filter     { return s.filter }
func (s State) HasOpportunities() bool { return s.hasOpps }
func (s State) HasLineItems() bool     { return s.hasItems }

// Merged returns the merged jobs. Callers must not modify the slice.
func (s State) Merged() []models.MergedJob { return s.merged }

func (s State) Technicians() []string { return slices.Clone(s.technicians) }
func (s State) Weeks() []week.ID      { return slices.Clone(s.weeks) }

// Dashboard aggregates the merged jobs for f.
func (s State) Dashboard(f kpi.Filter) models.Dashboard {
	return kpi.Aggregate(s.merged, f)
}

// Aggregator returns a function bound to the current merged jobs that the
// presentation layer can call whenever its filters change.
func (s State) Aggregator() func(technician, week string) models.Dashboard {
	jobs := s.merged
	return func(technician, wk string) models.Dashboard {
		return kpi.Aggregate(jobs, kpi.Filter{Technician: technician, Week: wk})
	}
}
