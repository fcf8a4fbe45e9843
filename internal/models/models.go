package models

import (
	"github.com/shopspring/decimal"

	"github.com/AngelCh415/jobkpi/internal/week"
)

// RawRow is one decoded spreadsheet row keyed by header text.
type RawRow map[string]string

// Row is a normalized row: values are trimmed and "" stands for an empty cell.
type Row map[string]string

type Opportunity struct {
	JobID                 string
	Date                  string
	Customer              string
	Owner                 string // technician / opportunity owner
	Status                string
	Revenue               decimal.NullDecimal
	RevenueText           string // cell as read; non-blank but unparseable revenue is worth 0
	MembershipOpportunity bool
	MembershipSold        bool
	Fields                Row // every column of the source row, including pass-through ones
}

type LineItem struct {
	JobID    string
	Owner    string
	Category string
	Name     string
	Price    decimal.NullDecimal
	Fields   Row
}

// MergedJob is an opportunity with the line items sold on the same job.
type MergedJob struct {
	Opportunity
	LineItems []LineItem
	Week      week.ID
}

type KPISnapshot struct {
	AvgTicketValue          float64 `json:"avgTicketValue"`
	JobCloseRatePct         float64 `json:"jobCloseRatePct"`
	WeeklyRevenue           float64 `json:"weeklyRevenue"`
	MembershipWinRatePct    float64 `json:"membershipWinRatePct"`
	HydroJettingJobs        int     `json:"hydroJettingJobs"`
	DescalingJobs           int     `json:"descalingJobs"`
	WaterHeaterJobs         int     `json:"waterHeaterJobs"`
	TotalJobs               int     `json:"totalJobs"`
	WonJobs                 int     `json:"wonJobs"`
	MembershipOpportunities int     `json:"membershipOpportunities"`
	MembershipsSold         int     `json:"membershipsSold"`
}

type RevenuePoint struct {
	Week    string  `json:"week"`
	Revenue float64 `json:"revenue"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Dashboard bundles everything computed for one technician/week selection.
type Dashboard struct {
	KPIs          KPISnapshot    `json:"kpis"`
	RevenueByWeek []RevenuePoint `json:"revenueByWeek"`
	JobStatus     []StatusCount  `json:"jobStatus"`
}
