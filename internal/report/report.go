// Package report renders a dashboard as plain-text tables.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AngelCh415/jobkpi/internal/kpi"
	"github.com/AngelCh415/jobkpi/internal/models"
	"github.com/AngelCh415/jobkpi/internal/week"
)

var printer = message.NewPrinter(language.English)

// Currency formats v as whole dollars with thousands separators, e.g. $1,235.
func Currency(v float64) string {
	n := decimal.NewFromFloat(v).Round(0).IntPart()
	if n < 0 {
		return printer.Sprintf("-$%d", -n)
	}
	return printer.Sprintf("$%d", n)
}

// Percent formats a 0-100 value rounded to a whole percent.
func Percent(v float64) string {
	return fmt.Sprintf("%d%%", decimal.NewFromFloat(v).Round(0).IntPart())
}

// WeekLabel is the display name for a week filter value.
func WeekLabel(w string) string {
	if w == kpi.All {
		return "All Weeks"
	}
	return week.DisplayName(week.ID(w))
}

func Render(w io.Writer, f kpi.Filter, d models.Dashboard) {
	f = f.Normalized()
	tech := f.Technician
	if tech == kpi.All {
		tech = "All Technicians"
	}
	fmt.Fprintf(w, "%s / %s\n", tech, WeekLabel(f.Week))

	k := d.KPIs
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"KPI", "Value"})
	t.AppendRows([]table.Row{
		{"Average Ticket Value", Currency(k.AvgTicketValue)},
		{"Job Close Rate", Percent(k.JobCloseRatePct)},
		{"Weekly Revenue", Currency(k.WeeklyRevenue)},
		{"Membership Win Rate", Percent(k.MembershipWinRatePct)},
		{"Hydro Jetting Jobs", k.HydroJettingJobs},
		{"Descaling Jobs", k.DescalingJobs},
		{"Water Heater Jobs", k.WaterHeaterJobs},
	})
	t.AppendFooter(table.Row{"Jobs (won / total)", fmt.Sprintf("%d / %d", k.WonJobs, k.TotalJobs)})
	t.Render()

	rt := table.NewWriter()
	rt.SetOutputMirror(w)
	rt.AppendHeader(table.Row{"Week", "Revenue"})
	for _, p := range d.RevenueByWeek {
		rt.AppendRow(table.Row{week.DisplayName(week.ID(p.Week)), Currency(p.Revenue)})
	}
	rt.Render()

	st := table.NewWriter()
	st.SetOutputMirror(w)
	st.AppendHeader(table.Row{"Status", "Jobs"})
	for _, c := range d.JobStatus {
		st.AppendRow(table.Row{c.Status, c.Count})
	}
	st.Render()
}
