package presenter

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"TrendCast/pkg/util"
)

// RenderTable writes the monthly table and summary of a report as a terminal table.
func RenderTable(w io.Writer, r *Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s · %s · %d month(s)", r.Instrument.Label, r.Method, r.HorizonMonths))
	t.SetStyle(table.StyleRounded)

	if r.Failed {
		t.AppendRow(table.Row{r.Message})
		t.Render()
		return
	}

	t.AppendHeader(table.Row{"Date", "Price", "Segment"})
	for _, row := range r.Table {
		segment := "history"
		if row.Forecast {
			segment = "forecast"
		}
		t.AppendRow(table.Row{row.Date.Format(util.DateLayout), fmt.Sprintf("%.2f", row.Price), segment})
	}
	t.AppendSeparator()
	if s := r.Summary; s != nil {
		t.AppendRow(table.Row{"End of horizon", fmt.Sprintf("%.2f", s.EndPrice), s.EndDate.Format(util.DateLayout)})
		t.AppendRow(table.Row{"Change", fmt.Sprintf("%+.2f%%", s.ChangePct), "vs " + s.BaseDate.Format(util.DateLayout)})
	}
	t.AppendFooter(table.Row{"Window", fmt.Sprintf("%d days", r.WindowDays), fmt.Sprintf("R² %.3f", r.R2)})
	t.Render()
}
