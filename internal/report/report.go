// Package report renders the presentation artifacts: the weekday bar
// chart, the hotspot map, the rule listings, and the cleaned-table
// spreadsheet export.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/statadvice/accidents/internal/model"
	"github.com/statadvice/accidents/internal/series"
	"github.com/statadvice/accidents/internal/tree"
)

// weekdayOrder renders weeks Monday-first.
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayBars writes a horizontal text bar chart of accident counts by
// day of week.
func WeekdayBars(w io.Writer, records []model.AccidentRecord, barWidth int) {
	if barWidth <= 0 {
		barWidth = 60
	}

	counts := map[time.Weekday]int{}
	for _, r := range records {
		counts[r.Time.Weekday()]++
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	fmt.Fprintln(w, "accidents by weekday:")
	for _, day := range weekdayOrder {
		c := counts[day]
		bar := 0
		if maxCount > 0 {
			bar = c * barWidth / maxCount
		}
		fmt.Fprintf(w, "  %-9s %s %d\n", day, strings.Repeat("#", bar), c)
	}
}

// Rules writes each group's rule listing in group order.
func Rules(w io.Writer, models map[series.GroupID]*tree.Model) {
	groups := make([]series.GroupID, 0, len(models))
	for g := range models {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })

	for _, g := range groups {
		fmt.Fprintln(w, models[g].Format(string(g)))
	}
}
