package ui

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/itsjashshah/flowtag/internal/models"
	"github.com/itsjashshah/flowtag/internal/processor"
	"github.com/itsjashshah/flowtag/internal/report"
)

const maxRows = 15

func PrintResult(res *processor.Result, order report.SortOrder) {
	sum := res.Report.Summary
	if sum.Records == 0 {
		pterm.Warning.Println("Flow log contained no records. Report is empty.")
	}

	data := [][]string{{"Tag", "Count"}}
	rows := res.Report.TagRows(order)
	for i, row := range rows {
		if i >= maxRows {
			data = append(data, []string{pterm.FgGray.Sprintf("... %d more", len(rows)-maxRows), ""})
			break
		}
		tag := pterm.FgCyan.Sprint(row.Tag)
		if row.Tag == models.UntaggedTag {
			tag = pterm.FgYellow.Sprint(row.Tag)
		}
		data = append(data, []string{tag, strconv.FormatUint(row.Count, 10)})
	}
	if len(rows) > 0 {
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		pterm.Println()
	}

	summary := [][]string{
		{"Lookup entries", strconv.Itoa(res.LookupEntries)},
		{"Flow records", strconv.FormatUint(sum.Records, 10)},
		{"Tagged", strconv.FormatUint(sum.Tagged, 10)},
		{"Untagged", strconv.FormatUint(sum.Untagged, 10)},
		{"Port/Protocol pairs", strconv.Itoa(sum.DistinctPortProtos)},
		{"Skipped lookup rows", strconv.Itoa(res.LookupStats.Skipped)},
		{"Skipped flow lines", strconv.Itoa(res.FlowStats.Skipped)},
	}
	_ = pterm.DefaultTable.WithData(summary).Render()
	pterm.Println()

	if res.Skipped() > 0 {
		pterm.Warning.Printf("%d malformed input lines were skipped\n", res.Skipped())
	}
	pterm.Success.Printf("Results have been written to %s\n", res.Output)
}

// PrintStats renders the anomaly breakdown of one input.
func PrintStats(title string, stats models.Stats) {
	pterm.DefaultSection.Println(title)

	data := [][]string{
		{"Rows", strconv.Itoa(stats.Lines)},
		{"Accepted", strconv.Itoa(stats.Accepted)},
		{"Skipped", strconv.Itoa(stats.Skipped)},
	}

	reasons := make([]string, 0, len(stats.Anomalies))
	for reason := range stats.Anomalies {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		n := stats.Anomalies[models.AnomalyReason(reason)]
		data = append(data, []string{pterm.FgYellow.Sprint(reason), fmt.Sprintf("%d", n)})
	}

	_ = pterm.DefaultTable.WithData(data).Render()
}

func StartSpinner(text string) *pterm.SpinnerPrinter {
	spinner, _ := pterm.DefaultSpinner.Start(text)
	return spinner
}

func UpdateSpinner(spinner *pterm.SpinnerPrinter, text string) {
	if spinner == nil {
		return
	}
	spinner.UpdateText(text)
}

func StopSpinner(spinner *pterm.SpinnerPrinter, ok bool) {
	if spinner == nil {
		return
	}
	if ok {
		spinner.Success("Done")
		return
	}
	spinner.Fail("Failed")
}
