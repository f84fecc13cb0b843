package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"fte-forecaster/calendar"
	"fte-forecaster/models"
	"fte-forecaster/staffing"

	"github.com/fatih/color"
)

// StaffingLine is one staffing row as rendered by every format. Estimate
// fields are nil when the day was not staffed.
type StaffingLine struct {
	Date         string   `json:"date"`
	Client       string   `json:"cliente"`
	Language     string   `json:"idioma"`
	Calls        int      `json:"llamadas_estimadas"`
	AHT          *float64 `json:"aht_seg"`
	FTE          *int     `json:"fte_estimado"`
	FTENet       *int     `json:"fte_neto"`
	ServiceLevel *float64 `json:"sla_estimado"`
	Erlangs      *float64 `json:"erlangs"`
	Unresolved   bool     `json:"unresolved,omitempty"`
}

var staffingHeader = []string{
	"date", "cliente", "idioma", "llamadas_estimadas", "aht(seg)",
	"fte_estimado", "fte_neto", "sla_estimado", "erlangs",
}

var (
	warnColor    = color.New(color.FgYellow)
	summaryColor = color.New(color.FgCyan, color.Bold)
)

func prepareStaffingLines(rows []models.StaffingRow) []StaffingLine {
	lines := make([]StaffingLine, len(rows))
	for i, r := range rows {
		line := StaffingLine{
			Date:     r.Date.Format(calendar.DateLayout),
			Client:   r.Client,
			Language: r.Language,
			Calls:    r.Calls,
			AHT:      r.AHTSeconds,
		}
		if est := r.Estimate; est != nil {
			fte, net := est.AgentsAdjusted, est.AgentsNet
			sl, erl := est.AchievedServiceLevel, est.Erlangs
			line.FTE, line.FTENet = &fte, &net
			line.ServiceLevel, line.Erlangs = &sl, &erl
			line.Unresolved = est.Unresolved
		}
		lines[i] = line
	}
	return lines
}

// FormatStaffing renders a staffing plan in the requested format.
func FormatStaffing(rows []models.StaffingRow, summary staffing.Summary, format Format) string {
	switch format {
	case JSON:
		return FormatStaffingJSON(rows, summary)
	case CSV:
		return FormatStaffingCSV(rows)
	default:
		return FormatStaffingText(rows, summary)
	}
}

// FormatStaffingText returns one line per day followed by the summary.
// Days that could not reach the target service level get a warning.
func FormatStaffingText(rows []models.StaffingRow, summary staffing.Summary) string {
	var sb strings.Builder

	for _, l := range prepareStaffingLines(rows) {
		sb.WriteString(formatStaffingLine(l))
		sb.WriteString("\n")

		if l.Unresolved {
			sb.WriteString(warnColor.Sprintf("  ⚠️  CAPACITY WARNING: target service level not reached with %d agents (achieved %.2f%%)",
				*l.FTENet, *l.ServiceLevel*100))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(summaryColor.Sprint("Summary:"))
	sb.WriteString("\n")
	for _, s := range summary.Series {
		sb.WriteString(fmt.Sprintf("  • %s/%s: mean=%.2f, min=%d, max=%d, days=%d\n",
			s.Client, s.Language, s.MeanFTE, s.MinFTE, s.MaxFTE, s.Days))
	}
	sb.WriteString(fmt.Sprintf("  Total mean FTE: %.2f\n", summary.TotalMeanFTE))
	if summary.MeanServiceLevel != nil {
		sb.WriteString(fmt.Sprintf("  Mean service level: %.2f%%\n", *summary.MeanServiceLevel*100))
	} else {
		sb.WriteString("  Mean service level: n/a\n")
	}
	if summary.Unresolved > 0 {
		sb.WriteString(warnColor.Sprintf("  Unresolved days: %d", summary.Unresolved))
		sb.WriteString("\n")
	}

	for _, s := range summary.Shortfalls {
		sb.WriteString(warnColor.Sprintf("  ⚠️  CAPACITY WARNING %s: Demand=%d, Allocated=%d, Unmet=%d",
			s.Date.Format(calendar.DateLayout), s.Demand, s.Allocated, s.Unmet))
		sb.WriteString("\n  Impacted series:\n")
		for _, imp := range s.Impacted {
			sb.WriteString(fmt.Sprintf("    • %s/%s [Priority %d]: Requested=%d, Allocated=%d, Unmet=%d\n",
				imp.Client, imp.Language, imp.Priority, imp.Requested, imp.Allocated, imp.Unmet))
		}
	}
	return sb.String()
}

func formatStaffingLine(l StaffingLine) string {
	prefix := fmt.Sprintf("%s %s/%s : calls=%d", l.Date, l.Client, l.Language, l.Calls)
	if l.AHT != nil {
		prefix += fmt.Sprintf(", aht=%.2fs", *l.AHT)
	}
	if l.FTE == nil {
		return prefix + " ; none"
	}
	return fmt.Sprintf("%s ; fte=%d, net=%d, sla=%.2f%%, erlangs=%.2f",
		prefix, *l.FTE, *l.FTENet, *l.ServiceLevel*100, *l.Erlangs)
}

// FormatStaffingJSON returns the rows and the summary as one document.
func FormatStaffingJSON(rows []models.StaffingRow, summary staffing.Summary) string {
	doc := struct {
		Rows    []StaffingLine   `json:"rows"`
		Summary staffing.Summary `json:"summary"`
	}{
		Rows:    prepareStaffingLines(rows),
		Summary: summary,
	}
	jsonBytes, _ := json.MarshalIndent(doc, "", "  ")
	return string(jsonBytes)
}

// FormatStaffingCSV returns the staffing table. Unstaffed days leave the
// estimate columns empty.
func FormatStaffingCSV(rows []models.StaffingRow) string {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)
	writer.Write(staffingHeader)
	for _, l := range prepareStaffingLines(rows) {
		writer.Write([]string{
			l.Date, l.Client, l.Language,
			strconv.Itoa(l.Calls), optional(l.AHT),
			optionalInt(l.FTE), optionalInt(l.FTENet),
			optional(l.ServiceLevel), optional(l.Erlangs),
		})
	}
	writer.Flush()
	return sb.String()
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
