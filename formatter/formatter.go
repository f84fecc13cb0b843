package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"fte-forecaster/calendar"
	"fte-forecaster/models"
)

// Format names an output rendering.
type Format string

// Supported formats.
const (
	Text Format = "text"
	JSON Format = "json"
	CSV  Format = "csv"
)

// ParseFormat validates a --format value.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case Text, JSON, CSV:
		return f, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or csv)", value)
	}
}

// ForecastRow is one forecast line as rendered by every format.
type ForecastRow struct {
	Date     string   `json:"date"`
	Client   string   `json:"cliente"`
	Language string   `json:"idioma"`
	Real     *float64 `json:"real"`
	Pred     float64  `json:"pred"`
	Lower95  float64  `json:"ic_95_inf"`
	Upper95  float64  `json:"ic_95_sup"`
	AHT      *float64 `json:"aht"`
}

// MetricsRow is the holdout error of one series.
type MetricsRow struct {
	Client   string   `json:"cliente"`
	Language string   `json:"idioma"`
	MAE      float64  `json:"mae"`
	RMSE     float64  `json:"rmse"`
	MAPE     *float64 `json:"mape"`
}

var forecastHeader = []string{"date", "cliente", "idioma", "real", "pred", "ic_95_inf", "ic_95_sup", "aht"}

// prepareForecastRows converts records to their rendered form, keeping order.
func prepareForecastRows(records []models.ForecastRecord) []ForecastRow {
	rows := make([]ForecastRow, len(records))
	for i, r := range records {
		rows[i] = ForecastRow{
			Date:     r.Date.Format(calendar.DateLayout),
			Client:   r.Client,
			Language: r.Language,
			Real:     r.Real,
			Pred:     round2(r.Point),
			Lower95:  round2(r.Lower95),
			Upper95:  round2(r.Upper95),
			AHT:      roundPtr(r.AHTSeconds),
		}
	}
	return rows
}

// prepareMetricsRows sorts the per-series metrics by key.
func prepareMetricsRows(byKey map[models.SeriesKey]models.EvaluationMetrics) []MetricsRow {
	keys := make([]models.SeriesKey, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	rows := make([]MetricsRow, len(keys))
	for i, k := range keys {
		m := byKey[k]
		rows[i] = MetricsRow{Client: k.Client, Language: k.Language, MAE: m.MAE, RMSE: m.RMSE, MAPE: m.MAPE}
	}
	return rows
}

// FormatForecast renders forecast records in the requested format.
func FormatForecast(records []models.ForecastRecord, format Format) string {
	switch format {
	case JSON:
		return FormatForecastJSON(records)
	case CSV:
		return FormatForecastCSV(records)
	default:
		return FormatForecastText(records)
	}
}

// FormatForecastText returns one line per record.
func FormatForecastText(records []models.ForecastRecord) string {
	var sb strings.Builder
	for _, r := range prepareForecastRows(records) {
		sb.WriteString(fmt.Sprintf("%s %s/%s : pred=%.2f [%.2f, %.2f]",
			r.Date, r.Client, r.Language, r.Pred, r.Lower95, r.Upper95))
		if r.Real != nil {
			sb.WriteString(fmt.Sprintf(" real=%.2f", *r.Real))
		}
		if r.AHT != nil {
			sb.WriteString(fmt.Sprintf(" aht=%.2fs", *r.AHT))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatForecastJSON returns the JSON representation of the records
func FormatForecastJSON(records []models.ForecastRecord) string {
	jsonBytes, _ := json.MarshalIndent(prepareForecastRows(records), "", "  ")
	return string(jsonBytes)
}

// FormatForecastCSV returns the CSV representation of the records.
// Missing real values and handle times are empty cells.
func FormatForecastCSV(records []models.ForecastRecord) string {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)
	writer.Write(forecastHeader)
	for _, r := range prepareForecastRows(records) {
		writer.Write([]string{
			r.Date, r.Client, r.Language,
			optional(r.Real), number(r.Pred), number(r.Lower95), number(r.Upper95),
			optional(r.AHT),
		})
	}
	writer.Flush()
	return sb.String()
}

// FormatMetrics renders holdout metrics in the requested format.
func FormatMetrics(byKey map[models.SeriesKey]models.EvaluationMetrics, format Format) string {
	rows := prepareMetricsRows(byKey)
	switch format {
	case JSON:
		jsonBytes, _ := json.MarshalIndent(rows, "", "  ")
		return string(jsonBytes)
	case CSV:
		var sb strings.Builder
		writer := csv.NewWriter(&sb)
		writer.Write([]string{"cliente", "idioma", "mae", "rmse", "mape"})
		for _, r := range rows {
			writer.Write([]string{r.Client, r.Language, number(r.MAE), number(r.RMSE), optional(r.MAPE)})
		}
		writer.Flush()
		return sb.String()
	default:
		var sb strings.Builder
		for _, r := range rows {
			mape := "n/a"
			if r.MAPE != nil {
				mape = fmt.Sprintf("%.2f%%", *r.MAPE)
			}
			sb.WriteString(fmt.Sprintf("%s/%s : MAE=%.2f, RMSE=%.2f, MAPE=%s\n",
				r.Client, r.Language, r.MAE, r.RMSE, mape))
		}
		return sb.String()
	}
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return number(*v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round2(*v)
	return &r
}
