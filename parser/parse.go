package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"fte-forecaster/calendar"
	"fte-forecaster/errors"
	"fte-forecaster/metrics"
	"fte-forecaster/models"
)

// Column positions within a record.
type columns struct {
	date, client, language, volume, aht int
}

// defaultColumns is the layout assumed when the file has no header row.
var defaultColumns = columns{date: 0, client: 1, language: 2, volume: 3, aht: 4}

var headerAliases = map[string]string{
	"date":     "date",
	"fecha":    "date",
	"cliente":  "client",
	"client":   "client",
	"idioma":   "language",
	"language": "language",
	"y":        "volume",
	"volume":   "volume",
	"offered":  "volume",
	"llamadas": "volume",
	"aht":      "aht",
}

// Parse reads the cleaned daily call CSV and returns one observation per row.
// Lines starting with '#' are comments. An optional header row names the
// columns (date, cliente/client, idioma/language, y/volume/offered, aht) in
// any order; without one the order is date,cliente,idioma,y,aht.
// Dates use YYYY-MM-DD. The aht column is optional per row and accepts plain
// seconds, H:MM:SS, or a Go duration such as 5m30s.
func Parse(r io.Reader) ([]models.DailyObservation, error) {
	start := time.Now()
	defer func() {
		metrics.ParserDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	cols := defaultColumns
	headerSeen := false
	var data []models.DailyObservation

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		lineNum, _ := reader.FieldPos(0)

		// Handle comments
		if len(record) > 0 && strings.HasPrefix(strings.TrimSpace(record[0]), "#") {
			continue
		}

		if !headerSeen && len(data) == 0 && isHeader(record) {
			cols, err = headerColumns(record)
			if err != nil {
				return nil, fail(lineNum, record, err, "missing_column")
			}
			headerSeen = true
			continue
		}

		if isBlank(record) {
			return nil, fail(lineNum, record, errors.ErrEmptyRecord, "empty_record")
		}

		obs, ferr := parseRecord(record, cols)
		if ferr != nil {
			return nil, fail(lineNum, record, ferr.err, ferr.kind)
		}
		data = append(data, obs)
		metrics.ParserRecordsTotal.Inc()
	}

	return data, nil
}

type fieldError struct {
	err  error
	kind string
}

func fail(line int, record []string, err error, kind string) error {
	metrics.ParserErrorsTotal.WithLabelValues(kind).Inc()
	return &errors.ParseError{Line: line, Record: record, Err: err}
}

func parseRecord(record []string, cols columns) (models.DailyObservation, *fieldError) {
	required := max(cols.date, cols.client, cols.language, cols.volume)
	if len(record) <= required {
		return models.DailyObservation{}, &fieldError{errors.ErrInvalidFieldCount, "invalid_field_count"}
	}

	obs := models.DailyObservation{
		Client:   strings.TrimSpace(record[cols.client]),
		Language: strings.TrimSpace(record[cols.language]),
	}

	date, err := calendar.ParseDate(strings.TrimSpace(record[cols.date]))
	if err != nil {
		return obs, &fieldError{fmt.Errorf("%w: %v", errors.ErrInvalidDate, err), "invalid_date"}
	}
	obs.Date = date

	obs.Volume, err = strconv.ParseFloat(strings.TrimSpace(record[cols.volume]), 64)
	if err != nil {
		return obs, &fieldError{fmt.Errorf("%w: %v", errors.ErrInvalidVolume, err), "invalid_volume"}
	}
	if obs.Volume < 0 {
		return obs, &fieldError{fmt.Errorf("%w: negative volume %v", errors.ErrInvalidVolume, obs.Volume), "invalid_volume"}
	}

	if cols.aht >= 0 && cols.aht < len(record) {
		raw := strings.TrimSpace(record[cols.aht])
		if raw != "" {
			secs, err := parseSeconds(raw)
			if err != nil {
				return obs, &fieldError{fmt.Errorf("%w: %v", errors.ErrInvalidHandleTime, err), "invalid_handle_time"}
			}
			obs.AHTSeconds = &secs
		}
	}
	return obs, nil
}

// parseSeconds accepts "330", "330.5", "0:05:30", "05:30" or "5m30s".
func parseSeconds(value string) (float64, error) {
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative handle time %q", value)
		}
		return secs, nil
	}
	if strings.Contains(value, ":") {
		parts := strings.Split(value, ":")
		if len(parts) > 3 {
			return 0, fmt.Errorf("unrecognised handle time %q", value)
		}
		total := 0.0
		for _, p := range parts {
			n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("unrecognised handle time %q", value)
			}
			total = total*60 + n
		}
		return total, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("unrecognised handle time %q", value)
	}
	return d.Seconds(), nil
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	_, known := headerAliases[normalize(record[0])]
	_, err := calendar.ParseDate(strings.TrimSpace(record[0]))
	return known && err != nil
}

func headerColumns(record []string) (columns, error) {
	cols := columns{date: -1, client: -1, language: -1, volume: -1, aht: -1}
	for i, name := range record {
		switch headerAliases[normalize(name)] {
		case "date":
			cols.date = i
		case "client":
			cols.client = i
		case "language":
			cols.language = i
		case "volume":
			cols.volume = i
		case "aht":
			cols.aht = i
		}
	}
	for name, idx := range map[string]int{
		"date":    cols.date,
		"cliente": cols.client,
		"idioma":  cols.language,
		"y":       cols.volume,
	} {
		if idx < 0 {
			return cols, fmt.Errorf("%w: %s", errors.ErrMissingColumn, name)
		}
	}
	return cols, nil
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
