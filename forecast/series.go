package forecast

import (
	"sort"
	"time"

	"fte-forecaster/calendar"
	"fte-forecaster/models"

	"gonum.org/v1/gonum/stat"
)

// SeriesOptions controls how raw daily observations become lagged series.
type SeriesOptions struct {
	// SmoothingWindow is the width of the centered moving average applied
	// to volumes. Values <= 1 disable smoothing; even widths are rounded up.
	SmoothingWindow int
	// StartDate drops smoothed points before it when non-zero.
	StartDate time.Time
}

// BuildSeries groups observations by (client, language) and returns one
// lag-complete business-day series per key. Same-day volumes are summed and
// business days missing between the first and last observation count as
// zero volume. Keys without enough history keep an empty series so callers
// can report them.
func BuildSeries(obs []models.DailyObservation, opts SeriesOptions) map[models.SeriesKey]models.DailySeries {
	type bucket struct {
		volumes  map[time.Time]float64
		ahtTotal float64
		ahtCount int
	}

	buckets := make(map[models.SeriesKey]*bucket)
	for _, o := range obs {
		day := calendar.Truncate(o.Date)
		if !calendar.IsBusinessDay(day) {
			continue
		}
		key := models.SeriesKey{Client: o.Client, Language: o.Language}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{volumes: make(map[time.Time]float64)}
			buckets[key] = b
		}
		b.volumes[day] += o.Volume
		if o.AHTSeconds != nil {
			b.ahtTotal += *o.AHTSeconds
			b.ahtCount++
		}
	}

	out := make(map[models.SeriesKey]models.DailySeries, len(buckets))
	for key, b := range buckets {
		dates, volumes := denseBusinessDays(b.volumes)
		dates, volumes = smooth(dates, volumes, opts.SmoothingWindow)
		if !opts.StartDate.IsZero() {
			dates, volumes = since(dates, volumes, calendar.Truncate(opts.StartDate))
		}

		series := models.DailySeries{Key: key, HasAHT: b.ahtCount > 0}
		aht := 0.0
		if series.HasAHT {
			aht = b.ahtTotal / float64(b.ahtCount)
		}
		series.Records = lagRecords(dates, volumes, aht)
		out[key] = series
	}
	return out
}

func denseBusinessDays(volumes map[time.Time]float64) ([]time.Time, []float64) {
	if len(volumes) == 0 {
		return nil, nil
	}
	observed := make([]time.Time, 0, len(volumes))
	for d := range volumes {
		observed = append(observed, d)
	}
	sort.Slice(observed, func(i, j int) bool { return observed[i].Before(observed[j]) })

	first, last := observed[0], observed[len(observed)-1]
	var dates []time.Time
	var values []float64
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if !calendar.IsBusinessDay(d) {
			continue
		}
		dates = append(dates, d)
		values = append(values, volumes[d])
	}
	return dates, values
}

func smooth(dates []time.Time, volumes []float64, window int) ([]time.Time, []float64) {
	if window <= 1 {
		return dates, volumes
	}
	half := window / 2
	if len(volumes) < 2*half+1 {
		return nil, nil
	}
	outDates := make([]time.Time, 0, len(volumes)-2*half)
	outValues := make([]float64, 0, len(volumes)-2*half)
	for i := half; i < len(volumes)-half; i++ {
		outDates = append(outDates, dates[i])
		outValues = append(outValues, stat.Mean(volumes[i-half:i+half+1], nil))
	}
	return outDates, outValues
}

func since(dates []time.Time, volumes []float64, start time.Time) ([]time.Time, []float64) {
	i := sort.Search(len(dates), func(i int) bool { return !dates[i].Before(start) })
	return dates[i:], volumes[i:]
}

func lagRecords(dates []time.Time, volumes []float64, aht float64) []models.DailyRecord {
	if len(volumes) <= models.NumLags {
		return nil
	}
	records := make([]models.DailyRecord, 0, len(volumes)-models.NumLags)
	for i := models.NumLags; i < len(volumes); i++ {
		rec := models.DailyRecord{
			Date:       dates[i],
			Volume:     volumes[i],
			AHTSeconds: aht,
			DayOfWeek:  calendar.DayOfWeek(dates[i]),
			IsMonthEnd: calendar.IsMonthEnd(dates[i]),
		}
		for k := 1; k <= models.NumLags; k++ {
			rec.Lags[k-1] = volumes[i-k]
		}
		records = append(records, rec)
	}
	return records
}
