package staffing

import (
	"sort"
	"time"

	"fte-forecaster/metrics"
	"fte-forecaster/models"
)

// ImpactedSeries is a series that did not get every seat it asked for.
type ImpactedSeries struct {
	models.SeriesKey
	Requested int `json:"requested_agents"`
	Allocated int `json:"allocated_agents"`
	Unmet     int `json:"unmet_agents"`
	Priority  int `json:"priority"`
}

// Shortfall describes a day whose adjusted agents exceed the seat capacity.
type Shortfall struct {
	Date      time.Time        `json:"date"`
	Demand    int              `json:"total_demand"`
	Allocated int              `json:"allocated_agents"`
	Unmet     int              `json:"unmet_agents"`
	Impacted  []ImpactedSeries `json:"impacted"`
}

// CheckCapacity allocates at most capacity seats per day across series,
// serving lower priority numbers first (1 = highest). Clients missing from
// priorities rank after every listed client. Only days with unmet demand are
// returned, in date order. A non-positive capacity means unlimited.
func CheckCapacity(rows []models.StaffingRow, capacity int, priorities map[string]int) []Shortfall {
	if capacity <= 0 {
		return nil
	}

	lowest := 0
	for _, p := range priorities {
		lowest = max(lowest, p)
	}
	priorityOf := func(client string) int {
		if p, ok := priorities[client]; ok {
			return p
		}
		return lowest + 1
	}

	byDate := make(map[time.Time][]ImpactedSeries)
	for _, r := range rows {
		if r.Estimate == nil || r.Estimate.AgentsAdjusted == 0 {
			continue
		}
		byDate[r.Date] = append(byDate[r.Date], ImpactedSeries{
			SeriesKey: r.SeriesKey,
			Requested: r.Estimate.AgentsAdjusted,
			Priority:  priorityOf(r.Client),
		})
	}

	var shortfalls []Shortfall
	for date, requests := range byDate {
		if s, short := allocate(requests, capacity); short {
			s.Date = date
			shortfalls = append(shortfalls, s)
			metrics.CapacityShortfallsTotal.Inc()
		}
	}
	sort.Slice(shortfalls, func(i, j int) bool { return shortfalls[i].Date.Before(shortfalls[j].Date) })
	return shortfalls
}

// allocate hands out seats in priority order, then by series key.
func allocate(requests []ImpactedSeries, capacity int) (Shortfall, bool) {
	total := 0
	for _, req := range requests {
		total += req.Requested
	}
	if capacity >= total {
		return Shortfall{}, false
	}

	sort.Slice(requests, func(i, j int) bool {
		if requests[i].Priority != requests[j].Priority {
			return requests[i].Priority < requests[j].Priority
		}
		return requests[i].SeriesKey.Less(requests[j].SeriesKey)
	})

	s := Shortfall{Demand: total, Allocated: capacity, Unmet: total - capacity}
	remaining := capacity
	for _, req := range requests {
		req.Allocated = min(remaining, req.Requested)
		req.Unmet = req.Requested - req.Allocated
		remaining -= req.Allocated
		if req.Unmet > 0 {
			s.Impacted = append(s.Impacted, req)
		}
	}
	return s, true
}
