package smartlink

import "time"

// Summary aggregates a click sequence for the owner dashboard.
type Summary struct {
	Total       int            `json:"total"`
	ByReferrer  map[string]int `json:"byReferrer"`
	BySource    map[string]int `json:"bySource"`
	FirstClick  *time.Time     `json:"firstClick,omitempty"`
	LatestClick *time.Time     `json:"latestClick,omitempty"`
}

// SourceParam is the tracking parameter counted in BySource.
const SourceParam = "utm_source"

// Summarize counts clicks by referrer and by utm_source.
func Summarize(clicks []ClickEvent) Summary {
	s := Summary{
		Total:      len(clicks),
		ByReferrer: make(map[string]int),
		BySource:   make(map[string]int),
	}

	for i := range clicks {
		c := clicks[i]

		s.ByReferrer[c.Referrer]++

		if source, ok := c.TrackingParams[SourceParam]; ok && source != "" {
			s.BySource[source]++
		}

		ts := c.Timestamp
		if s.FirstClick == nil || ts.Before(*s.FirstClick) {
			s.FirstClick = &ts
		}

		if s.LatestClick == nil || ts.After(*s.LatestClick) {
			latest := ts
			s.LatestClick = &latest
		}
	}

	return s
}
