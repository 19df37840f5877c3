package domain

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// AlertKind distinguishes the two alert feeds.
type AlertKind string

const (
	AlertPlanned   AlertKind = "planned"
	AlertUnplanned AlertKind = "unplanned"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AlertRecord is a municipal service notice. Dates hold only the calendar
// part of the published timestamps; a nil date means absent or unparseable.
type AlertRecord struct {
	ID            string
	Kind          AlertKind
	Title         string
	Description   string
	ServiceArea   string
	Area          string
	Location      string
	Coordinates   *Coordinates
	PublishDate   *time.Time
	EffectiveDate *time.Time
	ExpiryDate    *time.Time
}

// Mappable reports whether the alert can be placed on the map.
func (a AlertRecord) Mappable() bool { return a.Coordinates != nil }

// Key identifies an alert across both feeds, whose IDs may overlap.
func (a AlertRecord) Key() string { return string(a.Kind) + ":" + a.ID }

// IconID returns the map icon identifier for the alert.
func (a AlertRecord) IconID() string { return IconID(a.ServiceArea, a.Kind) }

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	nonIconCharRe = regexp.MustCompile(`[^a-z0-9_]`)
)

// IconID derives an icon identifier from a service area and alert kind,
// e.g. ("Roads & Stormwater", planned) -> "roads_stormwater_planned".
func IconID(serviceArea string, kind AlertKind) string {
	s := strings.ToLower(strings.TrimSpace(serviceArea))
	s = strings.ReplaceAll(s, "&", "")
	s = whitespaceRe.ReplaceAllString(s, "_")
	s = nonIconCharRe.ReplaceAllString(s, "")
	return s + "_" + string(kind)
}

// ActiveAlerts returns the alerts in force on ref, preserving input order.
//
// An alert is active when it expires no earlier than the day before ref and
// was published no later than ref. Alerts missing either date are never active.
func ActiveAlerts(alerts []AlertRecord, ref time.Time) []AlertRecord {
	ref = truncateDay(ref)
	grace := ref.AddDate(0, 0, -1)

	active := make([]AlertRecord, 0, len(alerts))
	for _, a := range alerts {
		if a.PublishDate == nil || a.ExpiryDate == nil {
			continue
		}
		if a.ExpiryDate.Before(grace) || a.PublishDate.After(ref) {
			continue
		}
		active = append(active, a)
	}
	return active
}

// FilterByServiceArea keeps alerts whose service area matches area,
// ignoring case. An empty area keeps everything.
func FilterByServiceArea(alerts []AlertRecord, area string) []AlertRecord {
	area = strings.TrimSpace(area)
	if area == "" {
		return alerts
	}
	out := make([]AlertRecord, 0, len(alerts))
	for _, a := range alerts {
		if strings.EqualFold(strings.TrimSpace(a.ServiceArea), area) {
			out = append(out, a)
		}
	}
	return out
}

// ServiceAreaCount is the number of alerts for one service area.
type ServiceAreaCount struct {
	ServiceArea string `json:"service_area"`
	Count       int    `json:"count"`
}

// AlertSummary counts alerts per service area.
type AlertSummary struct {
	Total  int                `json:"total"`
	ByArea []ServiceAreaCount `json:"by_area"`
}

// SummarizeAlerts counts alerts per service area, most frequent first and
// alphabetical among equals. Alerts without a service area count as "Other".
func SummarizeAlerts(alerts []AlertRecord) AlertSummary {
	counts := make(map[string]int)
	for _, a := range alerts {
		area := strings.TrimSpace(a.ServiceArea)
		if area == "" {
			area = "Other"
		}
		counts[area]++
	}

	byArea := make([]ServiceAreaCount, 0, len(counts))
	for area, n := range counts {
		byArea = append(byArea, ServiceAreaCount{ServiceArea: area, Count: n})
	}
	sort.Slice(byArea, func(i, j int) bool {
		if byArea[i].Count != byArea[j].Count {
			return byArea[i].Count > byArea[j].Count
		}
		return byArea[i].ServiceArea < byArea[j].ServiceArea
	})
	return AlertSummary{Total: len(alerts), ByArea: byArea}
}

// AlertView is the list-panel rendering of an alert.
type AlertView struct {
	ID            string       `json:"id"`
	Kind          AlertKind    `json:"kind"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	ServiceArea   string       `json:"service_area"`
	Area          string       `json:"area,omitempty"`
	Location      string       `json:"location,omitempty"`
	Icon          string       `json:"icon"`
	Coordinates   *Coordinates `json:"coordinates"`
	PublishDate   string       `json:"publish_date"`
	EffectiveDate string       `json:"effective_date,omitempty"`
	ExpiryDate    string       `json:"expiry_date"`
}

// NewAlertView renders an alert for output.
func NewAlertView(a AlertRecord) AlertView {
	v := AlertView{
		ID:            a.ID,
		Kind:          a.Kind,
		Title:         a.Title,
		Description:   a.Description,
		ServiceArea:   a.ServiceArea,
		Area:          a.Area,
		Location:      a.Location,
		Icon:          a.IconID(),
		PublishDate:   formatOptional(a.PublishDate),
		EffectiveDate: formatOptional(a.EffectiveDate),
		ExpiryDate:    formatOptional(a.ExpiryDate),
	}
	if a.Coordinates != nil {
		c := *a.Coordinates
		v.Coordinates = &c
	}
	return v
}

// AlertViews renders a list of alerts.
func AlertViews(alerts []AlertRecord) []AlertView {
	out := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, NewAlertView(a))
	}
	return out
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}
