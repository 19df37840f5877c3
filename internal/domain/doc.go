// Package domain derives the reservoir dashboard state from raw source data.
//
// Everything here is pure: functions take immutable inputs and a date and
// return new values. The only ambient input is the package clock used for
// "today" (see [SetClock]).
//
// # Source Data Conventions
//
// Reservoir geometry is a GeoJSON FeatureCollection. Each feature carries a
// NAME property and, optionally, a static current_percentage_full reading
// and an embedded storage_levels series. Two synthetic features, "Big 6
// Total" and "Big 5 Total", hold system-wide totals and are rendered as
// headline figures rather than map polygons.
//
// Level tables map a normalized key to an ascending series of readings:
//
//	{"theewaterskloof": [{"date": "2024-05-01", "percent_full": 63.2, ...}, ...]}
//
// Keys are derived from display names by [NormalizeKey]:
//
//	"Theewaterskloof Dam"  ->  "theewaterskloof"
//	"Land-en-Zeezicht Dam" ->  "land-enzeezicht"
//
// Only the first hyphen is kept, matching the keys of the published tables.
// Aggregates use reserved keys instead ("totalstored-big6").
//
// # Value Resolution
//
// A reading for a date is taken from the point on that date when it has a
// value, otherwise from the closest earlier point with one. The returned
// effective date tells the caller the reading is stale. When nothing
// qualifies the value is missing and must be shown as "N/A", never as zero.
//
// Fill bands:
//
//	<=20% red | <=40% amber | <=60% light-yellow | <=80% light-green | >80% green
//	missing -> grey
//
// # Service Alerts
//
// Alerts are active on a date when published on or before it and expiring no
// earlier than the previous day. Alerts without coordinates are listed but
// not mapped.
package domain
