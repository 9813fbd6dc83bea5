package sheets

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrWorksheetNotFound signals that the external source has no worksheet for
// the requested key. Not retryable.
var ErrWorksheetNotFound = errors.New("worksheet not found")

// Source fetches the rows of one worksheet. Implementations must be safe for
// concurrent use.
type Source interface {
	Records(ctx context.Context, worksheet string) ([]Reading, error)
}

// Reading is one sensor row. Numeric fields are nil when the source omitted
// the column or the cell did not parse.
type Reading struct {
	Timestamp      time.Time `json:"timestamp"`
	TempC          *float64  `json:"temp_c"`
	HumidityPct    *float64  `json:"humidity_pct"`
	CO2PPM         *float64  `json:"co2_ppm"`
	PIRState       string    `json:"pir_state"`
	VOC            *float64  `json:"voc"`
	PM25UGM3       *float64  `json:"pm25_ugm3"`
	CH2OPPM        *float64  `json:"ch2o_ppm"`
	OccupancyCount *float64  `json:"occupancy_count"`
	LightLux       *float64  `json:"light_lux"`
	SoundDBA       *float64  `json:"sound_dba"`
}

// Occupied reports whether the PIR sensor saw the booth occupied.
func (r Reading) Occupied() bool {
	return strings.EqualFold(strings.TrimSpace(r.PIRState), "occupied")
}

// Metric returns the named numeric field, nil for unknown names.
func (r Reading) Metric(name string) *float64 {
	switch name {
	case "temp_c":
		return r.TempC
	case "humidity_pct":
		return r.HumidityPct
	case "co2_ppm":
		return r.CO2PPM
	case "voc":
		return r.VOC
	case "pm25_ugm3":
		return r.PM25UGM3
	case "ch2o_ppm":
		return r.CH2OPPM
	case "occupancy_count":
		return r.OccupancyCount
	case "light_lux":
		return r.LightLux
	case "sound_dba":
		return r.SoundDBA
	}
	return nil
}

// Key builds the external worksheet name for a location/booth pair. The
// source strips spaces from both parts: ("Adelaide", "Booth A") maps to
// worksheet "Adelaide_BoothA".
func Key(location, booth string) string {
	return strings.ReplaceAll(location, " ", "") + "_" + strings.ReplaceAll(booth, " ", "")
}

var timestampLayouts = []string{
	"1/2/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// readingFromRow maps a row keyed by lowercased header names onto a Reading.
// The original worksheets use mixed-case headers (sound_dBA), so callers
// lowercase before lookup.
func readingFromRow(row map[string]string) Reading {
	return Reading{
		Timestamp:      parseTimestamp(row["timestamp"]),
		TempC:          parseFloat(row["temp_c"]),
		HumidityPct:    parseFloat(row["humidity_pct"]),
		CO2PPM:         parseFloat(row["co2_ppm"]),
		PIRState:       strings.TrimSpace(row["pir_state"]),
		VOC:            parseFloat(row["voc"]),
		PM25UGM3:       parseFloat(row["pm25_ugm3"]),
		CH2OPPM:        parseFloat(row["ch2o_ppm"]),
		OccupancyCount: parseFloat(row["occupancy_count"]),
		LightLux:       parseFloat(row["light_lux"]),
		SoundDBA:       parseFloat(row["sound_dba"]),
	}
}

// sortByTimestamp orders readings oldest first, the order every consumer
// expects.
func sortByTimestamp(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
}
