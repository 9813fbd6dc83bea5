package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/perchlabs/boothboard/internal/directory"
	"github.com/perchlabs/boothboard/internal/sheets"
)

var (
	// ErrForbidden marks an attempt to view a booth outside the session scope.
	ErrForbidden = errors.New("booth is outside the session scope")
	// ErrUnknownBooth marks a location/booth pair absent from the directory.
	ErrUnknownBooth = errors.New("unknown booth")
	// ErrUnknownMetric marks an analytics request for a metric the service
	// does not track.
	ErrUnknownMetric = errors.New("unknown metric")
)

// Composer builds the per-scope dashboard views. Worksheet fetches are
// independent per booth: one failed fetch degrades only its own card.
type Composer struct {
	store  *directory.Store
	source sheets.Source
	logger *zap.Logger
}

// NewComposer creates a view composer over the given directory and source.
func NewComposer(store *directory.Store, source sheets.Source, logger *zap.Logger) *Composer {
	return &Composer{store: store, source: source, logger: logger}
}

// BoothCard is one booth's slice of the dashboard view.
type BoothCard struct {
	ClientName   string `json:"client_name"`
	Location     string `json:"location"`
	Booth        string `json:"booth"`
	BoothID      string `json:"booth_id"`
	MaxOccupancy int    `json:"max_occupancy"`

	// Available is false when the worksheet fetch failed; the remaining
	// fields are zero and the card renders a "data unavailable" marker.
	Available bool `json:"available"`

	LastSeen            time.Time `json:"last_seen"`
	OccupancyStatus     string    `json:"occupancy_status"`
	OccupancyCount      float64   `json:"occupancy_count"`
	ComfortScore        float64   `json:"comfort_score"`
	TemporalUtilization float64   `json:"temporal_utilization"`
	CapacityUtilization float64   `json:"capacity_utilization"`
}

// PortfolioKPIs aggregates the in-scope booths.
type PortfolioKPIs struct {
	TotalBooths        int            `json:"total_booths"`
	CurrentlyOccupied  int            `json:"currently_occupied"`
	AverageUtilization float64        `json:"average_utilization"`
	BoothBreakdown     map[string]int `json:"booth_breakdown"`
	OccupiedBreakdown  map[string]int `json:"occupied_breakdown"`
}

// View is the composed dashboard for one scope.
type View struct {
	Locations []string      `json:"locations"`
	Cards     []BoothCard   `json:"cards"`
	Alerts    []string      `json:"alerts"`
	KPIs      PortfolioKPIs `json:"portfolio_kpis"`

	// Degraded is set when the scope's client is missing from the
	// directory; the view is empty but the response is still a 200.
	Degraded bool `json:"degraded,omitempty"`
}

// Compose builds the dashboard view for a scope. A ConfigError from the
// directory yields an empty degraded view, not a failure; worksheet fetch
// errors degrade only their own card.
func (c *Composer) Compose(ctx context.Context, scope directory.Scope) (*View, error) {
	entries, err := c.store.EntriesForScope(scope)
	if err != nil {
		var cfgErr *directory.ConfigError
		if errors.As(err, &cfgErr) {
			c.logger.Error("directory misconfiguration, serving degraded view", zap.Error(cfgErr))
			return &View{
				Locations: []string{},
				Cards:     []BoothCard{},
				Alerts:    []string{},
				KPIs:      PortfolioKPIs{BoothBreakdown: map[string]int{}, OccupiedBreakdown: map[string]int{}},
				Degraded:  true,
			}, nil
		}
		return nil, err
	}

	view := &View{
		Locations: locationsOf(entries),
		Cards:     make([]BoothCard, 0, len(entries)),
		Alerts:    []string{},
		KPIs: PortfolioKPIs{
			TotalBooths:       len(entries),
			BoothBreakdown:    map[string]int{},
			OccupiedBreakdown: map[string]int{},
		},
	}

	var utilizationSum float64
	var utilizationN int

	for _, entry := range entries {
		view.KPIs.BoothBreakdown[entry.Location]++

		card := BoothCard{
			ClientName:   entry.ClientName,
			Location:     entry.Location,
			Booth:        entry.Booth,
			BoothID:      entry.BoothID,
			MaxOccupancy: entry.MaxOccupancy,
		}

		readings, err := c.source.Records(ctx, sheets.Key(entry.Location, entry.Booth))
		if err != nil || len(readings) == 0 {
			if err != nil {
				c.logger.Warn("booth data unavailable",
					zap.String("location", entry.Location),
					zap.String("booth", entry.Booth),
					zap.Error(err))
			}
			view.Cards = append(view.Cards, card)
			continue
		}

		latest := readings[len(readings)-1]
		card.Available = true
		card.LastSeen = latest.Timestamp
		card.OccupancyStatus = latest.PIRState
		if latest.OccupancyCount != nil {
			card.OccupancyCount = *latest.OccupancyCount
		}
		card.ComfortScore = ComfortScore(latest)
		card.TemporalUtilization = temporalUtilization(readings, time.Time{}, time.Time{})
		card.CapacityUtilization = capacityUtilization(readings, entry.MaxOccupancy)

		utilizationSum += card.TemporalUtilization
		utilizationN++

		if latest.Occupied() {
			view.KPIs.CurrentlyOccupied++
			view.KPIs.OccupiedBreakdown[entry.Location]++
		}
		if v := latest.CO2PPM; v != nil && *v > 1000 {
			view.Alerts = append(view.Alerts, fmt.Sprintf("High CO₂ in %s, %s: %d ppm", entry.Location, entry.Booth, int(*v)))
		}
		if v := latest.TempC; v != nil && *v > 25 {
			view.Alerts = append(view.Alerts, fmt.Sprintf("High temperature in %s, %s: %.1f°C", entry.Location, entry.Booth, *v))
		}

		view.Cards = append(view.Cards, card)
	}

	if utilizationN > 0 {
		view.KPIs.AverageUtilization = utilizationSum / float64(utilizationN)
	}
	return view, nil
}

// BoothUtilization is one row of a location view, sorted by utilization.
type BoothUtilization struct {
	Booth       string  `json:"booth"`
	Utilization float64 `json:"utilization"`
}

// LocationViewModel is the per-location drill-down.
type LocationViewModel struct {
	Location  string             `json:"location"`
	Locations []string           `json:"locations"`
	Booths    []BoothUtilization `json:"booths"`
}

// LocationView reports per-booth temporal utilization for one location
// within [from, to]; zero times leave that side of the window open. Booths
// whose data is unavailable are left out, matching the partial-failure
// policy.
func (c *Composer) LocationView(ctx context.Context, scope directory.Scope, location string, from, to time.Time) (*LocationViewModel, error) {
	entries, err := c.store.EntriesForScope(scope)
	if err != nil {
		return nil, err
	}

	model := &LocationViewModel{
		Location:  location,
		Locations: locationsOf(entries),
		Booths:    []BoothUtilization{},
	}

	for _, entry := range entries {
		if entry.Location != location {
			continue
		}
		readings, err := c.source.Records(ctx, sheets.Key(entry.Location, entry.Booth))
		if err != nil || len(readings) == 0 {
			continue
		}
		model.Booths = append(model.Booths, BoothUtilization{
			Booth:       entry.Booth,
			Utilization: temporalUtilization(readings, from, to),
		})
	}

	sort.SliceStable(model.Booths, func(i, j int) bool {
		return model.Booths[i].Utilization > model.Booths[j].Utilization
	})
	return model, nil
}

// BoothViewModel is the single-booth detail view.
type BoothViewModel struct {
	Location     string                    `json:"location"`
	Booth        string                    `json:"booth"`
	HasData      bool                      `json:"has_data"`
	Reading      *sheets.Reading           `json:"reading,omitempty"`
	ComfortScore float64                   `json:"comfort_score"`
	Thresholds   map[string]ThresholdRange `json:"thresholds"`
}

// BoothView returns the latest reading for one booth. Client scopes are
// checked against the directory first: a booth outside the scope is
// ErrForbidden, a booth nowhere in the directory is ErrUnknownBooth.
func (c *Composer) BoothView(ctx context.Context, scope directory.Scope, location, booth string) (*BoothViewModel, error) {
	if _, err := c.entryInScope(scope, location, booth); err != nil {
		return nil, err
	}

	model := &BoothViewModel{
		Location:   location,
		Booth:      booth,
		Thresholds: boothThresholds,
	}

	readings, err := c.source.Records(ctx, sheets.Key(location, booth))
	if err != nil || len(readings) == 0 {
		if err != nil {
			c.logger.Warn("booth data unavailable",
				zap.String("location", location),
				zap.String("booth", booth),
				zap.Error(err))
		}
		return model, nil
	}

	latest := readings[len(readings)-1]
	model.HasData = true
	model.Reading = &latest
	model.ComfortScore = ComfortScore(latest)
	return model, nil
}

// SeriesPoint is one bucket of an analytics series.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// AnalyticsViewModel is the per-metric drill-down for one booth.
type AnalyticsViewModel struct {
	Location     string        `json:"location"`
	Booth        string        `json:"booth"`
	MetricKey    string        `json:"metric_key"`
	Metric       MetricInfo    `json:"metric"`
	Bands        MetricBands   `json:"bands"`
	CurrentValue *float64      `json:"current_value"`
	AverageValue *float64      `json:"average_value"`
	Series       []SeriesPoint `json:"series"`
}

// Analytics returns one metric's current value, window average and
// daily-averaged series for a booth.
func (c *Composer) Analytics(ctx context.Context, scope directory.Scope, location, booth, metric string, from, to time.Time) (*AnalyticsViewModel, error) {
	info, ok := metricTable[metric]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	if _, err := c.entryInScope(scope, location, booth); err != nil {
		return nil, err
	}

	model := &AnalyticsViewModel{
		Location:  location,
		Booth:     booth,
		MetricKey: metric,
		Metric:    info,
		Bands:     metricBands[metric],
		Series:    []SeriesPoint{},
	}

	readings, err := c.source.Records(ctx, sheets.Key(location, booth))
	if err != nil {
		c.logger.Warn("booth data unavailable",
			zap.String("location", location),
			zap.String("booth", booth),
			zap.Error(err))
		return model, nil
	}

	windowed := window(readings, from, to)
	var values []float64
	byDay := map[string][]float64{}
	var days []string
	for _, r := range windowed {
		v := r.Metric(metric)
		if v == nil {
			continue
		}
		values = append(values, *v)
		day := r.Timestamp.Format("2006-01-02")
		if _, seen := byDay[day]; !seen {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], *v)
	}
	if len(values) == 0 {
		return model, nil
	}

	current := values[len(values)-1]
	model.CurrentValue = &current
	avg := mean(values)
	model.AverageValue = &avg

	sort.Strings(days)
	for _, day := range days {
		model.Series = append(model.Series, SeriesPoint{Label: day, Value: mean(byDay[day])})
	}
	return model, nil
}

// entryInScope resolves a location/booth pair against the caller's scope.
func (c *Composer) entryInScope(scope directory.Scope, location, booth string) (directory.Entry, error) {
	entries, err := c.store.EntriesForScope(scope)
	if err != nil {
		return directory.Entry{}, err
	}
	for _, e := range entries {
		if e.Location == location && e.Booth == booth {
			return e, nil
		}
	}
	// distinguish "not yours" from "does not exist"
	for _, e := range c.store.Entries() {
		if e.Location == location && e.Booth == booth {
			return directory.Entry{}, ErrForbidden
		}
	}
	return directory.Entry{}, fmt.Errorf("%w: %s/%s", ErrUnknownBooth, location, booth)
}

func locationsOf(entries []directory.Entry) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range entries {
		if !seen[e.Location] {
			seen[e.Location] = true
			out = append(out, e.Location)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// temporalUtilization is the share of samples in the window with the booth
// occupied, as a percentage. Samples without a PIR state are skipped.
func temporalUtilization(readings []sheets.Reading, from, to time.Time) float64 {
	var occupied, total int
	for _, r := range window(readings, from, to) {
		if r.PIRState == "" {
			continue
		}
		total++
		if r.Occupied() {
			occupied++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(occupied) / float64(total) * 100
}

// capacityUtilization is the mean of positive occupancy counts over the
// booth's capacity, as a percentage.
func capacityUtilization(readings []sheets.Reading, maxOccupancy int) float64 {
	if maxOccupancy <= 0 {
		return 0
	}
	var values []float64
	for _, r := range readings {
		if r.OccupancyCount != nil && *r.OccupancyCount > 0 {
			values = append(values, *r.OccupancyCount)
		}
	}
	if len(values) == 0 {
		return 0
	}
	return mean(values) / float64(maxOccupancy) * 100
}

func window(readings []sheets.Reading, from, to time.Time) []sheets.Reading {
	var out []sheets.Reading
	for _, r := range readings {
		if !from.IsZero() && r.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && r.Timestamp.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
