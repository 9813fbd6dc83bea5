package dashboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/perchlabs/boothboard/internal/common/config"
	"github.com/perchlabs/boothboard/internal/directory"
	"github.com/perchlabs/boothboard/internal/sheets"
)

// fakeSource serves canned readings per worksheet and can fail selected
// worksheets.
type fakeSource struct {
	data map[string][]sheets.Reading
	fail map[string]error
}

func (s *fakeSource) Records(ctx context.Context, worksheet string) ([]sheets.Reading, error) {
	if err, ok := s.fail[worksheet]; ok {
		return nil, err
	}
	if readings, ok := s.data[worksheet]; ok {
		return readings, nil
	}
	return nil, sheets.ErrWorksheetNotFound
}

func testDirectory(t *testing.T) *directory.Store {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	dir := t.TempDir()
	login := filepath.Join(dir, "login.csv")
	clients := filepath.Join(dir, "clients.csv")
	require.NoError(t, os.WriteFile(login, []byte(
		"username,password,role,client_name\n"+
			"root,"+string(hash)+",admin,\n"+
			"alice,"+string(hash)+",client,clientA\n"+
			"ghost,"+string(hash)+",client,missing\n"), 0o644))
	require.NoError(t, os.WriteFile(clients, []byte(
		"client_name,location,booth,booth_id,max_occupancy\n"+
			"clientA,Adelaide,Booth A,B-001,4\n"+
			"clientA,Adelaide,Booth B,B-002,2\n"+
			"clientB,Sydney,Booth A,B-003,6\n"), 0o644))
	st, err := directory.NewStore(config.TablesConfig{LoginCSV: login, ClientsCSV: clients}, zap.NewNop())
	require.NoError(t, err)
	return st
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04:05", s)
	require.NoError(t, err)
	return ts
}

func reading(t *testing.T, ts string, pir string, occ, co2, temp float64) sheets.Reading {
	t.Helper()
	return sheets.Reading{
		Timestamp:      at(t, ts),
		PIRState:       pir,
		OccupancyCount: f(occ),
		CO2PPM:         f(co2),
		TempC:          f(temp),
	}
}

func testSource(t *testing.T) *fakeSource {
	return &fakeSource{
		data: map[string][]sheets.Reading{
			"Adelaide_BoothA": {
				reading(t, "2025-03-14 09:00:00", "Vacant", 0, 600, 22),
				reading(t, "2025-03-14 10:00:00", "Occupied", 2, 1200, 26),
			},
			"Adelaide_BoothB": {
				reading(t, "2025-03-14 09:00:00", "Vacant", 0, 500, 21),
			},
			"Sydney_BoothA": {
				reading(t, "2025-03-14 09:00:00", "Occupied", 3, 700, 23),
			},
		},
		fail: map[string]error{},
	}
}

func TestCompose_ClientScope(t *testing.T) {
	c := NewComposer(testDirectory(t), testSource(t), zap.NewNop())

	view, err := c.Compose(context.Background(), directory.Scope{Role: directory.RoleClient, ClientName: "clientA"})
	require.NoError(t, err)

	require.Len(t, view.Cards, 2)
	assert.Equal(t, []string{"Adelaide"}, view.Locations)
	assert.Equal(t, 2, view.KPIs.TotalBooths)
	assert.Equal(t, 1, view.KPIs.CurrentlyOccupied)
	assert.Equal(t, map[string]int{"Adelaide": 2}, view.KPIs.BoothBreakdown)
	assert.Equal(t, map[string]int{"Adelaide": 1}, view.KPIs.OccupiedBreakdown)

	// Booth A latest: occupied, high CO2 and high temperature alerts
	assert.Len(t, view.Alerts, 2)

	boothA := view.Cards[0]
	assert.True(t, boothA.Available)
	assert.Equal(t, "Occupied", boothA.OccupancyStatus)
	assert.Equal(t, 2.0, boothA.OccupancyCount)
	assert.Equal(t, 50.0, boothA.TemporalUtilization) // 1 of 2 samples occupied
	assert.Equal(t, 50.0, boothA.CapacityUtilization) // avg 2 of max 4
}

func TestCompose_AdminSeesAllClients(t *testing.T) {
	c := NewComposer(testDirectory(t), testSource(t), zap.NewNop())

	view, err := c.Compose(context.Background(), directory.Scope{Role: directory.RoleAdmin})
	require.NoError(t, err)

	assert.Len(t, view.Cards, 3)
	assert.Equal(t, []string{"Adelaide", "Sydney"}, view.Locations)
}

func TestCompose_PartialFailureIsolation(t *testing.T) {
	src := testSource(t)
	src.fail["Adelaide_BoothB"] = errors.New("fetch timeout")
	c := NewComposer(testDirectory(t), src, zap.NewNop())

	view, err := c.Compose(context.Background(), directory.Scope{Role: directory.RoleClient, ClientName: "clientA"})
	require.NoError(t, err)

	// both entries present: one populated, one marked unavailable
	require.Len(t, view.Cards, 2)
	var available, unavailable int
	for _, card := range view.Cards {
		if card.Available {
			available++
		} else {
			unavailable++
			assert.Equal(t, "Booth B", card.Booth)
		}
	}
	assert.Equal(t, 1, available)
	assert.Equal(t, 1, unavailable)
}

func TestCompose_DanglingClientDegrades(t *testing.T) {
	c := NewComposer(testDirectory(t), testSource(t), zap.NewNop())

	view, err := c.Compose(context.Background(), directory.Scope{Role: directory.RoleClient, ClientName: "missing"})
	require.NoError(t, err)
	assert.True(t, view.Degraded)
	assert.Empty(t, view.Cards)
}

func TestLocationView_SortedByUtilization(t *testing.T) {
	src := testSource(t)
	// Booth B fully occupied so it sorts above Booth A
	src.data["Adelaide_BoothB"] = []sheets.Reading{
		reading(t, "2025-03-14 09:00:00", "Occupied", 1, 500, 21),
	}
	c := NewComposer(testDirectory(t), src, zap.NewNop())

	model, err := c.LocationView(context.Background(), directory.Scope{Role: directory.RoleClient, ClientName: "clientA"}, "Adelaide", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, model.Booths, 2)
	assert.Equal(t, "Booth B", model.Booths[0].Booth)
	assert.Equal(t, 100.0, model.Booths[0].Utilization)
	assert.Equal(t, 50.0, model.Booths[1].Utilization)
}

func TestLocationView_DateWindow(t *testing.T) {
	c := NewComposer(testDirectory(t), testSource(t), zap.NewNop())

	// window covering only the occupied sample
	from := at(t, "2025-03-14 09:30:00")
	model, err := c.LocationView(context.Background(), directory.Scope{Role: directory.RoleAdmin}, "Adelaide", from, time.Time{})
	require.NoError(t, err)
	require.NotEmpty(t, model.Booths)
	assert.Equal(t, "Booth A", model.Booths[0].Booth)
	assert.Equal(t, 100.0, model.Booths[0].Utilization)
}

func TestBoothView_ScopeEnforcement(t *testing.T) {
	c := NewComposer(testDirectory(t), testSource(t), zap.NewNop())
	clientA := directory.Scope{Role: directory.RoleClient, ClientName: "clientA"}

	// out of scope: exists but belongs to clientB
	_, err := c.BoothView(context.Background(), clientA, "Sydney", "Booth A")
	assert.ErrorIs(t, err, ErrForbidden)

	// nowhere in the directory
	_, err = c.BoothView(context.Background(), clientA, "Perth", "Booth X")
	assert.ErrorIs(t, err, ErrUnknownBooth)

	// in scope
	model, err := c.BoothView(context.Background(), clientA, "Adelaide", "Booth A")
	require.NoError(t, err)
	assert.True(t, model.HasData)
	require.NotNil(t, model.Reading)
	assert.Equal(t, "Occupied", model.Reading.PIRState)
	assert.NotEmpty(t, model.Thresholds)
}

func TestBoothView_UnavailableDataStillRenders(t *testing.T) {
	src := testSource(t)
	src.fail["Adelaide_BoothA"] = errors.New("fetch timeout")
	c := NewComposer(testDirectory(t), src, zap.NewNop())

	model, err := c.BoothView(context.Background(), directory.Scope{Role: directory.RoleAdmin}, "Adelaide", "Booth A")
	require.NoError(t, err)
	assert.False(t, model.HasData)
	assert.Nil(t, model.Reading)
}

func TestAnalytics_SeriesAndAggregates(t *testing.T) {
	src := testSource(t)
	src.data["Adelaide_BoothA"] = []sheets.Reading{
		{Timestamp: at(t, "2025-03-13 09:00:00"), TempC: f(20)},
		{Timestamp: at(t, "2025-03-13 15:00:00"), TempC: f(22)},
		{Timestamp: at(t, "2025-03-14 09:00:00"), TempC: f(24)},
	}
	c := NewComposer(testDirectory(t), src, zap.NewNop())

	model, err := c.Analytics(context.Background(), directory.Scope{Role: directory.RoleAdmin}, "Adelaide", "Booth A", "temp_c", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "Temperature", model.Metric.Name)
	require.NotNil(t, model.CurrentValue)
	assert.Equal(t, 24.0, *model.CurrentValue)
	require.NotNil(t, model.AverageValue)
	assert.InDelta(t, 22.0, *model.AverageValue, 0.001)

	require.Len(t, model.Series, 2)
	assert.Equal(t, "2025-03-13", model.Series[0].Label)
	assert.Equal(t, 21.0, model.Series[0].Value)
	assert.Equal(t, "2025-03-14", model.Series[1].Label)
	assert.Equal(t, 24.0, model.Series[1].Value)
}

func TestAnalytics_UnknownMetric(t *testing.T) {
	c := NewComposer(testDirectory(t), testSource(t), zap.NewNop())

	_, err := c.Analytics(context.Background(), directory.Scope{Role: directory.RoleAdmin}, "Adelaide", "Booth A", "wind_speed", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrUnknownMetric)
}
