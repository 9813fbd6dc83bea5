package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/perchlabs/boothboard/internal/apiserver/middleware"
	"github.com/perchlabs/boothboard/internal/auth/jwt"
	"github.com/perchlabs/boothboard/internal/common/config"
	"github.com/perchlabs/boothboard/internal/dashboard"
	"github.com/perchlabs/boothboard/internal/directory"
	"github.com/perchlabs/boothboard/internal/sheets"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeSource serves canned readings per worksheet key.
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

func fptr(v float64) *float64 { return &v }

func testStore(t *testing.T) *directory.Store {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	dir := t.TempDir()
	login := filepath.Join(dir, "login.csv")
	clients := filepath.Join(dir, "clients.csv")
	require.NoError(t, os.WriteFile(login, []byte(
		"username,password,role,client_name\n"+
			"root,"+string(hash)+",admin,\n"+
			"alice,"+string(hash)+",client,clientA\n"), 0o644))
	require.NoError(t, os.WriteFile(clients, []byte(
		"client_name,location,booth,booth_id,max_occupancy\n"+
			"clientA,Adelaide,Booth A,B-001,4\n"+
			"clientB,Sydney,Booth A,B-002,6\n"), 0o644))
	st, err := directory.NewStore(config.TablesConfig{LoginCSV: login, ClientsCSV: clients}, zap.NewNop())
	require.NoError(t, err)
	return st
}

func testSource(t *testing.T) *fakeSource {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04:05", "2025-03-14 10:00:00")
	require.NoError(t, err)
	return &fakeSource{
		data: map[string][]sheets.Reading{
			"Adelaide_BoothA": {{
				Timestamp:      ts,
				PIRState:       "Occupied",
				OccupancyCount: fptr(2),
				CO2PPM:         fptr(800),
				TempC:          fptr(22),
			}},
			"Sydney_BoothA": {{
				Timestamp: ts,
				PIRState:  "Vacant",
				CO2PPM:    fptr(500),
				TempC:     fptr(21),
			}},
		},
		fail: map[string]error{},
	}
}

func mustJWTService(t *testing.T) *jwt.Service {
	t.Helper()
	svc, err := jwt.NewService(jwt.Config{SecretKey: "unit-test-secret", Duration: time.Hour})
	require.NoError(t, err)
	return svc
}

// testRouter wires the handler set into a gin engine the way the apiserver
// package does, minus the operational middleware.
func testRouter(t *testing.T, h *Handler, svc *jwt.Service) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.POST("/api/auth/login", h.Login)
	authed := r.Group("/api", middleware.JWTAuthMiddleware(svc))
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/dashboard", h.Dashboard)
	authed.GET("/locations/:location", h.Location)
	authed.GET("/booths/:location/:booth", h.Booth)
	authed.GET("/booths/:location/:booth/analytics/:metric", h.Analytics)
	return r
}

type testHarness struct {
	router *gin.Engine
	svc    *jwt.Service
	views  int
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	st := testStore(t)
	composer := dashboard.NewComposer(st, testSource(t), zap.NewNop())
	svc := mustJWTService(t)
	h := &testHarness{svc: svc}
	handler := NewHandler(st, composer, svc, zap.NewNop(), 30*time.Second, func() { h.views++ })
	h.router = testRouter(t, handler, svc)
	return h
}

func (h *testHarness) token(t *testing.T, username, role, clientName string) string {
	t.Helper()
	token, err := h.svc.GenerateToken(username, role, clientName)
	require.NoError(t, err)
	return token
}

func (h *testHarness) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestDateWindow(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?start_date=2025-03-01&end_date=2025-03-02", nil)

	from, to, err := dateWindow(c)
	require.NoError(t, err)
	require.Equal(t, "2025-03-01", from.Format("2006-01-02"))
	// end date is inclusive
	require.True(t, to.After(from.Add(47*time.Hour)))

	// gin caches query params per context, so use a fresh context for the
	// second request rather than swapping Request on the first one.
	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest(http.MethodGet, "/?start_date=yesterday", nil)
	_, _, err = dateWindow(c2)
	require.Error(t, err)
}
