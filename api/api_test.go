package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/semanticallynull/scootershare/internal/o11y"
	"github.com/semanticallynull/scootershare/scooter"
)

func testAPI() *API {
	obs := &o11y.Observability{
		Logger:   slog.New(slog.DiscardHandler),
		Registry: prometheus.NewRegistry(),
	}
	return New(obs, nil, nil, nil, nil, nil)
}

func TestHealthRoute(t *testing.T) {
	a := testAPI()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	a.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	a := testAPI()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	a.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestToScooterDetails(t *testing.T) {
	s := scooter.Scooter{
		ID:                "SCTR-4",
		Make:              "Xiaomi",
		Colour:            "black",
		Location:          pgtype.Point{P: pgtype.Vec2{X: -37.8136, Y: 144.9631}, Valid: true},
		CostMin:           0.25,
		BatteryPercentage: 87,
		Status:            scooter.StatusAvailable,
		IPAddress:         "10.1.2.3",
		FaultNotes:        sql.NullString{String: "bell missing", Valid: true},
	}

	d := toScooterDetails(s)

	if d.ScooterID != "SCTR-4" || d.Make != "Xiaomi" {
		t.Errorf("identity mapped wrong: %+v", d)
	}
	if d.Latitude != -37.8136 || d.Longitude != 144.9631 {
		t.Errorf("location = (%v, %v), want (-37.8136, 144.9631)", d.Latitude, d.Longitude)
	}
	if d.FaultNotes != "bell missing" {
		t.Errorf("fault notes = %q", d.FaultNotes)
	}
	if d.IPAddress != "10.1.2.3" || d.BatteryPercentage != 87 {
		t.Errorf("details mapped wrong: %+v", d)
	}
}
