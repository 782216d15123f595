package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
	"github.com/creatorpulse/settler/internal/payout"
	"github.com/creatorpulse/settler/internal/resolution"
	"github.com/creatorpulse/settler/internal/store/memory"
)

func newResolveServer(t *testing.T) (*httptest.Server, *memory.DB) {
	t.Helper()
	db := memory.NewDB()
	db.Seed(
		[]domain.Market{{
			ID:         "m1",
			Question:   "Will the video trend?",
			Options:    []string{"Yes", "No"},
			TokenPools: []float64{1000, 500},
			Pot:        203,
			ClosesAt:   time.Now().Add(24 * time.Hour),
		}},
		[]domain.Bet{
			{ID: "b1", MarketID: "m1", UserID: "u1", Option: "Yes", TokenStake: 1000},
			{ID: "b2", MarketID: "m1", UserID: "u2", Option: "No", TokenStake: 500},
		},
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := resolution.NewCoordinator(db, payout.DefaultFeeConfig(), logger)
	h := NewResolutionHandler(coord, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/markets/{id}/resolve", h.Resolve)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, db
}

func postResolve(t *testing.T, srv *httptest.Server, marketID, body string) (*http.Response, resolveResponse) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/markets/"+marketID+"/resolve", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post resolve: %v", err)
	}
	defer resp.Body.Close()

	var out resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestResolveEndpoint_Success(t *testing.T) {
	srv, db := newResolveServer(t)

	resp, out := postResolve(t, srv, "m1", `{"winning_option":"Yes"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !out.Result.Success {
		t.Errorf("result = %+v, want success", out.Result)
	}
	if out.Summary == nil || out.Summary.Tokens.PayoutPerUnit != 1.45 {
		t.Errorf("summary = %+v, want payout per unit 1.45", out.Summary)
	}

	m, err := db.Stores().Markets.GetByID(t.Context(), "m1")
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if !m.Resolved {
		t.Error("market not marked resolved")
	}
}

func TestResolveEndpoint_Conflict(t *testing.T) {
	srv, _ := newResolveServer(t)

	if resp, _ := postResolve(t, srv, "m1", `{"winning_option":"Yes"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("first resolve status = %d, want 200", resp.StatusCode)
	}

	resp, out := postResolve(t, srv, "m1", `{"winning_option":"No"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	if out.Result.Success || out.Result.Reason != "market already resolved" {
		t.Errorf("result = %+v, want already-resolved reason", out.Result)
	}
}

func TestResolveEndpoint_Errors(t *testing.T) {
	srv, _ := newResolveServer(t)

	tests := []struct {
		name       string
		marketID   string
		body       string
		wantStatus int
	}{
		{"unknown market", "missing", `{"winning_option":"Yes"}`, http.StatusNotFound},
		{"undeclared option", "m1", `{"winning_option":"Maybe"}`, http.StatusUnprocessableEntity},
		{"empty option", "m1", `{}`, http.StatusBadRequest},
		{"malformed body", "m1", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := postResolve(t, srv, tt.marketID, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}
