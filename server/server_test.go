package server

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/house-of-voi/hov-engine/betkey"
	"github.com/house-of-voi/hov-engine/config"
	"github.com/house-of-voi/hov-engine/grid"
	"github.com/house-of-voi/hov-engine/machine"
	"github.com/house-of-voi/hov-engine/pkg/jackpot"
	"github.com/house-of-voi/hov-engine/verify"
	"github.com/house-of-voi/hov-engine/ways"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			Expiration: time.Hour,
		},
	}

	app := New(Options{
		Config:       cfg,
		Logger:       zerolog.Nop(),
		Machines:     machine.DefaultRegistry(),
		JackpotStore: jackpot.NewMemoryStore(),
	})
	t.Cleanup(app.jackpotService.Stop)

	app.RegisterHealthCheck()
	app.RegisterEngineRoutes()
	return app
}

func sessionToken(t *testing.T, app *App) string {
	t.Helper()

	body := bytes.NewBufferString(`{"address":"PLAYERADDRESS"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("session creation failed: %d %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Token     string `json:"token"`
			SessionID string `json:"sessionId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal session response: %v", err)
	}
	if resp.Data.Token == "" || resp.Data.SessionID == "" {
		t.Fatalf("incomplete session response: %s", w.Body.String())
	}
	return resp.Data.Token
}

func authedRequest(t *testing.T, app *App, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, app))

	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestEngineRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/engine/machines", nil)
	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestCreateSessionRejectsMissingAddress(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListMachines(t *testing.T) {
	app := newTestApp(t)

	w := authedRequest(t, app, http.MethodGet, "/api/engine/machines", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Machines []MachineSummary `json:"machines"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data.Machines) != 2 {
		t.Errorf("expected 2 default machines, got %d", len(resp.Data.Machines))
	}
}

func TestGetMachineDetail(t *testing.T) {
	app := newTestApp(t)

	w := authedRequest(t, app, http.MethodGet, "/api/engine/machines/w2w-buffalo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data MachineDetail `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.Variant != machine.VariantWays {
		t.Errorf("unexpected variant %q", resp.Data.Variant)
	}
	if len(resp.Data.ReelData) != resp.Data.ReelLength*grid.Reels {
		t.Errorf("reel data length %d does not match %d reels of %d",
			len(resp.Data.ReelData), grid.Reels, resp.Data.ReelLength)
	}
}

func TestGetMachineNotFound(t *testing.T) {
	app := newTestApp(t)

	w := authedRequest(t, app, http.MethodGet, "/api/engine/machines/no-such-machine", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestVerifyEndpoint(t *testing.T) {
	app := newTestApp(t)
	m, err := app.machines.Get("w2w-buffalo")
	if err != nil {
		t.Fatal(err)
	}

	blockSeed := []byte("block-seed-for-verify-endpoint!!")
	var addr [32]byte
	key := betkey.New(addr, 20_000_000, 0, 1)

	g, err := grid.GenerateFromBetKey(blockSeed, key, m.ReelData, m.ReelLength, m.WindowLength)
	if err != nil {
		t.Fatal(err)
	}
	res := ways.Evaluate(g, m.WaysPaytable(), false)
	honestPayout := ways.CompletePayout(res, 0)

	tests := []struct {
		name       string
		request    VerifyRequest
		wantStatus int
		wantValid  bool
	}{
		{
			name: "honest claim verifies",
			request: VerifyRequest{
				Grid:        g.String(),
				TotalPayout: honestPayout,
				BlockSeed:   hex.EncodeToString(blockSeed),
				BetKey:      key.Hex(),
			},
			wantStatus: http.StatusOK,
			wantValid:  true,
		},
		{
			name: "inflated payout is flagged",
			request: VerifyRequest{
				Grid:        g.String(),
				TotalPayout: honestPayout + 1_000_000,
				BlockSeed:   hex.EncodeToString(blockSeed),
				BetKey:      key.Hex(),
			},
			wantStatus: http.StatusOK,
			wantValid:  false,
		},
		{
			name: "malformed bet key",
			request: VerifyRequest{
				Grid:        g.String(),
				TotalPayout: honestPayout,
				BlockSeed:   hex.EncodeToString(blockSeed),
				BetKey:      "zz",
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(tt.request)
			if err != nil {
				t.Fatal(err)
			}

			w := authedRequest(t, app, http.MethodPost, "/api/engine/machines/w2w-buffalo/verify", body)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp struct {
				Data verify.Certificate `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Data.Valid != tt.wantValid {
				t.Errorf("expected valid=%v, got %v (%+v)", tt.wantValid, resp.Data.Valid, resp.Data.Mismatches)
			}
		})
	}
}

func TestJackpotCurrentSeedsResetValue(t *testing.T) {
	app := newTestApp(t)
	m, err := app.machines.Get("w2w-buffalo")
	if err != nil {
		t.Fatal(err)
	}

	w := authedRequest(t, app, http.MethodGet, "/api/engine/machines/w2w-buffalo/jackpot", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Value uint64 `json:"value"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.Value != m.JackpotResetValue {
		t.Errorf("expected unwritten pool to report reset value %d, got %d", m.JackpotResetValue, resp.Data.Value)
	}
}
