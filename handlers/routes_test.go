package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"habit-ledger/database"
	"habit-ledger/middleware"
	"habit-ledger/models"
	"habit-ledger/services"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const (
	testSecret  = "jwt-secret"
	testService = "svc-token"
)

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	table := &models.RewardTable{Tiers: []models.RewardTier{{
		Name: "common", Label: "Common", Weight: 1,
		Components: []models.RewardComponent{{Kind: models.RewardCoins, Min: 5, Max: 5}},
	}}}
	ledger := services.NewLedgerService(db, services.LedgerConfig{
		Rewards: table,
		Streaks: services.NewStreakTracker(time.UTC, services.ResetToOne),
	})

	app := fiber.New()
	Setup(app, Deps{
		Ledger:       ledger,
		Leaderboards: services.NewLeaderboardService(db, time.UTC),
		Revocations:  services.NewRevocationService(db),
		JWTSecret:    testSecret,
		ServiceToken: testService,
	})
	return &testServer{app: app, db: db}
}

func bearer(t *testing.T, userID, jti string) string {
	t.Helper()
	claims := middleware.Claims{
		UserID:   userID,
		Username: "user-" + userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + raw
}

func (s *testServer) do(t *testing.T, method, path, auth, body string, headers ...string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)
	if status, body := s.do(t, "GET", "/healthz", "", ""); status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("/healthz = %d %v", status, body)
	}
	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Errorf("/metrics = %v, %v", resp, err)
	}
}

func TestLedgerRoutes(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, "u1", "jti-u1")

	if status, _ := s.do(t, "GET", "/user/ledger", "", ""); status != http.StatusUnauthorized {
		t.Errorf("unauthenticated ledger = %d, want 401", status)
	}

	status, body := s.do(t, "GET", "/user/ledger", auth, "")
	if status != http.StatusOK {
		t.Fatalf("GET /user/ledger = %d %v", status, body)
	}
	if body["id"] != "u1" || body["level"] != float64(1) {
		t.Errorf("ledger = %v", body)
	}

	var freeze models.ShopItem
	s.db.Where("code = ?", "streak-freeze").First(&freeze)
	status, body = s.do(t, "POST", "/user/shop/"+freeze.ID+"/purchase", auth, "")
	if status != http.StatusPaymentRequired {
		t.Errorf("broke purchase = %d %v, want 402", status, body)
	}

	status, body = s.do(t, "POST", "/user/spin", auth, "")
	if status != http.StatusOK || body["coins_gained"] != float64(5) {
		t.Fatalf("first spin = %d %v", status, body)
	}
	status, body = s.do(t, "POST", "/user/spin", auth, "")
	if status != http.StatusTooManyRequests {
		t.Fatalf("second spin = %d %v, want 429", status, body)
	}
	if hours, ok := body["retry_after_hours"].(float64); !ok || hours <= 23 || hours > 24 {
		t.Errorf("retry_after_hours = %v", body["retry_after_hours"])
	}

	h := models.Habit{UserID: "u1", Title: "Stretch", XPReward: 120}
	s.db.Create(&h)
	status, body = s.do(t, "POST", "/user/habits/"+h.ID+"/complete", auth, "")
	if status != http.StatusOK || body["level_up"] != float64(2) {
		t.Errorf("complete habit = %d %v", status, body)
	}
	if status, _ = s.do(t, "POST", "/user/habits/"+h.ID+"/complete", auth, ""); status != http.StatusConflict {
		t.Errorf("repeat completion = %d, want 409", status)
	}
	if status, _ = s.do(t, "POST", "/user/tasks/missing/complete", auth, ""); status != http.StatusNotFound {
		t.Errorf("missing task = %d, want 404", status)
	}

	status, body = s.do(t, "POST", "/user/games/chess/play", auth, `{"score": 900, "xp": 15}`)
	if status != http.StatusOK || body["xp_gained"] != float64(15) {
		t.Errorf("game play = %d %v", status, body)
	}

	status, body = s.do(t, "GET", "/user/ledger/history?page=1&size=2", auth, "")
	if status != http.StatusOK || body["total_items"] != float64(3) {
		t.Errorf("history = %d %v", status, body)
	}
}

func TestLeaderboardRoutes(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, "u1", "jti-lb")
	s.do(t, "GET", "/user/ledger", auth, "")

	status, body := s.do(t, "GET", "/leaderboard?dimension=global_xp&limit=10", auth, "")
	if status != http.StatusOK {
		t.Fatalf("leaderboard = %d %v", status, body)
	}
	if entries, _ := body["entries"].([]interface{}); len(entries) != 1 {
		t.Errorf("entries = %v", body["entries"])
	}

	if status, _ = s.do(t, "GET", "/leaderboard?dimension=karma", auth, ""); status != http.StatusBadRequest {
		t.Errorf("unknown dimension = %d, want 400", status)
	}
	if status, _ = s.do(t, "GET", "/leaderboard?dimension=game_xp", auth, ""); status != http.StatusBadRequest {
		t.Errorf("missing scope = %d, want 400", status)
	}
	status, body = s.do(t, "GET", "/leaderboard/position?dimension=streak", auth, "")
	if status != http.StatusOK || body["rank"] != float64(1) {
		t.Errorf("position = %d %v", status, body)
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	s.db.Create(&models.UserLedger{ID: "u9", Level: 1})

	grant := `{"user_id": "u9", "xp": 150, "reason": "support"}`
	if status, _ := s.do(t, "POST", "/s/admin/xp/grant", "", grant); status != http.StatusUnauthorized {
		t.Errorf("grant without service token = %d, want 401", status)
	}
	status, body := s.do(t, "POST", "/s/admin/xp/grant", "", grant, "X-Service-Token", testService)
	if status != http.StatusOK || body["level_up"] != float64(2) {
		t.Errorf("grant = %d %v", status, body)
	}
	status, _ = s.do(t, "POST", "/s/admin/xp/grant", "", `{"user_id": "u9", "xp": -5}`, "X-Service-Token", testService)
	if status != http.StatusBadRequest {
		t.Errorf("negative grant = %d, want 400", status)
	}
	status, _ = s.do(t, "POST", "/s/admin/streak-protection", "", `{"user_id": "nobody", "hours": 24}`, "X-Service-Token", testService)
	if status != http.StatusNotFound {
		t.Errorf("protection for unknown user = %d, want 404", status)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, "u1", "jti-logout")

	if status, _ := s.do(t, "GET", "/user/ledger", auth, ""); status != http.StatusOK {
		t.Fatalf("pre-logout ledger = %d", status)
	}
	if status, _ := s.do(t, "POST", "/auth/logout", auth, ""); status != http.StatusOK {
		t.Fatalf("logout = %d", status)
	}
	status, body := s.do(t, "GET", "/user/ledger", auth, "")
	if status != http.StatusUnauthorized || body["error"] != "token revoked" {
		t.Errorf("post-logout ledger = %d %v, want 401 token revoked", status, body)
	}
}
