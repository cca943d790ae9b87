package workers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"habit-ledger/database"
	"habit-ledger/models"

	"gorm.io/gorm"
)

func TestProfileSyncWorker_SyncOnce(t *testing.T) {
	db, err := database.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	existing := models.UserLedger{ID: "u1", Username: "old-name", XP: 777, Level: 3}
	db.Create(&existing)

	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	var sinceSeen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/public/profiles" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Service-Token") != "svc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		sinceSeen = append(sinceSeen, r.URL.Query().Get("since"))
		json.NewEncoder(w).Encode(ProfileChangesResponse{Users: []RemoteProfile{
			{ExternalID: "u1", Username: "new-name", UpdatedAt: t2},
			{ExternalID: "u2", Username: "bob", UpdatedAt: t1},
			{ExternalID: "", Username: "ghost", UpdatedAt: t2},
		}})
	}))
	defer srv.Close()

	w := NewProfileSyncWorker(db, srv.URL, "/api/v1/public/profiles", "svc")
	n, err := w.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce() error: %v", err)
	}
	if n != 2 {
		t.Errorf("applied = %d, want 2", n)
	}

	var u1, u2 models.UserLedger
	db.Where("id = ?", "u1").First(&u1)
	db.Where("id = ?", "u2").First(&u2)
	if u1.Username != "new-name" || u1.XP != 777 || u1.Level != 3 {
		t.Errorf("u1 = %+v, want renamed with balances intact", u1)
	}
	if u2.Username != "bob" || u2.Level != 1 {
		t.Errorf("u2 = %+v", u2)
	}

	if _, err := w.SyncOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(sinceSeen) != 2 || sinceSeen[1] != t2.Format(time.RFC3339) {
		t.Errorf("since params = %v, want second = %s", sinceSeen, t2.Format(time.RFC3339))
	}
}

func TestProfileSyncWorker_UpstreamError(t *testing.T) {
	db, err := database.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w := NewProfileSyncWorker(db, srv.URL, "/profiles", "svc")
	if _, err := w.SyncOnce(context.Background()); err == nil {
		t.Error("SyncOnce() = nil error on 503")
	}
}

func TestProfileSyncWorker_FailedUpsertIsRefetched(t *testing.T) {
	db, err := database.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	failing := true
	err = db.Callback().Create().Before("gorm:create").Register("test:fail_u2", func(tx *gorm.DB) {
		if row, ok := tx.Statement.Dest.(*models.UserLedger); ok && row.ID == "u2" && failing {
			tx.AddError(errors.New("store unavailable"))
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var sinceSeen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sinceSeen = append(sinceSeen, r.URL.Query().Get("since"))
		json.NewEncoder(w).Encode(ProfileChangesResponse{Users: []RemoteProfile{
			{ExternalID: "u1", Username: "ann", UpdatedAt: t1},
			{ExternalID: "u2", Username: "bob", UpdatedAt: t1.Add(time.Minute)},
			{ExternalID: "u3", Username: "cy", UpdatedAt: t1.Add(2 * time.Minute)},
		}})
	}))
	defer srv.Close()

	w := NewProfileSyncWorker(db, srv.URL, "/profiles", "svc")
	n, err := w.SyncOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("applied = %d, want 2", n)
	}
	if !w.cursor.Before(t1.Add(time.Minute)) {
		t.Errorf("cursor = %v, moved past the failed profile", w.cursor)
	}

	failing = false
	if _, err := w.SyncOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	var u2 models.UserLedger
	if err := db.Where("id = ?", "u2").First(&u2).Error; err != nil {
		t.Fatalf("u2 never synced: %v", err)
	}
	if !w.cursor.Equal(t1.Add(2 * time.Minute)) {
		t.Errorf("cursor = %v, want %v", w.cursor, t1.Add(2*time.Minute))
	}
	if len(sinceSeen) != 2 || sinceSeen[1] > t1.Add(time.Minute).Format(time.RFC3339) {
		t.Errorf("since params = %v", sinceSeen)
	}
}
