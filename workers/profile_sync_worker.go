// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"habit-ledger/models"
	"habit-ledger/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteProfile is the subset of a profile-service record the ledger keeps.
type RemoteProfile struct {
	ExternalID string    `json:"external_id"`
	Username   string    `json:"username"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProfileChangesResponse is the body of GET <endpoint>?since=...
type ProfileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// ProfileSyncWorker opens a ledger for every new profile and keeps usernames
// current for leaderboards. It never writes balances.
type ProfileSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client

	cursor time.Time // newest remote updated_at applied so far
}

func NewProfileSyncWorker(db *gorm.DB, baseURL, endpointPath, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Start backfills once, then polls every interval until ctx is done.
func (w *ProfileSyncWorker) Start(ctx context.Context) {
	utils.LogInfo("🔁 [SYNC] starting profile sync worker (%s)", w.baseURL)
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	if _, err := w.SyncOnce(ctx); err != nil {
		utils.LogWarn("[SYNC] initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx); err != nil {
				utils.LogError("[SYNC] sync batch failed: %v", err)
			}
		case <-ctx.Done():
			utils.LogInfo("⏹️ [SYNC] profile sync worker stopped")
			return
		}
	}
}

// SyncOnce pulls changes since the cursor and upserts them. It returns the
// number of profiles applied.
func (w *ProfileSyncWorker) SyncOnce(ctx context.Context) (int, error) {
	profiles, err := w.fetch(ctx, w.cursor)
	if err != nil {
		return 0, err
	}

	applied := 0
	next := w.cursor
	var firstFailed *time.Time // the cursor must not pass a profile that failed
	for _, p := range profiles {
		if p.ExternalID == "" {
			continue
		}
		row := models.UserLedger{ID: p.ExternalID, Username: p.Username, Level: 1}
		err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username"}),
		}).Create(&row).Error
		if err != nil {
			utils.LogWarn("[SYNC] failed to upsert ledger for %s: %v", p.ExternalID, err)
			if firstFailed == nil || p.UpdatedAt.Before(*firstFailed) {
				at := p.UpdatedAt
				firstFailed = &at
			}
			continue
		}
		applied++
		if p.UpdatedAt.After(next) {
			next = p.UpdatedAt
		}
	}
	if firstFailed != nil && !next.Before(*firstFailed) {
		next = firstFailed.Add(-time.Second)
	}
	if next.After(w.cursor) {
		w.cursor = next
	}
	if applied > 0 {
		utils.LogSuccess("[SYNC] applied %d profile change(s), cursor=%s", applied, w.cursor.Format(time.RFC3339))
	}
	return applied, nil
}

func (w *ProfileSyncWorker) fetch(ctx context.Context, since time.Time) ([]RemoteProfile, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid profile service URL %q: %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(w.endpointPath)
	q := endpoint.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile service request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("profile service returned %d: %s", resp.StatusCode, body)
	}

	var out ProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode profile changes: %w", err)
	}
	return out.Users, nil
}
