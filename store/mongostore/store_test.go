package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"scavenger-hunt/models"
	"scavenger-hunt/store"
)

// newTestStore connects to MONGO_TEST_URI and uses a throwaway database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, uri, fmt.Sprintf("hunt_test_%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestUsersAndProgress(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := &models.User{Phone: "+97411110000", VoucherCode: "TLB-AAAA1111"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.CreateUser(ctx, &models.User{Phone: "+97411110000"}); err == nil {
		t.Fatal("expected duplicate phone error")
	}
	if _, err := s.GetUserByVoucher(ctx, "TLB-AAAA1111"); err != nil {
		t.Fatalf("GetUserByVoucher: %v", err)
	}
	if _, err := s.GetUserByID(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetUserByID = %v, want ErrNotFound", err)
	}

	p := &models.UserProgress{
		UserID:         u.ID,
		DashboardGames: []models.GameCompletion{{Game: models.GameQuiz, CompletedAt: now}},
		Checkpoints:    []models.CheckpointProgress{{CheckpointID: "a", Completed: true, CompletedAt: &now}},
		HintCredits:    3,
	}
	if err := s.CreateProgress(ctx, p); err != nil {
		t.Fatalf("CreateProgress: %v", err)
	}
	p.HintCredits = 2
	p.RevealedHints = append(p.RevealedHints, "a")
	if err := s.SaveProgress(ctx, p); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}
	got, err := s.GetProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if got.HintCredits != 2 || !got.HintRevealed("a") || !got.GameDone(models.GameQuiz) {
		t.Fatalf("progress = %+v", got)
	}

	rows, total, err := s.ListUserSummaries(ctx, store.UserFilter{Search: "aaaa", Limit: 10})
	if err != nil {
		t.Fatalf("ListUserSummaries: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("total=%d rows=%d", total, len(rows))
	}
	if rows[0].CompletedGames != 1 || rows[0].CheckpointsCompleted != 1 || rows[0].HintCredits != 2 {
		t.Fatalf("row = %+v", rows[0])
	}
}

func TestSessionsAndStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	start := time.Now().UTC().Add(-5 * time.Hour).Truncate(time.Millisecond)

	done := &models.GameSession{UserID: "u1", Status: models.SessionActive, StartedAt: start}
	done.Close(models.SessionCompleted, start.Add(25*time.Minute))
	stale := &models.GameSession{UserID: "u2", Status: models.SessionActive, StartedAt: start}
	for _, gs := range []*models.GameSession{done, stale} {
		if err := s.CreateSession(ctx, gs); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	n, err := s.ExpireSessions(ctx, start.Add(time.Hour), time.Now().UTC())
	if err != nil || n != 1 {
		t.Fatalf("ExpireSessions = %d, %v", n, err)
	}

	board, err := s.Leaderboard(ctx, 5)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].RewardTier != models.RewardTierSilver {
		t.Fatalf("board = %+v", board)
	}

	cp := models.DefaultCheckpoints()[0]
	if err := s.UpsertCheckpointDefinition(ctx, &cp); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.RecordScan(ctx, cp.ID, true, time.Now().UTC()); err != nil {
		t.Fatalf("RecordScan: %v", err)
	}
	if err := s.RecordScan(ctx, "missing", false, time.Now().UTC()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("RecordScan(missing) = %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.SessionsByStatus[models.SessionExpired] != 1 || st.CompletedByTier[models.RewardTierSilver] != 1 {
		t.Fatalf("stats = %+v", st)
	}
}
