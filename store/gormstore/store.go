// Package gormstore implements store.Store on GORM. PostgreSQL is the
// production dialect; SQLite serves local development and tests.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"scavenger-hunt/models"
	"scavenger-hunt/store"
)

type Store struct {
	DB *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// OpenPostgres connects to the database at dsn.
func OpenPostgres(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db), nil
}

// OpenSQLite opens a SQLite database; ":memory:" gives a private in-memory
// database on a single connection.
func OpenSQLite(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return New(db), nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.GameSession{},
		&models.Checkpoint{},
		&models.UserProgress{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return s.DB.WithContext(ctx).Create(u).Error
}

func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	return s.DB.WithContext(ctx).Save(u).Error
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("phone = ?", phone).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) GetUserByVoucher(ctx context.Context, code string) (*models.User, error) {
	if code == "" {
		return nil, store.ErrNotFound
	}
	var u models.User
	if err := s.DB.WithContext(ctx).Where("voucher_code = ?", code).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// --- sessions ---

func (s *Store) CreateSession(ctx context.Context, gs *models.GameSession) error {
	if gs.ID == "" {
		gs.ID = uuid.NewString()
	}
	return s.DB.WithContext(ctx).Create(gs).Error
}

func (s *Store) SaveSession(ctx context.Context, gs *models.GameSession) error {
	return s.DB.WithContext(ctx).Save(gs).Error
}

func (s *Store) GetActiveSession(ctx context.Context, userID string) (*models.GameSession, error) {
	var gs models.GameSession
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.SessionActive).
		Order("started_at DESC").
		First(&gs).Error
	if err != nil {
		return nil, translate(err)
	}
	return &gs, nil
}

func (s *Store) GetLatestSession(ctx context.Context, userID string) (*models.GameSession, error) {
	var gs models.GameSession
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		First(&gs).Error
	if err != nil {
		return nil, translate(err)
	}
	return &gs, nil
}

func (s *Store) ExpireSessions(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("status = ? AND started_at < ?", models.SessionActive, cutoff).
		Updates(map[string]any{
			"status":   models.SessionExpired,
			"ended_at": now,
		})
	return res.RowsAffected, res.Error
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]models.GameSession, error) {
	var sessions []models.GameSession
	err := s.DB.WithContext(ctx).
		Where("status = ? AND elapsed_minutes IS NOT NULL", models.SessionCompleted).
		Order("elapsed_minutes ASC").
		Order("ended_at ASC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// --- checkpoints ---

func (s *Store) ListCheckpoints(ctx context.Context) ([]models.Checkpoint, error) {
	var cps []models.Checkpoint
	err := s.DB.WithContext(ctx).Order("sequence ASC").Find(&cps).Error
	return cps, err
}

func (s *Store) GetCheckpoint(ctx context.Context, id string) (*models.Checkpoint, error) {
	var c models.Checkpoint
	if err := s.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Store) UpsertCheckpointDefinition(ctx context.Context, c *models.Checkpoint) error {
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"sequence", "location", "clue", "hint", "qr_code", "venue", "difficulty", "updated_at",
			}),
		}).
		Create(c).Error
}

func (s *Store) RecordScan(ctx context.Context, id string, matched bool, at time.Time) error {
	updates := map[string]any{
		"total_scans":     gorm.Expr("total_scans + 1"),
		"last_scanned_at": at,
	}
	if matched {
		updates["successful_scans"] = gorm.Expr("successful_scans + 1")
	}
	res := s.DB.WithContext(ctx).Model(&models.Checkpoint{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- progress ---

func (s *Store) CreateProgress(ctx context.Context, p *models.UserProgress) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return s.DB.WithContext(ctx).Create(p).Error
}

func (s *Store) SaveProgress(ctx context.Context, p *models.UserProgress) error {
	return s.DB.WithContext(ctx).Save(p).Error
}

func (s *Store) GetProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	var p models.UserProgress
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// --- reports ---

func (s *Store) userQuery(ctx context.Context, search string) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&models.User{})
	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		term := "%" + likeEscaper.Replace(search) + "%"
		q = q.Where(`LOWER(phone) LIKE ? ESCAPE '\' OR LOWER(voucher_code) LIKE ? ESCAPE '\'`, term, term)
	}
	return q
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) ListUserSummaries(ctx context.Context, f store.UserFilter) ([]store.UserSummary, int64, error) {
	var total int64
	if err := s.userQuery(ctx, f.Search).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := s.userQuery(ctx, f.Search).Order("created_at DESC")
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	if len(users) == 0 {
		return []store.UserSummary{}, total, nil
	}

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	var progs []models.UserProgress
	if err := s.DB.WithContext(ctx).Where("user_id IN ?", ids).Find(&progs).Error; err != nil {
		return nil, 0, err
	}
	byUser := make(map[string]*models.UserProgress, len(progs))
	for i := range progs {
		byUser[progs[i].UserID] = &progs[i]
	}

	out := make([]store.UserSummary, len(users))
	for i, u := range users {
		row := store.UserSummary{
			UserID:      u.ID,
			Phone:       u.Phone,
			IsVerified:  u.IsVerified,
			IsClaimed:   u.IsClaimed,
			ClaimedAt:   u.ClaimedAt,
			VoucherCode: u.VoucherCode,
			CreatedAt:   u.CreatedAt,
		}
		if p, ok := byUser[u.ID]; ok {
			row.CompletedGames = p.CompletedGameCount()
			row.CheckpointsCompleted = p.CompletedCheckpointCount()
			row.HintCredits = p.HintCredits
			row.GameCompleted = p.GameCompleted
			row.GameCompletedAt = p.GameCompletedAt
		}
		out[i] = row
	}
	return out, total, nil
}

func (s *Store) Stats(ctx context.Context) (*store.Stats, error) {
	db := s.DB.WithContext(ctx)
	st := &store.Stats{
		SessionsByStatus: map[models.SessionStatus]int64{},
		CompletedByTier:  map[models.RewardTier]int64{},
	}

	if err := db.Model(&models.User{}).Count(&st.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("is_verified = ?", true).Count(&st.VerifiedUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("is_claimed = ?", true).Count(&st.ClaimedPrizes).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.UserProgress{}).Where("game_completed = ?", true).Count(&st.CompletedGames).Error; err != nil {
		return nil, err
	}

	var byStatus []struct {
		Status models.SessionStatus
		Count  int64
	}
	if err := db.Model(&models.GameSession{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, r := range byStatus {
		st.SessionsByStatus[r.Status] = r.Count
	}

	var byTier []struct {
		RewardTier models.RewardTier
		Count      int64
	}
	if err := db.Model(&models.GameSession{}).
		Select("reward_tier, COUNT(*) AS count").
		Where("status = ?", models.SessionCompleted).
		Group("reward_tier").
		Scan(&byTier).Error; err != nil {
		return nil, err
	}
	for _, r := range byTier {
		st.CompletedByTier[r.RewardTier] = r.Count
	}
	return st, nil
}
