// Package mongostore implements store.Store on MongoDB. Collection names match
// the GORM table names so both backends describe the same documents.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"scavenger-hunt/models"
	"scavenger-hunt/store"
)

const (
	userCollection       = "users"
	sessionCollection    = "gamesessions"
	checkpointCollection = "checkpoints"
	progressCollection   = "userprogresses"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// Open connects to uri and verifies the primary is reachable.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Migrate creates the indexes the queries rely on.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		userCollection: {
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "voucher_code", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		sessionCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "elapsed_minutes", Value: 1}}},
		},
		checkpointCollection: {
			{Keys: bson.D{{Key: "qr_code", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "sequence", Value: 1}}},
		},
		progressCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, idx := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes every collection. Used by tests against a scratch database.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter any, opts ...options.Lister[options.FindOneOptions]) (*T, error) {
	var out T
	if err := c.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func touch(ts *models.Timestamps, create bool) {
	now := time.Now().UTC()
	if create || ts.CreatedAt.IsZero() {
		ts.CreatedAt = now
	}
	ts.UpdatedAt = now
}

func (s *Store) replace(ctx context.Context, name, id string, doc any) error {
	_, err := s.db.Collection(name).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	touch(&u.Timestamps, true)
	_, err := s.db.Collection(userCollection).InsertOne(ctx, u)
	return err
}

func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	touch(&u.Timestamps, false)
	return s.replace(ctx, userCollection, u.ID, u)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, s.db.Collection(userCollection), bson.M{"_id": id})
}

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return findOne[models.User](ctx, s.db.Collection(userCollection), bson.M{"phone": phone})
}

func (s *Store) GetUserByVoucher(ctx context.Context, code string) (*models.User, error) {
	if code == "" {
		return nil, store.ErrNotFound
	}
	return findOne[models.User](ctx, s.db.Collection(userCollection), bson.M{"voucher_code": code})
}

// --- sessions ---

func (s *Store) CreateSession(ctx context.Context, gs *models.GameSession) error {
	if gs.ID == "" {
		gs.ID = uuid.NewString()
	}
	touch(&gs.Timestamps, true)
	_, err := s.db.Collection(sessionCollection).InsertOne(ctx, gs)
	return err
}

func (s *Store) SaveSession(ctx context.Context, gs *models.GameSession) error {
	touch(&gs.Timestamps, false)
	return s.replace(ctx, sessionCollection, gs.ID, gs)
}

func (s *Store) GetActiveSession(ctx context.Context, userID string) (*models.GameSession, error) {
	return findOne[models.GameSession](ctx, s.db.Collection(sessionCollection),
		bson.M{"user_id": userID, "status": models.SessionActive},
		options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}}))
}

func (s *Store) GetLatestSession(ctx context.Context, userID string) (*models.GameSession, error) {
	return findOne[models.GameSession](ctx, s.db.Collection(sessionCollection),
		bson.M{"user_id": userID},
		options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}}))
}

func (s *Store) ExpireSessions(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res, err := s.db.Collection(sessionCollection).UpdateMany(ctx,
		bson.M{"status": models.SessionActive, "started_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{
			"status":     models.SessionExpired,
			"ended_at":   now,
			"updated_at": now,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]models.GameSession, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "elapsed_minutes", Value: 1}, {Key: "ended_at", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := s.db.Collection(sessionCollection).Find(ctx,
		bson.M{"status": models.SessionCompleted, "elapsed_minutes": bson.M{"$exists": true}}, opts)
	if err != nil {
		return nil, err
	}
	var sessions []models.GameSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// --- checkpoints ---

func (s *Store) ListCheckpoints(ctx context.Context) ([]models.Checkpoint, error) {
	cursor, err := s.db.Collection(checkpointCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var cps []models.Checkpoint
	if err := cursor.All(ctx, &cps); err != nil {
		return nil, err
	}
	return cps, nil
}

func (s *Store) GetCheckpoint(ctx context.Context, id string) (*models.Checkpoint, error) {
	return findOne[models.Checkpoint](ctx, s.db.Collection(checkpointCollection), bson.M{"_id": id})
}

func (s *Store) UpsertCheckpointDefinition(ctx context.Context, c *models.Checkpoint) error {
	now := time.Now().UTC()
	_, err := s.db.Collection(checkpointCollection).UpdateOne(ctx,
		bson.M{"_id": c.ID},
		bson.M{
			"$set": bson.M{
				"sequence":   c.Sequence,
				"location":   c.Location,
				"clue":       c.Clue,
				"hint":       c.Hint,
				"qr_code":    c.QRCode,
				"venue":      c.Venue,
				"difficulty": c.Difficulty,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"total_scans":      int64(0),
				"successful_scans": int64(0),
				"created_at":       now,
			},
		},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (s *Store) RecordScan(ctx context.Context, id string, matched bool, at time.Time) error {
	inc := bson.M{"total_scans": 1}
	if matched {
		inc["successful_scans"] = 1
	}
	res, err := s.db.Collection(checkpointCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": inc, "$set": bson.M{"last_scanned_at": at, "updated_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- progress ---

func (s *Store) CreateProgress(ctx context.Context, p *models.UserProgress) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	touch(&p.Timestamps, true)
	_, err := s.db.Collection(progressCollection).InsertOne(ctx, p)
	return err
}

func (s *Store) SaveProgress(ctx context.Context, p *models.UserProgress) error {
	touch(&p.Timestamps, false)
	return s.replace(ctx, progressCollection, p.ID, p)
}

func (s *Store) GetProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	return findOne[models.UserProgress](ctx, s.db.Collection(progressCollection), bson.M{"user_id": userID})
}

// --- reports ---

func userFilter(search string) bson.M {
	search = strings.TrimSpace(search)
	if search == "" {
		return bson.M{}
	}
	re := bson.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"phone": re},
		bson.M{"voucher_code": re},
	}}
}

func knownGames() bson.A {
	out := bson.A{}
	for _, g := range models.DashboardGames {
		out = append(out, string(g))
	}
	return out
}

func (s *Store) ListUserSummaries(ctx context.Context, f store.UserFilter) ([]store.UserSummary, int64, error) {
	users := s.db.Collection(userCollection)
	filter := userFilter(f.Search)

	total, err := users.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
	}
	if f.Offset > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(f.Offset)}})
	}
	if f.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(f.Limit)}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         progressCollection,
			"localField":   "_id",
			"foreignField": "user_id",
			"as":           "progress",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$progress", "preserveNullAndEmptyArrays": true}}},
		bson.D{{Key: "$project", Value: bson.M{
			"phone":             1,
			"is_verified":       1,
			"is_claimed":        1,
			"claimed_at":        1,
			"voucher_code":      1,
			"created_at":        1,
			"hint_credits":      bson.M{"$ifNull": bson.A{"$progress.hint_credits", 0}},
			"game_completed":    bson.M{"$ifNull": bson.A{"$progress.game_completed", false}},
			"game_completed_at": "$progress.game_completed_at",
			"checkpoints_completed": bson.M{"$size": bson.M{"$filter": bson.M{
				"input": bson.M{"$ifNull": bson.A{"$progress.checkpoints", bson.A{}}},
				"as":    "c",
				"cond":  "$$c.completed",
			}}},
			"completed_games": bson.M{"$size": bson.M{"$setIntersection": bson.A{
				bson.M{"$ifNull": bson.A{"$progress.dashboard_games.game", bson.A{}}},
				knownGames(),
			}}},
		}}},
	)

	cursor, err := users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	out := []store.UserSummary{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type groupCount struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

func (s *Store) groupBy(ctx context.Context, field string, match bson.M) ([]groupCount, error) {
	cursor, err := s.db.Collection(sessionCollection).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []groupCount
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) Stats(ctx context.Context) (*store.Stats, error) {
	st := &store.Stats{
		SessionsByStatus: map[models.SessionStatus]int64{},
		CompletedByTier:  map[models.RewardTier]int64{},
	}
	users := s.db.Collection(userCollection)

	var err error
	if st.TotalUsers, err = users.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, err
	}
	if st.VerifiedUsers, err = users.CountDocuments(ctx, bson.M{"is_verified": true}); err != nil {
		return nil, err
	}
	if st.ClaimedPrizes, err = users.CountDocuments(ctx, bson.M{"is_claimed": true}); err != nil {
		return nil, err
	}
	if st.CompletedGames, err = s.db.Collection(progressCollection).CountDocuments(ctx, bson.M{"game_completed": true}); err != nil {
		return nil, err
	}

	byStatus, err := s.groupBy(ctx, "status", bson.M{})
	if err != nil {
		return nil, err
	}
	for _, r := range byStatus {
		st.SessionsByStatus[models.SessionStatus(r.Key)] = r.Count
	}

	byTier, err := s.groupBy(ctx, "reward_tier", bson.M{"status": models.SessionCompleted})
	if err != nil {
		return nil, err
	}
	for _, r := range byTier {
		st.CompletedByTier[models.RewardTier(r.Key)] = r.Count
	}
	return st, nil
}
