package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	entriesCollection = "trackentries"
	usersCollection   = "users"
)

type MongoStorage struct {
	client  *mongo.Client
	entries *mongo.Collection
	users   *mongo.Collection
	logger  internal.Logger
}

// entryDocument is the stored shape of an entry; variant fields are omitted
// for the other kind.
type entryDocument struct {
	ID               string    `bson:"_id"`
	UserID           string    `bson:"userId"`
	Kind             string    `bson:"kind"`
	Day              string    `bson:"day"`
	OccurredAt       time.Time `bson:"occurredAt"`
	MoodLevel        string    `bson:"moodLevel,omitempty"`
	MoodNote         string    `bson:"moodNote,omitempty"`
	SleepIntensity   int       `bson:"sleepIntensity,omitempty"`
	SleepDescription string    `bson:"sleepDescription,omitempty"`
	SleepNote        string    `bson:"sleepNote,omitempty"`
	CreatedAt        time.Time `bson:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt"`
}

type userDocument struct {
	ID    string `bson:"_id"`
	Token string `bson:"token,omitempty"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
	Role  string `bson:"role"`
}

func NewMongoStorage(ctx context.Context, uri, database string, logger internal.Logger) (*MongoStorage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		logger.Errorf("failed to connect to mongo: %v", err)
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		logger.Errorf("failed to ping mongo: %v", err)
		return nil, err
	}
	db := client.Database(database)
	s := &MongoStorage{
		client:  client,
		entries: db.Collection(entriesCollection),
		users:   db.Collection(usersCollection),
		logger:  logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStorage) ensureIndexes(ctx context.Context) error {
	_, err := s.entries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "kind", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_kind_day"),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "occurredAt", Value: -1}}},
		{Keys: bson.D{{Key: "occurredAt", Value: -1}}},
	})
	if err != nil {
		s.logger.Errorf("failed to create entry indexes: %v", err)
		return fmt.Errorf("create entry indexes: %w", err)
	}
	return nil
}

func (s *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toDocument(e *internal.Entry) entryDocument {
	d := entryDocument{
		ID:         e.ID,
		UserID:     e.UserID,
		Kind:       string(e.Kind),
		Day:        e.Day,
		OccurredAt: e.OccurredAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if e.MoodDetails != nil {
		d.MoodLevel = string(e.MoodLevel)
		d.MoodNote = e.MoodNote
	}
	if e.SleepDetails != nil {
		d.SleepIntensity = e.SleepIntensity
		d.SleepDescription = string(e.SleepDescription)
		d.SleepNote = e.SleepNote
	}
	return d
}

func (d *entryDocument) toEntry() internal.Entry {
	e := internal.Entry{
		ID:         d.ID,
		UserID:     d.UserID,
		Kind:       internal.Kind(d.Kind),
		Day:        d.Day,
		OccurredAt: d.OccurredAt,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	switch e.Kind {
	case internal.KindMood:
		e.MoodDetails = &internal.MoodDetails{MoodLevel: internal.MoodLevel(d.MoodLevel), MoodNote: d.MoodNote}
	case internal.KindSleep:
		e.SleepDetails = &internal.SleepDetails{
			SleepIntensity:   d.SleepIntensity,
			SleepDescription: internal.SleepDescription(d.SleepDescription),
			SleepNote:        d.SleepNote,
		}
	}
	return e
}

// variantUpdate builds the $set and $setOnInsert parts of a daily upsert.
// A kept note is only written on insert so an existing note survives.
func variantUpdate(e *internal.Entry, keepNote bool, now time.Time) (set, setOnInsert bson.M) {
	set = bson.M{"updatedAt": now}
	setOnInsert = bson.M{
		"_id":        e.ID,
		"occurredAt": e.OccurredAt,
		"createdAt":  now,
	}
	noteField, note := "", ""
	switch {
	case e.MoodDetails != nil:
		set["moodLevel"] = string(e.MoodLevel)
		noteField, note = "moodNote", e.MoodNote
	case e.SleepDetails != nil:
		set["sleepIntensity"] = e.SleepIntensity
		set["sleepDescription"] = string(e.SleepDescription)
		noteField, note = "sleepNote", e.SleepNote
	}
	if keepNote {
		setOnInsert[noteField] = note
	} else {
		set[noteField] = note
	}
	return set, setOnInsert
}

// --- EntryRepository ---

func (s *MongoStorage) UpsertDaily(ctx context.Context, e *internal.Entry, keepNote bool) (bool, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now
	}
	filter := bson.M{"userId": e.UserID, "kind": string(e.Kind), "day": e.Day}
	set, setOnInsert := variantUpdate(e, keepNote, now)
	update := bson.M{"$set": set, "$setOnInsert": setOnInsert}

	res, err := s.entries.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent upsert inserted first; the retry takes the update path.
		res, err = s.entries.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	}
	if err != nil {
		s.logger.Errorf("failed to upsert track entry: %v", err)
		return false, fmt.Errorf("upsert track entry: %w", err)
	}

	var doc entryDocument
	if err := s.entries.FindOne(ctx, filter).Decode(&doc); err != nil {
		s.logger.Errorf("failed to reload track entry: %v", err)
		return false, fmt.Errorf("reload track entry: %w", err)
	}
	*e = doc.toEntry()
	return res.UpsertedCount > 0, nil
}

func (s *MongoStorage) GetEntry(ctx context.Context, id string) (*internal.Entry, error) {
	var doc entryDocument
	if err := s.entries.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, internal.ErrNotFound
		}
		s.logger.Errorf("failed to get track entry: %v", err)
		return nil, fmt.Errorf("get track entry: %w", err)
	}
	e := doc.toEntry()
	return &e, nil
}

func (s *MongoStorage) UpdateEntry(ctx context.Context, e *internal.Entry) error {
	d := toDocument(e)
	set := bson.M{"updatedAt": time.Now().UTC()}
	switch internal.Kind(d.Kind) {
	case internal.KindMood:
		set["moodLevel"], set["moodNote"] = d.MoodLevel, d.MoodNote
	case internal.KindSleep:
		set["sleepIntensity"], set["sleepDescription"], set["sleepNote"] = d.SleepIntensity, d.SleepDescription, d.SleepNote
	}

	var doc entryDocument
	err := s.entries.FindOneAndUpdate(ctx, bson.M{"_id": e.ID}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return internal.ErrNotFound
		}
		s.logger.Errorf("failed to update track entry: %v", err)
		return fmt.Errorf("update track entry: %w", err)
	}
	*e = doc.toEntry()
	return nil
}

func (s *MongoStorage) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.entries.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		s.logger.Errorf("failed to delete track entry: %v", err)
		return fmt.Errorf("delete track entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return internal.ErrNotFound
	}
	return nil
}

func (s *MongoStorage) ListEntries(ctx context.Context, f EntryFilter, p Page) ([]internal.Entry, int64, error) {
	filter := buildMongoFilter(f)
	total, err := s.entries.CountDocuments(ctx, filter)
	if err != nil {
		s.logger.Errorf("failed to count track entries: %v", err)
		return nil, 0, fmt.Errorf("count track entries: %w", err)
	}

	dir := -1
	if f.Ascending {
		dir = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "occurredAt", Value: dir}, {Key: "createdAt", Value: dir}})
	if p.Limit > 0 {
		opts.SetLimit(int64(p.Limit)).SetSkip(int64(p.Offset))
	}

	cur, err := s.entries.Find(ctx, filter, opts)
	if err != nil {
		s.logger.Errorf("failed to query track entries: %v", err)
		return nil, 0, fmt.Errorf("query track entries: %w", err)
	}
	defer cur.Close(ctx)

	var docs []entryDocument
	if err := cur.All(ctx, &docs); err != nil {
		s.logger.Errorf("failed to decode track entries: %v", err)
		return nil, 0, fmt.Errorf("decode track entries: %w", err)
	}
	entries := make([]internal.Entry, 0, len(docs))
	for i := range docs {
		entries = append(entries, docs[i].toEntry())
	}
	return entries, total, nil
}

func (s *MongoStorage) CountEntries(ctx context.Context, f EntryFilter) (int64, error) {
	n, err := s.entries.CountDocuments(ctx, buildMongoFilter(f))
	if err != nil {
		s.logger.Errorf("failed to count track entries: %v", err)
		return 0, fmt.Errorf("count track entries: %w", err)
	}
	return n, nil
}

func (s *MongoStorage) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"occurredAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{"_id": "$userId"}}},
		{{Key: "$count", Value: "activeUsers"}},
	}
	cur, err := s.entries.Aggregate(ctx, pipeline)
	if err != nil {
		s.logger.Errorf("failed to aggregate active users: %v", err)
		return 0, fmt.Errorf("aggregate active users: %w", err)
	}
	defer cur.Close(ctx)

	var out []struct {
		ActiveUsers int64 `bson:"activeUsers"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, fmt.Errorf("decode active users: %w", err)
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].ActiveUsers, nil
}

func buildMongoFilter(f EntryFilter) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.Kind != "" {
		filter["kind"] = string(f.Kind)
	}
	if f.MoodLevel != "" {
		filter["moodLevel"] = string(f.MoodLevel)
	}
	if f.SleepDescription != "" {
		filter["sleepDescription"] = string(f.SleepDescription)
	}
	occurred := bson.M{}
	if !f.Since.IsZero() {
		occurred["$gte"] = f.Since
	}
	if !f.Until.IsZero() {
		occurred["$lt"] = f.Until
	}
	if len(occurred) > 0 {
		filter["occurredAt"] = occurred
	}
	return filter
}

// --- UserRepository ---

func (s *MongoStorage) GetUser(ctx context.Context, id string) (*internal.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStorage) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	return s.findUser(ctx, bson.M{"token": token})
}

func (s *MongoStorage) findUser(ctx context.Context, filter bson.M) (*internal.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, internal.ErrNotFound
		}
		s.logger.Errorf("failed to get user: %v", err)
		return nil, fmt.Errorf("get user: %w", err)
	}
	role := internal.Role(doc.Role)
	if role == "" {
		role = internal.RoleUser
	}
	return &internal.User{ID: doc.ID, Name: doc.Name, Email: doc.Email, Role: role}, nil
}

// --- Compile-time assertions ---
var _ Store = (*MongoStorage)(nil)
