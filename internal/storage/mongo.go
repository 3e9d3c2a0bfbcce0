package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Loquest/Mentl2/internal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// caseInsensitive matches emails regardless of case, on lookups and on the unique index.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type MongoStorage struct {
	client        *mongo.Client
	users         *mongo.Collection
	moodLogs      *mongo.Collection
	invitations   *mongo.Collection
	relationships *mongo.Collection
	notifications *mongo.Collection
	chats         *mongo.Collection
	content       *mongo.Collection
	logger        internal.Logger
}

// moodLogDoc stores symptoms as plain BSON scalars.
type moodLogDoc struct {
	ID              string                 `bson:"_id"`
	UserID          string                 `bson:"user_id"`
	Date            string                 `bson:"date"`
	MoodRating      int                    `bson:"mood_rating"`
	MoodTag         string                 `bson:"mood_tag,omitempty"`
	Symptoms        map[string]interface{} `bson:"symptoms"`
	Notes           string                 `bson:"notes,omitempty"`
	MedicationTaken bool                   `bson:"medication_taken"`
	SleepHours      *float64               `bson:"sleep_hours,omitempty"`
	Timestamp       time.Time              `bson:"timestamp"`
}

func toMoodLogDoc(l *internal.MoodLog) moodLogDoc {
	return moodLogDoc{
		ID:              l.ID,
		UserID:          l.UserID,
		Date:            l.Date,
		MoodRating:      l.MoodRating,
		MoodTag:         l.MoodTag,
		Symptoms:        l.Symptoms.ToMap(),
		Notes:           l.Notes,
		MedicationTaken: l.MedicationTaken,
		SleepHours:      l.SleepHours,
		Timestamp:       l.Timestamp,
	}
}

func (d moodLogDoc) toModel() (internal.MoodLog, error) {
	symptoms, err := internal.SymptomsFromMap(d.Symptoms)
	if err != nil {
		return internal.MoodLog{}, fmt.Errorf("decode symptoms of %s: %w", d.ID, err)
	}
	return internal.MoodLog{
		ID:              d.ID,
		UserID:          d.UserID,
		Date:            d.Date,
		MoodRating:      d.MoodRating,
		MoodTag:         d.MoodTag,
		Symptoms:        symptoms,
		Notes:           d.Notes,
		MedicationTaken: d.MedicationTaken,
		SleepHours:      d.SleepHours,
		Timestamp:       d.Timestamp,
	}, nil
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
		client:        client,
		users:         db.Collection("users"),
		moodLogs:      db.Collection("mood_logs"),
		invitations:   db.Collection("caregiver_invitations"),
		relationships: db.Collection("caregiver_relationships"),
		notifications: db.Collection("notifications"),
		chats:         db.Collection("chat_history"),
		content:       db.Collection("content"),
		logger:        logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		logger.Errorf("failed to create mongo indexes: %v", err)
		return nil, err
	}
	return s, nil
}

func (s *MongoStorage) ensureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
		}},
		s.moodLogs: {{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		s.invitations: {
			{Keys: bson.D{{Key: "patient_id", Value: 1}}},
			{Keys: bson.D{{Key: "caregiver_email", Value: 1}}, Options: options.Index().SetCollation(caseInsensitive)},
		},
		s.relationships: {
			{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "caregiver_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "caregiver_id", Value: 1}}},
		},
		s.notifications: {{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}}},
		s.chats:         {{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
		s.content:       {{Keys: bson.D{{Key: "category", Value: 1}, {Key: "content_type", Value: 1}}}},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStorage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func noDocuments(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return internal.ErrNotFound
	}
	return err
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOneOptions) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		return nil, noDocuments(err)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func replaced(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return internal.ErrNotFound
	}
	return nil
}

func deleted(res *mongo.DeleteResult, err error) error {
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return internal.ErrNotFound
	}
	return nil
}

// --- UserRepository ---

func (s *MongoStorage) CreateUser(ctx context.Context, user *internal.User) error {
	_, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return internal.ErrConflict
	}
	return err
}

func (s *MongoStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	return findOne[internal.User](ctx, s.users, bson.M{"_id": id})
}

func (s *MongoStorage) GetUserByEmail(ctx context.Context, email string) (*internal.User, error) {
	return findOne[internal.User](ctx, s.users, bson.M{"email": email}, options.FindOne().SetCollation(caseInsensitive))
}

func (s *MongoStorage) UpdateUser(ctx context.Context, user *internal.User) error {
	err := replaced(s.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user))
	if mongo.IsDuplicateKeyError(err) {
		return internal.ErrConflict
	}
	return err
}

// --- MoodLogRepository ---

func (s *MongoStorage) CreateMoodLog(ctx context.Context, log *internal.MoodLog) error {
	_, err := s.moodLogs.InsertOne(ctx, toMoodLogDoc(log))
	if mongo.IsDuplicateKeyError(err) {
		return internal.ErrDuplicateDate
	}
	if err != nil {
		s.logger.Errorf("failed to insert mood log: %v", err)
	}
	return err
}

func (s *MongoStorage) GetMoodLog(ctx context.Context, userID, id string) (*internal.MoodLog, error) {
	doc, err := findOne[moodLogDoc](ctx, s.moodLogs, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return nil, err
	}
	l, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *MongoStorage) UpdateMoodLog(ctx context.Context, log *internal.MoodLog) error {
	err := replaced(s.moodLogs.ReplaceOne(ctx, bson.M{"_id": log.ID, "user_id": log.UserID}, toMoodLogDoc(log)))
	if mongo.IsDuplicateKeyError(err) {
		return internal.ErrDuplicateDate
	}
	return err
}

func (s *MongoStorage) DeleteMoodLog(ctx context.Context, userID, id string) error {
	return deleted(s.moodLogs.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID}))
}

func (s *MongoStorage) ListMoodLogs(ctx context.Context, userID string, filter MoodLogFilter) ([]internal.MoodLog, error) {
	q := bson.M{"user_id": userID}
	dates := bson.M{}
	if filter.StartDate != "" {
		dates["$gte"] = filter.StartDate
	}
	if filter.EndDate != "" {
		dates["$lte"] = filter.EndDate
	}
	if len(dates) > 0 {
		q["date"] = dates
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	docs, err := findAll[moodLogDoc](ctx, s.moodLogs, q, opts)
	if err != nil {
		s.logger.Errorf("failed to query mood logs: %v", err)
		return nil, err
	}
	logs := make([]internal.MoodLog, 0, len(docs))
	for _, d := range docs {
		l, err := d.toModel()
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// --- CaregiverRepository ---

func (s *MongoStorage) CreateInvitation(ctx context.Context, inv *internal.CaregiverInvitation) error {
	_, err := s.invitations.InsertOne(ctx, inv)
	return err
}

func (s *MongoStorage) GetInvitation(ctx context.Context, id string) (*internal.CaregiverInvitation, error) {
	return findOne[internal.CaregiverInvitation](ctx, s.invitations, bson.M{"_id": id})
}

func (s *MongoStorage) UpdateInvitation(ctx context.Context, inv *internal.CaregiverInvitation) error {
	return replaced(s.invitations.ReplaceOne(ctx, bson.M{"_id": inv.ID}, inv))
}

func (s *MongoStorage) ListInvitationsByPatient(ctx context.Context, patientID string) ([]internal.CaregiverInvitation, error) {
	return findAll[internal.CaregiverInvitation](ctx, s.invitations, bson.M{"patient_id": patientID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (s *MongoStorage) ListInvitationsByEmail(ctx context.Context, email, status string) ([]internal.CaregiverInvitation, error) {
	q := bson.M{"caregiver_email": email}
	if status != "" {
		q["status"] = status
	}
	return findAll[internal.CaregiverInvitation](ctx, s.invitations, q,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetCollation(caseInsensitive))
}

func (s *MongoStorage) CreateRelationship(ctx context.Context, rel *internal.CaregiverRelationship) error {
	_, err := s.relationships.InsertOne(ctx, rel)
	if mongo.IsDuplicateKeyError(err) {
		return internal.ErrConflict
	}
	return err
}

func (s *MongoStorage) GetRelationship(ctx context.Context, id string) (*internal.CaregiverRelationship, error) {
	return findOne[internal.CaregiverRelationship](ctx, s.relationships, bson.M{"_id": id})
}

func (s *MongoStorage) FindRelationship(ctx context.Context, patientID, caregiverID string) (*internal.CaregiverRelationship, error) {
	return findOne[internal.CaregiverRelationship](ctx, s.relationships, bson.M{"patient_id": patientID, "caregiver_id": caregiverID})
}

func (s *MongoStorage) UpdateRelationship(ctx context.Context, rel *internal.CaregiverRelationship) error {
	return replaced(s.relationships.ReplaceOne(ctx, bson.M{"_id": rel.ID}, rel))
}

func (s *MongoStorage) DeleteRelationship(ctx context.Context, id string) error {
	return deleted(s.relationships.DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *MongoStorage) ListCaregiversForPatient(ctx context.Context, patientID string) ([]internal.CaregiverRelationship, error) {
	return findAll[internal.CaregiverRelationship](ctx, s.relationships, bson.M{"patient_id": patientID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (s *MongoStorage) ListPatientsForCaregiver(ctx context.Context, caregiverID string) ([]internal.CaregiverRelationship, error) {
	return findAll[internal.CaregiverRelationship](ctx, s.relationships, bson.M{"caregiver_id": caregiverID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

// --- NotificationRepository ---

func (s *MongoStorage) CreateNotification(ctx context.Context, n *internal.Notification) error {
	_, err := s.notifications.InsertOne(ctx, n)
	if err != nil {
		s.logger.Errorf("failed to insert notification: %v", err)
	}
	return err
}

func (s *MongoStorage) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]internal.Notification, error) {
	q := bson.M{"user_id": userID}
	if unreadOnly {
		q["read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findAll[internal.Notification](ctx, s.notifications, q, opts)
}

func (s *MongoStorage) MarkNotificationRead(ctx context.Context, userID, id string) error {
	return replaced(s.notifications.UpdateOne(ctx, bson.M{"_id": id, "user_id": userID}, bson.M{"$set": bson.M{"read": true}}))
}

func (s *MongoStorage) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	res, err := s.notifications.UpdateMany(ctx, bson.M{"user_id": userID, "read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

// --- ChatRepository ---

func (s *MongoStorage) GetChatHistory(ctx context.Context, userID string) (*internal.ChatHistory, error) {
	return findOne[internal.ChatHistory](ctx, s.chats, bson.M{"user_id": userID})
}

func (s *MongoStorage) AppendChatMessages(ctx context.Context, userID string, msgs ...internal.ChatMessage) error {
	now := time.Now().UTC()
	update := bson.M{
		"$push": bson.M{"messages": bson.M{
			"$each":  msgs,
			"$slice": -internal.MaxChatHistory,
		}},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := s.chats.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	return err
}

func (s *MongoStorage) ClearChatHistory(ctx context.Context, userID string) error {
	_, err := s.chats.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}

// --- ContentRepository ---

func (s *MongoStorage) UpsertContent(ctx context.Context, c *internal.Content) error {
	_, err := s.content.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
	if err != nil {
		s.logger.Errorf("failed to upsert content %s: %v", c.ID, err)
	}
	return err
}

func (s *MongoStorage) GetContent(ctx context.Context, id string) (*internal.Content, error) {
	return findOne[internal.Content](ctx, s.content, bson.M{"_id": id})
}

func (s *MongoStorage) ListContent(ctx context.Context, filter ContentFilter) ([]internal.Content, error) {
	q := bson.M{}
	if filter.Category != "" {
		q["category"] = filter.Category
	}
	if filter.ContentType != "" {
		q["content_type"] = filter.ContentType
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: filter.Search, Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"tags": bson.M{"$in": bson.A{strings.ToLower(filter.Search)}}},
		}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	return findAll[internal.Content](ctx, s.content, q, opts)
}

// --- Compile-time assertions ---
var _ UserRepository = (*MongoStorage)(nil)
var _ MoodLogRepository = (*MongoStorage)(nil)
var _ CaregiverRepository = (*MongoStorage)(nil)
var _ NotificationRepository = (*MongoStorage)(nil)
var _ ChatRepository = (*MongoStorage)(nil)
var _ ContentRepository = (*MongoStorage)(nil)
