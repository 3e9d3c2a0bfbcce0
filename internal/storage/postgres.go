package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Loquest/Mentl2/internal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	conditions JSONB NOT NULL DEFAULT '[]',
	notification_preferences JSONB NOT NULL DEFAULT '{}',
	dietary_preferences JSONB,
	push_subscriptions JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (lower(email));

CREATE TABLE IF NOT EXISTS mood_logs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	date TEXT NOT NULL,
	mood_rating INTEGER NOT NULL,
	mood_tag TEXT NOT NULL DEFAULT '',
	symptoms JSONB NOT NULL DEFAULT '{}',
	notes TEXT NOT NULL DEFAULT '',
	medication_taken BOOLEAN NOT NULL DEFAULT FALSE,
	sleep_hours DOUBLE PRECISION,
	timestamp TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, date)
);

CREATE TABLE IF NOT EXISTS caregiver_invitations (
	id TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL,
	patient_name TEXT NOT NULL,
	caregiver_email TEXT NOT NULL,
	permissions JSONB NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	responded_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS caregiver_relationships (
	id TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL,
	patient_name TEXT NOT NULL,
	caregiver_id TEXT NOT NULL,
	caregiver_name TEXT NOT NULL,
	caregiver_email TEXT NOT NULL,
	permissions JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (patient_id, caregiver_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	severity TEXT NOT NULL DEFAULT '',
	patient_id TEXT NOT NULL DEFAULT '',
	excerpt TEXT NOT NULL DEFAULT '',
	read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS chat_histories (
	user_id TEXT PRIMARY KEY,
	messages JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS content (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content_type TEXT NOT NULL,
	category TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	content_url TEXT NOT NULL DEFAULT '',
	tags TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS content_category_idx ON content (category, content_type);
`

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		logger.Errorf("failed to bootstrap postgres schema: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return internal.ErrNotFound
	}
	return err
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrNotFound
	}
	return nil
}

func jsonArg(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// --- UserRepository ---

const userColumns = `id, email, name, password_hash, conditions, notification_preferences, dietary_preferences, push_subscriptions, created_at`

func userArgs(u *internal.User) ([]interface{}, error) {
	conditions, err := jsonArg(u.Conditions)
	if err != nil {
		return nil, err
	}
	prefs, err := jsonArg(u.NotificationPreferences)
	if err != nil {
		return nil, err
	}
	var dietary *string
	if u.DietaryPreferences != nil {
		d, err := jsonArg(u.DietaryPreferences)
		if err != nil {
			return nil, err
		}
		dietary = &d
	}
	subs, err := jsonArg(u.PushSubscriptions)
	if err != nil {
		return nil, err
	}
	return []interface{}{u.ID, u.Email, u.Name, u.PasswordHash, conditions, prefs, dietary, subs, u.CreatedAt}, nil
}

func scanUser(row pgx.Row) (*internal.User, error) {
	var u internal.User
	var conditions, prefs, dietary, subs []byte
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &conditions, &prefs, &dietary, &subs, &u.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(conditions, &u.Conditions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(prefs, &u.NotificationPreferences); err != nil {
		return nil, err
	}
	if len(dietary) > 0 {
		u.DietaryPreferences = &internal.DietaryPreferences{}
		if err := json.Unmarshal(dietary, u.DietaryPreferences); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal(subs, &u.PushSubscriptions); err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *PostgresStorage) CreateUser(ctx context.Context, user *internal.User) error {
	args, err := userArgs(user)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8::jsonb, $9)`, args...)
	if isUniqueViolation(err) {
		return internal.ErrConflict
	}
	if err != nil {
		p.logger.Errorf("failed to insert user: %v", err)
	}
	return err
}

func (p *PostgresStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	return scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (p *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*internal.User, error) {
	return scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (p *PostgresStorage) UpdateUser(ctx context.Context, user *internal.User) error {
	args, err := userArgs(user)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, `UPDATE users SET email = $2, name = $3, password_hash = $4, conditions = $5::jsonb,
		notification_preferences = $6::jsonb, dietary_preferences = $7::jsonb, push_subscriptions = $8::jsonb WHERE id = $1`,
		args[:8]...)
	if isUniqueViolation(err) {
		return internal.ErrConflict
	}
	return affected(tag, err)
}

// --- MoodLogRepository ---

const moodLogColumns = `id, user_id, date, mood_rating, mood_tag, symptoms, notes, medication_taken, sleep_hours, timestamp`

func scanMoodLog(row pgx.Row) (*internal.MoodLog, error) {
	var l internal.MoodLog
	var symptoms []byte
	if err := row.Scan(&l.ID, &l.UserID, &l.Date, &l.MoodRating, &l.MoodTag, &symptoms, &l.Notes, &l.MedicationTaken, &l.SleepHours, &l.Timestamp); err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(symptoms, &l.Symptoms); err != nil {
		return nil, fmt.Errorf("decode symptoms of %s: %w", l.ID, err)
	}
	return &l, nil
}

func (p *PostgresStorage) CreateMoodLog(ctx context.Context, log *internal.MoodLog) error {
	symptoms, err := jsonArg(log.Symptoms)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO mood_logs (`+moodLogColumns+`) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10)`,
		log.ID, log.UserID, log.Date, log.MoodRating, log.MoodTag, symptoms, log.Notes, log.MedicationTaken, log.SleepHours, log.Timestamp)
	if isUniqueViolation(err) {
		return internal.ErrDuplicateDate
	}
	if err != nil {
		p.logger.Errorf("failed to insert mood log: %v", err)
	}
	return err
}

func (p *PostgresStorage) GetMoodLog(ctx context.Context, userID, id string) (*internal.MoodLog, error) {
	return scanMoodLog(p.pool.QueryRow(ctx, `SELECT `+moodLogColumns+` FROM mood_logs WHERE id = $1 AND user_id = $2`, id, userID))
}

func (p *PostgresStorage) UpdateMoodLog(ctx context.Context, log *internal.MoodLog) error {
	symptoms, err := jsonArg(log.Symptoms)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, `UPDATE mood_logs SET date = $3, mood_rating = $4, mood_tag = $5, symptoms = $6::jsonb, notes = $7,
		medication_taken = $8, sleep_hours = $9, timestamp = $10 WHERE id = $1 AND user_id = $2`,
		log.ID, log.UserID, log.Date, log.MoodRating, log.MoodTag, symptoms, log.Notes, log.MedicationTaken, log.SleepHours, log.Timestamp)
	if isUniqueViolation(err) {
		return internal.ErrDuplicateDate
	}
	return affected(tag, err)
}

func (p *PostgresStorage) DeleteMoodLog(ctx context.Context, userID, id string) error {
	return affected(p.pool.Exec(ctx, `DELETE FROM mood_logs WHERE id = $1 AND user_id = $2`, id, userID))
}

func (p *PostgresStorage) ListMoodLogs(ctx context.Context, userID string, filter MoodLogFilter) ([]internal.MoodLog, error) {
	query := `SELECT ` + moodLogColumns + ` FROM mood_logs WHERE user_id = $1 AND ($2 = '' OR date >= $2) AND ($3 = '' OR date <= $3) ORDER BY date DESC`
	args := []interface{}{userID, filter.StartDate, filter.EndDate}
	if filter.Limit > 0 {
		query += ` LIMIT $4`
		args = append(args, filter.Limit)
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Errorf("failed to query mood logs: %v", err)
		return nil, err
	}
	defer rows.Close()

	logs := []internal.MoodLog{}
	for rows.Next() {
		l, err := scanMoodLog(rows)
		if err != nil {
			p.logger.Errorf("failed to scan mood log: %v", err)
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// --- CaregiverRepository ---

const invitationColumns = `id, patient_id, patient_name, caregiver_email, permissions, status, created_at, responded_at`

func scanInvitation(row pgx.Row) (*internal.CaregiverInvitation, error) {
	var inv internal.CaregiverInvitation
	var perms []byte
	if err := row.Scan(&inv.ID, &inv.PatientID, &inv.PatientName, &inv.CaregiverEmail, &perms, &inv.Status, &inv.CreatedAt, &inv.RespondedAt); err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(perms, &inv.Permissions); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (p *PostgresStorage) queryInvitations(ctx context.Context, query string, args ...interface{}) ([]internal.CaregiverInvitation, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []internal.CaregiverInvitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (p *PostgresStorage) CreateInvitation(ctx context.Context, inv *internal.CaregiverInvitation) error {
	perms, err := jsonArg(inv.Permissions)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO caregiver_invitations (`+invitationColumns+`) VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8)`,
		inv.ID, inv.PatientID, inv.PatientName, inv.CaregiverEmail, perms, inv.Status, inv.CreatedAt, inv.RespondedAt)
	return err
}

func (p *PostgresStorage) GetInvitation(ctx context.Context, id string) (*internal.CaregiverInvitation, error) {
	return scanInvitation(p.pool.QueryRow(ctx, `SELECT `+invitationColumns+` FROM caregiver_invitations WHERE id = $1`, id))
}

func (p *PostgresStorage) UpdateInvitation(ctx context.Context, inv *internal.CaregiverInvitation) error {
	perms, err := jsonArg(inv.Permissions)
	if err != nil {
		return err
	}
	return affected(p.pool.Exec(ctx, `UPDATE caregiver_invitations SET permissions = $2::jsonb, status = $3, responded_at = $4 WHERE id = $1`,
		inv.ID, perms, inv.Status, inv.RespondedAt))
}

func (p *PostgresStorage) ListInvitationsByPatient(ctx context.Context, patientID string) ([]internal.CaregiverInvitation, error) {
	return p.queryInvitations(ctx, `SELECT `+invitationColumns+` FROM caregiver_invitations WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
}

func (p *PostgresStorage) ListInvitationsByEmail(ctx context.Context, email, status string) ([]internal.CaregiverInvitation, error) {
	return p.queryInvitations(ctx, `SELECT `+invitationColumns+` FROM caregiver_invitations
		WHERE lower(caregiver_email) = lower($1) AND ($2 = '' OR status = $2) ORDER BY created_at DESC`, email, status)
}

const relationshipColumns = `id, patient_id, patient_name, caregiver_id, caregiver_name, caregiver_email, permissions, created_at`

func scanRelationship(row pgx.Row) (*internal.CaregiverRelationship, error) {
	var r internal.CaregiverRelationship
	var perms []byte
	if err := row.Scan(&r.ID, &r.PatientID, &r.PatientName, &r.CaregiverID, &r.CaregiverName, &r.CaregiverEmail, &perms, &r.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(perms, &r.Permissions); err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *PostgresStorage) queryRelationships(ctx context.Context, query string, args ...interface{}) ([]internal.CaregiverRelationship, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []internal.CaregiverRelationship{}
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (p *PostgresStorage) CreateRelationship(ctx context.Context, rel *internal.CaregiverRelationship) error {
	perms, err := jsonArg(rel.Permissions)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO caregiver_relationships (`+relationshipColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)`,
		rel.ID, rel.PatientID, rel.PatientName, rel.CaregiverID, rel.CaregiverName, rel.CaregiverEmail, perms, rel.CreatedAt)
	if isUniqueViolation(err) {
		return internal.ErrConflict
	}
	return err
}

func (p *PostgresStorage) GetRelationship(ctx context.Context, id string) (*internal.CaregiverRelationship, error) {
	return scanRelationship(p.pool.QueryRow(ctx, `SELECT `+relationshipColumns+` FROM caregiver_relationships WHERE id = $1`, id))
}

func (p *PostgresStorage) FindRelationship(ctx context.Context, patientID, caregiverID string) (*internal.CaregiverRelationship, error) {
	return scanRelationship(p.pool.QueryRow(ctx, `SELECT `+relationshipColumns+` FROM caregiver_relationships WHERE patient_id = $1 AND caregiver_id = $2`, patientID, caregiverID))
}

func (p *PostgresStorage) UpdateRelationship(ctx context.Context, rel *internal.CaregiverRelationship) error {
	perms, err := jsonArg(rel.Permissions)
	if err != nil {
		return err
	}
	return affected(p.pool.Exec(ctx, `UPDATE caregiver_relationships SET permissions = $2::jsonb WHERE id = $1`, rel.ID, perms))
}

func (p *PostgresStorage) DeleteRelationship(ctx context.Context, id string) error {
	return affected(p.pool.Exec(ctx, `DELETE FROM caregiver_relationships WHERE id = $1`, id))
}

func (p *PostgresStorage) ListCaregiversForPatient(ctx context.Context, patientID string) ([]internal.CaregiverRelationship, error) {
	return p.queryRelationships(ctx, `SELECT `+relationshipColumns+` FROM caregiver_relationships WHERE patient_id = $1 ORDER BY created_at`, patientID)
}

func (p *PostgresStorage) ListPatientsForCaregiver(ctx context.Context, caregiverID string) ([]internal.CaregiverRelationship, error) {
	return p.queryRelationships(ctx, `SELECT `+relationshipColumns+` FROM caregiver_relationships WHERE caregiver_id = $1 ORDER BY created_at`, caregiverID)
}

// --- NotificationRepository ---

const notificationColumns = `id, user_id, type, title, message, severity, patient_id, excerpt, read, created_at`

func (p *PostgresStorage) CreateNotification(ctx context.Context, n *internal.Notification) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO notifications (`+notificationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Severity, n.PatientID, n.Excerpt, n.Read, n.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert notification: %v", err)
	}
	return err
}

func (p *PostgresStorage) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]internal.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 AND (NOT $2 OR NOT read) ORDER BY created_at DESC`
	args := []interface{}{userID, unreadOnly}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []internal.Notification{}
	for rows.Next() {
		var n internal.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Severity, &n.PatientID, &n.Excerpt, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (p *PostgresStorage) MarkNotificationRead(ctx context.Context, userID, id string) error {
	return affected(p.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID))
}

func (p *PostgresStorage) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	tag, err := p.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// --- ChatRepository ---

func (p *PostgresStorage) GetChatHistory(ctx context.Context, userID string) (*internal.ChatHistory, error) {
	h := internal.ChatHistory{UserID: userID}
	var messages []byte
	err := p.pool.QueryRow(ctx, `SELECT messages, created_at, updated_at FROM chat_histories WHERE user_id = $1`, userID).
		Scan(&messages, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(messages, &h.Messages); err != nil {
		return nil, err
	}
	return &h, nil
}

func (p *PostgresStorage) AppendChatMessages(ctx context.Context, userID string, msgs ...internal.ChatMessage) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var existing []internal.ChatMessage
	var raw []byte
	err = tx.QueryRow(ctx, `SELECT messages FROM chat_histories WHERE user_id = $1 FOR UPDATE`, userID).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(raw, &existing); err != nil {
			return err
		}
	}

	messages, err := jsonArg(trimHistory(append(existing, msgs...)))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `INSERT INTO chat_histories (user_id, messages, created_at, updated_at) VALUES ($1, $2::jsonb, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET messages = EXCLUDED.messages, updated_at = EXCLUDED.updated_at`, userID, messages, now)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *PostgresStorage) ClearChatHistory(ctx context.Context, userID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM chat_histories WHERE user_id = $1`, userID)
	return err
}

// --- ContentRepository ---

const contentColumns = `id, title, content_type, category, description, content_url, tags, created_at`

func scanContent(row pgx.Row) (*internal.Content, error) {
	var c internal.Content
	if err := row.Scan(&c.ID, &c.Title, &c.ContentType, &c.Category, &c.Description, &c.ContentURL, &c.Tags, &c.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (p *PostgresStorage) UpsertContent(ctx context.Context, c *internal.Content) error {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := p.pool.Exec(ctx, `INSERT INTO content (`+contentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, content_type = EXCLUDED.content_type,
			category = EXCLUDED.category, description = EXCLUDED.description,
			content_url = EXCLUDED.content_url, tags = EXCLUDED.tags, created_at = EXCLUDED.created_at`,
		c.ID, c.Title, c.ContentType, c.Category, c.Description, c.ContentURL, tags, c.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert content %s: %v", c.ID, err)
	}
	return err
}

func (p *PostgresStorage) GetContent(ctx context.Context, id string) (*internal.Content, error) {
	return scanContent(p.pool.QueryRow(ctx, `SELECT `+contentColumns+` FROM content WHERE id = $1`, id))
}

func (p *PostgresStorage) ListContent(ctx context.Context, filter ContentFilter) ([]internal.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM content
		WHERE ($1 = '' OR category = $1) AND ($2 = '' OR content_type = $2)
		AND ($3 = '' OR title ~* $3 OR description ~* $3 OR lower($3) = ANY(tags))
		ORDER BY created_at, id`
	args := []interface{}{filter.Category, filter.ContentType, filter.Search}
	if filter.Limit > 0 {
		query += ` LIMIT $4`
		args = append(args, filter.Limit)
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Errorf("failed to query content: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := []internal.Content{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// --- Compile-time assertions ---
var _ UserRepository = (*PostgresStorage)(nil)
var _ MoodLogRepository = (*PostgresStorage)(nil)
var _ CaregiverRepository = (*PostgresStorage)(nil)
var _ NotificationRepository = (*PostgresStorage)(nil)
var _ ChatRepository = (*PostgresStorage)(nil)
var _ ContentRepository = (*PostgresStorage)(nil)
