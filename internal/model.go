package internal

import "time"

type User struct {
	ID                      string                  `json:"id" bson:"_id"`
	Email                   string                  `json:"email" bson:"email"`
	Name                    string                  `json:"name" bson:"name"`
	PasswordHash            string                  `json:"-" bson:"password_hash"`
	Conditions              []string                `json:"conditions" bson:"conditions"` // bipolar, adhd, depression
	NotificationPreferences NotificationPreferences `json:"notification_preferences" bson:"notification_preferences"`
	DietaryPreferences      *DietaryPreferences     `json:"dietary_preferences,omitempty" bson:"dietary_preferences"`
	PushSubscriptions       []PushSubscription      `json:"push_subscriptions,omitempty" bson:"push_subscriptions"`
	CreatedAt               time.Time               `json:"created_at" bson:"created_at"`
}

// MoodLog is one record per (user, calendar date).
type MoodLog struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Date            string    `json:"date"`        // YYYY-MM-DD
	MoodRating      int       `json:"mood_rating"` // 1–10 scale
	MoodTag         string    `json:"mood_tag,omitempty"`
	Symptoms        Symptoms  `json:"symptoms"`
	Notes           string    `json:"notes,omitempty"`
	MedicationTaken bool      `json:"medication_taken"`
	SleepHours      *float64  `json:"sleep_hours,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

type Permissions struct {
	ViewMoodLogs  bool `json:"view_mood_logs" bson:"view_mood_logs"`
	ViewAnalytics bool `json:"view_analytics" bson:"view_analytics"`
	ReceiveAlerts bool `json:"receive_alerts" bson:"receive_alerts"`
}

const (
	InvitationPending   = "pending"
	InvitationAccepted  = "accepted"
	InvitationRejected  = "rejected"
	InvitationCancelled = "cancelled"
)

type CaregiverInvitation struct {
	ID             string      `json:"id" bson:"_id"`
	PatientID      string      `json:"patient_id" bson:"patient_id"`
	PatientName    string      `json:"patient_name" bson:"patient_name"`
	CaregiverEmail string      `json:"caregiver_email" bson:"caregiver_email"`
	Permissions    Permissions `json:"permissions" bson:"permissions"`
	Status         string      `json:"status" bson:"status"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
	RespondedAt    *time.Time  `json:"responded_at,omitempty" bson:"responded_at"`
}

// CaregiverRelationship is a directed patient -> caregiver edge.
type CaregiverRelationship struct {
	ID             string      `json:"id" bson:"_id"`
	PatientID      string      `json:"patient_id" bson:"patient_id"`
	PatientName    string      `json:"patient_name" bson:"patient_name"`
	CaregiverID    string      `json:"caregiver_id" bson:"caregiver_id"`
	CaregiverName  string      `json:"caregiver_name" bson:"caregiver_name"`
	CaregiverEmail string      `json:"caregiver_email" bson:"caregiver_email"`
	Permissions    Permissions `json:"permissions" bson:"permissions"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
}

const (
	NotificationCrisisAlert        = "crisis_alert"
	NotificationInvitation         = "caregiver_invitation"
	NotificationInvitationAccepted = "invitation_accepted"
)

type Notification struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Type      string    `json:"type" bson:"type"`
	Title     string    `json:"title" bson:"title"`
	Message   string    `json:"message" bson:"message"`
	Severity  string    `json:"severity,omitempty" bson:"severity"`
	PatientID string    `json:"patient_id,omitempty" bson:"patient_id"`
	Excerpt   string    `json:"excerpt,omitempty" bson:"excerpt"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// NotificationPreferences leaves a channel nil until the user chooses; nil means allowed.
type NotificationPreferences struct {
	EmailCrisisAlerts *bool `json:"email_crisis_alerts,omitempty" bson:"email_crisis_alerts"`
	PushCrisisAlerts  *bool `json:"push_crisis_alerts,omitempty" bson:"push_crisis_alerts"`
}

func (p NotificationPreferences) AllowsEmailCrisis() bool {
	return p.EmailCrisisAlerts == nil || *p.EmailCrisisAlerts
}

func (p NotificationPreferences) AllowsPushCrisis() bool {
	return p.PushCrisisAlerts == nil || *p.PushCrisisAlerts
}

type PushSubscription struct {
	Endpoint string `json:"endpoint" bson:"endpoint"`
	P256dh   string `json:"p256dh" bson:"p256dh"`
	Auth     string `json:"auth" bson:"auth"`
}

type DietaryPreferences struct {
	DietType            string   `json:"diet_type,omitempty" bson:"diet_type"`
	Allergies           []string `json:"allergies,omitempty" bson:"allergies"`
	Intolerances        []string `json:"intolerances,omitempty" bson:"intolerances"`
	CulturalPreferences string   `json:"cultural_preferences,omitempty" bson:"cultural_preferences"`
	AvoidFoods          []string `json:"avoid_foods,omitempty" bson:"avoid_foods"`
	PreferredCuisines   []string `json:"preferred_cuisines,omitempty" bson:"preferred_cuisines"`
	MealPrepTime        string   `json:"meal_prep_time,omitempty" bson:"meal_prep_time"`
	BudgetPreference    string   `json:"budget_preference,omitempty" bson:"budget_preference"`
}

type ChatMessage struct {
	Role      string    `json:"role" bson:"role"` // user, assistant
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

type ChatHistory struct {
	UserID    string        `json:"user_id" bson:"user_id"`
	Messages  []ChatMessage `json:"messages" bson:"messages"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

// MaxChatHistory is the number of messages kept per user.
const MaxChatHistory = 50

const (
	ContentArticle  = "article"
	ContentVideo    = "video"
	ContentAudio    = "audio"
	ContentExercise = "exercise"
)

// Content is one item of the educational library.
type Content struct {
	ID          string    `json:"id" bson:"_id" yaml:"id"`
	Title       string    `json:"title" bson:"title" yaml:"title"`
	ContentType string    `json:"content_type" bson:"content_type" yaml:"content_type"`
	Category    string    `json:"category" bson:"category" yaml:"category"`
	Description string    `json:"description" bson:"description" yaml:"description"`
	ContentURL  string    `json:"content_url,omitempty" bson:"content_url" yaml:"content_url"`
	Tags        []string  `json:"tags" bson:"tags" yaml:"tags"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" yaml:"created_at"`
}
