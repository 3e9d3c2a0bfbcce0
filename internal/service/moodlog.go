package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/storage"
)

const (
	DefaultMoodLogLimit = 100
	MaxMoodLogLimit     = 1000
)

type MoodLogRequest struct {
	Date            string            `json:"date" validate:"required,ymd"`
	MoodRating      int               `json:"mood_rating" validate:"required,gte=1,lte=10"`
	MoodTag         string            `json:"mood_tag,omitempty" validate:"max=50"`
	Symptoms        internal.Symptoms `json:"symptoms"`
	Notes           string            `json:"notes,omitempty" validate:"max=5000"`
	MedicationTaken bool              `json:"medication_taken"`
	SleepHours      *float64          `json:"sleep_hours,omitempty" validate:"omitempty,gte=0,lte=24"`
}

// MoodLogUpdate changes only the fields that are set; the date is fixed once logged.
type MoodLogUpdate struct {
	MoodRating      *int              `json:"mood_rating,omitempty" validate:"omitempty,gte=1,lte=10"`
	MoodTag         *string           `json:"mood_tag,omitempty" validate:"omitempty,max=50"`
	Symptoms        internal.Symptoms `json:"symptoms,omitempty"`
	Notes           *string           `json:"notes,omitempty" validate:"omitempty,max=5000"`
	MedicationTaken *bool             `json:"medication_taken,omitempty"`
	SleepHours      *float64          `json:"sleep_hours,omitempty" validate:"omitempty,gte=0,lte=24"`
}

func (u *MoodLogUpdate) empty() bool {
	return u.MoodRating == nil && u.MoodTag == nil && u.Symptoms == nil &&
		u.Notes == nil && u.MedicationTaken == nil && u.SleepHours == nil
}

type MoodLogQuery struct {
	StartDate string `form:"start_date" validate:"omitempty,ymd"`
	EndDate   string `form:"end_date" validate:"omitempty,ymd"`
	Limit     int    `form:"limit" validate:"gte=0,lte=1000"`
}

func CreateMoodLog(ctx context.Context, repo storage.MoodLogRepository, userID string, req *MoodLogRequest) (*internal.MoodLog, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	symptoms := req.Symptoms
	if symptoms == nil {
		symptoms = internal.Symptoms{}
	}
	log := &internal.MoodLog{
		ID:              uuid.NewString(),
		UserID:          userID,
		Date:            req.Date,
		MoodRating:      req.MoodRating,
		MoodTag:         req.MoodTag,
		Symptoms:        symptoms,
		Notes:           req.Notes,
		MedicationTaken: req.MedicationTaken,
		SleepHours:      req.SleepHours,
		Timestamp:       time.Now().UTC(),
	}
	if err := repo.CreateMoodLog(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

func ListMoodLogs(ctx context.Context, repo storage.MoodLogRepository, userID string, q MoodLogQuery) ([]internal.MoodLog, error) {
	if err := Validate(&q); err != nil {
		return nil, err
	}
	if q.Limit == 0 {
		q.Limit = DefaultMoodLogLimit
	}
	return repo.ListMoodLogs(ctx, userID, storage.MoodLogFilter{
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Limit:     q.Limit,
	})
}

func GetMoodLog(ctx context.Context, repo storage.MoodLogRepository, userID, id string) (*internal.MoodLog, error) {
	return repo.GetMoodLog(ctx, userID, id)
}

func UpdateMoodLog(ctx context.Context, repo storage.MoodLogRepository, userID, id string, upd *MoodLogUpdate) (*internal.MoodLog, error) {
	if upd.empty() {
		return nil, invalid("no fields to update")
	}
	if err := Validate(upd); err != nil {
		return nil, err
	}
	log, err := repo.GetMoodLog(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if upd.MoodRating != nil {
		log.MoodRating = *upd.MoodRating
	}
	if upd.MoodTag != nil {
		log.MoodTag = *upd.MoodTag
	}
	if upd.Symptoms != nil {
		log.Symptoms = upd.Symptoms
	}
	if upd.Notes != nil {
		log.Notes = *upd.Notes
	}
	if upd.MedicationTaken != nil {
		log.MedicationTaken = *upd.MedicationTaken
	}
	if upd.SleepHours != nil {
		log.SleepHours = upd.SleepHours
	}
	if err := repo.UpdateMoodLog(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

func DeleteMoodLog(ctx context.Context, repo storage.MoodLogRepository, userID, id string) error {
	return repo.DeleteMoodLog(ctx, userID, id)
}
