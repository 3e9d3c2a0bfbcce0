package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/tmc/langchaingo/llms"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/storage"
)

const (
	SuggestionQuickSnack = "quick_snack"
	SuggestionRecipe     = "recipe"
	SuggestionMealPlan   = "meal_plan"

	SourceAI       = "ai"
	SourceFallback = "fallback"
)

type DietaryPreferencesView struct {
	DietaryPreferences internal.DietaryPreferences `json:"dietary_preferences"`
	IsConfigured       bool                        `json:"is_configured"`
}

type DietaryPreferencesRequest struct {
	DietType            string   `json:"diet_type,omitempty" validate:"omitempty,oneof=omnivore none vegetarian vegan pescatarian keto paleo gluten_free halal kosher other"`
	Allergies           []string `json:"allergies,omitempty" validate:"dive,required,max=50"`
	Intolerances        []string `json:"intolerances,omitempty" validate:"dive,required,max=50"`
	CulturalPreferences string   `json:"cultural_preferences,omitempty" validate:"max=100"`
	AvoidFoods          []string `json:"avoid_foods,omitempty" validate:"dive,required,max=50"`
	PreferredCuisines   []string `json:"preferred_cuisines,omitempty" validate:"dive,required,max=50"`
	MealPrepTime        string   `json:"meal_prep_time,omitempty" validate:"omitempty,oneof=quick moderate elaborate"`
	BudgetPreference    string   `json:"budget_preference,omitempty" validate:"omitempty,oneof=budget moderate premium"`
}

func (r *DietaryPreferencesRequest) empty() bool {
	return r.DietType == "" && r.CulturalPreferences == "" && r.MealPrepTime == "" && r.BudgetPreference == "" &&
		len(r.Allergies) == 0 && len(r.Intolerances) == 0 && len(r.AvoidFoods) == 0 && len(r.PreferredCuisines) == 0
}

type SuggestionRequest struct {
	SuggestionType  string   `json:"suggestion_type,omitempty" validate:"omitempty,oneof=quick_snack recipe meal_plan"`
	CurrentMood     *int     `json:"current_mood,omitempty" validate:"omitempty,gte=1,lte=10"`
	CurrentEnergy   string   `json:"current_energy,omitempty" validate:"omitempty,oneof=very_low low moderate high very_high"`
	CurrentSymptoms []string `json:"current_symptoms,omitempty" validate:"dive,required,max=50"`
	TimeOfDay       string   `json:"time_of_day,omitempty" validate:"omitempty,oneof=morning midday afternoon evening night"`
}

type Suggestion struct {
	SuggestionType   string   `json:"suggestion_type"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Reasoning        string   `json:"reasoning"`
	Ingredients      []string `json:"ingredients"`
	PreparationSteps []string `json:"preparation_steps"`
	MoodBenefits     []string `json:"mood_benefits"`
	PrepTime         string   `json:"prep_time,omitempty"`
}

type SuggestionContext struct {
	TimeOfDay          string   `json:"time_of_day"`
	CurrentMood        *int     `json:"current_mood,omitempty"`
	CurrentEnergy      string   `json:"current_energy,omitempty"`
	CurrentSymptoms    []string `json:"current_symptoms,omitempty"`
	PreferencesApplied bool     `json:"preferences_applied"`
	Source             string   `json:"source"`
}

type SuggestionResponse struct {
	Suggestion Suggestion        `json:"suggestion"`
	Context    SuggestionContext `json:"context"`
}

type DietaryService struct {
	users  storage.UserRepository
	logs   storage.MoodLogRepository
	llm    Completer
	logger internal.Logger
	now    func() time.Time
}

func NewDietaryService(users storage.UserRepository, logs storage.MoodLogRepository, llm Completer, logger internal.Logger) *DietaryService {
	return &DietaryService{users: users, logs: logs, llm: llm, logger: logger, now: time.Now}
}

func (s *DietaryService) Preferences(ctx context.Context, userID string) (*DietaryPreferencesView, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &DietaryPreferencesView{}
	if user.DietaryPreferences != nil {
		view.DietaryPreferences = *user.DietaryPreferences
		view.IsConfigured = true
	}
	return view, nil
}

// UpdatePreferences replaces the stored dietary preferences.
func (s *DietaryService) UpdatePreferences(ctx context.Context, userID string, req *DietaryPreferencesRequest) (*DietaryPreferencesView, error) {
	if req.empty() {
		return nil, invalid("no dietary preferences provided")
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs := internal.DietaryPreferences{
		DietType:            req.DietType,
		Allergies:           req.Allergies,
		Intolerances:        req.Intolerances,
		CulturalPreferences: req.CulturalPreferences,
		AvoidFoods:          req.AvoidFoods,
		PreferredCuisines:   req.PreferredCuisines,
		MealPrepTime:        req.MealPrepTime,
		BudgetPreference:    req.BudgetPreference,
	}
	user.DietaryPreferences = &prefs
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return &DietaryPreferencesView{DietaryPreferences: prefs, IsConfigured: true}, nil
}

// TimeOfDay buckets an hour of the day.
func TimeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 11:
		return "morning"
	case h >= 11 && h < 14:
		return "midday"
	case h >= 14 && h < 17:
		return "afternoon"
	case h >= 17 && h < 21:
		return "evening"
	default:
		return "night"
	}
}

// Suggest asks the language model for a food suggestion fitted to the user's
// preferences and mood. Without a model, or when the model fails, a fixed
// suggestion of the requested type is returned.
func (s *DietaryService) Suggest(ctx context.Context, user *internal.User, req *SuggestionRequest) (*SuggestionResponse, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if req.SuggestionType == "" {
		req.SuggestionType = SuggestionQuickSnack
	}
	if req.TimeOfDay == "" {
		req.TimeOfDay = TimeOfDay(s.now())
	}
	stored, err := s.users.GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	resp := &SuggestionResponse{Context: SuggestionContext{
		TimeOfDay:          req.TimeOfDay,
		CurrentMood:        req.CurrentMood,
		CurrentEnergy:      req.CurrentEnergy,
		CurrentSymptoms:    req.CurrentSymptoms,
		PreferencesApplied: stored.DietaryPreferences != nil,
		Source:             SourceAI,
	}}

	suggestion, err := s.generate(ctx, stored, req)
	if err != nil {
		s.logger.Warnw("dietary suggestion fell back to defaults", "user_id", user.ID, "type", req.SuggestionType, "error", err)
		suggestion = withoutExcluded(fallbackSuggestion(req.SuggestionType), stored.DietaryPreferences)
		resp.Context.Source = SourceFallback
	}
	resp.Suggestion = suggestion
	return resp, nil
}

func (s *DietaryService) generate(ctx context.Context, user *internal.User, req *SuggestionRequest) (Suggestion, error) {
	if s.llm == nil {
		return Suggestion{}, ErrLLMUnavailable
	}
	prompt := s.prompt(ctx, user, req)
	text, err := generate(ctx, s.llm, []llms.MessageContent{
		textMessage(llms.ChatMessageTypeSystem, dietarySystemPrompt),
		textMessage(llms.ChatMessageTypeHuman, prompt),
	}, llms.WithTemperature(0.8), llms.WithJSONMode())
	if err != nil {
		return Suggestion{}, err
	}
	return parseSuggestion(text, req.SuggestionType)
}

const dietarySystemPrompt = `You are a nutrition assistant for people managing mood disorders and ADHD. Suggest foods that support steady energy and mood (complex carbohydrates, protein, omega-3 fats, fiber) and strictly respect the user's diet, allergies, and intolerances. You never give medical advice.

Reply with a single JSON object with these keys:
"title" (string), "description" (string), "reasoning" (string explaining the mood benefit),
"ingredients" (array of strings), "preparation_steps" (array of strings),
"mood_benefits" (array of strings), "prep_time" (string).`

func (s *DietaryService) prompt(ctx context.Context, user *internal.User, req *SuggestionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggestion type: %s\n", strings.ReplaceAll(req.SuggestionType, "_", " "))
	fmt.Fprintf(&b, "Time of day: %s\n", req.TimeOfDay)
	if req.CurrentMood != nil {
		fmt.Fprintf(&b, "Current mood: %d/10\n", *req.CurrentMood)
	}
	if req.CurrentEnergy != "" {
		fmt.Fprintf(&b, "Current energy: %s\n", strings.ReplaceAll(req.CurrentEnergy, "_", " "))
	}
	if len(req.CurrentSymptoms) > 0 {
		fmt.Fprintf(&b, "Current symptoms: %s\n", strings.Join(req.CurrentSymptoms, ", "))
	}
	if p := user.DietaryPreferences; p != nil {
		writeList := func(label string, items []string) {
			if len(items) > 0 {
				fmt.Fprintf(&b, "%s: %s\n", label, strings.Join(items, ", "))
			}
		}
		if p.DietType != "" {
			fmt.Fprintf(&b, "Diet: %s\n", p.DietType)
		}
		writeList("Allergies (never include)", p.Allergies)
		writeList("Intolerances (avoid)", p.Intolerances)
		writeList("Foods to avoid", p.AvoidFoods)
		writeList("Preferred cuisines", p.PreferredCuisines)
		if p.CulturalPreferences != "" {
			fmt.Fprintf(&b, "Cultural preferences: %s\n", p.CulturalPreferences)
		}
		if p.MealPrepTime != "" {
			fmt.Fprintf(&b, "Preparation time: %s\n", p.MealPrepTime)
		}
		if p.BudgetPreference != "" {
			fmt.Fprintf(&b, "Budget: %s\n", p.BudgetPreference)
		}
	}
	if len(user.Conditions) > 0 {
		fmt.Fprintf(&b, "Conditions: %s\n", strings.Join(user.Conditions, ", "))
	}
	logs, err := s.logs.ListMoodLogs(ctx, user.ID, storage.MoodLogFilter{Limit: 3})
	if err != nil {
		s.logger.Warnw("failed to load mood context for dietary suggestion", "user_id", user.ID, "error", err)
	}
	for _, l := range logs {
		fmt.Fprintf(&b, "Recent mood %s: %d/10\n", l.Date, l.MoodRating)
	}
	return b.String()
}

// parseSuggestion decodes the model's JSON reply, tolerating a fenced code block.
func parseSuggestion(text, kind string) (Suggestion, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	var sg Suggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &sg); err != nil {
		return Suggestion{}, fmt.Errorf("decode suggestion: %w", err)
	}
	if sg.Title == "" {
		return Suggestion{}, fmt.Errorf("decode suggestion: missing title")
	}
	sg.SuggestionType = kind
	if sg.Ingredients == nil {
		sg.Ingredients = []string{}
	}
	if sg.PreparationSteps == nil {
		sg.PreparationSteps = []string{}
	}
	if sg.MoodBenefits == nil {
		sg.MoodBenefits = []string{}
	}
	return sg, nil
}

func fallbackSuggestion(kind string) Suggestion {
	switch kind {
	case SuggestionRecipe:
		return Suggestion{
			SuggestionType:   kind,
			Title:            "Salmon and Quinoa Bowl",
			Description:      "Baked salmon over quinoa with spinach and roasted sweet potato.",
			Reasoning:        "Omega-3 fats and complex carbohydrates support steady mood and energy.",
			Ingredients:      []string{"salmon fillet", "quinoa", "spinach", "sweet potato", "olive oil", "lemon"},
			PreparationSteps: []string{"Roast cubed sweet potato for 25 minutes at 200C.", "Cook quinoa according to the package.", "Bake salmon for 12-15 minutes.", "Wilt spinach and assemble the bowl with a squeeze of lemon."},
			MoodBenefits:     []string{"omega-3 fatty acids", "steady blood sugar", "magnesium"},
			PrepTime:         "35 minutes",
		}
	case SuggestionMealPlan:
		return Suggestion{
			SuggestionType:   kind,
			Title:            "Balanced Day of Eating",
			Description:      "Breakfast: oatmeal with berries and walnuts. Lunch: lentil soup with whole-grain bread. Dinner: grilled chicken with vegetables and brown rice.",
			Reasoning:        "Regular meals with protein and fiber help avoid energy crashes that can worsen mood.",
			Ingredients:      []string{"oats", "berries", "walnuts", "lentils", "whole-grain bread", "chicken", "mixed vegetables", "brown rice"},
			PreparationSteps: []string{"Prepare oatmeal in the morning.", "Batch-cook lentil soup for lunch.", "Grill chicken and steam vegetables for dinner."},
			MoodBenefits:     []string{"stable energy", "fiber for gut health", "B vitamins"},
			PrepTime:         "varies",
		}
	default:
		return Suggestion{
			SuggestionType:   SuggestionQuickSnack,
			Title:            "Greek Yogurt with Berries and Walnuts",
			Description:      "A bowl of plain Greek yogurt topped with mixed berries and a handful of walnuts.",
			Reasoning:        "Protein and healthy fats give lasting energy, and berries add antioxidants.",
			Ingredients:      []string{"Greek yogurt", "mixed berries", "walnuts"},
			PreparationSteps: []string{"Spoon yogurt into a bowl.", "Top with berries and walnuts."},
			MoodBenefits:     []string{"protein", "omega-3 fatty acids", "antioxidants"},
			PrepTime:         "2 minutes",
		}
	}
}

// withoutExcluded drops ingredients that mention an allergy, intolerance, or avoided food.
func withoutExcluded(sg Suggestion, p *internal.DietaryPreferences) Suggestion {
	if p == nil {
		return sg
	}
	var excluded []string
	for _, list := range [][]string{p.Allergies, p.Intolerances, p.AvoidFoods} {
		for _, item := range list {
			if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
				excluded = append(excluded, strings.TrimSuffix(item, "s"))
			}
		}
	}
	kept := make([]string, 0, len(sg.Ingredients))
	for _, ing := range sg.Ingredients {
		lower := strings.ToLower(ing)
		if !lo.SomeBy(excluded, func(x string) bool { return strings.Contains(lower, x) }) {
			kept = append(kept, ing)
		}
	}
	sg.Ingredients = kept
	return sg
}
