package models

// HeartRateZone is a target heart-rate band in beats per minute.
type HeartRateZone struct {
	Min  int    `json:"min"`
	Max  int    `json:"max"`
	Zone string `json:"zone"`
}

// ExerciseSession is one recurring entry of a weekly exercise plan. TargetHR is
// nil for rest days and breathing-only work.
type ExerciseSession struct {
	Day             string         `json:"day"`
	Activity        string         `json:"activity"`
	DurationMinutes int            `json:"duration_minutes"`
	Intensity       string         `json:"intensity"`
	TargetHR        *HeartRateZone `json:"target_hr"`
	Instructions    string         `json:"instructions"`
}

// CoachingProfile echoes the inputs the heart-rate zones were derived from.
type CoachingProfile struct {
	Age        int `json:"age"`
	BaselineHR int `json:"baseline_hr"`
	MaxSafeHR  int `json:"max_safe_hr"`
}

// ExercisePlan is a weekly plan sized to the patient's risk tier.
type ExercisePlan struct {
	RiskLevel         RiskLevel         `json:"risk_level"`
	RiskScore         float64           `json:"risk_score"`
	Profile           CoachingProfile   `json:"patient_profile"`
	PlanType          string            `json:"plan_type"`
	Summary           string            `json:"summary"`
	WeeklySessions    []ExerciseSession `json:"weekly_sessions"`
	WeeklyGoalMinutes int               `json:"weekly_goal_minutes"`
	Warnings          []string          `json:"warnings"`
}

// MealSuggestions is one example day of meals.
type MealSuggestions struct {
	Breakfast string `json:"breakfast" yaml:"breakfast"`
	Lunch     string `json:"lunch" yaml:"lunch"`
	Dinner    string `json:"dinner" yaml:"dinner"`
	Snacks    string `json:"snacks" yaml:"snacks"`
}

// DietGuidance is heart-healthy eating advice for a risk tier.
type DietGuidance struct {
	RiskLevel           RiskLevel       `json:"risk_level"`
	RiskScore           float64         `json:"risk_score"`
	GeneralPrinciples   []string        `json:"general_principles"`
	PriorityActions     []string        `json:"priority_actions"`
	MealSuggestions     MealSuggestions `json:"meal_suggestions"`
	FoodsToAvoid        []string        `json:"foods_to_avoid"`
	OxygenSupportFoods  []string        `json:"oxygen_support_foods,omitempty"`
	SeniorNutritionTips []string        `json:"senior_nutrition_tips,omitempty"`
}

// CoachingPlan combines exercise and diet guidance with a motivating message.
type CoachingPlan struct {
	CoachingMessage string       `json:"coaching_message"`
	Exercise        ExercisePlan `json:"exercise_plan"`
	Diet            DietGuidance `json:"diet_guidance"`
}
