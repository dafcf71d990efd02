// Package coach turns a risk assessment into a weekly exercise plan and
// heart-healthy diet guidance.
package coach

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/stats"
	"github.com/miradorstack/cardio-intel/internal/utils"
)

//go:embed guidance.yaml
var defaultGuidance []byte

// Critical is the coaching tier above high. Classifier output never carries it;
// clinicians and upstream alerting may.
const Critical models.RiskLevel = "critical"

const (
	maxAge            = 120
	lowSpO2           = 95
	seniorAge         = 65
	scorePrecision    = 4
	fallbackRestingHR = 72
)

var coachingMessages = map[models.RiskLevel]string{
	Critical: "Right now, your health needs immediate attention. Focus on rest, gentle breathing, " +
		"and heart-healthy eating. Your coach is here to guide you step by step.",
	models.RiskHigh: "Your vitals show some concern. Let's start with gentle activity and a " +
		"heart-protective diet. Small steps lead to big improvements.",
	models.RiskModerate: "You're doing okay, but there's room to improve. Follow this balanced plan " +
		"to strengthen your heart and feel better.",
	models.RiskLow: "Great job! Your vitals look healthy. Keep up the good work with this " +
		"progressive plan to maintain and build on your fitness.",
}

// Input carries the assessment and vitals a plan is sized to. Nil or zero
// optional vitals fall back to population defaults.
type Input struct {
	RiskLevel       models.RiskLevel `json:"risk_level"`
	RiskScore       float64          `json:"risk_score"`
	Age             int              `json:"age"`
	BaselineHR      *int             `json:"baseline_hr,omitempty"`
	MaxSafeHR       *int             `json:"max_safe_hr,omitempty"`
	AvgSpO2         *int             `json:"avg_spo2,omitempty"`
	AvgHeartRate    *int             `json:"avg_heart_rate,omitempty"`
	RecoveryMinutes *int             `json:"recovery_time_minutes,omitempty"`
}

type tierGuidance struct {
	PriorityActions []string               `yaml:"priority_actions"`
	MealSuggestions models.MealSuggestions `yaml:"meal_suggestions"`
	FoodsToAvoid    []string               `yaml:"foods_to_avoid"`
}

type guidance struct {
	GeneralPrinciples   []string                          `yaml:"general_principles"`
	Tiers               map[models.RiskLevel]tierGuidance `yaml:"tiers"`
	OxygenSupportFoods  []string                          `yaml:"oxygen_support_foods"`
	SeniorNutritionTips []string                          `yaml:"senior_nutrition_tips"`
}

// Coach builds coaching plans.
type Coach struct {
	guidance guidance
	logger   *slog.Logger
}

// New constructs a Coach backed by the built-in diet guidance.
func New(logger *slog.Logger) (*Coach, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var g guidance
	if err := yaml.Unmarshal(defaultGuidance, &g); err != nil {
		return nil, fmt.Errorf("parse diet guidance: %w", err)
	}
	for _, tier := range []models.RiskLevel{models.RiskHigh, models.RiskModerate, models.RiskLow} {
		if _, ok := g.Tiers[tier]; !ok {
			return nil, fmt.Errorf("diet guidance: tier %q missing", tier)
		}
	}
	return &Coach{guidance: g, logger: logger}, nil
}

// ParseLevel normalizes a coaching tier name.
func ParseLevel(level string) (models.RiskLevel, bool) {
	l := models.RiskLevel(strings.ToLower(strings.TrimSpace(level)))
	switch l {
	case Critical, models.RiskHigh, models.RiskModerate, models.RiskLow:
		return l, true
	}
	return "", false
}

// Plan builds the full coaching plan: exercise, diet and a tier message.
func (c *Coach) Plan(in Input) (models.CoachingPlan, error) {
	in, err := validate("coach.Plan", in)
	if err != nil {
		return models.CoachingPlan{}, err
	}
	plan := models.CoachingPlan{
		CoachingMessage: coachingMessages[in.RiskLevel],
		Exercise:        exercisePlan(in),
		Diet:            c.diet(in),
	}
	c.logger.Debug("coaching plan built",
		slog.String("risk_level", string(in.RiskLevel)),
		slog.String("plan_type", plan.Exercise.PlanType),
		slog.Int("weekly_goal_minutes", plan.Exercise.WeeklyGoalMinutes))
	return plan, nil
}

// Exercise builds only the weekly exercise plan.
func (c *Coach) Exercise(in Input) (models.ExercisePlan, error) {
	in, err := validate("coach.Exercise", in)
	if err != nil {
		return models.ExercisePlan{}, err
	}
	return exercisePlan(in), nil
}

// Diet builds only the diet guidance.
func (c *Coach) Diet(in Input) (models.DietGuidance, error) {
	in, err := validate("coach.Diet", in)
	if err != nil {
		return models.DietGuidance{}, err
	}
	return c.diet(in), nil
}

func validate(op string, in Input) (Input, error) {
	level, ok := ParseLevel(string(in.RiskLevel))
	if !ok {
		return in, utils.InvalidArgument(op, fmt.Sprintf("unknown risk level %q", in.RiskLevel))
	}
	in.RiskLevel = level
	if in.RiskScore < 0 || in.RiskScore > 1 {
		return in, utils.InvalidArgument(op, "risk_score must be within [0, 1]")
	}
	if in.Age <= 0 || in.Age > maxAge {
		return in, utils.InvalidArgument(op, fmt.Sprintf("age must be within [1, %d]", maxAge))
	}
	return in, nil
}

func (c *Coach) diet(in Input) models.DietGuidance {
	tierName := in.RiskLevel
	if tierName == Critical {
		tierName = models.RiskHigh
	}
	tier := c.guidance.Tiers[tierName]
	out := models.DietGuidance{
		RiskLevel:         in.RiskLevel,
		RiskScore:         stats.Round(in.RiskScore, scorePrecision),
		GeneralPrinciples: c.guidance.GeneralPrinciples,
		PriorityActions:   tier.PriorityActions,
		MealSuggestions:   tier.MealSuggestions,
		FoodsToAvoid:      tier.FoodsToAvoid,
	}
	if in.AvgSpO2 != nil && *in.AvgSpO2 < lowSpO2 {
		out.OxygenSupportFoods = c.guidance.OxygenSupportFoods
	}
	if in.Age >= seniorAge {
		out.SeniorNutritionTips = c.guidance.SeniorNutritionTips
	}
	return out
}

func orDefault(v *int, def int) int {
	if v == nil || *v == 0 {
		return def
	}
	return *v
}
