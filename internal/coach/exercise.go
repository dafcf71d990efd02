package coach

import (
	"fmt"

	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/stats"
)

// Training zones as fractions of heart-rate reserve (Karvonen).
const (
	ZoneRecovery  = "recovery"
	ZoneFatBurn   = "fat_burn"
	ZoneAerobic   = "aerobic"
	ZoneThreshold = "threshold"
)

var zoneBounds = map[string][2]float64{
	ZoneRecovery:  {0.50, 0.60},
	ZoneFatBurn:   {0.60, 0.70},
	ZoneAerobic:   {0.70, 0.80},
	ZoneThreshold: {0.80, 0.90},
}

// TargetZone returns the Karvonen band baseline + reserve*[lo, hi] of a zone,
// truncated to whole beats. Unknown zones use the recovery band.
func TargetZone(baseline, reserve int, zone string) models.HeartRateZone {
	bounds, ok := zoneBounds[zone]
	if !ok {
		zone = ZoneRecovery
		bounds = zoneBounds[zone]
	}
	return models.HeartRateZone{
		Min:  int(float64(baseline) + float64(reserve)*bounds[0]),
		Max:  int(float64(baseline) + float64(reserve)*bounds[1]),
		Zone: zone,
	}
}

type planContext struct {
	baseline int
	reserve  int
	in       Input
}

func (p planContext) zone(name string) *models.HeartRateZone {
	z := TargetZone(p.baseline, p.reserve, name)
	return &z
}

func exercisePlan(in Input) models.ExercisePlan {
	baseline := orDefault(in.BaselineHR, fallbackRestingHR)
	maxHR := orDefault(in.MaxSafeHR, 220-in.Age)
	p := planContext{baseline: baseline, reserve: maxHR - baseline, in: in}

	var plan models.ExercisePlan
	switch in.RiskLevel {
	case Critical:
		plan = p.recovery()
	case models.RiskHigh:
		plan = p.rehabilitation()
	case models.RiskModerate:
		plan = p.guidedImprovement()
	default:
		plan = p.progressive()
	}
	plan.RiskLevel = in.RiskLevel
	plan.RiskScore = stats.Round(in.RiskScore, scorePrecision)
	plan.Profile = models.CoachingProfile{Age: in.Age, BaselineHR: baseline, MaxSafeHR: maxHR}
	return plan
}

func (p planContext) recovery() models.ExercisePlan {
	return models.ExercisePlan{
		PlanType: "recovery",
		Summary:  "Your vitals suggest you need rest right now. Focus on gentle breathing and light movement only.",
		WeeklySessions: []models.ExerciseSession{
			{
				Day:             "Daily",
				Activity:        "Diaphragmatic breathing",
				DurationMinutes: 10,
				Intensity:       "very_low",
				TargetHR:        p.zone(ZoneRecovery),
				Instructions: "Sit comfortably. Breathe in through your nose for 4 seconds, hold for 2 seconds, " +
					"exhale through pursed lips for 6 seconds. Repeat for 10 minutes.",
			},
			{
				Day:             "Daily",
				Activity:        "Gentle stretching",
				DurationMinutes: 5,
				Intensity:       "very_low",
				TargetHR:        p.zone(ZoneRecovery),
				Instructions:    "Seated neck rolls, shoulder shrugs, and ankle circles. Do not stand if you feel dizzy.",
			},
		},
		WeeklyGoalMinutes: 70,
		Warnings: []string{
			"Do not exercise if you feel chest pain, severe dizziness, or shortness of breath.",
			"Contact your healthcare provider before increasing activity.",
		},
	}
}

func (p planContext) rehabilitation() models.ExercisePlan {
	walk := 20
	if p.in.Age >= 65 {
		walk = 15
	}
	return models.ExercisePlan{
		PlanType: "rehabilitation",
		Summary:  "Your risk is elevated. Start with very light activity and gradually increase as your vitals improve.",
		WeeklySessions: []models.ExerciseSession{
			{
				Day:             "Mon / Wed / Fri",
				Activity:        "Slow walking",
				DurationMinutes: walk,
				Intensity:       "low",
				TargetHR:        p.zone(ZoneRecovery),
				Instructions: fmt.Sprintf("Walk at a comfortable pace for %d minutes on flat ground. "+
					"Stop if your heart rate exceeds your target zone or if you feel breathless.", walk),
			},
			{
				Day:             "Tue / Thu",
				Activity:        "Seated exercises + breathing",
				DurationMinutes: 15,
				Intensity:       "very_low",
				TargetHR:        p.zone(ZoneRecovery),
				Instructions: "Seated leg lifts (10 reps each leg), arm raises with light weights or water bottles " +
					"(10 reps), followed by 5 minutes of deep breathing.",
			},
			{
				Day:          "Sat / Sun",
				Activity:     "Rest and recovery",
				Intensity:    "rest",
				Instructions: "Complete rest. Stay hydrated and monitor your vitals.",
			},
		},
		WeeklyGoalMinutes: walk*3 + 30,
		Warnings: []string{
			"Keep your heart rate in the recovery zone.",
			"Stop immediately if you feel chest tightness or dizziness.",
		},
	}
}

func (p planContext) guidedImprovement() models.ExercisePlan {
	walk := 25
	if p.in.Age >= 60 {
		walk = 20
	}
	sessions := []models.ExerciseSession{
		{
			Day:             "Mon / Wed / Fri",
			Activity:        "Brisk walking",
			DurationMinutes: walk,
			Intensity:       "low_to_moderate",
			TargetHR:        p.zone(ZoneFatBurn),
			Instructions: fmt.Sprintf("Walk briskly for %d minutes. You should be able to talk but not sing. "+
				"Cool down with 3 minutes of slow walking.", walk),
		},
		{
			Day:             "Tue / Thu",
			Activity:        "Light yoga or stretching",
			DurationMinutes: 20,
			Intensity:       "low",
			TargetHR:        p.zone(ZoneRecovery),
			Instructions:    "Gentle yoga poses: cat-cow, child's pose, seated twist. Focus on steady breathing throughout.",
		},
	}
	if p.in.AvgSpO2 != nil && *p.in.AvgSpO2 < lowSpO2 {
		sessions = append(sessions, models.ExerciseSession{
			Day:             "Daily",
			Activity:        "Pursed-lip breathing practice",
			DurationMinutes: 10,
			Intensity:       "very_low",
			Instructions: "Your blood oxygen is slightly low. Practice pursed-lip breathing: inhale through nose " +
				"for 2 seconds, exhale slowly through pursed lips for 4 seconds. This helps improve oxygen levels over time.",
		})
	}
	return models.ExercisePlan{
		PlanType:          "guided_improvement",
		Summary:           "Your vitals show room for improvement. Follow this balanced plan to strengthen your heart safely.",
		WeeklySessions:    sessions,
		WeeklyGoalMinutes: walk*3 + 40,
		Warnings: []string{
			"Monitor your heart rate during exercise.",
			"If you feel unusually fatigued, take an extra rest day.",
		},
	}
}

func (p planContext) progressive() models.ExercisePlan {
	dur := 30
	if p.in.Age >= 55 {
		dur = 25
	}
	zone := ZoneAerobic
	// fast recovery earns the threshold zone and five extra minutes
	if p.in.RecoveryMinutes != nil && *p.in.RecoveryMinutes <= 5 {
		zone = ZoneThreshold
		dur += 5
	}
	return models.ExercisePlan{
		PlanType: "progressive_training",
		Summary:  "Your vitals look great! This plan helps you build cardiovascular fitness progressively.",
		WeeklySessions: []models.ExerciseSession{
			{
				Day:             "Mon / Wed / Fri",
				Activity:        "Brisk walking or light jogging",
				DurationMinutes: dur,
				Intensity:       "moderate",
				TargetHR:        p.zone(zone),
				Instructions: "Alternate between 3 minutes of brisk walking and 2 minutes of light jogging. " +
					"Aim for steady breathing. Cool down with 5 minutes of slow walking.",
			},
			{
				Day:             "Tue / Thu",
				Activity:        "Cycling or swimming",
				DurationMinutes: dur,
				Intensity:       "moderate",
				TargetHR:        p.zone(ZoneFatBurn),
				Instructions:    "Steady-state cardio at a comfortable pace. These low-impact activities are excellent for heart health.",
			},
			{
				Day:             "Sat",
				Activity:        "Longer walk or hike",
				DurationMinutes: 45,
				Intensity:       "low_to_moderate",
				TargetHR:        p.zone(ZoneFatBurn),
				Instructions:    "Enjoy a longer walk outdoors. Nature walks reduce stress and improve cardiovascular recovery.",
			},
			{
				Day:             "Sun",
				Activity:        "Active recovery: yoga or stretching",
				DurationMinutes: 20,
				Intensity:       "low",
				Instructions:    "Gentle stretching or yoga to improve flexibility and reduce muscle tension from the week.",
			},
		},
		WeeklyGoalMinutes: dur*4 + 65,
		Warnings: []string{
			"Listen to your body. Extra rest is fine when needed.",
			"Stay hydrated before, during, and after exercise.",
		},
	}
}
