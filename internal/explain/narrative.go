package explain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/miradorstack/cardio-intel/internal/models"
)

// AlertInput is a technical alert to be rendered for a patient.
type AlertInput struct {
	AlertType      string   `json:"alert_type"`
	Severity       string   `json:"severity"`
	TriggerValue   string   `json:"trigger_value,omitempty"`
	ThresholdValue string   `json:"threshold_value,omitempty"`
	RiskScore      *float64 `json:"risk_score,omitempty"`
	RiskLevel      string   `json:"risk_level,omitempty"`
	PatientName    string   `json:"patient_name,omitempty"`
}

type alertTemplate struct {
	message string
	actions []string
}

var defaultAlert = alertTemplate{
	message: "we noticed something unusual in your recent readings. Please check in with how you're feeling.",
	actions: []string{
		"Take a moment to rest",
		"Check how you're feeling",
		"Contact your doctor if concerned",
	},
}

var alertTemplates = map[string]alertTemplate{
	"high_heart_rate": {
		message: "your heart rate is higher than usual ({value}). This could mean your body is working harder than it should.",
		actions: []string{
			"Stop any physical activity and sit down",
			"Take slow, deep breaths for 2 minutes",
			"Drink some water",
			"If it doesn't come down in 10 minutes, call your doctor",
		},
	},
	"low_heart_rate": {
		message: "your heart rate is lower than expected ({value}). This might mean your body needs attention.",
		actions: []string{
			"Sit or lie down if you feel dizzy",
			"Avoid sudden movements",
			"Contact your healthcare provider if you feel unwell",
		},
	},
	"low_spo2": {
		message: "your blood oxygen level has dropped ({value}). This means your body may not be getting enough oxygen.",
		actions: []string{
			"Sit upright to help your breathing",
			"Take slow, deep breaths",
			"If you feel short of breath or dizzy, seek medical help immediately",
			"Do not ignore this. Low oxygen can be serious",
		},
	},
	"high_blood_pressure": {
		message: "your blood pressure reading is elevated ({value}). This is worth keeping an eye on.",
		actions: []string{
			"Sit down and relax for 5 minutes",
			"Avoid caffeine and salty foods",
			"Take another reading in 15 minutes",
			"If it stays high, contact your healthcare provider",
		},
	},
	"irregular_rhythm": {
		message: "we detected an irregular pattern in your heartbeat. This may be nothing, but it's worth checking.",
		actions: []string{
			"Stay calm and sit down",
			"Note any symptoms (dizziness, chest pain, shortness of breath)",
			"Contact your healthcare provider to discuss this reading",
		},
	},
	"abnormal_activity": {
		message: "your activity pattern looks different from usual. Your body might need a different approach today.",
		actions: []string{
			"Consider reducing your workout intensity",
			"Listen to your body. Rest if you feel tired",
			"Stay hydrated",
		},
	},
}

var urgencyBySeverity = map[string]string{
	"emergency": "act_now",
	"critical":  "urgent",
	"warning":   "attention_needed",
	"info":      "for_your_info",
}

// AlertMessage converts a technical alert into patient-facing wording with
// concrete action steps. Unknown alert types get a generic message.
func AlertMessage(in AlertInput) models.FriendlyAlert {
	tmpl, ok := alertTemplates[in.AlertType]
	if !ok {
		tmpl = defaultAlert
	}

	msg := tmpl.message
	if in.TriggerValue != "" {
		msg = strings.ReplaceAll(msg, "{value}", in.TriggerValue)
	} else {
		msg = strings.ReplaceAll(msg, " ({value})", "")
		msg = strings.ReplaceAll(msg, "{value}", "elevated")
	}
	if name := firstName(in.PatientName); name != "" {
		msg = "Hi " + name + ", " + msg
	} else {
		msg = capitalize(msg)
	}

	urgency, ok := urgencyBySeverity[strings.ToLower(in.Severity)]
	if !ok {
		urgency = "for_your_info"
	}

	alert := models.FriendlyAlert{
		FriendlyMessage:  msg,
		ActionSteps:      append([]string(nil), tmpl.actions...),
		UrgencyLevel:     urgency,
		OriginalType:     in.AlertType,
		OriginalSeverity: in.Severity,
	}
	if in.RiskScore != nil {
		alert.RiskContext = riskContext(*in.RiskScore, in.RiskLevel)
	}
	return alert
}

func riskContext(score float64, level string) string {
	lvl := strings.ToLower(level)
	switch {
	case score >= 0.8 || lvl == "critical" || lvl == "high":
		return "Your recent readings suggest a higher level of risk."
	case score >= 0.5 || lvl == "moderate":
		return "Your readings are slightly elevated."
	default:
		return "Your readings look stable and within a safe range."
	}
}

var driverTerms = map[string]string{
	"hr":   "heart rate",
	"spo2": "blood oxygen",
	"bp":   "blood pressure",
}

// RiskSummary renders an assessment as a short paragraph addressed to the patient.
// At most three drivers are mentioned.
func RiskSummary(score float64, level models.RiskLevel, drivers []string, patientName string) string {
	possessive := "Your"
	if name := firstName(patientName); name != "" {
		possessive = name + "'s"
	}

	high := level == models.RiskHigh || strings.EqualFold(string(level), "critical")
	var b strings.Builder
	switch {
	case high:
		b.WriteString(possessive + " health readings show some concerning patterns.")
	case level == models.RiskModerate:
		b.WriteString(possessive + " readings are slightly outside the normal range.")
	default:
		b.WriteString(possessive + " readings look good overall.")
	}

	if len(drivers) > 0 {
		plain := make([]string, 0, plainFactorCount)
		for _, d := range drivers[:min(plainFactorCount, len(drivers))] {
			plain = append(plain, simplifyDriver(d))
		}
		b.WriteString(" Specifically: " + strings.Join(plain, "; ") + ".")
	}

	switch {
	case high:
		b.WriteString(" Please rest and consider contacting your healthcare provider.")
	case level == models.RiskModerate:
		b.WriteString(" Take it easy and keep monitoring your vitals.")
	default:
		b.WriteString(" Keep up the good work!")
	}
	return b.String()
}

// simplifyDriver expands clinical abbreviations word by word, so "threshold"
// keeps its "hr".
func simplifyDriver(driver string) string {
	words := strings.FieldsFunc(driver, func(r rune) bool { return r == ' ' || r == '_' })
	for i, w := range words {
		if full, ok := driverTerms[strings.ToLower(w)]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
