// Package models defines the core data structures for HerSpace.
//
// It includes the form answers collected by the wizard, the per-user session that owns them,
// the records returned by external services and the JSON envelope used by the API.
package models

import "strings"

// Intensity is one of the four ordered emotion intensity levels.
type Intensity string

const (
	IntensityMild       Intensity = "Mild"
	IntensityModerate   Intensity = "Moderate"
	IntensityStrong     Intensity = "Strong"
	IntensityVeryStrong Intensity = "Very Strong"
)

// IntensityLevels lists intensities from weakest to strongest.
var IntensityLevels = []Intensity{IntensityMild, IntensityModerate, IntensityStrong, IntensityVeryStrong}

// DefaultIntensity is preselected when the emotions step is first shown.
const DefaultIntensity = IntensityMild

// ParseIntensity normalizes s (case and surrounding whitespace are ignored) into an Intensity.
func ParseIntensity(s string) (Intensity, bool) {
	s = strings.TrimSpace(s)
	for _, lvl := range IntensityLevels {
		if strings.EqualFold(s, string(lvl)) {
			return lvl, true
		}
	}
	return "", false
}

// Option lists offered by the wizard steps.
const (
	CategoryPlaceholder = "Select an topic..."
	CategoryOther       = "Other (please specify)"
	EmotionOther        = "Other..."
	SupportNone         = "None currently"
)

// CategoryOptions are the topics offered on the welcome step.
var CategoryOptions = []string{
	CategoryPlaceholder,
	"Women in Leadership & Glass Ceiling",
	"Gender Inequality in Education",
	"Workplace Gender Discrimination",
	"Pregnancy & Parenting Challenges",
	"Domestic Violence",
	"Work-Life Balance Struggles",
	"Body Image & Beauty Standards",
	"Online Harassment & Cyberstalking",
	"Offline Harassment",
	"Unhealthy Relationships",
	CategoryOther,
}

// PredefinedThoughts can be toggled on the thoughts step.
var PredefinedThoughts = []string{
	"I'm not good enough", "I should be doing better",
	"Others are judging me", "I can't handle this",
	"This is too difficult", "I'll never succeed",
	"I deserve better", "I can learn from this",
	"This is temporary",
}

// EmotionOptions are offered as the primary emotion.
var EmotionOptions = []string{"😔 Sad", "😠 Angry", "😟 Anxious", "😊 Hopeful", "😕 Confused", EmotionOther}

// SupportOptions are the predefined support sources.
var SupportOptions = []string{
	"Family members", "Close friends", "Professional help",
	"Support groups", "Mentor", "Spiritual/Religious community",
	SupportNone,
}

// StrengthOptions are the predefined personal strengths.
var StrengthOptions = []string{
	"Resilience", "Creativity", "Determination", "Empathy", "Problem-solving",
	"Communication", "Adaptability", "Patience", "Leadership", "Self-awareness",
	"Optimism", "Analytical thinking", "Emotional intelligence", "Organization",
	"Perseverance", "Active listening", "Growth mindset", "Self-motivation",
}

// IsOption reports whether value is one of options.
func IsOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

// FormState holds the answers collected by the wizard.
type FormState struct {
	Category         string    `json:"category"`
	Situation        string    `json:"situation"`
	Thoughts         []string  `json:"thoughts"`
	PrimaryEmotion   string    `json:"primary_emotion"`
	EmotionIntensity Intensity `json:"emotion_intensity"`
	SupportSystem    string    `json:"support_system"`
	Strengths        string    `json:"strengths"`
	Goal             string    `json:"goal"`
	ExtraNotes       string    `json:"extra_notes"`
	Submitted        bool      `json:"submitted"`
}

// Clone returns a deep copy of the form.
func (f FormState) Clone() FormState {
	f.Thoughts = cloneStrings(f.Thoughts)
	return f
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
