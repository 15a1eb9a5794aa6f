// Package prompt builds the text sent to the completion service and parses the
// sectioned reply that comes back.
//
// The section markers below are the only contract between the two halves: the builder
// asks the model to wrap each section in them and the extractor looks for exactly the
// same bytes.
package prompt

// Section names one delimited part of the final reply.
type Section string

const (
	SectionValidation Section = "VALIDATION"
	SectionInsights   Section = "INSIGHTS"
	SectionMilestones Section = "MILESTONES"
	SectionActions    Section = "ACTIONS"
	SectionSupport    Section = "SUPPORT"
	SectionGrowth     Section = "GROWTH"
)

// Sections lists every section in the order the model is asked to produce them.
var Sections = []Section{
	SectionValidation,
	SectionInsights,
	SectionMilestones,
	SectionActions,
	SectionSupport,
	SectionGrowth,
}

// StartMarker returns the opening tag, e.g. "[VALIDATION_START]".
func (s Section) StartMarker() string { return "[" + string(s) + "_START]" }

// EndMarker returns the closing tag, e.g. "[VALIDATION_END]".
func (s Section) EndMarker() string { return "[" + string(s) + "_END]" }

// Key returns the bundle field name the section is stored under.
func (s Section) Key() string {
	switch s {
	case SectionValidation:
		return "validation"
	case SectionInsights:
		return "insights"
	case SectionMilestones:
		return "milestones"
	case SectionActions:
		return "actions"
	case SectionSupport:
		return "support"
	case SectionGrowth:
		return "growth_overview"
	default:
		return ""
	}
}

// sectionGuidance is what the model is asked to cover inside each section.
var sectionGuidance = map[Section][]string{
	SectionValidation: {
		"Acknowledge the emotions and experiences shared",
		"Normalize feelings while maintaining hope",
		"Use active-constructive responding to acknowledge emotions",
		"Apply mindful acceptance while maintaining hope",
	},
	SectionInsights: {
		"Identify any thought patterns that might be limiting",
		"Offer balanced perspective and reframing opportunities",
	},
	SectionMilestones: {
		"Highlight how identified strengths can be leveraged",
		"Connect strengths to current challenges and goals",
	},
	SectionActions: {
		"Suggest 2-3 specific, achievable steps toward the stated goal according to the situation",
		"Include self-care strategies and boundary-setting practices",
		"Include gratitude practices and savoring exercises",
		"The steps should be realistic and manageable, not overwhelming.",
	},
	SectionSupport: {
		"Provide guidance on utilizing available support",
		"Suggest ways to expand support network if needed",
	},
	SectionGrowth: {
		"Recommend resources for further growth",
		"Share broaden-and-build exercises",
		"Recommend meaning-making activities",
		"Include benefit-finding techniques",
	},
}
