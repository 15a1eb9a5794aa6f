package flow

import "github.com/BTreeMap/HerSpace/internal/models"

// View is the set of UI directives for the current step. Front-ends render it as they
// see fit; it carries everything needed to draw the step and nothing that is secret.
type View struct {
	SessionID           string          `json:"session_id"`
	Step                int             `json:"step"`
	TotalSteps          int             `json:"total_steps"`
	Name                models.StepName `json:"name"`
	Title               string          `json:"title"`
	Intro               string          `json:"intro,omitempty"`
	Fields              []FieldView     `json:"fields,omitempty"`
	Lists               []ListView      `json:"lists,omitempty"`
	Notices             []string        `json:"notices,omitempty"`
	Errors              []string        `json:"errors,omitempty"`
	AgentAvailable      bool            `json:"agent_available"`
	AgentResponse       string          `json:"agent_response,omitempty"`
	CredentialValidated bool            `json:"credential_validated"`
	CanRetreat          bool            `json:"can_retreat"`
	CanAdvance          bool            `json:"can_advance"`
	AdvanceLabel        string          `json:"advance_label,omitempty"`
	CanStartOver        bool            `json:"can_start_over"`
	Summary             *SummaryView    `json:"summary,omitempty"`
	Response            []ResponseTab   `json:"response,omitempty"`
	ResponseError       string          `json:"response_error,omitempty"`
	Videos              []models.Video  `json:"videos,omitempty"`
}

// FieldView describes one scalar input.
type FieldView struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Kind        string   `json:"kind"` // text, textarea, select, slider, secret
	Value       string   `json:"value"`
	Options     []string `json:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Help        string   `json:"help,omitempty"`
}

// ListView describes one accumulator together with its predefined options.
type ListView struct {
	Name     ListName `json:"name"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"` // toggle or multiselect
	Options  []string `json:"options,omitempty"`
	Selected []string `json:"selected,omitempty"`
	Custom   []string `json:"custom,omitempty"`
}

// SummaryView recaps every answer before the final response is requested.
// Empty optional sections are omitted by the front-end.
type SummaryView struct {
	Category       string   `json:"category"`
	Situation      string   `json:"situation"`
	PrimaryEmotion string   `json:"primary_emotion"`
	Intensity      string   `json:"intensity"`
	Support        []string `json:"support,omitempty"`
	Strengths      []string `json:"strengths,omitempty"`
	Goal           string   `json:"goal,omitempty"`
	ExtraNotes     string   `json:"extra_notes,omitempty"`
}

// ResponseTab is one section of the final response with its display labels.
type ResponseTab struct {
	Key     string `json:"key"`
	Tab     string `json:"tab"`
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

func responseTabs(b models.ResponseBundle) []ResponseTab {
	return []ResponseTab{
		{Key: "validation", Tab: "🤗 Validation", Heading: "Understanding Your Experience", Body: b.Validation},
		{Key: "insights", Tab: "💡 Insights", Heading: "Key Insights & Reflections", Body: b.Insights},
		{Key: "milestones", Tab: "🎯 Milestones", Heading: "Your Strengths & Progress", Body: b.Milestones},
		{Key: "actions", Tab: "✨ Actions", Heading: "Practical Next Steps", Body: b.Actions},
		{Key: "support", Tab: "👥 Support", Heading: "Support Network & Resources", Body: b.Support},
		{Key: "growth_overview", Tab: "🌱 Growth", Heading: "Growth & Development", Body: b.GrowthOverview},
	}
}
