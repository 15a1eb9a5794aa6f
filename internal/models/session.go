package models

import "time"

// Step cursor bounds.
const (
	FirstStep = 1
	LastStep  = 9
)

// StepResponse is the supportive message generated for one step.
type StepResponse struct {
	Step     string `json:"step"`
	Response string `json:"response"`
}

// ResponseBundle is the six-section reply shown on the final step.
type ResponseBundle struct {
	Validation     string `json:"validation"`
	Insights       string `json:"insights"`
	Milestones     string `json:"milestones"`
	Actions        string `json:"actions"`
	Support        string `json:"support"`
	GrowthOverview string `json:"growth_overview"`
}

// Empty reports whether no section was extracted.
func (b ResponseBundle) Empty() bool {
	return b == ResponseBundle{}
}

// Video is one search result shown next to the final response.
type Video struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	VideoID      string `json:"video_id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Place is a nearby therapy location.
type Place struct {
	Name     string   `json:"name"`
	Vicinity string   `json:"vicinity"`
	Rating   float32  `json:"rating"`
	OpenNow  *bool    `json:"open_now,omitempty"`
	Location Location `json:"location"`
}

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Session is the complete state owned by one user of the wizard.
// Nothing in a Session is shared with any other session.
type Session struct {
	ID   string    `json:"id"`
	Step int       `json:"step"`
	Form FormState `json:"form"`

	CustomCategory    string   `json:"custom_category,omitempty"`
	SelectedThoughts  []string `json:"selected_thoughts,omitempty"`
	CustomThoughts    []string `json:"custom_thoughts,omitempty"`
	ShowCustomEmotion bool     `json:"show_custom_emotion,omitempty"`
	CustomEmotion     string   `json:"custom_emotion,omitempty"`
	SelectedSupport   []string `json:"selected_support,omitempty"`
	CustomSupport     []string `json:"custom_support,omitempty"`
	SelectedStrengths []string `json:"selected_strengths,omitempty"`
	CustomStrengths   []string `json:"custom_strengths,omitempty"`

	// Credential is the completion-service key in effect for this session. It is never
	// serialized, so no store backend ever receives it.
	Credential          string `json:"-"`
	CredentialValidated bool   `json:"-"`

	StepResponses []StepResponse  `json:"step_responses,omitempty"`
	AIResponse    *ResponseBundle `json:"ai_response,omitempty"`
	AIError       string          `json:"ai_error,omitempty"`
	Videos        []Video         `json:"videos,omitempty"`
	VideosFetched bool            `json:"videos_fetched,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewSession returns a session positioned on the first step.
func NewSession(id string, now time.Time) Session {
	return Session{
		ID:        id,
		Step:      FirstStep,
		Form:      FormState{EmotionIntensity: DefaultIntensity},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasCredential reports whether a validated credential is available.
func (s Session) HasCredential() bool {
	return s.CredentialValidated && s.Credential != ""
}

// AgentResponse returns the cached supportive message for step.
func (s Session) AgentResponse(step string) (string, bool) {
	for _, r := range s.StepResponses {
		if r.Step == step {
			return r.Response, true
		}
	}
	return "", false
}

// SetAgentResponse stores the message for step, keeping the position of earlier entries.
func (s *Session) SetAgentResponse(step, response string) {
	for i := range s.StepResponses {
		if s.StepResponses[i].Step == step {
			s.StepResponses[i].Response = response
			return
		}
	}
	s.StepResponses = append(s.StepResponses, StepResponse{Step: step, Response: response})
}

// Clone returns a deep copy so callers can treat sessions as values.
func (s Session) Clone() Session {
	out := s
	out.Form = s.Form.Clone()
	out.SelectedThoughts = cloneStrings(s.SelectedThoughts)
	out.CustomThoughts = cloneStrings(s.CustomThoughts)
	out.SelectedSupport = cloneStrings(s.SelectedSupport)
	out.CustomSupport = cloneStrings(s.CustomSupport)
	out.SelectedStrengths = cloneStrings(s.SelectedStrengths)
	out.CustomStrengths = cloneStrings(s.CustomStrengths)
	if s.StepResponses != nil {
		out.StepResponses = make([]StepResponse, len(s.StepResponses))
		copy(out.StepResponses, s.StepResponses)
	}
	if s.AIResponse != nil {
		b := *s.AIResponse
		out.AIResponse = &b
	}
	if s.Videos != nil {
		out.Videos = make([]Video, len(s.Videos))
		copy(out.Videos, s.Videos)
	}
	return out
}
