package flow

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/HerSpace/internal/models"
)

// step binds a cursor position to its input handling and rendering.
// apply mutates a private copy of the session; render must not mutate anything.
type step struct {
	name        models.StepName
	title       string
	agentPrompt string
	apply       func(s *models.Session, a Action) error
	onAdvance   func(s *models.Session)
	render      func(s models.Session, v *View)
}

var steps = map[int]step{
	1: {
		name:        models.StepWelcome,
		title:       "✨ Welcome to Your AI-Powered Safe Space ✨",
		agentPrompt: "user described their situation and concern_category now, discuss the situation with the user",
		apply:       applyWelcome,
		render:      renderWelcome,
	},
	2: {
		name:        models.StepThoughts,
		title:       "💭 Understanding Your Thoughts",
		agentPrompt: "user has shared their thoughts now, discuss the thoughts with the user",
		apply:       applyThoughts,
		onAdvance:   combineThoughts,
		render:      renderThoughts,
	},
	3: {
		name:        models.StepEmotions,
		title:       "💗 Your Emotions",
		agentPrompt: "user has shared their emotions now, discuss the emotions with the user",
		apply:       applyEmotions,
		onAdvance:   defaultEmotion,
		render:      renderEmotions,
	},
	4: {
		name:        models.StepSupport,
		title:       "👥 Positive Thinking: Your Support Network",
		agentPrompt: "user has shared their support system now, it might be empty though, discuss the support system with the user",
		apply:       applySupport,
		onAdvance:   combineSupport,
		render:      renderSupport,
	},
	5: {
		name:        models.StepStrengths,
		title:       "✨ Positive Thinking: Your Strengths",
		agentPrompt: "user has shared their strengths now, discuss the strengths with the user",
		apply:       applyStrengths,
		onAdvance:   combineStrengths,
		render:      renderStrengths,
	},
	6: {
		name:        models.StepGoals,
		title:       "🎯 Positive Thinking: Looking Forward",
		agentPrompt: "user shared small steps to take towards feeling better, discuss the goal with the user",
		apply:       textStep(FieldGoal, func(s *models.Session) *string { return &s.Form.Goal }),
		render:      renderGoals,
	},
	7: {
		name:        models.StepFinalNotes,
		title:       "💝 Final Thoughts",
		agentPrompt: "user shared some extra notes now, discuss the extra notes with the user",
		apply:       textStep(FieldExtraNotes, func(s *models.Session) *string { return &s.Form.ExtraNotes }),
		onAdvance:   markSubmitted,
		render:      renderFinalNotes,
	},
	8: {
		name:      models.StepSummary,
		title:     "💝 Summary",
		apply:     noInput,
		onAdvance: markSubmitted,
		render:    renderSummary,
	},
	9: {
		name:   models.StepFinalResponse,
		title:  "💫 Your Personalized Support",
		apply:  noInput,
		render: renderResponse,
	},
}

func stepAt(n int) (step, bool) {
	st, ok := steps[n]
	return st, ok
}

// ApplyAction applies a non-navigation action to the current step and returns the
// updated session. On error the input session is returned unchanged.
func ApplyAction(s models.Session, a Action) (models.Session, error) {
	st, ok := stepAt(s.Step)
	if !ok {
		return s, fmt.Errorf("%w: %d", models.ErrInvalidStep, s.Step)
	}
	next := s.Clone()
	if err := st.apply(&next, a); err != nil {
		return s, err
	}
	return next, nil
}

// Render produces the view for the session's current step.
func Render(s models.Session) View {
	s = normalizeStep(s)
	st, _ := stepAt(s.Step)
	v := View{
		SessionID:           s.ID,
		Step:                s.Step,
		TotalSteps:          models.LastStep,
		Name:                st.name,
		Title:               st.title,
		CredentialValidated: s.HasCredential(),
		AgentAvailable:      st.name.AcceptsAgentSupport(),
		CanRetreat:          s.Step > models.FirstStep && s.Step < models.LastStep,
		CanAdvance:          s.Step < models.LastStep,
		AdvanceLabel:        "Next",
	}
	if v.AgentAvailable {
		v.AgentResponse, _ = s.AgentResponse(string(st.name))
	}
	st.render(s, &v)
	return v
}

func fieldNotOnStep(s *models.Session, field string) error {
	return fmt.Errorf("%w: %q on step %d", models.ErrUnknownField, field, s.Step)
}

func unsupported(s *models.Session, a Action) error {
	return fmt.Errorf("%w: %q on step %d", models.ErrUnknownAction, a.Kind, s.Step)
}

func noInput(s *models.Session, a Action) error {
	return unsupported(s, a)
}

func textStep(field string, target func(*models.Session) *string) func(*models.Session, Action) error {
	return func(s *models.Session, a Action) error {
		if a.Kind != ActionSet {
			return unsupported(s, a)
		}
		if a.Field != field {
			return fieldNotOnStep(s, a.Field)
		}
		*target(s) = a.Value
		return nil
	}
}

func markSubmitted(s *models.Session) {
	s.Form.Submitted = true
}

// Step 1: welcome, credential, category and situation.

const welcomeIntro = "Here, we understand. This platform is all about supporting women with smart, AI-powered solutions. " +
	"It's a safe space to talk about the real challenges and questions in life. Whatever you're going through, we're here to help. You're not alone in this."

func categoryIsOther(s models.Session) bool {
	c := s.Form.Category
	return c != "" && (c == models.CategoryOther || !models.IsOption(models.CategoryOptions, c))
}

func applyWelcome(s *models.Session, a Action) error {
	if a.Kind != ActionSet {
		return unsupported(s, a)
	}
	switch a.Field {
	case FieldCategory:
		if !models.IsOption(models.CategoryOptions, a.Value) {
			return fmt.Errorf("%w: category %q", models.ErrInvalidOption, a.Value)
		}
		switch a.Value {
		case models.CategoryPlaceholder:
			s.Form.Category = ""
		case models.CategoryOther:
			s.Form.Category = models.CategoryOther
			if c := strings.TrimSpace(s.CustomCategory); c != "" {
				s.Form.Category = c
			}
		default:
			s.Form.Category = a.Value
		}
	case FieldCustomCategory:
		s.CustomCategory = a.Value
		if categoryIsOther(*s) {
			s.Form.Category = models.CategoryOther
			if c := strings.TrimSpace(a.Value); c != "" {
				s.Form.Category = c
			}
		}
	case FieldSituation:
		s.Form.Situation = a.Value
	default:
		return fieldNotOnStep(s, a.Field)
	}
	return nil
}

func renderWelcome(s models.Session, v *View) {
	v.Intro = welcomeIntro
	v.CanRetreat = false

	selected := models.CategoryPlaceholder
	switch {
	case categoryIsOther(s):
		selected = models.CategoryOther
	case s.Form.Category != "":
		selected = s.Form.Category
	}
	v.Fields = append(v.Fields, FieldView{
		Name:    FieldCategory,
		Label:   "Which topic would you like to focus on?",
		Kind:    "select",
		Value:   selected,
		Options: models.CategoryOptions,
	})
	if selected == models.CategoryPlaceholder {
		// Situation and navigation appear once a topic is chosen.
		v.CanAdvance = false
		v.AgentAvailable = false
		v.AgentResponse = ""
		return
	}
	if selected == models.CategoryOther {
		v.Fields = append(v.Fields, FieldView{
			Name:  FieldCustomCategory,
			Label: "Please specify your category:",
			Kind:  "text",
			Value: s.CustomCategory,
		})
	}
	v.Fields = append(v.Fields, FieldView{
		Name:        FieldSituation,
		Label:       "Could you tell me more about what's happening?",
		Kind:        "textarea",
		Value:       s.Form.Situation,
		Placeholder: "For example: 'I'm feeling overwhelmed with...'",
		Help:        "Share as much as you feel comfortable with. You can also explore the \"Crisis Support Resources\" and \"Therapy Location Finder\" pages if you need help.",
	})
	if !s.HasCredential() {
		v.Notices = append(v.Notices, models.ErrCredentialRequired.Error())
	}
}

// Step 2: thoughts.

func combineThoughts(s *models.Session) {
	s.Form.Thoughts = Combine(s.SelectedThoughts, s.CustomThoughts)
}

func applyThoughts(s *models.Session, a Action) error {
	if a.List != "" && a.List != ListThoughts {
		return fmt.Errorf("%w: %q on step %d", models.ErrUnknownList, a.List, s.Step)
	}
	switch a.Kind {
	case ActionToggle:
		if !models.IsOption(models.PredefinedThoughts, a.Value) {
			return fmt.Errorf("%w: thought %q", models.ErrInvalidOption, a.Value)
		}
		s.SelectedThoughts = Toggle(s.SelectedThoughts, a.Value)
	case ActionAdd:
		s.CustomThoughts = AddItem(s.CustomThoughts, a.Value)
	case ActionDelete:
		idx, err := a.deleteIndex()
		if err != nil {
			return err
		}
		list, err := DeleteItem(s.CustomThoughts, idx)
		if err != nil {
			return err
		}
		s.CustomThoughts = list
	default:
		return unsupported(s, a)
	}
	combineThoughts(s)
	return nil
}

func renderThoughts(s models.Session, v *View) {
	v.Lists = append(v.Lists, ListView{
		Name:     ListThoughts,
		Label:    "Select thoughts that resonate with you, or share your own:",
		Kind:     "toggle",
		Options:  models.PredefinedThoughts,
		Selected: s.SelectedThoughts,
		Custom:   s.CustomThoughts,
	})
}

// Step 3: emotions.

const customEmotionHint = "💡 You can add emojis to express your emotion better. For example: 😌 Peaceful, 🤗 Grateful, 😤 Frustrated"

func defaultEmotion(s *models.Session) {
	if s.Form.PrimaryEmotion == "" {
		s.Form.PrimaryEmotion = models.EmotionOptions[0]
	}
	if s.Form.EmotionIntensity == "" {
		s.Form.EmotionIntensity = models.DefaultIntensity
	}
}

func applyEmotions(s *models.Session, a Action) error {
	if a.Kind != ActionSet {
		return unsupported(s, a)
	}
	switch a.Field {
	case FieldPrimaryEmotion:
		if !models.IsOption(models.EmotionOptions, a.Value) {
			return fmt.Errorf("%w: emotion %q", models.ErrInvalidOption, a.Value)
		}
		s.ShowCustomEmotion = a.Value == models.EmotionOther
		s.Form.PrimaryEmotion = a.Value
		if s.ShowCustomEmotion && strings.TrimSpace(s.CustomEmotion) != "" {
			s.Form.PrimaryEmotion = strings.TrimSpace(s.CustomEmotion)
		}
	case FieldCustomEmotion:
		s.CustomEmotion = a.Value
		if s.ShowCustomEmotion {
			s.Form.PrimaryEmotion = models.EmotionOther
			if c := strings.TrimSpace(a.Value); c != "" {
				s.Form.PrimaryEmotion = c
			}
		}
	case FieldEmotionIntensity:
		lvl, ok := models.ParseIntensity(a.Value)
		if !ok {
			return fmt.Errorf("%w: %q", models.ErrInvalidIntensity, a.Value)
		}
		s.Form.EmotionIntensity = lvl
	default:
		return fieldNotOnStep(s, a.Field)
	}
	return nil
}

func renderEmotions(s models.Session, v *View) {
	selected := s.Form.PrimaryEmotion
	if s.ShowCustomEmotion {
		selected = models.EmotionOther
	} else if !models.IsOption(models.EmotionOptions, selected) {
		selected = models.EmotionOptions[0]
	}
	v.Fields = append(v.Fields, FieldView{
		Name:    FieldPrimaryEmotion,
		Label:   "Primary emotion:",
		Kind:    "select",
		Value:   selected,
		Options: models.EmotionOptions,
	})
	if s.ShowCustomEmotion {
		v.Notices = append(v.Notices, customEmotionHint)
		v.Fields = append(v.Fields, FieldView{
			Name:        FieldCustomEmotion,
			Kind:        "text",
			Value:       s.CustomEmotion,
			Placeholder: "Example: 😌 Peaceful",
		})
	}
	intensity := s.Form.EmotionIntensity
	if intensity == "" {
		intensity = models.DefaultIntensity
	}
	levels := make([]string, len(models.IntensityLevels))
	for i, lvl := range models.IntensityLevels {
		levels[i] = string(lvl)
	}
	v.Fields = append(v.Fields, FieldView{
		Name:    FieldEmotionIntensity,
		Label:   "How intense is this feeling?",
		Kind:    "slider",
		Value:   string(intensity),
		Options: levels,
	})
}

// Steps 4 and 5: multi-select plus custom entries, stored as comma-joined strings.

const noSupportNotice = "💫 Remember, you're not alone in this journey. Our platform provides a safe space for you to express yourself and find guidance. " +
	"You can also explore the \"Crisis Support Resources\" and \"Therapy Location Finder\" pages if you need help."

func combineSupport(s *models.Session) {
	s.Form.SupportSystem = JoinList(Combine(s.SelectedSupport, s.CustomSupport))
}

func combineStrengths(s *models.Session) {
	s.Form.Strengths = JoinList(Combine(s.SelectedStrengths, s.CustomStrengths))
}

type multiSelect struct {
	list     ListName
	options  []string
	selected func(*models.Session) *[]string
	custom   func(*models.Session) *[]string
	combine  func(*models.Session)
}

func (m multiSelect) apply(s *models.Session, a Action) error {
	if a.List != "" && a.List != m.list {
		return fmt.Errorf("%w: %q on step %d", models.ErrUnknownList, a.List, s.Step)
	}
	switch a.Kind {
	case ActionSelect:
		var sel []string
		for _, v := range a.Values {
			if !models.IsOption(m.options, v) {
				return fmt.Errorf("%w: %q", models.ErrInvalidOption, v)
			}
			sel = AddItem(sel, v)
		}
		*m.selected(s) = sel
	case ActionToggle:
		if !models.IsOption(m.options, a.Value) {
			return fmt.Errorf("%w: %q", models.ErrInvalidOption, a.Value)
		}
		*m.selected(s) = Toggle(*m.selected(s), a.Value)
	case ActionAdd:
		*m.custom(s) = AddItem(*m.custom(s), a.Value)
	case ActionDelete:
		idx, err := a.deleteIndex()
		if err != nil {
			return err
		}
		list, err := DeleteItem(*m.custom(s), idx)
		if err != nil {
			return err
		}
		*m.custom(s) = list
	default:
		return unsupported(s, a)
	}
	m.combine(s)
	return nil
}

var supportSelect = multiSelect{
	list:     ListSupport,
	options:  models.SupportOptions,
	selected: func(s *models.Session) *[]string { return &s.SelectedSupport },
	custom:   func(s *models.Session) *[]string { return &s.CustomSupport },
	combine:  combineSupport,
}

var strengthsSelect = multiSelect{
	list:     ListStrengths,
	options:  models.StrengthOptions,
	selected: func(s *models.Session) *[]string { return &s.SelectedStrengths },
	custom:   func(s *models.Session) *[]string { return &s.CustomStrengths },
	combine:  combineStrengths,
}

func applySupport(s *models.Session, a Action) error   { return supportSelect.apply(s, a) }
func applyStrengths(s *models.Session, a Action) error { return strengthsSelect.apply(s, a) }

func renderSupport(s models.Session, v *View) {
	v.Lists = append(v.Lists, ListView{
		Name:     ListSupport,
		Label:    "Who can you reach out to for support?",
		Kind:     "multiselect",
		Options:  models.SupportOptions,
		Selected: s.SelectedSupport,
		Custom:   s.CustomSupport,
	})
	if contains(s.SelectedSupport, models.SupportNone) {
		v.Notices = append(v.Notices, noSupportNotice)
	}
}

func renderStrengths(s models.Session, v *View) {
	v.Lists = append(v.Lists, ListView{
		Name:     ListStrengths,
		Label:    "What personal strengths can help you in this situation?",
		Kind:     "multiselect",
		Options:  models.StrengthOptions,
		Selected: s.SelectedStrengths,
		Custom:   s.CustomStrengths,
	})
}

// Steps 6 and 7: free text.

func renderGoals(s models.Session, v *View) {
	v.Fields = append(v.Fields, FieldView{
		Name:        FieldGoal,
		Label:       "What small steps would you like to take towards feeling better?",
		Kind:        "textarea",
		Value:       s.Form.Goal,
		Placeholder: "Example: I want to practice self-care for 10 minutes daily",
		Help:        "Start with small, achievable goals",
	})
}

func renderFinalNotes(s models.Session, v *View) {
	v.Fields = append(v.Fields, FieldView{
		Name:        FieldExtraNotes,
		Label:       "Anything else you'd like to share?",
		Kind:        "textarea",
		Value:       s.Form.ExtraNotes,
		Placeholder: "Optional: Share any other thoughts or feelings...",
		Help:        "This is your space to express anything additional",
	})
}

// Step 8: summary.

func renderSummary(s models.Session, v *View) {
	v.AdvanceLabel = "✨ Get Personalized Support"
	v.Summary = &SummaryView{
		Category:       s.Form.Category,
		Situation:      s.Form.Situation,
		PrimaryEmotion: s.Form.PrimaryEmotion,
		Intensity:      strings.TrimSpace(string(s.Form.EmotionIntensity)),
		Support:        SplitList(s.Form.SupportSystem),
		Strengths:      SplitList(s.Form.Strengths),
		Goal:           s.Form.Goal,
		ExtraNotes:     s.Form.ExtraNotes,
	}
}

// Step 9: final response.

const generatingIntro = "You've Taken an Important Step. Thank you for sharing your journey with us. " +
	"By reflecting on your experiences and seeking support, you've shown great courage and self-awareness. " +
	"Remember, every step forward, no matter how small, is progress. You have the strength within you to create positive change."

func renderResponse(s models.Session, v *View) {
	v.CanAdvance = false
	v.CanRetreat = false
	v.CanStartOver = true
	v.AdvanceLabel = ""
	if s.AIResponse == nil {
		v.Intro = generatingIntro
		v.ResponseError = s.AIError
		return
	}
	v.Response = responseTabs(*s.AIResponse)
	v.Videos = s.Videos
}
