package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/HerSpace/internal/genai"
	"github.com/BTreeMap/HerSpace/internal/models"
	"github.com/BTreeMap/HerSpace/internal/prompt"
)

// Completer produces model text using the credential of the calling session.
type Completer interface {
	Complete(ctx context.Context, credential, prompt string) (string, error)
	ValidateCredential(ctx context.Context, credential string) error
}

// VideoSearcher finds videos for a query. Failures yield an empty slice.
type VideoSearcher interface {
	Search(ctx context.Context, query string, max int64) []models.Video
}

// DefaultVideoLimit caps the videos shown next to the final response.
const DefaultVideoLimit = 5

// VideoQuery is the search query used for a topic.
func VideoQuery(category string) string {
	return fmt.Sprintf("deal with %s problems", category)
}

// WizardOpts holds configuration options for the Wizard.
type WizardOpts struct {
	CredentialSentinel string
	DefaultCredential  string
	VideoLimit         int64
	Clock              func() time.Time
}

// WizardOption defines a function that modifies WizardOpts.
type WizardOption func(*WizardOpts)

// WithCredentialSentinel makes the literal sentinel stand for the server-held credential.
// The substitution is disabled unless both values are non-empty.
func WithCredentialSentinel(sentinel, credential string) WizardOption {
	return func(o *WizardOpts) {
		o.CredentialSentinel = sentinel
		o.DefaultCredential = credential
	}
}

// WithVideoLimit sets the number of videos requested.
func WithVideoLimit(n int64) WizardOption {
	return func(o *WizardOpts) { o.VideoLimit = n }
}

// WithClock overrides the time source used for session timestamps.
func WithClock(now func() time.Time) WizardOption {
	return func(o *WizardOpts) { o.Clock = now }
}

// Wizard drives sessions through the steps and performs the external calls they need.
// It holds no per-session state and is safe for concurrent use.
type Wizard struct {
	completer  Completer
	videos     VideoSearcher
	sentinel   string
	defaultKey string
	videoLimit int64
	now        func() time.Time
}

// NewWizard creates a Wizard. videos may be nil, in which case no videos are shown.
func NewWizard(completer Completer, videos VideoSearcher, opts ...WizardOption) *Wizard {
	o := WizardOpts{VideoLimit: DefaultVideoLimit, Clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.VideoLimit <= 0 {
		o.VideoLimit = DefaultVideoLimit
	}
	w := &Wizard{
		completer:  completer,
		videos:     videos,
		videoLimit: o.VideoLimit,
		now:        o.Clock,
	}
	if o.CredentialSentinel != "" && o.DefaultCredential != "" {
		w.sentinel = o.CredentialSentinel
		w.defaultKey = o.DefaultCredential
	}
	slog.Debug("Wizard created", "sentinelEnabled", w.sentinel != "", "videosEnabled", videos != nil, "videoLimit", w.videoLimit)
	return w
}

// NewSession starts a session on the first step.
func (w *Wizard) NewSession(id string) models.Session {
	return models.NewSession(id, w.now())
}

// SetCredential validates credential with one live call and stores it in the session.
// The configured sentinel is replaced by the server-held credential without a call.
// On failure the session is left without a usable credential.
func (w *Wizard) SetCredential(ctx context.Context, s models.Session, credential string) (models.Session, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return s, models.ErrEmptyCredential
	}

	next := s.Clone()
	next.UpdatedAt = w.now()
	if w.sentinel != "" && credential == w.sentinel {
		next.Credential = w.defaultKey
		next.CredentialValidated = true
		slog.Info("Wizard.SetCredential: sentinel substituted", "sessionID", s.ID)
		return next, nil
	}

	if err := w.completer.ValidateCredential(ctx, credential); err != nil {
		next.Credential = ""
		next.CredentialValidated = false
		slog.Warn("Wizard.SetCredential: validation failed", "sessionID", s.ID, "error", err)
		return next, fmt.Errorf("%w: %w", models.ErrCredentialInvalid, err)
	}
	next.Credential = credential
	next.CredentialValidated = true
	slog.Info("Wizard.SetCredential: credential validated", "sessionID", s.ID)
	return next, nil
}

// Apply performs one user action and returns the updated session. Errors leave the
// returned session equal to s.
func (w *Wizard) Apply(s models.Session, a Action) (models.Session, error) {
	s = normalizeStep(s)
	var (
		next models.Session
		err  error
	)
	if a.IsNavigation() {
		next, err = w.navigate(s, a.Kind)
	} else {
		next, err = ApplyAction(s, a)
	}
	if err != nil {
		slog.Debug("Wizard.Apply: action refused", "sessionID", s.ID, "step", s.Step, "kind", a.Kind, "error", err)
		return s, err
	}
	next.UpdatedAt = w.now()
	slog.Debug("Wizard.Apply: action applied", "sessionID", s.ID, "kind", a.Kind, "fromStep", s.Step, "toStep", next.Step)
	return next, nil
}

func (w *Wizard) navigate(s models.Session, kind ActionKind) (models.Session, error) {
	switch kind {
	case ActionAdvance:
		return Advance(s)
	case ActionRetreat:
		return Retreat(s), nil
	default:
		return Reset(s, w.now()), nil
	}
}

// View renders the current step. On the last step it first obtains the final response
// and the related videos when they are still missing.
func (w *Wizard) View(ctx context.Context, s models.Session) (models.Session, View) {
	s = normalizeStep(s)
	if s.Step == models.LastStep {
		s = w.ensureResponse(ctx, s)
		s = w.ensureVideos(ctx, s)
	}
	return s, Render(s)
}

// AgentSupport generates and caches a supportive message for the current step.
// Completion failures never surface as errors; they degrade to a canned reply.
func (w *Wizard) AgentSupport(ctx context.Context, s models.Session) (models.Session, string, error) {
	s = normalizeStep(s)
	st, _ := stepAt(s.Step)
	if !st.name.AcceptsAgentSupport() {
		return s, "", fmt.Errorf("%w: no agent support on step %d", models.ErrInvalidStep, s.Step)
	}
	if !s.HasCredential() {
		return s, "", models.ErrCredentialRequired
	}

	p := prompt.BuildAgentPrompt(prompt.InputFromSession(s, prompt.AgentPreviousHeader), st.agentPrompt)
	text, err := w.completer.Complete(ctx, s.Credential, p)
	if err != nil {
		slog.Warn("Wizard.AgentSupport: completion failed, using fallback", "sessionID", s.ID, "step", st.name, "error", err)
	}
	reply := genai.SupportiveReply(text, err)

	next := s.Clone()
	next.SetAgentResponse(string(st.name), reply)
	next.UpdatedAt = w.now()
	return next, reply, nil
}

// Videos returns the session's video list, searching once if it has not been fetched.
func (w *Wizard) Videos(ctx context.Context, s models.Session) (models.Session, []models.Video) {
	s = w.ensureVideos(ctx, s)
	return s, s.Videos
}

func (w *Wizard) ensureResponse(ctx context.Context, s models.Session) models.Session {
	if s.AIResponse != nil {
		return s
	}
	if !s.HasCredential() {
		next := s.Clone()
		next.AIError = models.ErrCredentialRequired.Error()
		return next
	}

	p := prompt.BuildEmpowermentPrompt(prompt.InputFromSession(s, prompt.FinalPreviousHeader))
	raw, err := w.completer.Complete(ctx, s.Credential, p)

	next := s.Clone()
	next.UpdatedAt = w.now()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Debug("Wizard.ensureResponse: request cancelled", "sessionID", s.ID)
		} else {
			slog.Error("Wizard.ensureResponse: completion failed", "sessionID", s.ID, "error", err)
		}
		next.AIError = genai.UserMessage(err)
		return next
	}

	bundle := prompt.ExtractSections(raw)
	if bundle.Empty() {
		slog.Warn("Wizard.ensureResponse: reply contained no sections", "sessionID", s.ID, "chars", len(raw))
	}
	next.AIResponse = &bundle
	next.AIError = ""
	slog.Info("Wizard.ensureResponse: final response stored", "sessionID", s.ID)
	return next
}

func (w *Wizard) ensureVideos(ctx context.Context, s models.Session) models.Session {
	if s.VideosFetched || w.videos == nil || s.AIResponse == nil || s.Form.Category == "" {
		return s
	}
	found := w.videos.Search(ctx, VideoQuery(s.Form.Category), w.videoLimit)
	next := s.Clone()
	next.Videos = found
	next.VideosFetched = true
	slog.Debug("Wizard.ensureVideos: videos fetched", "sessionID", s.ID, "count", len(found))
	return next
}
