package flow

import (
	"log/slog"
	"time"

	"github.com/BTreeMap/HerSpace/internal/models"
)

// Advance moves the cursor forward by one step. It is refused, leaving the session
// untouched, until a validated credential is present. Advancing from the last step is a
// no-op.
func Advance(s models.Session) (models.Session, error) {
	if !s.HasCredential() {
		slog.Debug("Advance refused: no validated credential", "sessionID", s.ID, "step", s.Step)
		return s, models.ErrCredentialRequired
	}
	if s.Step >= models.LastStep {
		return s, nil
	}
	s = s.Clone()
	if st, ok := stepAt(s.Step); ok && st.onAdvance != nil {
		st.onAdvance(&s)
	}
	s.Step++
	slog.Debug("Advance", "sessionID", s.ID, "step", s.Step)
	return s, nil
}

// Retreat moves the cursor back by one step; retreating from the first step is a no-op.
func Retreat(s models.Session) models.Session {
	if s.Step <= models.FirstStep {
		return s
	}
	s = s.Clone()
	s.Step--
	slog.Debug("Retreat", "sessionID", s.ID, "step", s.Step)
	return s
}

// Reset returns the session to step 1 with every answer, cache and the credential cleared.
// Only the session identity survives.
func Reset(s models.Session, now time.Time) models.Session {
	fresh := models.NewSession(s.ID, now)
	fresh.CreatedAt = s.CreatedAt
	slog.Debug("Reset", "sessionID", s.ID, "fromStep", s.Step)
	return fresh
}

// normalizeStep repairs a cursor that is outside [FirstStep, LastStep].
func normalizeStep(s models.Session) models.Session {
	switch {
	case s.Step < models.FirstStep:
		s.Step = models.FirstStep
	case s.Step > models.LastStep:
		s.Step = models.LastStep
	}
	return s
}
