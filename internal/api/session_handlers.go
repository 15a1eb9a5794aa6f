package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/HerSpace/internal/flow"
	"github.com/BTreeMap/HerSpace/internal/models"
)

// CredentialRequest is the body of POST /sessions/{id}/credential.
type CredentialRequest struct {
	Credential string `json:"credential"`
}

// AgentReply is the result of POST /sessions/{id}/agent.
type AgentReply struct {
	Step     models.StepName `json:"step"`
	Response string          `json:"response"`
}

// loadSession locks the session named in the path and loads it. On failure the error
// response has been written and ok is false; otherwise unlock must be called.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (sess models.Session, unlock func(), ok bool) {
	id := r.PathValue("id")
	unlock = s.locks.lock(id)
	sess, err := s.st.GetSession(r.Context(), id)
	if err != nil {
		unlock()
		if errors.Is(err, models.ErrSessionNotFound) {
			s.credentials.forget(id)
			slog.Debug("Server.loadSession: session not found", "sessionID", id)
			writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
			return models.Session{}, nil, false
		}
		slog.Error("Server.loadSession: store read failed", "sessionID", id, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return models.Session{}, nil, false
	}
	return s.credentials.restore(sess), unlock, true
}

// saveSession persists sess without its credential, writing a 500 response when that fails.
func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, sess models.Session) bool {
	if err := s.st.SaveSession(r.Context(), s.credentials.record(sess)); err != nil {
		slog.Error("Server.saveSession: store write failed", "sessionID", sess.ID, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save session"))
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// createSessionHandler handles POST /sessions
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := s.wizard.NewSession(s.newID())
	if !s.saveSession(w, r, sess) {
		return
	}
	slog.Info("Server.createSessionHandler: session created", "sessionID", sess.ID)
	writeJSONResponse(w, http.StatusCreated, models.Success(flow.Render(sess)))
}

// getSessionHandler handles GET /sessions/{id}
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, unlock, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	defer unlock()

	ctx, cancel := s.externalContext(r)
	defer cancel()
	next, view := s.wizard.View(ctx, sess)
	if !s.saveSession(w, r, next) {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(view))
}

// deleteSessionHandler handles DELETE /sessions/{id}
func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.st.DeleteSession(r.Context(), id); err != nil {
		slog.Error("Server.deleteSessionHandler: delete failed", "sessionID", id, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete session"))
		return
	}
	s.credentials.forget(id)
	slog.Info("Server.deleteSessionHandler: session deleted", "sessionID", id)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session deleted", nil))
}

// credentialHandler handles POST /sessions/{id}/credential
func (s *Server) credentialHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Warn("Server.credentialHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	sess, unlock, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	defer unlock()

	ctx, cancel := s.externalContext(r)
	defer cancel()
	next, err := s.wizard.SetCredential(ctx, sess, req.Credential)
	if !s.saveSession(w, r, next) {
		return
	}
	view := flow.Render(next)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, models.ErrCredentialInvalid) {
			msg = "Invalid API key. Please check your key and try again."
		}
		writeJSONResponse(w, statusForError(err), models.ErrorWithResult(msg, view))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("API key validated successfully", view))
}

// actionHandler handles POST /sessions/{id}/actions
func (s *Server) actionHandler(w http.ResponseWriter, r *http.Request) {
	var a flow.Action
	if err := decodeJSON(w, r, &a); err != nil {
		slog.Warn("Server.actionHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	sess, unlock, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	defer unlock()

	next, err := s.wizard.Apply(sess, a)
	if err != nil {
		slog.Debug("Server.actionHandler: action refused", "sessionID", sess.ID, "kind", a.Kind, "error", err)
		writeJSONResponse(w, statusForError(err), models.ErrorWithResult(err.Error(), flow.Render(sess)))
		return
	}

	ctx, cancel := s.externalContext(r)
	defer cancel()
	next, view := s.wizard.View(ctx, next)
	if !s.saveSession(w, r, next) {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(view))
}

// agentHandler handles POST /sessions/{id}/agent
func (s *Server) agentHandler(w http.ResponseWriter, r *http.Request) {
	sess, unlock, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	defer unlock()

	ctx, cancel := s.externalContext(r)
	defer cancel()
	next, reply, err := s.wizard.AgentSupport(ctx, sess)
	if err != nil {
		writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
		return
	}
	if !s.saveSession(w, r, next) {
		return
	}
	name, _ := models.StepNameAt(next.Step)
	writeJSONResponse(w, http.StatusOK, models.Success(AgentReply{Step: name, Response: reply}))
}

// videosHandler handles GET /sessions/{id}/videos
func (s *Server) videosHandler(w http.ResponseWriter, r *http.Request) {
	sess, unlock, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	defer unlock()

	ctx, cancel := s.externalContext(r)
	defer cancel()
	next, found := s.wizard.Videos(ctx, sess)
	if !s.saveSession(w, r, next) {
		return
	}
	if found == nil {
		found = []models.Video{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(found))
}
