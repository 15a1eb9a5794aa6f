package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/BTreeMap/HerSpace/internal/models"
	"github.com/BTreeMap/HerSpace/internal/places"
	"github.com/BTreeMap/HerSpace/internal/resources"
)

const locationNotFoundMessage = "Location not found. Please try a different address."

// CrisisContent is the result of GET /resources/crisis.
type CrisisContent struct {
	Intro  string            `json:"intro"`
	Groups []resources.Group `json:"groups"`
	Note   string            `json:"note"`
}

// therapistsHandler handles GET /therapists?address=...|lat=...&lng=...&radius=...
func (s *Server) therapistsHandler(w http.ResponseWriter, r *http.Request) {
	if s.finder == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Therapist finder is not configured"))
		return
	}

	q := r.URL.Query()
	address := strings.TrimSpace(q.Get("address"))
	var at *models.Location
	if q.Get("lat") != "" || q.Get("lng") != "" {
		lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
		lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
		if latErr != nil || lngErr != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("lat and lng must both be numbers"))
			return
		}
		at = &models.Location{Lat: lat, Lng: lng}
	} else if address == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Please enter an address or coordinates"))
		return
	}

	radius := float64(places.DefaultRadiusMiles)
	if raw := q.Get("radius"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("radius must be a number of miles"))
			return
		}
		radius = places.ClampRadius(v)
	}

	ctx, cancel := s.externalContext(r)
	defer cancel()
	res, err := s.finder.Find(ctx, address, at, radius)
	if err != nil {
		if errors.Is(err, places.ErrNotFound) {
			slog.Debug("Server.therapistsHandler: location not found", "address", address)
		} else {
			slog.Error("Server.therapistsHandler: search failed", "error", err)
		}
		writeJSONResponse(w, http.StatusNotFound, models.Error(locationNotFoundMessage))
		return
	}
	if res.Places == nil {
		res.Places = []models.Place{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(res))
}

// crisisHandler handles GET /resources/crisis
func (s *Server) crisisHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(CrisisContent{
		Intro:  resources.CrisisIntro,
		Groups: resources.CrisisGroups,
		Note:   resources.CrisisNote,
	}))
}

// faqHandler handles GET /faq
func (s *Server) faqHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(resources.FAQ))
}

// healthHandler handles GET /healthz
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}
