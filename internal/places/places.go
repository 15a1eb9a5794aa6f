// Package places finds therapy locations near an address or coordinate pair.
package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/BTreeMap/HerSpace/internal/models"
)

// ErrNotFound is returned when an address cannot be geocoded.
var ErrNotFound = errors.New("location not found")

// ErrNoAPIKey is returned by NewClient when no key is configured.
var ErrNoAPIKey = errors.New("maps API key not set")

// Search parameters for nearby therapy locations.
const (
	PlaceType          = "health"
	Keyword            = "therapist OR counseling OR mental health"
	MetersPerMile      = 1609.34
	MinRadiusMiles     = 1
	MaxRadiusMiles     = 20
	DefaultRadiusMiles = 5
	MaxResults         = 5
)

// mapsService is the subset of the Maps client used here.
type mapsService interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	NearbySearch(ctx context.Context, r *maps.NearbySearchRequest) (maps.PlacesSearchResponse, error)
}

// Client wraps the Maps Geocoding and Places APIs.
type Client struct {
	maps mapsService
}

// NewClient creates a client authenticated with apiKey. Extra options are passed to the
// Maps client (tests use maps.WithBaseURL).
func NewClient(apiKey string, opts ...maps.ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	mc, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Client{maps: mc}, nil
}

// ClampRadius bounds a radius in miles to the supported range; zero selects the default.
func ClampRadius(miles float64) float64 {
	switch {
	case miles == 0 || math.IsNaN(miles):
		return DefaultRadiusMiles
	case miles < MinRadiusMiles:
		return MinRadiusMiles
	case miles > MaxRadiusMiles:
		return MaxRadiusMiles
	default:
		return miles
	}
}

// Geocode resolves a free-text address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (models.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return models.Location{}, ErrNotFound
	}
	results, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		slog.Warn("Places.Geocode: request failed", "error", err)
		return models.Location{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if len(results) == 0 {
		return models.Location{}, ErrNotFound
	}
	loc := results[0].Geometry.Location
	return models.Location{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// Nearby lists therapy locations within radiusMiles of the given point, in the order
// returned by the API and capped at MaxResults.
func (c *Client) Nearby(ctx context.Context, at models.Location, radiusMiles float64) ([]models.Place, error) {
	radius := ClampRadius(radiusMiles)
	resp, err := c.maps.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: at.Lat, Lng: at.Lng},
		Radius:   uint(math.Round(radius * MetersPerMile)),
		Keyword:  Keyword,
		Type:     maps.PlaceType(PlaceType),
	})
	if err != nil {
		slog.Warn("Places.Nearby: request failed", "radiusMiles", radius, "error", err)
		return nil, fmt.Errorf("nearby search failed: %w", err)
	}

	out := make([]models.Place, 0, min(len(resp.Results), MaxResults))
	for _, r := range resp.Results {
		if len(out) == MaxResults {
			break
		}
		p := models.Place{
			Name:     r.Name,
			Vicinity: r.Vicinity,
			Rating:   r.Rating,
			Location: models.Location{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		}
		if r.OpeningHours != nil && r.OpeningHours.OpenNow != nil {
			open := *r.OpeningHours.OpenNow
			p.OpenNow = &open
		}
		out = append(out, p)
	}
	slog.Debug("Places.Nearby: search complete", "radiusMiles", radius, "found", len(resp.Results), "returned", len(out))
	return out, nil
}

// Result is the answer to a therapist search.
type Result struct {
	Lat    float64        `json:"lat"`
	Lng    float64        `json:"lng"`
	Places []models.Place `json:"places"`
}

// Find locates the search centre (coordinates take precedence over the address) and
// returns nearby places. ErrNotFound means the address could not be resolved.
func (c *Client) Find(ctx context.Context, address string, at *models.Location, radiusMiles float64) (Result, error) {
	var centre models.Location
	if at != nil {
		centre = *at
	} else {
		loc, err := c.Geocode(ctx, address)
		if err != nil {
			return Result{}, err
		}
		centre = loc
	}
	found, err := c.Nearby(ctx, centre, radiusMiles)
	if err != nil {
		return Result{}, err
	}
	return Result{Lat: centre.Lat, Lng: centre.Lng, Places: found}, nil
}
