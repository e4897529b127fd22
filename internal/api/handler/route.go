package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/riskroute/riskroute/internal/api/models"
	"github.com/riskroute/riskroute/internal/api/response"
	"github.com/riskroute/riskroute/internal/routerisk"
	"github.com/riskroute/riskroute/internal/routing"
)

// SafeRouter computes the safest driving route between two points.
type SafeRouter interface {
	SafeRoute(ctx context.Context, origin, destination routing.Coordinate) (*routerisk.Comparison, error)
}

// RouteHandler handles safe route endpoints.
type RouteHandler struct {
	routes SafeRouter
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routes SafeRouter) *RouteHandler {
	return &RouteHandler{routes: routes}
}

// SafeRoute handles GET /v1/routes/safe?from=lat,lon&to=lat,lon - compute the
// safest route between two points.
func (h *RouteHandler) SafeRoute(w http.ResponseWriter, r *http.Request) {
	origin, err := parseCoordinateParam(r, "from")
	if err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "from", Message: "expected lat,lon"},
		})
		return
	}
	destination, err := parseCoordinateParam(r, "to")
	if err != nil {
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "to", Message: "expected lat,lon"},
		})
		return
	}

	comparison, err := h.routes.SafeRoute(r.Context(), origin, destination)
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrInvalidCoordinates):
			response.BadRequest(w, r, err.Error(), nil)
		case errors.Is(err, routing.ErrNoRouteFound), errors.Is(err, routerisk.ErrNoRoutes):
			response.NotFound(w, r, "no route found between the given points")
		case errors.Is(err, routing.ErrRateLimitExceeded):
			response.TooManyRequests(w, r, "routing provider rate limit exceeded")
		default:
			response.ServiceUnavailable(w, r, "route evaluation is temporarily unavailable")
		}
		return
	}

	resp := models.SafeRouteResponse{
		GeneratedAt: models.Timestamp(time.Now()),
		Primary:     toRouteOption(comparison.Primary),
		Alternative: toRouteOption(comparison.Alternative),
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// parseCoordinateParam parses a "lat,lon" query parameter.
func parseCoordinateParam(r *http.Request, name string) (routing.Coordinate, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return routing.Coordinate{}, errors.New(name + " is required")
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return routing.Coordinate{}, errors.New(name + " must be lat,lon")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return routing.Coordinate{}, errors.New(name + " has an invalid latitude")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return routing.Coordinate{}, errors.New(name + " has an invalid longitude")
	}
	return routing.Coordinate{Lat: lat, Lon: lon}, nil
}

func toRouteOption(route *routerisk.EvaluatedRoute) *models.SafeRouteOption {
	if route == nil {
		return nil
	}
	opt := &models.SafeRouteOption{
		Coordinates:     make([]models.Point, 0, len(route.Coordinates)),
		Alerts:          make([]models.RouteAlert, 0, len(route.Alerts)),
		RiskyStreets:    route.RiskyStreets,
		RiskScore:       route.RiskScore,
		HighRiskCount:   route.HighRiskCount,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
	}
	for _, c := range route.Coordinates {
		opt.Coordinates = append(opt.Coordinates, models.Point{Lat: c.Lat, Lon: c.Lon})
	}
	for _, a := range route.Alerts {
		opt.Alerts = append(opt.Alerts, models.RouteAlert{Message: a.Message, RiskIndex: a.RiskIndex})
	}
	return opt
}
