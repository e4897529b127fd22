package routerisk

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/riskroute/riskroute/internal/routing"
	"github.com/riskroute/riskroute/pkg/polyline"
)

// DirectionsService provides candidate routes between two points.
type DirectionsService interface {
	GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error)
}

// ServiceConfig holds configuration for the safe route service.
type ServiceConfig struct {
	Directions DirectionsService
	Evaluator  *Evaluator
	Logger     zerolog.Logger
}

// Service computes the safest driving route between two points.
type Service struct {
	directions DirectionsService
	evaluator  *Evaluator
	logger     zerolog.Logger
}

// NewService creates a new safe route service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		directions: cfg.Directions,
		evaluator:  cfg.Evaluator,
		logger:     cfg.Logger.With().Str("component", "saferoute").Logger(),
	}
}

// SafeRoute fetches route alternatives between origin and destination,
// evaluates each against the known risk zones, and returns the lowest-risk
// route as primary. Candidates whose evaluation fails are dropped; the call
// errors only when no candidate survives.
func (s *Service) SafeRoute(ctx context.Context, origin, destination routing.Coordinate) (*Comparison, error) {
	resp, err := s.directions.GetDirections(ctx, routing.DirectionsRequest{
		Origin:       origin,
		Destination:  destination,
		Alternatives: true,
	})
	if err != nil {
		return nil, err
	}

	evaluated := make([]*EvaluatedRoute, 0, len(resp.Routes))
	for i, route := range resp.Routes {
		coords := decodeGeometry(route.GeometryPolyline)
		er, err := s.evaluator.Evaluate(ctx, coords)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Int("route_index", i).
				Msg("dropping route candidate, evaluation failed")
			continue
		}
		er.DistanceMeters = route.DistanceMeters
		er.DurationSeconds = route.DurationSeconds
		evaluated = append(evaluated, er)
	}
	if len(evaluated) == 0 {
		return nil, ErrNoRoutes
	}

	cmp, err := Compare(evaluated)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("candidates", len(resp.Routes)).
		Int("evaluated", len(evaluated)).
		Float64("primary_risk_score", cmp.Primary.RiskScore).
		Int("primary_high_risk_count", cmp.Primary.HighRiskCount).
		Msg("selected safest route")

	return cmp, nil
}

// decodeGeometry converts an encoded polyline into evaluator coordinates.
func decodeGeometry(encoded string) []Coordinate {
	decoded := polyline.Decode(encoded)
	coords := make([]Coordinate, len(decoded))
	for i, p := range decoded {
		coords[i] = Coordinate{Lat: p.Lat, Lon: p.Lon}
	}
	return coords
}
