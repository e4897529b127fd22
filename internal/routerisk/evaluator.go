package routerisk

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/rs/zerolog"

	"github.com/riskroute/riskroute/internal/geocode"
	"github.com/riskroute/riskroute/internal/risk"
)

const (
	// DefaultSampleStride takes every Nth coordinate of a route geometry.
	DefaultSampleStride = 10
	// DefaultMaxSamples caps reverse-geocode lookups per route.
	DefaultMaxSamples = 5
	// DefaultLookupStagger spaces out lookups so the geocoder is not hit
	// with a burst for every evaluated route.
	DefaultLookupStagger = 200 * time.Millisecond
	// DefaultMatchThreshold is the minimum token-sort ratio for a sampled
	// street to count as a risk zone hit.
	DefaultMatchThreshold = 75
)

// ZoneLister provides the current risk zones to match sampled streets
// against.
type ZoneLister interface {
	Zones(ctx context.Context) ([]risk.Zone, error)
}

// EvaluatorConfig configures an Evaluator.
type EvaluatorConfig struct {
	Geocoder geocode.Geocoder
	Zones    ZoneLister
	Logger   zerolog.Logger

	// SampleStride, MaxSamples, LookupStagger and MatchThreshold fall back
	// to the package defaults when zero.
	SampleStride   int
	MaxSamples     int
	LookupStagger  time.Duration
	MatchThreshold int
}

// Evaluator scores route geometries against known risk zones.
type Evaluator struct {
	geocoder  geocode.Geocoder
	zones     ZoneLister
	logger    zerolog.Logger
	stride    int
	max       int
	stagger   time.Duration
	threshold int
}

// NewEvaluator creates an Evaluator from config, applying defaults.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	if cfg.SampleStride <= 0 {
		cfg.SampleStride = DefaultSampleStride
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = DefaultMaxSamples
	}
	if cfg.LookupStagger <= 0 {
		cfg.LookupStagger = DefaultLookupStagger
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = DefaultMatchThreshold
	}
	return &Evaluator{
		geocoder:  cfg.Geocoder,
		zones:     cfg.Zones,
		logger:    cfg.Logger.With().Str("component", "route_evaluator").Logger(),
		stride:    cfg.SampleStride,
		max:       cfg.MaxSamples,
		stagger:   cfg.LookupStagger,
		threshold: cfg.MatchThreshold,
	}
}

// SamplePoints selects up to MaxSamples coordinates, one every SampleStride
// positions, starting at the first coordinate.
func (e *Evaluator) SamplePoints(coords []Coordinate) []Coordinate {
	samples := make([]Coordinate, 0, e.max)
	for i := 0; i < len(coords) && len(samples) < e.max; i += e.stride {
		samples = append(samples, coords[i])
	}
	return samples
}

// Evaluate resolves sampled points of a route to street names and scores the
// route against the current risk zones. Individual geocode failures are
// logged and skipped; the route still evaluates on the remaining samples.
func (e *Evaluator) Evaluate(ctx context.Context, coords []Coordinate) (*EvaluatedRoute, error) {
	if len(coords) == 0 {
		return nil, ErrEmptyGeometry
	}

	zones, err := e.zones.Zones(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing risk zones: %w", err)
	}

	streets := e.resolveStreets(ctx, e.SamplePoints(coords))

	route := &EvaluatedRoute{Coordinates: coords, Alerts: []Alert{}, RiskyStreets: []string{}}
	seen := make(map[string]bool, len(streets))
	for _, street := range streets {
		if street == "" || seen[street] {
			continue
		}
		seen[street] = true

		zone, ok := e.matchZone(street, zones)
		if !ok || zone.NormalizedRiskIndex <= 0 {
			continue
		}
		route.Alerts = append(route.Alerts, Alert{
			Message:   fmt.Sprintf("High risk street on route: %s", zone.RouteName),
			RiskIndex: zone.NormalizedRiskIndex,
		})
		route.RiskyStreets = append(route.RiskyStreets, zone.RouteName)
		route.RiskScore += zone.NormalizedRiskIndex
		if zone.NormalizedRiskIndex >= 1 {
			route.HighRiskCount++
		}
	}
	return route, nil
}

// resolveStreets reverse-geocodes the sampled points concurrently. Dispatch
// is staggered and repeated coordinates reuse the first lookup's result.
func (e *Evaluator) resolveStreets(ctx context.Context, samples []Coordinate) []string {
	streets := make([]string, len(samples))

	// Coordinates can repeat within one geometry (loops, shared segments);
	// the cache lives only for this evaluation.
	var (
		mu    sync.Mutex
		cache = make(map[string]string, len(samples))
		group sync.WaitGroup
	)
	for i, p := range samples {
		key := cacheKey(p)

		mu.Lock()
		if street, ok := cache[key]; ok {
			streets[i] = street
			mu.Unlock()
			continue
		}
		cache[key] = ""
		mu.Unlock()

		group.Add(1)
		go func(i int, p Coordinate) {
			defer group.Done()
			street, err := e.geocoder.ReverseGeocode(ctx, p.Lat, p.Lon)
			if err != nil {
				e.logger.Warn().
					Err(err).
					Float64("lat", p.Lat).
					Float64("lon", p.Lon).
					Msg("reverse geocode failed, skipping sample")
				return
			}
			street = NormalizeStreetName(street)
			streets[i] = street
			mu.Lock()
			cache[key] = street
			mu.Unlock()
		}(i, p)

		select {
		case <-ctx.Done():
			group.Wait()
			return streets
		case <-time.After(e.stagger):
		}
	}
	group.Wait()

	// Backfill samples that hit an in-flight cache entry before it resolved.
	for i, p := range samples {
		if streets[i] == "" {
			mu.Lock()
			streets[i] = cache[cacheKey(p)]
			mu.Unlock()
		}
	}
	return streets
}

// matchZone finds the best fuzzy match for a normalized street name among the
// risk zones, requiring the token-sort ratio to exceed the threshold.
func (e *Evaluator) matchZone(street string, zones []risk.Zone) (risk.Zone, bool) {
	var (
		best      risk.Zone
		bestRatio int
		found     bool
	)
	for _, z := range zones {
		ratio := fuzzy.TokenSortRatio(street, NormalizeStreetName(z.RouteName))
		if ratio > e.threshold && ratio > bestRatio {
			best = z
			bestRatio = ratio
			found = true
		}
	}
	return best, found
}

func cacheKey(p Coordinate) string {
	// Five decimal places (~1m) is enough to treat nearby samples as the
	// same lookup.
	return strconv.FormatFloat(roundTo(p.Lat, 5), 'f', 5, 64) + "," +
		strconv.FormatFloat(roundTo(p.Lon, 5), 'f', 5, 64)
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
