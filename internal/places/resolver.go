package places

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/room-vacancy/backend/internal/storage/models"
)

const (
	typeLocality    = "locality"
	typeSublocality = "sublocality_level_1"
)

// Resolver maps canonical building names to place records. Each distinct
// name is looked up at most once over the lifetime of the cache; failures
// are permanent and never retried.
type Resolver struct {
	cache       *Cache
	geocoder    Geocoder
	logger      *zap.Logger
	diagnostics bool

	// lookupMu serializes geocoder calls so two callers never query the
	// same name.
	lookupMu sync.Mutex
	lookups  int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDiagnostics makes Resolve return the raw geocoder error (still wrapping
// ErrNotFound) instead of a bare ErrNotFound.
func WithDiagnostics(enabled bool) Option {
	return func(r *Resolver) { r.diagnostics = enabled }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver creates a resolver over cache and geocoder.
func NewResolver(cache *Cache, geocoder Geocoder, opts ...Option) *Resolver {
	r := &Resolver{
		cache:    cache,
		geocoder: geocoder,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the place record for name. The error satisfies
// errors.Is(err, ErrNotFound) when the name cannot be geocoded; any error
// wrapping ErrCachePersist means the cache could not be saved. A geocoder
// without an API key is returned as is and never cached as a failure.
func (r *Resolver) Resolve(ctx context.Context, name string) (*models.PlaceRecord, error) {
	if rec, ok := r.lookupCached(name); ok {
		return rec, nil
	}
	if r.cache.IsFailed(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	r.lookupMu.Lock()
	defer r.lookupMu.Unlock()

	// Another caller may have resolved the name while we waited.
	if rec, ok := r.lookupCached(name); ok {
		return rec, nil
	}
	if r.cache.IsFailed(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	r.lookups++
	candidates, lookupErr := r.geocoder.FindPlace(ctx, name)
	if lookupErr != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(lookupErr, ErrMissingAPIKey) {
		return nil, lookupErr
	}

	if lookupErr != nil || len(candidates) == 0 {
		if lookupErr != nil {
			r.logger.Warn("Place lookup failed", zap.String("name", name), zap.Error(lookupErr))
		} else {
			r.logger.Debug("Place lookup returned no candidates", zap.String("name", name))
		}
		if err := r.cache.PutFailure(ctx, name); err != nil {
			return nil, err
		}
		if lookupErr != nil && r.diagnostics {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, name, lookupErr)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	rec := recordFromCandidate(name, candidates[0])
	if err := r.cache.Put(ctx, rec); err != nil {
		return nil, err
	}
	r.logger.Debug("Place resolved", zap.String("name", name), zap.String("place_id", rec.PlaceID))

	return &rec, nil
}

// Lookups returns how many geocoder calls this resolver has made.
func (r *Resolver) Lookups() int {
	r.lookupMu.Lock()
	defer r.lookupMu.Unlock()
	return r.lookups
}

// Cache returns the underlying cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

func (r *Resolver) lookupCached(name string) (*models.PlaceRecord, bool) {
	rec, ok := r.cache.Get(name)
	if !ok {
		return nil, false
	}
	return &rec, true
}

// recordFromCandidate builds the record stored for canonicalName.
func recordFromCandidate(canonicalName string, c Candidate) models.PlaceRecord {
	rec := models.PlaceRecord{
		CanonicalName:    canonicalName,
		Name:             c.Name,
		Latitude:         c.Geometry.Location.Lat,
		Longitude:        c.Geometry.Location.Lng,
		FormattedAddress: c.FormattedAddress,
		PlaceID:          c.PlaceID,
		URL:              MapURL(c.PlaceID),
	}
	rec.City, rec.District = cityAndDistrict(c.AddressComponents)
	return rec
}

// cityAndDistrict returns the first locality and the first
// sublocality_level_1 component, stopping once both are found.
func cityAndDistrict(components []AddressComponent) (city, district *string) {
	for _, comp := range components {
		if city != nil && district != nil {
			break
		}
		for _, t := range comp.Types {
			switch {
			case t == typeLocality && city == nil:
				name := comp.LongName
				city = &name
			case t == typeSublocality && district == nil:
				name := comp.LongName
				district = &name
			}
		}
	}
	return city, district
}

// MapURL returns the Google Maps link for a place ID.
func MapURL(placeID string) string {
	return "https://www.google.com/maps/place/?q=place_id:" + placeID
}
