package redis

import (
	"context"
	"errors"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// ProfileCache keeps hot learner profiles in Redis. It implements the
// cache invalidation hook the profile-updated event handler fans out to.
type ProfileCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewProfileCache creates a new ProfileCache.
func NewProfileCache(cache *Cache) *ProfileCache {
	return &ProfileCache{
		cache: cache,
		ttl:   TTLProfileCache,
	}
}

// Get returns the cached profile or ErrCacheMiss.
func (c *ProfileCache) Get(ctx context.Context, id shared.ProfileID) (*learner.Profile, error) {
	var p learner.Profile
	if err := c.cache.Get(ctx, ProfileKey(string(id)), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Set stores the profile and the account -> profile lookup.
func (c *ProfileCache) Set(ctx context.Context, p *learner.Profile) error {
	if err := c.cache.Set(ctx, ProfileKey(string(p.ID)), p, c.ttl); err != nil {
		return err
	}
	// The account mapping is immutable, so it never needs invalidation.
	return c.cache.SetString(ctx, AccountKey(string(p.AccountID)), string(p.ID), c.ttl)
}

// ResolveAccount returns the profile ID cached for an account, or
// ErrCacheMiss.
func (c *ProfileCache) ResolveAccount(ctx context.Context, accountID shared.AccountID) (shared.ProfileID, error) {
	id, err := c.cache.GetString(ctx, AccountKey(string(accountID)))
	if err != nil {
		return "", err
	}
	return shared.ProfileID(id), nil
}

// Invalidate drops the cached profile.
func (c *ProfileCache) Invalidate(ctx context.Context, id shared.ProfileID) error {
	return c.cache.Delete(ctx, ProfileKey(string(id)))
}

// ══════════════════════════════════════════════════════════════════════════════
// READ-THROUGH REPOSITORY DECORATOR
// ══════════════════════════════════════════════════════════════════════════════

// CachedLearnerRepository decorates a learner.Repository with the profile
// cache. Point reads go through Redis; list and containment queries always
// hit Postgres.
//
// The revision CAS stays correct under staleness: a cached copy that lost
// a race fails Update with shared.ErrConcurrentModification, the decorator
// drops the stale key, and the caller's retry reloads from Postgres.
type CachedLearnerRepository struct {
	inner learner.Repository
	cache *ProfileCache
	log   *logger.Logger
}

// NewCachedLearnerRepository creates the caching decorator.
func NewCachedLearnerRepository(inner learner.Repository, cache *ProfileCache, log *logger.Logger) *CachedLearnerRepository {
	return &CachedLearnerRepository{
		inner: inner,
		cache: cache,
		log:   log.With(logger.Component("learner-cache")),
	}
}

// Create persists the profile and warms the cache.
func (r *CachedLearnerRepository) Create(ctx context.Context, p *learner.Profile) error {
	if err := r.inner.Create(ctx, p); err != nil {
		return err
	}
	r.warm(ctx, p)
	return nil
}

// GetByID serves from cache, falling back to Postgres on a miss.
func (r *CachedLearnerRepository) GetByID(ctx context.Context, id shared.ProfileID) (*learner.Profile, error) {
	if p, err := r.cache.Get(ctx, id); err == nil {
		return p, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		r.log.Warn("profile cache read failed", logger.ProfileID(string(id)), logger.Err(err))
	}

	p, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.warm(ctx, p)
	return p, nil
}

// GetByAccountID resolves the account mapping from cache when possible.
func (r *CachedLearnerRepository) GetByAccountID(ctx context.Context, accountID shared.AccountID) (*learner.Profile, error) {
	if id, err := r.cache.ResolveAccount(ctx, accountID); err == nil {
		return r.GetByID(ctx, id)
	}

	p, err := r.inner.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	r.warm(ctx, p)
	return p, nil
}

// Update writes through to Postgres and refreshes or drops the cached copy.
func (r *CachedLearnerRepository) Update(ctx context.Context, p *learner.Profile) error {
	err := r.inner.Update(ctx, p)
	switch {
	case err == nil:
		r.warm(ctx, p)
		return nil
	case errors.Is(err, shared.ErrConcurrentModification):
		// Our copy was stale; drop it so the caller's retry reloads.
		r.drop(ctx, p.ID)
		return err
	default:
		r.drop(ctx, p.ID)
		return err
	}
}

// Delete removes the profile from Postgres and the cache.
func (r *CachedLearnerRepository) Delete(ctx context.Context, id shared.ProfileID) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.drop(ctx, id)
	return nil
}

// FindMentorCandidates always queries Postgres.
func (r *CachedLearnerRepository) FindMentorCandidates(ctx context.Context, branch shared.Branch, subjectID shared.SubjectID, exclude shared.ProfileID) ([]*learner.Profile, error) {
	return r.inner.FindMentorCandidates(ctx, branch, subjectID, exclude)
}

// FindByOfficialMentor always queries Postgres.
func (r *CachedLearnerRepository) FindByOfficialMentor(ctx context.Context, mentorID shared.ProfileID) ([]*learner.Profile, error) {
	return r.inner.FindByOfficialMentor(ctx, mentorID)
}

// FindByPendingOfficialRequest always queries Postgres.
func (r *CachedLearnerRepository) FindByPendingOfficialRequest(ctx context.Context, mentorID shared.ProfileID) ([]*learner.Profile, error) {
	return r.inner.FindByPendingOfficialRequest(ctx, mentorID)
}

// FindWithStalePeerRequests always queries Postgres.
func (r *CachedLearnerRepository) FindWithStalePeerRequests(ctx context.Context, cutoff time.Time) ([]*learner.Profile, error) {
	return r.inner.FindWithStalePeerRequests(ctx, cutoff)
}

// List always queries Postgres.
func (r *CachedLearnerRepository) List(ctx context.Context, page shared.Pagination) ([]*learner.Profile, error) {
	return r.inner.List(ctx, page)
}

func (r *CachedLearnerRepository) warm(ctx context.Context, p *learner.Profile) {
	if err := r.cache.Set(ctx, p); err != nil {
		r.log.Warn("profile cache write failed", logger.ProfileID(string(p.ID)), logger.Err(err))
	}
}

func (r *CachedLearnerRepository) drop(ctx context.Context, id shared.ProfileID) {
	if err := r.cache.Invalidate(ctx, id); err != nil {
		r.log.Warn("profile cache invalidation failed", logger.ProfileID(string(id)), logger.Err(err))
	}
}
