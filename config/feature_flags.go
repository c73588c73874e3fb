package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollouts.
// Supports percentage rollout keyed by account id, branch targeting,
// and per-account overrides for debugging.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	accountOverrides map[string]map[string]bool // accountID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Accounts are assigned based on hash of their ID
	RolloutPercent int

	// Branch targeting (e.g., "computer", "mechanical")
	// Empty means all branches
	TargetBranches []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	AccountID string // Campus account id
	Branch    string // Learner branch (e.g., "computer")
	IsAdmin   bool   // Is admin account
}

// Predefined feature flag names.
const (
	// === Request lifecycle ===
	FeaturePeerRequests     = "requests.peer"         // Peer mentor requests
	FeatureOfficialRequests = "requests.official"     // Official mentor requests
	FeatureRequestExpiry    = "requests.expiry_sweep" // Background expiry of stale requests

	// === Relationship features ===
	FeatureEdgeRatings  = "relationships.ratings"   // Post-relationship ratings
	FeatureEdgeRemoval  = "relationships.removal"   // Hard-remove ended relationships
	FeatureMirrorRepair = "relationships.self_heal" // Automatic asymmetry repair

	// === Discovery ===
	FeatureMentorSearch   = "discovery.mentor_search" // Subject-scoped mentor search
	FeatureSlotNarrowing  = "discovery.slot_overlap"  // Rank results by availability overlap
	FeatureRatingOrdering = "discovery.rating_order"  // Order results by average rating

	// === Notifications ===
	FeatureNotifyRequestReceived = "notify.request_received" // New request landed
	FeatureNotifyRequestAnswered = "notify.request_answered" // Accept/reject outcome
	FeatureNotifyRequestExpired  = "notify.request_expired"  // Request timed out
	FeatureNotifyRelationEnded   = "notify.relation_ended"   // Counterpart ended the relationship
	FeatureNotifyQuietHours      = "notify.quiet_hours"      // Defer deliveries to the safe window
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		accountOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Request lifecycle - core product, enabled by default
	ff.features[FeaturePeerRequests] = &Feature{
		Name:           FeaturePeerRequests,
		Description:    "Peer mentor request flow",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureOfficialRequests] = &Feature{
		Name:           FeatureOfficialRequests,
		Description:    "Official mentor request flow",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureRequestExpiry] = &Feature{
		Name:           FeatureRequestExpiry,
		Description:    "Expire pending requests past their TTL",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Relationship features
	ff.features[FeatureEdgeRatings] = &Feature{
		Name:           FeatureEdgeRatings,
		Description:    "Rate a mentor after the relationship matures",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureEdgeRemoval] = &Feature{
		Name:           FeatureEdgeRemoval,
		Description:    "Allow hard removal instead of deactivation",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureMirrorRepair] = &Feature{
		Name:           FeatureMirrorRepair,
		Description:    "Repair one-sided relationship edges automatically",
		Enabled:        false, // report-only until repair has soaked in staging
		RolloutPercent: 0,
	}

	// Discovery
	ff.features[FeatureMentorSearch] = &Feature{
		Name:           FeatureMentorSearch,
		Description:    "Search eligible mentors by subject",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureSlotNarrowing] = &Feature{
		Name:           FeatureSlotNarrowing,
		Description:    "Rank mentors by availability overlap",
		Enabled:        true,
		RolloutPercent: 50, // Gradual rollout
	}

	ff.features[FeatureRatingOrdering] = &Feature{
		Name:           FeatureRatingOrdering,
		Description:    "Order search results by average rating",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Notifications - carefully tuned to avoid spam
	ff.features[FeatureNotifyRequestReceived] = &Feature{
		Name:           FeatureNotifyRequestReceived,
		Description:    "Notify mentors about new requests",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyRequestAnswered] = &Feature{
		Name:           FeatureNotifyRequestAnswered,
		Description:    "Notify requesters about accept/reject",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyRequestExpired] = &Feature{
		Name:           FeatureNotifyRequestExpired,
		Description:    "Notify requesters when a request times out",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyRelationEnded] = &Feature{
		Name:           FeatureNotifyRelationEnded,
		Description:    "Notify when the counterpart ends a relationship",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyQuietHours] = &Feature{
		Name:           FeatureNotifyQuietHours,
		Description:    "Hold notifications until the morning window",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_DISCOVERY_SLOT_OVERLAP=true
// Example: FEATURE_RELATIONSHIPS_SELF_HEAL=25 (25% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "discovery.slot_overlap" -> "FEATURE_DISCOVERY_SLOT_OVERLAP"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check account overrides first
	if ctx != nil && ctx.AccountID != "" {
		if overrides, ok := ff.accountOverrides[ctx.AccountID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin accounts get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check branch targeting
	if len(feature.TargetBranches) > 0 && ctx != nil && ctx.Branch != "" {
		branchMatch := false
		for _, b := range feature.TargetBranches {
			if b == ctx.Branch {
				branchMatch = true
				break
			}
		}
		if !branchMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.AccountID != "" {
		return ff.isInRollout(ctx.AccountID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if an account is in the rollout percentage.
// Uses consistent hashing so accounts stay in their bucket.
func (ff *FeatureFlags) isInRollout(accountID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(accountID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetAccountOverride sets a feature override for a specific account.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetAccountOverride(accountID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.accountOverrides[accountID]; !ok {
		ff.accountOverrides[accountID] = make(map[string]bool)
	}
	ff.accountOverrides[accountID][featureName] = enabled
}

// ClearAccountOverrides removes all overrides for an account.
func (ff *FeatureFlags) ClearAccountOverrides(accountID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.accountOverrides, accountID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// RequestsEnabled checks if either request flow is available.
func (ff *FeatureFlags) RequestsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeaturePeerRequests, ctx) ||
		ff.IsEnabled(FeatureOfficialRequests, ctx)
}

// NotificationsEnabled checks if any notifications are enabled.
func (ff *FeatureFlags) NotificationsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureNotifyRequestReceived, ctx) ||
		ff.IsEnabled(FeatureNotifyRequestAnswered, ctx) ||
		ff.IsEnabled(FeatureNotifyRequestExpired, ctx) ||
		ff.IsEnabled(FeatureNotifyRelationEnded, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
