package lookup

import "github.com/garyellow/triangulator-go/internal/catalog"

// Defaults for the orchestrator.
const (
	DefaultMinDescriptionLength      = 50
	DefaultContextChunks             = 5
	DefaultContextBudget             = 6000
	DefaultMaxMatches                = 3
	DefaultDescriptionFillSimilarity = 0.8
	// MinModelDescriptionLength is the shortest model description kept.
	MinModelDescriptionLength = 10
)

// Config holds the matching thresholds. Zero values take defaults.
type Config struct {
	Presence catalog.PresenceConfig
	// WideScanLimit bounds the presence re-check when no record is found.
	WideScanLimit int
	// MinDescriptionLength gates which extracted record becomes primary.
	MinDescriptionLength int
	// TargetInstitution is the institution whose equivalents are reported.
	TargetInstitution string
	// ContextChunks and ContextBudget bound the evidence handed to the fallback.
	ContextChunks int
	ContextBudget int
	// MaxMatches caps the equivalents in a result.
	MaxMatches int
	// DescriptionFillSimilarity is the classification similarity at which the
	// deterministic description replaces a missing model description.
	DescriptionFillSimilarity float64
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		Presence:                  catalog.DefaultPresenceConfig(),
		WideScanLimit:             catalog.DefaultWideScanLimit,
		MinDescriptionLength:      DefaultMinDescriptionLength,
		TargetInstitution:         catalog.DefaultTargetInstitution,
		ContextChunks:             DefaultContextChunks,
		ContextBudget:             DefaultContextBudget,
		MaxMatches:                DefaultMaxMatches,
		DescriptionFillSimilarity: DefaultDescriptionFillSimilarity,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Presence.TrustScore <= 0 {
		c.Presence.TrustScore = def.Presence.TrustScore
	}
	if c.Presence.MinRatio <= 0 {
		c.Presence.MinRatio = def.Presence.MinRatio
	}
	if c.Presence.ScanLimit <= 0 {
		c.Presence.ScanLimit = def.Presence.ScanLimit
	}
	if c.WideScanLimit <= 0 {
		c.WideScanLimit = def.WideScanLimit
	}
	if c.MinDescriptionLength <= 0 {
		c.MinDescriptionLength = def.MinDescriptionLength
	}
	if c.TargetInstitution == "" {
		c.TargetInstitution = def.TargetInstitution
	}
	if c.ContextChunks <= 0 {
		c.ContextChunks = def.ContextChunks
	}
	if c.ContextBudget <= 0 {
		c.ContextBudget = def.ContextBudget
	}
	if c.MaxMatches <= 0 {
		c.MaxMatches = def.MaxMatches
	}
	if c.DescriptionFillSimilarity <= 0 {
		c.DescriptionFillSimilarity = def.DescriptionFillSimilarity
	}
	return c
}
