package catalog

import "strings"

// Presence reasons.
const (
	ReasonNoResults      = "no_rag_results"
	ReasonNotIndexed     = "institution_not_indexed"
	ReasonTrustedScore   = "trusted_top_score"
	ReasonInstitutionHit = "institution_found"
	ReasonAboveMinRatio  = "institution_ratio_above_minimum"
)

// Default presence thresholds, tuned for the CreateAI OpenSearch corpus.
const (
	DefaultTrustScore    = 8.0
	DefaultMinRatio      = 0.4
	DefaultScanLimit     = 8
	DefaultWideScanLimit = 10
)

// PresenceConfig holds the corpus-specific presence thresholds.
type PresenceConfig struct {
	// TrustScore is the top score above which presence is assumed.
	TrustScore float64
	// MinRatio is the best institution ratio below which the catalog is absent.
	MinRatio float64
	// ScanLimit is the number of leading chunks inspected.
	ScanLimit int
}

// DefaultPresenceConfig returns the default thresholds.
func DefaultPresenceConfig() PresenceConfig {
	return PresenceConfig{
		TrustScore: DefaultTrustScore,
		MinRatio:   DefaultMinRatio,
		ScanLimit:  DefaultScanLimit,
	}
}

// Presence is the verdict on whether an institution's catalog is in the evidence.
type Presence struct {
	NotFound  bool    `json:"not_found"`
	Reason    string  `json:"reason"`
	BestRatio float64 `json:"best_ratio"`
}

// PresenceDetector decides whether a requested institution's catalog is
// represented in ranked evidence at all.
type PresenceDetector struct {
	cfg PresenceConfig
}

// NewPresenceDetector creates a detector; zero-valued fields take defaults.
func NewPresenceDetector(cfg PresenceConfig) *PresenceDetector {
	def := DefaultPresenceConfig()
	if cfg.TrustScore <= 0 {
		cfg.TrustScore = def.TrustScore
	}
	if cfg.MinRatio <= 0 {
		cfg.MinRatio = def.MinRatio
	}
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = def.ScanLimit
	}
	return &PresenceDetector{cfg: cfg}
}

// Detect inspects evidence for the requested institution.
//
// A trusted top score means presence without scanning. Otherwise the leading
// chunks are scanned for canonical tokens; a low top score alone never proves
// absence.
func (d *PresenceDetector) Detect(evidence []EvidenceChunk, institution string) Presence {
	if len(evidence) == 0 {
		return Presence{NotFound: true, Reason: ReasonNoResults}
	}
	if evidence[0].Score >= d.cfg.TrustScore {
		return Presence{Reason: ReasonTrustedScore, BestRatio: 1.0}
	}

	found, best := ScanInstitution(evidence, institution, d.cfg.ScanLimit)
	switch {
	case found:
		return Presence{Reason: ReasonInstitutionHit, BestRatio: best}
	case best < d.cfg.MinRatio:
		return Presence{NotFound: true, Reason: ReasonNotIndexed, BestRatio: best}
	default:
		return Presence{Reason: ReasonAboveMinRatio, BestRatio: best}
	}
}

// ScanInstitution looks through the first limit chunks for a canonical token
// whose institution matches. It returns whether one matched and the best
// ratio observed. An empty institution never matches.
func ScanInstitution(evidence []EvidenceChunk, institution string, limit int) (bool, float64) {
	if strings.TrimSpace(institution) == "" {
		return false, 0
	}
	if limit <= 0 || limit > len(evidence) {
		limit = len(evidence)
	}

	best := 0.0
	seen := make(map[string]bool)
	for _, chunk := range evidence[:limit] {
		for _, tok := range FindTokens(chunk.Text) {
			if seen[tok.Institution] {
				continue
			}
			seen[tok.Institution] = true

			m := MatchInstitution(institution, tok.Institution)
			if m.Matches {
				return true, m.Ratio
			}
			best = max(best, m.Ratio)
		}
	}
	return false, best
}
