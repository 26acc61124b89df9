package lookup

import "github.com/garyellow/triangulator-go/internal/catalog"

// Execution paths, recorded in diagnostics and metrics.
const (
	PathShortCircuit = "short_circuit"
	PathFast         = "fast"
	PathFallback     = "fallback"
	PathDegraded     = "degraded"
	PathFailed       = "failed"
)

// States visited by the orchestrator.
const (
	StateStart          = "START"
	StateCatalogCheck   = "CATALOG_CHECK"
	StateExtract        = "EXTRACT"
	StateClassify       = "CLASSIFY"
	StateDecideFallback = "DECIDE_FALLBACK"
	StateFastDone       = "FAST_DONE"
	StateLLMFallback    = "LLM_FALLBACK"
	StateReconcile      = "RECONCILE"
	StateDone           = "DONE"
)

// Result is the outcome of one lookup.
//
// Success is false only for hard collaborator failures, in which case Error
// is set and MatchType is empty. A successful result always carries a match
// type, including no_match and catalog_not_found.
type Result struct {
	Success              bool                      `json:"success"`
	Error                string                    `json:"error,omitempty"`
	MatchType            catalog.MatchType         `json:"match_type,omitempty"`
	Similarity           float64                   `json:"similarity"`
	ReflectedCourse      Course                    `json:"reflected_course"`
	Description          string                    `json:"description"`
	DescriptionIsMissing bool                      `json:"description_is_missing"`
	Matches              []catalog.EquivalentMatch `json:"matches"`
	Diagnostics          Diagnostics               `json:"diagnostics"`
}

// Course is the course a result refers to.
type Course struct {
	Institution string `json:"institution,omitempty"`
	Subject     string `json:"subject"`
	Number      string `json:"number"`
	Title       string `json:"title"`
}

// Diagnostics records how a result was reached.
type Diagnostics struct {
	LookupID         string           `json:"lookup_id"`
	Path             string           `json:"path"`
	States           []string         `json:"states"`
	EvidenceCount    int              `json:"evidence_count"`
	TopScore         float64          `json:"top_score"`
	Presence         catalog.Presence `json:"presence"`
	PrimaryChunkID   string           `json:"primary_chunk_id,omitempty"`
	PrimaryScore     float64          `json:"primary_score,omitempty"`
	Strategy         string           `json:"strategy,omitempty"`
	RecordsSeen      int              `json:"records_seen"`
	FallbackInvoked  bool             `json:"fallback_invoked"`
	FallbackProvider string           `json:"fallback_provider,omitempty"`
	FallbackModel    string           `json:"fallback_model,omitempty"`
	FallbackError    string           `json:"fallback_error,omitempty"`
	Cause            string           `json:"cause,omitempty"`
	DurationMS       int64            `json:"duration_ms"`
}

func (d *Diagnostics) enter(state string) {
	d.States = append(d.States, state)
}

// missingDescription blanks the description fields.
func (r *Result) missingDescription() {
	r.Description = catalog.DescriptionSentinel
	r.DescriptionIsMissing = true
}

// rank orders match types from strongest to weakest.
func rank(t catalog.MatchType) int {
	switch t {
	case catalog.MatchExact:
		return 4
	case catalog.MatchStrongFuzzy:
		return 3
	case catalog.MatchFuzzy:
		return 2
	case catalog.MatchNone:
		return 1
	default:
		return 0
	}
}
