// Package lookup runs one transfer-course lookup end to end: retrieval,
// catalog presence, record extraction, classification and, when the
// deterministic evidence is not conclusive, a single language-model fallback
// whose answer is reconciled against the deterministic findings.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/garyellow/triangulator-go/internal/catalog"
	"github.com/garyellow/triangulator-go/internal/ctxutil"
	domerrors "github.com/garyellow/triangulator-go/internal/errors"
	"github.com/garyellow/triangulator-go/internal/genai"
	"github.com/garyellow/triangulator-go/internal/logger"
	"github.com/garyellow/triangulator-go/internal/metrics"
	"github.com/garyellow/triangulator-go/internal/rag"
)

// Completer is the language-model fallback.
type Completer interface {
	Complete(ctx context.Context, req genai.Request) (*genai.Completion, error)
}

// Orchestrator runs lookups. It holds no per-lookup state and is safe for
// concurrent use.
type Orchestrator struct {
	cfg         Config
	retriever   rag.Retriever
	completer   Completer
	credentials CredentialChecker
	gate        FallbackGate
	reportError func(context.Context, error)
	presence    *catalog.PresenceDetector
	extractor   *catalog.Extractor
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

// New creates an orchestrator. completer may be nil, in which case
// inconclusive lookups return the deterministic result.
func New(cfg Config, retriever rag.Retriever, completer Completer, opts ...Option) *Orchestrator {
	cfg = cfg.withDefaults()
	o := &Orchestrator{
		cfg:       cfg,
		retriever: retriever,
		completer: completer,
		presence:  catalog.NewPresenceDetector(cfg.Presence),
		extractor: catalog.NewExtractor(cfg.TargetInstitution),
		logger:    logger.NewWithWriter("error", io.Discard),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.WithModule("lookup")
	return o
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// primary is the record chosen from the evidence fold.
type primary struct {
	course *catalog.ExtractedCourse
	chunk  catalog.EvidenceChunk
}

// Lookup resolves q. It never returns nil and never panics; collaborator
// failures become a result with Success false.
func (o *Orchestrator) Lookup(ctx context.Context, q catalog.Query) (res *Result) {
	start := time.Now()
	q = q.Normalized()

	lookupID := ctxutil.GetLookupID(ctx)
	if lookupID == "" {
		lookupID = uuid.NewString()
		ctx = ctxutil.WithLookupID(ctx, lookupID)
	}
	diag := Diagnostics{LookupID: lookupID}
	diag.enter(StateStart)

	defer func() {
		if r := recover(); r != nil {
			o.logger.ErrorContext(ctx, "lookup panicked", "panic", r)
			res = o.failure(ctx, &diag, fmt.Errorf("internal error: %v", r), "Lookup failed unexpectedly")
		}
		diag.DurationMS = time.Since(start).Milliseconds()
		diag.enter(StateDone)
		res.Diagnostics = diag

		outcome := "success"
		if !res.Success {
			outcome = "error"
		}
		o.metrics.RecordLookup(string(res.MatchType), outcome, res.Diagnostics.Path, time.Since(start).Seconds())
		o.logger.InfoContext(ctx, "lookup finished",
			"institution", q.Institution,
			"subject", q.Subject,
			"number", q.Number,
			"match_type", res.MatchType,
			"path", res.Diagnostics.Path,
			"success", res.Success)
	}()

	if o.credentials != nil {
		if err := o.credentials.CheckCredentials(); err != nil {
			return o.failure(ctx, &diag, err, "API token missing. Configure CREATEAI_TOKEN.")
		}
	}
	if q.Subject == "" || catalog.ParseNumber(q.Number).Base == "" {
		err := fmt.Errorf("%w: %w", domerrors.ErrInvalidInput,
			domerrors.NewValidationError("subject/number", "subject and a numeric course number are required"))
		return o.failure(ctx, &diag, err, "Subject and course number are required")
	}

	evidence, err := o.retriever.Retrieve(ctx, q.SearchText())
	if err != nil {
		if !errors.Is(err, domerrors.ErrRetrievalFailed) {
			err = fmt.Errorf("%w: %w", domerrors.ErrRetrievalFailed, err)
		}
		return o.failure(ctx, &diag, err, "Catalog search failed")
	}
	evidence = slices.Clone(evidence)
	rag.SortByScore(evidence)
	diag.EvidenceCount = len(evidence)
	if len(evidence) > 0 {
		diag.TopScore = evidence[0].Score
	}

	return o.evaluate(ctx, q, evidence, &diag)
}

// Evaluate runs the deterministic pipeline and the optional fallback over
// evidence that was retrieved elsewhere.
func (o *Orchestrator) Evaluate(ctx context.Context, q catalog.Query, evidence []catalog.EvidenceChunk) *Result {
	start := time.Now()
	q = q.Normalized()
	lookupID := ctxutil.GetLookupID(ctx)
	if lookupID == "" {
		lookupID = uuid.NewString()
	}
	diag := Diagnostics{LookupID: lookupID, EvidenceCount: len(evidence)}
	diag.enter(StateStart)

	evidence = slices.Clone(evidence)
	rag.SortByScore(evidence)
	if len(evidence) > 0 {
		diag.TopScore = evidence[0].Score
	}

	res := o.evaluate(ctx, q, evidence, &diag)
	diag.DurationMS = time.Since(start).Milliseconds()
	diag.enter(StateDone)
	res.Diagnostics = diag
	return res
}

func (o *Orchestrator) evaluate(ctx context.Context, q catalog.Query, evidence []catalog.EvidenceChunk, diag *Diagnostics) *Result {
	diag.enter(StateCatalogCheck)
	diag.Presence = o.presence.Detect(evidence, q.Institution)
	if diag.Presence.NotFound {
		diag.Path = PathShortCircuit
		return catalogNotFound()
	}

	diag.enter(StateExtract)
	p, seen := o.extract(evidence, q)
	diag.RecordsSeen = seen
	if p == nil {
		diag.Path = PathShortCircuit
		if o.institutionAbsent(evidence, q.Institution) {
			return catalogNotFound()
		}
		res := &Result{Success: true, MatchType: catalog.MatchNone, Matches: []catalog.EquivalentMatch{}}
		res.missingDescription()
		return res
	}
	diag.PrimaryChunkID = p.chunk.ID
	diag.PrimaryScore = p.chunk.Score
	diag.Strategy = p.course.Strategy

	diag.enter(StateClassify)
	cls := catalog.Classify(q.Subject, q.Number, p.course.Subject, p.course.Number)
	det := o.deterministic(q, p, cls, evidence)

	diag.enter(StateDecideFallback)
	if cls.MatchType == catalog.MatchExact && p.chunk.Score >= o.cfg.Presence.TrustScore {
		diag.enter(StateFastDone)
		diag.Path = PathFast
		return det
	}

	return o.fallback(ctx, q, evidence, p, det, diag)
}

// extract folds over the ranked evidence. The first record whose description
// passes the length gate is primary. It also reports how many records were
// located at all.
func (o *Orchestrator) extract(evidence []catalog.EvidenceChunk, q catalog.Query) (*primary, int) {
	seen := 0
	for _, chunk := range evidence {
		rec := o.extractor.Extract(chunk.Text, q)
		if rec == nil {
			continue
		}
		seen++
		if catalog.ValidDescription(rec.Description, o.cfg.MinDescriptionLength) {
			return &primary{course: rec, chunk: chunk}, seen
		}
	}
	return nil, seen
}

// institutionAbsent re-checks a wider prefix for any token of the requested
// institution. Without an institution there is nothing to disprove, so the
// catalog is taken as present.
func (o *Orchestrator) institutionAbsent(evidence []catalog.EvidenceChunk, institution string) bool {
	if institution == "" {
		return false
	}
	found, _ := catalog.ScanInstitution(evidence, institution, o.cfg.WideScanLimit)
	return !found
}

// deterministic builds the result supported by the evidence alone.
func (o *Orchestrator) deterministic(q catalog.Query, p *primary, cls catalog.Classification, evidence []catalog.EvidenceChunk) *Result {
	res := &Result{
		Success:    true,
		MatchType:  cls.MatchType,
		Similarity: cls.Similarity,
		ReflectedCourse: Course{
			Institution: p.course.Institution,
			Subject:     p.course.Subject,
			Number:      p.course.Number,
			Title:       p.course.Title,
		},
		Matches: o.deterministicMatches(q, p, cls, evidence),
	}

	switch cls.MatchType {
	case catalog.MatchExact, catalog.MatchStrongFuzzy, catalog.MatchFuzzy:
		res.Description = p.course.Description
	default:
		res.missingDescription()
		res.Matches = []catalog.EquivalentMatch{}
	}
	return res
}

// deterministicMatches aggregates equivalents across every chunk for an
// exact record and uses the primary section otherwise.
func (o *Orchestrator) deterministicMatches(q catalog.Query, p *primary, cls catalog.Classification, evidence []catalog.EvidenceChunk) []catalog.EquivalentMatch {
	var matches []catalog.EquivalentMatch
	if cls.MatchType == catalog.MatchExact {
		matches = catalog.CollectAll(evidence, q.Institution, p.course.Subject, p.course.Number, o.cfg.TargetInstitution)
	}
	if len(matches) == 0 {
		for _, m := range p.course.Matches {
			if m.Usable() {
				matches = append(matches, m)
			}
		}
	}
	return mergeMatches(o.cfg.MaxMatches, matches)
}

func catalogNotFound() *Result {
	res := &Result{
		Success:   true,
		MatchType: catalog.MatchCatalogNotFound,
		Matches:   []catalog.EquivalentMatch{},
	}
	res.missingDescription()
	return res
}

func (o *Orchestrator) failure(ctx context.Context, diag *Diagnostics, err error, userMessage string) *Result {
	err = domerrors.NewWrapper("lookup", "lookup").Wrap(err, userMessage)
	diag.Path = PathFailed
	diag.Cause = err.Error()
	o.logger.WithError(err).WarnContext(ctx, "lookup failed")
	if o.reportError != nil {
		o.reportError(ctx, err)
	}
	return &Result{
		Success: false,
		Error:   domerrors.GetUserMessage(err),
		Matches: []catalog.EquivalentMatch{},
	}
}
