package lookup

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/garyellow/triangulator-go/internal/catalog"
	"github.com/garyellow/triangulator-go/internal/ctxutil"
	domerrors "github.com/garyellow/triangulator-go/internal/errors"
	"github.com/garyellow/triangulator-go/internal/genai"
	"github.com/garyellow/triangulator-go/internal/sliceutil"
	"github.com/garyellow/triangulator-go/internal/stringutil"
)

// Fallback outcomes for metrics.
const (
	fallbackSuccess     = "success"
	fallbackError       = "error"
	fallbackMalformed   = "malformed"
	fallbackUnavailable = "unavailable"
	fallbackThrottled   = "throttled"
)

// errFallbackThrottled is reported when the fallback gate rejects a client.
var errFallbackThrottled = fmt.Errorf("fallback: %w", domerrors.ErrRateLimitExceeded)

// fallback invokes the completer once and reconciles its answer. Any failure
// degrades to det, which already holds the deterministic findings.
func (o *Orchestrator) fallback(ctx context.Context, q catalog.Query, evidence []catalog.EvidenceChunk, p *primary, det *Result, diag *Diagnostics) *Result {
	if o.completer == nil {
		o.metrics.RecordFallback(fallbackUnavailable)
		diag.Path = PathDegraded
		return det
	}
	if o.gate != nil && !o.gate.Allow(ctxutil.GetClientID(ctx)) {
		o.metrics.RecordFallback(fallbackThrottled)
		diag.FallbackError = errFallbackThrottled.Error()
		diag.Path = PathDegraded
		return det
	}

	diag.enter(StateLLMFallback)
	diag.FallbackInvoked = true

	completion, err := o.completer.Complete(ctx, genai.Request{
		Query:     q.SearchText(),
		Context:   BuildContext(evidence, o.cfg.ContextChunks, o.cfg.ContextBudget),
		Candidate: p.course.Description,
	})
	if err != nil {
		o.metrics.RecordFallback(fallbackError)
		o.logger.WithError(err).WarnContext(ctx, "fallback failed, using deterministic result")
		diag.FallbackError = err.Error()
		diag.Path = PathDegraded
		return det
	}
	diag.FallbackProvider = completion.Provider.String()
	diag.FallbackModel = completion.Model

	answer, err := genai.ParseCatalogAnswer(completion.Text)
	if err != nil {
		o.metrics.RecordFallback(fallbackMalformed)
		o.logger.WithError(err).WarnContext(ctx, "fallback answer unparsable, using deterministic result",
			"provider", completion.Provider)
		diag.FallbackError = err.Error()
		diag.Path = PathDegraded
		return det
	}

	o.metrics.RecordFallback(fallbackSuccess)
	diag.enter(StateReconcile)
	diag.Path = PathFallback
	return o.reconcile(q, p, det, answer)
}

// reconcile merges the model's answer into the deterministic result. The
// model's own classification is never used: its subject and number are
// classified again against the request, and the stronger of that and the
// deterministic classification wins, ties going to the deterministic side.
// Model equivalents are only added when the model's course ranks at least as
// high as the deterministic one.
func (o *Orchestrator) reconcile(q catalog.Query, p *primary, det *Result, answer *genai.CatalogAnswer) *Result {
	if answer.CatalogMissing() {
		return catalogNotFound()
	}

	modelDesc := strings.TrimSpace(string(answer.Description))
	if len(modelDesc) < MinModelDescriptionLength || catalog.IsMissingDescription(modelDesc) {
		modelDesc = ""
	}

	res := *det
	res.Matches = nil

	subject := strings.ToUpper(strings.TrimSpace(string(answer.Subject)))
	number := strings.ToUpper(catalog.CleanNumber(string(answer.Number)))
	modelWins, modelAgrees := false, false
	var cls catalog.Classification
	if subject != "" && number != "" {
		cls = catalog.Classify(q.Subject, q.Number, subject, number)
		modelWins = rank(cls.MatchType) > rank(det.MatchType)
		modelAgrees = rank(cls.MatchType) >= rank(det.MatchType)
	}

	if modelWins {
		res.MatchType = cls.MatchType
		res.Similarity = cls.Similarity
		res.ReflectedCourse = Course{
			Institution: q.Institution,
			Subject:     subject,
			Number:      number,
			Title:       strings.TrimSpace(string(answer.Title)),
		}
		res.Description = ""
		res.DescriptionIsMissing = false
		switch {
		case modelDesc != "":
			res.Description = modelDesc
		case cls.Similarity >= o.cfg.DescriptionFillSimilarity:
			res.Description = p.course.Description
		}
	}
	if res.ReflectedCourse.Title == "" {
		res.ReflectedCourse.Title = strings.TrimSpace(string(answer.Title))
	}

	if res.MatchType == catalog.MatchNone || res.MatchType == catalog.MatchCatalogNotFound {
		res.missingDescription()
		res.Matches = []catalog.EquivalentMatch{}
		return &res
	}
	if res.Description == "" {
		res.missingDescription()
	}

	if modelAgrees {
		res.Matches = mergeMatches(o.cfg.MaxMatches, det.Matches, modelMatches(answer))
	} else {
		res.Matches = mergeMatches(o.cfg.MaxMatches, det.Matches)
	}
	return &res
}

// modelMatches converts the model's equivalents, dropping any without a
// subject and number or without a usable description.
func modelMatches(answer *genai.CatalogAnswer) []catalog.EquivalentMatch {
	var out []catalog.EquivalentMatch
	for _, m := range answer.Matches {
		em := catalog.EquivalentMatch{
			Subject:     strings.ToUpper(strings.TrimSpace(string(m.Subject))),
			Number:      strings.ToUpper(catalog.CleanNumber(string(m.Number))),
			Title:       strings.TrimSpace(string(m.Title)),
			Description: strings.TrimSpace(string(m.Description)),
		}
		if em.Subject == "" || em.Number == "" || !em.Usable() {
			continue
		}
		out = append(out, em)
	}
	return out
}

// mergeMatches concatenates groups in order, keeps the first match per
// SUBJECT::NUMBER key and stops at limit. The result is never nil.
func mergeMatches(limit int, groups ...[]catalog.EquivalentMatch) []catalog.EquivalentMatch {
	return sliceutil.Head(sliceutil.Deduplicate(slices.Concat(groups...), catalog.EquivalentMatch.Key), limit)
}

// BuildContext renders the leading chunks for the fallback prompt, highest
// score first, truncated to budget bytes.
func BuildContext(evidence []catalog.EvidenceChunk, chunks, budget int) string {
	if chunks <= 0 || chunks > len(evidence) {
		chunks = len(evidence)
	}

	var b strings.Builder
	for i, c := range evidence[:chunks] {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] id=%s score=%s\n%s", i+1, c.ID, strconv.FormatFloat(c.Score, 'f', -1, 64), strings.TrimSpace(c.Text))
	}

	if budget > 0 {
		return stringutil.Truncate(b.String(), budget)
	}
	return b.String()
}
