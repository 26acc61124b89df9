package app

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/garyellow/triangulator-go/internal/buildinfo"
	"github.com/garyellow/triangulator-go/internal/catalog"
	domerrors "github.com/garyellow/triangulator-go/internal/errors"
	"github.com/garyellow/triangulator-go/internal/logger"
	"github.com/garyellow/triangulator-go/internal/lookup"
	"github.com/garyellow/triangulator-go/internal/metrics"
	"github.com/garyellow/triangulator-go/internal/tcgpage"
)

// maxPageBody bounds an uploaded TCG page.
const maxPageBody = 8 << 20

// Lookuper runs one lookup. *lookup.Orchestrator satisfies it.
type Lookuper interface {
	Lookup(ctx context.Context, q catalog.Query) *lookup.Result
}

// PageFetcher downloads and parses a TCG page. *tcgpage.Fetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]tcgpage.Row, error)
}

// ReadinessFunc reports component details and an error when the service
// cannot answer lookups.
type ReadinessFunc func(ctx context.Context) (map[string]any, error)

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	Lookup  Lookuper
	Fetcher PageFetcher
	Ready   ReadinessFunc

	LookupTimeout   time.Duration
	BatchMaxQueries int
	BatchParallel   int

	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// Handler serves the lookup API.
type Handler struct {
	cfg HandlerConfig
}

// NewHandler creates a Handler. Missing limits take defaults.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.BatchMaxQueries <= 0 {
		cfg.BatchMaxQueries = 50
	}
	if cfg.BatchParallel <= 0 {
		cfg.BatchParallel = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewWithWriter("error", io.Discard)
	}
	return &Handler{cfg: cfg}
}

type errorBody struct {
	Error string `json:"error"`
}

type batchRequest struct {
	Queries []catalog.Query `json:"queries"`
}

type batchResponse struct {
	Results []*lookup.Result `json:"results"`
}

type parseRequest struct {
	URL string `json:"url"`
}

type parseResponse struct {
	Rows    []tcgpage.Row    `json:"rows"`
	Results []*lookup.Result `json:"results,omitempty"`
}

func (h *Handler) fail(c *gin.Context, status int, errorType, message string) {
	h.cfg.Metrics.RecordHTTPError(errorType, c.FullPath())
	c.AbortWithStatusJSON(status, errorBody{Error: message})
}

// lookupContext bounds a lookup by the configured timeout.
func (h *Handler) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.cfg.LookupTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.cfg.LookupTimeout)
}

// validQuery rejects requests the orchestrator could never answer.
func validQuery(q catalog.Query) bool {
	return strings.TrimSpace(q.Subject) != "" && catalog.ParseNumber(q.Number).Base != ""
}

// Lookup handles POST /api/v1/lookup.
func (h *Handler) Lookup(c *gin.Context) {
	var q catalog.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		h.fail(c, http.StatusBadRequest, "bad_request", "request body must be a JSON course query")
		return
	}
	if !validQuery(q) {
		h.fail(c, http.StatusBadRequest, "bad_request", "subject and a numeric course number are required")
		return
	}

	ctx, cancel := h.lookupContext(c.Request.Context())
	defer cancel()

	res := h.cfg.Lookup.Lookup(ctx, q)
	if !res.Success {
		h.cfg.Metrics.RecordHTTPError("lookup_failed", c.FullPath())
		c.JSON(http.StatusBadGateway, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// LookupBatch handles POST /api/v1/lookup/batch. Results keep the order of
// the queries; a failed lookup fills its slot without failing the batch.
func (h *Handler) LookupBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "bad_request", "request body must be {\"queries\": [...]}")
		return
	}
	switch n := len(req.Queries); {
	case n == 0:
		h.fail(c, http.StatusBadRequest, "bad_request", "queries must not be empty")
		return
	case n > h.cfg.BatchMaxQueries:
		h.fail(c, http.StatusRequestEntityTooLarge, "batch_too_large", "too many queries in one batch")
		return
	}

	c.JSON(http.StatusOK, batchResponse{Results: h.runBatch(c.Request.Context(), req.Queries)})
}

func (h *Handler) runBatch(ctx context.Context, queries []catalog.Query) []*lookup.Result {
	results := make([]*lookup.Result, len(queries))

	var g errgroup.Group
	g.SetLimit(h.cfg.BatchParallel)
	for i, q := range queries {
		g.Go(func() error {
			lctx, cancel := h.lookupContext(ctx)
			defer cancel()
			results[i] = h.cfg.Lookup.Lookup(lctx, q)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ParsePage handles POST /api/v1/tcg/parse. The body is either an HTML page
// or {"url": "..."} naming one to fetch. With ?lookup=true every parsed row
// is also looked up.
func (h *Handler) ParsePage(c *gin.Context) {
	rows, ok := h.pageRows(c)
	if !ok {
		return
	}

	resp := parseResponse{Rows: rows}
	if c.Query("lookup") == "true" && len(rows) > 0 {
		if len(rows) > h.cfg.BatchMaxQueries {
			h.fail(c, http.StatusRequestEntityTooLarge, "batch_too_large", "too many rows to look up")
			return
		}
		queries := make([]catalog.Query, len(rows))
		for i, row := range rows {
			queries[i] = row.Query()
		}
		resp.Results = h.runBatch(c.Request.Context(), queries)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) pageRows(c *gin.Context) ([]tcgpage.Row, bool) {
	if c.ContentType() == gin.MIMEJSON {
		var req parseRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
			h.fail(c, http.StatusBadRequest, "bad_request", "request body must be {\"url\": \"...\"}")
			return nil, false
		}
		if h.cfg.Fetcher == nil {
			h.fail(c, http.StatusNotImplemented, "fetch_disabled", "page fetching is not enabled")
			return nil, false
		}
		rows, err := h.cfg.Fetcher.Fetch(c.Request.Context(), req.URL)
		if err != nil {
			status := domerrors.HTTPStatus(err)
			if status == http.StatusInternalServerError {
				status = http.StatusBadGateway
			}
			h.cfg.Logger.WithError(err).WarnContext(c.Request.Context(), "TCG page fetch failed")
			h.fail(c, status, "fetch_failed", "could not fetch the page")
			return nil, false
		}
		return rows, true
	}

	rows, err := tcgpage.Parse(http.MaxBytesReader(c.Writer, c.Request.Body, maxPageBody))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "bad_request", "request body is not a readable HTML page")
		return nil, false
	}
	return rows, true
}

// Livez handles /livez. It never checks dependencies.
func (h *Handler) Livez(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "version": buildinfo.Release()})
}

// Readyz handles /readyz.
func (h *Handler) Readyz(c *gin.Context) {
	if h.cfg.Ready == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	details, err := h.cfg.Ready(c.Request.Context())
	body := gin.H{"status": "ready"}
	for k, v := range details {
		body[k] = v
	}
	if err != nil {
		h.cfg.Logger.WithError(err).WarnContext(c.Request.Context(), "Readiness check failed")
		body["status"] = "not ready"
		body["reason"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
