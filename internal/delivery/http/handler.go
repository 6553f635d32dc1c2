package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stockmatch/backend/internal/domain"
	"github.com/stockmatch/backend/internal/usecase"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// StatusClientClosedRequest is reported when the client goes away mid-request
const StatusClientClosedRequest = 499

// MaxBatchSize bounds the number of requests accepted by the batch endpoint
const MaxBatchSize = 100

// BatchRunner matches many requests at once
type BatchRunner interface {
	MatchAll(ctx context.Context, requests []domain.ProductRequest) ([]usecase.BatchResult, error)
}

// HierarchyLookup resolves the property hierarchy for a category
type HierarchyLookup interface {
	Hierarchy(category string) (domain.PropertyHierarchy, bool)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	matcher     usecase.Matcher
	batch       BatchRunner
	hierarchies HierarchyLookup
	logger      zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(matcher usecase.Matcher, batch BatchRunner, hierarchies HierarchyLookup, logger zerolog.Logger) *Handler {
	return &Handler{
		matcher:     matcher,
		batch:       batch,
		hierarchies: hierarchies,
		logger:      logger,
	}
}

// BatchRequest is the body of POST /api/v1/match/batch
type BatchRequest struct {
	Requests []domain.ProductRequest `json:"requests"`
}

// BatchItemResponse is the outcome of one request in a batch
type BatchItemResponse struct {
	Index        int                     `json:"index"`
	Matches      []domain.InventoryMatch `json:"matches"`
	Flags        []domain.ReviewFlag     `json:"flags"`
	AppliedDepth int                     `json:"appliedDepth"`
	Error        string                  `json:"error,omitempty"`
}

// BatchResponse is the body returned by POST /api/v1/match/batch
type BatchResponse struct {
	Results []BatchItemResponse `json:"results"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "stockmatch",
		"version": Version,
	})
}

// MatchProduct ranks inventory items for one product request
func (h *Handler) MatchProduct(c *gin.Context) {
	var req domain.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	if err := validateRequest(&req); err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.matcher.Match(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MatchBatch ranks inventory items for many product requests. A failure on one
// request is reported on its result and does not fail the batch.
func (h *Handler) MatchBatch(c *gin.Context) {
	var body BatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	if len(body.Requests) == 0 {
		h.writeError(c, fmt.Errorf("%w: requests must not be empty", domain.ErrInvalidRequest))
		return
	}
	if len(body.Requests) > MaxBatchSize {
		h.writeError(c, fmt.Errorf("%w: at most %d requests per batch", domain.ErrInvalidRequest, MaxBatchSize))
		return
	}
	for i := range body.Requests {
		if err := validateRequest(&body.Requests[i]); err != nil {
			h.writeError(c, fmt.Errorf("request %d: %w", i, err))
			return
		}
	}

	results, err := h.batch.MatchAll(c.Request.Context(), body.Requests)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := BatchResponse{Results: make([]BatchItemResponse, 0, len(results))}
	for _, r := range results {
		item := BatchItemResponse{
			Index:   r.Index,
			Matches: []domain.InventoryMatch{},
			Flags:   []domain.ReviewFlag{},
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
		} else if r.Result != nil {
			if r.Result.Matches != nil {
				item.Matches = r.Result.Matches
			}
			if r.Result.Flags != nil {
				item.Flags = r.Result.Flags
			}
			item.AppliedDepth = r.Result.AppliedDepth
		}
		resp.Results = append(resp.Results, item)
	}

	c.JSON(http.StatusOK, resp)
}

// GetHierarchy returns the property importance order for a category
func (h *Handler) GetHierarchy(c *gin.Context) {
	category := strings.TrimSpace(c.Param("category"))

	hierarchy, registered := h.hierarchies.Hierarchy(category)
	if !registered {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("no hierarchy registered for category %q", category),
		})
		return
	}
	if hierarchy.PropertyOrder == nil {
		hierarchy.PropertyOrder = []string{}
	}

	c.JSON(http.StatusOK, hierarchy)
}

func validateRequest(req *domain.ProductRequest) error {
	if strings.TrimSpace(req.Category) == "" {
		return fmt.Errorf("%w: category is required", domain.ErrInvalidRequest)
	}
	for i, p := range req.Properties {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: property %d has no name", domain.ErrInvalidRequest, i)
		}
	}
	return nil
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		status = StatusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrCatalogUnavailable):
		status = http.StatusServiceUnavailable
	}

	event := h.logger.Warn()
	if status == http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).
		Str("request_id", c.GetString(requestIDKey)).
		Int("status", status).
		Msg("request failed")

	c.JSON(status, gin.H{"error": err.Error()})
}
