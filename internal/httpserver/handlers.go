// Package httpserver exposes the service over HTTP: the sequence
// endpoint, statistics, health and Prometheus metrics.
package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fizzlabs/fizzbuzz-service/internal/fizzbuzz"
	"github.com/fizzlabs/fizzbuzz-service/internal/health"
	"github.com/fizzlabs/fizzbuzz-service/internal/sequence"
	"github.com/fizzlabs/fizzbuzz-service/internal/stats"
	"github.com/fizzlabs/fizzbuzz-service/pkg/logger"
)

// Handlers holds the endpoint dependencies.
type Handlers struct {
	sequence *sequence.Service
	stats    stats.Store
	health   *health.Checker
	log      *logger.Logger
}

// NewHandlers constructs the endpoint set.
func NewHandlers(seq *sequence.Service, store stats.Store, checker *health.Checker, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.NewDefault("http")
	}
	return &Handlers{sequence: seq, stats: store, health: checker, log: log}
}

// parseRequest builds a request from query parameters. Absent or
// non-numeric values become zero and fail validation with the canonical
// message for the field.
func parseRequest(c *gin.Context) fizzbuzz.Request {
	intParam := func(name string, fallback int) int {
		raw, ok := c.GetQuery(name)
		if !ok {
			return fallback
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0
		}
		return v
	}

	return fizzbuzz.Request{
		Start:    intParam("start", 1),
		Limit:    intParam("limit", 0),
		Divisor1: intParam("divisor1", 0),
		Divisor2: intParam("divisor2", 0),
		Str1:     c.Query("str1"),
		Str2:     c.Query("str2"),
	}
}

// FizzBuzz handles GET /fizzbuzz.
func (h *Handlers) FizzBuzz(c *gin.Context) {
	req := parseRequest(c)

	if err := fizzbuzz.Validate(req); err != nil {
		var fieldErrs fizzbuzz.FieldErrors
		details := []string{err.Error()}
		if errors.As(err, &fieldErrs) {
			details = fieldErrs.Details()
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "An error occurred",
			"details": details,
		})
		return
	}

	seq, err := h.sequence.Generate(c.Request.Context(), req)
	if err != nil {
		h.log.WithError(err).Error("sequence generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "An error occurred",
			"details": []string{"An unexpected error occurred"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sequence": seq,
		"count":    len(seq),
	})
}

// statisticsParameters mirrors the persisted request key in the
// statistics response.
type statisticsParameters struct {
	Limit    int    `json:"limit"`
	Divisor1 int    `json:"divisor1"`
	Divisor2 int    `json:"divisor2"`
	Str1     string `json:"str1"`
	Str2     string `json:"str2"`
}

// Statistics handles GET /fizzbuzz/statistics.
func (h *Handlers) Statistics(c *gin.Context) {
	rec, err := h.stats.MostFrequent(c.Request.Context())
	if errors.Is(err, stats.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "No FizzBuzz requests have been made yet.",
			"data":    nil,
		})
		return
	}
	if err != nil {
		h.log.WithError(err).Error("statistics lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "An internal error occurred",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"most_frequent_request": gin.H{
				"parameters": statisticsParameters{
					Limit:    rec.Request.Limit,
					Divisor1: rec.Request.Divisor1,
					Divisor2: rec.Request.Divisor2,
					Str1:     rec.Request.Str1,
					Str2:     rec.Request.Str2,
				},
				"hits": rec.Hits,
			},
		},
	})
}

// Health handles GET /health.
func (h *Handlers) Health(c *gin.Context) {
	report, healthy := h.health.CheckHealth(c.Request.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
