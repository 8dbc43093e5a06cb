package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/catalog"
	"github.com/spigell/salary-predictor/internal/model"
	"github.com/spigell/salary-predictor/internal/record"
)

type estimateResponse struct {
	Salary       float64           `json:"salary"`
	Normalized   record.Attributes `json:"normalized"`
	Insight      string            `json:"insight,omitempty"`
	InsightError string            `json:"insight_error,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) estimate(c *gin.Context) {
	log := s.requestLogger(c)

	withInsight := false
	if q := c.Query("insight"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			s.fail(c, http.StatusBadRequest, "invalid", errors.New("insight must be a boolean"))
			return
		}
		withInsight = v
	}

	body, err := c.GetRawData()
	if err != nil {
		s.fail(c, http.StatusBadRequest, "invalid", err)
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		s.fail(c, http.StatusBadRequest, "invalid", fmt.Errorf("decoding request body: %w", err))
		return
	}

	attrs, err := record.FromMap(raw)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "invalid", err)
		return
	}

	result, err := s.estimator.Estimate(c.Request.Context(), attrs, withInsight)
	if err != nil {
		status, outcome := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error("estimating salary", zap.Error(err))
		}
		s.fail(c, status, outcome, err)
		return
	}

	s.metrics.estimates.WithLabelValues("ok").Inc()
	s.metrics.salary.Observe(result.Salary)

	resp := estimateResponse{
		Salary:     result.Salary,
		Normalized: result.Normalized,
		Insight:    result.Insight,
	}
	if withInsight {
		outcome := "ok"
		if result.InsightErr != nil {
			outcome = "failed"
			resp.InsightError = result.InsightErr.Error()
		}
		s.metrics.insights.WithLabelValues(outcome).Inc()
	}

	c.JSON(http.StatusOK, resp)
}

// classify maps an estimate failure onto an HTTP status and a metrics outcome.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, record.ErrInvalidAttributes):
		return http.StatusBadRequest, "invalid"
	case errors.Is(err, model.ErrSchemaMismatch):
		return http.StatusUnprocessableEntity, "schema_mismatch"
	case model.IsResourceError(err):
		return http.StatusServiceUnavailable, "resource_unavailable"
	default:
		return http.StatusInternalServerError, "error"
	}
}

func (s *Server) fail(c *gin.Context, status int, outcome string, err error) {
	s.metrics.estimates.WithLabelValues(outcome).Inc()
	c.AbortWithStatusJSON(status, errorResponse{
		Error:     err.Error(),
		RequestID: c.GetString(keyRequestID),
	})
}

func (s *Server) listOptions(c *gin.Context) {
	cat := s.estimator.Catalog()

	fields := make(map[string][]string, len(cat.Fields()))
	for _, field := range cat.Fields() {
		options := cat.Options(field)
		if options == nil {
			options = []string{}
		}
		fields[field] = options
	}

	c.JSON(http.StatusOK, gin.H{
		"fields": fields,
		"empty":  cat.IsEmpty(),
	})
}

func (s *Server) fieldOptions(c *gin.Context) {
	cat := s.estimator.Catalog()
	field := c.Param("field")

	if !slices.Contains(cat.Fields(), field) {
		c.JSON(http.StatusNotFound, errorResponse{
			Error:     "unknown categorical field " + strconv.Quote(field),
			RequestID: c.GetString(keyRequestID),
		})
		return
	}

	options := cat.Options(field)
	if options == nil {
		options = []string{}
	}

	resp := gin.H{"field": field, "options": options}
	if minCount, ok := cat.Rule(field); ok {
		resp["min_count"] = minCount
		resp["sentinel"] = catalog.Other
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) health(c *gin.Context) {
	res := s.estimator.Resource()
	if !res.Loaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "model": res.Path()})
		return
	}

	p, err := res.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"model":   p.Describe(),
		"catalog": !s.estimator.Catalog().IsEmpty(),
	})
}
