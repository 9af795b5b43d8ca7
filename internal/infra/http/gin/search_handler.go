package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staysearch/internal/app/dto"
	"staysearch/internal/app/handlers/properties"
	"staysearch/internal/app/queries"
	domain "staysearch/internal/domain/search"
)

const (
	msgRephrase    = "We couldn't understand that search. Please rephrase it and try again."
	msgUnavailable = "Listing sources are temporarily unavailable. Please try again in a few moments."
	msgInternal    = "Something went wrong while searching. Please try again later."
)

// SearchHandler wires property queries to HTTP.
type SearchHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

type searchRequest struct {
	Query   string `json:"query"`
	Filters *struct {
		Amenities     []string `json:"amenities"`
		PropertyTypes []string `json:"propertyTypes"`
	} `json:"filters"`
}

type suggestRequest struct {
	PartialQuery string `json:"partial_query"`
}

type envelope struct {
	Success bool               `json:"success"`
	Data    *dto.SearchResults `json:"data,omitempty"`
	Message string             `json:"message,omitempty"`
}

func (h SearchHandler) Search(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, envelope{Message: msgUnavailable})
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Message: msgRephrase})
		return
	}
	query := properties.SearchPropertiesQuery{Query: req.Query}
	if req.Filters != nil {
		query.Amenities = req.Filters.Amenities
		query.PropertyTypes = req.Filters.PropertyTypes
	}

	result, err := queries.Ask[properties.SearchPropertiesQuery, dto.SearchResults](c.Request.Context(), h.Queries, query)
	if err != nil {
		code, message := searchFailure(err)
		if code >= http.StatusInternalServerError {
			h.logger().Warn("search request failed", "status", code, "kind", domain.KindOf(err), "error", err)
		}
		c.JSON(code, envelope{Message: message})
		return
	}
	message := result.Summary
	if message == "" {
		message = fmt.Sprintf("Found %d properties matching your search.", result.Total)
	}
	c.JSON(http.StatusOK, envelope{Success: true, Data: &result, Message: message})
}

func (h SearchHandler) Property(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, envelope{Message: msgUnavailable})
		return
	}
	result, err := queries.Ask[properties.GetPropertyQuery, dto.PropertyDetails](c.Request.Context(), h.Queries, properties.GetPropertyQuery{ID: c.Param("id")})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			c.JSON(http.StatusBadRequest, envelope{Message: err.Error()})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, envelope{Message: "Property not found"})
		case errors.Is(err, domain.ErrUpstreamError):
			h.logger().Warn("property lookup failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, envelope{Message: msgUnavailable})
		default:
			h.logger().Warn("property request failed", "error", err)
			c.JSON(http.StatusInternalServerError, envelope{Message: msgInternal})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SearchHandler) Suggest(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, envelope{Message: "suggestions unavailable"})
		return
	}
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Message: "partial_query must be a string"})
		return
	}
	result, err := queries.Ask[properties.SuggestQuery, dto.Suggestions](c.Request.Context(), h.Queries, properties.SuggestQuery{Partial: req.PartialQuery})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, envelope{Message: err.Error()})
			return
		}
		h.logger().Warn("suggest request failed", "error", err)
		c.JSON(http.StatusInternalServerError, envelope{Message: msgInternal})
		return
	}
	c.JSON(http.StatusOK, result)
}

// searchFailure maps engine errors onto a status and a user-facing message.
func searchFailure(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		var typed *domain.Error
		if errors.As(err, &typed) && typed.Message != "" {
			return http.StatusBadRequest, fmt.Sprintf("We couldn't understand that search (%s). Please rephrase it and try again.", typed.Message)
		}
		return http.StatusBadRequest, msgRephrase
	case errors.Is(err, domain.ErrAllSourcesFailed):
		return http.StatusServiceUnavailable, msgUnavailable
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (h SearchHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ SearchHTTP = SearchHandler{}
