package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wallet-ledger-engine/internal/api_gateway/middleware"
)

// Response is the envelope of every gateway reply. Data and Error may both be
// set when a failed operation still produced a record, e.g. a cancelled approval.
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo describes the page returned by list endpoints
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

func newPageMeta(page, perPage, totalItems int) *MetaInfo {
	meta := &MetaInfo{Page: page, PerPage: perPage, TotalItems: totalItems}
	if perPage > 0 {
		meta.TotalPages = (totalItems + perPage - 1) / perPage
	}
	return meta
}

// write stamps the request's correlation id on the envelope
func write(c *gin.Context, statusCode int, response Response) {
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	write(c, statusCode, Response{Data: data})
}

func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	write(c, statusCode, Response{Error: &ErrorInfo{Code: code, Message: message}})
}

// RespondWithDataAndError reports a failure together with the record it left behind
func RespondWithDataAndError(c *gin.Context, statusCode int, data interface{}, code, message string) {
	write(c, statusCode, Response{Data: data, Error: &ErrorInfo{Code: code, Message: message}})
}

func RespondWithPaginatedData(c *gin.Context, statusCode int, data interface{}, page, perPage, totalItems int) {
	write(c, statusCode, Response{Data: data, Meta: newPageMeta(page, perPage, totalItems)})
}

func RespondOK(c *gin.Context, data interface{}) { RespondWithData(c, http.StatusOK, data) }

func RespondCreated(c *gin.Context, data interface{}) { RespondWithData(c, http.StatusCreated, data) }

// RespondAccepted is used for withdrawal requests, which wait for an admin review
func RespondAccepted(c *gin.Context, data interface{}) { RespondWithData(c, http.StatusAccepted, data) }

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

func RespondConflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, "CONFLICT", message)
}

func RespondUnprocessable(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusUnprocessableEntity, code, message)
}

// RespondServiceUnavailable asks the client to retry after retryAfter seconds
func RespondServiceUnavailable(c *gin.Context, retryAfter, message string) {
	c.Header("Retry-After", retryAfter)
	RespondWithError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}
