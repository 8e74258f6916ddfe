// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the success envelopes shared by all endpoints and the
// helpers handlers use to finish a request. Failures are never rendered here:
// handlers attach a typed error with fail() and the ExceptionFilter middleware
// turns it into the uniform error body
//
//	HTTP/1.1 404 Not Found
//	{
//	  "statusCode": 404,
//	  "timestamp": "2025-01-01T12:00:00.000Z",
//	  "path": "/api/exception-logs/abc",
//	  "message": "exception log not found"
//	}
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "isSuccess": true, "message": "OK", "data": { ... } }
package handlers

import (
	"github.com/gin-gonic/gin"
)

// APIResponse is the standard success envelope.
type APIResponse struct {
	IsSuccess bool   `json:"isSuccess" example:"true"`
	Message   string `json:"message"   example:"OK"`
	Data      any    `json:"data,omitempty"`
}

// PaginatedAPIResponse is the success envelope for list endpoints.
type PaginatedAPIResponse struct {
	IsSuccess bool   `json:"isSuccess" example:"true"`
	Message   string `json:"message"   example:"OK"`
	Data      any    `json:"data"`
	Total     int64  `json:"total"     example:"42"`
	Page      int    `json:"page"      example:"1"`
	PageSize  int    `json:"pageSize"  example:"20"`
}

// fail attaches err to the context and aborts the chain. ExceptionFilter
// classifies err and writes the response.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, err error) { fail(c, err) }

// ok writes data wrapped in an APIResponse.
func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, APIResponse{IsSuccess: true, Message: message, Data: data})
}

// okPage writes a page of items wrapped in a PaginatedAPIResponse.
func okPage(c *gin.Context, status int, message string, items any, total int64, page, pageSize int) {
	c.JSON(status, PaginatedAPIResponse{
		IsSuccess: true,
		Message:   message,
		Data:      items,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	})
}
