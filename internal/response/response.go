// Package response provides the unified API envelope: status (HTTP code), message, data.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the envelope of every API response.
type Body struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// List wraps a page of items.
type List struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page,omitempty"`
	Limit int         `json:"limit,omitempty"`
}

// Success sends a successful response with status code, message and optional data.
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	if message == "" {
		message = MsgSuccess
	}
	c.JSON(statusCode, Body{Status: statusCode, Message: message, Data: data})
}

func OK(c *gin.Context, data interface{}) {
	Success(c, http.StatusOK, MsgSuccess, data)
}

func Created(c *gin.Context, data interface{}) {
	Success(c, http.StatusCreated, MsgCreated, data)
}

// Error sends an error response; data is nil.
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Body{Status: statusCode, Message: message, Data: nil})
}

// ErrorWithData sends an error response with details, e.g. the failing field.
func ErrorWithData(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Body{Status: statusCode, Message: message, Data: data})
}

// AbortWithError aborts the chain and sends the error envelope (for middleware).
func AbortWithError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, Body{Status: statusCode, Message: message, Data: nil})
}

const (
	MsgSuccess = "success"
	MsgCreated = "created"
)
