package response

import (
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform body every endpoint returns.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// defaultMessages maps status codes to their canonical phrase, used
// when the caller passes an empty message.
var defaultMessages = map[int]string{
	http.StatusOK:                  "OK",
	http.StatusCreated:             "Created",
	http.StatusAccepted:            "Accepted",
	http.StatusNoContent:           "No content",
	http.StatusBadRequest:          "Bad request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not found",
	http.StatusConflict:            "Conflict",
	http.StatusInternalServerError: "Internal server error",
	http.StatusNotImplemented:      "Not implemented",
	http.StatusBadGateway:          "Bad gateway",
	http.StatusServiceUnavailable:  "Service unavailable",
}

// JSON writes the envelope for statusCode. An empty message falls back
// to the per-status default, then to a generic success/failure phrase.
func JSON(c *gin.Context, statusCode int, message string, data interface{}) {
	success := statusCode >= 200 && statusCode < 300

	if message == "" {
		if m, ok := defaultMessages[statusCode]; ok {
			message = m
		} else if success {
			message = "Operation successful"
		} else {
			message = "Operation failed"
		}
	}

	c.JSON(statusCode, Envelope{
		Success: success,
		Message: capitalize(message),
		Data:    data,
	})
}

// capitalize upper-cases the leading rune only; the rest of the
// message keeps its casing.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Shortcut helpers for the common responses.

func OK(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, message, data)
}

func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, message, data)
}

func BadRequest(c *gin.Context, message string) {
	JSON(c, http.StatusBadRequest, message, nil)
}

func Unauthorized(c *gin.Context, message string) {
	JSON(c, http.StatusUnauthorized, message, nil)
}

func NotFound(c *gin.Context, message string) {
	JSON(c, http.StatusNotFound, message, nil)
}

func Conflict(c *gin.Context, message string) {
	JSON(c, http.StatusConflict, message, nil)
}

func InternalError(c *gin.Context, message string) {
	JSON(c, http.StatusInternalServerError, message, nil)
}
