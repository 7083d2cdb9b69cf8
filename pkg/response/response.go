package response

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

var exposeInternalDetail atomic.Bool

// ExposeInternalDetail toggles whether 5xx envelopes carry the wrapped error text.
func ExposeInternalDetail(enabled bool) {
	exposeInternalDetail.Store(enabled)
}

// Envelope represents the common success contract.
type Envelope struct {
	Message    string             `json:"message"`
	Data       interface{}        `json:"data"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// ErrorEnvelope represents the common failure contract.
type ErrorEnvelope struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, message string, data interface{}, pagination ...*models.Pagination) {
	noStore(c)
	envelope := Envelope{Message: message, Data: data}
	if len(pagination) > 0 {
		envelope.Pagination = pagination[0]
	}
	c.JSON(status, envelope)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, message, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, message, data)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	envelope := ErrorEnvelope{Message: appErr.Message, Detail: appErr.Detail}
	if appErr.Status >= http.StatusInternalServerError {
		envelope.Detail = ""
		if exposeInternalDetail.Load() && appErr.Err != nil {
			envelope.Detail = appErr.Err.Error()
		}
	} else if envelope.Detail == "" && appErr.Err != nil {
		envelope.Detail = appErr.Err.Error()
	}
	_ = c.Error(err)
	c.JSON(appErr.Status, envelope)
}

// File streams an attachment.
func File(c *gin.Context, filename, contentType string, body []byte) {
	noStore(c)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, body)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
