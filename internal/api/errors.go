package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/likekeeper/likekeeper/internal/capture"
)

// errorResponse is the wire shape of a failed request
type errorResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	ErrorCode string            `json:"error_code"`
	Details   map[string]string `json:"details,omitempty"`
}

// statusForKind maps capture error kinds to HTTP status codes
func statusForKind(kind capture.Kind) int {
	switch kind {
	case capture.KindValidation:
		return http.StatusUnprocessableEntity
	case capture.KindDuplicate:
		return http.StatusConflict
	case capture.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a classified capture error
func writeError(c *gin.Context, err error) {
	ce := capture.AsError(err)
	resp := errorResponse{
		Status:    "error",
		Message:   ce.Message,
		ErrorCode: string(ce.Kind),
		Details:   ce.Fields,
	}
	// Internal detail stays in the logs, not on the wire
	if ce.Kind == capture.KindInternal {
		resp.Message = "internal server error"
	}
	c.JSON(statusForKind(ce.Kind), resp)
}
