package response

import (
	"github.com/gin-gonic/gin"

	"tourly/internal/shared/apperr"
)

type StandardApiResponse struct {
	Status     string      `json:"status"`           // "success" or "error"
	StatusCode int         `json:"status_code"`      // HTTP status code
	Message    string      `json:"message"`          // Human-readable message
	Data       interface{} `json:"data,omitempty"`   // Payload for success
	Errors     interface{} `json:"errors,omitempty"` // Validation or error details
}

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps a domain error to the standard envelope. Typed errors
// carry their own HTTP status and stable reason code; anything else is a 500.
func RespondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.Code(err)

	var errors interface{}
	if code != "" {
		errors = map[string]string{"code": code}
	}
	RespondJSON(c, "error", status, err.Error(), nil, errors)
}
