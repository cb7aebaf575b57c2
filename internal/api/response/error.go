package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an error that knows the HTTP status it is reported with.
type Error struct {
	Code    int
	Message string
}

func (e Error) Error() string {
	return e.Message
}

func NewError(code int, message string) Error {
	return Error{
		Code:    code,
		Message: message,
	}
}

// WriteError reports err in the error envelope. Anything that is not an
// Error becomes a 500 without leaking its message.
func WriteError(c *gin.Context, err error) {
	var respErr Error
	if errors.As(err, &respErr) {
		ErrorResponse(c, respErr.Code, respErr.Message)
		return
	}
	_ = c.Error(err)
	ErrorResponse(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
