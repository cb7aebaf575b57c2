package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Extras  any  `json:"extras"`
}

func NewResponse(success bool, code int, extras any) Response {
	return Response{
		Success: success,
		Code:    code,
		Extras:  extras,
	}
}

// SuccessResponse replies 200 with extras.
func SuccessResponse(c *gin.Context, extras any) {
	c.JSON(http.StatusOK, NewResponse(true, http.StatusOK, extras))
}

// CreatedResponse replies 201 with extras.
func CreatedResponse(c *gin.Context, extras any) {
	c.JSON(http.StatusCreated, NewResponse(true, http.StatusCreated, extras))
}

// ErrorResponse aborts the chain and replies code with {"message": message}.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, NewResponse(false, code, gin.H{"message": message}))
}
