package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/forkful/forkful/backend/pkg/apperrors"
	"github.com/forkful/forkful/backend/pkg/logger"
)

// Fail records err on the context and stops the handler chain. ErrorHandler
// renders it.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last error recorded by a handler as
// {"error", "code"}. Internal error details are only exposed when
// exposeDetails is set; they are always logged.
func ErrorHandler(exposeDetails bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		code := apperrors.CodeOf(err)
		body := gin.H{"error": apperrors.MessageOf(err), "code": code}
		if code == apperrors.CodeInternal {
			logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
			if exposeDetails {
				body["details"] = err.Error()
			}
		}
		c.JSON(apperrors.HTTPStatus(err), body)
	}
}
