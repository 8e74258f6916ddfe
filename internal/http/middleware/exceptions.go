package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-api-boilerplate/internal/exceptions"
)

// ExceptionFilter is the single place where failures become HTTP responses.
//
// It recovers panics raised further down the chain and, after c.Next(),
// inspects c.Errors. Either way the failure goes through p.Catch, which logs
// it once and returns the status and body. The body is written only when the
// handler has not already written a response; the failure is logged in both
// cases.
//
// Handlers, guards and the rate limiter report failures with c.Error(err)
// followed by c.Abort(); they never render error bodies themselves. When more
// than one error is attached, the last one wins.
//
// http.ErrAbortHandler is re-panicked so net/http can drop the connection.
func ExceptionFilter(p *exceptions.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			render(c, p, rec)
		}()

		c.Next()

		if last := c.Errors.Last(); last != nil {
			render(c, p, last.Err)
		}
	}
}

func render(c *gin.Context, p *exceptions.Pipeline, failure any) {
	status, body := p.Catch(c.Request.Context(), failure, exceptions.Request{
		Path:   c.Request.URL.RequestURI(),
		Method: c.Request.Method,
	})
	if c.Writer.Written() {
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(status, body)
}
