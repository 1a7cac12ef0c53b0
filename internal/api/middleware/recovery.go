package middleware

import (
	"context"
	"net/mail"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Koomefranklin/kise-results-backend/internal/api/handler"
	"github.com/Koomefranklin/kise-results-backend/pkg/mailer"
	"github.com/Koomefranklin/kise-results-backend/pkg/response"
	"github.com/Koomefranklin/kise-results-backend/pkg/tracker"
)

const errorMailTimeout = 10 * time.Second

// Recovery turns a panic into a 500, reports it to the error tracker and
// mails adminEmail when set
func Recovery(logger *zap.Logger, t tracker.Tracker, m mailer.Mailer, adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			err := tracker.PanicError(rec)
			requestID := RequestIDFrom(c)
			userID := c.GetString(handler.CtxUserID)

			logger.Error("panic recovered",
				zap.Error(err),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestID),
				zap.ByteString("stack", debug.Stack()),
			)

			if t != nil {
				t.Report(c.Request, err, map[string]interface{}{
					"request_id": requestID,
					"user_id":    userID,
				})
			}

			if m != nil && adminEmail != "" {
				msg := &mailer.Message{
					To:       []mail.Address{{Address: adminEmail}},
					Subject:  "Server error",
					Template: "server_error",
					Data: map[string]string{
						"Method":    c.Request.Method,
						"Path":      c.Request.URL.Path,
						"RequestID": requestID,
						"UserID":    userID,
						"Time":      time.Now().UTC().Format(time.RFC3339),
						"Error":     err.Error(),
					},
				}
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), errorMailTimeout)
					defer cancel()
					if err := m.Send(ctx, msg); err != nil {
						logger.Warn("failed to mail server error", zap.Error(err))
					}
				}()
			}

			if !c.Writer.Written() {
				response.InternalError(c)
			}
			c.Abort()
		}()

		c.Next()
	}
}
