package routes

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rm-hull/ev-partner-gateway/internal"
	"github.com/rm-hull/ev-partner-gateway/internal/actions"
	"github.com/rm-hull/ev-partner-gateway/internal/models"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 64 << 10

type ActionDispatcher interface {
	Dispatch(ctx context.Context, req models.ActionRequest) (any, error)
}

// Gateway is the single action endpoint. Preflight requests are answered straight away; everything
// else is decoded as {"action": ..., ...params} and dispatched.
func Gateway(dispatcher ActionDispatcher) func(c *gin.Context) {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusOK)
			return
		}

		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
			if err != nil {
				respondError(c, internal.NewValidationError("Malformed request body"))
				return
			}
		}

		req, err := actions.ParseRequest(body)
		if err != nil {
			respondError(c, err)
			return
		}

		// Partner calls run to completion even if the caller goes away; the response is discarded.
		ctx := context.WithoutCancel(c.Request.Context())
		ctx = context.WithValue(ctx, actions.RequestIDKey, c.GetString(requestIdHeader))

		data, err := dispatcher.Dispatch(ctx, req)
		if err != nil {
			respondError(c, err)
			return
		}

		if c.Request.Context().Err() != nil {
			log.WithField("action", req.Action).Warn("Client went away before the response was ready")
		}
		c.JSON(http.StatusOK, models.Envelope{Success: true, Data: data})
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(EnvelopeFor(err))
}

// EnvelopeFor maps a failed request to its status code and response body. Validation problems get a
// bare {"error": ...}; everything else tells the caller to fall back to mock data.
func EnvelopeFor(err error) (int, any) {
	status := internal.HTTPStatus(err)
	message := internal.PublicMessage(err)

	if status == http.StatusBadRequest {
		return status, gin.H{"error": message}
	}

	return status, models.Envelope{
		Success:     false,
		Error:       message,
		UseMockData: true,
	}
}
