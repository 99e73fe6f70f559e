package api

import (
	"net/http"

	"codefusion/internal/sse"
	"codefusion/pkg/types"

	ginsse "github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgPromptRequired = "Prompt is required"
	msgReviewFailed   = "Review failed"
)

func bindReview(c *gin.Context) (types.ReviewRequest, bool) {
	var req types.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		if bodyTooLarge(err) {
			errorJSON(c, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return req, false
		}
		errorJSON(c, http.StatusBadRequest, msgPromptRequired)
		return req, false
	}
	return req, true
}

// ReviewCode returns the model's review as plain text
func (s *GinServer) ReviewCode(c *gin.Context) {
	req, ok := bindReview(c)
	if !ok {
		return
	}

	text, err := s.services.CodeReviewerService.Review(c.Request.Context(), req.Code)
	if err != nil {
		s.logger.Error("review error", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, msgReviewFailed)
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// StartReviewStream starts a background review and returns the job id to
// subscribe to.
func (s *GinServer) StartReviewStream(c *gin.Context) {
	req, ok := bindReview(c)
	if !ok {
		return
	}

	id := s.sseHub.NewJob()
	s.logger.Info("review job created", zap.String("id", id), zap.Int("code_length", len(req.Code)))
	c.JSON(http.StatusAccepted, gin.H{"id": id})

	go func() {
		// outlives the request; cancelled when the server closes
		err := s.services.CodeReviewerService.StreamReview(s.ctx, req.Code, func(chunk string) error {
			s.sseHub.Send(id, chunk)
			return nil
		})
		if err != nil {
			s.logger.Error("review job failed", zap.String("id", id), zap.Error(err))
			s.sseHub.Send(id, "ERROR: "+msgReviewFailed)
		}
		s.logger.Info("review job completed", zap.String("id", id))
		s.sseHub.Send(id, sse.DoneMessage)
	}()
}

// StreamHandler attaches client to SSE stream
func (s *GinServer) StreamHandler(c *gin.Context) {
	id := c.Param("id")

	client := s.sseHub.AddClient(id)
	if client == nil {
		errorJSON(c, http.StatusNotFound, "Unknown review job")
		return
	}
	defer s.sseHub.RemoveClient(id, client)

	c.Header("Content-Type", ginsse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	for {
		for _, msg := range client.Drain() {
			c.SSEvent("message", msg)
			c.Writer.Flush()
			if msg == sse.DoneMessage {
				return
			}
		}

		select {
		case <-client.Ready():
		case <-c.Request.Context().Done():
			s.logger.Info("stream client disconnected", zap.String("id", id))
			return
		}
	}
}
