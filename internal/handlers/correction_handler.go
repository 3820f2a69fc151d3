package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"habbit_backend/internal/middleware"
	"habbit_backend/internal/services"
	"habbit_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type CorrectionHandler struct {
	*BaseHandler
	correctionService services.CorrectionService
}

func NewCorrectionHandler(base *BaseHandler, correctionService services.CorrectionService) *CorrectionHandler {
	return &CorrectionHandler{
		BaseHandler:       base,
		correctionService: correctionService,
	}
}

func (h *CorrectionHandler) RegisterRoutes(r *gin.RouterGroup) {
	corrections := r.Group("/corrections")
	corrections.Use(middleware.AuthMiddleware())
	{
		corrections.POST("", h.CorrectText)
		corrections.POST("/stream", h.CorrectTextStream)
		corrections.GET("", h.ListCorrections)
		corrections.GET("/stats", h.GetStats)
		corrections.GET("/:correctionId", h.GetCorrection)
		corrections.DELETE("/:correctionId", h.DeleteCorrection)
	}
}

func (h *CorrectionHandler) CorrectText(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CorrectTextRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.correctionService.CorrectText(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CorrectTextStream serves the correction as server-sent events. Quota and
// existence failures surface as a normal JSON error before any event is
// written; once streaming starts, a failure arrives as an "error" event.
func (h *CorrectionHandler) CorrectTextStream(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CorrectTextRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	stream, err := h.correctionService.CorrectTextStream(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	c.Stream(func(w io.Writer) bool {
		chunk, open := <-stream
		if !open {
			fmt.Fprint(w, "data: [DONE]\n\n")
			return false
		}

		if chunk.Err != nil {
			payload, _ := json.Marshal(gin.H{"error": "correction stream failed"})
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
			return false
		}

		payload, _ := json.Marshal(gin.H{"content": chunk.Content})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		return true
	})
}

func (h *CorrectionHandler) ListCorrections(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	page, pageSize := ParsePagination(c)

	corrections, err := h.correctionService.ListUserCorrections(userID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"corrections": corrections,
		"page":        page,
		"perPage":     pageSize,
		"total":       len(corrections),
	})
}

func (h *CorrectionHandler) GetStats(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	stats, err := h.correctionService.GetUserStats(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *CorrectionHandler) GetCorrection(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	correction, err := h.correctionService.GetCorrection(userID, c.Param("correctionId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, correction)
}

func (h *CorrectionHandler) DeleteCorrection(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.correctionService.DeleteCorrection(userID, c.Param("correctionId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Correction deleted"})
}
