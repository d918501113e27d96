package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/service"
)

type LeadsHandler struct {
	leadsService *service.LeadsService
}

func NewLeadsHandler(leadsService *service.LeadsService) *LeadsHandler {
	return &LeadsHandler{
		leadsService: leadsService,
	}
}

// List handles the GET /leads endpoint. reviewed=true switches to the
// reviewed view; from/to and statuses narrow the pending one.
func (h *LeadsHandler) List(c *gin.Context) {
	reviewed, _ := strconv.ParseBool(c.DefaultQuery("reviewed", "false"))

	request := &dto.LeadsQueryRequest{
		Reviewed: reviewed,
		From:     c.Query("from"),
		To:       c.Query("to"),
		Statuses: c.QueryArray("statuses"),
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	response, err := h.leadsService.List(request)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to list leads", err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// MarkReviewed handles the POST /leads/review endpoint.
func (h *LeadsHandler) MarkReviewed(c *gin.Context) {
	var request dto.LeadsReviewRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	if err := h.leadsService.MarkReviewed(&request); err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to mark leads", err)
		return
	}

	log.Printf("Marked %d leads as reviewed by %s", len(request.LeadIDs), request.ReviewedBy)
	c.JSON(http.StatusOK, dto.LeadsReviewResponse{
		Marked:     len(request.LeadIDs),
		ReviewedBy: request.ReviewedBy,
	})
}

// ResetReviews handles the POST /leads/review/reset endpoint.
func (h *LeadsHandler) ResetReviews(c *gin.Context) {
	if err := h.leadsService.ResetReviews(); err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to reset reviews", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// sendError sends a structured error response
func (h *LeadsHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "LEADS_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
