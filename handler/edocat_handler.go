package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/service"
)

type EdocatHandler struct {
	edocatService *service.EdocatService
}

func NewEdocatHandler(edocatService *service.EdocatService) *EdocatHandler {
	return &EdocatHandler{
		edocatService: edocatService,
	}
}

// ReadStatement handles the POST /edocat/read endpoint.
func (h *EdocatHandler) ReadStatement(c *gin.Context) {
	log.Println("Received bank statement request")

	file, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "No statement file provided", err)
		return
	}

	request := &dto.EdocatRequest{
		File: file,
		Lang: c.PostForm("lang"),
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	response, err := h.edocatService.Read(request)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to read statement", err)
		return
	}

	log.Printf("Statement read: %d pages", response.Pages)
	c.JSON(http.StatusOK, response)
}

// sendError sends a structured error response
func (h *EdocatHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "STATEMENT_READ_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
