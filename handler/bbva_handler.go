package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/service"
)

// bbvaMIME declares the latin-1 payload of the layout file.
const bbvaMIME = "text/plain; charset=iso-8859-1"

type BBVAHandler struct {
	bbvaService *service.BBVAService
}

func NewBBVAHandler(bbvaService *service.BBVAService) *BBVAHandler {
	return &BBVAHandler{
		bbvaService: bbvaService,
	}
}

// Generate handles the POST /bbva/generate endpoint. The default
// response is the layout file itself; ?format=json returns only the
// generation summary.
func (h *BBVAHandler) Generate(c *gin.Context) {
	log.Println("Received BBVA layout request")

	file, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "No dispersion file provided", err)
		return
	}

	request := &dto.BBVARequest{
		File:      file,
		FechaProc: c.PostForm("fecha_proc"),
		RefStart:  c.PostForm("ref_start"),
		Block:     c.PostForm("block"),
	}
	if tmpl, err := c.FormFile("template"); err == nil {
		request.Template = tmpl
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	data, response, err := h.bbvaService.Generate(request)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to generate layout", err)
		return
	}

	log.Printf("Generated %s: %d records", response.Filename, response.Records)

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, response)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+response.Filename+`"`)
	c.Data(http.StatusOK, bbvaMIME, data)
}

// sendError sends a structured error response
func (h *BBVAHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "LAYOUT_GENERATION_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
