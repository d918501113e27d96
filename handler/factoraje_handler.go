package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/export"
	"github.com/haycash/toolbox/service"
)

type FactorajeHandler struct {
	factorajeService *service.FactorajeService
}

func NewFactorajeHandler(factorajeService *service.FactorajeService) *FactorajeHandler {
	return &FactorajeHandler{
		factorajeService: factorajeService,
	}
}

// BuildReport handles the POST /factoraje/report endpoint. The body is
// JSON; ?format=xlsx downloads the grouped workbook.
func (h *FactorajeHandler) BuildReport(c *gin.Context) {
	log.Println("Received factoraje report request")

	var request dto.FactorajeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	log.Printf("Building report for %d RFCs (source=%s)", len(request.RFCList()), request.Source)

	response, err := h.factorajeService.BuildReport(c.Request.Context(), &request)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	if c.Query("format") == "xlsx" {
		data, name, err := export.FactorajeWorkbook(response)
		if err != nil {
			h.sendError(c, http.StatusInternalServerError, "Failed to build workbook", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, xlsxMIME, data)
		return
	}

	log.Println("Factoraje report completed successfully")
	c.JSON(http.StatusOK, response)
}

// Status handles the GET /factoraje/status endpoint with the outcome of
// the last Syntage call.
func (h *FactorajeHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.factorajeService.APIStatus())
}

// sendError sends a structured error response
func (h *FactorajeHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "REPORT_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
