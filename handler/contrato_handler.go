package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/export"
	"github.com/haycash/toolbox/service"
)

type ContratoHandler struct {
	contratoService *service.ContratoService
}

func NewContratoHandler(contratoService *service.ContratoService) *ContratoHandler {
	return &ContratoHandler{
		contratoService: contratoService,
	}
}

// ExtractContracts handles the POST /contrato/extract endpoint.
func (h *ContratoHandler) ExtractContracts(c *gin.Context) {
	log.Println("Received contract extraction request")

	form, err := c.MultipartForm()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to parse multipart form", err)
		return
	}

	files := form.File["files[]"]
	if len(files) == 0 {
		h.sendError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	request := &dto.ContractExtractRequest{Files: files}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	log.Printf("Processing %d contracts", len(files))

	response, err := h.contratoService.ExtractBatch(c.Request.Context(), request)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to extract contracts", err)
		return
	}

	if c.Query("format") == "xlsx" {
		data, name, err := export.ContractWorkbook(response)
		if err != nil {
			h.sendError(c, http.StatusInternalServerError, "Failed to build workbook", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, xlsxMIME, data)
		return
	}

	log.Println("Contract extraction completed successfully")
	c.JSON(http.StatusOK, response)
}

// sendError sends a structured error response
func (h *ContratoHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "CONTRACT_EXTRACTION_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
