package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/export"
	"github.com/haycash/toolbox/service"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DocumentHandler struct {
	documentService *service.DocumentService
}

func NewDocumentHandler(documentService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// ExtractCSF handles the POST /csf/extract endpoint. With ?format=xlsx
// the batch comes back as the two-sheet workbook instead of JSON.
func (h *DocumentHandler) ExtractCSF(c *gin.Context) {
	log.Println("Received CSF extraction request")

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

	useOCR, _ := strconv.ParseBool(c.DefaultPostForm("use_ocr", "false"))
	matchSAT, _ := strconv.ParseBool(c.DefaultPostForm("match_sat", "true"))

	request := &dto.CSFExtractRequest{
		Files:    files,
		UseOCR:   useOCR,
		MatchSAT: matchSAT,
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	log.Printf("Processing %d files", len(files))

	response, err := h.documentService.ExtractBatch(c.Request.Context(), request)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to extract documents", err)
		return
	}

	if c.Query("format") == "xlsx" {
		data, name, err := export.CSFWorkbook(response)
		if err != nil {
			h.sendError(c, http.StatusInternalServerError, "Failed to build workbook", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, xlsxMIME, data)
		return
	}

	log.Println("CSF extraction completed successfully")
	c.JSON(http.StatusOK, response)
}

// sendError sends a structured error response
func (h *DocumentHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "EXTRACTION_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
