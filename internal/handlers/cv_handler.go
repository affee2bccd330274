package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/recruit-dashboard/internal/models"
	"alfredoptarigan/recruit-dashboard/internal/services"
)

const (
	msgMissingJobOrFiles   = "Missing job_id or files"
	msgInvalidDuplicates   = "Missing or invalid duplicates data"
	formFieldJobID         = "job_id"
	formFieldFiles         = "files"
	formFieldFilesBrackets = "files[]"
)

type CVHandler struct {
	ingestion services.IngestionService
	resolver  services.ResolverService
	readFile  func(*multipart.FileHeader) ([]byte, error)
}

func NewCVHandler(ingestion services.IngestionService, resolver services.ResolverService) *CVHandler {
	return &CVHandler{
		ingestion: ingestion,
		resolver:  resolver,
		readFile:  readUploadedFile,
	}
}

// HandleUpload ingests a batch of CV files for one job. Per-file failures
// are part of the 200 response.
func (h *CVHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, msgMissingJobOrFiles)
	}

	jobID := ""
	if values := form.Value[formFieldJobID]; len(values) > 0 {
		jobID = strings.TrimSpace(values[0])
	}

	var headers []*multipart.FileHeader
	headers = append(headers, form.File[formFieldFiles]...)
	headers = append(headers, form.File[formFieldFilesBrackets]...)
	if jobID == "" || len(headers) == 0 {
		return badRequest(c, msgMissingJobOrFiles)
	}

	files := make([]services.UploadedFile, 0, len(headers))
	var readErrors []models.FileError
	for _, fh := range headers {
		content, err := h.readFile(fh)
		if err != nil {
			readErrors = append(readErrors, models.FileError{FileName: fh.Filename, Message: err.Error()})
			continue
		}
		files = append(files, services.UploadedFile{Name: fh.Filename, Content: content})
	}

	// nothing readable left to ingest, but the caller still gets the reasons
	if len(files) == 0 {
		result := models.NewIngestionResult()
		result.Errors = append(result.Errors, readErrors...)
		return c.JSON(result)
	}

	result, err := h.ingestion.Ingest(c.UserContext(), jobID, files)
	if err != nil {
		return err
	}
	result.Errors = append(result.Errors, readErrors...)

	return c.JSON(result)
}

// HandleProcess applies the caller's decision for each pending duplicate.
// An element that does not decode is reported as an error result in its
// position; the rest of the batch is still resolved.
func (h *CVHandler) HandleProcess(c *fiber.Ctx) error {
	var body struct {
		Duplicates json.RawMessage `json:"duplicates"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return badRequest(c, msgInvalidDuplicates)
	}

	raw := bytes.TrimSpace(body.Duplicates)
	if len(raw) == 0 || raw[0] != '[' {
		return badRequest(c, msgInvalidDuplicates)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return badRequest(c, msgInvalidDuplicates)
	}

	results := make([]models.ResolutionResult, len(elements))
	items := make([]models.ResolutionItem, 0, len(elements))
	positions := make([]int, 0, len(elements))
	for i, element := range elements {
		var item models.ResolutionItem
		if err := json.Unmarshal(element, &item); err != nil {
			results[i] = models.ResolutionResult{
				ExistingCVID: existingCVIDOf(element),
				Status:       models.ResolutionError,
				Message:      err.Error(),
			}
			continue
		}
		items = append(items, item)
		positions = append(positions, i)
	}

	if len(items) > 0 {
		for j, res := range h.resolver.Resolve(c.UserContext(), items) {
			if j < len(positions) {
				results[positions[j]] = res
			}
		}
	}

	return c.JSON(fiber.Map{
		"results": results,
	})
}

// existingCVIDOf pulls the id out of an element that failed to decode as a
// whole, so the error result can still be matched to its duplicate.
func existingCVIDOf(element json.RawMessage) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(element, &fields); err != nil {
		return ""
	}
	raw, ok := fields["existingCvId"]
	if !ok {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	return string(bytes.TrimSpace(raw))
}

func readUploadedFile(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return content, nil
}
