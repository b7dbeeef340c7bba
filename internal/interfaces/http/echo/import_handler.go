package echo

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	app "github.com/habitforge/bulk-user-import/internal/application/imports"
	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

type importRunner interface {
	Enqueue(sessionKey string) error
	Cancel(sessionKey string)
}

type ImportHandler struct {
	prepare app.PrepareImport
	status  app.GetImportStatus
	reset   app.ResetImport
	runner  importRunner
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type validationDetails struct {
	RowErrors []domain.RowError `json:"row_errors"`
	Remainder int               `json:"remainder,omitempty"`
}

func NewImportHandler(prepare app.PrepareImport, status app.GetImportStatus, reset app.ResetImport, runner importRunner) *ImportHandler {
	return &ImportHandler{prepare: prepare, status: status, reset: reset, runner: runner}
}

// UploadFile receives the admin's file, parses and validates it whole, and
// caches the validated records in the durable session. Nothing is created
// remotely until Start.
func (h *ImportHandler) UploadFile(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "a file upload named \"file\" is required",
		}})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "uploaded file could not be read",
		}})
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "uploaded file could not be read",
		}})
	}

	sessionKey := strings.TrimSpace(c.FormValue("session_key"))
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}

	out, err := h.prepare.Execute(c.Request().Context(), app.PrepareImportInput{
		SessionKey:   sessionKey,
		FileName:     fileHeader.Filename,
		FileSize:     fileHeader.Size,
		Content:      content,
		SkipExisting: c.FormValue("skip_existing") == "true",
	})
	if err != nil {
		var failure *app.ValidationError
		if errors.As(err, &failure) {
			return c.JSON(http.StatusUnprocessableEntity, apiResponse{Error: &errorBody{
				Code:    "validation_failed",
				Message: failure.Error(),
				Details: validationDetails{RowErrors: failure.RowErrors, Remainder: failure.Remainder},
			}})
		}
		if errors.Is(err, app.ErrInvalidFile) || errors.Is(err, app.ErrUnsupportedFormat) || errors.Is(err, app.ErrNoRecords) {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_file",
				Message: err.Error(),
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to prepare import",
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *ImportHandler) Start(c echo.Context) error {
	sessionKey := c.Param("key")

	status, err := h.status.Execute(c.Request().Context(), sessionKey)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to load import session",
		}})
	}
	if status.Phase != domain.PhaseParsed && status.Phase != domain.PhaseUploading {
		return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{
			Code:    "not_ready",
			Message: "no validated records to upload in this session",
		}})
	}

	if err := h.runner.Enqueue(sessionKey); err != nil {
		return c.JSON(http.StatusServiceUnavailable, apiResponse{Error: &errorBody{
			Code:    "busy",
			Message: "import executor is busy, retry shortly",
		}})
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: map[string]string{
		"session_key": sessionKey,
		"status":      "uploading",
	}})
}

// Status doubles as the resume probe: after a reload the dashboard calls it
// first and resumes whenever the phase is not idle.
func (h *ImportHandler) Status(c echo.Context) error {
	out, err := h.status.Execute(c.Request().Context(), c.Param("key"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to load import session",
		}})
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *ImportHandler) Cancel(c echo.Context) error {
	sessionKey := c.Param("key")
	h.runner.Cancel(sessionKey)
	return c.JSON(http.StatusAccepted, apiResponse{Data: map[string]string{
		"session_key": sessionKey,
		"status":      "cancelling",
	}})
}

func (h *ImportHandler) Reset(c echo.Context) error {
	if err := h.reset.Execute(c.Request().Context(), c.Param("key")); err != nil {
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to reset import session",
		}})
	}
	return c.NoContent(http.StatusNoContent)
}
