package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"

	app "github.com/habitforge/bulk-user-import/internal/application/imports"
	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

type TemplateHandler struct {
	useCase app.BuildTemplate
}

func NewTemplateHandler(useCase app.BuildTemplate) *TemplateHandler {
	return &TemplateHandler{useCase: useCase}
}

func (h *TemplateHandler) Download(c echo.Context) error {
	format := domain.FileFormat(c.QueryParam("format"))
	if format == "" {
		format = domain.FormatCSV
	}

	out, err := h.useCase.Execute(c.Request().Context(), app.BuildTemplateInput{Format: format})
	if err != nil {
		if format != domain.FormatCSV && format != domain.FormatXLSX {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_format",
				Message: "format must be csv or xlsx",
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to build template",
		}})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+out.FileName+`"`)
	return c.Blob(http.StatusOK, out.ContentType, out.Content)
}
