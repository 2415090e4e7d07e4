package http

import (
	"io"
	"net/http"

	"chart-annotator/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAnnotate(base *echo.Group) {
	v1 := base.Group("/v1")
	{
		v1.POST("/plan", h.buildPlan)
		v1.POST("/annotate", h.annotateUpload)
		v1.GET("/annotate/:symbol", h.annotateSymbol)
	}
}

// buildPlan validates a raw analysis and returns the annotation plan without
// rendering. UI code uses this for the structured summary view.
func (h *HttpAPIHandler) buildPlan(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.PlanRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	result, err := h.service.AnnotateService.PlanOnly(ctx, req.Analysis, dto.Theme(req.Theme))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to build plan", nil))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("plan built", result))
}

// annotateUpload renders annotations onto an uploaded chart image. The request
// is multipart: an "image" file, an "analysis" JSON field and an optional
// "theme" field.
func (h *HttpAPIHandler) annotateUpload(c echo.Context) error {
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("missing image file"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("cannot open image file"))
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("cannot read image file"))
	}

	rawAnalysis := c.FormValue("analysis")
	if rawAnalysis == "" {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("missing analysis field"))
	}

	result, err := h.service.AnnotateService.AnnotateImage(ctx, []byte(rawAnalysis), image, dto.Theme(c.FormValue("theme")))
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, dto.NewBaseResponse(http.StatusUnprocessableEntity, "could not render annotations", nil))
	}

	return c.Blob(http.StatusOK, "image/png", result.Image)
}

// annotateSymbol runs the full pipeline for a symbol: chart capture, AI
// analysis, validation, planning and rendering.
func (h *HttpAPIHandler) annotateSymbol(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.AnnotateSymbolRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	interval := req.Interval
	if interval == "" {
		interval = "1d"
	}

	result, err := h.service.AnnotateService.AnnotateSymbol(ctx, req.Symbol, interval, dto.Theme(req.Theme))
	if err != nil {
		return c.JSON(http.StatusBadGateway, dto.NewBaseResponse(http.StatusBadGateway, "could not render annotations", nil))
	}

	return c.Blob(http.StatusOK, "image/png", result.Image)
}
