package dto

import (
	"encoding/json"
	"net/http"
)

type BaseResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func NewBaseResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewBadRequestResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusBadRequest, message, nil)
}

func NewSuccessResponse(message string, data interface{}) *BaseResponse {
	return NewBaseResponse(http.StatusOK, message, data)
}

// PlanRequest asks for an annotation plan without rendering anything.
type PlanRequest struct {
	Analysis json.RawMessage `json:"analysis" validate:"required"`
	Theme    string          `json:"theme" validate:"omitempty,oneof=dark light"`
}

// AnnotateSymbolRequest drives the full collaborator path: fetch the chart,
// run the inference call, validate, plan and render.
type AnnotateSymbolRequest struct {
	Symbol   string `param:"symbol" validate:"required"`
	Interval string `query:"interval" validate:"omitempty,oneof=15m 1h 4h 1d 1w"`
	Theme    string `query:"theme" validate:"omitempty,oneof=dark light"`
}

// AnnotateResult bundles everything one pipeline pass produced. Image is the
// composited PNG; Plan is independently consumable by UI code that wants the
// structured summary without re-rendering.
type AnnotateResult struct {
	Analysis *Analysis       `json:"analysis"`
	Plan     *AnnotationPlan `json:"plan"`
	Image    []byte          `json:"-"`
}
