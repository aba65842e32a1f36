// Package api contains the HTTP API contract of the settlement service.
// Version v1 represents the current stable API version.
package api

// Sheet API Requests

// FieldsRequest sets the export fields of a sheet. Both values end up as
// columns of a tab-delimited file, so tabs and line breaks are refused.
type FieldsRequest struct {
	Placement    string `json:"placement" validate:"required,notblank,singleline,max=120"`
	Denomination string `json:"denomination" validate:"required,notblank,singleline,max=120"`
}

// PlacementRequest sets one placement code for every sheet of a workbook
// that has none of its own.
type PlacementRequest struct {
	Placement string `json:"placement" validate:"required,notblank,singleline,max=120"`
}

// Responses

// StatusSuccess is the status of every successful envelope
const StatusSuccess = "success"

// DataResponse is the envelope of successful JSON responses
type DataResponse struct {
	Status string      `json:"status"`
	Count  *int        `json:"count,omitempty"`
	Data   interface{} `json:"data"`
}

// Success wraps data in a success envelope
func Success(data interface{}) DataResponse {
	return DataResponse{Status: StatusSuccess, Data: data}
}

// SuccessList wraps a collection and its size in a success envelope
func SuccessList(data interface{}, count int) DataResponse {
	return DataResponse{Status: StatusSuccess, Count: &count, Data: data}
}
