package dto

import (
	"time"

	"github.com/go-playground/validator/v10"

	"safesight/domain/services"
)

var validate = validator.New()

// DetectionEventRequest is the fixed-shape event record submitted by the
// producer pipelines, validated before it enters the ledger.
type DetectionEventRequest struct {
	IdentityCode    string    `json:"identityCode" validate:"required"`
	Confidence      float64   `json:"confidence" validate:"min=0,max=1"`
	Location        string    `json:"location"`
	SourceSessionID string    `json:"sourceSessionId" validate:"required"`
	ObservedAt      time.Time `json:"observedAt" validate:"required"`
}

func (r *DetectionEventRequest) Validate() error {
	return validate.Struct(r)
}

func (r *DetectionEventRequest) ToEvent() services.DetectionEvent {
	return services.DetectionEvent{
		IdentityCode:    r.IdentityCode,
		Confidence:      r.Confidence,
		Location:        r.Location,
		SourceSessionID: r.SourceSessionID,
		ObservedAt:      r.ObservedAt,
	}
}

// BatchDetectionRequest carries a batch pipeline submission.
type BatchDetectionRequest struct {
	Events []DetectionEventRequest `json:"events" validate:"required,min=1,dive"`
}

func (r *BatchDetectionRequest) Validate() error {
	return validate.Struct(r)
}

type DetectionResultResponse struct {
	Outcome       string `json:"outcome"`
	IdentityCode  string `json:"identityCode"`
	Day           string `json:"day,omitempty"`
	MarkedPresent bool   `json:"markedPresent"`
}

func DetectionResultToResponse(result *services.DetectionResult) *DetectionResultResponse {
	return &DetectionResultResponse{
		Outcome:       string(result.Outcome),
		IdentityCode:  result.IdentityCode,
		Day:           result.Day,
		MarkedPresent: result.MarkedPresent,
	}
}

type RecentDetectionResponse struct {
	IdentityCode string    `json:"identityCode"`
	Name         string    `json:"name"`
	DetectedAt   time.Time `json:"detectedAt"`
	Confidence   float64   `json:"confidence"`
	Location     string    `json:"location"`
	Accepted     bool      `json:"accepted"`
}

func RecentDetectionsToResponse(detections []services.RecentDetection) []RecentDetectionResponse {
	result := make([]RecentDetectionResponse, len(detections))
	for i, d := range detections {
		result[i] = RecentDetectionResponse{
			IdentityCode: d.IdentityCode,
			Name:         d.Name,
			DetectedAt:   d.DetectedAt,
			Confidence:   d.Confidence,
			Location:     d.Location,
			Accepted:     d.Accepted,
		}
	}
	return result
}
