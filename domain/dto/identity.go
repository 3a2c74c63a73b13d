package dto

import (
	"time"

	"safesight/domain/models"
	"safesight/domain/services"
)

type RegisterIdentityRequest struct {
	Code       string `json:"code" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"department"`
}

func (r *RegisterIdentityRequest) Validate() error {
	return validate.Struct(r)
}

func (r *RegisterIdentityRequest) ToInput() services.RegisterIdentityInput {
	return services.RegisterIdentityInput{
		Code:       r.Code,
		Name:       r.Name,
		Department: r.Department,
	}
}

type UpdateIdentityRequest struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
}

func (r *UpdateIdentityRequest) ToInput() services.UpdateIdentityInput {
	return services.UpdateIdentityInput{
		Name:       r.Name,
		Department: r.Department,
	}
}

type IdentityResponse struct {
	Code               string    `json:"code"`
	Name               string    `json:"name"`
	Department         string    `json:"department"`
	RecognitionEnabled bool      `json:"recognitionEnabled"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func IdentityToResponse(identity *models.Identity) *IdentityResponse {
	return &IdentityResponse{
		Code:               identity.Code,
		Name:               identity.Name,
		Department:         identity.Department,
		RecognitionEnabled: identity.RecognitionEnabled,
		Active:             identity.Active,
		CreatedAt:          identity.CreatedAt,
		UpdatedAt:          identity.UpdatedAt,
	}
}

func IdentitiesToResponse(identities []models.Identity) []*IdentityResponse {
	result := make([]*IdentityResponse, len(identities))
	for i := range identities {
		result[i] = IdentityToResponse(&identities[i])
	}
	return result
}
