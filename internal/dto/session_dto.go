package dto

import "campaign-session/internal/entity"

type ProfileResponse struct {
	UID      string                   `json:"uid"`
	Name     string                   `json:"name"`
	Email    string                   `json:"email"`
	Phone    string                   `json:"phone"`
	Image    string                   `json:"image"`
	Messages []map[string]interface{} `json:"messages"`
}

type SessionStateResponse struct {
	Status       string           `json:"status"`
	Profile      *ProfileResponse `json:"profile,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	IsBusy       bool             `json:"is_busy"`
}

// UpdateProfileRequest mirrors entity.ProfileFields; absent keys are left
// untouched.
type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=200"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
	Image *string `json:"image" validate:"omitempty,url"`
}

type AddPromptRequest struct {
	Prompt map[string]interface{} `json:"prompt" validate:"required,min=1"`
}

type CampaignListResponse struct {
	Campaigns []entity.Campaign `json:"campaigns"`
}

type LogQuery struct {
	Level  string `query:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}
