package dto

import (
	"encoding/json"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
)

// CampaignRequest is the create/update payload. The post time is given either
// as postTime (HH:MM) or as postHour/postMinute from the edit form.
type CampaignRequest struct {
	Name       string                `json:"name" validate:"required,max=200"`
	Objective  string                `json:"objective" validate:"omitempty,max=500"`
	Platforms  []string              `json:"platforms" validate:"required,min=1,dive,required"`
	Creative   json.RawMessage       `json:"creative,omitempty"`
	StartDate  string                `json:"startDate" validate:"required,localdate"`
	PostTime   string                `json:"postTime" validate:"omitempty,clock"`
	PostHour   *int                  `json:"postHour,omitempty" validate:"omitempty,min=0,max=23"`
	PostMinute *int                  `json:"postMinute,omitempty" validate:"omitempty,min=0,max=59"`
	Status     models.CampaignStatus `json:"status" validate:"omitempty,oneof=draft scheduled active posted paused"`
}

// CampaignForm pre-populates the edit form of an existing campaign.
type CampaignForm struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Objective  string                `json:"objective"`
	Platforms  []string              `json:"platforms"`
	StartDate  string                `json:"startDate"`
	PostHour   int                   `json:"postHour"`
	PostMinute int                   `json:"postMinute"`
	Status     models.CampaignStatus `json:"status"`
}
