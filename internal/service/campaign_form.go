package service

import (
	"strings"

	"github.com/noah-isme/marketing-calendar-api/internal/dto"
	"github.com/noah-isme/marketing-calendar-api/internal/models"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
)

// DecomposePostTime splits a stored HH:MM value into hour and minute.
func DecomposePostTime(raw string) (int, int, error) {
	clock, err := models.ParseClockTime(raw)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "postTime must be HH:MM")
	}
	return clock.Hour, clock.Minute, nil
}

// ComposePostTime joins hour and minute back into HH:MM.
func ComposePostTime(hour, minute int) (string, error) {
	clock := models.ClockTime{Hour: hour, Minute: minute}
	if !clock.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, "postHour/postMinute out of range")
	}
	return clock.String(), nil
}

// CampaignFormFor builds the edit form for c. A missing post time falls back
// to the 09:00 campaign default.
func CampaignFormFor(c models.Campaign) dto.CampaignForm {
	hour, minute := defaultCampaignStart.Hour, defaultCampaignStart.Minute
	if strings.TrimSpace(c.Scheduling.PostTime) != "" {
		if h, m, err := DecomposePostTime(c.Scheduling.PostTime); err == nil {
			hour, minute = h, m
		}
	}
	return dto.CampaignForm{
		ID:         c.ID,
		Name:       c.Name,
		Objective:  c.Objective,
		Platforms:  append([]string(nil), c.Platforms...),
		StartDate:  c.Scheduling.StartDate,
		PostHour:   hour,
		PostMinute: minute,
		Status:     c.Status,
	}
}

// resolvePostTime picks postTime, or recomposes postHour/postMinute.
func resolvePostTime(req dto.CampaignRequest) (string, error) {
	if raw := strings.TrimSpace(req.PostTime); raw != "" {
		clock, err := models.ParseClockTime(raw)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "postTime must be HH:MM")
		}
		return clock.String(), nil
	}
	if req.PostHour != nil && req.PostMinute != nil {
		return ComposePostTime(*req.PostHour, *req.PostMinute)
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "postTime or postHour/postMinute is required")
}
