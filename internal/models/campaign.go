package models

import (
	"encoding/json"
	"time"
)

// CampaignStatus captures the campaign publishing lifecycle.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPosted    CampaignStatus = "posted"
	CampaignStatusPaused    CampaignStatus = "paused"
)

// Valid reports whether the status is a known value.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusScheduled, CampaignStatusActive, CampaignStatusPosted, CampaignStatusPaused:
		return true
	default:
		return false
	}
}

// CampaignScheduling holds the only campaign fields the calendar consumes.
// StartDate is either a YYYY-MM-DD literal or a full timestamp, depending on
// which client wrote it.
type CampaignScheduling struct {
	StartDate string `json:"startDate"`
	PostTime  string `json:"postTime"`
}

// Campaign is a marketing campaign owned by the scheduling service.
type Campaign struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Objective  string             `json:"objective"`
	Platforms  []string           `json:"platforms"`
	Creative   json.RawMessage    `json:"creative,omitempty"`
	Scheduling CampaignScheduling `json:"scheduling"`
	Status     CampaignStatus     `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// Clone returns a deep copy so cached versions never share slices.
func (c Campaign) Clone() Campaign {
	out := c
	if c.Platforms != nil {
		out.Platforms = append([]string(nil), c.Platforms...)
	}
	if c.Creative != nil {
		out.Creative = append(json.RawMessage(nil), c.Creative...)
	}
	return out
}

// CampaignFields is the mutable payload sent to the campaign store.
type CampaignFields struct {
	Name       string
	Objective  string
	Platforms  []string
	Creative   json.RawMessage
	Scheduling CampaignScheduling
	Status     CampaignStatus
}
