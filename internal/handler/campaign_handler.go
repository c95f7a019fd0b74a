package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/marketing-calendar-api/internal/dto"
	"github.com/noah-isme/marketing-calendar-api/internal/models"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
	"github.com/noah-isme/marketing-calendar-api/pkg/response"
)

type campaignScheduler interface {
	ListCampaigns(ctx context.Context) ([]models.Campaign, error)
	CampaignForm(ctx context.Context, id string) (*dto.CampaignForm, error)
	CreateCampaign(ctx context.Context, req dto.CampaignRequest) (*models.Campaign, error)
	UpdateCampaign(ctx context.Context, id string, req dto.CampaignRequest) (*models.Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error
}

// CampaignHandler manages campaign endpoints.
type CampaignHandler struct {
	service campaignScheduler
}

// NewCampaignHandler constructs the handler.
func NewCampaignHandler(service campaignScheduler) *CampaignHandler {
	return &CampaignHandler{service: service}
}

// List godoc
// @Summary List campaigns
// @Tags Campaigns
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	campaigns, err := h.service.ListCampaigns(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaigns, map[string]interface{}{"count": len(campaigns)})
}

// Form godoc
// @Summary Campaign edit form
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /campaigns/{id}/form [get]
func (h *CampaignHandler) Form(c *gin.Context) {
	form, err := h.service.CampaignForm(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form)
}

// Create godoc
// @Summary Create campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param payload body dto.CampaignRequest true "Campaign payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	var req dto.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	campaign, err := h.service.CreateCampaign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, campaign)
}

// Update godoc
// @Summary Update campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body dto.CampaignRequest true "Campaign payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /campaigns/{id} [put]
func (h *CampaignHandler) Update(c *gin.Context) {
	var req dto.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	campaign, err := h.service.UpdateCampaign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaign)
}

// Delete godoc
// @Summary Delete campaign
// @Tags Campaigns
// @Param id path string true "Campaign ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /campaigns/{id} [delete]
func (h *CampaignHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteCampaign(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
