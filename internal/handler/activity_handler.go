package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-planner/internal/dto"
	"github.com/noah-isme/student-planner/internal/models"
	"github.com/noah-isme/student-planner/pkg/response"
)

type activityService interface {
	Activities() []models.PersonalActivity
	ActivitiesByDate(date string) []models.PersonalActivity
	AddActivity(ctx context.Context, req dto.CreateActivityRequest) (*models.PersonalActivity, error)
	UpdateActivity(ctx context.Context, id string, patch models.ActivityPatch) (*models.PersonalActivity, error)
	ToggleActivityComplete(ctx context.Context, id string) (*models.PersonalActivity, error)
	DeleteActivity(ctx context.Context, id string) error
}

// ActivityHandler manages personal activities.
type ActivityHandler struct {
	service activityService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service activityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// Register mounts the activity routes on rg.
func (h *ActivityHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/activities", h.List)
	rg.POST("/activities", h.Create)
	rg.PATCH("/activities/:id", h.Update)
	rg.DELETE("/activities/:id", h.Delete)
	rg.POST("/activities/:id/toggle", h.Toggle)
}

// List godoc
// @Summary List personal activities
// @Tags Activities
// @Produce json
// @Param date query string false "Only this date, ordered by start time"
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	if date := strings.TrimSpace(c.Query("date")); date != "" {
		response.JSON(c, http.StatusOK, h.service.ActivitiesByDate(date))
		return
	}
	response.JSON(c, http.StatusOK, h.service.Activities())
}

// Create godoc
// @Summary Create a personal activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param payload body dto.CreateActivityRequest true "Activity"
// @Success 201 {object} response.Envelope
// @Router /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var req dto.CreateActivityRequest
	if !bindJSON(c, &req, "invalid activity payload") {
		return
	}
	activity, err := h.service.AddActivity(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// Update godoc
// @Summary Patch a personal activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body models.ActivityPatch true "Patch"
// @Success 200 {object} response.Envelope
// @Router /activities/{id} [patch]
func (h *ActivityHandler) Update(c *gin.Context) {
	var patch models.ActivityPatch
	if !bindJSON(c, &patch, "invalid activity payload") {
		return
	}
	activity, err := h.service.UpdateActivity(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity)
}

// Toggle flips the completion flag of an activity.
func (h *ActivityHandler) Toggle(c *gin.Context) {
	activity, err := h.service.ToggleActivityComplete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity)
}

// Delete godoc
// @Summary Delete a personal activity
// @Tags Activities
// @Param id path string true "Activity ID"
// @Success 204
// @Router /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteActivity(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
