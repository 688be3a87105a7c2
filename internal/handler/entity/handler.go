package entity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinsync/clinsync/internal/handler"
	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository/docstore"
	"github.com/clinsync/clinsync/internal/service/entity"
	"github.com/clinsync/clinsync/internal/service/validation"
	apperrors "github.com/clinsync/clinsync/pkg/errors"
)

type Handler struct {
	service   entity.EntityService
	validator *validation.Service
}

func NewHandler(service entity.EntityService, validator *validation.Service) *Handler {
	return &Handler{service: service, validator: validator}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	entities := r.Group("/entities")
	{
		entities.POST("", h.CreateEntity)
		entities.GET("/:id", h.GetEntity)
		entities.PATCH("/:id", h.UpdateEntity)
		entities.DELETE("/:id", h.DeleteEntity)
		entities.GET("/:id/link-status", h.GetLinkStatus)
	}
	r.POST("/admin/validation", h.RunValidation)
}

// CreateEntityRequest is the combined create payload. Exactly one of
// Patient/Practitioner must match the role.
type CreateEntityRequest struct {
	Email        string                         `json:"email" binding:"required,email"`
	NationalID   string                         `json:"national_id" binding:"required"`
	DisplayName  string                         `json:"display_name" binding:"required"`
	Phone        string                         `json:"phone"`
	Password     string                         `json:"password" binding:"omitempty,min=8"`
	Role         model.Role                     `json:"role" binding:"required,oneof=patient practitioner"`
	Patient      *model.PatientProfileData      `json:"patient"`
	Practitioner *model.PractitionerProfileData `json:"practitioner"`
}

func (h *Handler) CreateEntity(c *gin.Context) {
	var req CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var profile model.ProfileData
	switch req.Role {
	case model.RolePatient:
		if req.Patient == nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("patient profile data is required"))
			return
		}
		profile = *req.Patient
	case model.RolePractitioner:
		if req.Practitioner == nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("practitioner profile data is required"))
			return
		}
		profile = *req.Practitioner
	}

	personal := model.PersonalData{
		Email:       req.Email,
		NationalID:  req.NationalID,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Password:    req.Password,
	}

	merged, err := h.service.CreateCompleteEntity(c.Request.Context(), personal, profile, req.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(merged.Flatten()))
}

func (h *Handler) GetEntity(c *gin.Context) {
	merged, err := h.service.JoinedView(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(merged.Flatten()))
}

// UpdateEntityRequest splits personal and profile changes. Profile keys are
// checked against the personal-field list here, at the caller boundary.
type UpdateEntityRequest struct {
	Personal *model.IdentityPatch   `json:"personal"`
	Profile  map[string]interface{} `json:"profile"`
}

func (h *Handler) UpdateEntity(c *gin.Context) {
	var req UpdateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	for _, key := range model.PersonalFieldKeys {
		if _, ok := req.Profile[key]; ok {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(
				"personal field "+key+" belongs on the identity, not the profile"))
			return
		}
	}

	err := h.service.UpdateCompleteEntity(c.Request.Context(), c.Param("id"), req.Personal, docstore.Document(req.Profile))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) DeleteEntity(c *gin.Context) {
	if err := h.service.DeleteCompleteEntity(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) GetLinkStatus(c *gin.Context) {
	status, err := h.service.LinkStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"link_status": status}))
}

func (h *Handler) RunValidation(c *gin.Context) {
	report, err := h.validator.Run(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(report))
}

// fail maps service errors onto user-facing messages.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case apperrors.IsDuplicate(err):
		c.JSON(http.StatusConflict, handler.NewErrorResponse(err.Error()))
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("this record no longer exists"))
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("could not reach the system, try again"))
	}
}
