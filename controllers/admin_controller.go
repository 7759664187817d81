package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/services"
)

// CreateServiceItemRequest represents a new catalog package
type CreateServiceItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Duration    int     `json:"duration" binding:"required,gt=0"`
	Price       float64 `json:"price" binding:"gte=0"`
	Category    string  `json:"category" binding:"required"`
}

// UpdateServiceItemRequest changes only the fields that are present
type UpdateServiceItemRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Duration    *int     `json:"duration"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
}

// AssignServicesRequest replaces the packages a therapist offers
type AssignServicesRequest struct {
	ServiceItemIDs []uint `json:"service_item_ids"`
}

// SetTherapistStatusRequest approves or suspends a therapist
type SetTherapistStatusRequest struct {
	Status *int `json:"status" binding:"required"`
}

// CreateTherapistRequest registers a therapist profile
type CreateTherapistRequest struct {
	Name            string `json:"name" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	IDCard          string `json:"id_card"`
	Age             int    `json:"age" binding:"gte=0"`
	Certification   string `json:"certification"`
	ExperienceYears int    `json:"experience_years" binding:"gte=0"`
	Specialty       string `json:"specialty"`
	Introduction    string `json:"introduction"`
	AuthSubject     string `json:"auth_subject"`
	UserID          *uint  `json:"user_id"`
	Active          bool   `json:"active"`
}

// AdminController serves catalog and therapist administration
type AdminController struct {
	catalog *services.CatalogService
	log     *zap.Logger
}

func NewAdminController(catalog *services.CatalogService, log *zap.Logger) *AdminController {
	return &AdminController{catalog: catalog, log: log}
}

// CreateServiceItem handles POST /api/v1/admin/service-items
func (h *AdminController) CreateServiceItem(c *gin.Context) {
	var req CreateServiceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request data: "+err.Error())
		return
	}

	item, err := h.catalog.CreateServiceItem(c.Request.Context(), services.ServiceItemInput{
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration,
		Price:       req.Price,
		Category:    req.Category,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondCreated(c, item)
}

// UpdateServiceItem handles PUT /api/v1/admin/service-items/:id
func (h *AdminController) UpdateServiceItem(c *gin.Context) {
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateServiceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request data: "+err.Error())
		return
	}

	item, err := h.catalog.UpdateServiceItem(c.Request.Context(), itemID, services.ServiceItemUpdate{
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration,
		Price:       req.Price,
		Category:    req.Category,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, item)
}

// DeactivateServiceItem handles DELETE /api/v1/admin/service-items/:id.
// The item is disabled, not removed, so past orders keep their reference.
func (h *AdminController) DeactivateServiceItem(c *gin.Context) {
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeactivateServiceItem(c.Request.Context(), itemID); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, nil)
}

// AssignServices handles PUT /api/v1/admin/therapists/:id/services
func (h *AdminController) AssignServices(c *gin.Context) {
	therapistID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AssignServicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request data: "+err.Error())
		return
	}

	therapist, err := h.catalog.AssignServices(c.Request.Context(), therapistID, req.ServiceItemIDs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, therapist)
}

// SetTherapistStatus handles PUT /api/v1/admin/therapists/:id/status
func (h *AdminController) SetTherapistStatus(c *gin.Context) {
	therapistID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req SetTherapistStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	therapist, err := h.catalog.SetTherapistStatus(c.Request.Context(), therapistID, models.TherapistStatus(*req.Status))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, therapist)
}

// CreateTherapist handles POST /api/v1/admin/therapists
func (h *AdminController) CreateTherapist(c *gin.Context) {
	var req CreateTherapistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request data: "+err.Error())
		return
	}

	therapist, err := h.catalog.CreateTherapist(c.Request.Context(), services.TherapistInput{
		Name:            req.Name,
		Phone:           req.Phone,
		IDCard:          req.IDCard,
		Age:             req.Age,
		Certification:   req.Certification,
		ExperienceYears: req.ExperienceYears,
		Specialty:       req.Specialty,
		Introduction:    req.Introduction,
		AuthSubject:     req.AuthSubject,
		UserID:          req.UserID,
		Active:          req.Active,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondCreated(c, therapist)
}
