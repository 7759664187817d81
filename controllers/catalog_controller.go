package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/services"
	"github.com/kendall-kelly/home-therapy-api/utils"
)

// CatalogController serves the public therapist directory, the service
// catalog and therapist self-service
type CatalogController struct {
	catalog *services.CatalogService
	log     *zap.Logger
}

func NewCatalogController(catalog *services.CatalogService, log *zap.Logger) *CatalogController {
	return &CatalogController{catalog: catalog, log: log}
}

// ListTherapists handles GET /api/v1/therapists?keyword=
func (h *CatalogController) ListTherapists(c *gin.Context) {
	page := pagination(c)
	therapists, total, err := h.catalog.ListTherapists(c.Request.Context(), c.Query("keyword"), page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, utils.NewPage(therapists, total, page))
}

// GetTherapist handles GET /api/v1/therapists/:id
func (h *CatalogController) GetTherapist(c *gin.Context) {
	therapistID, ok := idParam(c, "id")
	if !ok {
		return
	}

	therapist, err := h.catalog.GetTherapist(c.Request.Context(), therapistID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, therapist)
}

// ListServiceItems handles GET /api/v1/service-items?category=
func (h *CatalogController) ListServiceItems(c *gin.Context) {
	items, err := h.catalog.ListServiceItems(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, items)
}

// GetServiceItem handles GET /api/v1/service-items/:id
func (h *CatalogController) GetServiceItem(c *gin.Context) {
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}

	item, err := h.catalog.GetServiceItem(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, item)
}

// GetMyProfile handles GET /api/v1/therapist/profile
func (h *CatalogController) GetMyProfile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	therapist, err := h.catalog.GetMyTherapistProfile(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, therapist)
}

// UploadAvatar handles POST /api/v1/therapist/avatar with a multipart "avatar" file
func (h *CatalogController) UploadAvatar(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		badRequest(c, "avatar file is required")
		return
	}

	therapist, err := h.catalog.UploadAvatar(c.Request.Context(), actor.ID, fileHeader)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, therapist)
}
