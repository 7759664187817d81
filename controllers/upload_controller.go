package controllers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/kendall-kelly/home-therapy-api/utils"
)

// UploadController serves images stored by the local image driver
type UploadController struct {
	dir string
}

func NewUploadController(dir string) *UploadController {
	return &UploadController{dir: dir}
}

// GetUploadedImage handles GET /api/v1/uploads/:filename - serves uploaded images
func (h *UploadController) GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")

	if !utils.ValidUploadFilename(filename) {
		badRequest(c, "invalid filename")
		return
	}

	contentType, ok := utils.ImageContentType(filename)
	if !ok {
		badRequest(c, "unsupported image type")
		return
	}

	filePath := filepath.Join(h.dir, filename)
	if _, err := os.Stat(filePath); err != nil {
		respond(c, http.StatusNotFound, "image not found", nil)
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}
