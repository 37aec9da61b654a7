package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/services"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/storage"
)

// ObjectLister is the slice of the storage client the gallery needs.
type ObjectLister interface {
	List(prefix string) ([]storage.Object, error)
	PublicURL(key string) string
}

type GalleryHandler struct {
	store  ObjectLister
	logger *zap.Logger
}

func NewGalleryHandler(store ObjectLister, logger *zap.Logger) *GalleryHandler {
	return &GalleryHandler{
		store:  store,
		logger: logger,
	}
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

func isImageKey(key string) bool {
	lower := strings.ToLower(key)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// galleryPrefixes maps the folder selector to the bucket prefixes that may
// hold a client's images. Direct uploads used a bare underscore separator
// instead of a folder, so the all-folders sweep checks that shape too; the
// dedupe pass absorbs the _down/ keys it also matches.
func galleryPrefixes(safeEmail, folder string) []string {
	switch folder {
	case "down":
		return []string{safeEmail + "_down/"}
	case "base":
		return []string{safeEmail + "/"}
	default:
		return []string{safeEmail + "_down/", safeEmail + "/", safeEmail + "_"}
	}
}

// List godoc
// @Summary     List a client's images
// @Description Returns the client's stored images across upload and download folders, newest first
// @Tags        gallery
// @Produce     json
// @Param       email query string true "Client email"
// @Param       folder query string false "Folder selector: base, down or all"
// @Success     200 {object} models.ListImagesResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /list-images [get]
func (h *GalleryHandler) List(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing email"})
		return
	}

	safe := services.SanitizeEmail(email)
	prefixes := galleryPrefixes(safe, c.Query("folder"))

	seen := make(map[string]bool)
	images := make([]models.StoredImage, 0)
	for _, prefix := range prefixes {
		objects, err := h.store.List(prefix)
		if err != nil {
			// A missing folder is normal; the other prefixes still count.
			h.logger.Warn("listing prefix failed",
				zap.String("prefix", prefix),
				zap.Error(err))
			continue
		}
		for _, object := range objects {
			if seen[object.Key] || !isImageKey(object.Key) {
				continue
			}
			seen[object.Key] = true
			images = append(images, h.storedImage(object))
		}
	}

	sort.SliceStable(images, func(i, j int) bool {
		return images[i].UploadedAt > images[j].UploadedAt
	})

	c.JSON(http.StatusOK, models.ListImagesResponse{
		Images:         images,
		Count:          len(images),
		FoldersChecked: prefixes,
	})
}

// storedImage builds the gallery entry. The upload timestamp doubles as a
// cache-busting query parameter so replaced objects show up immediately.
func (h *GalleryHandler) storedImage(object storage.Object) models.StoredImage {
	uploaded := object.UpdatedAt
	if uploaded == "" {
		uploaded = object.CreatedAt
	}

	var uploadedAt int64
	if parsed, err := time.Parse(time.RFC3339, uploaded); err == nil {
		uploadedAt = parsed.UnixMilli()
	}

	return models.StoredImage{
		Key:        object.Key,
		URL:        fmt.Sprintf("%s?v=%d", h.store.PublicURL(object.Key), uploadedAt),
		Filename:   object.Filename,
		Size:       object.Size,
		Uploaded:   uploaded,
		UploadedAt: uploadedAt,
	}
}
