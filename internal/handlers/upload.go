package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/services"
)

// UploadService stores client files and writes the matching order record.
type UploadService interface {
	SubmissionService
	EnsureNoPendingCycle(ctx context.Context, email string) error
	UploadObjects(email string, files []services.UploadFile) ([]models.Attachment, error)
}

type UploadHandler struct {
	orders UploadService
}

func NewUploadHandler(orders UploadService) *UploadHandler {
	return &UploadHandler{
		orders: orders,
	}
}

// Upload godoc
// @Summary     Upload client images
// @Description Stores the submitted images in the bucket and records them on a new or pending order
// @Tags        upload
// @Accept      multipart/form-data
// @Produce     json
// @Param       images formData file true "Image files"
// @Param       email formData string false "Client email"
// @Param       uploadColumn formData string false "Target column: Image_Upload (test) or Image_Upload2 (final)"
// @Success     200 {object} models.UploadImagesResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /upload_images [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid multipart form",
			Message: err.Error(),
		})
		return
	}

	fileHeaders := form.File["images"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No images provided"})
		return
	}

	files := make([]services.UploadFile, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "failed to open uploaded file",
				Message: err.Error(),
			})
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "failed to read uploaded file",
				Message: err.Error(),
			})
			return
		}
		files = append(files, services.UploadFile{
			Name:        header.Filename,
			Data:        data,
			ContentType: header.Header.Get("Content-Type"),
		})
	}

	email := c.PostForm("email")

	// Omitted uploadColumn means the final tier: an upload without the
	// explicit test marker completes a pending cycle instead of opening one.
	uploadColumn := c.PostForm("uploadColumn")
	if uploadColumn == "" {
		uploadColumn = services.UploadColumnFinal
	}

	// A blocked test upload must not leave orphan objects in the bucket.
	if uploadColumn == services.UploadColumnTest {
		if err := h.orders.EnsureNoPendingCycle(c.Request.Context(), email); err != nil {
			writeSaveError(c, err)
			return
		}
	}

	attachments, err := h.orders.UploadObjects(email, files)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to upload images",
			Message: err.Error(),
		})
		return
	}

	// The upload form sends the display name as "name"; "user" is accepted
	// for callers of the record endpoint's shape.
	user := c.PostForm("name")
	if user == "" {
		user = c.PostForm("user")
	}

	record, err := h.orders.SaveSubmission(c.Request.Context(), services.SaveParams{
		Prompt:       c.PostForm("prompt"),
		User:         user,
		Email:        email,
		DownloadLink: c.PostForm("downloadLink"),
		OrderPackage: c.PostForm("orderPackage"),
		UploadColumn: uploadColumn,
		Attachments:  attachments,
	})
	if err != nil {
		writeSaveError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UploadImagesResponse{
		Record: record,
		Images: attachments,
		Count:  len(attachments),
	})
}
