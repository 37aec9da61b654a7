package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
)

// GenerationService produces stored image variations from a prompt and a
// source image.
type GenerationService interface {
	GenerateAndStore(ctx context.Context, prompt string, imageData []byte, mimeType, email string, count int) ([]models.Attachment, error)
}

type GenerateHandler struct {
	generation GenerationService
}

func NewGenerateHandler(generation GenerationService) *GenerateHandler {
	return &GenerateHandler{
		generation: generation,
	}
}

// Generate godoc
// @Summary     Generate image variations
// @Description Generates AI variations of an uploaded image and stores them in the client's download folder
// @Tags        generation
// @Accept      multipart/form-data
// @Produce     json
// @Param       prompt formData string true "Generation prompt"
// @Param       image formData file true "Source image"
// @Param       email formData string false "Client email, used for the storage folder"
// @Param       count formData int false "Variation count (1, 2 or 4)"
// @Success     200 {object} models.GeneratedImagesResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /ai [post]
func (h *GenerateHandler) Generate(c *gin.Context) {
	prompt := c.PostForm("prompt")

	file, header, err := c.Request.FormFile("image")
	if prompt == "" || err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing prompt or image"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read image",
			Message: err.Error(),
		})
		return
	}

	count := 1
	if raw := c.PostForm("count"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			count = parsed
		}
	}

	attachments, err := h.generation.GenerateAndStore(
		c.Request.Context(),
		prompt,
		data,
		header.Header.Get("Content-Type"),
		c.PostForm("email"),
		count,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Image generation failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.GeneratedImagesResponse{Data: attachments})
}
