package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/airtable"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/services"
)

// pendingCycleMessage is shown to a client who tries to start a new test
// package before completing the previous one.
const pendingCycleMessage = "You have a pending test package. Please upload your final images to complete the cycle."

// SubmissionService applies the order cycle rules when writing records.
type SubmissionService interface {
	SaveSubmission(ctx context.Context, params services.SaveParams) (*models.Record, error)
}

type RecordsHandler struct {
	orders SubmissionService
}

func NewRecordsHandler(orders SubmissionService) *RecordsHandler {
	return &RecordsHandler{
		orders: orders,
	}
}

type saveRecordRequest struct {
	Prompt       string `json:"prompt"`
	User         string `json:"user"`
	Email        string `json:"email"`
	ImageURL     string `json:"imageUrl"`
	DownloadLink string `json:"downloadLink"`
	OrderPackage string `json:"orderPackage"`
	UploadColumn string `json:"uploadColumn"`
}

// Save godoc
// @Summary     Save an order record
// @Description Writes a generated image reference to the order table, creating a new record or completing a pending one
// @Tags        records
// @Accept      json
// @Produce     json
// @Success     200 {object} models.Record
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /airtable [post]
func (h *RecordsHandler) Save(c *gin.Context) {
	var req saveRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if req.ImageURL == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing imageUrl"})
		return
	}

	record, err := h.orders.SaveSubmission(c.Request.Context(), services.SaveParams{
		Prompt:       req.Prompt,
		User:         req.User,
		Email:        req.Email,
		ImageURL:     req.ImageURL,
		DownloadLink: req.DownloadLink,
		OrderPackage: req.OrderPackage,
		UploadColumn: req.UploadColumn,
	})
	if err != nil {
		writeSaveError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// writeSaveError maps order cycle rejections and upstream API failures to
// responses. The upstream message and type pass through untouched so the
// frontend can show them.
func writeSaveError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrPendingCycle) {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: pendingCycleMessage})
		return
	}

	var apiErr *airtable.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.StatusCode, models.ErrorResponse{
			Error:   "Failed to save record",
			Message: apiErr.Message,
			Type:    apiErr.Type,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "Failed to save record",
		Message: err.Error(),
	})
}
