package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/airtable"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
)

// RecordLister pages through the order table.
type RecordLister interface {
	ListRecords(ctx context.Context, opts airtable.ListOptions) ([]models.Record, error)
}

type FetchDataHandler struct {
	records RecordLister
}

func NewFetchDataHandler(records RecordLister) *FetchDataHandler {
	return &FetchDataHandler{
		records: records,
	}
}

// Fetch godoc
// @Summary     Fetch order records
// @Description Returns order records newest first, optionally filtered by client email
// @Tags        records
// @Produce     json
// @Param       email query string false "Client email filter"
// @Success     200 {object} models.FetchRecordsResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /fetch-airtable-data [get]
func (h *FetchDataHandler) Fetch(c *gin.Context) {
	email := c.Query("email")
	if c.Request.Method == http.MethodPost {
		var req models.FetchRecordsRequest
		if err := c.ShouldBindJSON(&req); err == nil && req.Email != "" {
			email = req.Email
		}
	}

	opts := airtable.ListOptions{
		SortField:     "Timestamp",
		SortDirection: "desc",
	}
	if email != "" {
		opts.FilterByFormula = fmt.Sprintf("{Email} = '%s'", email)
	}

	records, err := h.records.ListRecords(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to fetch records",
			Message: err.Error(),
		})
		return
	}

	transformed := make([]models.TransformedRecord, 0, len(records))
	for _, record := range records {
		transformed = append(transformed, transformRecord(record))
	}

	c.JSON(http.StatusOK, models.FetchRecordsResponse{
		Records: transformed,
		Count:   len(transformed),
	})
}

// transformRecord flattens a record into the lowercase shape the review UI
// consumes. Attachment lists are never null.
func transformRecord(record models.Record) models.TransformedRecord {
	timestamp := record.Fields.Timestamp
	if timestamp == "" {
		timestamp = record.CreatedTime
	}
	return models.TransformedRecord{
		ID:           record.ID,
		Prompt:       record.Fields.Prompt,
		User:         record.Fields.User,
		Email:        record.Fields.Email,
		TestImages:   nonNil(record.Fields.TestImages),
		FinalImages:  nonNil(record.Fields.FinalImages),
		Timestamp:    timestamp,
		OrderPackage: record.Fields.OrderPackage,
	}
}

func nonNil(attachments []models.Attachment) []models.Attachment {
	if attachments == nil {
		return []models.Attachment{}
	}
	return attachments
}
