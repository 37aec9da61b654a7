package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
)

// BatchRunner executes one batch sweep.
type BatchRunner interface {
	Run(ctx context.Context, overrides *models.ProcessOverrides) (*models.RunReport, error)
}

type ProcessHandler struct {
	runner BatchRunner
}

func NewProcessHandler(runner BatchRunner) *ProcessHandler {
	return &ProcessHandler{
		runner: runner,
	}
}

// Describe responds to probes that hit the trigger URL with a GET.
func (h *ProcessHandler) Describe(c *gin.Context) {
	c.String(http.StatusOK, "Scheduled processor endpoint. Use POST to manually trigger.")
}

// Trigger godoc
// @Summary     Trigger a batch run
// @Description Runs the batch sweep immediately. The optional JSON body overrides prompt and variation settings for this run only
// @Tags        processor
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.RunReport
// @Failure     500 {object} models.RunReport
// @Router      /scheduled-processor [post]
func (h *ProcessHandler) Trigger(c *gin.Context) {
	overrides := decodeOverrides(c.Request.Body)

	report, err := h.runner.Run(c.Request.Context(), overrides)
	if err != nil {
		// The report still carries the fatal entry and run metadata.
		c.JSON(http.StatusInternalServerError, report)
		return
	}

	c.JSON(http.StatusOK, report)
}

// decodeOverrides reads the optional body. Cron triggers send no body, and a
// malformed one must not stop a run, so both decode to nil overrides.
func decodeOverrides(body io.Reader) *models.ProcessOverrides {
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return nil
	}

	var overrides models.ProcessOverrides
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil
	}
	return &overrides
}
