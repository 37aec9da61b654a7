// Package processor implements the automated batch sweep: find recent orders
// with a package, regenerate every uploaded image, store the outputs and
// write the first variation back to the order record.
package processor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/config"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/genai"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/metrics"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/services"
)

// eligibilityWindow is the trailing period a record must fall into to be
// picked up by a sweep.
const eligibilityWindow = 24 * time.Hour

// RecordFinder supplies the eligible-records query. Its failure is the only
// fatal condition of a run.
type RecordFinder interface {
	FindEligibleRecords(ctx context.Context, windowStart time.Time) ([]models.Record, error)
}

// VariationProducer generates and stores image variations, returning their
// public URLs in generation order.
type VariationProducer interface {
	GenerateAndStore(ctx context.Context, prompt string, imageData []byte, mimeType, email string, count int) ([]models.Attachment, error)
}

// SubmissionSaver writes a generated result back to the record store.
type SubmissionSaver interface {
	SaveSubmission(ctx context.Context, params services.SaveParams) (*models.Record, error)
}

// Settings is the effective run configuration: process-wide defaults merged
// with any per-call overrides.
type Settings struct {
	WorkerURL        string
	DefaultPrompt    string
	UseDefaultPrompt bool
	ClientPrompt     string
	UseClientPrompt  bool
	VariationCount   int
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		WorkerURL:        cfg.WorkerURL,
		DefaultPrompt:    cfg.DefaultPrompt,
		UseDefaultPrompt: cfg.UseDefaultPrompt,
		ClientPrompt:     cfg.ClientPrompt,
		UseClientPrompt:  cfg.UseClientPrompt,
		VariationCount:   cfg.DefaultVariationCount,
	}
}

// Merge applies overrides field by field; nil fields keep the defaults. An
// unsupported variation count is ignored rather than rejected.
func (s Settings) Merge(overrides *models.ProcessOverrides) Settings {
	if overrides == nil {
		return s
	}
	if overrides.DefaultPrompt != nil {
		s.DefaultPrompt = *overrides.DefaultPrompt
	}
	if overrides.UseDefaultPrompt != nil {
		s.UseDefaultPrompt = *overrides.UseDefaultPrompt
	}
	if overrides.ClientPrompt != nil {
		s.ClientPrompt = *overrides.ClientPrompt
	}
	if overrides.UseClientPrompt != nil {
		s.UseClientPrompt = *overrides.UseClientPrompt
	}
	if overrides.VariationCount != nil {
		if normalized := genai.NormalizeVariationCount(*overrides.VariationCount); normalized == *overrides.VariationCount {
			s.VariationCount = normalized
		}
	}
	return s
}

type Processor struct {
	records    RecordFinder
	generation VariationProducer
	orders     SubmissionSaver
	settings   Settings
	logger     *zap.Logger
	httpClient *http.Client

	// serialize queues overlapping runs behind one another. There is no
	// distributed lock: the pending record per email is still racy across
	// replicas, which is accepted at cron-scale invocation rates.
	serialize bool
	mu        sync.Mutex
}

func New(records RecordFinder, generation VariationProducer, orders SubmissionSaver, settings Settings, serialize bool, logger *zap.Logger) *Processor {
	return &Processor{
		records:    records,
		generation: generation,
		orders:     orders,
		settings:   settings,
		logger:     logger,
		serialize:  serialize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Run executes one sweep. The returned report is always non-nil; the error
// is non-nil only for the fatal case (the initial eligibility query failed),
// in which case the report carries a single fatal entry.
//
// Records and images are processed sequentially, so details and errors keep
// record discovery order, then image order within each record. A failed
// image never aborts its record; a failed record never aborts the run.
func (p *Processor) Run(ctx context.Context, overrides *models.ProcessOverrides) (*models.RunReport, error) {
	if p.serialize {
		p.mu.Lock()
		defer p.mu.Unlock()
	}

	start := time.Now()
	settings := p.settings.Merge(overrides)

	report := &models.RunReport{
		RunID:     uuid.NewString(),
		Timestamp: start.UTC().Format(time.RFC3339),
		Details:   []models.RunDetail{},
		Errors:    []models.RunError{},
	}

	metrics.ProcessorRunsTotal.Inc()
	defer func() {
		report.DurationMs = time.Since(start).Milliseconds()
		metrics.ProcessorRunDuration.Observe(time.Since(start).Seconds())
	}()

	p.logger.Info("batch run started",
		zap.String("runId", report.RunID),
		zap.Bool("useDefaultPrompt", settings.UseDefaultPrompt),
		zap.Bool("useClientPrompt", settings.UseClientPrompt),
		zap.Int("variationCount", settings.VariationCount))

	windowStart := start.Add(-eligibilityWindow)
	records, err := p.records.FindEligibleRecords(ctx, windowStart)
	if err != nil {
		p.logger.Error("eligibility query failed", zap.Error(err))
		report.ErrorCount++
		report.Errors = append(report.Errors, models.RunError{
			Error: err.Error(),
			Type:  "fatal",
		})
		return report, fmt.Errorf("eligibility query failed: %w", err)
	}

	report.RecordsFound = len(records)
	if len(records) == 0 {
		p.logger.Info("no eligible records")
		return report, nil
	}

	for _, record := range records {
		p.processRecord(ctx, settings, record, report)
	}

	p.logger.Info("batch run complete",
		zap.String("runId", report.RunID),
		zap.Int("success", report.SuccessCount),
		zap.Int("errors", report.ErrorCount))

	return report, nil
}

func (p *Processor) processRecord(ctx context.Context, settings Settings, record models.Record, report *models.RunReport) {
	fields := record.Fields
	images := record.AllImages()
	if len(images) == 0 {
		p.logger.Info("skipping record without images", zap.String("recordId", record.ID))
		return
	}

	report.RecordsProcessed++
	metrics.ProcessorRecordsProcessedTotal.Inc()

	finalPrompt := composePrompt(settings, fields.Prompt)
	downloadLink := fmt.Sprintf("%s/?email=%s", strings.TrimSuffix(settings.WorkerURL, "/"), fields.Email)

	p.logger.Info("processing record",
		zap.String("recordId", record.ID),
		zap.String("email", fields.Email),
		zap.Int("images", len(images)))

	succeeded := 0
	for i, image := range images {
		filename := image.Filename
		if filename == "" {
			filename = fmt.Sprintf("image_%d.jpg", i+1)
		}

		if err := p.processImage(ctx, settings, fields, finalPrompt, downloadLink, image); err != nil {
			p.logger.Warn("image failed",
				zap.String("recordId", record.ID),
				zap.String("image", filename),
				zap.Error(err))
			metrics.ProcessorErrorsTotal.Inc()
			report.Errors = append(report.Errors, models.RunError{
				RecordID: record.ID,
				Email:    fields.Email,
				Image:    filename,
				Error:    err.Error(),
			})
			continue
		}
		succeeded++
	}

	// A record succeeds when at least one image made it through the full
	// fetch -> generate -> store -> write-back chain.
	if succeeded == 0 {
		report.ErrorCount++
		return
	}

	report.SuccessCount++
	report.Details = append(report.Details, models.RunDetail{
		RecordID:        record.ID,
		Email:           fields.Email,
		User:            fields.User,
		OrderPackage:    fields.OrderPackage,
		ImagesProcessed: len(images),
		Status:          "success",
		PromptUsed:      finalPrompt,
		DownloadLink:    downloadLink,
	})
}

func (p *Processor) processImage(ctx context.Context, settings Settings, fields models.RecordFields, finalPrompt, downloadLink string, image models.Attachment) error {
	data, mimeType, err := p.fetchImage(ctx, image.URL)
	if err != nil {
		return err
	}

	emailForKeys := fields.Email
	if emailForKeys == "" {
		emailForKeys = "automated"
	}

	attachments, err := p.generation.GenerateAndStore(ctx, finalPrompt, data, mimeType, emailForKeys, settings.VariationCount)
	if err != nil {
		return err
	}
	if len(attachments) == 0 {
		return fmt.Errorf("generation returned no variations")
	}

	// Only the first variation is linked on the record; the rest stay in
	// the bucket for the client to pick from.
	first := attachments[0].URL

	user := fields.User
	if user == "" {
		user = "Automated"
	}

	_, err = p.orders.SaveSubmission(ctx, services.SaveParams{
		Prompt:       finalPrompt,
		User:         user,
		Email:        fields.Email,
		ImageURL:     first,
		DownloadLink: downloadLink,
		OrderPackage: fields.OrderPackage,
		UploadColumn: services.UploadColumnFinal,
		Attachments:  []models.Attachment{{URL: first}},
	})
	if err != nil {
		return fmt.Errorf("write-back failed: %w", err)
	}
	return nil
}

func (p *Processor) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// composePrompt concatenates default prompt, client template and the
// record's own prompt, in that order, joined with ". " and skipping empty
// or disabled components. The order decides which instruction dominates
// downstream and must not change.
func composePrompt(settings Settings, recordPrompt string) string {
	parts := make([]string, 0, 3)
	if settings.UseDefaultPrompt && settings.DefaultPrompt != "" {
		parts = append(parts, settings.DefaultPrompt)
	}
	if settings.UseClientPrompt && settings.ClientPrompt != "" {
		parts = append(parts, settings.ClientPrompt)
	}
	if recordPrompt != "" {
		parts = append(parts, recordPrompt)
	}
	return strings.Join(parts, ". ")
}
