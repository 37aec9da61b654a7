package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/metrics"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
)

// Upload columns in the record store. Test uploads start a cycle, final
// uploads (or generated results) complete it.
const (
	UploadColumnTest  = "Image_Upload"
	UploadColumnFinal = "Image_Upload2"
)

// ErrPendingCycle rejects a test upload while an earlier test package is
// still waiting for its final images.
var ErrPendingCycle = errors.New("pending test package exists")

// RecordStore is the slice of the record client the order flow needs.
type RecordStore interface {
	FindPendingRecordForEmail(ctx context.Context, email string) (*models.Record, error)
	CreateRecord(ctx context.Context, fields models.RecordFields) (*models.Record, error)
	UpdateRecord(ctx context.Context, id string, fields models.RecordFields) (*models.Record, error)
}

// OrderService owns the pending-record rules: blocking repeat test uploads,
// and deciding between creating a new record and patching the pending one.
type OrderService struct {
	records RecordStore
	store   ObjectStore
	logger  *zap.Logger
}

func NewOrderService(records RecordStore, store ObjectStore, logger *zap.Logger) *OrderService {
	return &OrderService{
		records: records,
		store:   store,
		logger:  logger,
	}
}

// UploadFile is one client file bound for the bucket.
type UploadFile struct {
	Name        string
	Data        []byte
	ContentType string
}

// UploadObjects stores direct client uploads under
// {safeEmail}_{epochMillis}_{originalFilename}, falling back to "anonymous"
// when no email was given. Returns the public attachment list in input order.
func (s *OrderService) UploadObjects(email string, files []UploadFile) ([]models.Attachment, error) {
	safe := SanitizeEmail(email)
	if safe == "" {
		safe = "anonymous"
	}

	attachments := make([]models.Attachment, 0, len(files))
	for _, file := range files {
		key := fmt.Sprintf("%s_%d_%s", safe, time.Now().UnixMilli(), file.Name)
		if err := s.store.Put(key, file.Data, file.ContentType); err != nil {
			return nil, err
		}
		attachments = append(attachments, models.Attachment{URL: s.store.PublicURL(key)})
	}

	metrics.ImagesUploadedTotal.Add(float64(len(attachments)))
	return attachments, nil
}

// EnsureNoPendingCycle rejects with ErrPendingCycle when the email has a
// record waiting for final images. Callers use it to refuse a test upload
// before any object is stored.
func (s *OrderService) EnsureNoPendingCycle(ctx context.Context, email string) error {
	if email == "" {
		return nil
	}
	pending, err := s.records.FindPendingRecordForEmail(ctx, email)
	if err != nil {
		s.logger.Warn("pending record lookup failed",
			zap.String("email", email),
			zap.Error(err))
		return nil
	}
	if pending != nil {
		return ErrPendingCycle
	}
	return nil
}

// SaveParams describes one record write. Attachments land in UploadColumn;
// ImageURL, when set, additionally lands in the Image column.
type SaveParams struct {
	Prompt       string
	User         string
	Email        string
	ImageURL     string
	DownloadLink string
	OrderPackage string
	UploadColumn string
	Attachments  []models.Attachment
}

// SaveSubmission applies the order cycle rules and writes the record:
//
//   - a test upload is rejected while a pending record exists for the email
//   - a final upload patches the pending record (PENDING -> COMPLETE)
//   - anything else creates a new record
//
// Failures while looking up the pending record are logged and treated as
// "no pending record" so a degraded lookup never blocks a save.
func (s *OrderService) SaveSubmission(ctx context.Context, params SaveParams) (*models.Record, error) {
	uploadColumn := params.UploadColumn
	if uploadColumn == "" {
		uploadColumn = UploadColumnFinal
	}

	var pending *models.Record
	if params.Email != "" {
		found, err := s.records.FindPendingRecordForEmail(ctx, params.Email)
		if err != nil {
			s.logger.Warn("pending record lookup failed",
				zap.String("email", params.Email),
				zap.Error(err))
		} else {
			pending = found
		}
	}

	if uploadColumn == UploadColumnTest && pending != nil {
		return nil, ErrPendingCycle
	}

	user := params.User
	if user == "" {
		user = "Anonymous"
	}

	fields := models.RecordFields{
		Prompt:       params.Prompt,
		User:         user,
		Email:        params.Email,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		OrderPackage: params.OrderPackage,
		DownloadLink: params.DownloadLink,
	}
	if params.ImageURL != "" {
		fields.Image = []models.Attachment{{URL: params.ImageURL}}
	}
	if len(params.Attachments) > 0 {
		switch uploadColumn {
		case UploadColumnTest:
			fields.TestImages = params.Attachments
		default:
			fields.FinalImages = params.Attachments
		}
	}

	if uploadColumn == UploadColumnFinal && pending != nil {
		s.logger.Info("patching pending record", zap.String("recordId", pending.ID))
		record, err := s.records.UpdateRecord(ctx, pending.ID, fields)
		if err != nil {
			return nil, err
		}
		metrics.RecordsSavedTotal.WithLabelValues("updated").Inc()
		return record, nil
	}

	record, err := s.records.CreateRecord(ctx, fields)
	if err != nil {
		return nil, err
	}
	metrics.RecordsSavedTotal.WithLabelValues("created").Inc()
	return record, nil
}
