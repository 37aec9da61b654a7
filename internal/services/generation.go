package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/genai"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/metrics"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
)

// ObjectStore is the slice of the storage client the services need.
type ObjectStore interface {
	Put(key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// Generator produces image variations from a prompt and a source image.
type Generator interface {
	GenerateVariations(ctx context.Context, prompt string, imageData []byte, mimeType string, count int) ([]genai.GeneratedImage, error)
}

// GenerationService generates variations and stores every one of them under
// the client's download folder, returning their public URLs in generation
// order.
type GenerationService struct {
	generator Generator
	store     ObjectStore
	logger    *zap.Logger
}

func NewGenerationService(generator Generator, store ObjectStore, logger *zap.Logger) *GenerationService {
	return &GenerationService{
		generator: generator,
		store:     store,
		logger:    logger,
	}
}

// GenerateAndStore runs count variations and uploads each result. The key is
// {safeEmail}_down/gemini_{millis}.{ext} for a single variation and gains a
// _{n} suffix (1-based) when more than one was requested. All variations of
// one call share the same timestamp.
func (s *GenerationService) GenerateAndStore(ctx context.Context, prompt string, imageData []byte, mimeType, email string, count int) ([]models.Attachment, error) {
	count = genai.NormalizeVariationCount(count)

	images, err := s.generator.GenerateVariations(ctx, prompt, imageData, mimeType, count)
	if err != nil {
		return nil, err
	}

	folder := ""
	if safe := SanitizeEmail(email); safe != "" {
		folder = safe + "_down/"
	}
	millis := time.Now().UnixMilli()

	attachments := make([]models.Attachment, 0, len(images))
	for i, image := range images {
		ext := extensionFromMime(image.MimeType)
		key := fmt.Sprintf("%sgemini_%d.%s", folder, millis, ext)
		if count > 1 {
			key = fmt.Sprintf("%sgemini_%d_%d.%s", folder, millis, i+1, ext)
		}

		if err := s.store.Put(key, image.Data, image.MimeType); err != nil {
			return nil, err
		}

		url := s.store.PublicURL(key)
		attachments = append(attachments, models.Attachment{URL: url})
		s.logger.Info("variation stored",
			zap.Int("variation", i+1),
			zap.Int("count", count),
			zap.String("key", key))
	}

	metrics.ImagesGeneratedTotal.Add(float64(len(attachments)))
	return attachments, nil
}

// SanitizeEmail reduces an email to bucket-key-safe characters: everything
// outside [A-Za-z0-9] becomes an underscore. An empty email stays empty.
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(email))
	for _, r := range email {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func extensionFromMime(mimeType string) string {
	if _, ext, found := strings.Cut(mimeType, "/"); found && ext != "" {
		return ext
	}
	return "png"
}
