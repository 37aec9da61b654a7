package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/genai"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/services"
)

type fakeStore struct {
	keys []string
	err  error
}

func (f *fakeStore) Put(key string, data []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeGenerator struct {
	count int
	err   error
}

func (f *fakeGenerator) GenerateVariations(ctx context.Context, prompt string, imageData []byte, mimeType string, count int) ([]genai.GeneratedImage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.count = count
	images := make([]genai.GeneratedImage, count)
	for i := range images {
		images[i] = genai.GeneratedImage{Data: []byte{0x01}, MimeType: "image/png"}
	}
	return images, nil
}

func TestGenerateAndStore_SingleVariationKey(t *testing.T) {
	store := &fakeStore{}
	svc := services.NewGenerationService(&fakeGenerator{}, store, zap.NewNop())

	attachments, err := svc.GenerateAndStore(context.Background(), "prompt", []byte{0x01}, "image/jpeg", "user@example.com", 1)

	require.NoError(t, err)
	require.Len(t, attachments, 1)
	require.Len(t, store.keys, 1)
	assert.Regexp(t, regexp.MustCompile(`^user_example_com_down/gemini_\d+\.png$`), store.keys[0])
	assert.Equal(t, "https://cdn.test/"+store.keys[0], attachments[0].URL)
}

func TestGenerateAndStore_MultipleVariationsShareTimestamp(t *testing.T) {
	store := &fakeStore{}
	svc := services.NewGenerationService(&fakeGenerator{}, store, zap.NewNop())

	attachments, err := svc.GenerateAndStore(context.Background(), "prompt", []byte{0x01}, "image/jpeg", "user@example.com", 2)

	require.NoError(t, err)
	require.Len(t, attachments, 2)
	require.Len(t, store.keys, 2)

	pattern := regexp.MustCompile(`^user_example_com_down/gemini_(\d+)_([12])\.png$`)
	first := pattern.FindStringSubmatch(store.keys[0])
	second := pattern.FindStringSubmatch(store.keys[1])
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first[1], second[1])
	assert.Equal(t, "1", first[2])
	assert.Equal(t, "2", second[2])
}

func TestGenerateAndStore_NormalizesCount(t *testing.T) {
	generator := &fakeGenerator{}
	svc := services.NewGenerationService(generator, &fakeStore{}, zap.NewNop())

	attachments, err := svc.GenerateAndStore(context.Background(), "prompt", nil, "", "a@b.c", 3)

	require.NoError(t, err)
	assert.Len(t, attachments, 1)
	assert.Equal(t, 1, generator.count)
}

func TestGenerateAndStore_EmptyEmailHasNoFolder(t *testing.T) {
	store := &fakeStore{}
	svc := services.NewGenerationService(&fakeGenerator{}, store, zap.NewNop())

	_, err := svc.GenerateAndStore(context.Background(), "prompt", nil, "", "", 1)

	require.NoError(t, err)
	require.Len(t, store.keys, 1)
	assert.Regexp(t, regexp.MustCompile(`^gemini_\d+\.png$`), store.keys[0])
}

func TestGenerateAndStore_GeneratorErrorPropagates(t *testing.T) {
	svc := services.NewGenerationService(&fakeGenerator{err: errors.New("upstream down")}, &fakeStore{}, zap.NewNop())

	_, err := svc.GenerateAndStore(context.Background(), "prompt", nil, "", "a@b.c", 1)
	assert.ErrorContains(t, err, "upstream down")
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "user_example_com", services.SanitizeEmail("user@example.com"))
	assert.Equal(t, "a_b_c_d", services.SanitizeEmail("a+b@c.d"))
	assert.Equal(t, "Plain123", services.SanitizeEmail("Plain123"))
	assert.Equal(t, "", services.SanitizeEmail(""))
}
