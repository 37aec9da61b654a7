// Package genai calls the Gemini generateContent API for image-to-image
// work. Variations are independent generations: one upstream request per
// variation with an identical payload, so results may differ.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/imginfo"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrNoImagePayload is returned when the upstream response carries no inline
// image in any content part.
var ErrNoImagePayload = errors.New("no image in generation response")

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient builds a generation client. baseURL may be empty outside tests.
func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// GeneratedImage is one variation's raw output.
type GeneratedImage struct {
	Data     []byte
	MimeType string
}

// NormalizeVariationCount coerces a requested count to the supported set
// {1, 2, 4}, falling back to 1.
func NormalizeVariationCount(count int) int {
	switch count {
	case 1, 2, 4:
		return count
	default:
		return 1
	}
}

type inlinePayload struct {
	MimeType string `json:"mime_type,omitempty"`
	Data     string `json:"data"`
}

type requestPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *inlinePayload `json:"inline_data,omitempty"`
}

type generateRequest struct {
	Contents []struct {
		Parts []requestPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseModalities []string `json:"responseModalities"`
		ImageConfig        struct {
			AspectRatio string `json:"aspectRatio"`
			ImageSize   string `json:"imageSize"`
		} `json:"imageConfig"`
	} `json:"generationConfig"`
}

// responseInline tolerates both casings the API has been seen to emit.
type responseInline struct {
	MimeType      string `json:"mime_type"`
	MimeTypeCamel string `json:"mimeType"`
	Data          string `json:"data"`
}

func (r *responseInline) mime() string {
	if r.MimeType != "" {
		return r.MimeType
	}
	if r.MimeTypeCamel != "" {
		return r.MimeTypeCamel
	}
	return "image/png"
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData      *responseInline `json:"inline_data"`
				InlineDataCamel *responseInline `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateVariations runs count independent generations of the same prompt
// and source image. The aspect ratio is inferred from the source bytes:
// portrait when taller than wide, landscape otherwise or when unknown.
// The returned slice has exactly count entries on success.
func (c *Client) GenerateVariations(ctx context.Context, prompt string, imageData []byte, mimeType string, count int) ([]GeneratedImage, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	var payload generateRequest
	payload.Contents = make([]struct {
		Parts []requestPart `json:"parts"`
	}, 1)
	payload.Contents[0].Parts = []requestPart{
		{Text: prompt},
		{InlineData: &inlinePayload{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(imageData),
		}},
	}
	payload.GenerationConfig.ResponseModalities = []string{"TEXT", "IMAGE"}
	payload.GenerationConfig.ImageConfig.AspectRatio = imginfo.AspectRatio(imageData)
	payload.GenerationConfig.ImageConfig.ImageSize = "2K"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	results := make([]GeneratedImage, 0, count)
	for i := 1; i <= count; i++ {
		image, err := c.generateOnce(ctx, body)
		if err != nil {
			return nil, fmt.Errorf("variation %d/%d: %w", i, count, err)
		}
		results = append(results, *image)
	}
	return results, nil
}

func (c *Client) generateOnce(ctx context.Context, body []byte) (*GeneratedImage, error) {
	generateURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, generateURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decoded.Error != nil && decoded.Error.Message != "" {
			return nil, fmt.Errorf("generation failed: %s", decoded.Error.Message)
		}
		return nil, fmt.Errorf("generation failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	for _, candidate := range decoded.Candidates {
		for _, part := range candidate.Content.Parts {
			inline := part.InlineData
			if inline == nil {
				inline = part.InlineDataCamel
			}
			if inline == nil || inline.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(inline.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode image payload: %w", err)
			}
			return &GeneratedImage{Data: data, MimeType: inline.mime()}, nil
		}
	}

	return nil, fmt.Errorf("%w: body: %s", ErrNoImagePayload, string(respBody))
}
