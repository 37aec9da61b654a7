// Package storage wraps the Supabase storage API as the image bucket. Keys
// follow the naming policy the upload UI and gallery depend on, so they must
// not change shape:
//
//	{safeEmail}_{epochMillis}_{originalFilename}          direct uploads
//	{safeEmail}_down/gemini_{epochMillis}[_{n}].{ext}     generated outputs
package storage

import (
	"bytes"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

type Client struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

// Object is one stored blob as the gallery listing needs it.
type Object struct {
	Key       string
	Filename  string
	CreatedAt string
	UpdatedAt string
	Size      int64
}

func NewClient(storageURL, serviceKey, bucket, publicBaseURL string) (*Client, error) {
	baseURL := strings.TrimSuffix(storageURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceKey, nil)

	return &Client{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

// Put stores data under key, overwriting any existing object with that key.
func (c *Client) Put(key string, data []byte, contentType string) error {
	upsert := true
	_, err := c.client.UploadFile(c.bucket, key, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// PublicURL builds the public address of a key from the configured base.
// No network call is involved; the mapping is deterministic.
func (c *Client) PublicURL(key string) string {
	return c.publicBaseURL + "/" + key
}

// List returns the objects under prefix. Prefixes ending in "/" are folder
// listings; the returned keys are rebuilt relative to that folder.
func (c *Client) List(prefix string) ([]Object, error) {
	files, err := c.client.ListFiles(c.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects with prefix %s: %w", prefix, err)
	}

	objects := make([]Object, 0, len(files))
	for _, file := range files {
		key := file.Name
		if strings.HasSuffix(prefix, "/") {
			key = prefix + file.Name
		}
		objects = append(objects, Object{
			Key:       key,
			Filename:  file.Name,
			CreatedAt: file.CreatedAt,
			UpdatedAt: file.UpdatedAt,
			Size:      objectSize(file.Metadata),
		})
	}
	return objects, nil
}

func objectSize(metadata interface{}) int64 {
	meta, ok := metadata.(map[string]interface{})
	if !ok {
		return 0
	}
	size, ok := meta["size"].(float64)
	if !ok {
		return 0
	}
	return int64(size)
}
