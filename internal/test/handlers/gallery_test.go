package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/handlers"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/storage"
)

type fakeLister struct {
	objects  map[string][]storage.Object
	prefixes []string
}

func (f *fakeLister) List(prefix string) ([]storage.Object, error) {
	f.prefixes = append(f.prefixes, prefix)
	return f.objects[prefix], nil
}

func (f *fakeLister) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func galleryRouter(lister *fakeLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/list-images", handlers.NewGalleryHandler(lister, zap.NewNop()).List)
	return router
}

func TestListImages_MissingEmail(t *testing.T) {
	router := galleryRouter(&fakeLister{})

	req, _ := http.NewRequest("GET", "/list-images", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing email")
}

func TestListImages_AllFolders(t *testing.T) {
	lister := &fakeLister{objects: map[string][]storage.Object{
		"user_example_com_down/": {
			{Key: "user_example_com_down/gemini_200.png", Filename: "gemini_200.png", CreatedAt: "2026-08-20T10:00:00Z"},
		},
		"user_example_com_": {
			{Key: "user_example_com_100_photo.jpg", Filename: "user_example_com_100_photo.jpg", CreatedAt: "2026-08-19T10:00:00Z"},
			{Key: "user_example_com_100_notes.txt", Filename: "user_example_com_100_notes.txt", CreatedAt: "2026-08-19T10:00:00Z"},
		},
	}}
	router := galleryRouter(lister)

	req, _ := http.NewRequest("GET", "/list-images?email=user@example.com", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ListImagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// The text file is filtered out, newest image first, URLs cache-busted.
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "user_example_com_down/gemini_200.png", resp.Images[0].Key)
	assert.Equal(t, "user_example_com_100_photo.jpg", resp.Images[1].Key)
	assert.Contains(t, resp.Images[0].URL, "?v=")

	assert.Equal(t, []string{"user_example_com_down/", "user_example_com/", "user_example_com_"}, resp.FoldersChecked)
}

func TestListImages_BaseFolderOnly(t *testing.T) {
	lister := &fakeLister{objects: map[string][]storage.Object{}}
	router := galleryRouter(lister)

	req, _ := http.NewRequest("GET", "/list-images?email=user@example.com&folder=base", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// base must not use the bare-underscore prefix: it would sweep the
	// generated _down/ keys into the uploads view.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"user_example_com/"}, lister.prefixes)
}

func TestListImages_DownFolderOnly(t *testing.T) {
	lister := &fakeLister{objects: map[string][]storage.Object{}}
	router := galleryRouter(lister)

	req, _ := http.NewRequest("GET", "/list-images?email=user@example.com&folder=down", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"user_example_com_down/"}, lister.prefixes)
}

func TestListImages_DeduplicatesAcrossPrefixes(t *testing.T) {
	object := storage.Object{Key: "user_1_a.jpg", Filename: "user_1_a.jpg", CreatedAt: "2026-08-20T10:00:00Z"}
	lister := &fakeLister{objects: map[string][]storage.Object{
		"user/":  {object},
		"user_":  {object},
	}}
	router := galleryRouter(lister)

	req, _ := http.NewRequest("GET", "/list-images?email=user", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp models.ListImagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}
