package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/services"
)

type fakeRecordStore struct {
	pending    *models.Record
	pendingErr error

	created []models.RecordFields
	updated map[string]models.RecordFields
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{updated: make(map[string]models.RecordFields)}
}

func (f *fakeRecordStore) FindPendingRecordForEmail(ctx context.Context, email string) (*models.Record, error) {
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	return f.pending, nil
}

func (f *fakeRecordStore) CreateRecord(ctx context.Context, fields models.RecordFields) (*models.Record, error) {
	f.created = append(f.created, fields)
	return &models.Record{ID: "rec_new", Fields: fields}, nil
}

func (f *fakeRecordStore) UpdateRecord(ctx context.Context, id string, fields models.RecordFields) (*models.Record, error) {
	f.updated[id] = fields
	return &models.Record{ID: id, Fields: fields}, nil
}

func newOrderService(records *fakeRecordStore) (*services.OrderService, *fakeStore) {
	store := &fakeStore{}
	return services.NewOrderService(records, store, zap.NewNop()), store
}

func TestUploadObjects_KeyNaming(t *testing.T) {
	svc, store := newOrderService(newFakeRecordStore())

	attachments, err := svc.UploadObjects("test@example.com", []services.UploadFile{
		{Name: "photo.jpg", Data: []byte{0x01}, ContentType: "image/jpeg"},
	})

	require.NoError(t, err)
	require.Len(t, attachments, 1)
	require.Len(t, store.keys, 1)
	assert.Regexp(t, regexp.MustCompile(`^test_example_com_\d+_photo\.jpg$`), store.keys[0])
}

func TestUploadObjects_AnonymousFallback(t *testing.T) {
	svc, store := newOrderService(newFakeRecordStore())

	_, err := svc.UploadObjects("", []services.UploadFile{
		{Name: "photo.jpg", Data: []byte{0x01}},
	})

	require.NoError(t, err)
	require.Len(t, store.keys, 1)
	assert.Regexp(t, regexp.MustCompile(`^anonymous_\d+_photo\.jpg$`), store.keys[0])
}

func TestSaveSubmission_TestUploadBlockedWhilePending(t *testing.T) {
	records := newFakeRecordStore()
	records.pending = &models.Record{ID: "rec_pending"}
	svc, _ := newOrderService(records)

	_, err := svc.SaveSubmission(context.Background(), services.SaveParams{
		Email:        "a@b.c",
		UploadColumn: services.UploadColumnTest,
		Attachments:  []models.Attachment{{URL: "x"}},
	})

	assert.ErrorIs(t, err, services.ErrPendingCycle)
	assert.Empty(t, records.created)
}

func TestSaveSubmission_FinalUploadPatchesPending(t *testing.T) {
	records := newFakeRecordStore()
	records.pending = &models.Record{ID: "rec_pending"}
	svc, _ := newOrderService(records)

	record, err := svc.SaveSubmission(context.Background(), services.SaveParams{
		Email:        "a@b.c",
		UploadColumn: services.UploadColumnFinal,
		Attachments:  []models.Attachment{{URL: "final"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "rec_pending", record.ID)
	assert.Empty(t, records.created)

	fields, ok := records.updated["rec_pending"]
	require.True(t, ok)
	require.Len(t, fields.FinalImages, 1)
	assert.Equal(t, "final", fields.FinalImages[0].URL)
}

func TestSaveSubmission_CreatesRecordWithoutPending(t *testing.T) {
	records := newFakeRecordStore()
	svc, _ := newOrderService(records)

	record, err := svc.SaveSubmission(context.Background(), services.SaveParams{
		Prompt:       "p",
		Email:        "a@b.c",
		ImageURL:     "https://cdn.test/img.png",
		OrderPackage: "Basic",
		UploadColumn: services.UploadColumnTest,
		Attachments:  []models.Attachment{{URL: "t"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "rec_new", record.ID)
	require.Len(t, records.created, 1)

	fields := records.created[0]
	assert.Equal(t, "p", fields.Prompt)
	assert.Equal(t, "Anonymous", fields.User)
	assert.NotEmpty(t, fields.Timestamp)
	require.Len(t, fields.Image, 1)
	assert.Equal(t, "https://cdn.test/img.png", fields.Image[0].URL)
	require.Len(t, fields.TestImages, 1)
	assert.Empty(t, fields.FinalImages)
}

func TestSaveSubmission_LookupFailureDoesNotBlock(t *testing.T) {
	records := newFakeRecordStore()
	records.pendingErr = errors.New("listing failed")
	svc, _ := newOrderService(records)

	_, err := svc.SaveSubmission(context.Background(), services.SaveParams{
		Email:        "a@b.c",
		UploadColumn: services.UploadColumnTest,
		Attachments:  []models.Attachment{{URL: "x"}},
	})

	require.NoError(t, err)
	assert.Len(t, records.created, 1)
}

func TestEnsureNoPendingCycle(t *testing.T) {
	records := newFakeRecordStore()
	svc, _ := newOrderService(records)
	assert.NoError(t, svc.EnsureNoPendingCycle(context.Background(), "a@b.c"))

	records.pending = &models.Record{ID: "rec_pending"}
	assert.ErrorIs(t, svc.EnsureNoPendingCycle(context.Background(), "a@b.c"), services.ErrPendingCycle)

	// No email means no cycle to guard.
	assert.NoError(t, svc.EnsureNoPendingCycle(context.Background(), ""))
}
