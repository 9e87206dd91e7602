package media

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/backstage-cms/uploadcare-media/internal/normalize"
	"github.com/backstage-cms/uploadcare-media/pkg/db"
	"github.com/backstage-cms/uploadcare-media/pkg/db/models"
)

func seedFieldValue(t *testing.T, conn *gorm.DB, value string) *models.ContentFieldValue {
	t.Helper()

	field := &models.Field{
		ULID:      ulid.Make().String(),
		Name:      "Gallery",
		Slug:      "gallery",
		FieldType: models.FieldTypeUploadcare,
	}
	require.NoError(t, conn.Create(field).Error)

	fv := &models.ContentFieldValue{
		ULID:        ulid.Make().String(),
		ContentULID: ulid.Make().String(),
		FieldULID:   field.ULID,
		Value:       value,
		Field:       field,
	}
	require.NoError(t, conn.Create(fv).Error)
	return fv
}

func seedMedia(t *testing.T, conn *gorm.DB, uuid string) *models.Media {
	t.Helper()
	row := newMediaRow(uuid)
	require.NoError(t, conn.Create(row).Error)
	return row
}

func TestSyncReplacesRelationshipsInOrder(t *testing.T) {
	conn := setupMediaTestDB(t)
	client := db.NewWithConn(conn)
	relRepo := NewRelationshipRepository(conn)
	sync := NewSynchronizer(client, relRepo, nil)
	ctx := context.Background()

	fv := seedFieldValue(t, conn, `[]`)
	m1 := seedMedia(t, conn, "22395775-7f6c-4395-9559-9fbb1e73624c")
	m2 := seedMedia(t, conn, "3f8a1c2d-4e5b-4678-9a0b-1c2d3e4f5a6b")

	// Stale rows from an earlier save must be fully replaced.
	require.NoError(t, conn.Create(&models.MediaRelationship{
		MediaULID: m2.ULID,
		ModelType: models.FieldValueModelType,
		ModelID:   fv.ULID,
		Position:  0,
	}).Error)

	refs := []normalize.Ref{
		{MediaULID: m1.ULID, Position: 0, Meta: map[string]any{"uuid": m1.Filename}},
		{MediaULID: m2.ULID, Position: 1, Meta: map[string]any{"uuid": m2.Filename}},
	}
	newValue := `["` + m1.ULID + `","` + m2.ULID + `"]`
	require.NoError(t, sync.Sync(ctx, fv, refs, newValue))

	rows, err := relRepo.ListForOwner(ctx, models.FieldValueModelType, fv.ULID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, m1.ULID, rows[0].MediaULID)
	assert.Equal(t, 0, rows[0].Position)
	assert.Equal(t, m2.ULID, rows[1].MediaULID)
	assert.Equal(t, 1, rows[1].Position)

	var stored models.ContentFieldValue
	require.NoError(t, conn.First(&stored, "ulid = ?", fv.ULID).Error)
	assert.Equal(t, newValue, stored.Value)
}

func TestSyncRollsBackOnMidBatchFailure(t *testing.T) {
	conn := setupMediaTestDB(t)
	client := db.NewWithConn(conn)
	relRepo := NewRelationshipRepository(conn)
	sync := NewSynchronizer(client, relRepo, nil)
	ctx := context.Background()

	originalValue := `["before"]`
	fv := seedFieldValue(t, conn, originalValue)
	m1 := seedMedia(t, conn, "22395775-7f6c-4395-9559-9fbb1e73624c")
	m2 := seedMedia(t, conn, "3f8a1c2d-4e5b-4678-9a0b-1c2d3e4f5a6b")
	m3 := seedMedia(t, conn, "9d8c7b6a-5f4e-4d3c-8b2a-190807060504")

	prior := &models.MediaRelationship{
		MediaULID: m1.ULID,
		ModelType: models.FieldValueModelType,
		ModelID:   fv.ULID,
		Position:  0,
		Meta:      map[string]any{"uuid": m1.Filename},
	}
	require.NoError(t, conn.Create(prior).Error)

	// The third row violates the position check and fails the insert.
	refs := []normalize.Ref{
		{MediaULID: m1.ULID, Position: 0},
		{MediaULID: m2.ULID, Position: 1},
		{MediaULID: m3.ULID, Position: -1},
	}
	err := sync.Sync(ctx, fv, refs, `["after"]`)
	require.Error(t, err)

	rows, err := relRepo.ListForOwner(ctx, models.FieldValueModelType, fv.ULID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "prior relationship state must survive intact")
	assert.Equal(t, m1.ULID, rows[0].MediaULID)

	var stored models.ContentFieldValue
	require.NoError(t, conn.First(&stored, "ulid = ?", fv.ULID).Error)
	assert.Equal(t, originalValue, stored.Value, "value column must not change on failure")
}

func TestSyncKeepsRicherExistingMeta(t *testing.T) {
	conn := setupMediaTestDB(t)
	client := db.NewWithConn(conn)
	relRepo := NewRelationshipRepository(conn)
	sync := NewSynchronizer(client, relRepo, nil)
	ctx := context.Background()

	fv := seedFieldValue(t, conn, `[]`)
	m1 := seedMedia(t, conn, "22395775-7f6c-4395-9559-9fbb1e73624c")

	richMeta := map[string]any{
		"uuid":            m1.Filename,
		"cdnUrl":          "https://ucarecdn.com/" + m1.Filename + "/-/crop/300x300/",
		"cdnUrlModifiers": "-/crop/300x300/",
	}
	require.NoError(t, conn.Create(&models.MediaRelationship{
		MediaULID: m1.ULID,
		ModelType: models.FieldValueModelType,
		ModelID:   fv.ULID,
		Position:  0,
		Meta:      richMeta,
	}).Error)

	// Re-sync derives only a bare-uuid meta; the stored one must win.
	refs := []normalize.Ref{{MediaULID: m1.ULID, Position: 0, Meta: map[string]any{"uuid": m1.Filename}}}
	require.NoError(t, sync.Sync(ctx, fv, refs, `["`+m1.ULID+`"]`))

	rows, err := relRepo.ListForOwner(ctx, models.FieldValueModelType, fv.ULID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, richMeta["cdnUrl"], rows[0].Meta["cdnUrl"], "identifying meta must not be clobbered")
	assert.Equal(t, richMeta["cdnUrlModifiers"], rows[0].Meta["cdnUrlModifiers"])
}

func TestSyncOverwritesEmptyExistingMeta(t *testing.T) {
	conn := setupMediaTestDB(t)
	client := db.NewWithConn(conn)
	relRepo := NewRelationshipRepository(conn)
	sync := NewSynchronizer(client, relRepo, nil)
	ctx := context.Background()

	fv := seedFieldValue(t, conn, `[]`)
	m1 := seedMedia(t, conn, "22395775-7f6c-4395-9559-9fbb1e73624c")

	require.NoError(t, conn.Create(&models.MediaRelationship{
		MediaULID: m1.ULID,
		ModelType: models.FieldValueModelType,
		ModelID:   fv.ULID,
		Position:  0,
	}).Error)

	derived := map[string]any{"uuid": m1.Filename}
	refs := []normalize.Ref{{MediaULID: m1.ULID, Position: 0, Meta: derived}}
	require.NoError(t, sync.Sync(ctx, fv, refs, `["`+m1.ULID+`"]`))

	rows, err := relRepo.ListForOwner(ctx, models.FieldValueModelType, fv.ULID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, m1.Filename, rows[0].Meta["uuid"], "empty stored meta is replaced by the derived one")
}

func TestHasIdentifyingMeta(t *testing.T) {
	assert.False(t, HasIdentifyingMeta(nil))
	assert.False(t, HasIdentifyingMeta(map[string]any{"position": 3}))
	assert.True(t, HasIdentifyingMeta(map[string]any{"uuid": "x"}))
	assert.True(t, HasIdentifyingMeta(map[string]any{"cdnUrl": "x"}))
	assert.True(t, HasIdentifyingMeta(map[string]any{"fileInfo": map[string]any{"uuid": "x"}}))
	assert.False(t, HasIdentifyingMeta(map[string]any{"fileInfo": map[string]any{"name": "x"}}))
}
