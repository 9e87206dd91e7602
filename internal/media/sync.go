package media

import (
	"context"

	"gorm.io/gorm"

	"github.com/backstage-cms/uploadcare-media/internal/normalize"
	"github.com/backstage-cms/uploadcare-media/pkg/db"
	"github.com/backstage-cms/uploadcare-media/pkg/db/models"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
)

// Synchronizer replaces a field value's relationship rows and writes back the
// rewritten value, all inside one transaction.
type Synchronizer struct {
	client  *db.Client
	relRepo *RelationshipRepository
	logg    *logger.Logger
}

func NewSynchronizer(client *db.Client, relRepo *RelationshipRepository, logg *logger.Logger) *Synchronizer {
	return &Synchronizer{client: client, relRepo: relRepo, logg: logg}
}

// Sync atomically replaces the relationship rows for fv with refs, assigning
// zero-based contiguous positions, and persists newValue onto the row. The
// value write uses UpdateColumn, which skips model hooks so the save-time
// observer cannot be retriggered by its own write. On any failure the whole
// replacement rolls back and the row keeps its prior state.
func (s *Synchronizer) Sync(ctx context.Context, fv *models.ContentFieldValue, refs []normalize.Ref, newValue string) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		existing, err := s.relRepo.ListForOwnerTx(tx, models.FieldValueModelType, fv.ULID)
		if err != nil {
			return err
		}
		existingMeta := metaByMedia(existing)

		rows := make([]models.MediaRelationship, len(refs))
		for i, ref := range refs {
			meta := ref.Meta
			if prior, ok := existingMeta[ref.MediaULID]; ok && HasIdentifyingMeta(prior) {
				// Historical meta that already identifies the upload wins
				// over a reconstruction from a bare reference.
				meta = prior
			}
			rows[i] = models.MediaRelationship{
				MediaULID: ref.MediaULID,
				Position:  ref.Position,
				Meta:      meta,
			}
		}

		if err := s.relRepo.ReplaceForOwner(tx, models.FieldValueModelType, fv.ULID, rows); err != nil {
			return err
		}

		err = tx.Model(&models.ContentFieldValue{}).
			Where("ulid = ?", fv.ULID).
			UpdateColumn("value", newValue).Error
		if err != nil {
			return err
		}

		fv.Value = newValue
		return nil
	})
}

// HasIdentifyingMeta reports whether meta already carries the upload's
// identifying fields, directly or nested under fileInfo.
func HasIdentifyingMeta(meta map[string]any) bool {
	if len(meta) == 0 {
		return false
	}
	if hasIdentifyingKeys(meta) {
		return true
	}
	if info, ok := meta["fileInfo"].(map[string]any); ok {
		return hasIdentifyingKeys(info)
	}
	return false
}

func hasIdentifyingKeys(m map[string]any) bool {
	if v, ok := m["uuid"].(string); ok && v != "" {
		return true
	}
	if v, ok := m["cdnUrl"].(string); ok && v != "" {
		return true
	}
	return false
}

func metaByMedia(rows []models.MediaRelationship) map[string]map[string]any {
	out := make(map[string]map[string]any, len(rows))
	for _, row := range rows {
		if _, ok := out[row.MediaULID]; !ok {
			out[row.MediaULID] = row.Meta
		}
	}
	return out
}
