package media

import (
	"context"

	"gorm.io/gorm"

	"github.com/backstage-cms/uploadcare-media/pkg/db/models"
	pkgerrors "github.com/backstage-cms/uploadcare-media/pkg/errors"
)

// RelationshipRepository persists the polymorphic media join rows.
type RelationshipRepository struct {
	db *gorm.DB
}

// NewRelationshipRepository constructs a repository bound to the provided GORM DB.
func NewRelationshipRepository(db *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// ListForOwner returns the owner's relationship rows in position order.
func (r *RelationshipRepository) ListForOwner(ctx context.Context, modelType, modelID string) ([]models.MediaRelationship, error) {
	return listForOwner(r.db.WithContext(ctx), modelType, modelID)
}

// ListForOwnerTx is the transactional variant used inside a sync.
func (r *RelationshipRepository) ListForOwnerTx(tx *gorm.DB, modelType, modelID string) ([]models.MediaRelationship, error) {
	return listForOwner(tx, modelType, modelID)
}

func listForOwner(db *gorm.DB, modelType, modelID string) ([]models.MediaRelationship, error) {
	var rows []models.MediaRelationship
	err := db.
		Where("model_type = ? AND model_id = ?", modelType, modelID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReplaceForOwner deletes every relationship row for the owner and inserts
// the supplied rows. Callers run this inside a transaction so the owner is
// never observed with a partial relationship set.
func (r *RelationshipRepository) ReplaceForOwner(tx *gorm.DB, modelType, modelID string, rows []models.MediaRelationship) error {
	if tx == nil || tx.Statement == nil || tx.Statement.ConnPool == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}

	err := tx.
		Where("model_type = ? AND model_id = ?", modelType, modelID).
		Delete(&models.MediaRelationship{}).Error
	if err != nil {
		return err
	}

	for i := range rows {
		rows[i].ModelType = modelType
		rows[i].ModelID = modelID
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}
