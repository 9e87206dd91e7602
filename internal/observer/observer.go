package observer

import (
	"context"

	"gorm.io/gorm"

	"github.com/backstage-cms/uploadcare-media/internal/media"
	"github.com/backstage-cms/uploadcare-media/internal/normalize"
	"github.com/backstage-cms/uploadcare-media/pkg/db/models"
	"github.com/backstage-cms/uploadcare-media/pkg/errors"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
)

// Observer runs the normalization pipeline after a content field value is
// saved. It is the live counterpart of the batch repair runner.
type Observer struct {
	db       *gorm.DB
	resolver *media.Resolver
	sync     *media.Synchronizer
	logg     *logger.Logger
}

func New(db *gorm.DB, resolver *media.Resolver, sync *media.Synchronizer, logg *logger.Logger) *Observer {
	return &Observer{db: db, resolver: resolver, sync: sync, logg: logg}
}

// FieldValueSaved normalizes one freshly saved field value. Values whose
// field type cannot embed files are skipped outright; malformed values are
// left untouched so a bad save never destroys relationship state. The
// synchronizer's quiet value write keeps this safe to call from a save hook.
func (o *Observer) FieldValueSaved(ctx context.Context, fv *models.ContentFieldValue) error {
	if fv == nil {
		return nil
	}

	if fv.Field == nil {
		var field models.Field
		err := o.db.WithContext(ctx).First(&field, "ulid = ?", fv.FieldULID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		fv.Field = &field
	}
	if !fv.Field.FieldType.EmbedsFiles() {
		return nil
	}

	decoded, decodes, err := normalize.DecodeStored(fv.Value)
	if err != nil {
		if o.logg != nil {
			ctx = o.logg.WithFieldValueID(ctx, fv.ULID)
			o.logg.Debug(ctx, "skipping field value with non-container payload")
		}
		return nil
	}

	rewriter := normalize.NewRewriter(o.resolver.ForTenant(fv.SiteULID))
	rewritten, mutated := rewriter.Rewrite(ctx, decoded)

	newValue := fv.Value
	if mutated || decodes > 0 {
		encoded, err := normalize.EncodeStored(rewritten)
		if err != nil {
			return err
		}
		newValue = encoded
	}

	if o.logg != nil && (decodes > 0 || rewriter.Dropped() > 0) {
		ctx = o.logg.WithFields(ctx, map[string]any{
			"field_value_id": fv.ULID,
			"decodes":        decodes + rewriter.Decodes(),
			"dropped":        rewriter.Dropped(),
		})
		o.logg.Info(ctx, "normalized field value on save")
	}

	return o.sync.Sync(ctx, fv, rewriter.Refs(), newValue)
}

// ProcessByULID loads a field value and runs it through FieldValueSaved.
// This is the entrypoint for the CMS calling in after one of its own saves.
func (o *Observer) ProcessByULID(ctx context.Context, fieldValueULID string) (*models.ContentFieldValue, error) {
	var fv models.ContentFieldValue
	err := o.db.WithContext(ctx).First(&fv, "ulid = ?", fieldValueULID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "field value not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load field value")
	}

	if err := o.FieldValueSaved(ctx, &fv); err != nil {
		return nil, err
	}
	return &fv, nil
}
