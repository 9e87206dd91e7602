package media

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/backstage-cms/uploadcare-media/pkg/db/models"
	pkgerrors "github.com/backstage-cms/uploadcare-media/pkg/errors"
	"github.com/backstage-cms/uploadcare-media/pkg/pagination"
)

// Repository exposes media persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a media repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByULID retrieves a media record by primary key.
func (r *Repository) FindByULID(ctx context.Context, ulid string) (*models.Media, error) {
	var m models.Media
	err := r.db.WithContext(ctx).First(&m, "ulid = ?", strings.ToUpper(ulid)).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// FindByNaturalKey retrieves a media record by its (disk, filename) pair. The
// filename holds the upload UUID for this integration.
func (r *Repository) FindByNaturalKey(ctx context.Context, disk, filename string) (*models.Media, error) {
	var m models.Media
	err := r.db.WithContext(ctx).
		First(&m, "disk = ? AND filename = ?", disk, filename).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// CreateIfAbsent inserts the media row unless its natural key already exists,
// then returns whichever row now owns the key. The conflict clause closes the
// race between two concurrent first-sightings of the same upload.
func (r *Repository) CreateIfAbsent(ctx context.Context, media *models.Media) (*models.Media, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "disk"}, {Name: "filename"}},
			DoNothing: true,
		}).
		Create(media)
	if res.Error != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeCreationConflict, res.Error, "creating media row")
	}

	created := res.RowsAffected > 0
	if created {
		return media, true, nil
	}

	existing, err := r.FindByNaturalKey(ctx, media.Disk, media.Filename)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeCreationConflict, "media row vanished after conflict")
	}
	return existing, false, nil
}

// Backfill writes only the attribute updates that fill previously-empty
// fields. Identifying data on an existing row is never overwritten.
func (r *Repository) Backfill(ctx context.Context, ulid string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Media{}).
		Where("ulid = ?", ulid).
		Updates(updates).Error
}

// ListFilters narrows the media listing.
type ListFilters struct {
	SiteULID *string
	Search   string
}

// List returns a page of media rows ordered by newest first, with one extra
// row fetched to detect whether a next page exists.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Media, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Media{})
	if filters.SiteULID != nil {
		query = query.Where("site_ulid = ?", *filters.SiteULID)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		query = query.Where("original_filename LIKE ?", "%"+search+"%")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND ulid < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ULID,
		)
	}

	var rows []models.Media
	err = query.
		Order("created_at DESC").
		Order("ulid DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ULID: last.ULID})
	}
	return rows, next, nil
}
