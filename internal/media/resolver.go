package media

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/backstage-cms/uploadcare-media/internal/normalize"
	"github.com/backstage-cms/uploadcare-media/internal/uploadcare"
	"github.com/backstage-cms/uploadcare-media/pkg/config"
	"github.com/backstage-cms/uploadcare-media/pkg/db/models"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
	"github.com/backstage-cms/uploadcare-media/pkg/metrics"
)

// Resolver maps upload references to media rows, creating rows lazily for
// full descriptors. It implements normalize.Resolver.
type Resolver struct {
	repo       *Repository
	cfg        config.MediaConfig
	logg       *logger.Logger
	metrics    *metrics.RepairMetrics
	site       *string
	uploadedBy string
}

// NewResolver constructs a resolver with no tenant scope.
func NewResolver(repo *Repository, cfg config.MediaConfig, logg *logger.Logger) *Resolver {
	return &Resolver{repo: repo, cfg: cfg, logg: logg}
}

// WithMetrics returns a copy that counts media creations.
func (r *Resolver) WithMetrics(m *metrics.RepairMetrics) *Resolver {
	scoped := *r
	scoped.metrics = m
	return &scoped
}

// ForTenant returns a copy that stamps newly created rows with the tenant.
// Lookups stay unscoped: a row uploaded under another tenant still matches,
// which keeps dedup working across sites.
func (r *Resolver) ForTenant(site *string) *Resolver {
	scoped := *r
	scoped.site = site
	return &scoped
}

// ForActor returns a copy that stamps newly created rows with the uploader.
func (r *Resolver) ForActor(actor string) *Resolver {
	scoped := *r
	scoped.uploadedBy = actor
	return &scoped
}

// ResolveIdentifier looks up a bare reference string. ULIDs are matched by
// primary key and never fabricated; UUIDs and CDN URLs are matched by the
// natural key. A bare string never creates a row, since a media record built
// from a string alone would carry no usable metadata.
func (r *Resolver) ResolveIdentifier(ctx context.Context, value string) (*normalize.ResolvedMedia, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if uploadcare.IsULID(value) {
		row, err := r.repo.FindByULID(ctx, value)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, nil
		}
		return &normalize.ResolvedMedia{ULID: row.ULID}, nil
	}

	uuid := uploadcare.ExtractUUID(value)
	if uuid == "" {
		return nil, nil
	}
	row, err := r.repo.FindByNaturalKey(ctx, r.cfg.Disk, uuid)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return &normalize.ResolvedMedia{ULID: row.ULID, Meta: uploadcare.URLMeta(value)}, nil
}

// ResolveDescriptor resolves a raw widget payload, creating the media row on
// first sight of its upload UUID.
func (r *Resolver) ResolveDescriptor(ctx context.Context, node map[string]any) (*normalize.ResolvedMedia, error) {
	d, err := uploadcare.ParseDescriptor(node)
	if err != nil {
		return nil, err
	}

	existing, err := r.repo.FindByNaturalKey(ctx, r.cfg.Disk, d.UUID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &normalize.ResolvedMedia{ULID: existing.ULID, Meta: d.Meta()}, nil
	}

	row := r.buildRow(d)
	persisted, created, err := r.repo.CreateIfAbsent(ctx, row)
	if err != nil {
		return nil, err
	}
	if created {
		r.metrics.AddMediaCreated(1)
		if r.logg != nil {
			ctx = r.logg.WithFields(ctx, map[string]any{
				"media_ulid": persisted.ULID,
				"uuid":       d.UUID,
			})
			r.logg.Info(ctx, "created media row from descriptor")
		}
	}
	return &normalize.ResolvedMedia{ULID: persisted.ULID, Meta: d.Meta()}, nil
}

func (r *Resolver) buildRow(d *uploadcare.Descriptor) *models.Media {
	var uploadedBy *string
	if r.uploadedBy != "" {
		actor := r.uploadedBy
		uploadedBy = &actor
	}
	return &models.Media{
		ULID:             ulid.Make().String(),
		SiteULID:         r.site,
		UploadedBy:       uploadedBy,
		Disk:             r.cfg.Disk,
		Filename:         d.UUID,
		OriginalFilename: d.OriginalFilename,
		MimeType:         resolveMimeType(d),
		Extension:        d.Extension,
		Size:             d.Size,
		Width:            d.Width,
		Height:           d.Height,
		Public:           r.cfg.PublicByDefault(),
		Metadata:         d.Raw,
		Checksum:         checksumFor(d.UUID),
	}
}

// checksumFor hashes the upload UUID, not file content. It identifies the
// upload, it does not verify bytes.
func checksumFor(uuid string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(uuid)))
}
