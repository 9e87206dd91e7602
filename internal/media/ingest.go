package media

import (
	"context"
	"net/url"
	"strings"

	"github.com/backstage-cms/uploadcare-media/internal/normalize"
	"github.com/backstage-cms/uploadcare-media/internal/uploadcare"
	"github.com/backstage-cms/uploadcare-media/pkg/config"
	"github.com/backstage-cms/uploadcare-media/pkg/db/models"
	pkgerrors "github.com/backstage-cms/uploadcare-media/pkg/errors"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
)

// allowedCDNHosts are the Uploadcare CDN domains accepted for bare URL
// ingestion.
var allowedCDNHosts = map[string]struct{}{
	"ucarecdn.com": {},
	"ucarecd.net":  {},
}

// Ingestor records uploads announced by the widget's upload webhook.
type Ingestor struct {
	repo     *Repository
	resolver *Resolver
	cfg      config.MediaConfig
	logg     *logger.Logger
}

func NewIngestor(repo *Repository, resolver *Resolver, cfg config.MediaConfig, logg *logger.Logger) *Ingestor {
	return &Ingestor{repo: repo, resolver: resolver, cfg: cfg, logg: logg}
}

// Ingest upserts a media row from an upload event payload. The payload may be
// a raw descriptor object, a JSON-encoded descriptor string, or a bare CDN
// URL. Existing rows only get empty fields backfilled; identifying data is
// never overwritten.
func (i *Ingestor) Ingest(ctx context.Context, payload any, site *string, actor string) (*models.Media, error) {
	node, err := i.payloadToDescriptorNode(payload)
	if err != nil {
		return nil, err
	}

	d, err := uploadcare.ParseDescriptor(node)
	if err != nil {
		return nil, err
	}

	existing, err := i.repo.FindByNaturalKey(ctx, i.cfg.Disk, d.UUID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := i.repo.Backfill(ctx, existing.ULID, backfillUpdates(existing, d)); err != nil {
			return nil, err
		}
		refreshed, err := i.repo.FindByULID(ctx, existing.ULID)
		if err != nil {
			return nil, err
		}
		return refreshed, nil
	}

	resolver := i.resolver.ForTenant(site).ForActor(actor)
	row := resolver.buildRow(d)
	persisted, created, err := i.repo.CreateIfAbsent(ctx, row)
	if err != nil {
		return nil, err
	}
	if created {
		resolver.metrics.AddMediaCreated(1)
		if i.logg != nil {
			ctx = i.logg.WithFields(ctx, map[string]any{
				"media_ulid": persisted.ULID,
				"uuid":       d.UUID,
			})
			i.logg.Info(ctx, "ingested upload event")
		}
	}
	return persisted, nil
}

func (i *Ingestor) payloadToDescriptorNode(payload any) (map[string]any, error) {
	decoded, _ := normalize.Decode(payload)

	switch v := decoded.(type) {
	case map[string]any:
		return v, nil
	case string:
		value := strings.TrimSpace(v)
		if !uploadcare.IsURL(value) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payload is neither a descriptor nor a CDN URL")
		}
		parsed, err := url.Parse(value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid CDN URL")
		}
		host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
		if _, ok := allowedCDNHosts[host]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "URL host is not an Uploadcare CDN")
		}
		return map[string]any{"cdnUrl": value}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payload shape")
	}
}

// backfillUpdates computes the column writes that fill gaps on an existing
// row from a richer descriptor.
func backfillUpdates(existing *models.Media, d *uploadcare.Descriptor) map[string]any {
	updates := map[string]any{}
	if (existing.OriginalFilename == "" || existing.OriginalFilename == uploadcare.DefaultFilename) &&
		d.OriginalFilename != uploadcare.DefaultFilename {
		updates["original_filename"] = d.OriginalFilename
	}
	if (existing.MimeType == "" || existing.MimeType == uploadcare.DefaultMimeType) &&
		d.MimeType != uploadcare.DefaultMimeType {
		updates["mime_type"] = resolveMimeType(d)
	}
	if existing.Extension == "" && d.Extension != "" {
		updates["extension"] = d.Extension
	}
	if existing.Size == 0 && d.Size > 0 {
		updates["size"] = d.Size
	}
	if existing.Width == nil && d.Width != nil {
		updates["width"] = *d.Width
	}
	if existing.Height == nil && d.Height != nil {
		updates["height"] = *d.Height
	}
	if len(existing.Metadata) == 0 && len(d.Raw) > 0 {
		updates["metadata"] = d.Raw
	}
	return updates
}
