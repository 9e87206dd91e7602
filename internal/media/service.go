package media

import (
	"context"
	"strings"

	"github.com/backstage-cms/uploadcare-media/internal/uploadcare"
	"github.com/backstage-cms/uploadcare-media/pkg/config"
	"github.com/backstage-cms/uploadcare-media/pkg/db/models"
	pkgerrors "github.com/backstage-cms/uploadcare-media/pkg/errors"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
	"github.com/backstage-cms/uploadcare-media/pkg/pagination"
)

// Service exposes the read surface used by the picker backend and rendering
// collaborators.
type Service struct {
	repo *Repository
	cfg  config.MediaConfig
	logg *logger.Logger
}

func NewService(repo *Repository, cfg config.MediaConfig, logg *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, logg: logg}
}

// Item is one media row shaped for listing responses.
type Item struct {
	ULID             string `json:"ulid"`
	OriginalFilename string `json:"original_filename"`
	MimeType         string `json:"mime_type"`
	Extension        string `json:"extension"`
	Size             int64  `json:"size"`
	Width            *int   `json:"width,omitempty"`
	Height           *int   `json:"height,omitempty"`
	CDNURL           string `json:"cdn_url"`
}

// List returns a page of media for the picker, newest first.
func (s *Service) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]Item, string, error) {
	rows, next, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, "", err
	}
	items := make([]Item, len(rows))
	for i, row := range rows {
		items[i] = Item{
			ULID:             row.ULID,
			OriginalFilename: row.OriginalFilename,
			MimeType:         row.MimeType,
			Extension:        row.Extension,
			Size:             row.Size,
			Width:            row.Width,
			Height:           row.Height,
			CDNURL:           s.CDNURL(&row),
		}
	}
	return items, next, nil
}

// CDNURL returns the public URL for a media row, preferring the exact URL
// captured at upload time so transformation modifiers survive.
func (s *Service) CDNURL(m *models.Media) string {
	if m == nil {
		return ""
	}
	if raw, ok := m.Metadata["cdnUrl"].(string); ok && raw != "" {
		return raw
	}
	if info, ok := m.Metadata["fileInfo"].(map[string]any); ok {
		if raw, ok := info["cdnUrl"].(string); ok && raw != "" {
			return raw
		}
	}
	return strings.TrimRight(s.cfg.CDNBase, "/") + "/" + m.Filename + "/"
}

// ResolveCDNURL maps a stored reference (media ULID, upload UUID, or CDN URL)
// to its public URL.
func (s *Service) ResolveCDNURL(ctx context.Context, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "identifier required")
	}

	var (
		row *models.Media
		err error
	)
	if uploadcare.IsULID(identifier) {
		row, err = s.repo.FindByULID(ctx, identifier)
	} else if uuid := uploadcare.ExtractUUID(identifier); uuid != "" {
		row, err = s.repo.FindByNaturalKey(ctx, s.cfg.Disk, uuid)
	} else {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "identifier is not a media reference")
	}
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "media row not found")
	}
	return s.CDNURL(row), nil
}
