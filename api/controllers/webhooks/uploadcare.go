package webhooks

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/backstage-cms/uploadcare-media/api/responses"
	"github.com/backstage-cms/uploadcare-media/api/validators"
	"github.com/backstage-cms/uploadcare-media/internal/media"
	"github.com/backstage-cms/uploadcare-media/pkg/config"
	pkgerrors "github.com/backstage-cms/uploadcare-media/pkg/errors"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
)

const (
	signatureHeader = "X-Uc-Signature"
	webhookActor    = "uploadcare-webhook"
)

type uploadcareEvent struct {
	Hook struct {
		Event string `json:"event" validate:"required"`
	} `json:"hook"`
	Initiator      map[string]any `json:"initiator"`
	Data           map[string]any `json:"data"`
	PreviousValues map[string]any `json:"previous_values"`
}

var handledEvents = map[string]bool{
	"file.uploaded":     true,
	"file.info_updated": true,
}

// UploadcareWebhook registers files announced by the upload provider so the
// library stays ahead of editors saving content that references them.
func UploadcareWebhook(ingestor *media.Ingestor, cfg config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if ingestor == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media ingestor unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if cfg.WebhookSecret != "" {
			sig := r.Header.Get(signatureHeader)
			if sig == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature missing"))
				return
			}
			if !validateSignature(payload, cfg.WebhookSecret, sig) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
				return
			}
		}

		// Rewind so the decoder sees the same bytes the signature covered.
		r.Body = io.NopCloser(bytes.NewReader(payload))

		var event uploadcareEvent
		if err := validators.DecodeJSONBody(r, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if !handledEvents[event.Hook.Event] {
			if logg != nil {
				logg.Debug(logg.WithField(ctx, "event", event.Hook.Event), "ignoring webhook event")
			}
			responses.WriteSuccess(w, nil)
			return
		}

		if len(event.Data) == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event carries no file data"))
			return
		}

		row, err := ingestor.Ingest(ctx, event.Data, nil, webhookActor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"ulid": row.ULID})
	}
}

// The provider signs the raw body with HMAC-SHA256, hex encoded, optionally
// prefixed with a version tag.
func validateSignature(payload []byte, secret, header string) bool {
	sig := strings.TrimSpace(header)
	if idx := strings.IndexByte(sig, '='); idx >= 0 && !isHex(sig[:idx]) {
		sig = sig[idx+1:]
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(strings.ToLower(sig)), []byte(expected))
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
