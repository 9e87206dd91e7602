package webhooks

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/backstage-cms/uploadcare-media/internal/media"
	"github.com/backstage-cms/uploadcare-media/pkg/config"
	"github.com/backstage-cms/uploadcare-media/pkg/db/models"
)

const testUUID = "22395775-7f6c-4395-9559-9fbb1e73624c"

func setupWebhookTest(t *testing.T, secret string) (http.HandlerFunc, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Media{}))

	cfg := config.MediaConfig{
		Disk:          models.DiskUploadcare,
		Visibility:    "public",
		CDNBase:       "https://ucarecdn.com",
		WebhookSecret: secret,
	}
	repo := media.NewRepository(conn)
	ingestor := media.NewIngestor(repo, media.NewResolver(repo, cfg, nil), cfg, nil)
	return UploadcareWebhook(ingestor, cfg, nil), conn
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookRegistersUploadedFile(t *testing.T) {
	handler, conn := setupWebhookTest(t, "hook-secret")

	body := []byte(`{"hook":{"event":"file.uploaded"},"data":{"uuid":"` + testUUID + `","originalFilename":"photo.jpg","mimeType":"image/jpeg","size":1024}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/uploadcare", bytes.NewReader(body))
	req.Header.Set(signatureHeader, sign("hook-secret", body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var row models.Media
	require.NoError(t, conn.First(&row, "filename = ?", testUUID).Error)
	assert.Equal(t, "photo.jpg", row.OriginalFilename)
	assert.Equal(t, "image/jpeg", row.MimeType)
	require.NotNil(t, row.UploadedBy)
	assert.Equal(t, webhookActor, *row.UploadedBy)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	handler, conn := setupWebhookTest(t, "hook-secret")

	body := []byte(`{"hook":{"event":"file.uploaded"},"data":{"uuid":"` + testUUID + `"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/uploadcare", bytes.NewReader(body))
	req.Header.Set(signatureHeader, sign("wrong-secret", body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var count int64
	require.NoError(t, conn.Model(&models.Media{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestWebhookIgnoresUnhandledEvents(t *testing.T) {
	handler, conn := setupWebhookTest(t, "")

	body := []byte(`{"hook":{"event":"file.deleted"},"data":{"uuid":"` + testUUID + `"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/uploadcare", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var count int64
	require.NoError(t, conn.Model(&models.Media{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestWebhookRejectsPayloadWithoutEventName(t *testing.T) {
	handler, conn := setupWebhookTest(t, "")

	body := []byte(`{"data":{"uuid":"` + testUUID + `"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/uploadcare", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "VALIDATION_ERROR")

	var count int64
	require.NoError(t, conn.Model(&models.Media{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestValidateSignatureAcceptsBareHex(t *testing.T) {
	payload := []byte(`{"hook":{"event":"file.uploaded"}}`)
	mac := hmac.New(sha256.New, []byte("s"))
	mac.Write(payload)
	bare := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, validateSignature(payload, "s", bare))
	assert.True(t, validateSignature(payload, "s", "v1="+bare))
	assert.False(t, validateSignature(payload, "s", "v1=deadbeef"))
}
