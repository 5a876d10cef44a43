package webserver_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/database"
	"github.com/mdouchement/securevision/internal/fingerprint"
	"github.com/mdouchement/securevision/internal/model"
	"github.com/mdouchement/securevision/internal/service"
	"github.com/mdouchement/securevision/internal/storage"
	"github.com/mdouchement/securevision/internal/webserver"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func setup(t *testing.T, token string) (*client, string) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)
	l := logger.WrapLogrus(log)

	dir := t.TempDir()
	db, err := database.StormOpen(filepath.Join(dir, "securevision.db"), "json")
	require.NoError(t, err)

	f, err := fingerprint.New("sha256")
	require.NoError(t, err)

	backend := storage.NewFileSystem(filepath.Join(dir, "storage"))
	ctrl := webserver.Controller{
		Version:   "test",
		Logger:    l,
		Database:  db,
		Storage:   backend,
		Capturer:  service.NewCapturer(l, backend),
		Sealer:    service.NewSealer(l, backend, f, "issuer"),
		Verifier:  service.NewVerifier(l, backend, "issuer"),
		Destroyer: service.NewDestroyer(l, db, backend),
		Author:    "Tester",
		Token:     token,
	}

	server := httptest.NewServer(webserver.EchoEngine(ctrl))
	t.Cleanup(func() {
		server.Close()
		db.Close()
	})

	return &client{t: t, server: server, token: token}, dir
}

func (c *client) do(method, path string, body io.Reader, v interface{}) *http.Response {
	c.t.Helper()

	req, err := http.NewRequest(method, c.server.URL+path, body)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if v != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func (c *client) json(method, path string, payload interface{}, v interface{}) *http.Response {
	c.t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(c.t, err)
	return c.do(method, path, bytes.NewReader(body), v)
}

type itemVerification struct {
	Item         model.SealedItem `json:"item"`
	Verification model.Verdict    `json:"verification"`
}

func TestSealVerifyDelete(t *testing.T) {
	c, dir := setup(t, "")

	var version map[string]string
	resp := c.do(http.MethodGet, "/", nil, &version)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test", version["version"])
	assert.Equal(t, "file_system", version["storage"])

	// Capture
	var captured map[string]string
	resp = c.do(http.MethodPut, "/v1/captures/photo.png", strings.NewReader("IMG1"), &captured)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, strings.HasSuffix(captured["uri"], ".png"))

	// Seal
	var sealed itemVerification
	resp = c.json(http.MethodPost, "/v1/seal", map[string]interface{}{
		"source":   captured["uri"],
		"manifest": map[string]interface{}{"timestamp": "T1", "location": map[string]float64{"lat": 1, "lon": 2, "acc": 3}},
		"assetId":  "asset-1",
	}, &sealed)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, model.StatusValid, sealed.Item.Status)
	assert.Equal(t, "T1", sealed.Item.CreatedAt)
	assert.Equal(t, "Tester", sealed.Item.Manifest.Author)
	assert.Equal(t, 3.0, sealed.Item.Manifest.Location.Accuracy)
	assert.Equal(t, "asset-1", sealed.Item.AssetID)
	assert.Equal(t, model.MatchedByURI, sealed.Verification.MatchedBy)
	assert.Equal(t, sealed.Item.Hash, sealed.Verification.FileHash)

	// List
	var items []model.SealedItem
	resp = c.do(http.MethodGet, "/v1/items", nil, &items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, items, 1)
	assert.Equal(t, sealed.Item, items[0])

	// Show
	var item model.SealedItem
	resp = c.do(http.MethodGet, "/v1/items/"+sealed.Item.ID, nil, &item)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, sealed.Item, item)

	// Verify
	var verdict model.Verdict
	resp = c.json(http.MethodPost, "/v1/verify", map[string]string{"uri": sealed.Item.URI}, &verdict)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.StatusValid, verdict.Status)
	assert.Equal(t, model.MatchedByURI, verdict.MatchedBy)

	// Tamper then details
	require.NoError(t, os.WriteFile(sealed.Item.URI, []byte("IMG2"), 0644))

	var details itemVerification
	resp = c.do(http.MethodGet, "/v1/items/"+sealed.Item.ID+"/verification", nil, &details)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.StatusValid, details.Item.Status) // seal-time snapshot
	assert.Equal(t, model.StatusTampered, details.Verification.Status)
	assert.NotEmpty(t, details.Verification.Errors)

	// Unrelated file
	other := filepath.Join(dir, "other.jpg")
	require.NoError(t, os.WriteFile(other, []byte("IMG3"), 0644))
	resp = c.json(http.MethodPost, "/v1/verify", map[string]string{"uri": other}, &verdict)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.StatusNone, verdict.Status)

	// Delete
	resp = c.do(http.MethodDelete, "/v1/items/"+sealed.Item.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NoFileExists(t, sealed.Item.URI)

	resp = c.do(http.MethodDelete, "/v1/items/"+sealed.Item.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var failure map[string]string
	resp = c.do(http.MethodGet, "/v1/items/"+sealed.Item.ID, nil, &failure)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "item not found", failure["message"])
}

func TestBadRequests(t *testing.T) {
	c, _ := setup(t, "")

	resp := c.json(http.MethodPost, "/v1/seal", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = c.json(http.MethodPost, "/v1/verify", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListText(t *testing.T) {
	c, dir := setup(t, "")

	source := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(source, []byte("IMG1"), 0644))

	var sealed itemVerification
	c.json(http.MethodPost, "/v1/seal", map[string]interface{}{"source": source}, &sealed)

	req, err := http.NewRequest(http.MethodGet, c.server.URL+"/v1/items", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/plain")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(payload), sealed.Item.ID+"\t"))
	assert.Contains(t, string(payload), "\tvalid\t")
}

func TestAuthenticate(t *testing.T) {
	c, _ := setup(t, "s3cr3t")

	resp := c.do(http.MethodGet, "/v1/items", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	c.token = "wrong"
	resp = c.do(http.MethodGet, "/v1/items", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Version stays public
	resp = c.do(http.MethodGet, "/version", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
