// Package conformance provides a black-box test harness for the gallery HTTP API.
// It runs the service behind a real listener, with a stand-in token verification
// endpoint, and drives it the way a browser client would.
package conformance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dijam/media-gallery/internal/auth"
	"github.com/dijam/media-gallery/internal/event"
	"github.com/dijam/media-gallery/internal/media"
	"github.com/dijam/media-gallery/internal/model"
	"github.com/dijam/media-gallery/internal/profanity"
	"github.com/dijam/media-gallery/internal/schema"
	"github.com/dijam/media-gallery/internal/server"
	"github.com/dijam/media-gallery/internal/service"
	"github.com/dijam/media-gallery/internal/storage"
	"github.com/golang-jwt/jwt/v5"
)

// Harness runs the gallery and a token verifier on loopback listeners.
type Harness struct {
	server   *httptest.Server
	verifier *httptest.Server
	store    storage.Store
	pub      event.Publisher
	cfg      Config

	// revoked tokens are refused by the verifier
	revoked  atomic.Value // map[string]bool
	verifies atomic.Int64
}

// Config holds configuration for the conformance test harness.
type Config struct {
	// DatabaseDSN selects PostgreSQL storage; empty uses the in-memory store
	DatabaseDSN string

	// NATSURL enables event publishing to JetStream; empty uses the no-op publisher
	NATSURL string

	// JWTSecret signs and verifies HS256 test tokens
	JWTSecret string

	// RoutePrefix mounts the API routes, e.g. "/api"
	RoutePrefix string

	// UploadDir backs /assets
	UploadDir string
}

// NewHarness creates a new conformance test harness.
func NewHarness(cfg Config) (*Harness, error) {
	var (
		store storage.Store
		err   error
	)
	if cfg.DatabaseDSN != "" {
		store, err = storage.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to test database: %w", err)
		}
	} else {
		store = storage.NewMemory()
	}

	files, err := media.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upload dir: %w", err)
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize schema validator: %w", err)
	}
	filter, err := profanity.Load(validator, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load profanity list: %w", err)
	}

	pub := event.NewNoop()
	if cfg.NATSURL != "" {
		pub = event.NewPublisher(cfg.NATSURL)
	}

	h := &Harness{store: store, pub: pub, cfg: cfg}
	h.revoked.Store(map[string]bool{})
	h.verifier = httptest.NewServer(http.HandlerFunc(h.verify))

	authn := auth.NewProvider(cfg.JWTSecret, auth.NewHTTPVerifier(h.verifier.URL, 2*time.Second))
	mux, err := server.NewMux(server.Options{
		RoutePrefix:        cfg.RoutePrefix,
		MaxUploadSize:      10 << 20,
		CORSAllowedOrigins: []string{"http://localhost:5174"},
	}, service.New(store, files, filter, pub), files, authn, validator)
	if err != nil {
		h.verifier.Close()
		return nil, err
	}
	h.server = httptest.NewServer(mux)
	return h, nil
}

// verify stands in for the identity service's verify-token endpoint.
func (h *Harness) verify(w http.ResponseWriter, r *http.Request) {
	h.verifies.Add(1)
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost || h.revoked.Load().(map[string]bool)[token] {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token revoked"}`))
		return
	}
	_, _ = w.Write([]byte(`{"message":"Token verified"}`))
}

// Revoke makes the verifier refuse token from now on.
func (h *Harness) Revoke(token string) {
	next := map[string]bool{token: true}
	for k := range h.revoked.Load().(map[string]bool) {
		next[k] = true
	}
	h.revoked.Store(next)
}

// URL returns the base URL of the test server.
func (h *Harness) URL() string {
	return h.server.URL
}

// API returns the base URL of the prefixed API routes.
func (h *Harness) API() string {
	return h.server.URL + h.cfg.RoutePrefix
}

// Close shuts down the test servers and cleans up resources.
func (h *Harness) Close() {
	h.server.Close()
	h.verifier.Close()
	h.pub.Close()
	h.store.Close()
}

// Token signs an HS256 token for username.
func (h *Harness) Token(t *testing.T, username string, admin bool) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"isAdmin":  admin,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// Do sends a request and returns the status and body.
func (h *Harness) Do(t *testing.T, method, url, token string, body io.Reader, contentType string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

// Upload posts a media upload form.
func (h *Harness) Upload(t *testing.T, token, title, fileType, filename string, content []byte) (int, model.Media) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", title)
	_ = mw.WriteField("description", "uploaded by the conformance suite")
	_ = mw.WriteField("filetype", fileType)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(content)
	_ = mw.Close()

	status, data := h.Do(t, http.MethodPost, h.API()+"/media/upload", token, &buf, mw.FormDataContentType())
	var m model.Media
	if status == http.StatusOK {
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("upload returned invalid JSON: %v", err)
		}
	}
	return status, m
}

// Comment posts a comment form.
func (h *Harness) Comment(t *testing.T, token string, mediaID int64, content string) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("content", content)
	_ = mw.Close()
	return h.Do(t, http.MethodPost, h.API()+"/media/"+strconv.FormatInt(mediaID, 10)+"/upload-comment", token, &buf, mw.FormDataContentType())
}

// RunConformanceTests runs all conformance tests against the gallery.
func (h *Harness) RunConformanceTests(t *testing.T) {
	t.Run("HealthEndpoints", h.testHealthEndpoints)
	t.Run("AuthenticationPing", h.testAuthenticationPing)
	t.Run("RevokedToken", h.testRevokedToken)
	t.Run("GalleryScenario", h.testGalleryScenario)
}

// testHealthEndpoints tests the health check endpoints.
func (h *Harness) testHealthEndpoints(t *testing.T) {
	for _, path := range []string{"/healthz", "/readyz"} {
		status, _ := h.Do(t, http.MethodGet, h.URL()+path, "", nil, "")
		if status != http.StatusOK {
			t.Errorf("expected status 200 for %s, got %d", path, status)
		}
	}
}

// testAuthenticationPing checks the role gates of the ping endpoints.
func (h *Harness) testAuthenticationPing(t *testing.T) {
	user := h.Token(t, "alice", false)
	admin := h.Token(t, "root", true)

	cases := []struct {
		path   string
		token  string
		status int
	}{
		{"/authentication/ping", "", http.StatusOK},
		{"/authentication/pingauth", "", http.StatusUnauthorized},
		{"/authentication/pingauth", user, http.StatusOK},
		{"/authentication/pingadmin", user, http.StatusForbidden},
		{"/authentication/pingadmin", admin, http.StatusOK},
	}
	for _, c := range cases {
		status, _ := h.Do(t, http.MethodGet, h.API()+c.path, c.token, nil, "")
		if status != c.status {
			t.Errorf("GET %s: expected %d, got %d", c.path, c.status, status)
		}
	}

	// A token signed with another secret passes the verifier but not the signature check.
	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": "root", "isAdmin": true}).SignedString([]byte("not-the-secret"))
	if status, _ := h.Do(t, http.MethodGet, h.API()+"/authentication/ping", forged, nil, ""); status != http.StatusUnauthorized {
		t.Errorf("forged token: expected 401, got %d", status)
	}
}

// testRevokedToken checks that the remote verifier has the final say.
func (h *Harness) testRevokedToken(t *testing.T) {
	token := h.Token(t, "mallory", true)
	if status, _ := h.Do(t, http.MethodGet, h.API()+"/authentication/pingadmin", token, nil, ""); status != http.StatusOK {
		t.Fatalf("expected 200 before revocation, got %d", status)
	}
	h.Revoke(token)

	before := h.verifies.Load()
	status, body := h.Do(t, http.MethodGet, h.API()+"/authentication/ping", token, nil, "")
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 after revocation, got %d", status)
	}
	if !strings.Contains(string(body), auth.MsgTokenNotLive) {
		t.Errorf("expected %q in body, got %s", auth.MsgTokenNotLive, body)
	}
	if h.verifies.Load() == before {
		t.Error("verifier was not consulted")
	}
}

// testGalleryScenario walks upload, views, comments and deletion end to end.
func (h *Harness) testGalleryScenario(t *testing.T) {
	admin := h.Token(t, "root", true)
	user := h.Token(t, "alice", false)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	status, m := h.Upload(t, admin, "Test", "image", "photo.png", png)
	if status != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d", status)
	}
	if m.Views != 0 || m.FileType != model.FileTypeImage || m.UploadedBy != "root" {
		t.Errorf("upload returned %+v", m)
	}
	id := strconv.FormatInt(m.ID, 10)

	status, data := h.Do(t, http.MethodGet, h.URL()+m.URL, "", nil, "")
	if status != http.StatusOK || !bytes.Equal(data, png) {
		t.Errorf("asset %s: status %d, %d bytes", m.URL, status, len(data))
	}

	if status, _ := h.Do(t, http.MethodPatch, h.API()+"/media/"+id+"/increment-views", "", nil, ""); status != http.StatusOK {
		t.Errorf("increment-views: expected 200, got %d", status)
	}
	_, data = h.Do(t, http.MethodGet, h.API()+"/media/"+id, "", nil, "")
	var got model.Media
	_ = json.Unmarshal(data, &got)
	if got.Views != 1 {
		t.Errorf("views: expected 1, got %d", got.Views)
	}

	if status, _ := h.Comment(t, user, m.ID, "nice shot"); status != http.StatusOK {
		t.Errorf("comment: expected 200, got %d", status)
	}
	if status, _ := h.Comment(t, user, m.ID, "what a damn mess"); status != http.StatusBadRequest {
		t.Errorf("profane comment: expected 400, got %d", status)
	}
	_, data = h.Do(t, http.MethodGet, h.API()+"/media/comments/"+id, "", nil, "")
	var comments []model.Comment
	_ = json.Unmarshal(data, &comments)
	if len(comments) != 1 {
		t.Errorf("comments: expected 1, got %d", len(comments))
	}

	if status, _ := h.Do(t, http.MethodDelete, h.API()+"/media/"+id+"/delete", "", nil, ""); status != http.StatusUnauthorized {
		t.Errorf("anonymous delete: expected 401, got %d", status)
	}
	if status, _ := h.Do(t, http.MethodDelete, h.API()+"/media/"+id+"/delete", user, nil, ""); status != http.StatusForbidden {
		t.Errorf("user delete: expected 403, got %d", status)
	}
	if status, _ := h.Do(t, http.MethodDelete, h.API()+"/media/"+id+"/delete", admin, nil, ""); status != http.StatusNoContent {
		t.Errorf("admin delete: expected 204, got %d", status)
	}
	if status, _ := h.Do(t, http.MethodGet, h.API()+"/media/"+id, "", nil, ""); status != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", status)
	}
}

// EnvConfig builds a Config from GALLERY_TEST_* variables.
func EnvConfig(t *testing.T) Config {
	return Config{
		DatabaseDSN: os.Getenv("GALLERY_TEST_DB_DSN"),
		NATSURL:     os.Getenv("GALLERY_TEST_NATS_URL"),
		JWTSecret:   "conformance-secret",
		RoutePrefix: "/api",
		UploadDir:   t.TempDir(),
	}
}
