// internal/server/mux_test.go
// Package server provides unit tests for the HTTP handlers and routing.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/dijam/media-gallery/internal/auth"
	errordefs "github.com/dijam/media-gallery/internal/errors"
	"github.com/dijam/media-gallery/internal/event"
	"github.com/dijam/media-gallery/internal/media"
	"github.com/dijam/media-gallery/internal/model"
	"github.com/dijam/media-gallery/internal/profanity"
	"github.com/dijam/media-gallery/internal/schema"
	"github.com/dijam/media-gallery/internal/service"
	"github.com/dijam/media-gallery/internal/storage"
)

// Tokens understood by mockAuthenticator.
const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

// mockAuthenticator implements auth.Authenticator with fixed tokens.
type mockAuthenticator struct{}

func (mockAuthenticator) Authenticate(_ context.Context, token string) (auth.Principal, error) {
	switch strings.TrimSpace(token) {
	case adminToken:
		return auth.Principal{Username: "root", Role: auth.RoleAdmin, Token: token}, nil
	case userToken:
		return auth.Principal{Username: "joe", Role: auth.RoleUser, Token: token}, nil
	case "":
		return auth.Principal{}, errordefs.New(errordefs.INVALID_CREDENTIALS, auth.MsgMissingToken, "")
	default:
		return auth.Principal{}, errordefs.New(errordefs.INVALID_CREDENTIALS, auth.MsgTokenNotLive, "")
	}
}

// pngBytes is a minimal PNG signature for content sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type testServer struct {
	handler http.Handler
	store   storage.Store
	dir     string
}

func newTestServer(t *testing.T, prefix string, maxUpload int64) *testServer {
	t.Helper()
	dir := t.TempDir()
	files, err := media.NewLocalStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	validator, err := schema.NewValidator()
	if err != nil {
		t.Fatal(err)
	}
	store := storage.NewMemory()
	svc := service.New(store, files, profanity.New([]string{"darn", "heck"}), event.NewNoop())

	h, err := NewMux(Options{
		RoutePrefix:        prefix,
		MaxUploadSize:      maxUpload,
		CORSAllowedOrigins: []string{"http://localhost:5174"},
	}, svc, files, mockAuthenticator{}, validator)
	if err != nil {
		t.Fatalf("NewMux() error = %v", err)
	}
	return &testServer{handler: h, store: store, dir: dir}
}

func (s *testServer) do(t *testing.T, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

// uploadForm builds the multipart body of a media upload.
func uploadForm(t *testing.T, fields map[string]string, filename, partType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		if partType != "" {
			h.Set("Content-Type", partType)
		}
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(content)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func commentForm(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("content", content)
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, title, filename string) model.Media {
	t.Helper()
	body, ct := uploadForm(t, map[string]string{"title": title, "description": "d", "filetype": "image"}, filename, "image/png", pngBytes)
	rr := s.do(t, http.MethodPost, "/api/media/upload", adminToken, body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("upload got %v want %v: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var m model.Media
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("upload returned invalid JSON: %v", err)
	}
	return m
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %q", rr.Body.String())
	}
	return body["error"]
}

// TestHealthzEndpoint tests the healthz endpoint.
func TestHealthzEndpoint(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	rr := s.do(t, http.MethodGet, "/healthz", "", nil, "")
	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), "ok")
	}
}

// TestReadyzEndpoint tests the readyz endpoint.
func TestReadyzEndpoint(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	rr := s.do(t, http.MethodGet, "/readyz", "", nil, "")
	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	s.do(t, http.MethodGet, "/api/media/", "", nil, "")
	rr := s.do(t, http.MethodGet, "/metrics", "", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics got %v want %v", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "gallery_http_requests_total") {
		t.Error("metrics output lacks gallery_http_requests_total")
	}
}

func TestPingRoles(t *testing.T) {
	s := newTestServer(t, "/api", 0)

	tests := []struct {
		path   string
		token  string
		status int
		body   string
	}{
		{"/api/authentication/ping", "", http.StatusOK, "pong"},
		{"/api/authentication/pingauth", "", http.StatusUnauthorized, ""},
		{"/api/authentication/pingauth", userToken, http.StatusOK, "pong auth"},
		{"/api/authentication/pingadmin", userToken, http.StatusForbidden, ""},
		{"/api/authentication/pingadmin", adminToken, http.StatusOK, "pong admin"},
		{"/api/authentication/ping", "bogus", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		rr := s.do(t, http.MethodGet, tt.path, tt.token, nil, "")
		if rr.Code != tt.status {
			t.Errorf("%s (token %q) got %v want %v", tt.path, tt.token, rr.Code, tt.status)
			continue
		}
		if tt.body != "" && rr.Body.String() != tt.body {
			t.Errorf("%s body got %q want %q", tt.path, rr.Body.String(), tt.body)
		}
	}
}

func TestInvalidTokenBody(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	rr := s.do(t, http.MethodGet, "/api/media/", "bogus", nil, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %v want %v", rr.Code, http.StatusUnauthorized)
	}
	if msg := decodeError(t, rr); msg != auth.MsgTokenNotLive {
		t.Errorf("error got %q want %q", msg, auth.MsgTokenNotLive)
	}
	if rr.Header().Get("X-Correlation-Id") == "" {
		t.Error("missing X-Correlation-Id header")
	}
}

func TestNonBearerIsAnonymous(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	req := httptest.NewRequest(http.MethodGet, "/api/media/", nil)
	req.Header.Set("Authorization", "Basic cm9vdDpyb290")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("got %v want %v", rr.Code, http.StatusOK)
	}
}

func TestCorrelationIDPropagates(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	req := httptest.NewRequest(http.MethodGet, "/api/media/", nil)
	req.Header.Set("X-Correlation-Id", "abc-123")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Correlation-Id"); got != "abc-123" {
		t.Errorf("X-Correlation-Id got %q want %q", got, "abc-123")
	}
}

func TestUploadAndServeAsset(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	m := s.upload(t, "Test", "photo.png")

	if m.FileType != model.FileTypeImage || m.Views != 0 || m.URL != "/assets/photo.png" {
		t.Errorf("upload returned %+v", m)
	}
	if m.UploadedBy != "root" {
		t.Errorf("uploaded_by got %q want %q", m.UploadedBy, "root")
	}
	if m.MimeType != "image/png" {
		t.Errorf("mime_type got %q want image/png", m.MimeType)
	}

	rr := s.do(t, http.MethodGet, m.URL, "", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("asset got %v want %v", rr.Code, http.StatusOK)
	}
	if !bytes.Equal(rr.Body.Bytes(), pngBytes) {
		t.Error("asset content differs from upload")
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("asset Content-Type got %q", ct)
	}

	if rr := s.do(t, http.MethodGet, "/assets/missing.png", "", nil, ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing asset got %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestUploadSniffsGenericContentType(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	body, ct := uploadForm(t, map[string]string{"title": "x", "description": "", "filetype": "image"}, "x.bin", "application/octet-stream", pngBytes)
	rr := s.do(t, http.MethodPost, "/api/media/upload", adminToken, body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %v want %v: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var m model.Media
	_ = json.Unmarshal(rr.Body.Bytes(), &m)
	if m.MimeType != "image/png" {
		t.Errorf("mime_type got %q want image/png", m.MimeType)
	}
}

func TestUploadValidation(t *testing.T) {
	s := newTestServer(t, "/api", 0)

	tests := []struct {
		name   string
		fields map[string]string
		file   string
		status int
	}{
		{"bad filetype", map[string]string{"title": "t", "description": "d", "filetype": "audio"}, "a.png", http.StatusBadRequest},
		{"missing title", map[string]string{"description": "d", "filetype": "image"}, "a.png", http.StatusBadRequest},
		{"missing file", map[string]string{"title": "t", "description": "d", "filetype": "image"}, "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		body, ct := uploadForm(t, tt.fields, tt.file, "image/png", pngBytes)
		rr := s.do(t, http.MethodPost, "/api/media/upload", adminToken, body, ct)
		if rr.Code != tt.status {
			t.Errorf("%s got %v want %v", tt.name, rr.Code, tt.status)
		}
	}

	rr := s.do(t, http.MethodPost, "/api/media/upload", adminToken, strings.NewReader("{}"), "application/json")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("non-multipart upload got %v want %v", rr.Code, http.StatusBadRequest)
	}
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, "/api", 1024)
	big := bytes.Repeat([]byte("x"), 4096)
	body, ct := uploadForm(t, map[string]string{"title": "t", "description": "d", "filetype": "image"}, "big.png", "image/png", big)
	rr := s.do(t, http.MethodPost, "/api/media/upload", adminToken, body, ct)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("got %v want %v", rr.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestUploadTooLargeClosesConnection(t *testing.T) {
	s := newTestServer(t, "/api", 1024)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	body, ct := uploadForm(t, map[string]string{"title": "t", "description": "d", "filetype": "image"}, "big.png", "image/png", bytes.Repeat([]byte("x"), 2048))
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/media/upload", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("upload request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("got %v want %v", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
	if !resp.Close {
		t.Error("connection kept open after an oversized body")
	}
}

func TestCommentBodyLimit(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	m := s.upload(t, "c", "c.png")

	body, ct := commentForm(t, strings.Repeat("a", commentBodyLimit+1))
	rr := s.do(t, http.MethodPost, "/api/media/"+itoa(m.ID)+"/upload-comment", userToken, body, ct)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("got %v want %v", rr.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestUploadRequiresAdmin(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	body, ct := uploadForm(t, map[string]string{"title": "t", "description": "d", "filetype": "image"}, "a.png", "image/png", pngBytes)
	if rr := s.do(t, http.MethodPost, "/api/media/upload", userToken, body, ct); rr.Code != http.StatusForbidden {
		t.Errorf("user upload got %v want %v", rr.Code, http.StatusForbidden)
	}
	body, ct = uploadForm(t, map[string]string{"title": "t", "description": "d", "filetype": "image"}, "a.png", "image/png", pngBytes)
	if rr := s.do(t, http.MethodPost, "/api/media/upload", "", body, ct); rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous upload got %v want %v", rr.Code, http.StatusUnauthorized)
	}
}

func TestListAndFilter(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	a := s.upload(t, "a", "a.png")

	body, ct := uploadForm(t, map[string]string{"title": "v", "description": "d", "filetype": "video"}, "v.mp4", "video/mp4", []byte("....ftypmp42"))
	if rr := s.do(t, http.MethodPost, "/api/media/upload", adminToken, body, ct); rr.Code != http.StatusOK {
		t.Fatalf("video upload got %v", rr.Code)
	}

	for path, want := range map[string]int{"/api/media/": 2, "/api/media": 2, "/api/media/images": 1, "/api/media/videos": 1} {
		rr := s.do(t, http.MethodGet, path, "", nil, "")
		var items []model.Media
		if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
			t.Fatalf("%s returned invalid JSON: %v", path, err)
		}
		if len(items) != want {
			t.Errorf("%s got %d items want %d", path, len(items), want)
		}
	}

	rr := s.do(t, http.MethodGet, "/api/media/images", "", nil, "")
	var images []model.Media
	_ = json.Unmarshal(rr.Body.Bytes(), &images)
	if len(images) == 1 && images[0].ID != a.ID {
		t.Errorf("images got id %d want %d", images[0].ID, a.ID)
	}

	if rr := s.do(t, http.MethodGet, "/api/media/abc", "", nil, ""); rr.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id got %v want %v", rr.Code, http.StatusBadRequest)
	}
	if rr := s.do(t, http.MethodGet, "/api/media/999", "", nil, ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing id got %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestEmptyListIsArray(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	for _, path := range []string{"/api/media/", "/api/media/comments", "/api/media/comments/1"} {
		rr := s.do(t, http.MethodGet, path, "", nil, "")
		if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
			t.Errorf("%s got %q want []", path, got)
		}
	}
}

func TestIncrementViews(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	m := s.upload(t, "v", "v.png")

	rr := s.do(t, http.MethodPatch, "/api/media/"+itoa(m.ID)+"/increment-views", "", nil, "")
	if rr.Code != http.StatusOK || rr.Body.Len() != 0 {
		t.Errorf("increment got %v body %q", rr.Code, rr.Body.String())
	}

	rr = s.do(t, http.MethodGet, "/api/media/"+itoa(m.ID), "", nil, "")
	var got model.Media
	_ = json.Unmarshal(rr.Body.Bytes(), &got)
	if got.Views != 1 {
		t.Errorf("views got %d want 1", got.Views)
	}

	if rr := s.do(t, http.MethodPatch, "/api/media/999/increment-views", "", nil, ""); rr.Code != http.StatusNotFound {
		t.Errorf("increment missing got %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestComments(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	m := s.upload(t, "c", "c.png")
	target := "/api/media/" + itoa(m.ID) + "/upload-comment"

	body, ct := commentForm(t, "nice shot")
	rr := s.do(t, http.MethodPost, target, userToken, body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("comment got %v want %v: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var c model.Comment
	_ = json.Unmarshal(rr.Body.Bytes(), &c)
	if c.MediaID != m.ID || c.Content != "nice shot" {
		t.Errorf("comment got %+v", c)
	}

	body, ct = commentForm(t, "well Darn")
	rr = s.do(t, http.MethodPost, target, userToken, body, ct)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("profane comment got %v want %v", rr.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rr); msg != "Comment rejected: Comment contains inappropriate language." {
		t.Errorf("profane comment error got %q", msg)
	}

	// urlencoded forms are accepted too
	form := url.Values{"content": {"second"}}
	rr = s.do(t, http.MethodPost, target, userToken, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if rr.Code != http.StatusOK {
		t.Errorf("urlencoded comment got %v want %v", rr.Code, http.StatusOK)
	}

	body, ct = commentForm(t, "   ")
	if rr := s.do(t, http.MethodPost, target, userToken, body, ct); rr.Code != http.StatusBadRequest {
		t.Errorf("blank comment got %v want %v", rr.Code, http.StatusBadRequest)
	}

	body, ct = commentForm(t, "hello")
	if rr := s.do(t, http.MethodPost, "/api/media/999/upload-comment", userToken, body, ct); rr.Code != http.StatusNotFound {
		t.Errorf("comment on missing media got %v want %v", rr.Code, http.StatusNotFound)
	}

	body, ct = commentForm(t, "hello")
	if rr := s.do(t, http.MethodPost, target, "", body, ct); rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous comment got %v want %v", rr.Code, http.StatusUnauthorized)
	}

	rr = s.do(t, http.MethodGet, "/api/media/comments/"+itoa(m.ID), "", nil, "")
	var list []model.Comment
	_ = json.Unmarshal(rr.Body.Bytes(), &list)
	if len(list) != 2 {
		t.Fatalf("comments got %d want 2", len(list))
	}

	del := "/api/media/comments/" + itoa(list[0].ID) + "/delete"
	if rr := s.do(t, http.MethodDelete, del, userToken, nil, ""); rr.Code != http.StatusForbidden {
		t.Errorf("user comment delete got %v want %v", rr.Code, http.StatusForbidden)
	}
	if rr := s.do(t, http.MethodDelete, del, adminToken, nil, ""); rr.Code != http.StatusNoContent {
		t.Errorf("admin comment delete got %v want %v", rr.Code, http.StatusNoContent)
	}
	if rr := s.do(t, http.MethodDelete, del, adminToken, nil, ""); rr.Code != http.StatusNotFound {
		t.Errorf("second comment delete got %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestDeleteMedia(t *testing.T) {
	s := newTestServer(t, "/api", 0)
	m := s.upload(t, "d", "d.png")
	target := "/api/media/" + itoa(m.ID) + "/delete"

	if rr := s.do(t, http.MethodDelete, target, "", nil, ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous delete got %v want %v", rr.Code, http.StatusUnauthorized)
	}
	if rr := s.do(t, http.MethodDelete, target, userToken, nil, ""); rr.Code != http.StatusForbidden {
		t.Errorf("user delete got %v want %v", rr.Code, http.StatusForbidden)
	}
	if rr := s.do(t, http.MethodDelete, target, adminToken, nil, ""); rr.Code != http.StatusNoContent {
		t.Errorf("admin delete got %v want %v", rr.Code, http.StatusNoContent)
	}
	if rr := s.do(t, http.MethodDelete, target, adminToken, nil, ""); rr.Code != http.StatusNotFound {
		t.Errorf("second delete got %v want %v", rr.Code, http.StatusNotFound)
	}
	if rr := s.do(t, http.MethodGet, "/api/media/"+itoa(m.ID), "", nil, ""); rr.Code != http.StatusNotFound {
		t.Errorf("get after delete got %v want %v", rr.Code, http.StatusNotFound)
	}
	if rr := s.do(t, http.MethodGet, m.URL, "", nil, ""); rr.Code != http.StatusNotFound {
		t.Errorf("asset after delete got %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestCustomRoutePrefix(t *testing.T) {
	s := newTestServer(t, "", 0)
	if rr := s.do(t, http.MethodGet, "/media/", "", nil, ""); rr.Code != http.StatusOK {
		t.Errorf("/media/ got %v want %v", rr.Code, http.StatusOK)
	}
	if rr := s.do(t, http.MethodGet, "/authentication/pingadmin", userToken, nil, ""); rr.Code != http.StatusForbidden {
		t.Errorf("/authentication/pingadmin got %v want %v", rr.Code, http.StatusForbidden)
	}
	if rr := s.do(t, http.MethodGet, "/api/media/", "", nil, ""); rr.Code != http.StatusNotFound {
		t.Errorf("/api/media/ got %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, "/api", 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/media/1/delete", nil)
	req.Header.Set("Origin", "http://localhost:5174")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5174" {
		t.Errorf("Access-Control-Allow-Origin got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/media/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin %q", got)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
