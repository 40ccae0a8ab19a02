package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/seed"
	"github.com/starford/folio/internal/testutil"
)

// testEnv builds a seeded service and router. An empty token means disabled
// auth mode.
func testEnv(t *testing.T, authToken string) (*content.Service, http.Handler) {
	t.Helper()
	svc, router, _ := testEnvWithUploads(t, authToken != "", authToken, nil)
	return svc, router
}

func testEnvWithUploads(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) (*content.Service, http.Handler, string) {
	t.Helper()
	dir, uploads := testutil.TestUploads(t)
	svc := testutil.TestService(t)
	router := NewRouter(svc, uploads, authEnabled, authToken, sseHandler)
	return svc, router, dir
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestCreateAndGetSkill(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/skills", map[string]any{"name": "Rust", "level": 40, "category": "Backend"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decode[models.Skill](t, w)
	if created.ID == "" {
		t.Fatal("created skill has no id")
	}
	if created.OrderIndex != 6 {
		t.Errorf("order_index = %d, want 6", created.OrderIndex)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag on create")
	}

	w = do(t, router, http.MethodGet, "/skills/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	got := decode[models.Skill](t, w)
	if got.Name != "Rust" || got.Level != 40 {
		t.Errorf("got %+v", got)
	}
}

func TestCreateValidationFields(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/education", map[string]any{"period": "2020", "description": "x"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %s", w.Code, w.Body.String())
	}
	resp := decode[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, w)
	if resp.Fields["title"] == "" {
		t.Errorf("fields = %v, want a title error", resp.Fields)
	}
}

func TestCreateBadJSON(t *testing.T) {
	_, router := testEnv(t, "")
	req := httptest.NewRequest(http.MethodPost, "/skills", strings.NewReader("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	svc, router := testEnv(t, "")
	skill := svc.Export().Skills[0]

	w := do(t, router, http.MethodGet, "/skills/"+skill.ID, nil)
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	body, _ := json.Marshal(map[string]any{"name": "Go", "level": 95, "category": "Backend"})
	req := httptest.NewRequest(http.MethodPut, "/skills/"+skill.ID, bytes.NewReader(body))
	req.Header.Set("If-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update with current etag = %d, body = %s", w.Code, w.Body.String())
	}

	// stale etag
	req = httptest.NewRequest(http.MethodPut, "/skills/"+skill.ID, bytes.NewReader(body))
	req.Header.Set("If-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale etag = %d, want 409", w.Code)
	}

	// no If-Match: last write wins
	w = do(t, router, http.MethodPut, "/skills/"+skill.ID, map[string]any{"name": "Go", "level": 70, "category": "Backend"})
	if w.Code != http.StatusOK {
		t.Errorf("update without If-Match = %d", w.Code)
	}
}

func TestUpdateNotFound(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPut, "/skills/missing", map[string]any{"name": "Go", "level": 70, "category": "Backend"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteSocial(t *testing.T) {
	svc, router := testEnv(t, "")
	social := svc.Export().Socials[0]

	w := do(t, router, http.MethodDelete, "/socials/"+social.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/socials/"+social.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodDelete, "/socials/"+social.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestListFilterSortPaginate(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/skills?category=Frontend&sort=-level", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	resp := decode[ListResponse[models.Skill]](t, w)
	if resp.Total != 2 || len(resp.Items) != 2 {
		t.Fatalf("total = %d, items = %d, want 2", resp.Total, len(resp.Items))
	}
	if resp.Items[0].Name != "TypeScript" {
		t.Errorf("first = %q, want TypeScript", resp.Items[0].Name)
	}

	w = do(t, router, http.MethodGet, "/skills?limit=2&offset=4", nil)
	resp = decode[ListResponse[models.Skill]](t, w)
	if resp.Total != 6 || len(resp.Items) != 2 || resp.Items[0].Name != "Docker" {
		t.Errorf("page = %+v", resp)
	}

	w = do(t, router, http.MethodGet, "/projects?q=hiking", nil)
	projects := decode[ListResponse[models.Project]](t, w)
	if projects.Total != 1 || projects.Items[0].Title != "Trail Notes" {
		t.Errorf("search = %+v", projects)
	}
}

func TestReorder(t *testing.T) {
	svc, router := testEnv(t, "")
	about := svc.Export().About
	ids := []string{about[1].ID, about[0].ID}

	w := do(t, router, http.MethodPost, "/about/reorder", ReorderRequest{IDs: ids})
	if w.Code != http.StatusOK {
		t.Fatalf("reorder = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[ListResponse[models.AboutSection]](t, w)
	if resp.Items[0].ID != about[1].ID || resp.Items[0].OrderIndex != 0 {
		t.Errorf("first after reorder = %+v", resp.Items[0])
	}

	w = do(t, router, http.MethodPost, "/about/reorder", ReorderRequest{IDs: ids[:1]})
	if w.Code != http.StatusBadRequest {
		t.Errorf("partial reorder = %d, want 400", w.Code)
	}

	// profiles have no display order
	w = do(t, router, http.MethodPost, "/profiles/reorder", ReorderRequest{})
	if w.Code == http.StatusOK {
		t.Error("profiles reorder should not succeed")
	}
}

func TestSetDefaultProfile(t *testing.T) {
	svc, router := testEnv(t, "")
	profiles := svc.Export().Profiles

	w := do(t, router, http.MethodPost, "/profiles/"+profiles[1].ID+"/default", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("set default = %d, body = %s", w.Code, w.Body.String())
	}
	def, err := svc.Profiles.Default(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if def.ID != profiles[1].ID {
		t.Errorf("default = %s, want %s", def.ID, profiles[1].ID)
	}

	w = do(t, router, http.MethodPost, "/profiles/missing/default", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing profile = %d, want 404", w.Code)
	}
}

func TestTogglePublish(t *testing.T) {
	svc, router := testEnv(t, "")
	project := svc.Export().Projects[2]

	w := do(t, router, http.MethodPost, "/projects/"+project.ID+"/publish", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("publish = %d", w.Code)
	}
	if got := decode[models.Project](t, w); !got.IsPublished {
		t.Error("project not published")
	}
	w = do(t, router, http.MethodPost, "/projects/"+project.ID+"/publish", nil)
	if got := decode[models.Project](t, w); got.IsPublished {
		t.Error("second toggle should unpublish")
	}
}

func TestSkillCategories(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/skills/categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("categories = %d", w.Code)
	}
	resp := decode[struct {
		Categories []content.Category `json:"categories"`
	}](t, w)
	if len(resp.Categories) != 3 || resp.Categories[0].Name != "Backend" || resp.Categories[0].Count != 2 {
		t.Errorf("categories = %+v", resp.Categories)
	}
}

func TestPortfolio(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/portfolio", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("portfolio = %d", w.Code)
	}
	p := decode[content.Portfolio](t, w)
	if p.Profile == nil || !p.Profile.IsDefault {
		t.Errorf("profile = %+v", p.Profile)
	}
	if len(p.Projects) != 2 {
		t.Errorf("published projects = %d, want 2", len(p.Projects))
	}
}

func TestExportImport(t *testing.T) {
	svc, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/yaml") {
		t.Errorf("Content-Type = %q", ct)
	}
	ds, err := seed.Parse(w.Body.Bytes())
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	ds.Skills = ds.Skills[:1]
	data, _ := seed.Marshal(ds)

	req := httptest.NewRequest(http.MethodPost, "/import", bytes.NewReader(data))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("import = %d, body = %s", w.Code, w.Body.String())
	}
	if n := len(svc.Export().Skills); n != 1 {
		t.Errorf("skills after import = %d, want 1", n)
	}
}

func TestImportRejectsInvalid(t *testing.T) {
	svc, router := testEnv(t, "")
	before := len(svc.Export().Skills)

	body := "skills:\n  - name: Go\n    level: 500\n    category: Backend\n"
	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("import = %d, want 422", w.Code)
	}
	resp := decode[ImportErrorResponse](t, w)
	if len(resp.Records) != 1 || resp.Records[0].Kind != models.KindSkills {
		t.Errorf("records = %+v", resp.Records)
	}
	if n := len(svc.Export().Skills); n != before {
		t.Errorf("skills changed to %d", n)
	}

	req = httptest.NewRequest(http.MethodPost, "/import", strings.NewReader("widgets: []\n"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown section = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	req := httptest.NewRequest(http.MethodGet, "/skills", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	w := do(t, router, http.MethodGet, "/skills", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	req := httptest.NewRequest(http.MethodGet, "/skills", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/portfolio", nil)
	if w.Code != http.StatusOK {
		t.Errorf("disabled auth = %d, want 200", w.Code)
	}
}

// stubSSE writes headers and blocks until the client disconnects.
var stubSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router, _ := testEnvWithUploads(t, true, "secret", stubSSE)
	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE without token = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router, _ := testEnvWithUploads(t, true, "tok", stubSSE)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

// Upload tests.

func uploadCV(t *testing.T, router http.Handler, profileID, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(data))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/profiles/"+profileID+"/cv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadCV(t *testing.T) {
	svc, router, dir := testEnvWithUploads(t, false, "", nil)
	profile := svc.Export().Profiles[1]

	w := uploadCV(t, router, profile.ID, "My CV.pdf", []byte("%PDF-1.7"))
	if w.Code != http.StatusOK {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	got := decode[models.PersonalProfile](t, w)
	if got.CVFileName != "My CV.pdf" {
		t.Errorf("cv_file_name = %q", got.CVFileName)
	}
	name := strings.TrimPrefix(got.CVFileURL, "/uploads/")
	if !strings.HasSuffix(name, "my-cv.pdf") {
		t.Errorf("cv_file_url = %q", got.CVFileURL)
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if string(data) != "%PDF-1.7" {
		t.Errorf("content mismatch")
	}

	w = do(t, router, http.MethodGet, "/uploads", nil)
	list := decode[UploadListResponse](t, w)
	if len(list.Files) != 1 || list.Files[0].Name != name {
		t.Errorf("uploads = %+v", list.Files)
	}
}

func TestUploadCV_ReplacesPreviousFile(t *testing.T) {
	svc, router, dir := testEnvWithUploads(t, false, "", nil)
	profile := svc.Export().Profiles[0]

	for _, name := range []string{"old.pdf", "new.pdf", "new.pdf"} {
		if w := uploadCV(t, router, profile.ID, name, []byte("%PDF-1.7 "+name)); w.Code != http.StatusOK {
			t.Fatalf("upload %s = %d, body = %s", name, w.Code, w.Body.String())
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), "new.pdf") {
		t.Fatalf("uploads dir = %v, want only the new CV", entries)
	}
	got, err := svc.Profiles.Get(context.Background(), profile.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CVFileURL != "/uploads/"+entries[0].Name() {
		t.Errorf("cv_file_url = %q, want link to %s", got.CVFileURL, entries[0].Name())
	}
}

func TestUploadCV_RejectsType(t *testing.T) {
	svc, router, dir := testEnvWithUploads(t, false, "", nil)
	profile := svc.Export().Profiles[0]

	w := uploadCV(t, router, profile.ID, "photo.png", []byte("png"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("png upload = %d, want 400", w.Code)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("rejected upload left files: %v", entries)
	}
}

func TestUploadCV_UnknownProfile(t *testing.T) {
	_, router := testEnv(t, "")
	w := uploadCV(t, router, "missing", "cv.pdf", []byte("x"))
	if w.Code != http.StatusNotFound {
		t.Errorf("upload for missing profile = %d, want 404", w.Code)
	}
}

func TestUploadCV_MissingFileField(t *testing.T) {
	svc, router := testEnv(t, "")
	profile := svc.Export().Profiles[0]

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/profiles/"+profile.ID+"/cv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestServeUpload(t *testing.T) {
	dir, uploads := testutil.TestUploads(t)
	if err := os.WriteFile(filepath.Join(dir, "cv.pdf"), []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	r.Get("/uploads/{filename}", NewUploadHandler(uploads).ServeFile)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/cv.pdf", nil))
	if w.Code != http.StatusOK || w.Body.String() != "pdf" {
		t.Errorf("serve = %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/nope.pdf", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing upload = %d, want 404", w.Code)
	}

	for _, name := range []string{"..%2Fsecret", ".hidden"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/"+name, nil))
		if w.Code == http.StatusOK {
			t.Errorf("%q should not return 200", name)
		}
	}
}
