package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garayn/garayn-backend/internal/audit"
	"github.com/garayn/garayn-backend/internal/auth"
	authhttp "github.com/garayn/garayn-backend/internal/auth/http"
	"github.com/garayn/garayn-backend/internal/bootstrap"
	"github.com/garayn/garayn-backend/internal/contact"
	projecthttp "github.com/garayn/garayn-backend/internal/projects/http"
	"github.com/garayn/garayn-backend/internal/projects/repository"
	"github.com/garayn/garayn-backend/internal/ratelimit"
	"github.com/garayn/garayn-backend/internal/store"
	"github.com/garayn/garayn-backend/internal/uploads"
	"github.com/garayn/garayn-backend/internal/users"
)

const adminEmail = "admin@garayn.dev"

type staticVerifier struct{}

func (staticVerifier) SignIn(ctx context.Context, email, password string) (string, error) {
	if password == "correct-horse" {
		return "uid-1", nil
	}
	return "", auth.ErrInvalidCredentials
}

type staticReset struct{}

func (staticReset) PasswordResetLink(ctx context.Context, email string) (string, error) {
	return "https://reset.example.com/" + email, nil
}

type fakeUploader struct{}

func (fakeUploader) Upload(ctx context.Context, r io.Reader, originalName string) (*uploads.Result, error) {
	return &uploads.Result{URL: "https://cdn.example.com/" + originalName, PublicID: "pid-1"}, nil
}

type apiFixture struct {
	router *gin.Engine
	store  *store.MemoryStore
	tokens *auth.TokenManager
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	log := zerolog.Nop()

	limiter := ratelimit.New(ratelimit.NewMemoryCounterStore())
	userRepo := users.NewRepo(st)
	recorder := audit.NewRecorder(st, log)
	tokens := auth.NewTokenManager("test-secret", 24*time.Hour, time.Hour)
	guard := auth.NewGuard(tokens, userRepo)

	svc := auth.NewService(
		staticVerifier{}, userRepo, tokens, limiter,
		recorder, staticReset{}, auth.LogMailer{Log: log}, log,
	)
	repo := repository.New(st, uploads.NopCleaner{}, log)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "garayn-backend",
		Version:     "test",
		CORSOrigins: []string{"*"},
		Store:       st,
		Guard:       guard,
		Limiter:     limiter,
		Auth:        authhttp.NewHandler(svc, tokens, guard),
		Projects:    projecthttp.NewHandler(repo, nil, log),
		Uploads:     uploads.NewHandler(fakeUploader{}, recorder, log),
		Contact:     contact.NewHandler(st, log),
	})

	require.NoError(t, st.Set(context.Background(), "users", adminEmail, map[string]interface{}{
		"role":         "admin",
		"projectCount": int64(0),
	}))

	return &apiFixture{router: router, store: st, tokens: tokens}
}

func (f *apiFixture) adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := f.tokens.Issue(auth.Session{ID: "uid-1", Email: adminEmail, Role: "admin", IsAdmin: true})
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func projectPayload() map[string]interface{} {
	return map[string]interface{}{
		"title":       "A",
		"description": "d",
		"image":       "https://x/y.png",
		"tags":        []string{"web"},
		"category":    "Web",
		"url":         "https://x",
		"client":      "C",
		"year":        "2024",
		"isPaid":      false,
	}
}

func TestRouter_Health(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/health", "/healthz"} {
		rr := f.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Body.String(), `"healthy"`)
	}
}

func TestRouter_AdminGate(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("missing token", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/admin/projects", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/admin/projects", "nope", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid session without admin claim", func(t *testing.T) {
		token, _, err := f.tokens.Issue(auth.Session{ID: "uid-2", Email: "user@garayn.dev", Role: "editor"})
		require.NoError(t, err)

		rr := f.do(t, http.MethodGet, "/api/admin/projects", token, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/admin/projects", f.adminToken(t), nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestRouter_Login(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("success returns a working token", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": adminEmail, "password": "correct-horse",
		})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Token string `json:"token"`
			User  struct {
				Email   string `json:"email"`
				IsAdmin bool   `json:"isAdmin"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Token)
		assert.Equal(t, adminEmail, resp.User.Email)
		assert.True(t, resp.User.IsAdmin)

		check := f.do(t, http.MethodGet, "/api/admin/projects", resp.Token, nil)
		assert.Equal(t, http.StatusOK, check.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": adminEmail, "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("non-admin account", func(t *testing.T) {
		require.NoError(t, f.store.Set(context.Background(), "users", "user@garayn.dev",
			map[string]interface{}{"role": "editor"}))

		rr := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "user@garayn.dev", "password": "correct-horse",
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestRouter_ProjectLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	token := f.adminToken(t)

	rr := f.do(t, http.MethodPost, "/api/admin/projects", token, projectPayload())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		ID            string        `json:"id"`
		Status        string        `json:"status"`
		StatusHistory []interface{} `json:"statusHistory"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "draft", created.Status)
	assert.Empty(t, created.StatusHistory)

	t.Run("no-op status update", func(t *testing.T) {
		rr := f.do(t, http.MethodPatch, "/api/admin/projects/"+created.ID, token,
			map[string]string{"status": "draft"})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message": "Status not changed"}`, rr.Body.String())
	})

	t.Run("archive with reason", func(t *testing.T) {
		rr := f.do(t, http.MethodPatch, "/api/admin/projects/"+created.ID, token,
			map[string]string{"status": "archived", "reason": "test"})
		require.Equal(t, http.StatusOK, rr.Code)

		var got struct {
			Status        string `json:"status"`
			ArchivedAt    string `json:"archivedAt"`
			StatusHistory []struct {
				Status string `json:"status"`
				Reason string `json:"reason"`
			} `json:"statusHistory"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "archived", got.Status)
		assert.NotEmpty(t, got.ArchivedAt)
		require.Len(t, got.StatusHistory, 1)
		assert.Equal(t, "test", got.StatusHistory[0].Reason)
	})

	t.Run("invalid status value", func(t *testing.T) {
		rr := f.do(t, http.MethodPatch, "/api/admin/projects/"+created.ID, token,
			map[string]string{"status": "published"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("validation error shape", func(t *testing.T) {
		payload := projectPayload()
		payload["title"] = ""

		rr := f.do(t, http.MethodPost, "/api/admin/projects", token, payload)
		require.Equal(t, http.StatusBadRequest, rr.Code)

		var resp struct {
			Error   string `json:"error"`
			Details []struct {
				Path    string `json:"path"`
				Message string `json:"message"`
			} `json:"details"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Validation Error", resp.Error)
		require.NotEmpty(t, resp.Details)
		assert.Equal(t, "title", resp.Details[0].Path)
		assert.Equal(t, "Title is required", resp.Details[0].Message)
	})

	t.Run("delete", func(t *testing.T) {
		rr := f.do(t, http.MethodDelete, "/api/admin/projects/"+created.ID, token, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = f.do(t, http.MethodGet, "/api/admin/projects/"+created.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRouter_DeleteByQueryParam(t *testing.T) {
	f := newAPIFixture(t)
	token := f.adminToken(t)

	rr := f.do(t, http.MethodPost, "/api/admin/projects", token, projectPayload())
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	t.Run("missing id", func(t *testing.T) {
		rr := f.do(t, http.MethodDelete, "/api/admin/projects", token, nil)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Project ID is required")
	})

	t.Run("id in the query string", func(t *testing.T) {
		rr := f.do(t, http.MethodDelete, "/api/admin/projects?id="+created.ID, token, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = f.do(t, http.MethodGet, "/api/admin/projects/"+created.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRouter_BulkOperations(t *testing.T) {
	f := newAPIFixture(t)
	token := f.adminToken(t)

	var ids []string
	for i := 0; i < 2; i++ {
		rr := f.do(t, http.MethodPost, "/api/admin/projects", token, projectPayload())
		require.Equal(t, http.StatusCreated, rr.Code)
		var created struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
		ids = append(ids, created.ID)
	}

	t.Run("bulk status update", func(t *testing.T) {
		rr := f.do(t, http.MethodPatch, "/api/admin/projects/bulk", token, map[string]interface{}{
			"ids": ids, "status": "active",
		})
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("bulk delete with a missing id fails whole batch", func(t *testing.T) {
		rr := f.do(t, http.MethodDelete, "/api/admin/projects/bulk", token, map[string]interface{}{
			"ids": append([]string{"missing"}, ids...),
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)

		check := f.do(t, http.MethodGet, "/api/admin/projects/"+ids[0], token, nil)
		assert.Equal(t, http.StatusOK, check.Code)
	})

	t.Run("bulk delete", func(t *testing.T) {
		rr := f.do(t, http.MethodDelete, "/api/admin/projects/bulk", token, map[string]interface{}{
			"ids": ids,
		})
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("empty id list rejected", func(t *testing.T) {
		rr := f.do(t, http.MethodDelete, "/api/admin/projects/bulk", token, map[string]interface{}{
			"ids": []string{},
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRouter_RateLimitPrecedesAuth(t *testing.T) {
	f := newAPIFixture(t)

	// The list route allows 10 per minute; every request here is
	// unauthenticated, so the 11th must fail on the limiter, not the gate.
	for i := 0; i < 10; i++ {
		rr := f.do(t, http.MethodGet, "/api/admin/projects", "", nil)
		require.Equal(t, http.StatusUnauthorized, rr.Code, fmt.Sprintf("request %d", i+1))
	}

	rr := f.do(t, http.MethodGet, "/api/admin/projects", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "Rate limit exceeded. Try again in")
}

func TestRouter_PublicSurface(t *testing.T) {
	f := newAPIFixture(t)
	token := f.adminToken(t)

	rr := f.do(t, http.MethodPost, "/api/admin/projects", token, projectPayload())
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	t.Run("list and get need no auth", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/api/projects", "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		rr = f.do(t, http.MethodGet, "/api/projects/"+created.ID, "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("writes need a session", func(t *testing.T) {
		rr := f.do(t, http.MethodPut, "/api/projects/"+created.ID, "", projectPayload())
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = f.do(t, http.MethodPut, "/api/projects/"+created.ID, token, projectPayload())
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("legacy replace keeps history untouched", func(t *testing.T) {
		payload := projectPayload()
		payload["status"] = "active"

		rr := f.do(t, http.MethodPut, "/api/projects/"+created.ID, token, payload)
		require.Equal(t, http.StatusOK, rr.Code)

		var got struct {
			StatusHistory []interface{} `json:"statusHistory"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Empty(t, got.StatusHistory)
	})
}

func TestRouter_Contact(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("stores a valid submission", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/contact", "", map[string]string{
			"name": "Visitor", "email": "v@example.com", "message": "hello",
		})
		require.Equal(t, http.StatusOK, rr.Code)

		snaps, err := f.store.Query(context.Background(), store.Query{Collection: "contacts"})
		require.NoError(t, err)
		require.Len(t, snaps, 1)
		assert.Equal(t, "Visitor", snaps[0].Data()["name"])
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/contact", "", map[string]string{"name": "x"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRouter_Upload(t *testing.T) {
	f := newAPIFixture(t)
	token := f.adminToken(t)

	buildUpload := func(t *testing.T, field, name, contentType string) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name)}
		hdr["Content-Type"] = []string{contentType}
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return &buf, w.FormDataContentType()
	}

	t.Run("uploads under the file field", func(t *testing.T) {
		body, contentType := buildUpload(t, "file", "cover.png", "image/png")
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)

		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.JSONEq(t, `{"url": "https://cdn.example.com/cover.png"}`, rr.Body.String())

		snaps, err := f.store.Query(context.Background(), store.Query{Collection: "uploads"})
		require.NoError(t, err)
		require.Len(t, snaps, 1)
		assert.Equal(t, adminEmail, snaps[0].Data()["uploadedBy"])
	})

	t.Run("rejects disallowed types", func(t *testing.T) {
		body, contentType := buildUpload(t, "file", "page.html", "text/html")
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)

		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid file type")
	})

	t.Run("requires admin", func(t *testing.T) {
		body, contentType := buildUpload(t, "file", "cover.png", "image/png")
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)

		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
