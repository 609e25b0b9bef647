package tasks_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/crmhub/internal/app/core/projection"
	tasksvc "github.com/dalemusser/crmhub/internal/app/core/tasks"
	"github.com/dalemusser/crmhub/internal/app/features/tasks"
	customerstore "github.com/dalemusser/crmhub/internal/app/store/customers"
	userstore "github.com/dalemusser/crmhub/internal/app/store/users"
	"github.com/dalemusser/crmhub/internal/app/system/blobstore"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/dalemusser/crmhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type taskBody struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Assignee *struct {
		Name string `json:"name"`
	} `json:"assignee"`
	Comments []struct {
		Text string `json:"text"`
	} `json:"comments"`
	Attachments []struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
	} `json:"attachments"`
}

func newRouter(t *testing.T) (chi.Router, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := tasksvc.New(db, blobstore.NewWithFs(afero.NewMemMapFs()), testutil.NewDispatcher(t, db), zap.NewNop())
	projector := projection.New(userstore.New(db), customerstore.New(db))
	return tasks.Routes(tasks.NewHandler(svc, projector, zap.NewNop())), testutil.NewFixtures(t, db)
}

func createBody(assignee models.User) map[string]any {
	return map[string]any{
		"title":       "Prepare quote",
		"priority":    "high",
		"due_date":    time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"assigned_to": assignee.ID.Hex(),
	}
}

func TestHandleCreate(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	manager := fx.CreateManager(ctx, "Mo", "mo@example.com")
	user := fx.CreateUser(ctx, "Uma", "uma@example.com", models.RoleUser)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/", createBody(user), user))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/", createBody(user), manager))
	rec.AssertStatus(t, http.StatusCreated)

	var body taskBody
	rec.DecodeJSON(t, &body)
	if body.Title != "Prepare quote" || body.Assignee == nil || body.Assignee.Name != "Uma" {
		t.Errorf("assignee should be expanded: %+v", body)
	}

	bad := createBody(user)
	bad["status"] = "pending"
	delete(bad, "title")
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/", bad, manager))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, `"field":"title"`)
	rec.AssertContains(t, `"field":"status"`)
}

func TestServeList_ScopedAndFiltered(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := fx.CreateAdmin(ctx, "Ada", "ada@example.com")
	userC := fx.CreateUser(ctx, "Cy", "cy@example.com", models.RoleUser)
	userD := fx.CreateUser(ctx, "Di", "di@example.com", models.RoleUser)
	fx.CreateTask(ctx, "For Cy", admin.ID, userC.ID)

	for _, tt := range []struct {
		who  models.User
		want int64
	}{{userC, 1}, {userD, 0}, {admin, 1}} {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/", nil, tt.who))
		rec.AssertStatus(t, http.StatusOK)
		var page struct {
			Meta struct {
				Total int64 `json:"total"`
			} `json:"meta"`
		}
		rec.DecodeJSON(t, &page)
		if page.Meta.Total != tt.want {
			t.Errorf("%s sees %d tasks, want %d", tt.who.Name, page.Meta.Total, tt.want)
		}
	}

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/?overdue=sometimes", nil, admin))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, `"field":"overdue"`)
}

func TestServeView(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	manager := fx.CreateManager(ctx, "Mo", "mo@example.com")
	user := fx.CreateUser(ctx, "Uma", "uma@example.com", models.RoleUser)
	stranger := fx.CreateUser(ctx, "Sam", "sam@example.com", models.RoleUser)
	task := fx.CreateTask(ctx, "Visible", manager.ID, user.ID)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/"+task.ID.Hex(), nil, user))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/"+task.ID.Hex(), nil, stranger))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/zzz", nil, user))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/"+task.ID.Hex()))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestUpdateCommentDelete(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	manager := fx.CreateManager(ctx, "Mo", "mo@example.com")
	user := fx.CreateUser(ctx, "Uma", "uma@example.com", models.RoleUser)
	task := fx.CreateTask(ctx, "Follow up", manager.ID, user.ID)
	path := "/" + task.ID.Hex()

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("PATCH", path, map[string]any{"status": "in-progress"}, user))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":"in-progress"`)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", path+"/comments", map[string]any{"text": "On it"}, user))
	rec.AssertStatus(t, http.StatusCreated)
	var body taskBody
	rec.DecodeJSON(t, &body)
	if len(body.Comments) != 1 || body.Comments[0].Text != "On it" {
		t.Errorf("unexpected comments: %+v", body.Comments)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("DELETE", path, nil, user))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("DELETE", path, nil, manager))
	rec.AssertStatus(t, http.StatusNoContent)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", path, nil, manager))
	rec.AssertStatus(t, http.StatusNotFound)
}

func uploadRequest(t *testing.T, target, filename string, content []byte, p models.User) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testutil.WithPrincipal(req, p)
}

func TestAttachments(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	manager := fx.CreateManager(ctx, "Mo", "mo@example.com")
	user := fx.CreateUser(ctx, "Uma", "uma@example.com", models.RoleUser)
	task := fx.CreateTask(ctx, "With files", manager.ID, user.ID)
	base := "/" + task.ID.Hex() + "/attachments"

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, base, "quote.txt", []byte("total: 42"), user))
	rec.AssertStatus(t, http.StatusCreated)

	var created struct {
		Attachment struct {
			ID       string `json:"id"`
			Filename string `json:"filename"`
			Size     int64  `json:"size"`
		} `json:"attachment"`
		Task taskBody `json:"task"`
	}
	rec.DecodeJSON(t, &created)
	if created.Attachment.Filename != "quote.txt" || created.Attachment.Size != 9 || len(created.Task.Attachments) != 1 {
		t.Fatalf("unexpected upload response: %+v", created)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("blob_ref")) {
		t.Error("blob refs must not be exposed")
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", base+"/"+created.Attachment.ID, nil, user))
	rec.AssertStatus(t, http.StatusOK)
	if rec.Body.String() != "total: 42" {
		t.Errorf("download body = %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename=quote.txt` {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("DELETE", base+"/"+created.Attachment.ID, nil, user))
	rec.AssertStatus(t, http.StatusOK)
	var after taskBody
	rec.DecodeJSON(t, &after)
	if len(after.Attachments) != 0 {
		t.Errorf("attachment should be gone: %+v", after.Attachments)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", base, map[string]string{"file": "nope"}, user))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, `"field":"file"`)
}
