package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/handofflabs/handoff/pkg/models"
	"github.com/handofflabs/handoff/pkg/persistence/file"
	"github.com/handofflabs/handoff/pkg/services"
	"github.com/handofflabs/handoff/pkg/testutil"
	"github.com/handofflabs/handoff/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	app         *fiber.App
	persistence *file.Persistence
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deliveryService := services.NewDelivery(p, nil, logger)
	workItemService := services.NewWorkItem(p)

	handlers := web.NewAPIHandlers(deliveryService, workItemService, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()

	w := app.Group("/work-items")
	w.Get("/", handlers.GetWorkItems)
	w.Post("/", handlers.CreateWorkItem)
	w.Get("/:id", handlers.GetWorkItem)
	w.Get("/:id/history", handlers.GetWorkItemHistory)
	w.Get("/:id/permissions", handlers.GetPermissions)
	w.Patch("/:id/status", handlers.UpdateLifecycle)
	w.Post("/:id/delivery", handlers.SubmitDelivery)
	w.Post("/:id/approval", handlers.ApproveDelivery)
	app.Get("/health", handlers.HealthCheck)

	return &testAPI{app: app, persistence: p}
}

func (a *testAPI) seed(t *testing.T, item *models.WorkItem) {
	t.Helper()
	require.NoError(t, a.persistence.WorkItemRepository().Create(context.Background(), item))
}

func (a *testAPI) request(t *testing.T, method, path string, principal *models.Principal, body any) *http.Response {
	t.Helper()

	var payload io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		payload = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if principal != nil {
		req.Header.Set(web.HeaderPrincipalID, principal.ID)
		req.Header.Set(web.HeaderPrincipalName, principal.Name)
		req.Header.Set(web.HeaderPrincipalRole, string(principal.Role))
	}

	resp, err := a.app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestCreateWorkItem(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodPost, "/work-items", nil, map[string]any{
		"project_id":  "project-1",
		"kind":        "module",
		"title":       "Payment gateway module",
		"assignee_id": testutil.AssigneeID,
		"reviewer_id": testutil.ReviewerID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.WorkItem
	decodeJSON(t, resp, &created)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.DeliveryStatusNone, created.DeliveryStatus)
	assert.Equal(t, models.LifecycleBacklog, created.LifecycleStatus)
	assert.Equal(t, int64(1), created.Version)
}

func TestCreateWorkItem_InvalidBody(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodPost, "/work-items", nil, map[string]any{
		"project_id": "project-1",
		"kind":       "epic",
		"title":      "ab",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetWorkItem(t *testing.T) {
	api := newTestAPI(t)
	item := testutil.NewWorkItem()
	api.seed(t, item)

	resp := api.request(t, http.MethodGet, "/work-items/"+item.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var found models.WorkItem
	decodeJSON(t, resp, &found)
	assert.Equal(t, item.ID, found.ID)
}

func TestGetWorkItem_NotFound(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodGet, "/work-items/no-such-id", nil, nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitDelivery(t *testing.T) {
	api := newTestAPI(t)
	item := testutil.NewWorkItem()
	api.seed(t, item)

	principal := testutil.Assignee()
	resp := api.request(t, http.MethodPost, "/work-items/"+item.ID+"/delivery", &principal, map[string]any{
		"artifacts": []map[string]string{{"ref": "release.zip"}},
		"note":      "first drop",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.WorkItem
	decodeJSON(t, resp, &updated)

	assert.Equal(t, models.DeliveryStatusPending, updated.DeliveryStatus)
	assert.Equal(t, testutil.AssigneeID, updated.DeliveredBy)
	require.Len(t, updated.History, 1)
	assert.Equal(t, models.HistoryActionDelivered, updated.History[0].Action)
}

func TestSubmitDelivery_MissingPrincipal(t *testing.T) {
	api := newTestAPI(t)
	item := testutil.NewWorkItem()
	api.seed(t, item)

	resp := api.request(t, http.MethodPost, "/work-items/"+item.ID+"/delivery", nil, map[string]any{
		"artifacts": []map[string]string{{"ref": "release.zip"}},
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitDelivery_EmptyArtifacts(t *testing.T) {
	api := newTestAPI(t)
	item := testutil.NewWorkItem()
	api.seed(t, item)

	principal := testutil.Assignee()
	resp := api.request(t, http.MethodPost, "/work-items/"+item.ID+"/delivery", &principal, map[string]any{
		"artifacts": []map[string]string{},
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitDelivery_Forbidden(t *testing.T) {
	api := newTestAPI(t)
	item := testutil.NewWorkItem()
	api.seed(t, item)

	principal := testutil.Outsider()
	resp := api.request(t, http.MethodPost, "/work-items/"+item.ID+"/delivery", &principal, map[string]any{
		"artifacts": []map[string]string{{"ref": "release.zip"}},
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var problem map[string]any
	decodeJSON(t, resp, &problem)
	assert.Equal(t, "forbidden_not_assigned", problem["type"])
}

func TestApproveDelivery(t *testing.T) {
	api := newTestAPI(t)
	item := testutil.NewPendingWorkItem()
	api.seed(t, item)

	principal := testutil.Reviewer()
	resp := api.request(t, http.MethodPost, "/work-items/"+item.ID+"/approval", &principal, map[string]any{
		"decision": "accepted",
		"note":     "ship it",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.WorkItem
	decodeJSON(t, resp, &updated)

	assert.Equal(t, models.DeliveryStatusAccepted, updated.DeliveryStatus)
	assert.Equal(t, "ship it", updated.ApprovalNote)
	assert.Equal(t, models.LifecycleCompleted, updated.LifecycleStatus)
}

func TestApproveDelivery_Reject(t *testing.T) {
	api := newTestAPI(t)
	item := testutil.NewPendingWorkItem()
	api.seed(t, item)

	principal := testutil.QA()
	resp := api.request(t, http.MethodPost, "/work-items/"+item.ID+"/approval", &principal, map[string]any{
		"decision": "rejected",
		"note":     "missing tests",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.WorkItem
	decodeJSON(t, resp, &updated)
	assert.Equal(t, models.DeliveryStatusRejected, updated.DeliveryStatus)
}

func TestApproveDelivery_InvalidDecision(t *testing.T) {
	api := newTestAPI(t)
	item := testutil.NewPendingWorkItem()
	api.seed(t, item)

	principal := testutil.Reviewer()
	resp := api.request(t, http.MethodPost, "/work-items/"+item.ID+"/approval", &principal, map[string]any{
		"decision": "maybe",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApproveDelivery_NonReviewer(t *testing.T) {
	api := newTestAPI(t)
	item := testutil.NewPendingWorkItem()
	api.seed(t, item)

	principal := testutil.Assignee()
	resp := api.request(t, http.MethodPost, "/work-items/"+item.ID+"/approval", &principal, map[string]any{
		"decision": "accepted",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var problem map[string]any
	decodeJSON(t, resp, &problem)
	assert.Equal(t, "forbidden_not_reviewer", problem["type"])
}

func TestGetPermissions(t *testing.T) {
	api := newTestAPI(t)
	item := testutil.NewPendingWorkItem()
	api.seed(t, item)

	tests := []struct {
		name        string
		principal   models.Principal
		wantSubmit  bool
		wantApprove bool
	}{
		{"reviewer", testutil.Reviewer(), false, true},
		{"assignee", testutil.Assignee(), true, false},
		{"outsider", testutil.Outsider(), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.request(t, http.MethodGet, "/work-items/"+item.ID+"/permissions", &tt.principal, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var perms web.PermissionsResponse
			decodeJSON(t, resp, &perms)

			assert.Equal(t, tt.wantSubmit, perms.CanSubmitDelivery)
			assert.Equal(t, tt.wantApprove, perms.CanApproveDelivery)
		})
	}
}

func TestGetWorkItemHistory(t *testing.T) {
	api := newTestAPI(t)
	item := testutil.NewWorkItem()
	api.seed(t, item)

	principal := testutil.Assignee()
	resp := api.request(t, http.MethodPost, "/work-items/"+item.ID+"/delivery", &principal, map[string]any{
		"artifacts": []map[string]string{{"ref": "release.zip"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.request(t, http.MethodGet, "/work-items/"+item.ID+"/history", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		WorkItemID string                `json:"work_item_id"`
		History    []models.HistoryEntry `json:"history"`
	}
	decodeJSON(t, resp, &body)

	assert.Equal(t, item.ID, body.WorkItemID)
	require.Len(t, body.History, 1)
	assert.Equal(t, models.HistoryActionDelivered, body.History[0].Action)
}

func TestUpdateLifecycle(t *testing.T) {
	api := newTestAPI(t)
	item := testutil.NewWorkItem()
	api.seed(t, item)

	principal := testutil.Assignee()
	resp := api.request(t, http.MethodPatch, "/work-items/"+item.ID+"/status", &principal, map[string]any{
		"status": "testing",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.WorkItem
	decodeJSON(t, resp, &updated)

	assert.Equal(t, models.LifecycleTesting, updated.LifecycleStatus)
	assert.Equal(t, models.DeliveryStatusNone, updated.DeliveryStatus)
}

func TestGetWorkItems(t *testing.T) {
	api := newTestAPI(t)

	for i := 0; i < 3; i++ {
		item := testutil.NewWorkItem()
		item.Title = fmt.Sprintf("Module %d", i)
		api.seed(t, item)
	}

	other := testutil.NewWorkItem()
	other.ProjectID = "project-2"
	api.seed(t, other)

	resp := api.request(t, http.MethodGet, "/work-items/?project_id=project-1&limit=2", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		WorkItems   []*models.WorkItem `json:"work_items"`
		TotalCount  int64              `json:"total_count"`
		HasNextPage bool               `json:"has_next_page"`
	}
	decodeJSON(t, resp, &body)

	assert.Len(t, body.WorkItems, 2)
	assert.Equal(t, int64(3), body.TotalCount)
	assert.True(t, body.HasNextPage)
}

func TestGetWorkItems_InvalidSort(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodGet, "/work-items/?sort_by=priority", nil, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}
