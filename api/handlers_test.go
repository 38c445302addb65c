package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"crm-api/domain"
	"crm-api/reminder"
)

type notFoundErr struct{ id string }

func (e notFoundErr) Error() string   { return "client " + e.id + " not found" }
func (e notFoundErr) ClientNotFound() {}

type mockStore struct {
	mu      sync.Mutex
	clients []domain.Client
	err     error

	inserts []domain.ClientFields
	updates map[string]domain.ClientFields
	deletes []string
}

func newMockStore(clients ...domain.Client) *mockStore {
	return &mockStore{clients: clients, updates: make(map[string]domain.ClientFields)}
}

func (m *mockStore) List(ctx context.Context, userID string) ([]domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Client, len(m.clients))
	copy(out, m.clients)
	return out, nil
}

func (m *mockStore) Get(ctx context.Context, userID, id string) (domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Client{}, m.err
	}
	for _, c := range m.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Client{}, notFoundErr{id: id}
}

func (m *mockStore) Insert(ctx context.Context, userID string, fields domain.ClientFields) (domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Client{}, m.err
	}
	m.inserts = append(m.inserts, fields)
	client := domain.Client{ID: "c_new", Category: domain.CategoryProspect, CreatedAt: "2024-01-01T00:00:00Z"}
	client.Merge(fields)
	m.clients = append(m.clients, client)
	return client, nil
}

func (m *mockStore) Update(ctx context.Context, userID, id string, fields domain.ClientFields) (domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Client{}, m.err
	}
	for i := range m.clients {
		if m.clients[i].ID == id {
			m.clients[i].Merge(fields)
			m.updates[id] = fields
			return m.clients[i], nil
		}
	}
	return domain.Client{}, notFoundErr{id: id}
}

func (m *mockStore) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.deletes = append(m.deletes, id)
	for i := range m.clients {
		if m.clients[i].ID == id {
			m.clients = append(m.clients[:i], m.clients[i+1:]...)
			break
		}
	}
	return nil
}

type mockAuth struct{}

func (mockAuth) UserIDFromAuthHeader(string) (string, error) { return "user", nil }

type deniedAuth struct{}

func (deniedAuth) UserIDFromAuthHeader(string) (string, error) {
	return "", errors.New("missing authorization header")
}

type mockDeduper struct {
	added   map[string]bool
	removed []string
	err     error
}

func newMockDeduper() *mockDeduper { return &mockDeduper{added: make(map[string]bool)} }

func (m *mockDeduper) Add(ctx context.Context, userID, key string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.added[key] {
		return false, nil
	}
	m.added[key] = true
	return true, nil
}

func (m *mockDeduper) Remove(ctx context.Context, userID, key string) error {
	m.removed = append(m.removed, key)
	delete(m.added, key)
	return nil
}

type mockScheduler struct {
	task Task
	err  error

	lastClient  domain.Client
	lastMinutes int
}

// Task aliases the reminder task for test readability.
type Task = reminder.Task

func (m *mockScheduler) Schedule(ctx context.Context, userID string, client domain.Client, minutes int) (reminder.Task, error) {
	m.lastClient = client
	m.lastMinutes = minutes
	if m.err != nil {
		return reminder.Task{}, m.err
	}
	return m.task, nil
}

type mockSettings struct {
	settings domain.Settings
	err      error
}

func (m *mockSettings) FetchSettings(ctx context.Context, userID string) (domain.Settings, error) {
	return m.settings, m.err
}

func (m *mockSettings) SaveSettings(ctx context.Context, userID string, settings domain.Settings) error {
	if m.err != nil {
		return m.err
	}
	m.settings = settings
	return nil
}

func sampleClients() []domain.Client {
	return []domain.Client{
		{ID: "c_1", Name: "Ana", Email: "ana@x.com", Phone: "600", Category: domain.CategoryProspect, CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "c_2", Name: "Bruno", Email: "bruno@y.com", Category: domain.CategoryInProgress, CreatedAt: "2024-01-02T00:00:00Z"},
		{ID: "c_3", Name: "Carla", Email: "carla@z.com", Category: domain.CategoryClosed, CreatedAt: "2024-01-03T00:00:00Z"},
	}
}

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer token")
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGetBoardProjectsAndFilters(t *testing.T) {
	store := newMockStore(sampleClients()...)
	c, rec := newTestContext(http.MethodGet, "/api/board?q=ANA", "")

	if err := getBoard(store, mockAuth{}, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	var board domain.Board
	if err := sonic.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if board.Term != "ana" {
		t.Fatalf("unexpected term: %q", board.Term)
	}
	matched := 0
	for _, b := range board.Buckets {
		matched += b.Count
	}
	if matched != 1 {
		t.Fatalf("expected 1 filtered client, got %d", matched)
	}
	if board.Stats.Total != 3 || board.Stats.ClosureRate != "33.3%" {
		t.Fatalf("unexpected stats: %#v", board.Stats)
	}
}

func TestGetBoardStorageError(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("storage down")
	c, rec := newTestContext(http.MethodGet, "/api/board", "")

	if err := getBoard(store, mockAuth{}, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 got %d", rec.Code)
	}
}

func TestGetBoardUnauthorized(t *testing.T) {
	store := newMockStore()
	c, rec := newTestContext(http.MethodGet, "/api/board", "")

	if err := getBoard(store, deniedAuth{}, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 got %d", rec.Code)
	}
}

func TestPostClientTrimsAndCreates(t *testing.T) {
	store := newMockStore()
	c, rec := newTestContext(http.MethodPost, "/api/clients", `{"name":"  Ana ","email":" a@x.com ","phone":"","category":"in-progress"}`)

	if err := postClient(store, mockAuth{}, newMockDeduper())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d", rec.Code)
	}
	if len(store.inserts) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(store.inserts))
	}
	fields := store.inserts[0]
	if fields.Name == nil || *fields.Name != "Ana" {
		t.Fatalf("expected trimmed name, got %#v", fields.Name)
	}
	if fields.Email == nil || *fields.Email != "a@x.com" {
		t.Fatalf("expected trimmed email, got %#v", fields.Email)
	}
	if fields.Phone == nil || *fields.Phone != "" {
		t.Fatalf("expected present empty phone, got %#v", fields.Phone)
	}

	var created domain.Client
	if err := sonic.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if created.ID == "" || created.Category != domain.CategoryInProgress {
		t.Fatalf("unexpected created client: %#v", created)
	}
}

func TestPostClientInvalidCategory(t *testing.T) {
	store := newMockStore()
	c, rec := newTestContext(http.MethodPost, "/api/clients", `{"name":"Ana","category":"won"}`)

	if err := postClient(store, mockAuth{}, newMockDeduper())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
	if len(store.inserts) != 0 {
		t.Fatalf("expected no insert, got %d", len(store.inserts))
	}
}

func TestPostClientInvalidBody(t *testing.T) {
	store := newMockStore()
	c, rec := newTestContext(http.MethodPost, "/api/clients", `{"name":`)

	if err := postClient(store, mockAuth{}, newMockDeduper())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}

func TestPostClientDuplicateSubmissionIgnored(t *testing.T) {
	store := newMockStore()
	deduper := newMockDeduper()
	handler := postClient(store, mockAuth{}, deduper)

	for i := 0; i < 2; i++ {
		c, rec := newTestContext(http.MethodPost, "/api/clients", `{"name":"Ana"}`)
		c.Request().Header.Set("Idempotency-Key", "form-1")
		if err := handler(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if i == 0 && rec.Code != http.StatusCreated {
			t.Fatalf("expected first submission 201, got %d", rec.Code)
		}
		if i == 1 {
			if rec.Code != http.StatusOK {
				t.Fatalf("expected replay 200, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "duplicate submission ignored") {
				t.Fatalf("unexpected replay body: %s", rec.Body.String())
			}
		}
	}
	if len(store.inserts) != 1 {
		t.Fatalf("expected a single insert, got %d", len(store.inserts))
	}
}

func TestPostClientDedupeRollbackOnInsertFailure(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("storage down")
	deduper := newMockDeduper()
	c, rec := newTestContext(http.MethodPost, "/api/clients", `{"name":"Ana"}`)
	c.Request().Header.Set("Idempotency-Key", "form-1")

	if err := postClient(store, mockAuth{}, deduper)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 got %d", rec.Code)
	}
	if len(deduper.removed) != 1 || deduper.removed[0] != "form-1" {
		t.Fatalf("expected dedupe rollback, got %#v", deduper.removed)
	}
}

func TestPostClientWithoutKeySkipsDedupeBookkeeping(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("storage down")
	deduper := newMockDeduper()
	c, rec := newTestContext(http.MethodPost, "/api/clients", `{"name":"Ana"}`)

	if err := postClient(store, mockAuth{}, deduper)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 got %d", rec.Code)
	}
	if len(deduper.added) != 0 {
		t.Fatalf("expected no dedupe claims without a key, got %#v", deduper.added)
	}
	if len(deduper.removed) != 0 {
		t.Fatalf("expected no dedupe rollback without a claim, got %#v", deduper.removed)
	}
}

func TestPutClientMerges(t *testing.T) {
	store := newMockStore(sampleClients()...)
	c, rec := newTestContext(http.MethodPut, "/api/clients/c_1", `{"phone":"700"}`)
	c.SetParamNames("id")
	c.SetParamValues("c_1")

	if err := putClient(store, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	var updated domain.Client
	if err := sonic.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if updated.Phone != "700" || updated.Name != "Ana" {
		t.Fatalf("unexpected merge result: %#v", updated)
	}
}

func TestPutClientNotFound(t *testing.T) {
	store := newMockStore()
	c, rec := newTestContext(http.MethodPut, "/api/clients/c_missing", `{"name":"X"}`)
	c.SetParamNames("id")
	c.SetParamValues("c_missing")

	if err := putClient(store, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "client not found") {
		t.Fatalf("expected user-visible message, got %s", rec.Body.String())
	}
}

func TestMoveClientChangesStage(t *testing.T) {
	store := newMockStore(sampleClients()...)
	c, rec := newTestContext(http.MethodPost, "/api/clients/c_1/move", `{"category":"closed"}`)
	c.SetParamNames("id")
	c.SetParamValues("c_1")

	if err := moveClient(store, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	fields, ok := store.updates["c_1"]
	if !ok || fields.Category == nil || *fields.Category != domain.CategoryClosed {
		t.Fatalf("expected category update, got %#v", fields)
	}
}

func TestMoveClientSameStageIsNoOp(t *testing.T) {
	store := newMockStore(sampleClients()...)
	c, rec := newTestContext(http.MethodPost, "/api/clients/c_1/move", `{"category":"prospect"}`)
	c.SetParamNames("id")
	c.SetParamValues("c_1")

	if err := moveClient(store, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected no message body, got %s", rec.Body.String())
	}
	if len(store.updates) != 0 {
		t.Fatalf("expected no persisted write, got %#v", store.updates)
	}
}

func TestMoveClientInvalidTarget(t *testing.T) {
	store := newMockStore(sampleClients()...)
	c, rec := newTestContext(http.MethodPost, "/api/clients/c_1/move", `{"category":"archived"}`)
	c.SetParamNames("id")
	c.SetParamValues("c_1")

	if err := moveClient(store, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}

func TestMoveClientUnknownID(t *testing.T) {
	store := newMockStore()
	c, rec := newTestContext(http.MethodPost, "/api/clients/c_missing/move", `{"category":"closed"}`)
	c.SetParamNames("id")
	c.SetParamValues("c_missing")

	if err := moveClient(store, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestDeleteClientAsksForConfirmation(t *testing.T) {
	store := newMockStore(sampleClients()...)
	c, rec := newTestContext(http.MethodDelete, "/api/clients/c_1", "")
	c.SetParamNames("id")
	c.SetParamValues("c_1")

	if err := deleteClient(store, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `\"Ana\"`) {
		t.Fatalf("expected prompt to name the record, got %s", rec.Body.String())
	}
	if len(store.deletes) != 0 {
		t.Fatalf("expected no delete before confirmation, got %#v", store.deletes)
	}
}

func TestDeleteClientConfirmed(t *testing.T) {
	store := newMockStore(sampleClients()...)
	c, rec := newTestContext(http.MethodDelete, "/api/clients/c_1?confirm=true", "")
	c.SetParamNames("id")
	c.SetParamValues("c_1")

	if err := deleteClient(store, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 got %d", rec.Code)
	}
	if len(store.deletes) != 1 || store.deletes[0] != "c_1" {
		t.Fatalf("expected delete of c_1, got %#v", store.deletes)
	}
}

func TestDeleteClientMissingIsNoOp(t *testing.T) {
	store := newMockStore()
	c, rec := newTestContext(http.MethodDelete, "/api/clients/c_missing", "")
	c.SetParamNames("id")
	c.SetParamValues("c_missing")

	if err := deleteClient(store, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 got %d", rec.Code)
	}
}

func TestExportClientsCSV(t *testing.T) {
	store := newMockStore(domain.Client{
		ID: "c_1", Name: `Ana "A"`, Email: "a@x.com", Category: domain.CategoryProspect, CreatedAt: "2024-01-01T00:00:00Z",
	})
	c, rec := newTestContext(http.MethodGet, "/api/clients/export", "")

	if err := exportClients(store, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(got, domain.ExportFilename) {
		t.Fatalf("expected fixed filename, got %q", got)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "ID,Name,Email,Phone,Category,CreatedAt\n") {
		t.Fatalf("unexpected header: %s", body)
	}
	if !strings.Contains(body, `"c_1","Ana ""A""","a@x.com","","prospect","2024-01-01T00:00:00Z"`) {
		t.Fatalf("unexpected row: %s", body)
	}
}

func TestExportClientsEmptyList(t *testing.T) {
	store := newMockStore()
	c, rec := newTestContext(http.MethodGet, "/api/clients/export", "")

	if err := exportClients(store, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no clients to export") {
		t.Fatalf("expected user-visible message, got %s", rec.Body.String())
	}
}

func TestPostReminderArmsTask(t *testing.T) {
	store := newMockStore(sampleClients()...)
	sched := &mockScheduler{task: Task{ID: "task-1", Title: "Reminder: Ana"}}
	c, rec := newTestContext(http.MethodPost, "/api/clients/c_1/reminders", `{"minutes":10}`)
	c.SetParamNames("id")
	c.SetParamValues("c_1")

	if err := postReminder(store, sched, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202 got %d", rec.Code)
	}
	if sched.lastMinutes != 10 || sched.lastClient.ID != "c_1" {
		t.Fatalf("unexpected schedule call: minutes=%d client=%#v", sched.lastMinutes, sched.lastClient)
	}
	if !strings.Contains(rec.Body.String(), "task-1") {
		t.Fatalf("expected task in response, got %s", rec.Body.String())
	}
}

func TestPostReminderInvalidDelaySilentlyAborts(t *testing.T) {
	store := newMockStore(sampleClients()...)
	sched := &mockScheduler{err: reminder.ErrInvalidDelay}
	c, rec := newTestContext(http.MethodPost, "/api/clients/c_1/reminders", `{"minutes":0}`)
	c.SetParamNames("id")
	c.SetParamValues("c_1")

	if err := postReminder(store, sched, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected silent abort, got %s", rec.Body.String())
	}
}

func TestPostReminderMalformedDelaySilentlyAborts(t *testing.T) {
	store := newMockStore(sampleClients()...)
	sched := &mockScheduler{}
	c, rec := newTestContext(http.MethodPost, "/api/clients/c_1/reminders", `{"minutes":"ten"}`)
	c.SetParamNames("id")
	c.SetParamValues("c_1")

	if err := postReminder(store, sched, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 got %d", rec.Code)
	}
}

func TestPostReminderPermissionDenied(t *testing.T) {
	store := newMockStore(sampleClients()...)
	sched := &mockScheduler{err: reminder.ErrPermissionDenied}
	c, rec := newTestContext(http.MethodPost, "/api/clients/c_1/reminders", `{"minutes":10}`)
	c.SetParamNames("id")
	c.SetParamValues("c_1")

	if err := postReminder(store, sched, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "notification permission denied") {
		t.Fatalf("expected user-visible message, got %s", rec.Body.String())
	}
}

func TestPostReminderUnknownClient(t *testing.T) {
	store := newMockStore()
	sched := &mockScheduler{}
	c, rec := newTestContext(http.MethodPost, "/api/clients/c_missing/reminders", `{"minutes":10}`)
	c.SetParamNames("id")
	c.SetParamValues("c_missing")

	if err := postReminder(store, sched, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestGetDashboardDefaultsToFirstTimeFrame(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/api/dashboard", "")

	if err := getDashboard(mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"timeFrame":"week"`) {
		t.Fatalf("expected default week bundle, got %s", rec.Body.String())
	}
}

func TestGetDashboardSelectedTimeFrame(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/api/dashboard?timeFrame=year", "")

	if err := getDashboard(mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"timeFrame":"year"`) {
		t.Fatalf("expected year bundle, got %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "$540,000") {
		t.Fatalf("expected canned year figures, got %s", rec.Body.String())
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	settings := &mockSettings{}

	c, rec := newTestContext(http.MethodPut, "/api/settings", `{"notificationsEnabled":true}`)
	if err := putSettings(settings, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	c, rec = newTestContext(http.MethodGet, "/api/settings", "")
	if err := getSettings(settings, mockAuth{})(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var s domain.Settings
	if err := sonic.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !s.NotificationsEnabled {
		t.Fatalf("expected persisted settings, got %#v", s)
	}
}
