package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Megha-r20/CyberNova-2026/internal/api/middleware"
	"github.com/Megha-r20/CyberNova-2026/internal/domain/model"
	"github.com/Megha-r20/CyberNova-2026/internal/domain/validation"
	"github.com/Megha-r20/CyberNova-2026/internal/gate"
	"github.com/Megha-r20/CyberNova-2026/internal/service"
	"github.com/Megha-r20/CyberNova-2026/internal/spreadsheet"
	"github.com/Megha-r20/CyberNova-2026/internal/storage"
	"github.com/Megha-r20/CyberNova-2026/internal/storage/jsonstore"
)

const testPassword = "admin-pass"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testAPI — роутер поверх настоящих сервисов и JSON-хранилища.
type testAPI struct {
	router http.Handler
	store  storage.Store
	auth   *service.AdminAuthService
}

func newTestAPI(t *testing.T, ceiling int) *testAPI {
	t.Helper()
	dir := t.TempDir()

	store, err := jsonstore.New(filepath.Join(dir, jsonstore.DefaultFileName))
	if err != nil {
		t.Fatalf("jsonstore.New: %v", err)
	}

	syncer := service.NewExportSyncer(service.ExportSyncConfig{
		Path:     filepath.Join(dir, "export.xlsx"),
		Enabled:  true,
		Mode:     service.SyncInline,
		Attempts: 1,
	}, testLogger())

	regSvc := service.NewRegistrationService(
		store,
		gate.New(),
		service.NewSlotCounter(store, ceiling, 0),
		syncer,
		service.RegistrationConfig{Rules: validation.DefaultRules()},
		testLogger(),
	)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	authSvc := service.NewAdminAuthService(service.AdminAuthConfig{
		PasswordHash: hash,
		Secret:       []byte("handlers-test-secret"),
		Issuer:       "cybernova",
		TTL:          6 * time.Hour,
	}, testLogger())

	h := NewAPIHandler(NewHealthHandler(storage.NewReadinessChecker(store, "json")), regSvc, authSvc, testLogger())
	r := chi.NewRouter()
	HandlerFromMux(h, r, middleware.AdminAuth(authSvc, testLogger()))

	return &testAPI{router: r, store: store, auth: authSvc}
}

// do выполняет запрос; body сериализуется в JSON, если это не строка.
func (a *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": testPassword}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: ожидался 200, получен %d: %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("невалидный JSON %q: %v", rec.Body.String(), err)
	}
	return body
}

func registration(n int) map[string]any {
	return map[string]any{
		"fullName":           fmt.Sprintf("Student %d", n),
		"registrationNumber": fmt.Sprintf("kare%d", n),
		"email":              fmt.Sprintf("student%d@college.edu", n),
		"year":               "2nd Year",
		"section":            "a",
		"mobile":             fmt.Sprintf("98765%05d", n),
		"whatsappJoined":     "Yes",
	}
}

func TestRegister_Created(t *testing.T) {
	api := newTestAPI(t, 100)

	in := registration(1)
	in["fullName"] = "Asha Rao"
	rec := api.do(t, http.MethodPost, "/api/register", in, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидался 201, получен %d: %s", rec.Code, rec.Body.String())
	}

	var resp registerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Message != "Registration successful" {
		t.Errorf("неожиданный ответ: %+v", resp)
	}
	if resp.Data.RegistrationNumber != "KARE1" || resp.Data.Section != "A" || !resp.Data.WhatsappJoined {
		t.Errorf("запись не нормализована: %+v", resp.Data)
	}
	if resp.Data.ID == "" || resp.Data.Timestamp == "" {
		t.Errorf("сервер не назначил id/timestamp: %+v", resp.Data)
	}
}

func TestRegister_ValidationError(t *testing.T) {
	api := newTestAPI(t, 100)

	in := registration(1)
	in["email"] = "asha@gmail.com"
	in["mobile"] = "12345"
	rec := api.do(t, http.MethodPost, "/api/register", in, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидался 400, получен %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["success"] != false || body["message"] != "Validation failed" {
		t.Errorf("неожиданное тело: %v", body)
	}
	fields, _ := body["errors"].(map[string]any)
	if _, ok := fields["email"]; !ok {
		t.Errorf("нет ошибки поля email: %v", fields)
	}
	if _, ok := fields["mobile"]; !ok {
		t.Errorf("нет ошибки поля mobile: %v", fields)
	}
}

func TestRegister_InvalidBody(t *testing.T) {
	api := newTestAPI(t, 100)

	for _, body := range []string{"{", "[]", "null", strings.Repeat("x", maxBodyBytes+1)} {
		rec := api.do(t, http.MethodPost, "/api/register", body, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("тело %.10q: ожидался 400, получен %d", body, rec.Code)
		}
	}
}

func TestRegister_Duplicate(t *testing.T) {
	api := newTestAPI(t, 100)

	if rec := api.do(t, http.MethodPost, "/api/register", registration(1), ""); rec.Code != http.StatusCreated {
		t.Fatalf("первая регистрация: %d", rec.Code)
	}

	dup := registration(2)
	dup["email"] = "STUDENT1@college.edu"
	rec := api.do(t, http.MethodPost, "/api/register", dup, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("ожидался 409, получен %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["field"] != "email" {
		t.Errorf("field = %v, ожидалось email", body["field"])
	}
	if body["message"] != "Duplicate registration found: Email already registered" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestRegister_SlotsExhausted(t *testing.T) {
	api := newTestAPI(t, 1)

	if rec := api.do(t, http.MethodPost, "/api/register", registration(1), ""); rec.Code != http.StatusCreated {
		t.Fatalf("первая регистрация: %d", rec.Code)
	}

	rec := api.do(t, http.MethodPost, "/api/register", registration(2), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидался 400, получен %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != "SLOTS_EXHAUSTED" {
		t.Errorf("code = %v, ожидалось SLOTS_EXHAUSTED", body["code"])
	}

	rec = api.do(t, http.MethodGet, "/api/slots-left", nil, "")
	var slots slotsLeftResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &slots); err != nil {
		t.Fatal(err)
	}
	if slots.SlotsLeft != 0 || slots.TotalRegistered != 1 {
		t.Errorf("slots-left = %+v, ожидалось 0/1", slots)
	}
}

func TestAPIHealth(t *testing.T) {
	api := newTestAPI(t, 100)

	rec := api.do(t, http.MethodGet, "/api/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался 200, получен %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["success"] != true {
		t.Errorf("неожиданное тело: %v", body)
	}
	if ts, _ := body["timestamp"].(string); ts == "" {
		t.Error("пустой timestamp")
	}
}

func TestHealthReady(t *testing.T) {
	api := newTestAPI(t, 100)

	if rec := api.do(t, http.MethodGet, "/health/ready", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("ready: ожидался 200, получен %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/health/live", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("live: ожидался 200, получен %d", rec.Code)
	}

	h := NewHealthHandler(nil)
	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("без checker: ожидался 503, получен %d", rec.Code)
	}
}

func TestAdminLogin(t *testing.T) {
	api := newTestAPI(t, 100)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"верный пароль", map[string]string{"password": testPassword}, http.StatusOK},
		{"неверный пароль", map[string]string{"password": "nope"}, http.StatusUnauthorized},
		{"пустой пароль", map[string]string{}, http.StatusUnauthorized},
		{"невалидный JSON", "{", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/admin/login", tt.body, "")
			if rec.Code != tt.want {
				t.Fatalf("ожидался %d, получен %d", tt.want, rec.Code)
			}
			body := decodeBody(t, rec)
			if tt.want == http.StatusOK {
				if tok, _ := body["token"].(string); tok == "" {
					t.Error("пустой token")
				}
			} else if body["message"] != "Unauthorized" {
				t.Errorf("message = %v, ожидалось Unauthorized", body["message"])
			}
		})
	}
}

func TestAdmin_RequiresToken(t *testing.T) {
	api := newTestAPI(t, 100)
	api.do(t, http.MethodPost, "/api/register", registration(1), "")

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/data"},
		{http.MethodGet, "/api/admin/download"},
		{http.MethodDelete, "/api/admin/clear-all"},
		{http.MethodPost, "/api/admin/sync-excel"},
	}
	for _, rt := range routes {
		if rec := api.do(t, rt.method, rt.path, nil, ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: ожидался 401, получен %d", rt.method, rt.path, rec.Code)
		}
	}

	recs, err := api.store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Errorf("запрос без токена изменил хранилище: %d записей", len(recs))
	}
}

func TestAdmin_DataDownloadClearSync(t *testing.T) {
	api := newTestAPI(t, 100)
	for i := 1; i <= 3; i++ {
		if rec := api.do(t, http.MethodPost, "/api/register", registration(i), ""); rec.Code != http.StatusCreated {
			t.Fatalf("регистрация %d: %d", i, rec.Code)
		}
	}
	token := api.login(t)

	// data — самые новые первыми
	rec := api.do(t, http.MethodGet, "/api/admin/data", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("data: %d", rec.Code)
	}
	var data dataResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.Count != 3 || len(data.Data) != 3 || data.Data[0].RegistrationNumber != "KARE3" {
		t.Errorf("data = %+v, ожидалось 3 записи, первая KARE3", data)
	}

	// download — порядок записи
	rec = api.do(t, http.MethodGet, "/api/admin/download", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("download: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != spreadsheet.ContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, downloadFileName) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	rows, err := spreadsheet.Read(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("spreadsheet.Read: %v", err)
	}
	if len(rows) != 3 || rows[0].RegistrationNumber != "KARE1" {
		t.Errorf("выгрузка: %d строк, первая %+v", len(rows), rows)
	}

	// sync-excel
	rec = api.do(t, http.MethodPost, "/api/admin/sync-excel", nil, token)
	var sync syncResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sync); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || !sync.Synced || sync.Count != 3 {
		t.Errorf("sync-excel: %d %+v", rec.Code, sync)
	}

	// clear-all дважды
	for i := 0; i < 2; i++ {
		rec = api.do(t, http.MethodDelete, "/api/admin/clear-all", nil, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("clear-all #%d: %d", i+1, rec.Code)
		}
	}
	rec = api.do(t, http.MethodGet, "/api/admin/data", nil, token)
	if body := decodeBody(t, rec); body["count"] != float64(0) {
		t.Errorf("после clear-all count = %v", body["count"])
	}
	if body := decodeBody(t, rec); body["data"] == nil {
		t.Error("data должен быть пустым массивом, а не null")
	}
}

func TestNotFound(t *testing.T) {
	api := newTestAPI(t, 100)

	for _, rt := range []struct{ method, path string }{
		{http.MethodGet, "/api/unknown"},
		{http.MethodGet, "/api/register"},
	} {
		rec := api.do(t, rt.method, rt.path, nil, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: ожидался 404, получен %d", rt.method, rt.path, rec.Code)
			continue
		}
		if body := decodeBody(t, rec); body["message"] != "Not found" {
			t.Errorf("message = %v", body["message"])
		}
	}
}

// brokenService — RegistrationService, у которого отказывает хранилище.
type brokenService struct{}

var errDisk = errors.New("open /var/lib/evr/registrations.json: input/output error")

func (brokenService) Register(context.Context, map[string]any) (model.Registration, error) {
	return model.Registration{}, fmt.Errorf("%w: %v", service.ErrStorage, errDisk)
}
func (brokenService) List(context.Context) ([]model.Registration, error) {
	return nil, errDisk
}
func (brokenService) Export(context.Context, io.Writer) (int, error) { return 0, errDisk }
func (brokenService) ClearAll(context.Context) error { return errDisk }
func (brokenService) SyncNow(context.Context) (bool, int, error) { return false, 0, errDisk }
func (brokenService) SlotsLeft(context.Context) (int, int, error) { return 0, 0, errDisk }

func TestStorageError_NoDetailsLeak(t *testing.T) {
	h := NewAPIHandler(NewHealthHandler(nil), brokenService{}, nil, testLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
	}{
		{"register", h.Register, `{"fullName":"x"}`},
		{"slots-left", h.SlotsLeft, ""},
		{"data", h.AdminData, ""},
		{"download", h.AdminDownload, ""},
		{"clear-all", h.AdminClearAll, ""},
		{"sync-excel", h.AdminSyncExcel, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("ожидался 500, получен %d", rec.Code)
			}
			if strings.Contains(rec.Body.String(), "/var/lib") {
				t.Errorf("в ответ попал путь: %s", rec.Body.String())
			}
			if body := decodeBody(t, rec); body["message"] != "Internal server error" {
				t.Errorf("message = %v", body["message"])
			}
		})
	}
}
