package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/JustJay7/kanzlei/internal/balance"
	"github.com/JustJay7/kanzlei/internal/cache"
	"github.com/JustJay7/kanzlei/internal/config"
	"github.com/JustJay7/kanzlei/internal/database"
	"github.com/JustJay7/kanzlei/internal/storage"
	"github.com/JustJay7/kanzlei/pkg/logger"
	"github.com/gin-gonic/gin"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "api_test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	cfg := &config.Config{AktenzeichenStart: 1}
	router := gin.New()
	SetupRoutes(router, db, cache.NewCache(100, time.Minute), files, logger.NewNop(), cfg)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeObject(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(t, router, "GET", "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeObject(t, w)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["database"] != true {
		t.Errorf("Expected database true, got %v", response["database"])
	}
}

func TestCacheStats(t *testing.T) {
	router := setupTestRouter(t)

	doRequest(t, router, "GET", "/api/mandanten", nil)
	doRequest(t, router, "GET", "/api/mandanten", nil)

	w := doRequest(t, router, "GET", "/api/cache/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	stats, ok := decodeObject(t, w)["stats"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected stats object, got %s", w.Body.String())
	}
	if stats["hits"] != float64(1) || stats["misses"] != float64(1) {
		t.Errorf("Expected 1 hit and 1 miss, got %v", stats)
	}
}

func TestCRUDRoundTrip(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(t, router, "POST", "/api/mandanten", map[string]interface{}{
		"name":    "Muster GmbH",
		"strasse": "Hauptstraße 1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	created := decodeObject(t, w)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("Expected generated id")
	}

	w = doRequest(t, router, "GET", "/api/mandanten/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	got := decodeObject(t, w)
	if got["name"] != "Muster GmbH" || got["strasse"] != "Hauptstraße 1" {
		t.Errorf("Unexpected record: %v", got)
	}

	w = doRequest(t, router, "PUT", "/api/mandanten/"+id, map[string]interface{}{"name": "Muster AG", "strasse": "Ring 5"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if updated := decodeObject(t, w); updated["name"] != "Muster AG" || updated["strasse"] != "Ring 5" {
		t.Errorf("Unexpected updated record: %v", updated)
	}

	w = doRequest(t, router, "GET", "/api/mandanten", nil)
	var list []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(list) != 1 || list[0]["name"] != "Muster AG" {
		t.Errorf("Expected updated record in list, got %v", list)
	}
}

func TestListEmptyIsArray(t *testing.T) {
	router := setupTestRouter(t)

	for _, path := range []string{"/api/mandanten", "/api/dritte-beteiligte", "/api/records", "/api/einstellungen"} {
		w := doRequest(t, router, "GET", path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusOK, w.Code)
		}
		if body := bytes.TrimSpace(w.Body.Bytes()); string(body) != "[]" {
			t.Errorf("%s: expected empty array, got %s", path, body)
		}
	}
}

func TestDelete(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(t, router, "DELETE", "/api/dritte-beteiligte/gibt-es-nicht", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d for unknown id, got %d", http.StatusNotFound, w.Code)
	}

	w = doRequest(t, router, "POST", "/api/dritte-beteiligte", map[string]interface{}{"name": "Versicherung AG"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	id := decodeObject(t, w)["id"].(string)

	w = doRequest(t, router, "DELETE", "/api/dritte-beteiligte/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status %d, got %d", http.StatusNoContent, w.Code)
	}

	w = doRequest(t, router, "GET", "/api/dritte-beteiligte/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d after delete, got %d", http.StatusNotFound, w.Code)
	}
}

func TestBadRequests(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		{name: "array body", method: "POST", path: "/api/einstellungen", body: `[1,2]`, wantStatus: http.StatusBadRequest},
		{name: "null body", method: "POST", path: "/api/einstellungen", body: `null`, wantStatus: http.StatusBadRequest},
		{name: "broken json", method: "POST", path: "/api/einstellungen", body: `{"a":`, wantStatus: http.StatusBadRequest},
		{name: "unknown column", method: "POST", path: "/api/einstellungen", body: map[string]interface{}{"gibt_es_nicht": 1}, wantStatus: http.StatusInternalServerError},
		{name: "malformed aktenzeichen", method: "POST", path: "/api/records", body: map[string]interface{}{"aktenzeichen": "AZ 1/25"}, wantStatus: http.StatusBadRequest},
		{name: "unknown record", method: "PUT", path: "/api/records/fehlt", body: map[string]interface{}{"status": "offen"}, wantStatus: http.StatusNotFound},
		{name: "notes of unknown record", method: "GET", path: "/api/records/fehlt/notes", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if _, ok := decodeObject(t, w)["error"]; !ok {
				t.Errorf("Expected error field in %s", w.Body.String())
			}
		})
	}
}

func TestRecordsAndBalance(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(t, router, "GET", "/api/aktenzeichen/next", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	want := "1." + time.Now().Format("06") + ".awr"
	if az := decodeObject(t, w)["aktenzeichen"]; az != want {
		t.Errorf("Expected next aktenzeichen %s, got %v", want, az)
	}

	w = doRequest(t, router, "POST", "/api/records", map[string]interface{}{
		"metadaten": map[string]interface{}{"gericht": "LG Bonn"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	record := decodeObject(t, w)
	id := record["id"].(string)
	if record["aktenzeichen"] != want {
		t.Errorf("Expected aktenzeichen %s, got %v", want, record["aktenzeichen"])
	}

	w = doRequest(t, router, "POST", "/api/records/"+id+"/documents", map[string]interface{}{
		"dateiname":    "rechnung.pdf",
		"betrag_soll":  "100,00",
		"betrag_haben": 40,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	w = doRequest(t, router, "POST", "/api/records/"+id+"/notes", map[string]interface{}{
		"titel":        "Zahlung erhalten",
		"betrag_haben": "60",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	w = doRequest(t, router, "GET", "/api/records/"+id+"/balance", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	summary := decodeObject(t, w)
	if summary["saldo"] != float64(0) || summary["status"] != balance.StatusGedeckt {
		t.Errorf("Expected saldo 0 Gedeckt, got %v", summary)
	}
}

func TestTaskRoutes(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(t, router, "POST", "/api/records", map[string]interface{}{})
	id := decodeObject(t, w)["id"].(string)

	w = doRequest(t, router, "POST", "/api/records/"+id+"/notes", map[string]interface{}{
		"titel":      "Berufung einlegen",
		"typ":        "frist",
		"faellig_am": "2025-07-01",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	noteID := decodeObject(t, w)["id"].(string)

	w = doRequest(t, router, "POST", "/api/records/"+id+"/notes", map[string]interface{}{"faellig_am": "morgen"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for bad date, got %d", http.StatusBadRequest, w.Code)
	}

	w = doRequest(t, router, "POST", "/api/records/"+id+"/tasks/"+noteID+"/complete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if done := decodeObject(t, w)["erledigt"]; done != true {
		t.Errorf("Expected erledigt true, got %v", done)
	}

	w = doRequest(t, router, "PUT", "/api/records/"+id+"/notes/"+noteID, map[string]interface{}{"titel": "Berufung begründen"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	w = doRequest(t, router, "GET", "/api/records/"+id+"/tasks", nil)
	var tasks []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &tasks)
	if len(tasks) != 1 || tasks[0]["titel"] != "Berufung begründen" {
		t.Errorf("Unexpected tasks: %v", tasks)
	}

	w = doRequest(t, router, "DELETE", "/api/records/"+id+"/notes/"+noteID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status %d, got %d", http.StatusNoContent, w.Code)
	}
}

func TestDeleteMandantWithOpenAkte(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(t, router, "POST", "/api/mandanten", map[string]interface{}{"name": "Erika Mustermann"})
	mid := decodeObject(t, w)["id"].(string)

	w = doRequest(t, router, "POST", "/api/records", map[string]interface{}{"mandanten_id": mid})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	aid := decodeObject(t, w)["id"].(string)

	w = doRequest(t, router, "DELETE", "/api/mandanten/"+mid, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusConflict, w.Code, w.Body.String())
	}

	w = doRequest(t, router, "PUT", "/api/records/"+aid, map[string]interface{}{"status": "geschlossen"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	w = doRequest(t, router, "DELETE", "/api/mandanten/"+mid, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status %d after closing the case, got %d: %s", http.StatusNoContent, w.Code, w.Body.String())
	}
}
