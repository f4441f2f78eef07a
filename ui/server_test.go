package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"gosynergy/app"
	"gosynergy/internal"
	"gosynergy/internal/config"
	"gosynergy/internal/engine"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", GinMode: gin.TestMode},
		Analysis: config.AnalysisConfig{
			ConfidenceLevel:  0.95,
			PolynomialDegree: 2,
			MaxFitIterations: 5000,
		},
		Export: config.ExportConfig{FloatPrecision: 4},
	}
	log := internal.NewDefaultLogger()
	analyzer := engine.NewAnalyzer(cfg.Analysis, log)
	service := app.NewExperimentService(analyzer, nil, log)
	batch := app.NewBatchRunner(service, 2, log)
	return NewServer(cfg, service, batch, log)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return body
}

func createTestExperiment(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/experiments", gin.H{
		"additive_a":       "AO-1",
		"additive_b":       "ZDDP",
		"unit":             "wt%",
		"effect_parameter": "induction_time",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create experiment: status %d, body %s", w.Code, w.Body.String())
	}
	id, _ := decodeBody(t, w)["id"].(string)
	if id == "" {
		t.Fatal("create response has no id")
	}
	return id
}

func putTestConditions(t *testing.T, router *gin.Engine, id string) {
	t.Helper()
	for _, c := range []struct {
		key    string
		a, b   float64
		values []float64
	}{
		{"base", 0, 0, []float64{10, 11, 10.5}},
		{"additive_a", 1, 0, []float64{15, 16, 15.5}},
		{"additive_b", 0, 1, []float64{20, 21, 20.5}},
		{"combination_1", 1, 1, []float64{30, 31, 30.5}},
	} {
		path := fmt.Sprintf("/api/experiments/%s/conditions/%s", id, c.key)
		w := doJSON(t, router, http.MethodPut, path, gin.H{
			"amount_a": c.a, "amount_b": c.b, "values": c.values,
		})
		if w.Code != http.StatusNoContent {
			t.Fatalf("put condition %s: status %d, body %s", c.key, w.Code, w.Body.String())
		}
	}
}

func TestHealth(t *testing.T) {
	router := testServer(t).Router()
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestExperimentLifecycle(t *testing.T) {
	router := testServer(t).Router()
	id := createTestExperiment(t, router)
	putTestConditions(t, router, id)

	w := doJSON(t, router, http.MethodGet, "/api/experiments/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get experiment: status %d", w.Code)
	}
	body := decodeBody(t, w)
	conditions, _ := body["conditions"].(map[string]interface{})
	if len(conditions) != 4 {
		t.Errorf("got %d conditions, want 4", len(conditions))
	}
	if body["has_result"] != false {
		t.Error("has_result should be false before analysis")
	}

	w = doJSON(t, router, http.MethodPost, "/api/experiments/"+id+"/analyze", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("analyze: status %d, body %s", w.Code, w.Body.String())
	}
	result := decodeBody(t, w)
	if _, ok := result["synergy_results"]; !ok {
		t.Error("analysis response missing synergy_results")
	}

	w = doJSON(t, router, http.MethodGet, "/api/experiments/"+id+"/result", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get result: status %d", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/experiments/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/experiments/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", w.Code)
	}
}

func TestCreateExperiment_BadRequest(t *testing.T) {
	router := testServer(t).Router()

	w := doJSON(t, router, http.MethodPost, "/api/experiments", gin.H{"additive_a": "AO-1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing fields: status %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/experiments", gin.H{
		"additive_a":       "AO-1",
		"additive_b":       "ao-1",
		"unit":             "wt%",
		"effect_parameter": "induction_time",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate additives: status %d, want 400", w.Code)
	}
}

func TestUpsertCondition_Errors(t *testing.T) {
	router := testServer(t).Router()
	id := createTestExperiment(t, router)

	w := doJSON(t, router, http.MethodPut, "/api/experiments/"+id+"/conditions/control", gin.H{
		"amount_a": 0.0, "amount_b": 0.0, "values": []float64{10},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown key: status %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPut, "/api/experiments/missing/conditions/base", gin.H{
		"amount_a": 0.0, "amount_b": 0.0, "values": []float64{10},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing experiment: status %d, want 404", w.Code)
	}
}

func TestAnalyze_IncompleteSet(t *testing.T) {
	router := testServer(t).Router()
	id := createTestExperiment(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/experiments/"+id+"/analyze", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status %d, want 422", w.Code)
	}
}

func TestReportAndExports(t *testing.T) {
	router := testServer(t).Router()
	id := createTestExperiment(t, router)
	putTestConditions(t, router, id)

	if w := doJSON(t, router, http.MethodPost, "/api/experiments/"+id+"/analyze", nil); w.Code != http.StatusOK {
		t.Fatalf("analyze: status %d", w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/experiments/"+id+"/report", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("report: status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "AO-1") {
		t.Error("markdown report should name additive A")
	}

	w = doJSON(t, router, http.MethodGet, "/api/experiments/"+id+"/report?format=html", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("html report: status %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("html report content type = %q", w.Header().Get("Content-Type"))
	}

	w = doJSON(t, router, http.MethodGet, "/api/experiments/"+id+"/export/csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("csv export: status %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".csv") {
		t.Errorf("csv disposition = %q", w.Header().Get("Content-Disposition"))
	}
	if !strings.Contains(w.Body.String(), "combination_1") {
		t.Error("csv export should list the combination row")
	}

	w = doJSON(t, router, http.MethodGet, "/api/experiments/"+id+"/export/xlsx", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("xlsx export: status %d", w.Code)
	}
	if len(w.Body.Bytes()) == 0 {
		t.Error("xlsx export should have a body")
	}
}

func TestBatchAnalyze(t *testing.T) {
	router := testServer(t).Router()
	id := createTestExperiment(t, router)
	putTestConditions(t, router, id)

	w := doJSON(t, router, http.MethodPost, "/api/analyze/batch", gin.H{
		"experiment_ids": []string{id},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("batch: status %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	outcomes, _ := body["outcomes"].([]interface{})
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	outcome, _ := outcomes[0].(map[string]interface{})
	if _, ok := outcome["summary"]; !ok {
		t.Errorf("outcome missing summary: %v", outcome)
	}

	w = doJSON(t, router, http.MethodPost, "/api/analyze/batch", gin.H{
		"experiment_ids": []string{"   "},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank id: status %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/analyze/batch", gin.H{
		"experiment_ids": []string{"unknown-experiment"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("unknown id: status %d", w.Code)
	}
	body = decodeBody(t, w)
	outcomes, _ = body["outcomes"].([]interface{})
	outcome, _ = outcomes[0].(map[string]interface{})
	if _, ok := outcome["error"]; !ok {
		t.Errorf("unknown experiment should carry an error: %v", outcome)
	}
}

func TestImportConditions(t *testing.T) {
	router := testServer(t).Router()
	id := createTestExperiment(t, router)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "data.csv")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	_, _ = part.Write([]byte(`condition,amount_a,amount_b,value
base,0,0,10
base,0,0,11
additive_a,1,0,15
additive_b,0,1,20
combination_1,1,1,30
`))
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/experiments/"+id+"/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("import: status %d, body %s", w.Code, w.Body.String())
	}
	if got := decodeBody(t, w)["conditions_imported"]; got != float64(4) {
		t.Errorf("conditions_imported = %v, want 4", got)
	}

	if w := doJSON(t, router, http.MethodPost, "/api/experiments/"+id+"/analyze", nil); w.Code != http.StatusOK {
		t.Errorf("analyze after import: status %d, body %s", w.Code, w.Body.String())
	}
}

func TestCatalogEndpoints(t *testing.T) {
	router := testServer(t).Router()

	w := doJSON(t, router, http.MethodGet, "/api/catalog/parameters", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("parameters: status %d", w.Code)
	}
	params, _ := decodeBody(t, w)["parameters"].([]interface{})
	if len(params) == 0 {
		t.Error("parameter catalog should not be empty")
	}

	w = doJSON(t, router, http.MethodGet, "/api/catalog/units", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("units: status %d", w.Code)
	}
	units, _ := decodeBody(t, w)["units"].([]interface{})
	if len(units) == 0 {
		t.Error("unit catalog should not be empty")
	}
}
