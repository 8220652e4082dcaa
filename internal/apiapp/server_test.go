package apiapp

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/saif-almayahi/muroor/internal/export"
	"github.com/saif-almayahi/muroor/internal/gate"
	"github.com/saif-almayahi/muroor/internal/registry"
)

const testMasterPassword = "master-secret-code"

func newTestServer(t *testing.T) (*server, *httptest.Server) {
	t.Helper()
	s, err := newServer(Config{MasterPassword: testMasterPassword})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(s.handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, client *http.Client, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func newCookieJar(t *testing.T) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return jar
}

func gateResource(kind, id string) gate.Resource {
	return gate.Resource{Kind: gate.Kind(kind), ID: id}
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}
}

func TestListPrecincts(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/precincts")
	if err != nil {
		t.Fatalf("get precincts: %v", err)
	}
	var body struct {
		Precincts []string `json:"precincts"`
	}
	decodeBody(t, resp, &body)
	if len(body.Precincts) != len(registry.PrecinctNames) {
		t.Fatalf("expected %d precincts, got %d", len(registry.PrecinctNames), len(body.Precincts))
	}
}

func TestViolationsRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)
	precinct := url.PathEscape(registry.PrecinctNames[0])
	endpoint := ts.URL + "/api/precincts/" + precinct + "/violations"

	resp, err := http.Get(endpoint)
	if err != nil {
		t.Fatalf("get violations: %v", err)
	}
	var body struct {
		EntityName string                  `json:"entityName"`
		Violations []registry.ViolationRow `json:"violations"`
	}
	decodeBody(t, resp, &body)
	if len(body.Violations) != len(registry.ViolationNames) {
		t.Fatalf("expected %d rows, got %d", len(registry.ViolationNames), len(body.Violations))
	}

	body.Violations[0].MorningCount = 6
	body.Violations[0].MorningAmount = 150000
	payload, _ := json.Marshal(body.Violations)
	req, _ := http.NewRequest(http.MethodPut, endpoint, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put violations: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(endpoint)
	if err != nil {
		t.Fatalf("re-get violations: %v", err)
	}
	decodeBody(t, resp, &body)
	if body.Violations[0].MorningCount != 6 {
		t.Fatalf("expected saved counter, got %+v", body.Violations[0])
	}
}

func TestViolationsPutRejectsReorderedRows(t *testing.T) {
	_, ts := newTestServer(t)
	endpoint := ts.URL + "/api/precincts/" + url.PathEscape(registry.PrecinctNames[0]) + "/violations"

	rows := registry.ViolationTemplate(registry.ViolationNames)
	rows[0], rows[1] = rows[1], rows[0]
	payload, _ := json.Marshal(rows)
	req, _ := http.NewRequest(http.MethodPut, endpoint, bytes.NewReader(payload))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put violations: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestViolationsUnknownPrecinct(t *testing.T) {
	_, ts := newTestServer(t)
	endpoint := ts.URL + "/api/precincts/" + url.PathEscape("قاطع غير موجود") + "/violations"

	resp, err := http.Get(endpoint)
	if err != nil {
		t.Fatalf("get violations: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown precinct, got %d", resp.StatusCode)
	}

	payload, _ := json.Marshal(registry.ViolationTemplate(registry.ViolationNames))
	req, _ := http.NewRequest(http.MethodPut, endpoint, bytes.NewReader(payload))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put violations: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown precinct, got %d", resp.StatusCode)
	}
}

func TestCreateJudgment(t *testing.T) {
	_, ts := newTestServer(t)
	endpoint := ts.URL + "/api/precincts/" + url.PathEscape(registry.PrecinctNames[0]) + "/judgments"

	resp := postJSON(t, http.DefaultClient, endpoint, map[string]any{
		"decisionText": "غرامة مالية قدرها 250000 دينار",
		"violatorName": "أحمد جاسم",
		"fineAmount":   250000,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created registry.JudgmentDecision
	decodeBody(t, resp, &created)
	if created.ID == "" {
		t.Fatalf("expected assigned judgment id")
	}
	if created.ViolationDate == "" {
		t.Fatalf("expected defaulted violation date")
	}

	resp, err := http.Get(endpoint)
	if err != nil {
		t.Fatalf("get judgments: %v", err)
	}
	var body struct {
		Judgments []registry.JudgmentDecision `json:"judgments"`
	}
	decodeBody(t, resp, &body)
	if len(body.Judgments) != 1 || body.Judgments[0].ID != created.ID {
		t.Fatalf("expected stored judgment, got %+v", body.Judgments)
	}
}

func TestCreateJudgmentValidation(t *testing.T) {
	_, ts := newTestServer(t)
	endpoint := ts.URL + "/api/precincts/" + url.PathEscape(registry.PrecinctNames[0]) + "/judgments"
	resp := postJSON(t, http.DefaultClient, endpoint, map[string]any{"fineAmount": 500})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", resp.StatusCode)
	}
}

func TestTotalViolationsReportWithFilter(t *testing.T) {
	_, ts := newTestServer(t)
	parking := registry.ViolationNames[0]

	// Record counts in two precincts, then ask for a single-name report.
	for _, precinct := range registry.PrecinctNames[:2] {
		endpoint := ts.URL + "/api/precincts/" + url.PathEscape(precinct) + "/violations"
		rows := registry.ViolationTemplate(registry.ViolationNames)
		rows[0].MorningCount = 2
		payload, _ := json.Marshal(rows)
		req, _ := http.NewRequest(http.MethodPut, endpoint, bytes.NewReader(payload))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("put violations: %v", err)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/reports/total-violations?names=" + url.QueryEscape(parking))
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	var rep struct {
		Rows []struct {
			Name   string `json:"name"`
			Totals struct {
				TotalCount int `json:"totalCount"`
			} `json:"totals"`
		} `json:"rows"`
		GrandTotal struct {
			TotalCount int `json:"totalCount"`
		} `json:"grandTotal"`
	}
	decodeBody(t, resp, &rep)
	if len(rep.Rows) != 1 || rep.Rows[0].Name != parking {
		t.Fatalf("expected single filtered row, got %+v", rep.Rows)
	}
	if rep.Rows[0].Totals.TotalCount != 4 || rep.GrandTotal.TotalCount != 4 {
		t.Fatalf("expected cross-precinct sum 4, got %+v", rep)
	}
}

func TestAccidentsReportDateValidation(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/reports/accidents?start=2024-02-01&end=2024-01-01")
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for inverted range, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/reports/accidents?start=not-a-date&end=2024-01-01")
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", resp.StatusCode)
	}
}

func TestAccessFlow(t *testing.T) {
	s, ts := newTestServer(t)
	precinct := registry.PrecinctNames[0]

	// Unprotected precincts grant without a challenge.
	resp := postJSON(t, http.DefaultClient, ts.URL+"/api/access/request",
		map[string]string{"type": "precinct", "id": precinct})
	var decision struct {
		Granted   bool `json:"granted"`
		Challenge *struct {
			Title string `json:"title"`
		} `json:"challenge"`
	}
	decodeBody(t, resp, &decision)
	if !decision.Granted {
		t.Fatalf("expected outright grant for unprotected precinct")
	}

	s.mu.Lock()
	err := s.gate.SetSecret(gateResource("precinct", precinct), "1234")
	s.mu.Unlock()
	if err != nil {
		t.Fatalf("set secret: %v", err)
	}

	resp = postJSON(t, http.DefaultClient, ts.URL+"/api/access/request",
		map[string]string{"type": "precinct", "id": precinct})
	decodeBody(t, resp, &decision)
	if decision.Granted || decision.Challenge == nil {
		t.Fatalf("expected challenge, got %+v", decision)
	}

	resp = postJSON(t, http.DefaultClient, ts.URL+"/api/access/submit", map[string]string{"password": "0000"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong code, got %d", resp.StatusCode)
	}

	resp = postJSON(t, http.DefaultClient, ts.URL+"/api/access/submit", map[string]string{"password": "1234"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for correct code, got %d", resp.StatusCode)
	}
}

func TestAdminEndpointsRequireSession(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/admin/passwords")
	if err != nil {
		t.Fatalf("get passwords: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", resp.StatusCode)
	}
}

func loginClient(t *testing.T, ts *httptest.Server) (*http.Client, string) {
	t.Helper()
	jar := newCookieJar(t)
	client := &http.Client{Jar: jar}

	resp := postJSON(t, client, ts.URL+"/api/auth/login", map[string]string{"password": testMasterPassword})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login to succeed, got %d", resp.StatusCode)
	}

	resp, err := client.Get(ts.URL + "/api/auth/csrf")
	if err != nil {
		t.Fatalf("get csrf: %v", err)
	}
	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	decodeBody(t, resp, &body)
	if body.CSRFToken == "" {
		t.Fatalf("expected csrf token")
	}
	return client, body.CSRFToken
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	_, ts := newTestServer(t)
	resp := postJSON(t, http.DefaultClient, ts.URL+"/api/auth/login", map[string]string{"password": "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPasswordAdministration(t *testing.T) {
	_, ts := newTestServer(t)
	client, csrf := loginClient(t, ts)
	precinct := registry.PrecinctNames[0]

	payload, _ := json.Marshal(map[string]any{
		"precincts": map[string]string{precinct: "4567"},
	})
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/admin/passwords", bytes.NewReader(payload))
	req.Header.Set(csrfHeaderName, csrf)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("put passwords: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = client.Get(ts.URL + "/api/admin/passwords")
	if err != nil {
		t.Fatalf("get passwords: %v", err)
	}
	var body struct {
		Master    bool            `json:"master"`
		Precincts map[string]bool `json:"precincts"`
	}
	decodeBody(t, resp, &body)
	if !body.Master {
		t.Fatalf("expected master protection flag")
	}
	if !body.Precincts[precinct] {
		t.Fatalf("expected %s to be protected", precinct)
	}

	// Mutations without the csrf header are refused.
	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/api/admin/passwords", bytes.NewReader(payload))
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("put passwords: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf header, got %d", resp.StatusCode)
	}
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)
	client, csrf := loginClient(t, ts)
	precinct := url.PathEscape(registry.PrecinctNames[0])

	rows := registry.ViolationTemplate(registry.ViolationNames)
	rows[0].EveningCount = 8
	payload, _ := json.Marshal(rows)
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/precincts/"+precinct+"/violations", bytes.NewReader(payload))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("put violations: %v", err)
	}
	resp.Body.Close()

	resp, err = client.Get(ts.URL + "/api/admin/backup")
	if err != nil {
		t.Fatalf("get backup: %v", err)
	}
	backup := new(bytes.Buffer)
	if _, err := backup.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read backup: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// Wipe the counter, then restore from the downloaded snapshot.
	payload, _ = json.Marshal(registry.ViolationTemplate(registry.ViolationNames))
	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/api/precincts/"+precinct+"/violations", bytes.NewReader(payload))
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("reset violations: %v", err)
	}
	resp.Body.Close()

	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/api/admin/restore", backup)
	req.Header.Set(csrfHeaderName, csrf)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("post restore: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = client.Get(ts.URL + "/api/precincts/" + precinct + "/violations")
	if err != nil {
		t.Fatalf("get violations: %v", err)
	}
	var body struct {
		Violations []registry.ViolationRow `json:"violations"`
	}
	decodeBody(t, resp, &body)
	if body.Violations[0].EveningCount != 8 {
		t.Fatalf("expected restored counter, got %+v", body.Violations[0])
	}
}

func TestExportWorkbookEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/export/total-violations")
	if err != nil {
		t.Fatalf("get export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("expected xlsx content type, got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "total_violations_report.xlsx") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
}

func TestExportUnknownReport(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/export/nonsense")
	if err != nil {
		t.Fatalf("get export: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestImportViolationSheet(t *testing.T) {
	_, ts := newTestServer(t)
	parking := registry.ViolationNames[0]

	sheet, err := export.Workbook(export.Table{
		Name:    "المخالفات",
		Headers: []string{"اسم المخالفة", "صباحي", "مسائي", "مبلغ صباحي", "مبلغ مسائي"},
		Rows:    [][]any{{parking, 5, 2, 125000, 50000}},
	})
	if err != nil {
		t.Fatalf("build sheet: %v", err)
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("sheet", "upload.xlsx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(sheet.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	writer.Close()

	endpoint := ts.URL + "/api/precincts/" + url.PathEscape(registry.PrecinctNames[0]) + "/violations/import"
	resp, err := http.Post(endpoint, writer.FormDataContentType(), &form)
	if err != nil {
		t.Fatalf("post import: %v", err)
	}
	var body struct {
		Violations []registry.ViolationRow `json:"violations"`
	}
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body.Violations[0].MorningCount != 5 || body.Violations[0].EveningAmount != 50000 {
		t.Fatalf("expected imported counters, got %+v", body.Violations[0])
	}
}

func TestPhotoUpload(t *testing.T) {
	_, ts := newTestServer(t)

	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("photo", "evidence.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(encoded.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	writer.Close()

	resp, err := http.Post(ts.URL+"/api/photos", writer.FormDataContentType(), &form)
	if err != nil {
		t.Fatalf("post photo: %v", err)
	}
	var body struct {
		PhotoDataURI string `json:"photoDataUri"`
	}
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(body.PhotoDataURI, "data:image/png;base64,") {
		t.Fatalf("expected png data uri, got prefix %q", firstN(body.PhotoDataURI, 30))
	}
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func TestRegistrySummary(t *testing.T) {
	_, ts := newTestServer(t)

	rows := make([]registry.VehicleRegistryRow, 0, len(registry.VehicleTypes))
	for i, vt := range registry.VehicleTypes {
		rows = append(rows, registry.VehicleRegistryRow{Type: vt, Start: 10 * (i + 1)})
	}
	payload, _ := json.Marshal(rows)
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/registry/vehicles", bytes.NewReader(payload))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put vehicles: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/registry/summary")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	var body struct {
		VehicleTotals struct {
			Start int `json:"start"`
			End   int `json:"end"`
		} `json:"vehicleTotals"`
	}
	decodeBody(t, resp, &body)
	want := 0
	for i := range registry.VehicleTypes {
		want += 10 * (i + 1)
	}
	if body.VehicleTotals.Start != want || body.VehicleTotals.End != want {
		t.Fatalf("expected vehicle start %d, got %+v", want, body.VehicleTotals)
	}
}
