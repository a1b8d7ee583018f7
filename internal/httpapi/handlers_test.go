package httpapi

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"survey-app/internal/survey"
)

type failingSink struct{}

func (failingSink) AppendResponse(_ context.Context, _ survey.ResponseRecord) error {
	return errors.New("sheet unreachable")
}

func testCatalog(t *testing.T, names ...string) []survey.CatalogEntry {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
			t.Fatalf("writing %s failed: %v", name, err)
		}
	}
	catalog, err := survey.LoadCatalog(dir, 0)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	return catalog
}

func newTestRouter(t *testing.T, sinks []survey.RecordSink, names ...string) http.Handler {
	t.Helper()
	settings := survey.Settings{
		StudyID:   "test_study",
		Exposure:  time.Millisecond,
		RatingMin: 0,
		RatingMax: 100,
	}
	service, err := survey.NewService(testCatalog(t, names...), settings, sinks, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return NewRouter(service)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request failed: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var payload T
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response failed: %v (body %q)", err, recorder.Body.String())
	}
	return payload
}

func createSession(t *testing.T, handler http.Handler) string {
	t.Helper()
	recorder := doJSON(t, handler, http.MethodPost, "/sessions", nil)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body %q", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody[sessionResponse](t, recorder)
	if payload.SessionID == "" || payload.Phase != survey.PhaseConsent {
		t.Fatalf("unexpected create session payload: %+v", payload)
	}
	return payload.SessionID
}

func consentAndDemographics(t *testing.T, handler http.Handler, sessionID string) {
	t.Helper()

	recorder := doJSON(t, handler, http.MethodPost, "/sessions/"+sessionID+"/consent",
		consentRequest{Agreed: true, ParticipantID: "ABC12345"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("consent status = %d, body %q", recorder.Code, recorder.Body.String())
	}

	recorder = doJSON(t, handler, http.MethodPost, "/sessions/"+sessionID+"/demographics",
		demographicsRequest{Name: "Ann", Age: 30, Gender: "Female", Nationality: "USA"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("demographics status = %d, body %q", recorder.Code, recorder.Body.String())
	}
}

func waitForRate(t *testing.T, handler http.Handler, sessionID string) trialResponse {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		recorder := doJSON(t, handler, http.MethodGet, "/sessions/"+sessionID+"/trial", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("trial status = %d, body %q", recorder.Code, recorder.Body.String())
		}
		trial := decodeBody[trialResponse](t, recorder)
		if trial.Phase == survey.PhaseRate {
			return trial
		}
		if time.Now().After(deadline) {
			t.Fatalf("trial never reached rate phase: %+v", trial)
		}
		time.Sleep(time.Millisecond)
	}
}

func ratingsBody(result string) ratingsRequest {
	ten := 10
	return ratingsRequest{
		RatingAngry:    &ten,
		ResultEstimate: result,
	}
}

func TestSessionNotFound(t *testing.T) {
	handler := newTestRouter(t, nil, "a.png")
	recorder := doJSON(t, handler, http.MethodGet, "/sessions/missing", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(t, nil, "a.png")
	recorder := doJSON(t, handler, http.MethodGet, "/sessions", nil)
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", recorder.Code)
	}
	if recorder.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("Allow header = %q", recorder.Header().Get("Allow"))
	}
}

func TestConsentRequiredToAdvance(t *testing.T) {
	handler := newTestRouter(t, nil, "a.png")
	sessionID := createSession(t, handler)

	recorder := doJSON(t, handler, http.MethodPost, "/sessions/"+sessionID+"/consent",
		consentRequest{Agreed: false})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}

	// Still in consent, so demographics is a phase violation.
	recorder = doJSON(t, handler, http.MethodPost, "/sessions/"+sessionID+"/demographics",
		demographicsRequest{Name: "Ann", Age: 30, Gender: "Female", Nationality: "USA"})
	if recorder.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", recorder.Code)
	}
}

func TestDemographicsValidation(t *testing.T) {
	handler := newTestRouter(t, nil, "a.png")
	sessionID := createSession(t, handler)

	recorder := doJSON(t, handler, http.MethodPost, "/sessions/"+sessionID+"/consent",
		consentRequest{Agreed: true})
	if recorder.Code != http.StatusOK {
		t.Fatalf("consent status = %d", recorder.Code)
	}
	consent := decodeBody[consentResponse](t, recorder)
	if consent.ParticipantID == "" {
		t.Fatalf("no participant id generated: %+v", consent)
	}

	recorder = doJSON(t, handler, http.MethodPost, "/sessions/"+sessionID+"/demographics",
		demographicsRequest{Name: "Ann", Age: 0, Gender: "Female", Nationality: "USA"})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("zero age status = %d, want 400", recorder.Code)
	}

	recorder = doJSON(t, handler, http.MethodGet, "/sessions/"+sessionID, nil)
	session := decodeBody[sessionResponse](t, recorder)
	if session.Phase != survey.PhaseDemographics {
		t.Fatalf("phase = %q after rejected demographics", session.Phase)
	}
}

func TestRatingsRequireResult(t *testing.T) {
	handler := newTestRouter(t, nil, "a.png")
	sessionID := createSession(t, handler)
	consentAndDemographics(t, handler, sessionID)
	waitForRate(t, handler, sessionID)

	recorder := doJSON(t, handler, http.MethodPost, "/sessions/"+sessionID+"/ratings",
		ratingsBody(""))
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestFullSurveyFlow(t *testing.T) {
	handler := newTestRouter(t, nil, "a.png", "b.png", "c.png")
	sessionID := createSession(t, handler)
	consentAndDemographics(t, handler, sessionID)

	results := []string{survey.ResultWon, survey.ResultLost, survey.ResultUnsure}
	for i := 0; i < 3; i++ {
		trial := waitForRate(t, handler, sessionID)
		if trial.OrderIndex != i+1 {
			t.Fatalf("trial %d: order_index = %d", i+1, trial.OrderIndex)
		}
		if trial.ImageFile == "" {
			t.Fatalf("trial %d: empty image_file", i+1)
		}

		recorder := doJSON(t, handler, http.MethodPost, "/sessions/"+sessionID+"/ratings",
			ratingsBody(results[i]))
		if recorder.Code != http.StatusOK {
			t.Fatalf("trial %d: ratings status = %d, body %q", i+1, recorder.Code, recorder.Body.String())
		}
		payload := decodeBody[ratingsResponse](t, recorder)
		if payload.Recorded != i+1 {
			t.Fatalf("trial %d: recorded = %d", i+1, payload.Recorded)
		}
		wantPhase := survey.PhaseShow
		if i == 2 {
			wantPhase = survey.PhaseDone
		}
		if payload.Phase != wantPhase {
			t.Fatalf("trial %d: phase = %q, want %q", i+1, payload.Phase, wantPhase)
		}
	}

	recorder := doJSON(t, handler, http.MethodGet, "/sessions/"+sessionID+"/responses", nil)
	responses := decodeBody[responsesResponse](t, recorder)
	if responses.Count != 3 || len(responses.Responses) != 3 {
		t.Fatalf("responses = %+v, want 3 records", responses)
	}
	for idx, record := range responses.Responses {
		if record.OrderIndex != idx+1 {
			t.Fatalf("responses[%d].OrderIndex = %d", idx, record.OrderIndex)
		}
		if record.ResultEstimate != results[idx] {
			t.Fatalf("responses[%d].ResultEstimate = %q, want %q", idx, record.ResultEstimate, results[idx])
		}
		// Untouched controls take the default score.
		if record.RatingHappy != 0 || record.RatingAngry != 10 {
			t.Fatalf("responses[%d] ratings = %+v", idx, record)
		}
	}

	recorder = doJSON(t, handler, http.MethodGet, "/sessions/"+sessionID+"/export", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("export status = %d", recorder.Code)
	}
	if got := recorder.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("export content type = %q", got)
	}
	if got := recorder.Header().Get("Content-Disposition"); !strings.Contains(got, "survey_responses_ABC12345_") {
		t.Fatalf("export disposition = %q", got)
	}

	rows, err := csv.NewReader(recorder.Body).ReadAll()
	if err != nil {
		t.Fatalf("reading export failed: %v", err)
	}
	if len(rows) != 4 || len(rows[0]) != 21 {
		t.Fatalf("export shape = %dx%d, want 4x21", len(rows), len(rows[0]))
	}
}

func TestExportBeforeDoneConflicts(t *testing.T) {
	handler := newTestRouter(t, nil, "a.png")
	sessionID := createSession(t, handler)

	recorder := doJSON(t, handler, http.MethodGet, "/sessions/"+sessionID+"/export", nil)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", recorder.Code)
	}
}

func TestFailingSinkSurfacesWarningOnly(t *testing.T) {
	handler := newTestRouter(t, []survey.RecordSink{failingSink{}}, "a.png")
	sessionID := createSession(t, handler)
	consentAndDemographics(t, handler, sessionID)
	waitForRate(t, handler, sessionID)

	recorder := doJSON(t, handler, http.MethodPost, "/sessions/"+sessionID+"/ratings",
		ratingsBody(survey.ResultWon))
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d with failing sink, want 200", recorder.Code)
	}
	payload := decodeBody[ratingsResponse](t, recorder)
	if payload.Phase != survey.PhaseDone || payload.Recorded != 1 {
		t.Fatalf("payload = %+v, want done with one record", payload)
	}
	if len(payload.Warnings) != 1 || !strings.Contains(payload.Warnings[0], "persistence failed") {
		t.Fatalf("warnings = %v", payload.Warnings)
	}
}

func TestTrialImageServesCurrentImage(t *testing.T) {
	handler := newTestRouter(t, nil, "a.png")
	sessionID := createSession(t, handler)
	consentAndDemographics(t, handler, sessionID)

	recorder := doJSON(t, handler, http.MethodGet, "/sessions/"+sessionID+"/trial/image", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("image status = %d", recorder.Code)
	}
	if recorder.Body.String() != "img" {
		t.Fatalf("image body = %q", recorder.Body.String())
	}
}
