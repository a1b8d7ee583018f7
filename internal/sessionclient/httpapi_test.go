package sessionclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-app/internal/survey"
)

func TestNewHTTPClientNormalizesBaseURL(t *testing.T) {
	client := NewHTTPClient("  http://example.com:9090/  ", nil)
	assert.Equal(t, "http://example.com:9090", client.baseURL)

	client = NewHTTPClient("", nil)
	assert.Equal(t, "http://127.0.0.1:8080", client.baseURL)
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{StatusCode: 400, Message: "age is required"}
	assert.Equal(t, "age is required", err.Error())

	err = &APIError{StatusCode: 500}
	assert.Equal(t, "request failed with status 500", err.Error())
}

func TestCreateSessionAndConsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sessions":
			require.Equal(t, http.MethodPost, r.Method)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(sessionPayload{
				SessionID: "sess-1", Phase: survey.PhaseConsent, TotalTrials: 3,
			})
		case "/sessions/sess-1/consent":
			var request consentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
			assert.True(t, request.Agreed)
			assert.Equal(t, "ABC12345", request.ParticipantID)
			_ = json.NewEncoder(w).Encode(consentPayload{
				Phase: survey.PhaseDemographics, ParticipantID: "ABC12345",
			})
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.Client())

	session, err := client.CreateSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.SessionID)
	assert.Equal(t, survey.PhaseConsent, session.Phase)
	assert.Equal(t, 3, session.TotalTrials)

	consent, err := client.Consent(context.Background(), "sess-1", true, "ABC12345")
	require.NoError(t, err)
	assert.Equal(t, "ABC12345", consent.ParticipantID)
}

func TestSubmitRatingsOmitsUntouchedScores(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(ratingsPayload{Phase: survey.PhaseDone, Recorded: 1})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.Client())
	happy := 80
	payload, err := client.SubmitRatings(context.Background(), "sess-1", ratingsRequest{
		RatingHappy:    &happy,
		ResultEstimate: survey.ResultWon,
	})
	require.NoError(t, err)
	assert.Equal(t, survey.PhaseDone, payload.Phase)

	assert.Equal(t, float64(80), received["rating_happy"])
	assert.Equal(t, survey.ResultWon, received["result_estimate"])
	_, present := received["rating_angry"]
	assert.False(t, present, "untouched score should be omitted")
}

func TestDecodeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(errorPayload{Error: "operation not valid in current phase"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.Client())
	_, err := client.GetTrial(context.Background(), "sess-1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "operation not valid in current phase", apiErr.Message)
}

func TestUnreachableServerWrapsSentinel(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1", &http.Client{})
	_, err := client.CreateSession(context.Background())
	require.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestDownloadExport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/sess-1/export", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="survey_responses_ABC12345_20260102T030405Z.csv"`)
		_, _ = w.Write([]byte("study_id,participant_id\n"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.Client())
	var buf bytes.Buffer
	filename, err := client.DownloadExport(context.Background(), "sess-1", &buf)
	require.NoError(t, err)
	assert.Equal(t, "survey_responses_ABC12345_20260102T030405Z.csv", filename)
	assert.Equal(t, "study_id,participant_id\n", buf.String())
}

func TestPromptHelpers(t *testing.T) {
	t.Run("int falls back to zero on junk", func(t *testing.T) {
		reader := bufio.NewReader(strings.NewReader("abc\n"))
		value, err := promptInt(reader, &bytes.Buffer{}, "Age: ")
		require.NoError(t, err)
		assert.Equal(t, 0, value)
	})

	t.Run("optional int distinguishes blank", func(t *testing.T) {
		reader := bufio.NewReader(strings.NewReader("\n"))
		_, entered, err := promptOptionalInt(reader, &bytes.Buffer{}, "Score: ")
		require.NoError(t, err)
		assert.False(t, entered)

		reader = bufio.NewReader(strings.NewReader("nope\n42\n"))
		value, entered, err := promptOptionalInt(reader, &bytes.Buffer{}, "Score: ")
		require.NoError(t, err)
		assert.True(t, entered)
		assert.Equal(t, 42, value)
	})

	t.Run("result retries until recognised", func(t *testing.T) {
		reader := bufio.NewReader(strings.NewReader("maybe\nWON\n"))
		result, err := promptResult(reader, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, survey.ResultWon, result)
	})

	t.Run("yes no accepts short forms", func(t *testing.T) {
		reader := bufio.NewReader(strings.NewReader("huh\nn\n"))
		agreed, err := promptYesNo(reader, &bytes.Buffer{}, "Continue? ")
		require.NoError(t, err)
		assert.False(t, agreed)
	})
}
