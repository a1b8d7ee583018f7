package sessionclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

var ErrServiceUnavailable = errors.New("survey service unavailable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

type sessionPayload struct {
	SessionID     string `json:"session_id"`
	Phase         string `json:"phase"`
	ParticipantID string `json:"participant_id"`
	Completed     int    `json:"completed"`
	TotalTrials   int    `json:"total_trials"`
}

type consentRequest struct {
	Agreed        bool   `json:"agreed"`
	ParticipantID string `json:"participant_id,omitempty"`
}

type consentPayload struct {
	Phase               string `json:"phase"`
	ParticipantID       string `json:"participant_id"`
	ConsentTimestampISO string `json:"consent_timestamp_iso"`
}

type demographicsRequest struct {
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Nationality string `json:"nationality"`
}

type trialPayload struct {
	Phase       string `json:"phase"`
	OrderIndex  int    `json:"order_index"`
	TotalTrials int    `json:"total_trials"`
	ImageFile   string `json:"image_file"`
	RemainingMS int64  `json:"remaining_ms"`
}

// Omitted rating fields take the server-side default score.
type ratingsRequest struct {
	RatingAngry     *int   `json:"rating_angry,omitempty"`
	RatingHappy     *int   `json:"rating_happy,omitempty"`
	RatingSad       *int   `json:"rating_sad,omitempty"`
	RatingScared    *int   `json:"rating_scared,omitempty"`
	RatingSurprised *int   `json:"rating_surprised,omitempty"`
	RatingNeutral   *int   `json:"rating_neutral,omitempty"`
	RatingDisgusted *int   `json:"rating_disgusted,omitempty"`
	RatingContempt  *int   `json:"rating_contempt,omitempty"`
	ResultEstimate  string `json:"result_estimate"`
}

type ratingsPayload struct {
	Phase      string   `json:"phase"`
	OrderIndex int      `json:"order_index"`
	Recorded   int      `json:"recorded"`
	Warnings   []string `json:"warnings"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) CreateSession(ctx context.Context) (sessionPayload, error) {
	var payload sessionPayload
	if err := c.doJSON(ctx, http.MethodPost, "/sessions", nil, &payload); err != nil {
		return sessionPayload{}, err
	}
	return payload, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, sessionID string) (sessionPayload, error) {
	var payload sessionPayload
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID), nil, &payload); err != nil {
		return sessionPayload{}, err
	}
	return payload, nil
}

func (c *HTTPClient) Consent(ctx context.Context, sessionID string, agreed bool, participantID string) (consentPayload, error) {
	request := consentRequest{Agreed: agreed, ParticipantID: participantID}
	var payload consentPayload
	if err := c.doJSON(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/consent", request, &payload); err != nil {
		return consentPayload{}, err
	}
	return payload, nil
}

func (c *HTTPClient) SetDemographics(ctx context.Context, sessionID string, request demographicsRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/demographics", request, nil)
}

func (c *HTTPClient) GetTrial(ctx context.Context, sessionID string) (trialPayload, error) {
	var payload trialPayload
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID)+"/trial", nil, &payload); err != nil {
		return trialPayload{}, err
	}
	return payload, nil
}

func (c *HTTPClient) SubmitRatings(ctx context.Context, sessionID string, request ratingsRequest) (ratingsPayload, error) {
	var payload ratingsPayload
	if err := c.doJSON(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/ratings", request, &payload); err != nil {
		return ratingsPayload{}, err
	}
	return payload, nil
}

// DownloadExport streams the CSV export into w and returns the filename the
// server suggested.
func (c *HTTPClient) DownloadExport(ctx context.Context, sessionID string, w io.Writer) (string, error) {
	fullURL := c.baseURL + "/sessions/" + url.PathEscape(sessionID) + "/export"

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", c.decodeAPIError(response)
	}

	filename := ""
	if _, params, err := mime.ParseMediaType(response.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}

	if _, err := io.Copy(w, response.Body); err != nil {
		return "", err
	}
	return filename, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return c.decodeAPIError(response)
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}

func (c *HTTPClient) decodeAPIError(response *http.Response) error {
	apiErr := APIError{StatusCode: response.StatusCode}
	var payload errorPayload
	if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		apiErr.Message = payload.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = response.Status
	}
	return &apiErr
}
