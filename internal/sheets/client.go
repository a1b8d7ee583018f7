// Package sheets talks to a Google-Sheets-style values API. It is the
// remote persistence collaborator for the survey: one appended row per
// completed trial, plus header-row creation on first use. Every failure is
// returned to the caller, which treats it as non-fatal.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"survey-app/internal/survey"
)

const (
	defaultSheetName   = "responses"
	defaultHTTPTimeout = 10 * time.Second
)

type Client struct {
	endpoint      string
	spreadsheetID string
	token         string
	sheetName     string
	httpClient    *http.Client
}

type valueRange struct {
	Values [][]any `json:"values"`
}

func NewClient(endpoint, spreadsheetID, token string, httpClient *http.Client) *Client {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		endpoint:      endpoint,
		spreadsheetID: strings.TrimSpace(spreadsheetID),
		token:         strings.TrimSpace(token),
		sheetName:     defaultSheetName,
		httpClient:    httpClient,
	}
}

// EnsureSchema creates the 21-column header row when the destination sheet
// is still empty.
func (c *Client) EnsureSchema(ctx context.Context) error {
	existing, err := c.readHeaderRow(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	header := make([]any, 0, len(survey.ResponseColumns()))
	for _, column := range survey.ResponseColumns() {
		header = append(header, column)
	}
	return c.appendRow(ctx, header)
}

// AppendResponse appends one ordered row matching the schema.
func (c *Client) AppendResponse(ctx context.Context, record survey.ResponseRecord) error {
	return c.appendRow(ctx, rowValues(record))
}

func rowValues(record survey.ResponseRecord) []any {
	return []any{
		record.StudyID,
		record.ParticipantID,
		record.Consented,
		record.ConsentTimestampISO,
		record.Name,
		record.Age,
		record.Gender,
		record.Nationality,
		record.TrialIndex,
		record.OrderIndex,
		record.ImageFile,
		record.RatingAngry,
		record.RatingHappy,
		record.RatingSad,
		record.RatingScared,
		record.RatingSurprised,
		record.RatingNeutral,
		record.RatingDisgusted,
		record.RatingContempt,
		record.ResultEstimate,
		record.ResponseTimestampISO,
	}
}

func (c *Client) readHeaderRow(ctx context.Context) ([]any, error) {
	reqURL := fmt.Sprintf("%s/%s/values/%s", c.endpoint, url.PathEscape(c.spreadsheetID), url.PathEscape(c.sheetName+"!A1:U1"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets api returned status %d", resp.StatusCode)
	}

	var payload valueRange
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Values) == 0 {
		return nil, nil
	}
	return payload.Values[0], nil
}

func (c *Client) appendRow(ctx context.Context, row []any) error {
	reqURL := fmt.Sprintf(
		"%s/%s/values/%s:append?valueInputOption=RAW",
		c.endpoint,
		url.PathEscape(c.spreadsheetID),
		url.PathEscape(c.sheetName),
	)

	body, err := json.Marshal(valueRange{Values: [][]any{row}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheets api returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
