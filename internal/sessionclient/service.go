// Package sessionclient drives a full participant session against the
// survey service over HTTP: consent, demographics, one timed trial per
// image, and the final CSV download.
package sessionclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"survey-app/internal/survey"
)

const (
	defaultServer      = "http://127.0.0.1:8080"
	defaultHTTPTimeout = 10 * time.Second
	maxAttempts        = 3
)

type Config struct {
	ServerURL   string
	HTTPTimeout time.Duration
	ExportDir   string
}

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServer
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	exportDir := cfg.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	client := NewHTTPClient(serverURL, &http.Client{Timeout: timeout})
	reader := bufio.NewReader(in)

	session, err := client.CreateSession(ctx)
	if err != nil {
		return describeClientError(err, serverURL)
	}
	fmt.Fprintf(out, "survey-client\nserver=%s session=%s trials=%d\n\n", serverURL, session.SessionID, session.TotalTrials)

	consent, err := runConsent(ctx, reader, out, client, session.SessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Participant ID: %s\n\n", consent.ParticipantID)

	if err := runDemographics(ctx, reader, out, client, session.SessionID); err != nil {
		return err
	}

	if err := runTrials(ctx, reader, out, client, session.SessionID); err != nil {
		return err
	}

	return downloadExport(ctx, out, client, session.SessionID, exportDir)
}

func runConsent(ctx context.Context, reader *bufio.Reader, out io.Writer, client *HTTPClient, sessionID string) (consentPayload, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		agreed, err := promptYesNo(reader, out, "I consent to participate (yes/no): ")
		if err != nil {
			return consentPayload{}, err
		}
		if !agreed {
			fmt.Fprintln(out, "You must consent to proceed.")
			continue
		}

		fmt.Fprint(out, "Participant ID (press Enter to auto-generate): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return consentPayload{}, err
		}

		payload, err := client.Consent(ctx, sessionID, true, strings.TrimSpace(line))
		if err != nil {
			return consentPayload{}, err
		}
		return payload, nil
	}
	return consentPayload{}, errors.New("consent declined")
}

func runDemographics(ctx context.Context, reader *bufio.Reader, out io.Writer, client *HTTPClient, sessionID string) error {
	fmt.Fprintln(out, "Participant information:")
	for {
		name, err := promptLine(reader, out, "Full name: ")
		if err != nil {
			return err
		}
		age, err := promptInt(reader, out, "Age: ")
		if err != nil {
			return err
		}
		gender, err := promptLine(reader, out, "Gender: ")
		if err != nil {
			return err
		}
		nationality, err := promptLine(reader, out, "Nationality: ")
		if err != nil {
			return err
		}

		submitErr := client.SetDemographics(ctx, sessionID, demographicsRequest{
			Name:        name,
			Age:         age,
			Gender:      gender,
			Nationality: nationality,
		})
		if submitErr != nil {
			var apiErr *APIError
			if errors.As(submitErr, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
				fmt.Fprintf(out, "Please complete all fields before starting: %s\n\n", apiErr.Message)
				continue
			}
			return submitErr
		}
		return nil
	}
}

func runTrials(ctx context.Context, reader *bufio.Reader, out io.Writer, client *HTTPClient, sessionID string) error {
	for {
		trial, err := client.GetTrial(ctx, sessionID)
		if err != nil {
			var apiErr *APIError
			// The trial endpoint answers 409 once the session is done.
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
				return nil
			}
			return err
		}

		if trial.Phase == survey.PhaseShow {
			fmt.Fprintf(out, "\nImage %d of %d: %s\n", trial.OrderIndex, trial.TotalTrials, trial.ImageFile)
			remaining := time.Duration(trial.RemainingMS) * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(remaining):
			}
			continue
		}

		payload, err := submitRatings(ctx, reader, out, client, sessionID, trial)
		if err != nil {
			return err
		}
		for _, warning := range payload.Warnings {
			fmt.Fprintf(out, "  (warning: %s)\n", warning)
		}
		if payload.Phase == survey.PhaseDone {
			fmt.Fprintf(out, "\nAll done. Thank you for participating! (%d responses)\n", payload.Recorded)
			return nil
		}
	}
}

func submitRatings(ctx context.Context, reader *bufio.Reader, out io.Writer, client *HTTPClient, sessionID string, trial trialPayload) (ratingsPayload, error) {
	fmt.Fprintf(out, "Rate the last image (%d of %d). Press Enter to keep the default score.\n", trial.OrderIndex, trial.TotalTrials)

	for {
		request := ratingsRequest{}
		targets := map[string]**int{
			"Angry":     &request.RatingAngry,
			"Happy":     &request.RatingHappy,
			"Sad":       &request.RatingSad,
			"Scared":    &request.RatingScared,
			"Surprised": &request.RatingSurprised,
			"Neutral":   &request.RatingNeutral,
			"Disgusted": &request.RatingDisgusted,
			"Contempt":  &request.RatingContempt,
		}
		for _, emotion := range survey.Emotions {
			score, entered, err := promptOptionalInt(reader, out, "  "+emotion+": ")
			if err != nil {
				return ratingsPayload{}, err
			}
			if entered {
				value := score
				*targets[emotion] = &value
			}
		}

		result, err := promptResult(reader, out)
		if err != nil {
			return ratingsPayload{}, err
		}
		request.ResultEstimate = result

		payload, submitErr := client.SubmitRatings(ctx, sessionID, request)
		if submitErr != nil {
			var apiErr *APIError
			if errors.As(submitErr, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
				fmt.Fprintf(out, "Invalid submission: %s\n", apiErr.Message)
				continue
			}
			return ratingsPayload{}, submitErr
		}
		return payload, nil
	}
}

func downloadExport(ctx context.Context, out io.Writer, client *HTTPClient, sessionID, exportDir string) error {
	var buffer strings.Builder
	filename, err := client.DownloadExport(ctx, sessionID, &buffer)
	if err != nil {
		return err
	}
	if filename == "" {
		filename = "survey_responses.csv"
	}

	path := filepath.Join(exportDir, filename)
	if err := os.WriteFile(path, []byte(buffer.String()), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "Responses written to %s\n", path)
	return nil
}
