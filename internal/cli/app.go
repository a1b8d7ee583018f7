// Package cli runs a complete survey session in the terminal without a
// server: same phase machine, same validation, same record schema. The
// exposure window is a real timer wait instead of a render loop.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"survey-app/internal/config"
	"survey-app/internal/survey"
)

const maxAttempts = 3

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg *config.Config, sinks []survey.RecordSink) error {
	catalog, err := survey.LoadCatalog(cfg.ImageDir, cfg.MaxImages)
	if err != nil {
		return fmt.Errorf("cannot start survey: %w", err)
	}

	session, err := survey.NewSession(survey.NewSessionID(), catalog, cfg.Settings())
	if err != nil {
		return err
	}

	reader := bufio.NewReader(in)

	fmt.Fprintf(out, "This study shows %d images for %.1f seconds each.\n", len(catalog), cfg.ExposureSeconds)
	fmt.Fprintf(out, "After each image you rate eight emotions (%d-%d) and give a result estimate (Won/Lost/Unsure).\n\n", cfg.RatingMin, cfg.RatingMax)

	if err := runConsent(reader, out, session); err != nil {
		return err
	}
	if err := runDemographics(reader, out, session); err != nil {
		return err
	}

	for session.Phase() == survey.PhaseShow {
		if err := runTrial(ctx, reader, out, session, sinks, cfg.RatingDefault); err != nil {
			return err
		}
	}

	return finish(out, session, cfg.ExportDir)
}

func runConsent(reader *bufio.Reader, out io.Writer, session *survey.Session) error {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		agreed, err := promptYesNo(reader, out, "I consent to participate (yes/no): ")
		if err != nil {
			return err
		}
		if !agreed {
			fmt.Fprintln(out, "You must consent to proceed.")
			continue
		}

		generated := survey.NewParticipantID()
		fmt.Fprintf(out, "Participant ID [%s] (press Enter to keep, or type an override): ", generated)
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		participantID := strings.TrimSpace(line)
		if participantID == "" {
			participantID = generated
		}

		return session.Consent(true, participantID, time.Now())
	}
	return survey.ErrConsentRequired
}

func runDemographics(reader *bufio.Reader, out io.Writer, session *survey.Session) error {
	fmt.Fprintln(out, "\nParticipant information:")
	for {
		name, err := promptLine(reader, out, "Full name: ")
		if err != nil {
			return err
		}
		ageLine, err := promptLine(reader, out, "Age: ")
		if err != nil {
			return err
		}
		// A non-numeric age becomes the zero sentinel, which validation
		// rejects like any other missing field.
		age, convErr := strconv.Atoi(ageLine)
		if convErr != nil {
			age = 0
		}
		gender, err := promptLine(reader, out, "Gender: ")
		if err != nil {
			return err
		}
		nationality, err := promptLine(reader, out, "Nationality: ")
		if err != nil {
			return err
		}

		demographics := survey.Demographics{
			Name:        name,
			Age:         age,
			Gender:      gender,
			Nationality: nationality,
		}
		if err := session.SetDemographics(demographics, time.Now()); err != nil {
			fmt.Fprintf(out, "Please complete all fields before starting: %v\n\n", err)
			continue
		}
		return nil
	}
}

func runTrial(ctx context.Context, reader *bufio.Reader, out io.Writer, session *survey.Session, sinks []survey.RecordSink, defaultScore int) error {
	trial, err := session.CurrentTrial(time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nImage %d of %d: %s\n", trial.OrderIndex, trial.Total, trial.Entry.File)

	if trial.Remaining > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(trial.Remaining):
		}
	}
	if _, err := session.CurrentTrial(time.Now()); err != nil {
		return err
	}

	fmt.Fprintf(out, "Rate the last image (%d of %d):\n", trial.OrderIndex, trial.Total)
	for {
		ratings, err := promptRatings(reader, out, defaultScore)
		if err != nil {
			return err
		}

		record, submitErr := session.SubmitRatings(ratings, time.Now())
		if submitErr != nil {
			fmt.Fprintf(out, "Invalid submission: %v\n", submitErr)
			continue
		}

		forwardRecord(ctx, out, sinks, record)
		return nil
	}
}

func promptRatings(reader *bufio.Reader, out io.Writer, defaultScore int) (survey.Ratings, error) {
	var ratings survey.Ratings
	for _, emotion := range survey.Emotions {
		score, err := promptScore(reader, out, emotion, defaultScore)
		if err != nil {
			return survey.Ratings{}, err
		}
		ratings.SetScore(emotion, score)
	}

	result, err := promptResult(reader, out)
	if err != nil {
		return survey.Ratings{}, err
	}
	ratings.ResultEstimate = result
	return ratings, nil
}

func promptScore(reader *bufio.Reader, out io.Writer, emotion string, defaultScore int) (int, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Fprintf(out, "  %s [%d]: ", emotion, defaultScore)
		line, err := reader.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultScore, nil
		}
		score, convErr := strconv.Atoi(line)
		if convErr == nil {
			return score, nil
		}
		fmt.Fprintln(out, "  Please enter a whole number.")
	}
	return defaultScore, nil
}

func promptResult(reader *bufio.Reader, out io.Writer) (string, error) {
	for {
		fmt.Fprint(out, "  Result estimate (Won/Lost/Unsure): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "won":
			return survey.ResultWon, nil
		case "lost":
			return survey.ResultLost, nil
		case "unsure":
			return survey.ResultUnsure, nil
		}
		fmt.Fprintln(out, "  Please answer Won, Lost, or Unsure.")
	}
}

func forwardRecord(ctx context.Context, out io.Writer, sinks []survey.RecordSink, record survey.ResponseRecord) {
	for _, sink := range sinks {
		if err := sink.AppendResponse(ctx, record); err != nil {
			// Non-fatal: the session log already holds the record.
			fmt.Fprintf(out, "  (warning: persistence failed: %v)\n", err)
		}
	}
}

func finish(out io.Writer, session *survey.Session, exportDir string) error {
	records := session.Responses()
	fmt.Fprintf(out, "\nAll done. Thank you for participating! (%d responses)\n", len(records))

	filename := survey.ExportFilename(session.Participant().ID, time.Now())
	path := filepath.Join(exportDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := survey.WriteCSV(file, records); err != nil {
		return err
	}
	fmt.Fprintf(out, "Responses written to %s\n", path)
	return nil
}

func promptLine(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptYesNo(reader *bufio.Reader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}
