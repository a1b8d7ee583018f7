package sessionclient

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"survey-app/internal/survey"
)

func promptLine(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptInt maps a non-numeric entry to the zero sentinel so server-side
// validation reports it like any other missing field.
func promptInt(reader *bufio.Reader, out io.Writer, prompt string) (int, error) {
	line, err := promptLine(reader, out, prompt)
	if err != nil {
		return 0, err
	}
	value, convErr := strconv.Atoi(line)
	if convErr != nil {
		return 0, nil
	}
	return value, nil
}

func promptOptionalInt(reader *bufio.Reader, out io.Writer, prompt string) (int, bool, error) {
	for {
		line, err := promptLine(reader, out, prompt)
		if err != nil {
			return 0, false, err
		}
		if line == "" {
			return 0, false, nil
		}
		value, convErr := strconv.Atoi(line)
		if convErr != nil {
			fmt.Fprintln(out, "  Please enter a whole number.")
			continue
		}
		return value, true, nil
	}
}

func promptResult(reader *bufio.Reader, out io.Writer) (string, error) {
	for {
		line, err := promptLine(reader, out, "  Result estimate (Won/Lost/Unsure): ")
		if err != nil {
			return "", err
		}
		switch strings.ToLower(line) {
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

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return fmt.Errorf("survey service unavailable at %s", serverURL)
	}
	return err
}
