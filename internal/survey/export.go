package survey

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

var responseColumns = []string{
	"study_id", "participant_id", "consented", "consent_timestamp_iso",
	"name", "age", "gender", "nationality",
	"trial_index", "order_index", "image_file",
	"rating_angry", "rating_happy", "rating_sad", "rating_scared",
	"rating_surprised", "rating_neutral", "rating_disgusted", "rating_contempt",
	"result_estimate",
	"response_timestamp_iso",
}

// ResponseColumns returns the 21-column schema header in order.
func ResponseColumns() []string {
	out := make([]string, len(responseColumns))
	copy(out, responseColumns)
	return out
}

// Row renders the record as strings in schema column order.
func (r ResponseRecord) Row() []string {
	return []string{
		r.StudyID,
		r.ParticipantID,
		strconv.FormatBool(r.Consented),
		r.ConsentTimestampISO,
		r.Name,
		strconv.Itoa(r.Age),
		r.Gender,
		r.Nationality,
		strconv.Itoa(r.TrialIndex),
		strconv.Itoa(r.OrderIndex),
		r.ImageFile,
		strconv.Itoa(r.RatingAngry),
		strconv.Itoa(r.RatingHappy),
		strconv.Itoa(r.RatingSad),
		strconv.Itoa(r.RatingScared),
		strconv.Itoa(r.RatingSurprised),
		strconv.Itoa(r.RatingNeutral),
		strconv.Itoa(r.RatingDisgusted),
		strconv.Itoa(r.RatingContempt),
		r.ResultEstimate,
		r.ResponseTimestampISO,
	}
}

// WriteCSV serializes the response log with a header row.
func WriteCSV(w io.Writer, records []ResponseRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(responseColumns); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write(record.Row()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportFilename names the downloadable artifact after the participant and
// a compact UTC timestamp.
func ExportFilename(participantID string, now time.Time) string {
	return fmt.Sprintf("survey_responses_%s_%s.csv", participantID, now.UTC().Format("20060102T150405")+"Z")
}
