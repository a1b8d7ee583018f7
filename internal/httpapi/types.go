package httpapi

import "survey-app/internal/survey"

type sessionResponse struct {
	SessionID     string `json:"session_id"`
	Phase         string `json:"phase"`
	ParticipantID string `json:"participant_id,omitempty"`
	Completed     int    `json:"completed"`
	TotalTrials   int    `json:"total_trials"`
}

type consentRequest struct {
	Agreed        bool   `json:"agreed"`
	ParticipantID string `json:"participant_id,omitempty"`
}

type consentResponse struct {
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

type phaseResponse struct {
	Phase string `json:"phase"`
}

type trialResponse struct {
	Phase       string `json:"phase"`
	OrderIndex  int    `json:"order_index"`
	TotalTrials int    `json:"total_trials"`
	ImageFile   string `json:"image_file"`
	RemainingMS int64  `json:"remaining_ms"`
}

// Pointer rating fields distinguish "control untouched" from an explicit
// zero; untouched controls take the configured default score.
type ratingsRequest struct {
	RatingAngry     *int   `json:"rating_angry"`
	RatingHappy     *int   `json:"rating_happy"`
	RatingSad       *int   `json:"rating_sad"`
	RatingScared    *int   `json:"rating_scared"`
	RatingSurprised *int   `json:"rating_surprised"`
	RatingNeutral   *int   `json:"rating_neutral"`
	RatingDisgusted *int   `json:"rating_disgusted"`
	RatingContempt  *int   `json:"rating_contempt"`
	ResultEstimate  string `json:"result_estimate"`
}

type ratingsResponse struct {
	Phase      string   `json:"phase"`
	OrderIndex int      `json:"order_index"`
	Recorded   int      `json:"recorded"`
	Warnings   []string `json:"warnings,omitempty"`
}

type responsesResponse struct {
	ParticipantID string                  `json:"participant_id"`
	Count         int                     `json:"count"`
	Responses     []survey.ResponseRecord `json:"responses"`
}

type errorResponse struct {
	Error string `json:"error"`
}
