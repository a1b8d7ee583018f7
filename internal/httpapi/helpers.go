package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"survey-app/internal/survey"
)

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, survey.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
	case errors.Is(err, survey.ErrWrongPhase):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "operation not valid in current phase"})
	case errors.Is(err, survey.ErrConsentRequired),
		errors.Is(err, survey.ErrIncompleteDemographics),
		errors.Is(err, survey.ErrResultRequired),
		errors.Is(err, survey.ErrInvalidResult),
		errors.Is(err, survey.ErrRatingOutOfRange):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func writeMethodNotAllowed(w http.ResponseWriter, allowedMethod string) {
	w.Header().Set("Allow", allowedMethod)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func scoreOrDefault(value *int, defaultScore int) int {
	if value == nil {
		return defaultScore
	}
	return *value
}

func (req ratingsRequest) toRatings(defaultScore int) survey.Ratings {
	return survey.Ratings{
		Angry:          scoreOrDefault(req.RatingAngry, defaultScore),
		Happy:          scoreOrDefault(req.RatingHappy, defaultScore),
		Sad:            scoreOrDefault(req.RatingSad, defaultScore),
		Scared:         scoreOrDefault(req.RatingScared, defaultScore),
		Surprised:      scoreOrDefault(req.RatingSurprised, defaultScore),
		Neutral:        scoreOrDefault(req.RatingNeutral, defaultScore),
		Disgusted:      scoreOrDefault(req.RatingDisgusted, defaultScore),
		Contempt:       scoreOrDefault(req.RatingContempt, defaultScore),
		ResultEstimate: req.ResultEstimate,
	}
}
