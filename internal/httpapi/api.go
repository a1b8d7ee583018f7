package httpapi

import "survey-app/internal/survey"

type API struct {
	service *survey.Service
}

func NewAPI(service *survey.Service) *API {
	return &API{service: service}
}
