package controllers

import (
	"net/http"

	"github.com/qyve/storefront/api/responses"
	"github.com/qyve/storefront/api/validators"
	"github.com/qyve/storefront/internal/newsletter"
	"github.com/qyve/storefront/pkg/logger"
)

type subscribeRequest struct {
	Email  string `json:"email" validate:"required,email,max=254"`
	Source string `json:"source,omitempty" validate:"max=50"`
}

type unsubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// NewsletterSubscribe answers 201 for a new or reactivated subscriber and 200
// when the address was already active.
func NewsletterSubscribe(svc newsletter.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("newsletter"))
			return
		}
		var payload subscribeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Subscribe(r.Context(), newsletter.SubscribeInput{
			Email:  payload.Email,
			Source: validators.SanitizeString(payload.Source, 50),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result.Subscriber)
	}
}

func NewsletterUnsubscribe(svc newsletter.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("newsletter"))
			return
		}
		var payload unsubscribeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Unsubscribe(r.Context(), payload.Email); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"unsubscribed": true})
	}
}
