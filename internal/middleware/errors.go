package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aura-events/dashboard/internal/apiclient"
	"github.com/aura-events/dashboard/internal/listmut"
	"github.com/aura-events/dashboard/internal/rolegate"
	"github.com/aura-events/dashboard/pkg/response"
)

// RespondError writes the envelope for err and records it on the context.
// API auth failures on authenticated calls carry a redirect to the login
// route; the session has already been cleared by then.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := describe(err)
	response.Fail(c, status, body)
}

func describe(err error) (int, response.Body) {
	var denied *rolegate.DeniedError
	if errors.As(err, &denied) {
		body := response.Body{Error: denied.Decision.Message(), Code: string(denied.Decision.Denial)}
		if !denied.Decision.Authenticated() {
			body.Redirect = rolegate.RouteLogin
		}
		return DenialStatus(denied.Decision.Denial), body
	}
	var transition *rolegate.TransitionError
	if errors.As(err, &transition) {
		return http.StatusConflict, response.Body{Error: "Only pending records can be approved or rejected.", Code: "invalid_transition"}
	}
	switch {
	case errors.Is(err, listmut.ErrNotFound):
		return http.StatusNotFound, response.Body{Error: "Record is no longer on the board.", Code: "not_found"}
	case errors.Is(err, listmut.ErrClosed):
		return http.StatusServiceUnavailable, response.Body{Error: "Board is shutting down.", Code: "unavailable"}
	}

	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError, response.Body{Error: "An unexpected error occurred", Code: "internal"}
	}
	body := response.Body{Error: apiclient.UserMessage(err), Code: string(apiErr.Kind)}
	if apiErr.Reason != "" {
		body.Code = apiErr.Reason
	}
	switch apiErr.Kind {
	case apiclient.KindAuth:
		if apiErr.Reason != apiclient.ReasonInvalidCredentials && apiErr.Reason != apiclient.ReasonNotApproved {
			body.Redirect = rolegate.RouteLogin
		}
		if apiErr.Reason == apiclient.ReasonNotApproved {
			return http.StatusForbidden, body
		}
		return http.StatusUnauthorized, body
	case apiclient.KindValidation:
		if len(apiErr.Fields) > 0 {
			body.Fields = make(map[string]string, len(apiErr.Fields))
			for _, f := range apiErr.Fields {
				body.Fields[f.Field] = f.Message
			}
		}
		return http.StatusUnprocessableEntity, body
	case apiclient.KindPermission:
		return http.StatusForbidden, body
	case apiclient.KindNotFound:
		return http.StatusNotFound, body
	}
	// network, server and unexpected upstream answers
	return http.StatusBadGateway, body
}
