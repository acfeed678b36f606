package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-events/dashboard/internal/apiclient"
	"github.com/aura-events/dashboard/internal/listmut"
	"github.com/aura-events/dashboard/internal/models"
	"github.com/aura-events/dashboard/internal/rolegate"
	"github.com/aura-events/dashboard/internal/session"
	"github.com/aura-events/dashboard/pkg/response"
)

type fixedSessions struct{ s *session.Session }

func (f fixedSessions) Current(context.Context) *session.Session { return f.s }

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.Any("/x", func(c *gin.Context) { response.OK(c, "ok") })
	return r
}

func do(r http.Handler, method string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/x", nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Body {
	t.Helper()
	var b response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func TestRequireAction(t *testing.T) {
	sess := func(role models.Role, status models.Status) *session.Session {
		return &session.Session{Token: "t", User: models.User{Role: role, Status: status}}
	}
	tests := []struct {
		name     string
		session  *session.Session
		action   rolegate.Action
		status   int
		code     string
		redirect string
	}{
		{"anonymous", nil, rolegate.ActionBookEvent, http.StatusUnauthorized, "unauthenticated", "/login"},
		{"attendee books", sess(models.RoleAttendee, ""), rolegate.ActionBookEvent, http.StatusOK, "", ""},
		{"attendee approves", sess(models.RoleAttendee, ""), rolegate.ActionApproveEntity, http.StatusForbidden, "forbidden_role", ""},
		{"pending organizer creates", sess(models.RoleOrganizer, models.StatusPending), rolegate.ActionCreateEvent, http.StatusForbidden, "not_approved", ""},
		{"admin approves", sess(models.RoleAdmin, ""), rolegate.ActionApproveEntity, http.StatusOK, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(LoadSession(fixedSessions{tt.session}), RequireAction(tt.action))
			w := do(r, http.MethodGet, nil)
			assert.Equal(t, tt.status, w.Code)
			b := decode(t, w)
			assert.Equal(t, tt.code, b.Code)
			assert.Equal(t, tt.redirect, b.Redirect)
		})
	}
}

func TestRequireSession(t *testing.T) {
	r := newRouter(LoadSession(fixedSessions{}), RequireSession())
	w := do(r, http.MethodGet, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/login", decode(t, w).Redirect)

	r = newRouter(LoadSession(fixedSessions{&session.Session{Token: "t"}}), RequireSession())
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, nil).Code)
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r := newRouter(RateLimit(ctx, 0.001, 2))

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, nil).Code)
	w := do(r, http.MethodPost, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", decode(t, w).Code)

	open := newRouter(RateLimit(ctx, 0, 0))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(open, http.MethodPost, nil).Code)
	}
}

func TestCORS(t *testing.T) {
	r := newRouter(CORS([]string{"http://localhost:3000"}))

	w := do(r, http.MethodOptions, map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = do(r, http.MethodGet, map[string]string{"Origin": "http://evil.example"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = do(newRouter(CORS(nil)), http.MethodGet, map[string]string{"Origin": "http://any.example"})
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDAndLogger(t *testing.T) {
	r := newRouter(RequestID(), Logger(zaptest.NewLogger(t)))

	w := do(r, http.MethodGet, nil)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	w = do(r, http.MethodGet, map[string]string{HeaderRequestID: "abc"})
	assert.Equal(t, "abc", w.Header().Get(HeaderRequestID))
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		redirect string
	}{
		{"denied anonymous", &rolegate.DeniedError{Decision: rolegate.Decision{Denial: rolegate.DenialUnauthenticated}}, http.StatusUnauthorized, "unauthenticated", "/login"},
		{"denied role", &rolegate.DeniedError{Decision: rolegate.Decision{Denial: rolegate.DenialForbiddenRole}}, http.StatusForbidden, "forbidden_role", ""},
		{"transition", &rolegate.TransitionError{From: models.StatusApproved, To: models.StatusRejected}, http.StatusConflict, "invalid_transition", ""},
		{"gone", listmut.ErrNotFound, http.StatusNotFound, "not_found", ""},
		{"bad credentials", &apiclient.Error{Kind: apiclient.KindAuth, Reason: apiclient.ReasonInvalidCredentials}, http.StatusUnauthorized, "invalid_credentials", ""},
		{"not approved", &apiclient.Error{Kind: apiclient.KindAuth, Reason: apiclient.ReasonNotApproved}, http.StatusForbidden, "not_approved", ""},
		{"expired", &apiclient.Error{Kind: apiclient.KindAuth, Status: 401}, http.StatusUnauthorized, "auth", "/login"},
		{"validation", &apiclient.Error{Kind: apiclient.KindValidation, Fields: []apiclient.FieldError{{Field: "email", Message: "required"}}}, http.StatusUnprocessableEntity, "validation", ""},
		{"upstream down", &apiclient.Error{Kind: apiclient.KindNetwork}, http.StatusBadGateway, "network", ""},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter()
			r.GET("/err", func(c *gin.Context) { RespondError(c, tt.err) })
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/err", nil))

			assert.Equal(t, tt.status, w.Code)
			b := decode(t, w)
			assert.False(t, b.Success)
			assert.Equal(t, tt.code, b.Code)
			assert.Equal(t, tt.redirect, b.Redirect)
			assert.NotEmpty(t, b.Error)
		})
	}
}
