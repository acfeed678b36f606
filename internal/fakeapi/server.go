// Package fakeapi is an in-memory stand-in for the remote event-booking API,
// used by tests across the module. It mirrors the routes and payload shapes
// of the real backend closely enough to exercise the client.
package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aura-events/dashboard/internal/models"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "user_role"
)

// Claims is the token payload issued on login.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type user struct {
	models.UserPublic
	hash     []byte
	bookings []models.Booking
}

type fault struct {
	status int
	detail string
}

// Server is the fake API. Zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	secret   []byte
	ttl      time.Duration
	users    map[string]*user
	events   map[string]*models.Event
	order    []string
	faults   map[string]fault
	requests map[string]int
}

// New starts a fake API on a loopback listener. Close it when done.
func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		secret:   []byte("fakeapi-secret"),
		ttl:      time.Hour,
		users:    make(map[string]*user),
		events:   make(map[string]*models.Event),
		faults:   make(map[string]fault),
		requests: make(map[string]int),
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.countAndInject)

	r.POST("/auth/register", s.register)
	r.POST("/auth/login", s.login)
	r.GET("/events/", s.listApproved)

	api := r.Group("")
	api.Use(s.requireToken)
	{
		api.POST("/events/create", requireRole("organizer"), s.createEvent)
		api.GET("/events/organize_events", requireRole("organizer"), s.listOwn)
		api.GET("/events/users/:id", s.getUser)
		api.PUT("/events/:id/:status", requireRole("admin"), s.setEventStatus)
		api.POST("/bookings/book", s.book)
		api.GET("/admin/all_events", requireRole("admin"), s.listAll)
		api.GET("/admin/organizers", requireRole("admin"), s.listOrganizers)
		api.PUT("/admin/organizers/:id", requireRole("admin"), s.updateOrganizer)
		api.DELETE("/admin/organizers/:id", requireRole("admin"), s.deleteOrganizer)
	}
	return r
}

// Fail makes the next request to method+path answer with status and detail.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = fault{status: status, detail: detail}
}

// Requests returns how many requests reached method+path.
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+path]
}

// SetTokenTTL changes the lifetime of tokens issued from now on.
func (s *Server) SetTokenTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = d
}

// AddUser seeds an account and returns its id.
func (s *Server) AddUser(email, password, fullName string, role models.Role, status models.Status) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &user{
		UserPublic: models.UserPublic{
			ID:        uuid.NewString(),
			Email:     email,
			FullName:  fullName,
			Role:      role,
			Status:    status,
			CreatedAt: models.NewTime(time.Now().UTC()),
		},
		hash: hash,
	}
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	return u.ID
}

// AddEvent seeds an event and returns its id.
func (s *Server) AddEvent(e models.Event) string {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = models.StatusPending
	}
	s.mu.Lock()
	s.events[e.ID] = &e
	s.order = append(s.order, e.ID)
	s.mu.Unlock()
	return e.ID
}

// Event returns a copy of a stored event.
func (s *Server) Event(id string) (models.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return models.Event{}, false
	}
	return *e, true
}

// User returns the public record of a stored user.
func (s *Server) User(id string) (models.UserPublic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.UserPublic{}, false
	}
	return u.UserPublic, true
}

// Bookings returns the bookings recorded for an email.
func (s *Server) Bookings(email string) []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byEmail(email)
	if u == nil {
		return nil
	}
	return append([]models.Booking(nil), u.bookings...)
}

// IssueToken signs a token for a stored user with an explicit expiry.
func (s *Server) IssueToken(userID string, expiresAt time.Time) string {
	s.mu.Lock()
	u := s.users[userID]
	s.mu.Unlock()
	role := ""
	if u != nil {
		role = string(u.Role)
	}
	tok, _ := s.sign(userID, role, expiresAt)
	return tok
}

func (s *Server) sign(userID, role string, expiresAt time.Time) (string, error) {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) byEmail(email string) *user {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (s *Server) countAndInject(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path
	s.mu.Lock()
	s.requests[key]++
	f, ok := s.faults[key]
	if ok {
		delete(s.faults, key)
	}
	s.mu.Unlock()
	if ok {
		c.AbortWithStatusJSON(f.status, gin.H{"detail": f.detail})
		return
	}
	c.Next()
}

func (s *Server) requireToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}
	claims := token.Claims.(*Claims)
	s.mu.Lock()
	_, exists := s.users[claims.Subject]
	s.mu.Unlock()
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "User not found"})
		return
	}
	c.Set(ctxUserID, claims.Subject)
	c.Set(ctxRole, claims.Role)
	c.Next()
}

func requireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Insufficient permissions"})
	}
}
