package fakeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aura-events/dashboard/internal/models"
)

type registerRequest struct {
	Email    string      `json:"email" binding:"required,email"`
	FullName string      `json:"full_name" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func validationError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"loc": []string{"body"}, "msg": err.Error()}}})
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleAttendee
	}
	if req.Role == models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Admin registration not allowed"})
		return
	}
	if !req.Role.Valid() {
		validationError(c, errInvalidRole)
		return
	}
	s.mu.Lock()
	exists := s.byEmail(req.Email) != nil
	s.mu.Unlock()
	if exists {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Email already registered"})
		return
	}
	var status models.Status
	if req.Role == models.RoleOrganizer {
		status = models.StatusPending
	}
	id := s.AddUser(req.Email, req.Password, req.FullName, req.Role, status)
	out := gin.H{"message": "User registered successfully", "user_id": id}
	if status != "" {
		out["status"] = status
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	s.mu.Lock()
	u := s.byEmail(req.Email)
	var pub models.UserPublic
	var hash []byte
	if u != nil {
		pub, hash = u.UserPublic, u.hash
	}
	ttl := s.ttl
	s.mu.Unlock()
	if u == nil || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials"})
		return
	}
	if pub.Role == models.RoleOrganizer && pub.Status != models.StatusApproved {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Organizer account pending admin approval"})
		return
	}
	token, err := s.sign(pub.ID, string(pub.Role), time.Now().Add(ttl))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "token"})
		return
	}
	var status any
	if pub.Status != "" {
		status = pub.Status
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           pub.ID,
		"access_token": token,
		"token_type":   "bearer",
		"user_role":    pub.Role,
		"user_status":  status,
	})
}

func (s *Server) eventsWhere(keep func(*models.Event) bool) []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Event, 0, len(s.order))
	for _, id := range s.order {
		if e, ok := s.events[id]; ok && keep(e) {
			out = append(out, *e)
		}
	}
	return out
}

func (s *Server) listApproved(c *gin.Context) {
	c.JSON(http.StatusOK, s.eventsWhere(func(e *models.Event) bool { return e.Status == models.StatusApproved }))
}

func (s *Server) listAll(c *gin.Context) {
	c.JSON(http.StatusOK, s.eventsWhere(func(*models.Event) bool { return true }))
}

func (s *Server) listOwn(c *gin.Context) {
	s.mu.Lock()
	u := s.users[c.GetString(ctxUserID)]
	s.mu.Unlock()
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	c.JSON(http.StatusOK, s.eventsWhere(func(e *models.Event) bool { return strings.EqualFold(e.OrganizerEmail, u.Email) }))
}

func (s *Server) createEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	if req.Title == "" || req.TotalSeats <= 0 {
		validationError(c, errInvalidEvent)
		return
	}
	id := s.AddEvent(models.Event{
		ID:             uuid.NewString(),
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		Location:       req.Location,
		Price:          req.Price,
		OrganizerEmail: req.OrganizerEmail,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
		Status:         models.StatusPending,
	})
	c.JSON(http.StatusCreated, gin.H{"message": "Event submitted for approval", "event_id": id})
}

func (s *Server) setEventStatus(c *gin.Context) {
	status := models.Status(c.Param("status"))
	if !status.Terminal() {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Event not found"})
		return
	}
	e.Status = status
	e.UpdatedAt = models.NewTime(time.Now().UTC())
	c.JSON(http.StatusOK, e)
}

func (s *Server) getUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	c.JSON(http.StatusOK, models.UserDetails{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		Role:         u.Role,
		Status:       u.Status,
		BookedEvents: append([]models.Booking{}, u.bookings...),
	})
}

func (s *Server) book(c *gin.Context) {
	var req models.Booking
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byEmail(req.UserEmail)
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	u.bookings = append(u.bookings, req)
	c.JSON(http.StatusOK, gin.H{"message": "Booking added successfully", "user_id": u.ID})
}

func (s *Server) listOrganizers(c *gin.Context) {
	filter := models.Status(c.Query("status"))
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.UserPublic, 0)
	for _, u := range s.users {
		if u.Role != models.RoleOrganizer {
			continue
		}
		if filter != "" && u.Status != filter {
			continue
		}
		out = append(out, u.UserPublic)
	}
	sortByCreated(out)
	c.JSON(http.StatusOK, out)
}

func (s *Server) updateOrganizer(c *gin.Context) {
	var req models.OrganizerUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	if req.Status != models.StatusPending && !req.Status.Terminal() {
		validationError(c, errInvalidStatus)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[c.Param("id")]
	if !ok || u.Role != models.RoleOrganizer {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Organizer not found"})
		return
	}
	u.Status = req.Status
	c.JSON(http.StatusOK, u.UserPublic)
}

func (s *Server) deleteOrganizer(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[c.Param("id")]
	if !ok || u.Role != models.RoleOrganizer {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Organizer not found"})
		return
	}
	delete(s.users, u.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Organizer deleted"})
}
