package devserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lk2023060901/lendhub/pkg/realtime"
	"github.com/lk2023060901/lendhub/pkg/web"
	"github.com/lk2023060901/lendhub/pkg/web/middleware"
)

type issueTokenRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

type notifyRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Title  string `json:"title" binding:"required"`
	Body   string `json:"body"`
}

type borrowRequestUpdate struct {
	UserID    string `json:"user_id" binding:"required"`
	RequestID string `json:"request_id" binding:"required"`
	Status    string `json:"status" binding:"required"`
}

type kickRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

func (s *Server) routes() {
	r := s.web.Router()

	r.GET("/health", s.health)
	r.GET(s.cfg.SocketPath, func(c *gin.Context) {
		s.socket.ServeHTTP(c.Writer, c.Request)
	})

	api := r.Group("/api", middleware.Auth(&middleware.AuthConfig{JWTManager: s.jwt}))
	api.GET("/badges", s.getBadges)

	if !s.cfg.DevRoutes {
		return
	}
	dev := r.Group("/dev")
	dev.POST("/token", s.issueToken)
	dev.PUT("/badges/:user_id", s.putBadges)
	dev.POST("/notifications", s.notify)
	dev.POST("/borrow-requests", s.updateBorrowRequest)
	dev.POST("/kick", s.kick)
}

func (s *Server) health(c *gin.Context) {
	web.Success(c, gin.H{
		"status":   "ok",
		"sessions": s.Sessions(),
	})
}

func (s *Server) getBadges(c *gin.Context) {
	web.Success(c, s.counts.get(middleware.GetUserID(c)))
}

func (s *Server) issueToken(c *gin.Context) {
	var req issueTokenRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	token, err := s.jwt.Issue(req.UserID, req.Role, nil)
	if err != nil {
		web.Error(c, web.CodeInternalError, err.Error())
		return
	}
	web.Success(c, gin.H{"token": token})
}

func (s *Server) putBadges(c *gin.Context) {
	var counts realtime.BadgeCounts
	if !web.BindAndValidate(c, &counts) {
		return
	}
	sent := s.SetCounts(c.Param("user_id"), counts)
	web.Success(c, gin.H{"sessions": sent})
}

func (s *Server) notify(c *gin.Context) {
	var req notifyRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	n := realtime.Notification{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	sent := s.EmitToUser(req.UserID, realtime.EventNotificationCreated, n)
	web.Success(c, gin.H{"id": n.ID, "sessions": sent})
}

func (s *Server) updateBorrowRequest(c *gin.Context) {
	var req borrowRequestUpdate
	if !web.BindAndValidate(c, &req) {
		return
	}
	sent := s.EmitToUser(req.UserID, realtime.EventBorrowRequestUpdated, realtime.BorrowRequestUpdate{
		RequestID: req.RequestID,
		Status:    req.Status,
		UpdatedAt: time.Now().UTC(),
	})
	web.Success(c, gin.H{"sessions": sent})
}

func (s *Server) kick(c *gin.Context) {
	var req kickRequest
	if c.Request.ContentLength > 0 && !web.BindAndValidate(c, &req) {
		return
	}
	web.Success(c, gin.H{"kicked": s.Kick(req.UserID, req.Reason)})
}
