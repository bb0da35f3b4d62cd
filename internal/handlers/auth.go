package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/comment-system/backend/internal/models"
	"github.com/emilythestrangee/comment-system/backend/internal/services"
)

type AuthHandler struct {
	service *services.AuthService
	cookie  CookieConfig
}

func NewAuthHandler(service *services.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{service: service, cookie: cookie}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, bindError(err))
		return
	}

	resp, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	h.setToken(c, resp.Token)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    resp.User,
		"token":   resp.Token,
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, bindError(err))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	h.setToken(c, resp.Token)

	respond(c, gin.H{
		"message": "Login successful",
		"user":    resp.User,
		"token":   resp.Token,
	})
}

// Logout clears the session cookie. Bearer tokens stay valid until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearToken(c)
	respond(c, gin.H{"message": "Logged out successfully"})
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := extractUserID(c)
	if !exists {
		unauthenticated(c)
		return
	}

	user, err := h.service.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, gin.H{"user": user})
}

func (h *AuthHandler) setToken(c *gin.Context, token string) {
	if !h.cookie.Enabled {
		return
	}
	h.writeCookie(c, token, int(h.cookie.MaxAge.Seconds()))
}

func (h *AuthHandler) clearToken(c *gin.Context) {
	if !h.cookie.Enabled {
		return
	}
	h.writeCookie(c, "", -1)
}

func (h *AuthHandler) writeCookie(c *gin.Context, value string, maxAge int) {
	if h.cookie.Secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}
