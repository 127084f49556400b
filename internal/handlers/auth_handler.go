package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"picking-verification-backend/internal/services/auth"
)

const SessionCookie = "picking_admin"

type AuthHandler struct {
	auth         *auth.AuthService
	cookieSecure bool
}

func NewAuthHandler(a *auth.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: a, cookieSecure: cookieSecure}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var payload struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	session, err := h.auth.Login(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, session.ID.String(), int(h.auth.SessionTTL().Seconds()), "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"username": session.Username, "expires_at": session.ExpiresAt})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(SessionCookie); err == nil {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			respondError(c, err)
			return
		}
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", h.cookieSecure, true)
	c.Status(http.StatusNoContent)
}
