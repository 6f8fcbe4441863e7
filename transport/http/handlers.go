package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/universitydao/walletauth/core"
	"github.com/universitydao/walletauth/service"
)

const contextSessionKey = "session"

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

// VerifyRequest is the body of POST /auth/verify
type VerifyRequest struct {
	Address   string `json:"address" binding:"required"`
	Nonce     string `json:"nonce" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// VerifyResponse is returned after a successful login
type VerifyResponse struct {
	JWT     string `json:"jwt"`
	Address string `json:"address"`
}

// Nonce handles the nonce request
func (h *AuthHandlers) Nonce(c *gin.Context) {
	challenge, err := h.authService.IssueNonce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create nonce"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"nonce": challenge.Nonce})
}

// Verify handles the signed challenge
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	assertion := core.SignedAssertion{
		Address:   req.Address,
		Nonce:     req.Nonce,
		Signature: req.Signature,
	}
	client := core.ClientInfo{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}

	result, err := h.authService.Verify(c.Request.Context(), assertion, client)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Authentication failed"

		switch {
		case errors.Is(err, core.ErrInvalidInput):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid address or nonce"
		case errors.Is(err, core.ErrInvalidNonce):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid or expired nonce"
		case errors.Is(err, core.ErrInvalidSignature):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid signature"
		case errors.Is(err, core.ErrServerConfiguration):
			errorMsg = "Server configuration error"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{
		JWT:     result.Token,
		Address: result.Session.Address,
	})
}

// Me returns information about the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":    session.Address,
		"expires_at": session.ExpiresAt.UTC(),
	})
}

// Connection returns the wallet connection record of the authenticated user
func (h *AuthHandlers) Connection(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session not found in context"})
		return
	}

	conn, err := h.authService.Connection(c.Request.Context(), session.Address)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No connection recorded"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load connection"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_address":    conn.WalletAddress,
		"connection_count":  conn.ConnectionCount,
		"connected_at":      conn.ConnectedAt.UTC(),
		"last_connected_at": conn.LastConnectedAt.UTC(),
		"user_agent":        conn.UserAgent,
	})
}

// Health reports liveness
func (h *AuthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func sessionFromContext(c *gin.Context) (*core.Session, bool) {
	v, exists := c.Get(contextSessionKey)
	if !exists {
		return nil, false
	}
	session, ok := v.(*core.Session)
	return session, ok
}
