package http

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/pitchbase/pitchbase/core"
	"github.com/pitchbase/pitchbase/service"
)

// Handlers contains the HTTP handlers for auth, profile and transfer endpoints
type Handlers struct {
	authService     *service.AuthService
	accountService  *service.AccountService
	transferService *service.TransferService
}

// NewHandlers creates the handler set
func NewHandlers(
	authService *service.AuthService,
	accountService *service.AccountService,
	transferService *service.TransferService,
) *Handlers {
	return &Handlers{
		authService:     authService,
		accountService:  accountService,
		transferService: transferService,
	}
}

// Nonce issues a single-use nonce for a new login attempt
func (h *Handlers) Nonce(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !common.IsHexAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address"})
		return
	}

	nonce, err := h.authService.IssueNonce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue nonce"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":      nonce,
		"expires_in": int(h.authService.ChallengeTTL().Seconds()),
	})
}

// Login verifies a signed sign-in message and opens a session
func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Message   string `json:"message" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	accessToken, refreshToken, account, err := h.authService.Login(c.Request.Context(), req.Message, req.Signature)
	if err != nil {
		status, msg := loginFailure(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"expires_in":    300, // 5 minutes in seconds
		"user":          account,
	})
}

// loginFailure maps a verification failure to a status code and a short
// human-readable reason. Failures leave the caller unauthenticated and free
// to retry with a fresh nonce.
func loginFailure(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrMalformedMessage):
		return http.StatusBadRequest, "Malformed sign-in message"
	case errors.Is(err, core.ErrInvalidSignature):
		return http.StatusUnauthorized, "Invalid signature"
	case errors.Is(err, core.ErrDomainMismatch):
		return http.StatusUnauthorized, "Message bound to another domain"
	case errors.Is(err, core.ErrReplayedNonce):
		return http.StatusUnauthorized, "Nonce already used or unknown"
	case errors.Is(err, core.ErrExpiredChallenge):
		return http.StatusUnauthorized, "Challenge expired"
	case errors.Is(err, core.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "Temporary failure, try again"
	default:
		return http.StatusInternalServerError, "Authentication failed"
	}
}

// Refresh handles token refresh
func (h *Handlers) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	accessToken, refreshToken, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Failed to refresh tokens"

		switch {
		case errors.Is(err, core.ErrTokenExpired):
			statusCode = http.StatusUnauthorized
			errorMsg = "Refresh token expired"
		case errors.Is(err, core.ErrTokenInvalidated):
			statusCode = http.StatusUnauthorized
			errorMsg = "Refresh token has been invalidated"
		case errors.Is(err, core.ErrInvalidToken):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid refresh token"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"expires_in":    300,
	})
}

// Logout invalidates the session without affecting the account
func (h *Handlers) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			// Expired sessions count as logged out
			c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the authenticated user's account
func (h *Handlers) Me(c *gin.Context) {
	accountID := c.GetString(ContextAccountID)

	account, err := h.accountService.GetByID(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to load account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": account})
}

// UpdateProfile applies a partial profile edit to the authenticated account
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var patch core.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	account, err := h.accountService.UpdateProfile(c.Request.Context(), c.GetString(ContextAccountID), patch)
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": account})
}

// GetUser returns a public account profile by id
func (h *Handlers) GetUser(c *gin.Context) {
	account, err := h.accountService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": account})
}

// GetUserByWallet returns a public account profile by wallet address.
// An unknown address yields a null user, not a 404, so clients can handle
// the new-user case.
func (h *Handlers) GetUserByWallet(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address"})
		return
	}

	account, err := h.accountService.GetByWallet(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": account})
}

// Transfers lists the token transfer history of the session wallet
func (h *Handlers) Transfers(c *gin.Context) {
	direction := core.TransferDirection(c.DefaultQuery("direction", string(core.TransferAll)))
	switch direction {
	case core.TransferAll, core.TransferSent, core.TransferReceived:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid direction"})
		return
	}

	address := common.HexToAddress(c.GetString(ContextUserAddress))
	transfers, err := h.transferService.History(c.Request.Context(), address, direction)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to load transfer history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}
