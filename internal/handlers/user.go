package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crash-rounds-backend/internal/services"
)

type UserHandler struct {
	directory  services.UserDirectory
	jwtService *services.JWTService
}

func NewUserHandler(directory services.UserDirectory, jwtService *services.JWTService) *UserHandler {
	return &UserHandler{
		directory:  directory,
		jwtService: jwtService,
	}
}

type loginRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Username string `json:"username"`
}

// Login issues a bearer token for a player address. Wallet custody and
// real authentication live outside this service.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	token, err := h.jwtService.GenerateToken(req.PlayerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}

func (h *UserHandler) GetCurrentPlayer(c *gin.Context) {
	playerID := c.GetString("player_id")
	if playerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Player not authenticated"})
		return
	}

	player, err := h.directory.GetPlayer(playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to resolve player",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"player":  player,
	})
}

// GetBalance is a read-only directory lookup for display. Value
// transfer only ever flows through the settlement gateway.
func (h *UserHandler) GetBalance(c *gin.Context) {
	playerID := c.GetString("player_id")

	player, err := h.directory.GetPlayer(playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get balance",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": gin.H{
			"amount":    player.Balance,
			"coin_type": player.CoinType,
		},
	})
}
