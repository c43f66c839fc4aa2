package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kindredapp/kindred/internal/generate"
	"github.com/kindredapp/kindred/internal/ledger"
	"github.com/kindredapp/kindred/internal/models"
	"github.com/kindredapp/kindred/internal/quota"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// userIDHeader carries the authenticated user's ID, set by the auth proxy
// in front of this service.
const userIDHeader = "X-User-ID"

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	router.GET("/healthz", handleHealth())

	api := router.Group("/api")
	api.GET("/personas", handleListPersonas(opts.DB))
	api.GET("/personas/:id/messages", handleListMessages(opts.DB))
	api.POST("/personas/:id/chat", handleChat(opts))
	api.POST("/conversations/:id/read", handleMarkRead(opts.DB))
	api.DELETE("/messages/:id/voice", handleDeleteVoice(opts.DB))
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// callerID resolves the authenticated user from the request, or aborts 401.
func callerID(c *gin.Context) (uint, bool) {
	raw := c.GetHeader(userIDHeader)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + userIDHeader})
		return 0, false
	}
	return uint(id), true
}

// pathID parses a numeric path parameter, or aborts 400.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// ownedPersona loads a persona and checks the caller owns it. Aborts 404 on
// missing or foreign personas; ownership failures look identical to absence.
func ownedPersona(c *gin.Context, gdb *gorm.DB, userID, personaID uint) (*models.Persona, bool) {
	var persona models.Persona
	err := gdb.First(&persona, personaID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && persona.UserID != userID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "persona not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return nil, false
	}
	return &persona, true
}

func handleListPersonas(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var personas []models.Persona
		if err := gdb.Where("user_id = ?", userID).Order("id ASC").Find(&personas).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"personas": personas})
	}
}

func handleListMessages(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		personaID, ok := pathID(c, "id")
		if !ok {
			return
		}
		persona, ok := ownedPersona(c, gdb, userID, personaID)
		if !ok {
			return
		}

		conv, err := ledger.GetOrCreateConversation(gdb, persona.UserID, persona.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		msgs, err := ledger.List(gdb, conv.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversation_id": conv.ID, "messages": msgs})
	}
}

type chatRequest struct {
	Text string `json:"text" binding:"required"`
}

// handleChat is the reactive path: the user writes, the persona answers.
// It shares quota accounting with the dispatch loop, so the same atomic
// increment discipline applies.
func handleChat(opts StartOpts) gin.HandlerFunc {
	gdb := opts.DB
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		personaID, ok := pathID(c, "id")
		if !ok {
			return
		}
		persona, ok := ownedPersona(c, gdb, userID, personaID)
		if !ok {
			return
		}

		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
			return
		}

		conv, err := ledger.GetOrCreateConversation(gdb, persona.UserID, persona.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}

		allowed, err := quota.Check(gdb, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "usage limit reached"})
			return
		}

		userMsg, err := ledger.Append(gdb, conv.ID, req.Text, false, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}

		history, err := ledger.List(gdb, conv.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}

		text, genErr := opts.Generator.Reply(c.Request.Context(), persona, history)
		switch {
		case genErr == nil:
			if err := quota.Increment(gdb, userID, 1); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
				return
			}
		case generate.Retryable(genErr):
			opts.Logger.Warn("reply degraded to fallback",
				zap.Uint("persona", persona.ID),
				zap.Error(genErr))
			text = generate.FallbackText(persona)
		default:
			opts.Logger.Error("reply generation failed",
				zap.Uint("persona", persona.ID),
				zap.Error(genErr))
			c.JSON(http.StatusBadGateway, gin.H{"error": "generation failed"})
			return
		}

		reply, err := ledger.Append(gdb, conv.ID, text, true, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": userMsg, "reply": reply})
	}
}

func handleMarkRead(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		convID, ok := pathID(c, "id")
		if !ok {
			return
		}

		var conv models.Conversation
		err := gdb.First(&conv, convID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && conv.UserID != userID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}

		n, err := ledger.MarkConversationRead(gdb, conv.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"marked": n})
	}
}

func handleDeleteVoice(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		msgID, ok := pathID(c, "id")
		if !ok {
			return
		}

		// Walk message -> conversation to verify ownership.
		var msg models.Message
		err := gdb.First(&msg, msgID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		var conv models.Conversation
		if err := gdb.First(&conv, msg.ConversationID).Error; err != nil || conv.UserID != userID {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}

		if err := ledger.ClearVoice(gdb, msg.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
