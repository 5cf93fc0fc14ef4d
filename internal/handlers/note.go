package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"stories-service/internal/feed"
	"stories-service/internal/models"
	"stories-service/internal/observability"
	"stories-service/internal/rabbitmq"
	"stories-service/internal/repositories"
	"stories-service/internal/telemetry"
	"stories-service/internal/ws"
)

// NoteHandler manages note endpoints.
type NoteHandler struct {
	noteRepo repositories.NoteRepository
	userRepo repositories.UserRepository
	hub      *ws.Hub
	events   rabbitmq.Publisher
	audit    *telemetry.AuditEmitter
}

// NewNoteHandler builds a NoteHandler.
func NewNoteHandler(noteRepo repositories.NoteRepository, userRepo repositories.UserRepository, hub *ws.Hub, events rabbitmq.Publisher, audit *telemetry.AuditEmitter) *NoteHandler {
	return &NoteHandler{
		noteRepo: noteRepo,
		userRepo: userRepo,
		hub:      hub,
		events:   events,
		audit:    audit,
	}
}

// ListNotes returns the note feed for the authenticated user, one entry per
// mutual follow, plus the user's own note.
func (h *NoteHandler) ListNotes(c *gin.Context) {
	userID := c.GetInt("userID")

	if _, err := h.userRepo.GetUser(c.Request.Context(), userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	notes, err := h.noteRepo.FeedNotes(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notes": feed.GroupNotes(notes)})
}

// CreateNote replaces the author's current note with a new one and notifies
// mutual followers.
func (h *NoteHandler) CreateNote(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if utf8.RuneCountInString(req.Text) > models.MaxNoteLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "note text exceeds 60 characters"})
		return
	}

	author, err := h.userRepo.GetUser(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	note, err := h.noteRepo.CreateNote(c.Request.Context(), author, req.Text)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store note"})
		return
	}

	observability.IncItemCreated("note")
	h.emitAudit(c, "INFO", "Note created")
	h.publishContentEvent(c, "content.note.created", contentEvent{
		ItemKind: "note",
		ItemID:   note.ID,
		AuthorID: note.AuthorID,
	})
	h.notifyNoteAudience(c, note)

	c.JSON(http.StatusCreated, note)
}

// MarkNoteViewed records that the authenticated user has seen a note.
// Repeated marks are no-ops.
func (h *NoteHandler) MarkNoteViewed(c *gin.Context) {
	noteID, err := strconv.Atoi(c.Param("note_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid note id"})
		return
	}

	userID := c.GetInt("userID")
	note, err := h.noteRepo.GetNote(c.Request.Context(), noteID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrNoteNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "note not found"})
		return
	}

	// Notes are mutual-follow only; anything outside the candidate set is
	// indistinguishable from a missing note.
	visible, err := h.canViewNote(c, note, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify visibility"})
		return
	}
	if !visible {
		c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
		return
	}

	if err := h.noteRepo.MarkViewed(c.Request.Context(), noteID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark note viewed"})
		return
	}

	observability.IncViewMarked("note")
	h.publishContentEvent(c, "content.view.marked", contentEvent{
		ItemKind: "note",
		ItemID:   noteID,
		AuthorID: note.AuthorID,
		ViewerID: userID,
	})
	if h.hub != nil && note.AuthorID != userID {
		h.hub.BroadcastToUsers([]int{note.AuthorID}, models.FeedEvent{Type: "note_viewed", ItemID: noteID, ViewerID: userID})
	}

	c.Status(http.StatusNoContent)
}

// DeleteNote hard-deletes the authenticated user's own note.
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	noteID, err := strconv.Atoi(c.Param("note_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid note id"})
		return
	}

	userID := c.GetInt("userID")
	note, err := h.noteRepo.GetNote(c.Request.Context(), noteID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrNoteNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "note not found"})
		return
	}
	if note.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the author can delete a note"})
		return
	}

	if err := h.noteRepo.DeleteNote(c.Request.Context(), noteID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrNoteNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete note"})
		return
	}

	h.emitAudit(c, "INFO", "Note deleted")
	if h.hub != nil {
		h.notifyNoteRemoved(c, note)
	}

	c.Status(http.StatusNoContent)
}

func (h *NoteHandler) canViewNote(c *gin.Context, note models.Note, userID int) (bool, error) {
	if note.AuthorID == userID {
		return true, nil
	}
	return h.userRepo.AreMutuals(c.Request.Context(), userID, note.AuthorID)
}

func (h *NoteHandler) notifyNoteAudience(c *gin.Context, note models.Note) {
	if h.hub == nil {
		return
	}
	mutuals, err := h.userRepo.MutualFollowerIDs(c.Request.Context(), note.AuthorID)
	if err != nil {
		log.Printf("failed to load note audience: %v", err)
		return
	}
	h.hub.BroadcastToUsers(mutuals, models.FeedEvent{Type: "note_added", Note: &note})
}

func (h *NoteHandler) notifyNoteRemoved(c *gin.Context, note models.Note) {
	mutuals, err := h.userRepo.MutualFollowerIDs(c.Request.Context(), note.AuthorID)
	if err != nil {
		log.Printf("failed to load note audience: %v", err)
		return
	}
	h.hub.BroadcastToUsers(mutuals, models.FeedEvent{Type: "note_removed", ItemID: note.ID})
}

func (h *NoteHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), auditUserID(c))
}

func (h *NoteHandler) publishContentEvent(c *gin.Context, routingKey string, event contentEvent) {
	publishContentEvent(c, h.events, routingKey, event)
}
