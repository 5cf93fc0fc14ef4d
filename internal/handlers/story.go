package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stories-service/internal/feed"
	"stories-service/internal/models"
	"stories-service/internal/observability"
	"stories-service/internal/rabbitmq"
	"stories-service/internal/repositories"
	"stories-service/internal/telemetry"
	"stories-service/internal/ws"
)

// StoryHandler manages story endpoints.
type StoryHandler struct {
	storyRepo repositories.StoryRepository
	userRepo  repositories.UserRepository
	hub       *ws.Hub
	events    rabbitmq.Publisher
	audit     *telemetry.AuditEmitter
}

// NewStoryHandler builds a StoryHandler.
func NewStoryHandler(storyRepo repositories.StoryRepository, userRepo repositories.UserRepository, hub *ws.Hub, events rabbitmq.Publisher, audit *telemetry.AuditEmitter) *StoryHandler {
	return &StoryHandler{
		storyRepo: storyRepo,
		userRepo:  userRepo,
		hub:       hub,
		events:    events,
		audit:     audit,
	}
}

// ListStories returns the grouped story feed for the authenticated user.
func (h *StoryHandler) ListStories(c *gin.Context) {
	userID := c.GetInt("userID")

	if _, err := h.userRepo.GetUser(c.Request.Context(), userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	stories, err := h.storyRepo.FeedStories(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stories": feed.GroupStories(stories)})
}

// CreateStory stores a new story and notifies the author's followers.
func (h *StoryHandler) CreateStory(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Image string `json:"image" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
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

	story, err := h.storyRepo.CreateStory(c.Request.Context(), author, req.Image)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store story"})
		return
	}

	observability.IncItemCreated("story")
	h.emitAudit(c, "INFO", "Story created")
	h.publishContentEvent(c, "content.story.created", contentEvent{
		ItemKind: "story",
		ItemID:   story.ID,
		AuthorID: story.AuthorID,
	})
	h.notifyStoryAudience(c, story)

	c.JSON(http.StatusCreated, story)
}

// MarkStoryViewed records that the authenticated user has seen a story.
// Repeated marks are no-ops.
func (h *StoryHandler) MarkStoryViewed(c *gin.Context) {
	storyID, err := strconv.Atoi(c.Param("story_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid story id"})
		return
	}

	userID := c.GetInt("userID")
	story, err := h.storyRepo.GetStory(c.Request.Context(), storyID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrStoryNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "story not found"})
		return
	}

	// A story outside the viewer's candidate set looks exactly like a
	// missing one, so out-of-band ids leak nothing.
	visible, err := h.canViewStory(c, story, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify visibility"})
		return
	}
	if !visible {
		c.JSON(http.StatusNotFound, gin.H{"error": "story not found"})
		return
	}

	if err := h.storyRepo.MarkViewed(c.Request.Context(), storyID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark story viewed"})
		return
	}

	observability.IncViewMarked("story")
	h.publishContentEvent(c, "content.view.marked", contentEvent{
		ItemKind: "story",
		ItemID:   storyID,
		AuthorID: story.AuthorID,
		ViewerID: userID,
	})
	if h.hub != nil && story.AuthorID != userID {
		h.hub.BroadcastToUsers([]int{story.AuthorID}, models.FeedEvent{Type: "story_viewed", ItemID: storyID, ViewerID: userID})
	}

	c.Status(http.StatusNoContent)
}

func (h *StoryHandler) canViewStory(c *gin.Context, story models.Story, userID int) (bool, error) {
	if story.AuthorID == userID {
		return true, nil
	}
	return h.userRepo.IsFollowing(c.Request.Context(), userID, story.AuthorID)
}

func (h *StoryHandler) notifyStoryAudience(c *gin.Context, story models.Story) {
	if h.hub == nil {
		return
	}
	followers, err := h.userRepo.FollowerIDs(c.Request.Context(), story.AuthorID)
	if err != nil {
		log.Printf("failed to load story audience: %v", err)
		return
	}
	h.hub.BroadcastToUsers(followers, models.FeedEvent{Type: "story_added", Story: &story})
}

func (h *StoryHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), auditUserID(c))
}

func (h *StoryHandler) publishContentEvent(c *gin.Context, routingKey string, event contentEvent) {
	publishContentEvent(c, h.events, routingKey, event)
}

// contentEvent is the payload published for content lifecycle changes.
type contentEvent struct {
	SchemaVersion int    `json:"schema_version"`
	OccurredAt    string `json:"occurred_at"`
	ItemKind      string `json:"item_kind"`
	ItemID        int    `json:"item_id"`
	AuthorID      int    `json:"author_id"`
	ViewerID      int    `json:"viewer_id,omitempty"`
}

// publishContentEvent emits a domain event. Publishing is a side effect and
// must never fail the request it is attached to.
func publishContentEvent(c *gin.Context, events rabbitmq.Publisher, routingKey string, event contentEvent) {
	if events == nil {
		return
	}
	event.SchemaVersion = 1
	event.OccurredAt = time.Now().UTC().Format(time.RFC3339Nano)
	if err := events.Publish(c.Request.Context(), routingKey, event); err != nil {
		log.Printf("content event publish failed: %v", err)
	}
}
