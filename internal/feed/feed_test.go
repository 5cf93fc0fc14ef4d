package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stories-service/internal/models"
)

func storyItem(id, authorID int, createdAt time.Time, viewed bool) models.StoryWithView {
	return models.StoryWithView{
		Story: models.Story{
			ID:             id,
			AuthorID:       authorID,
			AuthorUsername: "user",
			CreatedAt:      createdAt,
			ExpiresAt:      createdAt.Add(24 * time.Hour),
		},
		IsViewed: viewed,
	}
}

func noteItem(id, authorID int, text string, createdAt time.Time, viewed bool) models.NoteWithView {
	return models.NoteWithView{
		Note: models.Note{
			ID:             id,
			AuthorID:       authorID,
			AuthorUsername: "user",
			Text:           text,
			CreatedAt:      createdAt,
			ExpiresAt:      createdAt.Add(24 * time.Hour),
		},
		IsViewed: viewed,
	}
}

func TestGroupStoriesGroupsByAuthorNewestFirst(t *testing.T) {
	now := time.Now()
	// Input arrives newest-first, interleaved across two authors.
	items := []models.StoryWithView{
		storyItem(4, 2, now, false),
		storyItem(3, 1, now.Add(-time.Hour), false),
		storyItem(2, 2, now.Add(-2*time.Hour), false),
		storyItem(1, 1, now.Add(-3*time.Hour), false),
	}

	groups := GroupStories(items)
	require.Len(t, groups, 2)

	assert.Equal(t, 2, groups[0].UserID)
	assert.Equal(t, []int{4, 2}, storyIDs(groups[0].Stories))
	assert.Equal(t, 1, groups[1].UserID)
	assert.Equal(t, []int{3, 1}, storyIDs(groups[1].Stories))
}

func TestGroupStoriesUnviewedPrecedeViewedWithinGroup(t *testing.T) {
	now := time.Now()
	items := []models.StoryWithView{
		storyItem(5, 1, now, true),
		storyItem(4, 1, now.Add(-time.Hour), false),
		storyItem(3, 1, now.Add(-2*time.Hour), true),
		storyItem(2, 1, now.Add(-3*time.Hour), false),
	}

	groups := GroupStories(items)
	require.Len(t, groups, 1)

	// Unviewed keep their relative recency, then viewed keep theirs.
	assert.Equal(t, []int{4, 2, 5, 3}, storyIDs(groups[0].Stories))
	assert.True(t, groups[0].HasUnviewed)
}

func TestGroupStoriesUnviewedGroupsPrecedeViewedGroups(t *testing.T) {
	now := time.Now()
	items := []models.StoryWithView{
		storyItem(6, 3, now, true),
		storyItem(5, 2, now.Add(-time.Hour), false),
		storyItem(4, 1, now.Add(-2*time.Hour), true),
	}

	groups := GroupStories(items)
	require.Len(t, groups, 3)

	assert.Equal(t, 2, groups[0].UserID)
	assert.True(t, groups[0].HasUnviewed)
	// All-viewed groups keep their original recency order behind unviewed.
	assert.Equal(t, 3, groups[1].UserID)
	assert.Equal(t, 1, groups[2].UserID)
	assert.False(t, groups[1].HasUnviewed)
	assert.False(t, groups[2].HasUnviewed)
}

func TestGroupStoriesEmptyInput(t *testing.T) {
	groups := GroupStories(nil)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGroupStoriesCarriesAuthorSnapshot(t *testing.T) {
	now := time.Now()
	item := storyItem(1, 7, now, false)
	item.AuthorUsername = "alice"
	item.AuthorAvatar = "https://cdn.example/alice.png"
	item.ImageURL = "https://cdn.example/img1.png"

	groups := GroupStories([]models.StoryWithView{item})
	require.Len(t, groups, 1)
	assert.Equal(t, "alice", groups[0].Username)
	assert.Equal(t, "https://cdn.example/alice.png", groups[0].UserAvatar)
	require.Len(t, groups[0].Stories, 1)
	assert.Equal(t, "https://cdn.example/img1.png", groups[0].Stories[0].Image)
	assert.False(t, groups[0].Stories[0].IsViewed)
}

func TestGroupNotesKeepsNewestPerAuthor(t *testing.T) {
	now := time.Now()
	items := []models.NoteWithView{
		noteItem(3, 1, "second", now, false),
		noteItem(2, 2, "hello", now.Add(-time.Hour), false),
		noteItem(1, 1, "first", now.Add(-2*time.Hour), false),
	}

	entries := GroupNotes(items)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Note.Text)
	assert.Equal(t, 1, entries[0].UserID)
	assert.Equal(t, "hello", entries[1].Note.Text)
}

func TestGroupNotesUnviewedEntriesFirst(t *testing.T) {
	now := time.Now()
	items := []models.NoteWithView{
		noteItem(3, 3, "seen", now, true),
		noteItem(2, 2, "fresh", now.Add(-time.Hour), false),
		noteItem(1, 1, "old seen", now.Add(-2*time.Hour), true),
	}

	entries := GroupNotes(items)
	require.Len(t, entries, 3)
	assert.Equal(t, 2, entries[0].UserID)
	assert.False(t, entries[0].Note.IsViewed)
	assert.Equal(t, 3, entries[1].UserID)
	assert.Equal(t, 1, entries[2].UserID)
}

func TestGroupNotesEmptyInput(t *testing.T) {
	entries := GroupNotes(nil)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func storyIDs(items []StoryItem) []int {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}
