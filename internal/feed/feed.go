// Package feed turns flat lists of live ephemeral items into the per-author
// groups the feed endpoints return. Inputs are expected newest-first; all
// reordering here is stable, so recency is preserved inside every partition.
package feed

import (
	"time"

	"stories-service/internal/models"
)

// StoryItem is a single story as rendered inside a feed group.
type StoryItem struct {
	ID        int       `json:"id"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	IsViewed  bool      `json:"is_viewed"`
}

// StoryGroup is one author's live stories.
type StoryGroup struct {
	UserID      int         `json:"user_id"`
	Username    string      `json:"username"`
	UserAvatar  string      `json:"user_avatar"`
	Stories     []StoryItem `json:"stories"`
	HasUnviewed bool        `json:"has_unviewed"`
}

// NoteItem is a note as rendered inside the feed.
type NoteItem struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	IsViewed  bool      `json:"is_viewed"`
}

// NoteEntry is one author's single live note.
type NoteEntry struct {
	UserID     int      `json:"user_id"`
	Username   string   `json:"username"`
	UserAvatar string   `json:"user_avatar"`
	Note       NoteItem `json:"note"`
}

// GroupStories groups newest-first stories by author. Authors appear in order
// of their newest story; within a group unviewed stories precede viewed ones,
// and across groups authors with at least one unviewed story come first.
func GroupStories(items []models.StoryWithView) []StoryGroup {
	var order []int
	byAuthor := make(map[int]*StoryGroup)

	for _, item := range items {
		group, ok := byAuthor[item.AuthorID]
		if !ok {
			group = &StoryGroup{
				UserID:     item.AuthorID,
				Username:   item.AuthorUsername,
				UserAvatar: item.AuthorAvatar,
			}
			byAuthor[item.AuthorID] = group
			order = append(order, item.AuthorID)
		}
		group.Stories = append(group.Stories, StoryItem{
			ID:        item.ID,
			Image:     item.ImageURL,
			CreatedAt: item.CreatedAt,
			IsViewed:  item.IsViewed,
		})
		if !item.IsViewed {
			group.HasUnviewed = true
		}
	}

	groups := make([]StoryGroup, 0, len(order))
	for _, authorID := range order {
		group := byAuthor[authorID]
		group.Stories = unviewedFirst(group.Stories)
		groups = append(groups, *group)
	}
	return unviewedGroupsFirst(groups)
}

// GroupNotes keeps the newest note per author (the first encountered in the
// newest-first input) and orders authors with an unviewed note ahead of the
// rest.
func GroupNotes(items []models.NoteWithView) []NoteEntry {
	var entries []NoteEntry
	seen := make(map[int]bool)

	for _, item := range items {
		if seen[item.AuthorID] {
			continue
		}
		seen[item.AuthorID] = true
		entries = append(entries, NoteEntry{
			UserID:     item.AuthorID,
			Username:   item.AuthorUsername,
			UserAvatar: item.AuthorAvatar,
			Note: NoteItem{
				ID:        item.ID,
				Text:      item.Text,
				CreatedAt: item.CreatedAt,
				IsViewed:  item.IsViewed,
			},
		})
	}

	unviewed := make([]NoteEntry, 0, len(entries))
	var viewed []NoteEntry
	for _, entry := range entries {
		if entry.Note.IsViewed {
			viewed = append(viewed, entry)
		} else {
			unviewed = append(unviewed, entry)
		}
	}
	return append(unviewed, viewed...)
}

func unviewedFirst(items []StoryItem) []StoryItem {
	unviewed := make([]StoryItem, 0, len(items))
	var viewed []StoryItem
	for _, item := range items {
		if item.IsViewed {
			viewed = append(viewed, item)
		} else {
			unviewed = append(unviewed, item)
		}
	}
	return append(unviewed, viewed...)
}

func unviewedGroupsFirst(groups []StoryGroup) []StoryGroup {
	unviewed := make([]StoryGroup, 0, len(groups))
	var viewed []StoryGroup
	for _, group := range groups {
		if group.HasUnviewed {
			unviewed = append(unviewed, group)
		} else {
			viewed = append(viewed, group)
		}
	}
	return append(unviewed, viewed...)
}
