package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"stories-service/internal/models"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) FollowerIDs(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *UserRepositoryMock) MutualFollowerIDs(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *UserRepositoryMock) IsFollowing(ctx context.Context, followerID int, followingID int) (bool, error) {
	args := m.Called(ctx, followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) AreMutuals(ctx context.Context, userID int, otherID int) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

type StoryRepositoryMock struct {
	mock.Mock
}

func (m *StoryRepositoryMock) CreateStory(ctx context.Context, author models.User, imageURL string) (models.Story, error) {
	args := m.Called(ctx, author, imageURL)
	var story models.Story
	if val := args.Get(0); val != nil {
		story = val.(models.Story)
	}
	return story, args.Error(1)
}

func (m *StoryRepositoryMock) GetStory(ctx context.Context, storyID int) (models.Story, error) {
	args := m.Called(ctx, storyID)
	var story models.Story
	if val := args.Get(0); val != nil {
		story = val.(models.Story)
	}
	return story, args.Error(1)
}

func (m *StoryRepositoryMock) FeedStories(ctx context.Context, viewerID int) ([]models.StoryWithView, error) {
	args := m.Called(ctx, viewerID)
	var stories []models.StoryWithView
	if val := args.Get(0); val != nil {
		stories = val.([]models.StoryWithView)
	}
	return stories, args.Error(1)
}

func (m *StoryRepositoryMock) MarkViewed(ctx context.Context, storyID int, viewerID int) error {
	args := m.Called(ctx, storyID, viewerID)
	return args.Error(0)
}

func (m *StoryRepositoryMock) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type NoteRepositoryMock struct {
	mock.Mock
}

func (m *NoteRepositoryMock) CreateNote(ctx context.Context, author models.User, text string) (models.Note, error) {
	args := m.Called(ctx, author, text)
	var note models.Note
	if val := args.Get(0); val != nil {
		note = val.(models.Note)
	}
	return note, args.Error(1)
}

func (m *NoteRepositoryMock) GetNote(ctx context.Context, noteID int) (models.Note, error) {
	args := m.Called(ctx, noteID)
	var note models.Note
	if val := args.Get(0); val != nil {
		note = val.(models.Note)
	}
	return note, args.Error(1)
}

func (m *NoteRepositoryMock) FeedNotes(ctx context.Context, viewerID int) ([]models.NoteWithView, error) {
	args := m.Called(ctx, viewerID)
	var notes []models.NoteWithView
	if val := args.Get(0); val != nil {
		notes = val.([]models.NoteWithView)
	}
	return notes, args.Error(1)
}

func (m *NoteRepositoryMock) MarkViewed(ctx context.Context, noteID int, viewerID int) error {
	args := m.Called(ctx, noteID, viewerID)
	return args.Error(0)
}

func (m *NoteRepositoryMock) DeleteNote(ctx context.Context, noteID int) error {
	args := m.Called(ctx, noteID)
	return args.Error(0)
}

func (m *NoteRepositoryMock) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
