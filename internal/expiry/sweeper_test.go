package expiry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"stories-service/internal/mocks"
)

func TestSweepOnceDeletesExpiredItems(t *testing.T) {
	storyRepo := new(mocks.StoryRepositoryMock)
	noteRepo := new(mocks.NoteRepositoryMock)
	sweeper := NewSweeper(storyRepo, noteRepo, time.Minute)

	storyRepo.On("DeleteExpired", mock.Anything).Return(int64(3), nil).Once()
	noteRepo.On("DeleteExpired", mock.Anything).Return(int64(1), nil).Once()

	sweeper.SweepOnce(context.Background())

	storyRepo.AssertExpectations(t)
	noteRepo.AssertExpectations(t)
}

func TestSweepOnceToleratesStoryFailure(t *testing.T) {
	storyRepo := new(mocks.StoryRepositoryMock)
	noteRepo := new(mocks.NoteRepositoryMock)
	sweeper := NewSweeper(storyRepo, noteRepo, time.Minute)

	// A failing story sweep must not prevent the note sweep.
	storyRepo.On("DeleteExpired", mock.Anything).Return(int64(0), context.DeadlineExceeded).Once()
	noteRepo.On("DeleteExpired", mock.Anything).Return(int64(2), nil).Once()

	sweeper.SweepOnce(context.Background())

	storyRepo.AssertExpectations(t)
	noteRepo.AssertExpectations(t)
}

func TestNewSweeperDefaultsInterval(t *testing.T) {
	sweeper := NewSweeper(nil, nil, 0)
	if sweeper.interval != time.Minute {
		t.Fatalf("expected default interval of one minute, got %v", sweeper.interval)
	}
}
