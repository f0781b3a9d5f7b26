package usecase_test

import (
	"context"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCourseUsecase_ListPublicCourses_InvalidLimit(t *testing.T) {
	courses := new(CourseRepoMock)
	uc := usecase.NewCourseUsecase(courses)

	_, err := uc.ListPublicCourses(context.Background(), 1, 101)
	assertErrContains(t, err, "invalid limit")

	courses.AssertNotCalled(t, "ListPublic", mock.Anything, mock.Anything, mock.Anything)
}

func TestCourseUsecase_ListPublicCourses_Success(t *testing.T) {
	courses := new(CourseRepoMock)
	courses.On("ListPublic", mock.Anything, 2, 10).Return([]model.Course{
		{ID: 12, Title: "Tally Basics", Price: 2999, IsActive: true},
	}, int64(11), nil)

	uc := usecase.NewCourseUsecase(courses)

	out, err := uc.ListPublicCourses(context.Background(), 2, 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(11), out.Total)
	assert.Equal(t, 2, out.Page)
	assert.Equal(t, 1, len(out.Items))
}

func TestCourseUsecase_GetCourseDetail_InactiveIsNotFound(t *testing.T) {
	courses := new(CourseRepoMock)
	courses.On("FindByID", mock.Anything, int64(12)).Return(model.Course{ID: 12, IsActive: false}, nil)

	uc := usecase.NewCourseUsecase(courses)

	_, err := uc.GetCourseDetail(context.Background(), 12)
	assertErrContains(t, err, "course not found")

	courses.AssertNotCalled(t, "ListLessonsByCourseID", mock.Anything, mock.Anything)
}

func TestCourseUsecase_GetCourseDetail_Missing(t *testing.T) {
	courses := new(CourseRepoMock)
	courses.On("FindByID", mock.Anything, int64(99)).Return(model.Course{}, repo.ErrNotFound)

	uc := usecase.NewCourseUsecase(courses)

	_, err := uc.GetCourseDetail(context.Background(), 99)
	assertErrContains(t, err, "course not found")
}

// 一覧サマリに動画URLが混ざらないこと
func TestCourseUsecase_GetCourseDetail_LessonSummaryHasNoVideoURL(t *testing.T) {
	courses := new(CourseRepoMock)
	courses.On("FindByID", mock.Anything, int64(12)).Return(model.Course{
		ID: 12, Title: "Tally Basics", IsActive: true,
	}, nil)
	courses.On("ListLessonsByCourseID", mock.Anything, int64(12)).Return([]model.Lesson{
		{ID: 1, Title: "Intro", VideoURL: "https://cdn/intro.mp4", DurationSec: 300, IsFreePreview: true, Position: 1},
		{ID: 2, Title: "Ledgers", VideoURL: "https://cdn/ledgers.mp4", DurationSec: 900, Position: 2},
	}, nil)

	uc := usecase.NewCourseUsecase(courses)

	out, err := uc.GetCourseDetail(context.Background(), 12)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(out.Lessons))
	assert.Equal(t, "Intro", out.Lessons[0].Title)
	assert.True(t, out.Lessons[0].IsFreePreview)
	assert.Equal(t, int64(900), out.Lessons[1].DurationSec)
}
