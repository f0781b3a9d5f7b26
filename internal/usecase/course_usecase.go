package usecase

import (
	"context"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 講座カタログの公開読み取り。動画URLはここからは出さない
// （視聴はenrollmentのGetContent経由のみ）。
type CourseUsecase struct {
	courseRepo repo.CourseRepository
}

func NewCourseUsecase(courseRepo repo.CourseRepository) *CourseUsecase {
	return &CourseUsecase{courseRepo: courseRepo}
}

type CourseListOutput struct {
	Items []model.Course `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type CourseLessonSummary struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	DurationSec   int64  `json:"duration_sec"`
	IsFreePreview bool   `json:"is_free_preview"`
	Position      int64  `json:"position"`
}

type CourseDetailOutput struct {
	Course  model.Course          `json:"course"`
	Lessons []CourseLessonSummary `json:"lessons"`
}

func (u *CourseUsecase) ListPublicCourses(ctx context.Context, page int, limit int) (CourseListOutput, error) {
	if page < 1 {
		return CourseListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return CourseListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	items, total, err := u.courseRepo.ListPublic(ctx, page, limit)
	if err != nil {
		return CourseListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return CourseListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (u *CourseUsecase) GetCourseDetail(ctx context.Context, courseID int64) (CourseDetailOutput, error) {
	if courseID <= 0 {
		return CourseDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	c, err := u.courseRepo.FindByID(ctx, courseID)
	if err == repo.ErrNotFound {
		return CourseDetailOutput{}, NewHTTPError(http.StatusNotFound, "course not found")
	}
	if err != nil {
		return CourseDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !c.IsActive {
		return CourseDetailOutput{}, NewHTTPError(http.StatusNotFound, "course not found")
	}

	lessons, err := u.courseRepo.ListLessonsByCourseID(ctx, courseID)
	if err != nil {
		return CourseDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 一覧用のサマリにはVideoURLを載せない
	outs := make([]CourseLessonSummary, 0, len(lessons))
	for _, l := range lessons {
		outs = append(outs, CourseLessonSummary{
			ID:            l.ID,
			Title:         l.Title,
			DurationSec:   l.DurationSec,
			IsFreePreview: l.IsFreePreview,
			Position:      l.Position,
		})
	}

	return CourseDetailOutput{Course: c, Lessons: outs}, nil
}
