package repository

import (
	"context"

	"app/internal/domain/model"
)

type CourseRepository interface {
	ListPublic(ctx context.Context, page int, limit int) ([]model.Course, int64, error)
	FindByID(ctx context.Context, courseID int64) (model.Course, error)
	ListLessonsByCourseID(ctx context.Context, courseID int64) ([]model.Lesson, error)
}
