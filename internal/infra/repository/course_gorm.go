package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type CourseGormRepository struct {
	db *gorm.DB
}

func NewCourseGormRepository(db *gorm.DB) *CourseGormRepository {
	return &CourseGormRepository{db: db}
}

// 公開中の講座のみ
func (r *CourseGormRepository) ListPublic(ctx context.Context, page int, limit int) ([]model.Course, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Course{}).Where("is_active = ?", true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Course{}, 0, err
	}

	var items []model.Course
	offset := (page - 1) * limit
	if err := q.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Course{}, 0, err
	}
	return items, total, nil
}

func (r *CourseGormRepository) FindByID(ctx context.Context, courseID int64) (model.Course, error) {
	var c model.Course
	err := r.db.WithContext(ctx).Where("id = ?", courseID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Course{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Course{}, err
	}
	return c, nil
}

func (r *CourseGormRepository) ListLessonsByCourseID(ctx context.Context, courseID int64) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position asc").Order("id asc").
		Find(&lessons).Error
	if err != nil {
		return []model.Lesson{}, err
	}
	return lessons, nil
}
