package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentGormRepository struct {
	db *gorm.DB
}

func NewEnrollmentGormRepository(db *gorm.DB) *EnrollmentGormRepository {
	return &EnrollmentGormRepository{db: db}
}

func (r *EnrollmentGormRepository) FindByUserAndCourse(ctx context.Context, userID int64, courseID int64) (model.CourseEnrollment, error) {
	var e model.CourseEnrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CourseEnrollment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CourseEnrollment{}, err
	}
	return e, nil
}

// (user_id, course_id) の一意キーでupsert。再購入は同じ行を上書きする。
func (r *EnrollmentGormRepository) Upsert(ctx context.Context, e model.CourseEnrollment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "purchased_at", "expires_at",
				"amount_paid", "payment_txn_id", "payment_provider", "updated_at",
			}),
		}).
		Create(&e).Error
}

func (r *EnrollmentGormRepository) UpdateStatus(ctx context.Context, enrollmentID int64, status model.EnrollmentStatus) error {
	res := r.db.WithContext(ctx).Model(&model.CourseEnrollment{}).
		Where("id = ?", enrollmentID).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
