package repository

import (
	"context"

	"app/internal/domain/model"
)

type EnrollmentRepository interface {
	FindByUserAndCourse(ctx context.Context, userID int64, courseID int64) (model.CourseEnrollment, error)

	// (user_id, course_id) 一意キーでのupsert。再購入は同じ行を上書き。
	Upsert(ctx context.Context, e model.CourseEnrollment) error

	//期限切れの遅延反映に使う。
	UpdateStatus(ctx context.Context, enrollmentID int64, status model.EnrollmentStatus) error
}
