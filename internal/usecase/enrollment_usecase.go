package usecase

import (
	"context"
	"log"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 受講権の有効期間。再購入で購入日から取り直す。
const enrollmentValidity = 365 * 24 * time.Hour

type enrollmentPaymentSummary struct {
	AmountPaid      int64
	PaymentTxnID    string
	PaymentProvider string
}

type EnrollmentUsecase struct {
	tx repo.TransactionManager
}

func NewEnrollmentUsecase(tx repo.TransactionManager) *EnrollmentUsecase {
	return &EnrollmentUsecase{tx: tx}
}

type EnrollmentAccess struct {
	HasAccess bool       `json:"has_access"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type LessonOutput struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	VideoURL      string `json:"video_url,omitempty"`
	DurationSec   int64  `json:"duration_sec"`
	IsFreePreview bool   `json:"is_free_preview"`
	Position      int64  `json:"position"`
	Locked        bool   `json:"locked"`
}

type CourseContentOutput struct {
	CourseID  int64          `json:"course_id"`
	Title     string         `json:"title"`
	HasAccess bool           `json:"has_access"`
	Lessons   []LessonOutput `json:"lessons"`
}

// 付与はupsert1本。(user, course)一意なので再購入は同じ行の延長になる。
func applyEnrollmentGrant(ctx context.Context, r repo.TxRepos, userID int64, courseID int64, pay enrollmentPaymentSummary) error {
	now := time.Now()
	e := model.CourseEnrollment{
		UserID:          userID,
		CourseID:        courseID,
		Status:          model.EnrollmentStatusActive,
		PurchasedAt:     now,
		ExpiresAt:       now.Add(enrollmentValidity),
		AmountPaid:      pay.AmountPaid,
		PaymentTxnID:    pay.PaymentTxnID,
		PaymentProvider: pay.PaymentProvider,
	}
	if err := r.Enrollments().Upsert(ctx, e); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 有効判定。期限はDBのstatus列ではなくExpiresAtから毎回導出する。
// statusがACTIVEのまま期限切れになっていたら、ついでにEXPIREDへ倒す
// （失敗しても判定結果は変わらないのでログだけ）。
func (u *EnrollmentUsecase) CheckAccess(ctx context.Context, userID int64, courseID int64) (EnrollmentAccess, error) {
	if userID <= 0 {
		return EnrollmentAccess{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out EnrollmentAccess

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		e, err := r.Enrollments().FindByUserAndCourse(ctx, userID, courseID)
		if err == repo.ErrNotFound {
			out = EnrollmentAccess{HasAccess: false, Status: "NONE"}
			return nil
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		active := e.Status == model.EnrollmentStatusActive && time.Now().Before(e.ExpiresAt)

		if e.Status == model.EnrollmentStatusActive && !active {
			if err := r.Enrollments().UpdateStatus(ctx, e.ID, model.EnrollmentStatusExpired); err != nil {
				log.Printf("enrollment expire flip failed: id=%d err=%v", e.ID, err)
			}
			e.Status = model.EnrollmentStatusExpired
		}

		exp := e.ExpiresAt
		out = EnrollmentAccess{
			HasAccess: active,
			Status:    string(e.Status),
			ExpiresAt: &exp,
		}
		return nil
	})

	if err != nil {
		return EnrollmentAccess{}, err
	}
	return out, nil
}

// 無料講座の即時付与。有料講座は決済経由でしか付与しない。
func (u *EnrollmentUsecase) GrantFree(ctx context.Context, userID int64, courseID int64) (EnrollmentAccess, error) {
	if userID <= 0 {
		return EnrollmentAccess{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out EnrollmentAccess

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Courses().FindByID(ctx, courseID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "course not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !c.IsActive {
			return NewHTTPError(http.StatusNotFound, "course not found")
		}
		if c.Price > 0 {
			return NewHTTPError(http.StatusBadRequest, "course is not free")
		}

		if err := applyEnrollmentGrant(ctx, r, userID, courseID, enrollmentPaymentSummary{}); err != nil {
			return err
		}

		e, err := r.Enrollments().FindByUserAndCourse(ctx, userID, courseID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		exp := e.ExpiresAt
		out = EnrollmentAccess{HasAccess: true, Status: string(e.Status), ExpiresAt: &exp}
		return nil
	})

	if err != nil {
		return EnrollmentAccess{}, err
	}
	return out, nil
}

// レッスン一覧。未購入者には無料プレビュー以外のVideoURLを返さない。
// 有効な受講権もプレビューも無い講座はレッスン一覧ごと閉じる。
func (u *EnrollmentUsecase) GetContent(ctx context.Context, userID int64, courseID int64) (CourseContentOutput, error) {
	if userID <= 0 {
		return CourseContentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out CourseContentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Courses().FindByID(ctx, courseID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "course not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !c.IsActive {
			return NewHTTPError(http.StatusNotFound, "course not found")
		}

		hasAccess := false
		e, err := r.Enrollments().FindByUserAndCourse(ctx, userID, courseID)
		if err != nil && err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err == nil {
			hasAccess = e.Status == model.EnrollmentStatusActive && time.Now().Before(e.ExpiresAt)
		}

		lessons, err := r.Courses().ListLessonsByCourseID(ctx, courseID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs := make([]LessonOutput, 0, len(lessons))
		previewCount := 0
		for _, l := range lessons {
			lo := LessonOutput{
				ID:            l.ID,
				Title:         l.Title,
				DurationSec:   l.DurationSec,
				IsFreePreview: l.IsFreePreview,
				Position:      l.Position,
			}
			if hasAccess || l.IsFreePreview {
				lo.VideoURL = l.VideoURL
			} else {
				lo.Locked = true
			}
			if l.IsFreePreview {
				previewCount++
			}
			outs = append(outs, lo)
		}

		if !hasAccess && previewCount == 0 {
			return NewHTTPError(http.StatusForbidden, "course not purchased")
		}

		out = CourseContentOutput{
			CourseID:  c.ID,
			Title:     c.Title,
			HasAccess: hasAccess,
			Lessons:   outs,
		}
		return nil
	})

	if err != nil {
		return CourseContentOutput{}, err
	}
	return out, nil
}
