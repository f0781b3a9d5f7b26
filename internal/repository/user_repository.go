package repository

import (
	"app/internal/domain/model"
	"context"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//正規化済みの電話番号からユーザーを一件取得する。
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	// 小文字化済みのメールアドレスからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// ユーザー情報の更新=>ロールの変更・最後のログイン更新など
	Update(ctx context.Context, user *model.User) error
}
