// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す。登録時に確定し、以後変更されない。
type Role string

const (
	// RoleInfluencer はインフルエンサーユーザー。
	RoleInfluencer Role = "influencer"
	// RoleBrand はブランド（企業）ユーザー。
	RoleBrand Role = "brand"
	// RoleAdmin は管理者ユーザー。
	RoleAdmin Role = "admin"
)

// Valid はRoleが定義済みの値かを判定する。
func (r Role) Valid() bool {
	switch r {
	case RoleInfluencer, RoleBrand, RoleAdmin:
		return true
	default:
		return false
	}
}

// User はサービス利用ユーザーを表す。
// ID・Role・CreatedAtは作成後に変更されない。
type User struct {
	ID           int64
	Username     string // 大文字小文字を区別せず一意
	Email        string // 大文字小文字を区別せず一意
	PasswordHash string // bcryptハッシュ。平文は保持しない。
	Role         Role
	Name         string // 表示名
	Bio          string
	CreatedAt    time.Time
}

// UserPatch はユーザーの部分更新を表す。nilフィールドは変更しない。
// ID・Role・CreatedAtは部分更新の対象外。
type UserPatch struct {
	Email        *string
	Name         *string
	Bio          *string
	PasswordHash *string
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
