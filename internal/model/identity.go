// Package model はドメインモデルを定義する。
package model

import "time"

// Role はアカウントの種別（乗客またはドライバー）を表す。
type Role string

const (
	// RolePassenger は乗客アカウントを表す。
	RolePassenger Role = "passenger"
	// RoleDriver はドライバーアカウントを表す。
	RoleDriver Role = "driver"
)

// Valid はRoleが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	return r == RolePassenger || r == RoleDriver
}

// Identity はサービス利用アカウントを表す。
// 乗客・ドライバーの2種別があり、それぞれ独立したテーブルに保存されるが、
// メールアドレスは両種別をまたいで一意でなければならない。
type Identity struct {
	ID           string
	Role         Role
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
