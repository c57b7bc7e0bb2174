package model

import "time"

// JoinRequestStatus は参加リクエストのライフサイクル状態を表す。
type JoinRequestStatus string

const (
	// JoinRequestPending は承認待ち状態。
	JoinRequestPending JoinRequestStatus = "pending"
	// JoinRequestAccepted はドライバーが承認した状態。
	JoinRequestAccepted JoinRequestStatus = "accepted"
	// JoinRequestRejected はドライバーが拒否した状態。
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// JoinRequest は乗客からドライバー投稿への参加リクエストを表す。
// 1件のリクエストはちょうど1人の乗客と1件のDriverPostを結び付ける。
type JoinRequest struct {
	ID           string
	PassengerID  string
	DriverPostID string
	Status       JoinRequestStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
