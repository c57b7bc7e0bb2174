package model

import "time"

// DriverPost はドライバーが投稿する相乗り募集を表す。
// 連絡先・車両情報は参加リクエストが承認されるまで開示されない。
type DriverPost struct {
	ID            string
	DriverID      string
	Origin        string
	Destination   string
	StartTime     time.Time
	SeatCount     int
	VehicleModel  string
	LicenseNumber string
	ContactPhone  string
	ContactEmail  string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PassengerPost は乗客が投稿する同乗希望を表す。
// 経路フィールドはDriverPostと対になる。
type PassengerPost struct {
	ID          string
	PassengerID string
	Origin      string
	Destination string
	StartTime   time.Time
	SeatCount   int
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
