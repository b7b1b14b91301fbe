package models

import "time"

// Notification 은 사용자 대상(UserID != nil) 또는 전체 공지(UserID == nil) 알림이다.
// Collection: notifications
type Notification struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    *string   `bson:"user_id" json:"user_id"`
	Title     string    `bson:"title" json:"title"`
	Body      string    `bson:"body" json:"body"`
	Seen      bool      `bson:"seen" json:"seen"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (n Notification) IsBroadcast() bool {
	return n.UserID == nil
}
