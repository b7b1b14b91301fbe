package models

import "time"

// ChatSession 은 한 사용자가 소유하는 대화 세션이다.
// MessageCount 는 세션 내 메시지 순번(seq) 카운터로, 메시지 추가 시 원자적으로 증가한다.
// Collection: chat_sessions
type ChatSession struct {
	ID           string    `bson:"_id" json:"id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	Title        string    `bson:"title" json:"title"`
	MessageCount int64     `bson:"message_count" json:"message_count"`
	// TitleSet 은 제목이 한 번 정해졌는지를 뜻한다. 이후 메시지는 제목을 바꾸지 않는다.
	TitleSet bool `bson:"title_set" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
