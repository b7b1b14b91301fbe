package dto

// SendNotificationRequest 는 관리자 알림 발송 요청이다. user_id 를 비우면 전체 공지.
type SendNotificationRequest struct {
	UserID *string `json:"user_id,omitempty"`
	Title  string  `json:"title" binding:"required" example:"점검 안내"`
	Body   string  `json:"body" binding:"required" example:"오늘 밤 10시부터 30분간 점검합니다."`
}
