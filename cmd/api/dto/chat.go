package dto

import "chatline/models"

type CreateSessionRequest struct {
	Title string `json:"title,omitempty" example:"New Chat"`
}

type ListSessionsResponse struct {
	Items []models.ChatSession `json:"items"`
}

type ListMessagesResponse struct {
	Items []models.ChatMessage `json:"items"`
}

// SubmitMessageRequest 는 세션에 보낼 사용자 메시지이다.
type SubmitMessageRequest struct {
	Content string `json:"content" binding:"required" example:"Hello"`
}

// SubmitMessageResponse 는 생성된 응답과 차감 후 잔액이다.
type SubmitMessageResponse struct {
	Content string `json:"content" example:"Hi! How can I help?"`
	Credits int64  `json:"credits" example:"5"`
	Charged int64  `json:"charged" example:"10"`
	Title   string `json:"title" example:"Hello"`
}
