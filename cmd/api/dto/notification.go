package dto

import "chatline/models"

type ListNotificationsResponse struct {
	Items []models.Notification `json:"items"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated" example:"3"`
}
