package models

import "time"

// SettingFinePerDay holds the daily fine rate as a decimal string.
const SettingFinePerDay = "fine_per_day"

type UpsertSettingRequest struct {
	Value       string `json:"value" binding:"required,max=255"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

type SettingResponse struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
