package http

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/example/salon-scheduler/internal/application"
)

type userDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"isAdmin"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func toUserDTO(u application.User) userDTO {
	return userDTO{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin, CreatedAt: formatTimestamp(u.CreatedAt)}
}

type employeeDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	DisplayOrder int    `json:"displayOrder"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

func toEmployeeDTO(e application.Employee) employeeDTO {
	return employeeDTO{ID: e.ID, Name: e.Name, Color: e.Color, DisplayOrder: e.DisplayOrder, CreatedAt: formatTimestamp(e.CreatedAt)}
}

type timeBlockDTO struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employeeId"`
	Date       string  `json:"date"`
	StartTime  string  `json:"startTime"`
	EndTime    string  `json:"endTime"`
	Duration   int     `json:"duration"`
	Task       *string `json:"task"`
	ClientName *string `json:"clientName"`
	CreatedAt  string  `json:"createdAt,omitempty"`
	UpdatedAt  string  `json:"updatedAt,omitempty"`
}

func toTimeBlockDTO(b application.TimeBlock) timeBlockDTO {
	return timeBlockDTO{
		ID:         b.ID,
		EmployeeID: b.EmployeeID,
		Date:       b.Date,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Duration:   b.Duration(),
		Task:       b.Task,
		ClientName: b.ClientName,
		CreatedAt:  formatTimestamp(b.CreatedAt),
		UpdatedAt:  formatTimestamp(b.UpdatedAt),
	}
}

func toTimeBlockDTOs(blocks []application.TimeBlock) []timeBlockDTO {
	out := make([]timeBlockDTO, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, toTimeBlockDTO(b))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// optionalString tells an absent JSON member apart from an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// clearable maps null to an empty string so the field is cleared.
func (o optionalString) clearable() *string {
	if !o.Set {
		return nil
	}
	if o.Value == nil {
		empty := ""
		return &empty
	}
	return o.Value
}

// present drops explicit nulls.
func (o optionalString) present() *string {
	if !o.Set {
		return nil
	}
	return o.Value
}
