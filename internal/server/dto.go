package server

import (
	"tasklock/internal/domain"
	"tasklock/internal/engine"
)

// Request payloads

type ReplaceTextRequest struct {
	Text string `json:"text" doc:"One entry per line. Completed entries use MM-dd-yyyy HH:mm - name."`
}

type AddTasksRequest struct {
	Tasks []string `json:"tasks" minItems:"1"`
}

type ListPath struct {
	List string `path:"list" doc:"active, backlog or completed"`
}

// Response payloads

type ListText struct {
	List string `json:"list"`
	Text string `json:"text"`
}

type EventList struct {
	Items []domain.Event `json:"items"`
}

type StateResponse struct {
	Body domain.TaskLockData `json:"body"`
}

type SummaryResponse struct {
	Body engine.Status `json:"body"`
}

type ResultResponse struct {
	Body engine.Result `json:"body"`
}

type ListTextResponse struct {
	Body ListText `json:"body"`
}

type EventsResponse struct {
	Body EventList `json:"body"`
}
