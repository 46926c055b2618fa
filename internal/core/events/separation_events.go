package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeCaseCreated        = "separation.case_created"
	EventTypeChecklistSubmitted = "separation.checklist_submitted"
	EventTypeSignOffAssigned    = "separation.signoff_assigned"
	EventTypeSignOffResolved    = "separation.signoff_resolved"
	EventTypeStatusChanged      = "separation.status_changed"
	EventTypeCaseCompleted      = "separation.case_completed"
	EventTypeCaseCancelled      = "separation.case_cancelled"

	EventTypeChecklistItemUpdated = "separation.checklist_item_updated"
)

// LifecycleEventTypes lists every event emitted by the separation workflow.
var LifecycleEventTypes = []string{
	EventTypeCaseCreated,
	EventTypeChecklistSubmitted,
	EventTypeSignOffAssigned,
	EventTypeSignOffResolved,
	EventTypeStatusChanged,
	EventTypeCaseCompleted,
	EventTypeCaseCancelled,
	EventTypeChecklistItemUpdated,
}

type CaseEvent struct {
	BaseEvent
	CaseID     int64  `json:"case_id"`
	CaseNumber string `json:"case_number"`
	EmployeeID int64  `json:"employee_id"`
	Status     string `json:"status"`
	PrevStatus string `json:"previous_status,omitempty"`
	ActorID    int64  `json:"actor_id"`
}

func NewCaseEvent(eventType string, caseID int64, caseNumber string, employeeID int64, prevStatus, status string, actorID int64) *CaseEvent {
	return &CaseEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"case_id":         caseID,
				"case_number":     caseNumber,
				"employee_id":     employeeID,
				"previous_status": prevStatus,
				"status":          status,
				"actor_id":        actorID,
			},
		},
		CaseID:     caseID,
		CaseNumber: caseNumber,
		EmployeeID: employeeID,
		Status:     status,
		PrevStatus: prevStatus,
		ActorID:    actorID,
	}
}

type SignOffEvent struct {
	BaseEvent
	CaseID       int64  `json:"case_id"`
	CaseNumber   string `json:"case_number"`
	EmployeeID   int64  `json:"employee_id"`
	SignOffID    int64  `json:"signoff_id"`
	DepartmentID int64  `json:"department_id"`
	ManagerID    int64  `json:"manager_id"`
	Decision     string `json:"decision"`
	ActorID      int64  `json:"actor_id"`
}

func NewSignOffEvent(eventType string, caseID int64, caseNumber string, employeeID, signOffID, departmentID, managerID int64, decision string, actorID int64) *SignOffEvent {
	return &SignOffEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"case_id":       caseID,
				"case_number":   caseNumber,
				"employee_id":   employeeID,
				"signoff_id":    signOffID,
				"department_id": departmentID,
				"manager_id":    managerID,
				"decision":      decision,
				"actor_id":      actorID,
			},
		},
		CaseID:       caseID,
		CaseNumber:   caseNumber,
		EmployeeID:   employeeID,
		SignOffID:    signOffID,
		DepartmentID: departmentID,
		ManagerID:    managerID,
		Decision:     decision,
		ActorID:      actorID,
	}
}

// CaseRef extracts the case id from any lifecycle event.
func CaseRef(event Event) (int64, bool) {
	switch e := event.(type) {
	case *CaseEvent:
		return e.CaseID, true
	case *SignOffEvent:
		return e.CaseID, true
	}
	if data, ok := event.Payload().(map[string]interface{}); ok {
		switch id := data["case_id"].(type) {
		case int64:
			return id, true
		case float64:
			return int64(id), true
		case int:
			return int64(id), true
		}
	}
	return 0, false
}
