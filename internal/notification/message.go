package notification

import (
	"fmt"

	"github.com/frahmantamala/separation-management/internal/core/events"
)

// NotifiedEventTypes are the lifecycle events that produce notifications.
var NotifiedEventTypes = []string{
	events.EventTypeCaseCreated,
	events.EventTypeChecklistSubmitted,
	events.EventTypeSignOffAssigned,
	events.EventTypeSignOffResolved,
	events.EventTypeCaseCompleted,
	events.EventTypeCaseCancelled,
}

type audience int

const (
	toEmployee audience = 1 << iota
	toDirectManager
	toAssignee
)

type message struct {
	audience audience
	subject  string
	body     string
}

// compose renders the message for an event. ok is false for events nobody is told about.
func compose(event events.Event) (msg message, caseID int64, assigneeID int64, ok bool) {
	switch e := event.(type) {
	case *events.CaseEvent:
		caseID = e.CaseID
		switch e.EventType() {
		case events.EventTypeCaseCreated:
			return message{
				audience: toEmployee | toDirectManager,
				subject:  fmt.Sprintf("Separation case %s opened", e.CaseNumber),
				body:     fmt.Sprintf("Separation case %s has been opened. The offboarding checklist is ready to be worked through.", e.CaseNumber),
			}, caseID, 0, true
		case events.EventTypeChecklistSubmitted:
			return message{
				audience: toDirectManager,
				subject:  fmt.Sprintf("Checklist submitted for %s", e.CaseNumber),
				body:     fmt.Sprintf("The offboarding checklist for case %s has been submitted and is ready for sign-off.", e.CaseNumber),
			}, caseID, 0, true
		case events.EventTypeCaseCompleted:
			return message{
				audience: toEmployee,
				subject:  fmt.Sprintf("Separation case %s completed", e.CaseNumber),
				body:     fmt.Sprintf("All sign-offs for case %s are in. Your separation is complete.", e.CaseNumber),
			}, caseID, 0, true
		case events.EventTypeCaseCancelled:
			return message{
				audience: toEmployee,
				subject:  fmt.Sprintf("Separation case %s cancelled", e.CaseNumber),
				body:     fmt.Sprintf("Separation case %s has been cancelled.", e.CaseNumber),
			}, caseID, 0, true
		}
	case *events.SignOffEvent:
		caseID = e.CaseID
		switch e.EventType() {
		case events.EventTypeSignOffAssigned:
			return message{
				audience: toAssignee,
				subject:  fmt.Sprintf("Sign-off requested for %s", e.CaseNumber),
				body:     fmt.Sprintf("Your department sign-off has been requested for separation case %s.", e.CaseNumber),
			}, caseID, e.ManagerID, true
		case events.EventTypeSignOffResolved:
			return message{
				audience: toEmployee,
				subject:  fmt.Sprintf("Sign-off %s for %s", e.Decision, e.CaseNumber),
				body:     fmt.Sprintf("A department sign-off on case %s was %s.", e.CaseNumber, e.Decision),
			}, caseID, e.ManagerID, true
		}
	}
	return message{}, 0, 0, false
}
