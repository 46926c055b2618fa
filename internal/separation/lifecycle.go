package separation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/frahmantamala/separation-management/internal"
)

var transitions = map[Status][]Status{
	StatusInitiated:          {StatusChecklistPending, StatusCancelled},
	StatusChecklistPending:   {StatusChecklistSubmitted, StatusCancelled},
	StatusChecklistSubmitted: {StatusSignOffPending, StatusCancelled},
	StatusSignOffPending:     {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the case to the target status. Terminal cases yield
// ErrCaseTerminal; any other illegal move is a validation error.
func (c *Case) Transition(to Status) error {
	if c.Status.IsTerminal() {
		return internal.ErrCaseTerminal
	}
	if !CanTransition(c.Status, to) {
		return internal.NewValidationError(
			fmt.Sprintf("cannot move case from %s to %s", c.Status, to),
			internal.ErrCodeInvalidTransition,
		)
	}
	c.Status = to
	return nil
}

// Percent is round(100 * done / total), 0 for an empty set.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

func ChecklistProgress(items []*ChecklistItem) int {
	done := 0
	for _, item := range items {
		if item.IsCompleted {
			done++
		}
	}
	return Percent(done, len(items))
}

// SignOffProgress counts approvals over the effective set. Rejections stay in the denominator.
func SignOffProgress(signOffs []*SignOff) int {
	effective := EffectiveSignOffs(signOffs)
	approved := 0
	for _, s := range effective {
		if s.Status == SignOffApproved {
			approved++
		}
	}
	return Percent(approved, len(effective))
}

// EffectiveSignOffs keeps the latest assignment per department, ordered by department.
func EffectiveSignOffs(signOffs []*SignOff) []*SignOff {
	latest := make(map[int64]*SignOff, len(signOffs))
	for _, s := range signOffs {
		if current, ok := latest[s.DepartmentID]; !ok || s.ID > current.ID {
			latest[s.DepartmentID] = s
		}
	}

	effective := make([]*SignOff, 0, len(latest))
	for _, s := range latest {
		effective = append(effective, s)
	}
	sort.Slice(effective, func(i, j int) bool {
		return effective[i].DepartmentID < effective[j].DepartmentID
	})
	return effective
}

func MarkSuperseded(signOffs []*SignOff) {
	effective := make(map[int64]bool)
	for _, s := range EffectiveSignOffs(signOffs) {
		effective[s.ID] = true
	}
	for _, s := range signOffs {
		s.Superseded = !effective[s.ID]
	}
}

func AllApproved(signOffs []*SignOff) bool {
	effective := EffectiveSignOffs(signOffs)
	if len(effective) == 0 {
		return false
	}
	for _, s := range effective {
		if s.Status != SignOffApproved {
			return false
		}
	}
	return true
}

func HasPendingSignOff(signOffs []*SignOff) bool {
	for _, s := range EffectiveSignOffs(signOffs) {
		if s.Status == SignOffPending {
			return true
		}
	}
	return false
}

// OutstandingMandatory lists mandatory items that are not completed, in checklist order.
func OutstandingMandatory(items []*ChecklistItem) []*ChecklistItem {
	var outstanding []*ChecklistItem
	for _, item := range items {
		if item.IsMandatory && !item.IsCompleted {
			outstanding = append(outstanding, item)
		}
	}
	return outstanding
}

type outstandingItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MandatoryItemsError names every incomplete mandatory item.
func MandatoryItemsError(outstanding []*ChecklistItem) error {
	names := make([]string, len(outstanding))
	details := make([]outstandingItem, len(outstanding))
	for i, item := range outstanding {
		names[i] = item.Name
		details[i] = outstandingItem{ID: item.ID, Name: item.Name}
	}
	return internal.NewValidationError(
		"mandatory checklist items are incomplete: "+strings.Join(names, ", "),
		internal.ErrCodeMandatoryItemsIncomplete,
	).WithDetails(map[string]interface{}{"outstanding_items": details})
}

// Change is one status move of a case.
type Change struct {
	From Status
	To   Status
}

// Advance applies the automatic transitions the ledgers allow and returns them in order.
func (c *Case) Advance(signOffs []*SignOff) []Change {
	var changes []Change
	for {
		var next Status
		switch {
		case c.Status == StatusChecklistSubmitted && len(EffectiveSignOffs(signOffs)) > 0:
			next = StatusSignOffPending
		case c.Status == StatusSignOffPending && AllApproved(signOffs):
			next = StatusCompleted
		default:
			return changes
		}
		changes = append(changes, Change{From: c.Status, To: next})
		c.Status = next
	}
}
