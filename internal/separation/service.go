package separation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/core/common/pagination"
	separationDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/separation"
	"github.com/frahmantamala/separation-management/internal/core/events"
	"github.com/frahmantamala/separation-management/internal/department"
	"github.com/frahmantamala/separation-management/internal/template"
	"github.com/frahmantamala/separation-management/internal/user"
)

// ErrDuplicateCaseNumber is returned by repositories when a generated case number collides.
var ErrDuplicateCaseNumber = errors.New("case number already taken")

const caseNumberAttempts = 3

type RepositoryAPI interface {
	// WithTx runs fn in one transaction.
	WithTx(ctx context.Context, fn func(tx RepositoryAPI) error) error
	// WithCaseLock runs fn in one transaction holding a row lock on the case.
	WithCaseLock(ctx context.Context, caseID int64, fn func(tx RepositoryAPI, c *separationDatamodel.Case) error) error

	GetCase(ctx context.Context, id int64) (*separationDatamodel.Case, error)
	GetCasesByIDs(ctx context.Context, ids []int64) ([]*separationDatamodel.Case, error)
	ListCases(ctx context.Context, filter ListFilter, page pagination.Params) ([]*separationDatamodel.Case, int64, error)
	HasActiveCase(ctx context.Context, employeeID int64) (bool, error)
	CountCaseNumbers(ctx context.Context, prefix string) (int64, error)
	CreateCase(ctx context.Context, c *separationDatamodel.Case) error
	SaveCase(ctx context.Context, c *separationDatamodel.Case) error

	CountChecklistItems(ctx context.Context, caseID int64) (int64, error)
	CreateChecklistItems(ctx context.Context, items []*separationDatamodel.ChecklistItem) error
	ListChecklistItems(ctx context.Context, caseID int64) ([]*separationDatamodel.ChecklistItem, error)
	ListChecklistItemsForCases(ctx context.Context, caseIDs []int64) ([]*separationDatamodel.ChecklistItem, error)
	GetChecklistItem(ctx context.Context, id int64) (*separationDatamodel.ChecklistItem, error)
	SaveChecklistItem(ctx context.Context, item *separationDatamodel.ChecklistItem) error

	CreateSignOff(ctx context.Context, s *separationDatamodel.SignOff) error
	GetSignOff(ctx context.Context, id int64) (*separationDatamodel.SignOff, error)
	SaveSignOff(ctx context.Context, s *separationDatamodel.SignOff) error
	ListSignOffs(ctx context.Context, caseID int64) ([]*separationDatamodel.SignOff, error)
	ListSignOffsForCases(ctx context.Context, caseIDs []int64) ([]*separationDatamodel.SignOff, error)
	// ListPendingSignOffs skips sign-offs on closed cases. A nil managerID lists every assignee.
	ListPendingSignOffs(ctx context.Context, managerID *int64) ([]*separationDatamodel.SignOff, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type DepartmentLookup interface {
	GetByID(ctx context.Context, id int64) (*department.Department, error)
}

type TemplateResolver interface {
	Resolve(ctx context.Context, departmentID *int64) (*template.Template, error)
}

type Service struct {
	repo        RepositoryAPI
	users       UserLookup
	departments DepartmentLookup
	templates   TemplateResolver
	publisher   events.Publisher
	cfg         internal.SeparationConfig
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(
	repo RepositoryAPI,
	users UserLookup,
	departments DepartmentLookup,
	templates TemplateResolver,
	publisher events.Publisher,
	cfg internal.SeparationConfig,
	logger *slog.Logger,
) *Service {
	if cfg.CaseNumberPrefix == "" {
		cfg.CaseNumberPrefix = "SEP"
	}
	return &Service{
		repo:        repo,
		users:       users,
		departments: departments,
		templates:   templates,
		publisher:   publisher,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateCase opens a case, seeds its checklist from the applicable template and
// moves it to checklist_pending in one transaction.
func (s *Service) CreateCase(ctx context.Context, actor *auth.Actor, dto CreateCaseDTO) (*Case, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	employeeID := actor.ID
	if dto.EmployeeID != nil {
		employeeID = *dto.EmployeeID
	}
	employee, err := s.users.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionCaseCreate, auth.Resource{OwnerID: employeeID}); err != nil {
		return nil, err
	}
	if dto.SeparationManagerID != nil {
		if err := auth.Authorize(actor, auth.ActionCaseAssignManagers, auth.Resource{}); err != nil {
			return nil, err
		}
	}
	if !employee.IsActive {
		return nil, internal.NewValidationFieldError("employee_id", "employee account is inactive", internal.ErrCodeInvalidValue)
	}
	if err := s.checkManager(ctx, "direct_manager_id", dto.DirectManagerID, employeeID); err != nil {
		return nil, err
	}
	if err := s.checkManager(ctx, "separation_manager_id", dto.SeparationManagerID, employeeID); err != nil {
		return nil, err
	}

	directManagerID := dto.DirectManagerID
	if directManagerID == nil {
		directManagerID = employee.ManagerID
	}

	tmpl, err := s.templates.Resolve(ctx, employee.DepartmentID)
	if err != nil {
		return nil, err
	}

	var created *Case
	for attempt := 1; ; attempt++ {
		created, err = s.createCase(ctx, actor, employeeID, directManagerID, dto, tmpl)
		if errors.Is(err, ErrDuplicateCaseNumber) && attempt < caseNumberAttempts {
			s.logger.Warn("case number collision, retrying", "employee_id", employeeID, "attempt", attempt)
			continue
		}
		break
	}
	if err != nil {
		return nil, s.internalError("failed to create separation case", err)
	}

	s.logger.Info("separation case created",
		"case_id", created.ID,
		"case_number", created.CaseNumber,
		"employee_id", employeeID,
		"actor_id", actor.ID)

	s.publish(ctx,
		events.NewCaseEvent(events.EventTypeCaseCreated, created.ID, created.CaseNumber, created.EmployeeID, "", string(created.Status), actor.ID),
		events.NewCaseEvent(events.EventTypeStatusChanged, created.ID, created.CaseNumber, created.EmployeeID, string(StatusInitiated), string(created.Status), actor.ID),
	)
	return s.GetCase(ctx, actor, created.ID)
}

func (s *Service) createCase(ctx context.Context, actor *auth.Actor, employeeID int64, directManagerID *int64, dto CreateCaseDTO, tmpl *template.Template) (*Case, error) {
	var created *Case
	err := s.repo.WithTx(ctx, func(tx RepositoryAPI) error {
		active, err := tx.HasActiveCase(ctx, employeeID)
		if err != nil {
			return err
		}
		if active {
			return internal.NewValidationError("an active separation case already exists for this employee", internal.ErrCodeActiveCaseExists)
		}

		number, err := s.nextCaseNumber(ctx, tx)
		if err != nil {
			return err
		}

		c := &Case{
			CaseNumber:          number,
			EmployeeID:          employeeID,
			DirectManagerID:     directManagerID,
			SeparationManagerID: dto.SeparationManagerID,
			ResignationDate:     dto.ResignationDate,
			LastWorkingDay:      dto.LastWorkingDay,
			Reason:              dto.Reason,
			Notes:               dto.Notes,
			Status:              StatusInitiated,
			CreatedBy:           actor.ID,
		}
		row := CaseToDataModel(c)
		if err := tx.CreateCase(ctx, row); err != nil {
			return err
		}
		c.ID = row.ID

		if err := s.seedChecklist(ctx, tx, c.ID, tmpl); err != nil {
			return err
		}
		if err := c.Transition(StatusChecklistPending); err != nil {
			return err
		}
		row.Status = string(c.Status)
		if err := tx.SaveCase(ctx, row); err != nil {
			return err
		}
		created = CaseFromDataModel(row)
		return nil
	})
	return created, err
}

// seedChecklist copies the template items onto the case. A case that already has items is left alone.
func (s *Service) seedChecklist(ctx context.Context, tx RepositoryAPI, caseID int64, tmpl *template.Template) error {
	if tmpl == nil || len(tmpl.Items) == 0 {
		return nil
	}
	existing, err := tx.CountChecklistItems(ctx, caseID)
	if err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	items := make([]*separationDatamodel.ChecklistItem, 0, len(tmpl.Items))
	for _, ti := range tmpl.Items {
		items = append(items, &separationDatamodel.ChecklistItem{
			CaseID:      caseID,
			Name:        ti.Name,
			Description: ti.Description,
			Category:    ti.Category,
			IsMandatory: ti.IsMandatory,
			SortOrder:   ti.Order,
		})
	}
	return tx.CreateChecklistItems(ctx, items)
}

func (s *Service) nextCaseNumber(ctx context.Context, tx RepositoryAPI) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", s.cfg.CaseNumberPrefix, s.now().Year())
	count, err := tx.CountCaseNumbers(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

func (s *Service) GetCase(ctx context.Context, actor *auth.Actor, id int64) (*Case, error) {
	c, signOffs, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionCaseRead, c.Resource(signOffs)); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListChecklistItems(ctx, id)
	if err != nil {
		return nil, s.internalError("failed to load checklist", err)
	}
	return c.WithLedgers(itemsFromDataModel(rows), signOffs), nil
}

// ListCases pages through cases. Actors without case.list_all only see cases they take part in.
func (s *Service) ListCases(ctx context.Context, actor *auth.Actor, filter ListFilter, page pagination.Params) (pagination.Page[*Case], error) {
	if !auth.Can(actor, auth.ActionCaseListAll, auth.Resource{}) {
		visibleTo := actor.ID
		filter.VisibleTo = &visibleTo
	}

	rows, total, err := s.repo.ListCases(ctx, filter, page)
	if err != nil {
		return pagination.Page[*Case]{}, s.internalError("failed to list separation cases", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	itemRows, err := s.repo.ListChecklistItemsForCases(ctx, ids)
	if err != nil {
		return pagination.Page[*Case]{}, s.internalError("failed to load checklists", err)
	}
	signOffRows, err := s.repo.ListSignOffsForCases(ctx, ids)
	if err != nil {
		return pagination.Page[*Case]{}, s.internalError("failed to load sign-offs", err)
	}

	itemsByCase := make(map[int64][]*ChecklistItem)
	for _, item := range itemsFromDataModel(itemRows) {
		itemsByCase[item.CaseID] = append(itemsByCase[item.CaseID], item)
	}
	signOffsByCase := make(map[int64][]*SignOff)
	for _, so := range signOffsFromDataModel(signOffRows) {
		signOffsByCase[so.CaseID] = append(signOffsByCase[so.CaseID], so)
	}

	cases := make([]*Case, 0, len(rows))
	for _, row := range rows {
		c := CaseFromDataModel(row)
		c.Progress = ChecklistProgress(itemsByCase[c.ID])
		c.SignOffProgress = SignOffProgress(signOffsByCase[c.ID])
		cases = append(cases, c)
	}
	return pagination.NewPage(cases, total, page), nil
}

func (s *Service) UpdateCase(ctx context.Context, actor *auth.Actor, id int64, dto UpdateCaseDTO) (*Case, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	c, signOffs, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionCaseUpdate, c.Resource(signOffs)); err != nil {
		return nil, err
	}
	if dto.TouchesManagers() {
		if err := auth.Authorize(actor, auth.ActionCaseAssignManagers, auth.Resource{}); err != nil {
			return nil, err
		}
	}
	if c.Status.IsTerminal() {
		return nil, internal.ErrCaseTerminal
	}
	if err := s.checkManager(ctx, "direct_manager_id", dto.DirectManagerID, c.EmployeeID); err != nil {
		return nil, err
	}
	if err := s.checkManager(ctx, "separation_manager_id", dto.SeparationManagerID, c.EmployeeID); err != nil {
		return nil, err
	}

	err = s.repo.WithCaseLock(ctx, id, func(tx RepositoryAPI, row *separationDatamodel.Case) error {
		cur := CaseFromDataModel(row)
		if cur.Status.IsTerminal() {
			return internal.ErrCaseTerminal
		}

		if dto.DirectManagerID != nil {
			cur.DirectManagerID = dto.DirectManagerID
		}
		if dto.SeparationManagerID != nil {
			cur.SeparationManagerID = dto.SeparationManagerID
		}
		if dto.ResignationDate != nil {
			cur.ResignationDate = *dto.ResignationDate
		}
		if dto.LastWorkingDay != nil {
			cur.LastWorkingDay = *dto.LastWorkingDay
		}
		if dto.Reason != nil {
			cur.Reason = *dto.Reason
		}
		if dto.Notes != nil {
			cur.Notes = *dto.Notes
		}
		if cur.LastWorkingDay.Before(cur.ResignationDate.Time) {
			return internal.NewValidationFieldError("last_working_day", "last_working_day cannot be before resignation_date", internal.ErrCodeInvalidDate)
		}
		return tx.SaveCase(ctx, CaseToDataModel(cur))
	})
	if err != nil {
		return nil, s.internalError("failed to update separation case", err)
	}

	s.logger.Info("separation case updated", "case_id", id, "actor_id", actor.ID)
	return s.GetCase(ctx, actor, id)
}

// SubmitChecklist moves a checklist_pending case forward once every mandatory item is done.
// Sign-offs assigned earlier carry the case straight on to signoff_pending.
func (s *Service) SubmitChecklist(ctx context.Context, actor *auth.Actor, caseID int64) (*Case, error) {
	c, signOffs, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionChecklistSubmit, c.Resource(signOffs)); err != nil {
		return nil, err
	}
	if c.Status.IsTerminal() {
		return nil, internal.ErrCaseTerminal
	}

	var (
		cur     *Case
		changes []Change
	)
	err = s.repo.WithCaseLock(ctx, caseID, func(tx RepositoryAPI, row *separationDatamodel.Case) error {
		cur = CaseFromDataModel(row)
		if cur.Status.IsTerminal() {
			return internal.ErrCaseTerminal
		}
		if cur.Status != StatusChecklistPending {
			return internal.NewValidationError(
				fmt.Sprintf("checklist can only be submitted while the case is %s", StatusChecklistPending),
				internal.ErrCodeInvalidTransition,
			)
		}

		itemRows, err := tx.ListChecklistItems(ctx, caseID)
		if err != nil {
			return err
		}
		if outstanding := OutstandingMandatory(itemsFromDataModel(itemRows)); len(outstanding) > 0 {
			return MandatoryItemsError(outstanding)
		}

		signOffRows, err := tx.ListSignOffs(ctx, caseID)
		if err != nil {
			return err
		}

		now := s.now()
		from := cur.Status
		if err := cur.Transition(StatusChecklistSubmitted); err != nil {
			return err
		}
		cur.ChecklistSubmittedAt = &now
		changes = append([]Change{{From: from, To: cur.Status}}, cur.Advance(signOffsFromDataModel(signOffRows))...)
		if cur.Status == StatusCompleted {
			cur.CompletedAt = &now
		}
		return tx.SaveCase(ctx, CaseToDataModel(cur))
	})
	if err != nil {
		return nil, s.internalError("failed to submit checklist", err)
	}

	s.logger.Info("checklist submitted", "case_id", caseID, "status", cur.Status, "actor_id", actor.ID)
	evts := []events.Event{
		events.NewCaseEvent(events.EventTypeChecklistSubmitted, cur.ID, cur.CaseNumber, cur.EmployeeID, string(StatusChecklistPending), string(cur.Status), actor.ID),
	}
	s.publish(ctx, append(evts, s.statusEvents(cur, changes, actor.ID)...)...)
	return s.GetCase(ctx, actor, caseID)
}

// ToggleChecklistItem marks an item done or not done while the checklist is editable.
func (s *Service) ToggleChecklistItem(ctx context.Context, actor *auth.Actor, itemID int64, dto ToggleChecklistItemDTO) (*ChecklistItem, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	c, signOffs, err := s.loadItemCase(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionChecklistToggle, c.Resource(signOffs)); err != nil {
		return nil, err
	}
	if c.Status.IsTerminal() {
		return nil, internal.ErrCaseTerminal
	}

	var item *ChecklistItem
	err = s.repo.WithCaseLock(ctx, c.ID, func(tx RepositoryAPI, row *separationDatamodel.Case) error {
		status := Status(row.Status)
		if status.IsTerminal() {
			return internal.ErrCaseTerminal
		}
		if status != StatusChecklistPending {
			return internal.NewValidationError(
				fmt.Sprintf("checklist items can only be changed while the case is %s", StatusChecklistPending),
				internal.ErrCodeChecklistLocked,
			)
		}

		itemRow, err := tx.GetChecklistItem(ctx, itemID)
		if err != nil {
			return err
		}
		if itemRow == nil {
			return internal.ErrChecklistItemNotFound
		}

		// edit the loaded row so Save keeps columns the domain item does not carry
		completed := *dto.IsCompleted
		switch {
		case completed && !itemRow.IsCompleted:
			now := s.now()
			completedBy := actor.ID
			itemRow.IsCompleted = true
			itemRow.CompletedAt = &now
			itemRow.CompletedBy = &completedBy
		case !completed:
			itemRow.IsCompleted = false
			itemRow.CompletedAt = nil
			itemRow.CompletedBy = nil
		}
		if dto.Notes != nil {
			itemRow.Notes = *dto.Notes
		}

		if err := tx.SaveChecklistItem(ctx, itemRow); err != nil {
			return err
		}
		item = ItemFromDataModel(itemRow)
		return nil
	})
	if err != nil {
		return nil, s.internalError("failed to update checklist item", err)
	}

	s.logger.Info("checklist item toggled", "case_id", c.ID, "item_id", itemID, "completed", item.IsCompleted, "actor_id", actor.ID)
	s.publish(ctx, events.NewCaseEvent(events.EventTypeChecklistItemUpdated, c.ID, c.CaseNumber, c.EmployeeID, "", string(c.Status), actor.ID))
	return item, nil
}

// AnnotateChecklistItem replaces the notes on an item. It is allowed in every status.
func (s *Service) AnnotateChecklistItem(ctx context.Context, actor *auth.Actor, itemID int64, dto AnnotateChecklistItemDTO) (*ChecklistItem, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	c, signOffs, err := s.loadItemCase(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionChecklistAnnotate, c.Resource(signOffs)); err != nil {
		return nil, err
	}

	var item *ChecklistItem
	err = s.repo.WithCaseLock(ctx, c.ID, func(tx RepositoryAPI, _ *separationDatamodel.Case) error {
		itemRow, err := tx.GetChecklistItem(ctx, itemID)
		if err != nil {
			return err
		}
		if itemRow == nil {
			return internal.ErrChecklistItemNotFound
		}
		itemRow.Notes = dto.Notes
		if err := tx.SaveChecklistItem(ctx, itemRow); err != nil {
			return err
		}
		item = ItemFromDataModel(itemRow)
		return nil
	})
	if err != nil {
		return nil, s.internalError("failed to annotate checklist item", err)
	}

	s.publish(ctx, events.NewCaseEvent(events.EventTypeChecklistItemUpdated, c.ID, c.CaseNumber, c.EmployeeID, "", string(c.Status), actor.ID))
	return item, nil
}

func (s *Service) ListChecklist(ctx context.Context, actor *auth.Actor, caseID int64) ([]*ChecklistItem, error) {
	c, signOffs, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionCaseRead, c.Resource(signOffs)); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListChecklistItems(ctx, caseID)
	if err != nil {
		return nil, s.internalError("failed to load checklist", err)
	}
	return itemsFromDataModel(rows), nil
}

// AssignSignOff requests a department sign-off from a manager. Re-assigning a
// department whose latest sign-off is resolved supersedes that record.
func (s *Service) AssignSignOff(ctx context.Context, actor *auth.Actor, caseID int64, dto AssignSignOffDTO) (*SignOff, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	c, _, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionSignOffAssign, auth.Resource{OwnerID: c.EmployeeID}); err != nil {
		return nil, err
	}
	if c.Status.IsTerminal() {
		return nil, internal.ErrCaseTerminal
	}

	if _, err := s.departments.GetByID(ctx, dto.DepartmentID); err != nil {
		if errors.Is(err, internal.ErrDepartmentNotFound) {
			return nil, internal.NewValidationFieldError("department_id", "department does not exist", internal.ErrCodeInvalidValue)
		}
		return nil, err
	}
	if err := s.checkAssignee(ctx, dto.ManagerID, c.EmployeeID); err != nil {
		return nil, err
	}

	var (
		cur     *Case
		created *SignOff
		changes []Change
	)
	err = s.repo.WithCaseLock(ctx, caseID, func(tx RepositoryAPI, row *separationDatamodel.Case) error {
		cur = CaseFromDataModel(row)
		if cur.Status.IsTerminal() {
			return internal.ErrCaseTerminal
		}

		existing, err := tx.ListSignOffs(ctx, caseID)
		if err != nil {
			return err
		}
		for _, so := range existing {
			if so.DepartmentID == dto.DepartmentID && SignOffStatus(so.Status) == SignOffPending {
				return internal.NewValidationError(
					"a pending sign-off already exists for this department",
					internal.ErrCodeDuplicatePendingSignOff,
				)
			}
		}

		so := &SignOff{
			CaseID:       caseID,
			DepartmentID: dto.DepartmentID,
			ManagerID:    dto.ManagerID,
			Status:       SignOffPending,
			AssignedBy:   actor.ID,
			AssignedAt:   s.now(),
		}
		soRow := SignOffToDataModel(so)
		if err := tx.CreateSignOff(ctx, soRow); err != nil {
			return err
		}
		created = SignOffFromDataModel(soRow)

		all := append(signOffsFromDataModel(existing), created)
		changes = cur.Advance(all)
		if len(changes) == 0 {
			return nil
		}
		return tx.SaveCase(ctx, CaseToDataModel(cur))
	})
	if err != nil {
		return nil, s.internalError("failed to assign sign-off", err)
	}

	s.logger.Info("sign-off assigned",
		"case_id", caseID,
		"signoff_id", created.ID,
		"department_id", dto.DepartmentID,
		"manager_id", dto.ManagerID,
		"actor_id", actor.ID)

	evts := []events.Event{
		events.NewSignOffEvent(events.EventTypeSignOffAssigned, cur.ID, cur.CaseNumber, cur.EmployeeID, created.ID, created.DepartmentID, created.ManagerID, string(created.Status), actor.ID),
	}
	s.publish(ctx, append(evts, s.statusEvents(cur, changes, actor.ID)...)...)
	return created, nil
}

// ResolveSignOff records the assignee's decision. Once every effective sign-off is
// approved the case completes; a rejection holds it in signoff_pending.
func (s *Service) ResolveSignOff(ctx context.Context, actor *auth.Actor, signOffID int64, dto ResolveSignOffDTO) (*SignOff, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	so, c, err := s.loadSignOff(ctx, signOffID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionSignOffResolve, c.SignOffResource(so)); err != nil {
		return nil, err
	}
	if c.Status.IsTerminal() {
		return nil, internal.ErrCaseTerminal
	}
	if so.Status.IsResolved() {
		return nil, internal.ErrSignOffResolved
	}

	var (
		cur      *Case
		resolved *SignOff
		changes  []Change
	)
	err = s.repo.WithCaseLock(ctx, c.ID, func(tx RepositoryAPI, row *separationDatamodel.Case) error {
		cur = CaseFromDataModel(row)
		if cur.Status.IsTerminal() {
			return internal.ErrCaseTerminal
		}

		soRow, err := tx.GetSignOff(ctx, signOffID)
		if err != nil {
			return err
		}
		if soRow == nil {
			return internal.ErrSignOffNotFound
		}
		if SignOffStatus(soRow.Status).IsResolved() {
			return internal.ErrSignOffResolved
		}

		now := s.now()
		soRow.Status = string(dto.Decision)
		soRow.CompletedAt = &now
		if dto.Comments != nil {
			soRow.Comments = *dto.Comments
		}
		if err := tx.SaveSignOff(ctx, soRow); err != nil {
			return err
		}
		resolved = SignOffFromDataModel(soRow)

		all, err := tx.ListSignOffs(ctx, c.ID)
		if err != nil {
			return err
		}
		changes = cur.Advance(signOffsFromDataModel(all))
		if len(changes) == 0 {
			return nil
		}
		if cur.Status == StatusCompleted {
			cur.CompletedAt = &now
		}
		return tx.SaveCase(ctx, CaseToDataModel(cur))
	})
	if err != nil {
		return nil, s.internalError("failed to resolve sign-off", err)
	}

	s.logger.Info("sign-off resolved",
		"case_id", c.ID,
		"signoff_id", signOffID,
		"decision", dto.Decision,
		"case_status", cur.Status,
		"actor_id", actor.ID)

	evts := []events.Event{
		events.NewSignOffEvent(events.EventTypeSignOffResolved, cur.ID, cur.CaseNumber, cur.EmployeeID, resolved.ID, resolved.DepartmentID, resolved.ManagerID, string(resolved.Status), actor.ID),
	}
	s.publish(ctx, append(evts, s.statusEvents(cur, changes, actor.ID)...)...)
	return resolved, nil
}

// AmendSignOffComments edits comments without touching the decision.
func (s *Service) AmendSignOffComments(ctx context.Context, actor *auth.Actor, signOffID int64, dto AmendCommentsDTO) (*SignOff, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	so, c, err := s.loadSignOff(ctx, signOffID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionSignOffAmend, c.SignOffResource(so)); err != nil {
		return nil, err
	}

	var amended *SignOff
	err = s.repo.WithCaseLock(ctx, c.ID, func(tx RepositoryAPI, _ *separationDatamodel.Case) error {
		soRow, err := tx.GetSignOff(ctx, signOffID)
		if err != nil {
			return err
		}
		if soRow == nil {
			return internal.ErrSignOffNotFound
		}
		soRow.Comments = dto.Comments
		if err := tx.SaveSignOff(ctx, soRow); err != nil {
			return err
		}
		amended = SignOffFromDataModel(soRow)
		return nil
	})
	if err != nil {
		return nil, s.internalError("failed to amend sign-off comments", err)
	}
	return amended, nil
}

func (s *Service) ListSignOffs(ctx context.Context, actor *auth.Actor, caseID int64) ([]*SignOff, error) {
	c, signOffs, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionCaseRead, c.Resource(signOffs)); err != nil {
		return nil, err
	}
	MarkSuperseded(signOffs)
	return signOffs, nil
}

// ListPendingSignOffs returns open sign-offs: all of them for a separation
// manager, the caller's own otherwise.
func (s *Service) ListPendingSignOffs(ctx context.Context, actor *auth.Actor) ([]*PendingSignOff, error) {
	if err := auth.Authorize(actor, auth.ActionSignOffListPending, auth.Resource{}); err != nil {
		return nil, err
	}

	var managerID *int64
	if !actor.IsSeparationManager() {
		id := actor.ID
		managerID = &id
	}

	rows, err := s.repo.ListPendingSignOffs(ctx, managerID)
	if err != nil {
		return nil, s.internalError("failed to list pending sign-offs", err)
	}

	caseIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		caseIDs = append(caseIDs, row.CaseID)
	}
	caseRows, err := s.repo.GetCasesByIDs(ctx, caseIDs)
	if err != nil {
		return nil, s.internalError("failed to load cases", err)
	}
	cases := make(map[int64]*separationDatamodel.Case, len(caseRows))
	for _, c := range caseRows {
		cases[c.ID] = c
	}

	pending := make([]*PendingSignOff, 0, len(rows))
	for _, row := range rows {
		p := &PendingSignOff{SignOff: SignOffFromDataModel(row)}
		if c, ok := cases[row.CaseID]; ok {
			p.CaseNumber = c.CaseNumber
			p.EmployeeID = c.EmployeeID
			p.LastWorkingDay = CaseFromDataModel(c).LastWorkingDay
		}
		pending = append(pending, p)
	}
	return pending, nil
}

func (s *Service) CancelCase(ctx context.Context, actor *auth.Actor, caseID int64, dto CancelCaseDTO) (*Case, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	c, signOffs, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionCaseCancel, c.Resource(signOffs)); err != nil {
		return nil, err
	}
	if c.Status.IsTerminal() {
		return nil, internal.ErrCaseTerminal
	}

	var (
		cur  *Case
		from Status
	)
	err = s.repo.WithCaseLock(ctx, caseID, func(tx RepositoryAPI, row *separationDatamodel.Case) error {
		cur = CaseFromDataModel(row)
		from = cur.Status
		if err := cur.Transition(StatusCancelled); err != nil {
			return err
		}
		now := s.now()
		cur.CancelledAt = &now
		cur.CancellationReason = dto.Reason
		return tx.SaveCase(ctx, CaseToDataModel(cur))
	})
	if err != nil {
		return nil, s.internalError("failed to cancel separation case", err)
	}

	s.logger.Info("separation case cancelled", "case_id", caseID, "previous_status", from, "actor_id", actor.ID)
	s.publish(ctx,
		events.NewCaseEvent(events.EventTypeCaseCancelled, cur.ID, cur.CaseNumber, cur.EmployeeID, string(from), string(cur.Status), actor.ID),
		events.NewCaseEvent(events.EventTypeStatusChanged, cur.ID, cur.CaseNumber, cur.EmployeeID, string(from), string(cur.Status), actor.ID),
	)
	return s.GetCase(ctx, actor, caseID)
}

// CompleteCase closes a signoff_pending case by hand, typically one held back by a
// rejected sign-off. No sign-off may still be pending.
func (s *Service) CompleteCase(ctx context.Context, actor *auth.Actor, caseID int64, dto CompleteCaseDTO) (*Case, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	c, signOffs, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, auth.ActionCaseComplete, c.Resource(signOffs)); err != nil {
		return nil, err
	}
	if c.Status.IsTerminal() {
		return nil, internal.ErrCaseTerminal
	}

	var (
		cur    *Case
		change Change
	)
	err = s.repo.WithCaseLock(ctx, caseID, func(tx RepositoryAPI, row *separationDatamodel.Case) error {
		cur = CaseFromDataModel(row)
		if cur.Status.IsTerminal() {
			return internal.ErrCaseTerminal
		}
		if cur.Status != StatusSignOffPending {
			return internal.NewValidationError(
				fmt.Sprintf("only %s cases can be completed manually", StatusSignOffPending),
				internal.ErrCodeInvalidTransition,
			)
		}

		all, err := tx.ListSignOffs(ctx, caseID)
		if err != nil {
			return err
		}
		if HasPendingSignOff(signOffsFromDataModel(all)) {
			return internal.NewValidationError("sign-offs are still pending", internal.ErrCodePendingSignOffs)
		}

		change.From = cur.Status
		if err := cur.Transition(StatusCompleted); err != nil {
			return err
		}
		change.To = cur.Status
		now := s.now()
		cur.CompletedAt = &now
		cur.ResolutionNote = dto.ResolutionNote
		return tx.SaveCase(ctx, CaseToDataModel(cur))
	})
	if err != nil {
		return nil, s.internalError("failed to complete separation case", err)
	}

	s.logger.Info("separation case completed manually", "case_id", caseID, "actor_id", actor.ID)
	s.publish(ctx, s.statusEvents(cur, []Change{change}, actor.ID)...)
	return s.GetCase(ctx, actor, caseID)
}

func (s *Service) loadCase(ctx context.Context, id int64) (*Case, []*SignOff, error) {
	row, err := s.repo.GetCase(ctx, id)
	if err != nil {
		return nil, nil, s.internalError("failed to load separation case", err)
	}
	if row == nil {
		return nil, nil, internal.ErrCaseNotFound
	}
	signOffRows, err := s.repo.ListSignOffs(ctx, id)
	if err != nil {
		return nil, nil, s.internalError("failed to load sign-offs", err)
	}
	return CaseFromDataModel(row), signOffsFromDataModel(signOffRows), nil
}

func (s *Service) loadItemCase(ctx context.Context, itemID int64) (*Case, []*SignOff, error) {
	item, err := s.repo.GetChecklistItem(ctx, itemID)
	if err != nil {
		return nil, nil, s.internalError("failed to load checklist item", err)
	}
	if item == nil {
		return nil, nil, internal.ErrChecklistItemNotFound
	}
	return s.loadCase(ctx, item.CaseID)
}

func (s *Service) loadSignOff(ctx context.Context, signOffID int64) (*SignOff, *Case, error) {
	row, err := s.repo.GetSignOff(ctx, signOffID)
	if err != nil {
		return nil, nil, s.internalError("failed to load sign-off", err)
	}
	if row == nil {
		return nil, nil, internal.ErrSignOffNotFound
	}
	c, _, err := s.loadCase(ctx, row.CaseID)
	if err != nil {
		return nil, nil, err
	}
	return SignOffFromDataModel(row), c, nil
}

// checkManager validates an optional manager reference on a case.
func (s *Service) checkManager(ctx context.Context, field string, managerID *int64, employeeID int64) error {
	if managerID == nil {
		return nil
	}
	if *managerID == employeeID {
		return internal.NewValidationFieldError(field, "an employee cannot manage their own case", internal.ErrCodeInvalidAssignee)
	}
	m, err := s.users.GetByID(ctx, *managerID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return internal.NewValidationFieldError(field, "manager does not exist", internal.ErrCodeInvalidAssignee)
		}
		return err
	}
	if !m.IsActive || !m.IsManager() {
		return internal.NewValidationFieldError(field, "manager must be an active user with a manager role", internal.ErrCodeInvalidAssignee)
	}
	return nil
}

func (s *Service) checkAssignee(ctx context.Context, managerID, employeeID int64) error {
	return s.checkManager(ctx, "manager_id", &managerID, employeeID)
}

func (s *Service) statusEvents(c *Case, changes []Change, actorID int64) []events.Event {
	var evts []events.Event
	for _, ch := range changes {
		evts = append(evts, events.NewCaseEvent(events.EventTypeStatusChanged, c.ID, c.CaseNumber, c.EmployeeID, string(ch.From), string(ch.To), actorID))
		if ch.To == StatusCompleted {
			evts = append(evts, events.NewCaseEvent(events.EventTypeCaseCompleted, c.ID, c.CaseNumber, c.EmployeeID, string(ch.From), string(ch.To), actorID))
		}
	}
	return evts
}

// publish runs after commit. Delivery failures are logged, never returned.
func (s *Service) publish(ctx context.Context, evts ...events.Event) {
	if s.publisher == nil {
		return
	}
	for _, e := range evts {
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.logger.Error("failed to publish event", "event_type", e.EventType(), "error", err)
		}
	}
}

// internalError passes AppErrors through and wraps everything else.
func (s *Service) internalError(msg string, err error) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	s.logger.Error(msg, "error", err)
	return internal.NewInternalError(msg, err)
}
