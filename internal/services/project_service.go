package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/pagination"
)

// projectService manages savings projects, their items and item checklists.
// Money movement lives in projectPaymentService.
type projectService struct {
	db      *gorm.DB
	policy  AccessPolicy
	savings savingsStateMachine
}

// NewProjectService creates a new ProjectServicer.
func NewProjectService(db *gorm.DB, policy AccessPolicy) ProjectServicer {
	return &projectService{db: db, policy: policy}
}

// ensureNoActiveProject fails when the category already has a project that is
// not completed. excludeID skips the project being edited.
func ensureNoActiveProject(db *gorm.DB, categoryID, excludeID string) error {
	q := db.Model(&models.Project{}).
		Where("category_id = ? AND status <> ?", categoryID, models.ProjectStatusCompleted)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrActiveProjectExists
	}
	return nil
}

// CreateProject starts a project on a savings category.
func (s *projectService) CreateProject(userID string, in ProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.InvalidField("name", "project name is required")
	}
	if in.TargetTotalAmount < 0 {
		return nil, apperrors.InvalidField("target_total_amount", "target total cannot be negative")
	}

	category, err := findCategory(s.db, s.policy, userID, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if category.BudgetType != models.BudgetTypeSavings {
		return nil, apperrors.WithDetails(apperrors.ErrProjectCategoryNotSaving, "",
			map[string]any{"budget_type": category.BudgetType})
	}

	project := &models.Project{
		UserID:            userID,
		CategoryID:        category.ID,
		Name:              name,
		Description:       in.Description,
		TargetTotalAmount: in.TargetTotalAmount,
		Status:            models.ProjectStatusPlanning,
	}
	if in.TargetCompletionDate != nil {
		d := models.DateOf(*in.TargetCompletionDate)
		project.TargetCompletionDate = &d
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureNoActiveProject(tx, category.ID, ""); err != nil {
			return err
		}
		if err := tx.Create(project).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject returns a project with its items.
func (s *projectService) GetProject(userID, projectID string) (*models.Project, error) {
	project, _, err := findProject(s.db, s.policy, userID, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Where("project_id = ?", project.ID).
		Order("created_at ASC").
		Find(&project.Items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return project, nil
}

// GetUserProjects lists projects on categories the user can access.
func (s *projectService) GetUserProjects(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Project], error) {
	page.Defaults()

	base := s.db.Model(&models.Project{}).
		Where("category_id IN (?)", accessibleCategoryIDs(s.db, s.policy, userID))

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var projects []models.Project
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(projects, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateProject edits project metadata and status. Reopening a completed
// project is subject to the one-active-project rule.
func (s *projectService) UpdateProject(userID, projectID string, in ProjectUpdate) (*models.Project, error) {
	project, _, err := findProject(s.db, s.policy, userID, projectID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.InvalidField("name", "project name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.TargetTotalAmount != nil {
		if *in.TargetTotalAmount < 0 {
			return nil, apperrors.InvalidField("target_total_amount", "target total cannot be negative")
		}
		updates["target_total_amount"] = *in.TargetTotalAmount
	}
	if in.TargetCompletionDate != nil {
		updates["target_completion_date"] = models.DateOf(*in.TargetCompletionDate)
	}
	reopening := false
	if in.Status != nil && *in.Status != project.Status {
		if !in.Status.Valid() {
			return nil, apperrors.InvalidField("status", "status must be planning, on_going or completed")
		}
		updates["status"] = *in.Status
		reopening = project.Status == models.ProjectStatusCompleted
	}

	if len(updates) == 0 {
		return project, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if reopening {
			if err := ensureNoActiveProject(tx, project.CategoryID, project.ID); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return tx.Where("id = ?", project.ID).First(project).Error
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// CreateItem adds an item to a project.
func (s *projectService) CreateItem(userID, projectID string, in ItemInput) (*models.ProjectItem, error) {
	project, _, err := findProject(s.db, s.policy, userID, projectID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.InvalidField("name", "item name is required")
	}
	if in.PlannedAmount <= 0 {
		return nil, apperrors.InvalidField("planned_amount", "planned amount must be greater than zero")
	}
	if in.ItemType == "" {
		in.ItemType = models.ItemTypeGoods
	}
	if !in.ItemType.Valid() {
		return nil, apperrors.InvalidField("item_type", "unsupported item type")
	}

	item := &models.ProjectItem{
		ProjectID:     project.ID,
		ItemType:      in.ItemType,
		ItemCategory:  in.ItemCategory,
		Name:          name,
		Description:   in.Description,
		PlannedAmount: in.PlannedAmount,
		Status:        models.ItemStatusPending,
	}
	if err := s.db.Create(item).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return item, nil
}

// GetItem returns a project item the user can access.
func (s *projectService) GetItem(userID, itemID string) (*models.ProjectItem, error) {
	ctx, err := findItem(s.db, s.policy, userID, itemID)
	if err != nil {
		return nil, err
	}
	return ctx.Item, nil
}

// UpdateItem edits item metadata. A planned amount change resyncs the
// item's status against its savings.
func (s *projectService) UpdateItem(userID, itemID string, in ItemUpdate) (*models.ProjectItem, error) {
	ctx, err := findItem(s.db, s.policy, userID, itemID)
	if err != nil {
		return nil, err
	}
	item := ctx.Item

	updates := make(map[string]any)
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.InvalidField("name", "item name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.ItemCategory != nil {
		updates["item_category"] = *in.ItemCategory
	}
	if in.ItemType != nil {
		if !in.ItemType.Valid() {
			return nil, apperrors.InvalidField("item_type", "unsupported item type")
		}
		updates["item_type"] = *in.ItemType
	}
	plannedChanged := false
	if in.PlannedAmount != nil && *in.PlannedAmount != item.PlannedAmount {
		if *in.PlannedAmount <= 0 {
			return nil, apperrors.InvalidField("planned_amount", "planned amount must be greater than zero")
		}
		updates["planned_amount"] = *in.PlannedAmount
		plannedChanged = true
	}

	if len(updates) == 0 {
		return item, nil
	}

	var updated *models.ProjectItem
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ProjectItem{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if plannedChanged {
			var err error
			updated, err = s.savings.resync(tx, item.ID)
			return err
		}
		updated = &models.ProjectItem{}
		return tx.Where("id = ?", item.ID).First(updated).Error
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CancelItem marks an item cancelled. Recorded payments stay in place;
// a completed item cannot be cancelled.
func (s *projectService) CancelItem(userID, itemID string) (*models.ProjectItem, error) {
	ctx, err := findItem(s.db, s.policy, userID, itemID)
	if err != nil {
		return nil, err
	}
	item := ctx.Item
	switch item.Status {
	case models.ItemStatusCancelled:
		return item, nil
	case models.ItemStatusComplete:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a completed item cannot be cancelled")
	}

	if err := s.db.Model(&models.ProjectItem{}).
		Where("id = ?", item.ID).
		Update("status", models.ItemStatusCancelled).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	item.Status = models.ItemStatusCancelled
	return item, nil
}

// DeleteItem removes an item with no payments, together with its checklist.
func (s *projectService) DeleteItem(userID, itemID string) error {
	ctx, err := findItem(s.db, s.policy, userID, itemID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ProjectPayment{}).Where("project_item_id = ?", ctx.Item.ID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.WithDetails(apperrors.ErrItemHasPayments, "",
				map[string]any{"payment_count": count})
		}
		if err := tx.Delete(&models.ItemChecklist{}, "project_item_id = ?", ctx.Item.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.ProjectItem{}, "id = ?", ctx.Item.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// AddChecklistTask appends a to-do entry to an item.
func (s *projectService) AddChecklistTask(userID, itemID, description string) (*models.ItemChecklist, error) {
	ctx, err := findItem(s.db, s.policy, userID, itemID)
	if err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.InvalidField("task_description", "task description is required")
	}

	task := &models.ItemChecklist{
		ProjectItemID:   ctx.Item.ID,
		TaskDescription: description,
	}
	if err := s.db.Create(task).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return task, nil
}

// GetChecklist lists an item's tasks in creation order.
func (s *projectService) GetChecklist(userID, itemID string) ([]models.ItemChecklist, error) {
	ctx, err := findItem(s.db, s.policy, userID, itemID)
	if err != nil {
		return nil, err
	}
	tasks := []models.ItemChecklist{}
	if err := s.db.Where("project_item_id = ?", ctx.Item.ID).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tasks, nil
}

func (s *projectService) findTask(userID, taskID string) (*models.ItemChecklist, error) {
	var task models.ItemChecklist
	if err := s.db.Where("id = ?", taskID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChecklistTaskNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if _, err := findItem(s.db, s.policy, userID, task.ProjectItemID); err != nil {
		if errors.Is(err, apperrors.ErrProjectItemNotFound) {
			return nil, apperrors.ErrChecklistTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// SetChecklistTaskCompleted ticks or unticks a task.
func (s *projectService) SetChecklistTaskCompleted(userID, taskID string, completed bool) (*models.ItemChecklist, error) {
	task, err := s.findTask(userID, taskID)
	if err != nil {
		return nil, err
	}

	var completedAt *time.Time
	if completed {
		now := time.Now().UTC()
		completedAt = &now
	}
	if err := s.db.Model(&models.ItemChecklist{}).Where("id = ?", task.ID).Updates(map[string]any{
		"is_completed": completed,
		"completed_at": completedAt,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	task.IsCompleted = completed
	task.CompletedAt = completedAt
	return task, nil
}

// DeleteChecklistTask removes a task.
func (s *projectService) DeleteChecklistTask(userID, taskID string) error {
	task, err := s.findTask(userID, taskID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&models.ItemChecklist{}, "id = ?", task.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
