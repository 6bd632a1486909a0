package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dompet/internal/models"
	"dompet/internal/money"
	"dompet/internal/pagination"
	"dompet/internal/services"
)

// ProjectHandler handles savings projects, their items and item checklists.
type ProjectHandler struct {
	projectService services.ProjectServicer
	auditService   services.AuditServicer
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService services.ProjectServicer, auditService services.AuditServicer) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, auditService: auditService}
}

// CreateProjectRequest represents the request payload for creating a project.
// The category must be a savings category without another active project.
type CreateProjectRequest struct {
	CategoryID           string       `json:"category_id" binding:"required,uuid"`
	Name                 string       `json:"name" binding:"required,min=1,max=100"`
	Description          string       `json:"description" binding:"max=500"`
	TargetTotalAmount    money.Amount `json:"target_total_amount" binding:"gte=0"`
	TargetCompletionDate *string      `json:"target_completion_date"`
}

// UpdateProjectRequest represents the request payload for updating a project.
type UpdateProjectRequest struct {
	Name                 *string               `json:"name" binding:"omitempty,min=1,max=100"`
	Description          *string               `json:"description" binding:"omitempty,max=500"`
	TargetTotalAmount    *money.Amount         `json:"target_total_amount" binding:"omitempty,gte=0"`
	TargetCompletionDate *string               `json:"target_completion_date"`
	Status               *models.ProjectStatus `json:"status" binding:"omitempty,project_status"`
}

// CreateItemRequest represents the request payload for adding a project item.
type CreateItemRequest struct {
	ItemType      models.ItemType `json:"item_type" binding:"omitempty,item_type"`
	ItemCategory  string          `json:"item_category" binding:"max=100"`
	Name          string          `json:"name" binding:"required,min=1,max=100"`
	Description   string          `json:"description" binding:"max=500"`
	PlannedAmount money.Amount    `json:"planned_amount" binding:"required,gt=0"`
}

// UpdateItemRequest represents the request payload for editing a project item.
// Status and actual spent follow from payments and are not accepted here.
type UpdateItemRequest struct {
	ItemType      *models.ItemType `json:"item_type" binding:"omitempty,item_type"`
	ItemCategory  *string          `json:"item_category" binding:"omitempty,max=100"`
	Name          *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Description   *string          `json:"description" binding:"omitempty,max=500"`
	PlannedAmount *money.Amount    `json:"planned_amount" binding:"omitempty,gt=0"`
}

// ChecklistTaskRequest represents a new checklist entry.
type ChecklistTaskRequest struct {
	TaskDescription string `json:"task_description" binding:"required,min=1,max=500"`
}

// ChecklistTaskUpdateRequest toggles a checklist entry.
type ChecklistTaskUpdateRequest struct {
	IsCompleted *bool `json:"is_completed" binding:"required"`
}

// CreateProject handles creating a savings project.
// @Summary     Create a project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateProjectRequest true "Project details"
// @Success     201 {object} models.Project "Project created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category already has an active project"
// @Failure     422 {object} ErrorResponse "Category is not a savings category"
// @Router      /projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	targetDate, err := parseOptionalDate("target_completion_date", req.TargetCompletionDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.CreateProject(userID, services.ProjectInput{
		CategoryID:           req.CategoryID,
		Name:                 req.Name,
		Description:          req.Description,
		TargetTotalAmount:    req.TargetTotalAmount,
		TargetCompletionDate: targetDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PROJECT", "project", project.ID, c.ClientIP(),
		map[string]any{"name": req.Name, "category_id": req.CategoryID})

	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// GetUserProjects handles listing projects visible to the user.
// @Summary     List projects
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Project] "Paginated projects"
// @Router      /projects [get]
func (h *ProjectHandler) GetUserProjects(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.projectService.GetUserProjects(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProject handles retrieving a project with its items.
// @Summary     Get project by ID
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} models.Project "Project with items"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.GetProject(userID, projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// UpdateProject handles editing a project.
// @Summary     Update project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Param       request body UpdateProjectRequest true "Changed fields"
// @Success     200 {object} models.Project "Updated project"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Failure     409 {object} ErrorResponse "Category already has an active project"
// @Router      /projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	update := services.ProjectUpdate{
		Name:              req.Name,
		Description:       req.Description,
		TargetTotalAmount: req.TargetTotalAmount,
		Status:            req.Status,
	}
	if update.TargetCompletionDate, err = parseOptionalDate("target_completion_date", req.TargetCompletionDate); err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.UpdateProject(userID, projectID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PROJECT", "project", projectID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// CreateItem handles adding an item to a project.
// @Summary     Add project item
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Param       request body CreateItemRequest true "Item details"
// @Success     201 {object} models.ProjectItem "Item created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/{id}/items [post]
func (h *ProjectHandler) CreateItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	item, err := h.projectService.CreateItem(userID, projectID, services.ItemInput{
		ItemType:      req.ItemType,
		ItemCategory:  req.ItemCategory,
		Name:          req.Name,
		Description:   req.Description,
		PlannedAmount: req.PlannedAmount,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PROJECT_ITEM", "project_item", item.ID, c.ClientIP(),
		map[string]any{"project_id": projectID, "planned_amount": req.PlannedAmount})

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// GetItem handles retrieving a project item.
// @Summary     Get project item
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Success     200 {object} models.ProjectItem "Item details"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /project-items/{id} [get]
func (h *ProjectHandler) GetItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	item, err := h.projectService.GetItem(userID, itemID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// UpdateItem handles editing a project item. Changing the planned amount
// re-derives the item status.
// @Summary     Update project item
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Param       request body UpdateItemRequest true "Changed fields"
// @Success     200 {object} models.ProjectItem "Updated item"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /project-items/{id} [put]
func (h *ProjectHandler) UpdateItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	item, err := h.projectService.UpdateItem(userID, itemID, services.ItemUpdate{
		ItemType:      req.ItemType,
		ItemCategory:  req.ItemCategory,
		Name:          req.Name,
		Description:   req.Description,
		PlannedAmount: req.PlannedAmount,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PROJECT_ITEM", "project_item", itemID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// CancelItem handles cancelling a project item. Cancelled items accept no
// further deposits.
// @Summary     Cancel project item
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Success     200 {object} models.ProjectItem "Cancelled item"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /project-items/{id}/cancel [post]
func (h *ProjectHandler) CancelItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	item, err := h.projectService.CancelItem(userID, itemID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CANCEL_PROJECT_ITEM", "project_item", itemID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteItem handles deleting a project item without payments.
// @Summary     Delete project item
// @Tags        projects
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Success     204 "Item deleted"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     409 {object} ErrorResponse "Item has payments"
// @Router      /project-items/{id} [delete]
func (h *ProjectHandler) DeleteItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.projectService.DeleteItem(userID, itemID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PROJECT_ITEM", "project_item", itemID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// AddChecklistTask handles adding a checklist entry to an item.
// @Summary     Add checklist task
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Param       request body ChecklistTaskRequest true "Task"
// @Success     201 {object} models.ItemChecklist "Task created"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /project-items/{id}/checklist [post]
func (h *ProjectHandler) AddChecklistTask(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChecklistTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	task, err := h.projectService.AddChecklistTask(userID, itemID, req.TaskDescription)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// GetChecklist handles listing an item's checklist.
// @Summary     Get item checklist
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Success     200 {array} models.ItemChecklist "Checklist"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /project-items/{id}/checklist [get]
func (h *ProjectHandler) GetChecklist(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	tasks, err := h.projectService.GetChecklist(userID, itemID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// UpdateChecklistTask handles completing or reopening a checklist entry.
// @Summary     Update checklist task
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Task ID"
// @Param       request body ChecklistTaskUpdateRequest true "Completion flag"
// @Success     200 {object} models.ItemChecklist "Updated task"
// @Failure     404 {object} ErrorResponse "Task not found"
// @Router      /checklist/{id} [put]
func (h *ProjectHandler) UpdateChecklistTask(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	taskID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChecklistTaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	task, err := h.projectService.SetChecklistTaskCompleted(userID, taskID, *req.IsCompleted)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task})
}

// DeleteChecklistTask handles removing a checklist entry.
// @Summary     Delete checklist task
// @Tags        projects
// @Security    BearerAuth
// @Param       id path string true "Task ID"
// @Success     204 "Task deleted"
// @Failure     404 {object} ErrorResponse "Task not found"
// @Router      /checklist/{id} [delete]
func (h *ProjectHandler) DeleteChecklistTask(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	taskID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.projectService.DeleteChecklistTask(userID, taskID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
