package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNotOrganizationMember = errors.New("user is not a member of the organization")
	ErrTaskNotFound          = errors.New("task not found")
	ErrNotTaskCreator        = errors.New("only the task creator can perform this action")
	ErrTitleRequired         = errors.New("title is required")
	ErrTitleEmpty            = errors.New("title cannot be empty")
)

// TaskService handles task business logic. Task creation is gated by the
// tenant tier's task ceiling.
type TaskService struct {
	taskRepo repository.TaskRepository
	orgRepo  repository.OrganizationRepository
	tierGate *TierGate
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, orgRepo repository.OrganizationRepository, tierGate *TierGate) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		orgRepo:  orgRepo,
		tierGate: tierGate,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID         uint64
	OrganizationID *uint64
	Status         *models.TaskStatus
	SortByDueDate  bool
	Page           int
	PageSize       int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title          string
	Description    string
	Status         models.TaskStatus
	DueDate        *time.Time
	OrganizationID uint64
	TeamID         *uint64
	CreatorID      uint64
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	DueDate      *time.Time
	ClearDueDate bool
}

// ListTasks returns tasks accessible to a user based on the provided filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	orgIDs, err := s.resolveAccessibleOrganizationIDs(input.UserID, input.OrganizationID)
	if err != nil {
		return nil, 0, err
	}

	if len(orgIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	filter := repository.TaskFilter{
		OrganizationIDs: orgIDs,
		Status:          input.Status,
		SortByDueDate:   input.SortByDueDate,
		Page:            input.Page,
		PageSize:        input.PageSize,
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Creator", "Organization")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// CreateTask creates a new task after verifying membership and the tenant's
// task ceiling.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}

	org, err := s.orgRepo.FindByID(input.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	if err := s.ensureOrganizationMember(input.OrganizationID, input.CreatorID); err != nil {
		return nil, err
	}

	if err := s.tierGate.CheckScopedLimit(org.Tier, org.ID, models.FeatureTasks); err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}

	task := &models.Task{
		Title:          input.Title,
		Description:    input.Description,
		Status:         input.Status,
		DueDate:        input.DueDate,
		OrganizationID: input.OrganizationID,
		TeamID:         input.TeamID,
		CreatorID:      input.CreatorID,
	}
	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Organization")
}

// UpdateTask updates an existing task
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// DeleteTask deletes a task if the actor is the creator
func (s *TaskService) DeleteTask(taskID, actorID uint64) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if task.CreatorID != actorID {
		return ErrNotTaskCreator
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// resolveAccessibleOrganizationIDs returns the organization IDs the user can access
func (s *TaskService) resolveAccessibleOrganizationIDs(userID uint64, organizationID *uint64) ([]uint64, error) {
	if organizationID != nil {
		if err := s.ensureOrganizationMember(*organizationID, userID); err != nil {
			return nil, err
		}
		return []uint64{*organizationID}, nil
	}

	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization memberships: %w", err)
	}

	orgIDs := make([]uint64, 0, len(memberships))
	for _, m := range memberships {
		orgIDs = append(orgIDs, m.OrganizationID)
	}
	return orgIDs, nil
}

// ensureOrganizationMember verifies that a user belongs to an organization
func (s *TaskService) ensureOrganizationMember(orgID, userID uint64) error {
	_, err := s.orgRepo.FindActiveMember(orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotOrganizationMember
		}
		return fmt.Errorf("failed to verify organization membership: %w", err)
	}
	return nil
}
