package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/teamforge/teamforge-api/internal/dto"
	apierrors "github.com/teamforge/teamforge-api/internal/errors"
	"github.com/teamforge/teamforge-api/internal/middleware"
	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"github.com/teamforge/teamforge-api/internal/services"
)

// DepartmentHandler coordinates department-related HTTP handlers.
type DepartmentHandler struct {
	deptService *services.DepartmentService
}

// NewDepartmentHandler creates a new DepartmentHandler.
func NewDepartmentHandler(deptService *services.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{
		deptService: deptService,
	}
}

// CreateDepartment creates a department in the organization
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.Forbidden(c, "Organization access required")
		return
	}
	actorID, _ := middleware.GetUserID(c)

	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	dept, err := h.deptService.CreateDepartment(services.CreateDepartmentInput{
		Name:               req.Name,
		OrganizationID:     org.ID,
		ParentDepartmentID: req.ParentDepartmentID,
		ManagerUserID:      req.ManagerUserID,
		ActorID:            &actorID,
	})
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToDepartmentDTO(*dept))
}

// ListDepartments returns the organization's departments
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.Forbidden(c, "Organization access required")
		return
	}

	depts, err := h.deptService.ListDepartments(org.ID)
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"departments": dto.ToDepartmentDTOs(depts),
	})
}

// GetDepartment returns one department
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	deptID, ok := parseDepartmentID(c)
	if !ok {
		return
	}

	dept, err := h.deptService.GetDepartment(deptID)
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDepartmentDTO(*dept))
}

// GetAncestors returns a department's ancestors, nearest first
func (h *DepartmentHandler) GetAncestors(c *gin.Context) {
	deptID, ok := parseDepartmentID(c)
	if !ok {
		return
	}

	ancestors, err := h.deptService.Ancestors(deptID)
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ancestors": dto.ToDepartmentDTOs(ancestors),
	})
}

// MoveDepartment reparents a department and its subtree
func (h *DepartmentHandler) MoveDepartment(c *gin.Context) {
	deptID, ok := parseDepartmentID(c)
	if !ok {
		return
	}

	var req dto.MoveDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.deptService.MoveDepartment(deptID, req.NewParentID); err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Department moved",
	})
}

// DeactivateDepartment deactivates a department and its subtree
func (h *DepartmentHandler) DeactivateDepartment(c *gin.Context) {
	deptID, ok := parseDepartmentID(c)
	if !ok {
		return
	}

	if err := h.deptService.DeactivateDepartment(deptID); err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Department deactivated",
	})
}

// AddMember adds a user to a department
func (h *DepartmentHandler) AddMember(c *gin.Context) {
	deptID, ok := parseDepartmentID(c)
	if !ok {
		return
	}
	actorID, _ := middleware.GetUserID(c)

	var req dto.AddDepartmentMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.deptService.AddMember(services.AddMemberInput{
		DepartmentID: deptID,
		UserID:       req.UserID,
		Role:         models.DepartmentRole(req.Role),
		AddedBy:      &actorID,
	})
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

// ListMembers returns the active members of a department
func (h *DepartmentHandler) ListMembers(c *gin.Context) {
	deptID, ok := parseDepartmentID(c)
	if !ok {
		return
	}

	members, err := h.deptService.ListMembers(deptID)
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	memberDTOs := make([]dto.DepartmentMemberDTO, len(members))
	for i, m := range members {
		memberDTOs[i] = dto.ToDepartmentMemberDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"members": memberDTOs,
	})
}

// RemoveMember deactivates a department membership
func (h *DepartmentHandler) RemoveMember(c *gin.Context) {
	deptID, ok := parseDepartmentID(c)
	if !ok {
		return
	}

	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.deptService.RemoveMember(deptID, userID); err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed",
	})
}

func parseDepartmentID(c *gin.Context) (uint64, bool) {
	deptID, err := strconv.ParseUint(c.Param("dept_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid department ID")
		return 0, false
	}
	return deptID, true
}

func respondDepartmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDepartmentNotFound),
		errors.Is(err, services.ErrParentDepartmentNotFound),
		errors.Is(err, services.ErrDepartmentMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrDepartmentNameRequired),
		errors.Is(err, services.ErrParentInOtherOrg):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrCycleDetected):
		apierrors.RespondWithError(c, http.StatusConflict,
			apierrors.NewAPIError(apierrors.ErrCodeCycleDetected, err.Error()))
	case errors.Is(err, repository.ErrDepthExceeded),
		errors.Is(err, services.ErrDepartmentTooDeep):
		apierrors.RespondWithError(c, http.StatusUnprocessableEntity,
			apierrors.NewAPIError(apierrors.ErrCodeDepthExceeded, err.Error()))
	case errors.Is(err, repository.ErrCrossOrganizationMove):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAlreadyDepartmentMember):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
