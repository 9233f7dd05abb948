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
	"github.com/teamforge/teamforge-api/internal/services"
)

// TeamHandler coordinates team-related HTTP handlers.
type TeamHandler struct {
	teamService *services.TeamService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// CreateTeam creates a team in the organization
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.Forbidden(c, "Organization access required")
		return
	}
	actorID, _ := middleware.GetUserID(c)

	var req dto.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.CreateTeam(services.CreateTeamInput{
		Name:           req.Name,
		OrganizationID: org.ID,
		OwnerID:        actorID,
		Tier:           models.SubscriptionTier(req.Tier),
	})
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team))
}

// ListTeams returns the organization's active teams
func (h *TeamHandler) ListTeams(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.Forbidden(c, "Organization access required")
		return
	}

	teams, err := h.teamService.ListTeams(org.ID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"teams": dto.ToTeamDTOs(teams),
	})
}

// GetTeam returns one team
func (h *TeamHandler) GetTeam(c *gin.Context) {
	teamID, ok := parseTeamID(c)
	if !ok {
		return
	}

	team, err := h.teamService.GetTeam(teamID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}

// AddMember adds a user to a team
func (h *TeamHandler) AddMember(c *gin.Context) {
	teamID, ok := parseTeamID(c)
	if !ok {
		return
	}
	actorID, _ := middleware.GetUserID(c)

	var req dto.AddTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.teamService.AddMember(services.AddTeamMemberInput{
		TeamID:   teamID,
		UserID:   req.UserID,
		RoleName: req.RoleName,
		AddedBy:  &actorID,
	})
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

// ListMembers returns the active members of a team
func (h *TeamHandler) ListMembers(c *gin.Context) {
	teamID, ok := parseTeamID(c)
	if !ok {
		return
	}

	members, err := h.teamService.ListMembers(teamID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	memberDTOs := make([]dto.TeamMemberDTO, len(members))
	for i, m := range members {
		memberDTOs[i] = dto.ToTeamMemberDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"members": memberDTOs,
	})
}

// RemoveMember deactivates a team membership
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	teamID, ok := parseTeamID(c)
	if !ok {
		return
	}

	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.teamService.RemoveMember(teamID, userID); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed",
	})
}

func parseTeamID(c *gin.Context) (uint64, bool) {
	teamID, err := strconv.ParseUint(c.Param("team_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid team ID")
		return 0, false
	}
	return teamID, true
}

func respondTeamError(c *gin.Context, err error) {
	var limitErr *services.LimitExceededError
	switch {
	case errors.As(err, &limitErr):
		apierrors.LimitExceeded(c, limitErr.Error())
	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrTeamMemberNotFound),
		errors.Is(err, services.ErrOrganizationNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrTeamTierUnknown):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAlreadyTeamMember):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
