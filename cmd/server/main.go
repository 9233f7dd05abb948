package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/teamforge/teamforge-api/internal/config"
	"github.com/teamforge/teamforge-api/internal/constants"
	"github.com/teamforge/teamforge-api/internal/database"
	"github.com/teamforge/teamforge-api/internal/handlers"
	"github.com/teamforge/teamforge-api/internal/logging"
	"github.com/teamforge/teamforge-api/internal/middleware"
	"github.com/teamforge/teamforge-api/internal/models"
	"github.com/teamforge/teamforge-api/internal/repository"
	"github.com/teamforge/teamforge-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	logger := logging.New(cfg.GinMode, cfg.LogLevel)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed the role catalog
	if err := database.SeedRoles(database.GetDB()); err != nil {
		log.Fatalf("Failed to seed roles: %v", err)
	}

	db := database.GetDB()

	// Repositories
	roleRepo, err := repository.NewCachedRoleRepository(repository.NewRoleRepository(db), constants.RoleCacheSize)
	if err != nil {
		log.Fatalf("Failed to initialize role cache: %v", err)
	}
	matrixRepo := repository.NewPermissionMatrixRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	tierGate := services.NewTierGate(usageRepo)
	matrixService := services.NewPermissionMatrixService(matrixRepo, auditRepo, logger)
	roleHierarchy := services.NewRoleHierarchyService(roleRepo)
	checker := services.NewPermissionChecker(roleRepo, matrixRepo, deptRepo, membershipRepo, teamRepo, orgRepo, tierGate, logger)
	orgService := services.NewOrganizationService(orgRepo, matrixService, tierGate, checker, roleHierarchy, auditRepo, logger)
	deptService := services.NewDepartmentService(deptRepo, orgRepo, matrixService, logger)
	teamService := services.NewTeamService(teamRepo, orgRepo, tierGate, matrixService)
	taskService := services.NewTaskService(taskRepo, orgRepo, tierGate)
	authService := services.NewAuthService(userRepo, orgService)

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions("teamforge_session", store))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	orgHandler := handlers.NewOrganizationHandler(orgService)
	deptHandler := handlers.NewDepartmentHandler(deptService)
	teamHandler := handlers.NewTeamHandler(teamService)
	permHandler := handlers.NewPermissionHandler(checker, roleHierarchy, matrixService)
	taskHandler := handlers.NewTaskHandler(taskService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "TeamForge API is running",
		})
	})

	// Prometheus metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Organization routes (protected)
		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth())
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("", orgHandler.ListOrganizations)
			orgs.POST("/join", orgHandler.JoinOrganization)
			orgs.GET("/:id", middleware.RequireOrganizationAccess(), orgHandler.GetOrganization)
			orgs.PUT("/:id", middleware.RequireOrganizationAccess(),
				middleware.RequirePermission(checker, models.CategoryAdministration, "manage_roles"),
				orgHandler.UpdateOrganization)
			orgs.DELETE("/:id", middleware.RequireOrganizationAccess(),
				middleware.RequirePermission(checker, models.CategoryAdministration, "manage_roles"),
				orgHandler.DeleteOrganization)
			orgs.POST("/:id/regenerate-code", middleware.RequireOrganizationAccess(),
				middleware.RequirePermission(checker, models.CategoryAdministration, "manage_roles"),
				orgHandler.RegenerateInviteCode)
			orgs.PUT("/:id/tier", middleware.RequireOrganizationAccess(),
				middleware.RequirePermission(checker, models.CategoryAdministration, "manage_billing"),
				orgHandler.ChangeTier)
			orgs.DELETE("/:id/members/:user_id", middleware.RequireOrganizationAccess(),
				middleware.RequirePermission(checker, models.CategoryAdministration, "manage_roles"),
				orgHandler.RemoveMember)
			orgs.PUT("/:id/members/:user_id/role", middleware.RequireOrganizationAccess(),
				orgHandler.ChangeMemberRole)

			// Department routes nested under the owning organization
			depts := orgs.Group("/:id/departments", middleware.RequireOrganizationAccess())
			{
				depts.POST("", middleware.RequirePermission(checker, models.CategoryDepartments, "create"), deptHandler.CreateDepartment)
				depts.GET("", deptHandler.ListDepartments)
				depts.GET("/:dept_id", deptHandler.GetDepartment)
				depts.GET("/:dept_id/ancestors", deptHandler.GetAncestors)
				depts.PUT("/:dept_id/move", middleware.RequirePermission(checker, models.CategoryDepartments, "move"), deptHandler.MoveDepartment)
				depts.DELETE("/:dept_id", middleware.RequirePermission(checker, models.CategoryDepartments, "delete"), deptHandler.DeactivateDepartment)
				depts.POST("/:dept_id/members", middleware.RequirePermission(checker, models.CategoryDepartments, "manage_members"), deptHandler.AddMember)
				depts.GET("/:dept_id/members", deptHandler.ListMembers)
				depts.DELETE("/:dept_id/members/:user_id", middleware.RequirePermission(checker, models.CategoryDepartments, "manage_members"), deptHandler.RemoveMember)
			}

			// Team routes nested under the owning organization
			teams := orgs.Group("/:id/teams", middleware.RequireOrganizationAccess())
			{
				teams.POST("", middleware.RequirePermission(checker, models.CategoryTeams, "create"), teamHandler.CreateTeam)
				teams.GET("", teamHandler.ListTeams)
				teams.GET("/:team_id", teamHandler.GetTeam)
				teams.POST("/:team_id/members", middleware.RequirePermission(checker, models.CategoryTeams, "manage_members"), teamHandler.AddMember)
				teams.GET("/:team_id/members", teamHandler.ListMembers)
				teams.DELETE("/:team_id/members/:user_id", middleware.RequirePermission(checker, models.CategoryTeams, "manage_members"), teamHandler.RemoveMember)
			}
		}

		// Permission routes (protected)
		perms := api.Group("/permissions")
		perms.Use(middleware.RequireAuth())
		{
			perms.POST("/check", permHandler.CheckPermission)
			perms.POST("/check-batch", permHandler.CheckPermissionBatch)
			perms.GET("/roles", permHandler.GetRoleTree)
			perms.GET("/roles/:role_name/inherited", permHandler.GetInheritedPermissions)
			perms.POST("/roles/migration-impact", permHandler.AssessMigrationImpact)
			perms.GET("/matrix/:entity_type/:entity_id", permHandler.GetMatrix)
			perms.PUT("/matrix/:entity_type/:entity_id", permHandler.ReplaceMatrix)
			perms.GET("/matrix/:entity_type/:entity_id/history", permHandler.GetMatrixHistory)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:task_id", taskHandler.GetTask)
			tasks.PATCH("/:task_id", taskHandler.UpdateTask)
			tasks.DELETE("/:task_id", taskHandler.DeleteTask)
		}
	}

	// Start server
	logger.WithField("addr", cfg.ListenAddr).Info("server starting")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
