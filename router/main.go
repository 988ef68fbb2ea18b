package router

import (
	"log"
	"os"
	"time"

	"github.com/campusgate/campusgate-api/database"
	"github.com/campusgate/campusgate-api/handlers"
	academic_handlers "github.com/campusgate/campusgate-api/handlers/academic"
	auth_handlers "github.com/campusgate/campusgate-api/handlers/auth"
	finance_handlers "github.com/campusgate/campusgate-api/handlers/finance"
	institution_handlers "github.com/campusgate/campusgate-api/handlers/institution"
	posts_handlers "github.com/campusgate/campusgate-api/handlers/posts"
	results_handlers "github.com/campusgate/campusgate-api/handlers/results"
	"github.com/campusgate/campusgate-api/model"
	"github.com/campusgate/campusgate-api/services"
	"github.com/campusgate/campusgate-api/utils/auth"
	"github.com/campusgate/campusgate-api/utils/cache"
	"github.com/campusgate/campusgate-api/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "campusgate-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection and catalog caching
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and catalog caching will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Receipt archival is optional; nil disables it
	receiptService, err := services.NewReceiptServiceFromEnv()
	if err != nil {
		log.Printf("Warning: Failed to initialize receipt storage: %v. Receipts will not be archived.", err)
		receiptService = nil
	}

	// Core services
	financeService := services.NewFinanceService(db, receiptService)
	academicService := services.NewAcademicService(db, redisCache)
	gateway := services.NewStubGateway()

	// Handlers
	healthHandler := handlers.NewHealthHandler(store)
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	institutionHandler := institution_handlers.NewInstitutionHandler(db)
	financeHandler := finance_handlers.NewFinanceHandler(db, financeService, gateway)
	academicHandler := academic_handlers.NewAcademicHandler(db, academicService)
	resultsHandler := results_handlers.NewResultsHandler(db, academicService)
	postsHandler := posts_handlers.NewPostsHandler(db)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", healthHandler.Check)

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)

	// ==================== Institution hierarchy ====================

	universities := api.Group("/universities")
	universities.Get("/", institutionHandler.ListUniversities)
	universities.Get("/:id", institutionHandler.GetUniversity)
	universities.Get("/:id/schools", institutionHandler.ListSchools)
	universities.Post("/", authMiddleware.Required(),
		middleware.RequireRoles([]string{model.RoleRegistrar}, middleware.ScopeOptions{}),
		institutionHandler.CreateUniversity)

	schools := api.Group("/schools", authMiddleware.Required())
	schools.Post("/",
		middleware.RequireRoles([]string{model.RoleRegistrar}, middleware.ScopeOptions{}),
		institutionHandler.CreateSchool)
	schools.Get("/:school_id/departments", institutionHandler.ListDepartments)

	departments := api.Group("/departments", authMiddleware.Required())
	departments.Post("/",
		middleware.RequireRoles([]string{model.RoleDean}, middleware.ScopeOptions{}),
		institutionHandler.CreateDepartment)

	batches := api.Group("/batches", authMiddleware.Required())
	batches.Post("/",
		middleware.RequireRoles([]string{model.RoleDean, model.RoleAdmin}, middleware.ScopeOptions{}),
		institutionHandler.CreateBatch)

	// Registrar-only role assignment
	api.Post("/users/assign-role", authMiddleware.Required(),
		middleware.RequireRoles([]string{model.RoleRegistrar}, middleware.ScopeOptions{}),
		institutionHandler.AssignRole)

	// ==================== Finance ====================

	finance := api.Group("/finance", authMiddleware.Required())

	// Batch release is school-scoped: finance staff act only inside their school
	finance.Post("/schools/:school_id/release",
		middleware.RequireRoles([]string{model.RoleFinance, model.RoleAdmin}, middleware.ScopeOptions{ScopeSchool: true}),
		financeHandler.ReleaseBatch)

	finance.Post("/students/:student_id/release",
		middleware.RequireRoles([]string{model.RoleFinance, model.RoleAdmin}, middleware.ScopeOptions{}),
		financeHandler.ReleaseOne)

	finance.Get("/students/:student_id/bill",
		middleware.RequireRoles([]string{model.RoleFinance, model.RoleAdmin, model.RoleDean}, middleware.ScopeOptions{}),
		financeHandler.GetStudentBill)

	finance.Get("/students/:student_id/scholarship",
		middleware.RequireRoles([]string{model.RoleFinance, model.RoleAdmin}, middleware.ScopeOptions{}),
		financeHandler.PreviewScholarship)

	// Student-facing billing
	finance.Get("/bill", financeHandler.GetBill)
	finance.Post("/pay", financeHandler.Pay)
	finance.Get("/records/:id/transactions", financeHandler.ListTransactions)

	// ==================== Academics ====================

	academic := api.Group("/academic", authMiddleware.Required())

	academic.Get("/departments/:department_id/subjects", academicHandler.ListSubjects)

	// Promotion is department-scoped for admins; deans and the registrar roam
	academic.Post("/departments/:department_id/students/:student_id/promote",
		middleware.RequireRoles([]string{model.RoleAdmin, model.RoleDean}, middleware.ScopeOptions{ScopeDepartment: true}),
		academicHandler.Promote)

	academic.Get("/students/:student_id/progression",
		middleware.RequireRoles([]string{model.RoleAdmin, model.RoleDean, model.RoleTeacher, model.RoleCOE}, middleware.ScopeOptions{}),
		academicHandler.GetProgression)

	// ==================== Examinations ====================

	results := api.Group("/results", authMiddleware.Required())
	results.Post("/",
		middleware.RequireRoles([]string{model.RoleCOE, model.RoleTeacher}, middleware.ScopeOptions{}),
		resultsHandler.Publish)
	results.Get("/me", resultsHandler.MyResults)
	results.Get("/students/:student_id",
		middleware.RequireRoles([]string{model.RoleCOE, model.RoleTeacher, model.RoleAdmin, model.RoleDean}, middleware.ScopeOptions{}),
		resultsHandler.StudentResults)

	// ==================== Feed ====================

	posts := api.Group("/posts", authMiddleware.Required())
	posts.Get("/", postsHandler.List)
	posts.Post("/",
		middleware.RequireRoles([]string{model.RoleAdmin, model.RoleDean, model.RoleTeacher, model.RoleFinance, model.RoleHR}, middleware.ScopeOptions{}),
		postsHandler.Create)
	posts.Post("/:id/comments", postsHandler.Comment)
	posts.Delete("/:id", postsHandler.Delete)
}
