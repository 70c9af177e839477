package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/minhtran-dev/edumarket-api/database"
	"github.com/minhtran-dev/edumarket-api/handlers"
	admin_handlers "github.com/minhtran-dev/edumarket-api/handlers/admin"
	assignment_handlers "github.com/minhtran-dev/edumarket-api/handlers/assignment"
	attendance_handlers "github.com/minhtran-dev/edumarket-api/handlers/attendance"
	auth_handlers "github.com/minhtran-dev/edumarket-api/handlers/auth"
	certificate_handlers "github.com/minhtran-dev/edumarket-api/handlers/certificate"
	course_handlers "github.com/minhtran-dev/edumarket-api/handlers/course"
	dashboard_handlers "github.com/minhtran-dev/edumarket-api/handlers/dashboard"
	enrollment_handlers "github.com/minhtran-dev/edumarket-api/handlers/enrollment"
	review_handlers "github.com/minhtran-dev/edumarket-api/handlers/review"
	"github.com/minhtran-dev/edumarket-api/services"
	"github.com/minhtran-dev/edumarket-api/utils/auth"
	"github.com/minhtran-dev/edumarket-api/utils/cache"
	"github.com/minhtran-dev/edumarket-api/utils/middleware"
	"github.com/minhtran-dev/edumarket-api/utils/storage"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "edumarket-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs login brute force protection; the API still runs
	// without it
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Blob storage for submission uploads, optional in the same way
	var fileStore *storage.Client
	if bucket := os.Getenv("SPACES_BUCKET"); bucket != "" {
		fileStore, err = storage.NewClient(storage.Config{
			Bucket:    bucket,
			Region:    os.Getenv("SPACES_REGION"),
			Endpoint:  os.Getenv("SPACES_ENDPOINT"),
			AccessKey: os.Getenv("SPACES_KEY"),
			SecretKey: os.Getenv("SPACES_SECRET"),
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize blob storage: %v. File uploads will be disabled.", err)
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Services
	paymentService := services.NewPaymentService(db)
	enrollmentService := services.NewEnrollmentService(db, paymentService)
	progressService := services.NewProgressService(db)
	certificateService := services.NewCertificateService(db, progressService, enrollmentService)
	attendanceService := services.NewAttendanceService(db)
	assignmentService := services.NewAssignmentService(db, enrollmentService)
	reviewService := services.NewReviewService(db, enrollmentService)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(db)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(db, enrollmentService, paymentService, auditService)
	dashboardHandler := dashboard_handlers.NewDashboardHandler(db, enrollmentService, progressService, certificateService)
	attendanceHandler := attendance_handlers.NewAttendanceHandler(attendanceService)
	assignmentHandler := assignment_handlers.NewAssignmentHandler(db, assignmentService, fileStore)
	reviewHandler := review_handlers.NewReviewHandler(reviewService)
	certificateHandler := certificate_handlers.NewCertificateHandler(db, certificateService)
	adminHandler := admin_handlers.NewAdminHandler(db, auditService)

	// Security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error { return handlers.HandleCheckHealth(c, store) })

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Course catalog
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)                // Public: browse catalog
	courses.Get("/:id", courseHandler.GetCourse)               // Public: course detail
	courses.Get("/:course_id/sessions", courseHandler.ListSessions)
	courses.Get("/:course_id/assignments", assignmentHandler.ListAssignments)
	courses.Get("/:id/reviews", reviewHandler.ListReviews)

	// Enrollment and purchase (student)
	courses.Post("/:id/enroll", authMiddleware.Required(), enrollmentHandler.Enroll)
	courses.Post("/:id/buy", authMiddleware.Required(), enrollmentHandler.Buy)
	courses.Post("/:id/reviews", authMiddleware.Required(), reviewHandler.PostReview)

	// Progress and completion (student)
	courses.Get("/:id/progress", authMiddleware.Required(), dashboardHandler.GetCourseProgress)
	courses.Post("/:id/refresh-completion", authMiddleware.Required(), dashboardHandler.RefreshCompletion)
	courses.Get("/:id/certificate", authMiddleware.Required(), certificateHandler.GetForCourse)

	// Student dashboard
	api.Get("/dashboard", authMiddleware.Required(), dashboardHandler.GetDashboard)

	// Certificates
	api.Get("/certificates", authMiddleware.Required(), certificateHandler.ListMine)
	api.Get("/certificates/verify/:code", certificateHandler.Verify) // Public: third-party verification

	// Assignment submission (student)
	api.Post("/assignments/:id/submit", authMiddleware.Required(), assignmentHandler.Submit)

	// Teacher routes
	teacher := api.Group("/teacher", authMiddleware.Required(), authMiddleware.RequireTeacher())
	teacher.Post("/courses", courseHandler.CreateCourse)
	teacher.Put("/courses/:id", courseHandler.UpdateCourse)
	teacher.Delete("/courses/:id", courseHandler.DeleteCourse)
	teacher.Post("/courses/:course_id/sessions", courseHandler.CreateSession)
	teacher.Delete("/courses/:course_id/sessions/:id", courseHandler.DeleteSession)
	teacher.Post("/courses/:course_id/assignments", assignmentHandler.CreateAssignment)
	teacher.Get("/sessions/:session_id/attendance", attendanceHandler.GetSheet)
	teacher.Post("/sessions/:session_id/attendance", attendanceHandler.RecordSheet)
	teacher.Get("/assignments/:id/submissions", assignmentHandler.ListSubmissions)
	teacher.Post("/submissions/:id/grade", assignmentHandler.Grade)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.Required(), authMiddleware.RequireAdmin())
	admin.Get("/enrollments", enrollmentHandler.ListAdmin)
	admin.Post("/enrollments/:id/cancel", enrollmentHandler.Cancel)
	admin.Post("/enrollments/:id/refund", enrollmentHandler.Refund)
	admin.Get("/enrollments/:id/payments", enrollmentHandler.Ledger)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/role", adminHandler.UpdateUserRole)
	admin.Get("/audit-logs", adminHandler.ListAuditLogs)
}
