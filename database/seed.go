package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/minhtran-dev/edumarket-api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// RunSeeds runs all seed functions against the given database
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedDemoUsers(); err != nil {
		return fmt.Errorf("failed to seed demo users: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	log.Println("Database seeding completed successfully")
	return nil
}

// SeedAdminUser creates the default admin user from ADMIN_EMAIL and
// ADMIN_PASSWORD. Skipped when either variable is unset or an admin
// already exists.
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("ADMIN_EMAIL and ADMIN_PASSWORD not set, skipping admin user creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         model.RoleAdmin,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("Created admin user: %s", admin.Email)
	return nil
}

// SeedDemoUsers creates a demo teacher and two demo students. All demo
// accounts share the password "password123".
func (s *Seeder) SeedDemoUsers() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role IN ?", []string{model.RoleTeacher, model.RoleStudent}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Demo users already exist, skipping")
		return nil
	}

	passwordHash, err := auth.HashPassword("password123")
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := []model.User{
		{Email: "teacher@example.com", PasswordHash: passwordHash, Name: "Linh Pham", Role: model.RoleTeacher},
		{Email: "student1@example.com", PasswordHash: passwordHash, Name: "An Nguyen", Role: model.RoleStudent},
		{Email: "student2@example.com", PasswordHash: passwordHash, Name: "Bao Tran", Role: model.RoleStudent},
	}

	for i := range users {
		if err := s.db.Create(&users[i]).Error; err != nil {
			return err
		}
		log.Printf("Created %s user: %s", users[i].Role, users[i].Email)
	}

	return nil
}

// SeedCourses creates two demo courses with sessions and assignments
func (s *Seeder) SeedCourses() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Courses already exist, skipping")
		return nil
	}

	var teacher model.User
	if err := s.db.Where("role = ?", model.RoleTeacher).First(&teacher).Error; err != nil {
		log.Println("No teacher user found, skipping course seeding")
		return nil
	}

	courses := []model.Course{
		{
			TeacherID:   teacher.ID,
			Title:       "Practical Backend Engineering",
			Description: "REST APIs, databases and deployment, taught through a real project.",
			Price:       500000,
			Status:      model.CourseActive,
		},
		{
			TeacherID:   teacher.ID,
			Title:       "Introduction to Data Analysis",
			Description: "Spreadsheets to SQL to dashboards. No programming background required.",
			Price:       0,
			Status:      model.CourseActive,
		},
	}

	for i := range courses {
		if err := s.db.Create(&courses[i]).Error; err != nil {
			return err
		}
		log.Printf("Created course: %s", courses[i].Title)
	}

	// Weekly sessions and a couple of assignments for the first course
	start := time.Now().AddDate(0, 0, 7).Truncate(time.Hour)
	for week := 0; week < 8; week++ {
		session := model.ClassSession{
			CourseID: courses[0].ID,
			Title:    fmt.Sprintf("Week %d", week+1),
			StartsAt: start.AddDate(0, 0, 7*week),
			EndsAt:   start.AddDate(0, 0, 7*week).Add(2 * time.Hour),
			Location: "Room 204",
		}
		if err := s.db.Create(&session).Error; err != nil {
			return err
		}
	}

	dueAt := start.AddDate(0, 0, 21)
	assignments := []model.Assignment{
		{
			CourseID:   courses[0].ID,
			Title:      "Build a CRUD API",
			Content:    "Implement a small REST API with create, read, update and delete endpoints.",
			DueAt:      &dueAt,
			IsRequired: true,
			MaxScore:   10,
		},
		{
			CourseID:   courses[0].ID,
			Title:      "Bonus: Add caching",
			Content:    "Add a caching layer to your API and measure the difference.",
			IsRequired: false,
			MaxScore:   5,
		},
	}

	for i := range assignments {
		if err := s.db.Create(&assignments[i]).Error; err != nil {
			return err
		}
	}

	log.Println("Created sessions and assignments for demo courses")
	return nil
}
