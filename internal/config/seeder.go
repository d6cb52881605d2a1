package config

import (
	"log"

	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/password"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

var defaultCategories = []models.ServiceCategory{
	{Name: "3D Printing", Description: "Printed parts and models", RequiresDimensions: true, RequiresMaterial: true},
	{Name: "3D Design", Description: "Modelling and CAD work"},
	{Name: "Laser Cutting", Description: "Cut and engraved sheet parts", RequiresDimensions: true, RequiresMaterial: true},
}

// Run executes all seeders. Failures are logged, never fatal.
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if err := s.seedCategories(); err != nil {
		log.Printf("⚠️ Category seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser creates the first admin from ADMIN_EMAIL / ADMIN_PASSWORD
// when no admin exists yet
func (s *Seeder) seedAdminUser() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := getEnv("ADMIN_EMAIL", "")
	plain := getEnv("ADMIN_PASSWORD", "")
	if email == "" || plain == "" {
		log.Println("⚠️ No admin user yet: set ADMIN_EMAIL and ADMIN_PASSWORD to create one")
		return nil
	}

	hashed, err := password.Hash(plain)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:         email,
		PhoneNumber:   getEnv("ADMIN_PHONE", "0700000000"),
		FullName:      getEnv("ADMIN_NAME", "Administrator"),
		Password:      hashed,
		Role:          domain.RoleAdmin,
		IsActive:      true,
		EmailVerified: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Email)
	return nil
}

func (s *Seeder) seedCategories() error {
	var count int64
	if err := s.db.Model(&models.ServiceCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	categories := make([]models.ServiceCategory, len(defaultCategories))
	for i, c := range defaultCategories {
		c.Slug = slug.Make(c.Name)
		c.IsActive = true
		categories[i] = c
	}
	if err := s.db.Create(&categories).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded %d service categories", len(categories))
	return nil
}
