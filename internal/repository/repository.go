package repository

import "gorm.io/gorm"

// Repository all repositories behind one entry point
type Repository struct {
	User           UserRepository
	Settings       SettingsRepository
	AssignmentUnit AssignmentUnitRepository
	Registration   RegistrationRepository
	Notification   NotificationRepository
	Template       TemplateRepository
	BroadcastTask  BroadcastTaskRepository
}

// NewRepository builds the gorm-backed repositories
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:           NewUserRepo(db),
		Settings:       NewSettingsRepo(db),
		AssignmentUnit: NewAssignmentUnitRepo(db),
		Registration:   NewRegistrationRepo(db),
		Notification:   NewNotificationRepo(db),
		Template:       NewTemplateRepo(db),
		BroadcastTask:  NewBroadcastTaskRepo(db),
	}
}
