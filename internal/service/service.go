package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shiftboard/config"
	"shiftboard/internal/repository"
	"shiftboard/internal/worker"
	"shiftboard/pkg/push"
)

// BackgroundRunner runs work decoupled from the caller's response.
// *worker.Runner satisfies it.
type BackgroundRunner interface {
	Go(ctx context.Context, name string, task worker.Task)
}

// TaskClaimer grants exclusive, expiring claims across replicas.
// *redis.Client satisfies it.
type TaskClaimer interface {
	Claim(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
}

// Deps external collaborators of the service layer
type Deps struct {
	Repo    *repository.Repository
	Push    push.Sender
	Runner  BackgroundRunner
	Claimer TaskClaimer // optional
	Logger  *zap.Logger
}

// Service all services behind one entry point
type Service struct {
	Settings     SettingsService
	Registration RegistrationService
	Notification NotificationService
	Resolver     EventResolver
	Schedule     ScheduleService
	Template     TemplateService
	Broadcast    BroadcastService
	Export       ExportService
	User         UserService
}

// NewService wires the services
func NewService(cfg *config.Config, deps Deps) *Service {
	settings := NewSettingsService(deps.Repo, deps.Runner, deps.Logger)
	notification := NewNotificationService(deps.Repo, deps.Push, deps.Logger)
	resolver := NewEventResolver(deps.Repo, notification, deps.Logger)

	return &Service{
		Settings:     settings,
		Registration: NewRegistrationService(deps.Repo, settings, deps.Logger),
		Notification: notification,
		Resolver:     resolver,
		Schedule:     NewScheduleService(deps.Repo, resolver, notification, deps.Runner, cfg.Storage.BatchSize, deps.Logger),
		Template:     NewTemplateService(deps.Repo, deps.Logger),
		Broadcast: NewBroadcastService(deps.Repo, deps.Push, deps.Claimer, BroadcastOptions{
			StorageBatch: cfg.Storage.BatchSize,
			PushBatch:    cfg.Push.BatchSize,
			ClaimTTL:     cfg.Scheduler.ClaimTTL,
		}, deps.Logger),
		Export: NewExportService(deps.Repo, deps.Logger),
		User:   NewUserService(deps.Repo, deps.Logger),
	}
}
