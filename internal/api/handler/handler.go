package handler

import "shiftboard/internal/service"

// Handler all HTTP handlers behind one entry point
type Handler struct {
	Settings     *SettingsHandler
	Registration *RegistrationHandler
	Schedule     *ScheduleHandler
	Notification *NotificationHandler
	Template     *TemplateHandler
	Broadcast    *BroadcastHandler
	Export       *ExportHandler
	User         *UserHandler
}

// NewHandler creates the handler aggregate
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Settings:     NewSettingsHandler(svc.Settings),
		Registration: NewRegistrationHandler(svc.Registration),
		Schedule:     NewScheduleHandler(svc.Schedule),
		Notification: NewNotificationHandler(svc.Notification),
		Template:     NewTemplateHandler(svc.Template),
		Broadcast:    NewBroadcastHandler(svc.Broadcast),
		Export:       NewExportHandler(svc.Export),
		User:         NewUserHandler(svc.User),
	}
}
