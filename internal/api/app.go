package api

import (
	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/auth"
	"github.com/Loquest/Mentl2/internal/config"
	"github.com/Loquest/Mentl2/internal/service"
	"github.com/Loquest/Mentl2/internal/storage"
)

type App interface {
	Logger() internal.Logger
	Config() *config.Config
	AuthProvider() auth.Provider
	MoodLogRepo() storage.MoodLogRepository
	Auth() *service.AuthService
	Analytics() *service.AnalyticsService
	Chat() *service.ChatService
	Caregivers() *service.CaregiverService
	Notifications() *service.NotificationService
	Dietary() *service.DietaryService
	Content() *service.ContentService
}

// Application is the App wired by cmd/server.
type Application struct {
	Log          internal.Logger
	Cfg          *config.Config
	Provider     auth.Provider
	Repos        *storage.Repositories
	AuthSvc      *service.AuthService
	AnalyticsSvc *service.AnalyticsService
	ChatSvc      *service.ChatService
	CaregiverSvc *service.CaregiverService
	NotifySvc    *service.NotificationService
	DietarySvc   *service.DietaryService
	ContentSvc   *service.ContentService
}

var _ App = (*Application)(nil)

func (a *Application) Logger() internal.Logger { return a.Log }
func (a *Application) Config() *config.Config { return a.Cfg }
func (a *Application) AuthProvider() auth.Provider { return a.Provider }
func (a *Application) MoodLogRepo() storage.MoodLogRepository { return a.Repos.MoodLogs }
func (a *Application) Auth() *service.AuthService { return a.AuthSvc }
func (a *Application) Analytics() *service.AnalyticsService { return a.AnalyticsSvc }
func (a *Application) Chat() *service.ChatService { return a.ChatSvc }
func (a *Application) Caregivers() *service.CaregiverService { return a.CaregiverSvc }
func (a *Application) Notifications() *service.NotificationService { return a.NotifySvc }
func (a *Application) Dietary() *service.DietaryService { return a.DietarySvc }
func (a *Application) Content() *service.ContentService { return a.ContentSvc }
