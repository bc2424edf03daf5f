package handler

import (
	"github.com/where2dive/internal/achievement"
	"github.com/where2dive/internal/locale"
	"github.com/where2dive/internal/notify"
	"github.com/where2dive/internal/service"
	"github.com/where2dive/internal/storage"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	users        *service.UserService
	spots        *service.SpotService
	favorites    *service.FavoriteService
	logs         *service.DiveLogService
	mySpots      *service.PersonalSpotService
	reviews      *service.ReviewService
	profiles     *service.ProfileService
	contact      *service.ContactService
	weather      *service.WeatherService
	imports      *service.ImportService
	achievements *service.AchievementService
	hub          *notify.Hub

	defaultLanguage string
}

// Options carries the collaborators that are configured outside the database.
type Options struct {
	Store           storage.Store
	Weather         *service.WeatherService
	Hub             *notify.Hub
	DefaultLanguage string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	store := opts.Store
	if store == nil {
		store = storage.NewLocalStore("", "")
	}
	weather := opts.Weather
	if weather == nil {
		weather = service.NewWeatherService("", "", 0)
	}

	var notifier achievement.Notifier
	if opts.Hub != nil {
		notifier = notify.NewAchievementNotifier(opts.Hub, achievement.DefaultCatalog())
	}

	logs := service.NewDiveLogService(gdb)
	favorites := service.NewFavoriteService(gdb)
	reviews := service.NewReviewService(gdb, store)

	defaultLanguage := locale.NormalizeLanguage(opts.DefaultLanguage)
	if defaultLanguage == "" {
		defaultLanguage = locale.LanguageKorean
	}

	return &API{
		db:              gdb,
		users:           service.NewUserService(gdb),
		spots:           service.NewSpotService(gdb),
		favorites:       favorites,
		logs:            logs,
		mySpots:         service.NewPersonalSpotService(gdb),
		reviews:         reviews,
		profiles:        service.NewProfileService(gdb, store, reviews),
		contact:         service.NewContactService(gdb),
		weather:         weather,
		imports:         service.NewImportService(gdb, logs, favorites),
		achievements:    service.NewAchievementService(gdb, logs, reviews, notifier),
		hub:             opts.Hub,
		defaultLanguage: defaultLanguage,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Achievements exposes the achievement service so the server can drain pending writes on shutdown.
func (a *API) Achievements() *service.AchievementService {
	return a.achievements
}
