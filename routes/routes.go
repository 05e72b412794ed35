package routes

import (
	"net/http"

	"github.com/Nurbek02/adventure-race-system/handlers"
	appMiddleware "github.com/Nurbek02/adventure-race-system/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(
	router *chi.Mux,
	authenticator *appMiddleware.Authenticator,
	authHandler *handlers.AuthHandler,
	teamHandler *handlers.TeamHandler,
	raceHandler *handlers.RaceHandler,
	categoryHandler *handlers.CategoryHandler,
	registrationHandler *handlers.RegistrationHandler,
	ledgerHandler *handlers.LedgerHandler,
	standingsHandler *handlers.StandingsHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Get("/categories", categoryHandler.ListCategories)
	router.Group(func(r chi.Router) {
		r.Use(authenticator.Authenticate)
		r.Use(appMiddleware.RequireAdmin)
		r.Post("/categories", categoryHandler.CreateCategory)
		r.Put("/categories/{categoryID}/translations", categoryHandler.SetTranslation)
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.ListTeams)
		r.Get("/{teamID}", teamHandler.GetTeam)

		r.Group(func(r chi.Router) {
			r.Use(authenticator.Authenticate)
			r.Post("/", teamHandler.CreateTeam)
			r.Post("/{teamID}/join", teamHandler.JoinTeam)
		})
	})

	router.Route("/races", func(r chi.Router) {
		// Публичные маршруты для просмотра гонок
		r.Get("/", raceHandler.ListRaces)
		r.Get("/{raceID}", raceHandler.GetRace)
		r.Get("/{raceID}/checkpoints", raceHandler.ListCheckpoints)
		r.Get("/{raceID}/tasks", raceHandler.ListTasks)
		r.Get("/{raceID}/registrations", registrationHandler.ListRegistrations)
		r.Get("/{raceID}/standings", standingsHandler.GetStandings)

		// Каталог меняют только администраторы
		r.Group(func(r chi.Router) {
			r.Use(authenticator.Authenticate)
			r.Use(appMiddleware.RequireAdmin)

			r.Post("/", raceHandler.CreateRace)
			r.Put("/{raceID}", raceHandler.UpdateRace)
			r.Delete("/{raceID}", raceHandler.DeleteRace)
			r.Post("/{raceID}/checkpoints", raceHandler.CreateCheckpoint)
			r.Post("/{raceID}/tasks", raceHandler.CreateTask)
		})

		// Регистрации и журнал отметок: аутентификация обязательна,
		// дальнейшие проверки делают ворота и guard внутри журнала.
		r.Group(func(r chi.Router) {
			r.Use(authenticator.Authenticate)

			r.Post("/{raceID}/registrations", registrationHandler.RegisterTeam)
			r.Delete("/{raceID}/registrations/{teamID}", registrationHandler.CancelRegistration)

			r.Post("/{raceID}/checkpoints/{checkpointID}/log", ledgerHandler.LogCheckpoint)
			r.Delete("/{raceID}/checkpoints/{checkpointID}/log", ledgerHandler.UnlogCheckpoint)
			r.Post("/{raceID}/tasks/{taskID}/log", ledgerHandler.LogTask)
			r.Delete("/{raceID}/tasks/{taskID}/log", ledgerHandler.UnlogTask)
		})
	})
}
