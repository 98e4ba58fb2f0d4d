package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/openrally/matchplay/handlers"
	"github.com/openrally/matchplay/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	scheduleHandler *handlers.ScheduleHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
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

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Route("/divisions/{divisionID}", func(r chi.Router) {
		r.Get("/", scheduleHandler.GetDivisionHandler)
		r.Get("/matches", scheduleHandler.ListMatchesHandler)
		r.Get("/standings", scheduleHandler.ListStandingsHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Post("/schedule", scheduleHandler.GenerateScheduleHandler)
			r.Post("/teams/{teamID}/withdraw", scheduleHandler.WithdrawTeamHandler)
		})
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Post("/propose", matchHandler.ProposeScoreHandler)
		r.Post("/sign", matchHandler.SignScoreHandler)
		r.Post("/dispute", matchHandler.DisputeScoreHandler)
		r.Post("/finalize", matchHandler.FinalizeScoreHandler)
		r.Post("/scores", matchHandler.EditScoresHandler)
		r.Post("/submit-dupr", matchHandler.SubmitToDuprHandler)
	})

	router.Get("/ws/divisions/{divisionID}", webSocketHandler.ServeWs)
}
