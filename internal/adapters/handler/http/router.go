package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/marathonqa/internal/metrics"
)

type RouterConfig struct {
	Questions      *QuestionHandler
	Answers        *AnswerHandler
	Votes          *VoteHandler
	Auth           *AuthMiddleware
	VoteLimiter    *RateLimiter
	AllowedOrigins []string
	Logger         logrus.FieldLogger
}

func NewHandler(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("welcome"))
		})

		r.Get("/questions", cfg.Questions.ListQuestions)
		r.Get("/questions/{id}", cfg.Questions.GetQuestion)
		r.Get("/questions/{id}/answers", cfg.Answers.ListAnswers)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Auth.Handler)

			r.Post("/questions", cfg.Questions.CreateQuestion)
			r.Put("/questions/{id}", cfg.Questions.UpdateQuestion)
			r.Delete("/questions/{id}", cfg.Questions.DeleteQuestion)
			r.Post("/questions/{id}/answers", cfg.Answers.CreateAnswer)
			r.Put("/answers/{id}", cfg.Answers.UpdateAnswer)
			r.Post("/answers/{id}/accept", cfg.Answers.AcceptAnswer)
			r.Delete("/answers/{id}", cfg.Answers.DeleteAnswer)

			r.Route("/votes", func(r chi.Router) {
				r.With(cfg.VoteLimiter.Handler).Post("/", cfg.Votes.CastVote)
				r.Get("/{targetType}/{targetID}", cfg.Votes.GetVote)
			})
		})
	})

	return r
}
