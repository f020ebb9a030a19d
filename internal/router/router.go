package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/hmes-platform/api/internal/config"
	"github.com/hmes-platform/api/internal/enum"
	"github.com/hmes-platform/api/internal/handler"
	mw "github.com/hmes-platform/api/internal/middleware"
	"github.com/hmes-platform/api/internal/service"
	"github.com/hmes-platform/api/internal/store"
	"github.com/hmes-platform/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *store.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // Vite dev server
			"https://admin.hmes.id", // Production admin
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/tickets", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Uploaded attachments and images
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			userHandler := handler.NewUserHandler(queries)
			r.Route("/user", userHandler.RegisterRoutes)

			incomeService := service.NewIncomeService(pool, func(db store.DBTX) service.IncomeStore {
				return store.New(db)
			})
			incomeHandler := handler.NewIncomeHandler(queries, incomeService)
			r.Route("/employee-income", incomeHandler.RegisterRoutes)
		})

		// Master data (Staff and Admin)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleStaff, enum.UserRoleAdmin))

			categoryHandler := handler.NewCategoryHandler(queries, cfg.UploadDir)
			r.Route("/category", categoryHandler.RegisterRoutes)

			productHandler := handler.NewProductHandler(queries, cfg.UploadDir)
			r.Route("/product", productHandler.RegisterRoutes)

			deviceHandler := handler.NewDeviceHandler(queries, cfg.UploadDir)
			r.Route("/devices", deviceHandler.RegisterRoutes)

			phaseHandler := handler.NewPhaseHandler(queries)
			r.Route("/phase", phaseHandler.RegisterRoutes)

			targetValueHandler := handler.NewTargetValueHandler(queries)
			r.Route("/target-value", targetValueHandler.RegisterRoutes)

			plantHandler := handler.NewPlantHandler(queries)
			r.Route("/plant", plantHandler.RegisterRoutes)
		})

		// Tickets: customers see their own, staff manage assignment.
		ticketHandler := handler.NewTicketHandler(queries, hub, cfg.UploadDir)
		r.Route("/ticket", func(r chi.Router) {
			ticketHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleStaff, enum.UserRoleAdmin))
				ticketHandler.RegisterStaffRoutes(r)
			})
		})

		// Orders
		orderService := service.NewOrderService(pool, func(db store.DBTX) service.OrderStore {
			return store.New(db)
		})
		orderHandler := handler.NewOrderHandler(queries, orderService)
		r.Route("/order", orderHandler.RegisterRoutes)
	})

	return r
}
