package httpserver

import (
	"net/http"

	"family-registry-go/internal/config"
	"family-registry-go/internal/transport/httpserver/handler"
	authmw "family-registry-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, auth *authmw.TokenAuth) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if cfg.HTTP.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.HTTP.RequestTimeout))
	}
	r.Use(authmw.NewCORS(cfg.CORSOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)
		r.Post("/auth/register", handlers.Common.Register)
		r.Post("/auth/login", handlers.Common.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.Common.AuthMe)
			r.Get("/permissions", handlers.Common.ListPermissions)

			r.Get("/roles", handlers.Accounts.ListRoles)
			r.Post("/roles", handlers.Accounts.CreateRole)
			r.Get("/roles/{id}", handlers.Accounts.GetRole)
			r.Patch("/roles/{id}", handlers.Accounts.UpdateRole)
			r.Delete("/roles/{id}", handlers.Accounts.DeleteRole)

			r.Get("/accounts/{id}", handlers.Accounts.GetAccount)
			r.Patch("/accounts/{id}/status", handlers.Accounts.SetStatus)
			r.Patch("/accounts/{id}/role", handlers.Accounts.AssignRole)
			r.Delete("/accounts/{id}", handlers.Accounts.DeleteAccount)
			r.Get("/accounts/{id}/dependencies", handlers.Accounts.Dependencies)
			r.Post("/accounts/{id}/restore", handlers.Accounts.RestoreAccount)
			r.Get("/accounts/{id}/transfers", handlers.Accounts.ListTransfers)

			r.Get("/accounts/{id}/members", handlers.Families.ListMembers)
			r.Post("/accounts/{id}/members", handlers.Families.AddMember)
			r.Get("/families/{family_id}", handlers.Families.GetFamily)
			r.Get("/members/{id}", handlers.Families.GetMember)
			r.Patch("/members/{id}", handlers.Families.UpdateMember)
			r.Delete("/members/{id}", handlers.Families.DeleteMember)
			r.Post("/members/{id}/approve", handlers.Families.ApproveMember)
			r.Post("/members/{id}/reject", handlers.Families.RejectMember)
			r.Patch("/admin/members/{id}", handlers.Families.AdminUpdateMember)
			r.Delete("/admin/members/{id}", handlers.Families.AdminDeleteMember)

			r.Post("/transfers", handlers.Families.TransferPrimary)

			r.Get("/audit", handlers.Admin.ListAudit)
			r.Post("/integrity/run", handlers.Admin.RunIntegrity)
		})
	})

	return r
}
