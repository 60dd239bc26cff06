package v1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clusterreg/clusterreg/pkg/cluster"
	"github.com/clusterreg/clusterreg/pkg/registry"
)

// NewRouter assembles the full HTTP surface: request-id/recovery
// middleware, the health route, the registry routes, and the cluster
// routes.
func NewRouter(svc *registry.Service, view *cluster.View) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Mount("/health", HealthcheckRouter())
	MountRegistryRoutes(r, svc)
	MountClusterRoutes(r, view)

	return r
}
