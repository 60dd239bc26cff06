package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HealthcheckRouter sets up the process-liveness route used by
// orchestrators (not to be confused with /info, which reports this
// node's cluster-visible state).
func HealthcheckRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/", getHealthcheck)
	return r
}

//	 getHealthcheck
//		@Summary		Health check
//		@Description	Reports that the process is up and serving.
//		@Tags			system
//		@Success		204	{string}	string	"No Content"
//		@Router			/health [get]
func getHealthcheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
