package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clusterreg/clusterreg/pkg/cluster"
	clustererrors "github.com/clusterreg/clusterreg/pkg/errors"
	"github.com/clusterreg/clusterreg/pkg/registry"
)

// MountRegistryRoutes registers the registry read/write endpoints on r:
// /reg, /unreg, /findAll, /renew, /renews, /version, /versions,
// /snapshot.
func MountRegistryRoutes(r chi.Router, svc *registry.Service) {
	routes := &registryRoutes{svc: svc}
	r.Post("/reg", routes.register)
	r.Post("/unreg", routes.unregister)
	r.Get("/findAll", routes.findAll)
	r.Post("/renew", routes.renew)
	r.Post("/renews", routes.renews)
	r.Post("/version", routes.version)
	r.Post("/versions", routes.versions)
	r.Get("/snapshot", routes.snapshot)
}

// MountClusterRoutes registers the cluster introspection endpoints on
// r: /info, /cluster, /leader.
func MountClusterRoutes(r chi.Router, view *cluster.View) {
	routes := &clusterRoutes{view: view}
	r.Get("/info", routes.info)
	r.Get("/cluster", routes.cluster)
	r.Get("/leader", routes.leader)
}

type registryRoutes struct {
	svc *registry.Service
}

func decodeInstance(r *http.Request) (registry.InstanceMeta, error) {
	var inst registry.InstanceMeta
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(&inst); err != nil {
		return registry.InstanceMeta{}, clustererrors.NewInvalidArgumentError("malformed InstanceMeta body", err)
	}
	return inst, nil
}

//	 register
//		@Summary	Register a service instance
//		@Tags		registry
//		@Router		/reg [post]
func (rt *registryRoutes) register(w http.ResponseWriter, r *http.Request) {
	service, err := serviceParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	inst, err := decodeInstance(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := rt.svc.Register(service, inst)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out)
}

//	 unregister
//		@Summary	Unregister a service instance
//		@Tags		registry
//		@Router		/unreg [post]
func (rt *registryRoutes) unregister(w http.ResponseWriter, r *http.Request) {
	service, err := serviceParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	inst, err := decodeInstance(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := rt.svc.Unregister(service, inst)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out)
}

//	 findAll
//		@Summary	List instances for a service
//		@Tags		registry
//		@Router		/findAll [get]
func (rt *registryRoutes) findAll(w http.ResponseWriter, r *http.Request) {
	service, err := serviceParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	instances, ok := rt.svc.GetAllInstances(service)
	if !ok {
		instances = []registry.InstanceMeta{}
	}
	writeJSON(w, instances)
}

//	 renew
//		@Summary	Renew a single service instance's heartbeat
//		@Tags		registry
//		@Router		/renew [post]
func (rt *registryRoutes) renew(w http.ResponseWriter, r *http.Request) {
	service, err := serviceParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	inst, err := decodeInstance(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := rt.svc.Renew(service, inst)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out)
}

//	 renews
//		@Summary	Renew one instance's heartbeat across multiple services
//		@Tags		registry
//		@Router		/renews [post]
func (rt *registryRoutes) renews(w http.ResponseWriter, r *http.Request) {
	services, err := servicesParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	inst, err := decodeInstance(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := rt.svc.Renews(services, inst)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out)
}

//	 version
//		@Summary	Current version for a service
//		@Tags		registry
//		@Router		/version [post]
func (rt *registryRoutes) version(w http.ResponseWriter, r *http.Request) {
	service, err := serviceParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rt.svc.Version(service))
}

//	 versions
//		@Summary	Current versions for a batch of services
//		@Tags		registry
//		@Router		/versions [post]
func (rt *registryRoutes) versions(w http.ResponseWriter, r *http.Request) {
	services, err := servicesParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rt.svc.Versions(services))
}

//	 snapshot
//		@Summary	Full registry snapshot, used by followers to replicate
//		@Tags		registry
//		@Router		/snapshot [get]
func (rt *registryRoutes) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, rt.svc.Snapshot())
}

type clusterRoutes struct {
	view *cluster.View
}

//	 info
//		@Summary	This node's own cluster entry; doubles as the peer-probe target
//		@Tags		cluster
//		@Router		/info [get]
func (rt *clusterRoutes) info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, rt.view.Self())
}

//	 cluster
//		@Summary	Every known peer and its last-observed status
//		@Tags		cluster
//		@Router		/cluster [get]
func (rt *clusterRoutes) cluster(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, rt.view.Servers())
}

//	 leader
//		@Summary	The currently elected leader, or null if none
//		@Tags		cluster
//		@Router		/leader [get]
func (rt *clusterRoutes) leader(w http.ResponseWriter, _ *http.Request) {
	leader, ok := rt.view.Leader()
	if !ok {
		writeJSON(w, nil)
		return
	}
	writeJSON(w, leader)
}
