package registry

import (
	"github.com/google/uuid"

	"github.com/clusterreg/clusterreg/pkg/errors"
	"github.com/clusterreg/clusterreg/pkg/logger"
)

// LeaderChecker is the narrow view of the cluster control plane the
// write-admission layer needs: whether this node is currently the
// leader, and if not, the leader's URL for client redirection.
type LeaderChecker interface {
	IsLeader() bool
	LeaderURL() string
}

// Service wraps a Store with the write-admission rule:
// register/unregister/renew/renews are rejected with ErrNotLeader on a
// follower. Reads (GetAllInstances, Version, Versions, Snapshot) are
// served unconditionally by any node.
type Service struct {
	Store   Store
	Cluster LeaderChecker
}

// NewService builds a write-admission-checked wrapper around store.
func NewService(store Store, cluster LeaderChecker) *Service {
	return &Service{Store: store, Cluster: cluster}
}

// admitWrite checks write eligibility and returns an opaque
// correlation ID for the caller to thread through its own logging of
// the operation's outcome.
func (svc *Service) admitWrite() (string, error) {
	reqID := uuid.NewString()
	if svc.Cluster == nil || svc.Cluster.IsLeader() {
		return reqID, nil
	}
	leader := svc.Cluster.LeaderURL()
	logger.Debugw("write rejected: not leader", "request_id", reqID, "leader", leader)
	return reqID, errors.NewNotLeaderError(leader)
}

// Register admits and performs a register write.
func (svc *Service) Register(service string, instance InstanceMeta) (InstanceMeta, error) {
	reqID, err := svc.admitWrite()
	if err != nil {
		return InstanceMeta{}, err
	}
	out := svc.Store.Register(service, instance)
	logger.Debugw("register", "request_id", reqID, "service", service, "instance", instance.URL())
	return out, nil
}

// Unregister admits and performs an unregister write.
func (svc *Service) Unregister(service string, instance InstanceMeta) (InstanceMeta, error) {
	reqID, err := svc.admitWrite()
	if err != nil {
		return InstanceMeta{}, err
	}
	out := svc.Store.Unregister(service, instance)
	logger.Debugw("unregister", "request_id", reqID, "service", service, "instance", instance.URL())
	return out, nil
}

// Renew admits and performs a renew write.
func (svc *Service) Renew(service string, instance InstanceMeta) (InstanceMeta, error) {
	reqID, err := svc.admitWrite()
	if err != nil {
		return InstanceMeta{}, err
	}
	out := svc.Store.Renew(service, instance)
	logger.Debugw("renew", "request_id", reqID, "service", service, "instance", instance.URL())
	return out, nil
}

// Renews admits and performs a batch renew write.
func (svc *Service) Renews(services []string, instance InstanceMeta) (InstanceMeta, error) {
	reqID, err := svc.admitWrite()
	if err != nil {
		return InstanceMeta{}, err
	}
	out := svc.Store.Renews(services, instance)
	logger.Debugw("renews", "request_id", reqID, "services", services, "instance", instance.URL())
	return out, nil
}

// GetAllInstances is a read, served by any node.
func (svc *Service) GetAllInstances(service string) ([]InstanceMeta, bool) {
	return svc.Store.GetAllInstances(service)
}

// Version is a read, served by any node.
func (svc *Service) Version(service string) int64 {
	return svc.Store.Version(service)
}

// Versions is a read, served by any node.
func (svc *Service) Versions(services []string) map[string]int64 {
	return svc.Store.Versions(services)
}

// Snapshot is a read, served by any node.
func (svc *Service) Snapshot() Snapshot {
	return svc.Store.Snapshot()
}
