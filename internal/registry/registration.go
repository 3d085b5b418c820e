// Package registry publishes this instance to etcd so routers and batch
// callers can discover live insight instances.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/soltixdb/insight/internal/config"
	"github.com/soltixdb/insight/internal/logging"
	"github.com/soltixdb/insight/internal/models"
	"github.com/soltixdb/insight/internal/utils"
)

// reRegisterDelay is the pause before re-registering after a lost lease
const reRegisterDelay = 2 * time.Second

// NewClient creates an etcd client from configuration
func NewClient(cfg config.EtcdConfig) (*clientv3.Client, error) {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = utils.RegistryDialTimeout
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return client, nil
}

// InstanceRegistration keeps an InstanceInfo record alive under a lease
type InstanceRegistration struct {
	etcdClient *clientv3.Client
	prefix     string
	ttl        int64
	logger     *logging.Logger

	mu       sync.Mutex
	leaseID  clientv3.LeaseID
	instance models.InstanceInfo
}

// NewInstanceRegistration creates a new instance registration
func NewInstanceRegistration(
	etcdClient *clientv3.Client,
	cfg config.RegistryConfig,
	instance models.InstanceInfo,
	logger *logging.Logger,
) *InstanceRegistration {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "/insight/instances/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	ttl := cfg.LeaseTTL
	if ttl <= 0 {
		ttl = utils.RegistryLeaseTTL
	}
	if instance.Status == "" {
		instance.Status = models.InstanceStatusActive
	}
	if instance.StartedAt.IsZero() {
		instance.StartedAt = time.Now().UTC()
	}

	return &InstanceRegistration{
		etcdClient: etcdClient,
		prefix:     prefix,
		ttl:        ttl,
		instance:   instance,
		logger:     logger.Component("registry"),
	}
}

// Key returns the etcd key holding this instance's record
func (r *InstanceRegistration) Key() string {
	return r.prefix + r.instance.ID
}

// Instance returns a copy of the registered record
func (r *InstanceRegistration) Instance() models.InstanceInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instance
}

// Register grants a lease, writes the instance record under it and starts
// the keep-alive loop, which runs until ctx is done
func (r *InstanceRegistration) Register(ctx context.Context) error {
	r.logger.Info("Starting instance registration", "instance_id", r.instance.ID)

	lease, err := r.etcdClient.Grant(ctx, r.ttl)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	r.mu.Lock()
	r.leaseID = lease.ID
	r.mu.Unlock()

	r.logger.Info("Lease created", "lease_id", int64(lease.ID), "ttl", r.ttl)

	if err := r.put(ctx); err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	r.logger.Info("Instance registered successfully",
		"instance_id", r.instance.ID,
		"http_address", r.instance.HTTPAddress,
		"status", r.instance.Status)

	go r.keepAlive(ctx, lease.ID)

	return nil
}

// put writes the current record under the current lease
func (r *InstanceRegistration) put(ctx context.Context) error {
	r.mu.Lock()
	r.instance.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(r.instance)
	leaseID := r.leaseID
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal instance info: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, utils.RegistryRequestTimeout)
	defer cancel()

	_, err = r.etcdClient.Put(reqCtx, r.Key(), string(data), clientv3.WithLease(leaseID))
	return err
}

// keepAlive maintains the lease by sending heartbeats
func (r *InstanceRegistration) keepAlive(ctx context.Context, leaseID clientv3.LeaseID) {
	r.logger.Debug("Starting keep-alive loop", "lease_id", int64(leaseID))
	ch, err := r.etcdClient.KeepAlive(ctx, leaseID)
	if err != nil {
		r.logger.Error("Failed to start keep-alive", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Keep-alive stopped (context done)")
			return

		case ka, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				r.logger.Warn("Keep-alive channel closed, attempting re-registration")
				select {
				case <-ctx.Done():
					return
				case <-time.After(reRegisterDelay):
				}
				if err := r.Register(ctx); err != nil {
					r.logger.Error("Failed to re-register", "error", err)
				}
				return
			}

			if ka == nil {
				r.logger.Warn("Received nil keep-alive response")
				continue
			}

			r.logger.Debug("Heartbeat sent", "lease_id", int64(leaseID), "ttl", ka.TTL)
		}
	}
}

// SetStatus updates the published status, e.g. to draining before shutdown
func (r *InstanceRegistration) SetStatus(ctx context.Context, status string) error {
	r.mu.Lock()
	r.instance.Status = status
	r.mu.Unlock()

	if err := r.put(ctx); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	r.logger.Info("Instance status updated", "instance_id", r.instance.ID, "status", status)
	return nil
}

// Deregister removes the instance record and revokes its lease
func (r *InstanceRegistration) Deregister(ctx context.Context) error {
	r.logger.Info("Deregistering instance", "instance_id", r.instance.ID)

	_, err := r.etcdClient.Delete(ctx, r.Key())
	if err != nil {
		r.logger.Error("Failed to delete instance key", "error", err)
	}

	r.mu.Lock()
	leaseID := r.leaseID
	r.leaseID = 0
	r.mu.Unlock()

	if leaseID != 0 {
		if _, revokeErr := r.etcdClient.Revoke(ctx, leaseID); revokeErr != nil {
			r.logger.Error("Failed to revoke lease", "error", revokeErr)
		}
	}

	r.logger.Info("Instance deregistered", "instance_id", r.instance.ID)
	return err
}

// ListInstances returns every instance registered under prefix
func ListInstances(ctx context.Context, client *clientv3.Client, prefix string) ([]models.InstanceInfo, error) {
	resp, err := client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	instances := make([]models.InstanceInfo, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var info models.InstanceInfo
		if err := json.Unmarshal(kv.Value, &info); err != nil {
			logging.Warn("Skipping malformed instance record", "key", string(kv.Key), "error", err)
			continue
		}
		instances = append(instances, info)
	}
	return instances, nil
}
