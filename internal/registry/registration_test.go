package registry

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/client/pkg/v3/types"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"

	"github.com/soltixdb/insight/internal/config"
	"github.com/soltixdb/insight/internal/logging"
	"github.com/soltixdb/insight/internal/models"
)

// setupEmbeddedEtcd starts an embedded etcd server and returns its client endpoints
func setupEmbeddedEtcd(t *testing.T) []string {
	t.Helper()

	cfg := embed.NewConfig()
	cfg.Dir = t.TempDir()
	cfg.LogLevel = "error"

	// Use random local ports for all URLs
	cfg.ListenClientUrls, _ = types.NewURLs([]string{"http://127.0.0.1:0"})
	cfg.ListenPeerUrls, _ = types.NewURLs([]string{"http://127.0.0.1:0"})

	e, err := embed.StartEtcd(cfg)
	if err != nil {
		t.Fatalf("Failed to start embedded etcd: %v", err)
	}

	select {
	case <-e.Server.ReadyNotify():
	case <-time.After(10 * time.Second):
		e.Close()
		t.Fatal("Etcd server took too long to start")
	}
	t.Cleanup(e.Close)

	endpoints := []string{}
	for _, listener := range e.Clients {
		endpoints = append(endpoints, "http://"+listener.Addr().String())
	}
	return endpoints
}

func setupClient(t *testing.T) *clientv3.Client {
	t.Helper()
	client, err := NewClient(config.EtcdConfig{Endpoints: setupEmbeddedEtcd(t), DialTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testInstance(id string) models.InstanceInfo {
	return models.InstanceInfo{
		ID:           id,
		HTTPAddress:  "127.0.0.1:8000",
		GRPCAddress:  "127.0.0.1:8001",
		Version:      "1.0.0",
		Capabilities: []string{"forecast", "detect"},
	}
}

func getInstance(t *testing.T, client *clientv3.Client, key string) (models.InstanceInfo, bool) {
	t.Helper()
	resp, err := client.Get(context.Background(), key)
	require.NoError(t, err)
	if len(resp.Kvs) == 0 {
		return models.InstanceInfo{}, false
	}
	var info models.InstanceInfo
	require.NoError(t, json.Unmarshal(resp.Kvs[0].Value, &info))
	return info, true
}

func TestNewInstanceRegistration_Defaults(t *testing.T) {
	reg := NewInstanceRegistration(nil, config.RegistryConfig{Prefix: "/custom"}, testInstance("a"), logging.NewNop())

	assert.Equal(t, "/custom/a", reg.Key())
	assert.Equal(t, int64(10), reg.ttl)
	assert.Equal(t, models.InstanceStatusActive, reg.Instance().Status)
	assert.False(t, reg.Instance().StartedAt.IsZero())
}

func TestRegister(t *testing.T) {
	client := setupClient(t)
	cfg := config.DefaultConfig().Registry

	reg := NewInstanceRegistration(client, cfg, testInstance("insight-1"), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, reg.Register(ctx))

	info, ok := getInstance(t, client, "/insight/instances/insight-1")
	require.True(t, ok)
	assert.Equal(t, "insight-1", info.ID)
	assert.Equal(t, "127.0.0.1:8000", info.HTTPAddress)
	assert.Equal(t, models.InstanceStatusActive, info.Status)
	assert.Equal(t, []string{"forecast", "detect"}, info.Capabilities)

	resp, err := client.Get(context.Background(), reg.Key())
	require.NoError(t, err)
	assert.NotZero(t, resp.Kvs[0].Lease, "record is bound to a lease")
}

func TestSetStatus(t *testing.T) {
	client := setupClient(t)
	reg := NewInstanceRegistration(client, config.DefaultConfig().Registry, testInstance("insight-2"), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, reg.Register(ctx))
	require.NoError(t, reg.SetStatus(ctx, models.InstanceStatusDraining))

	info, ok := getInstance(t, client, reg.Key())
	require.True(t, ok)
	assert.Equal(t, models.InstanceStatusDraining, info.Status)
}

func TestDeregister(t *testing.T) {
	client := setupClient(t)
	reg := NewInstanceRegistration(client, config.DefaultConfig().Registry, testInstance("insight-3"), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, reg.Register(ctx))
	require.NoError(t, reg.Deregister(context.Background()))

	_, ok := getInstance(t, client, reg.Key())
	assert.False(t, ok)
}

func TestListInstances(t *testing.T) {
	client := setupClient(t)
	cfg := config.DefaultConfig().Registry

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, id := range []string{"insight-a", "insight-b"} {
		reg := NewInstanceRegistration(client, cfg, testInstance(id), logging.NewNop())
		require.NoError(t, reg.Register(ctx))
	}
	_, err := client.Put(ctx, cfg.Prefix+"broken", "{not json")
	require.NoError(t, err)

	instances, err := ListInstances(ctx, client, cfg.Prefix)
	require.NoError(t, err)

	ids := make([]string, 0, len(instances))
	for _, info := range instances {
		ids = append(ids, info.ID)
	}
	assert.ElementsMatch(t, []string{"insight-a", "insight-b"}, ids)
}

func TestKeepAliveContext(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping keep-alive test in short mode")
	}

	client := setupClient(t)
	reg := NewInstanceRegistration(client, config.RegistryConfig{LeaseTTL: 1}, testInstance("insight-ka"), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, reg.Register(ctx))

	// Keep-alive holds the record past its 1s TTL
	time.Sleep(2500 * time.Millisecond)
	_, ok := getInstance(t, client, reg.Key())
	assert.True(t, ok)
}

func TestLeaseExpiration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping lease expiration test in short mode")
	}

	// etcd lease expiration timing is unreliable under CI load
	if os.Getenv("CI") != "" {
		t.Skip("Skipping lease expiration test in CI - timing unreliable")
	}

	client := setupClient(t)
	reg := NewInstanceRegistration(client, config.RegistryConfig{LeaseTTL: 2}, testInstance("insight-exp"), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, reg.Register(ctx))

	// Stop the keep-alive loop
	cancel()

	assert.Eventually(t, func() bool {
		_, ok := getInstance(t, client, reg.Key())
		return !ok
	}, 10*time.Second, 200*time.Millisecond)
}
