package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startHealth(t *testing.T) (*health.Server, *HealthProbe) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()

	p, err := NewHealthProbe("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = p.Close()
		srv.Stop()
	})
	return hs, p
}

func TestHealthProbe_Serving(t *testing.T) {
	hs, p := startHealth(t)
	hs.SetServingStatus(common.HealthServiceName, healthpb.HealthCheckResponse_SERVING)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, p.Ping(ctx))
}

func TestHealthProbe_NotServing(t *testing.T) {
	hs, p := startHealth(t)
	hs.SetServingStatus(common.HealthServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, p.Ping(ctx), ErrUnavailable)
}

func TestHealthProbe_UnknownService(t *testing.T) {
	_, p := startHealth(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, p.Ping(ctx), ErrUnavailable)
}

func TestHealthProbe_NoServer(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	require.NoError(t, lis.Close())

	p, err := NewHealthProbe("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Ping(ctx), ErrUnavailable)
}
