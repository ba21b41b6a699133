package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type switchPinger struct {
	down atomic.Bool
}

func (p *switchPinger) Ping(context.Context) error {
	if p.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func dial(t *testing.T, srv *Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func serving(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestServer_HealthFollowsEngine(t *testing.T) {
	pinger := &switchPinger{}
	srv := NewServer(Deps{Engine: pinger, Interval: time.Second})
	client := dial(t, srv)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, serving(t, client, ServiceName), "not serving before the first check")

	srv.Check(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, serving(t, client, ServiceName))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, serving(t, client, ""))

	pinger.down.Store(true)
	srv.Check(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, serving(t, client, ServiceName))
}

func TestServer_Monitor(t *testing.T) {
	srv := NewServer(Deps{Engine: &switchPinger{}, Interval: 10 * time.Millisecond})
	client := dial(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Monitor(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return serving(t, client, ServiceName) == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestServer_UnknownService(t *testing.T) {
	srv := NewServer(Deps{Engine: &switchPinger{}})
	client := dial(t, srv)

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "other"})
	require.Error(t, err)
}
