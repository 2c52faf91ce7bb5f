package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// HealthProbe queries the server's gRPC health service.
type HealthProbe struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

// NewHealthProbe prepares a probe for addr. No connection is made until the
// first Ping.
func NewHealthProbe(addr string, opts ...grpc.DialOption) (*HealthProbe, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &HealthProbe{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

// Ping returns nil when the vault service reports SERVING.
func (p *HealthProbe) Ping(ctx context.Context) error {
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: common.HealthServiceName})
	if err != nil {
		return mapRPCError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.GetStatus())
	}
	return nil
}

func (p *HealthProbe) Close() error {
	return p.conn.Close()
}

func mapRPCError(err error) error {
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: health service not registered", ErrUnavailable)
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
