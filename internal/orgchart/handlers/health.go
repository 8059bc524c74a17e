package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported next to the
// server-wide status.
const ServiceName = "orgchart.v1.OrgChart"

const pingTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthProbe periodically pings the store and publishes the result on the
// gRPC health server.
type HealthProbe struct {
	pinger   Pinger
	health   *health.Server
	interval time.Duration
	logger   *zap.Logger
}

func NewHealthProbe(pinger Pinger, healthServer *health.Server, interval time.Duration, logger *zap.Logger) *HealthProbe {
	return &HealthProbe{
		pinger:   pinger,
		health:   healthServer,
		interval: interval,
		logger:   logger.Named("health_probe"),
	}
}

// Check pings once and updates the serving status.
func (p *HealthProbe) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := p.pinger.Ping(ctx)
	servingStatus := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		servingStatus = healthpb.HealthCheckResponse_NOT_SERVING
		p.logger.Warn("Database ping failed", zap.Error(err))
	}
	p.health.SetServingStatus("", servingStatus)
	p.health.SetServingStatus(ServiceName, servingStatus)
	return err
}

// Run checks immediately and then on every interval until ctx is done.
func (p *HealthProbe) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	_ = p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.Check(ctx)
		}
	}
}
