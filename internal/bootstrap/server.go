package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/Domenick1991/skypass/config"
)

const serviceName = "skypass.Booking"

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	health     *health.Server
	conn       *grpc.ClientConn
}

// Run serves gRPC health checks and the HTTP API until ctx is cancelled or a
// server fails.
func Run(ctx context.Context, cfg *config.Config, api http.Handler, log logrus.FieldLogger) error {
	s, err := newServers(cfg, api)
	if err != nil {
		return err
	}
	defer s.conn.Close()

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.GRPC.Address).Info("gRPC server started")
		return s.grpcServer.Serve(lis)
	})
	g.Go(func() error {
		log.WithField("addr", cfg.HTTP.Address).Info("HTTP server started")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Info("servers stopped")
		return nil
	})
	return g.Wait()
}

func newServers(cfg *config.Config, api http.Handler) (*Servers, error) {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)

	conn, err := grpc.NewClient(cfg.GRPC.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial gRPC %s: %w", cfg.GRPC.Address, err)
	}

	gateway := runtime.NewServeMux()
	if err := gateway.HandlePath(http.MethodGet, "/v1/health", healthHandler(healthpb.NewHealthClient(conn))); err != nil {
		conn.Close()
		return nil, fmt.Errorf("register health gateway: %w", err)
	}

	handler := http.NewServeMux()
	handler.Handle("/v1/", gateway)

	if cfg.HTTP.SwaggerDir != "" {
		handler.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(cfg.HTTP.SwaggerDir, "skypass.swagger.json"))
		})
		handler.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}
	handler.Handle("/", api)

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		health: healthSrv,
		conn:   conn,
	}, nil
}

// healthHandler exposes the gRPC health check over HTTP as JSON.
func healthHandler(client healthpb.HealthClient) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: r.URL.Query().Get("service")})
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "UNAVAILABLE", "error": err.Error()})
			return
		}
		data, err := protojson.Marshal(resp)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write(data)
	}
}
