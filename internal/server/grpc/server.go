// Package grpc exposes the account services over gRPC.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/backup"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/services"
	"google.golang.org/grpc"
)

type userSvc interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type accountSvc interface {
	Export(ctx context.Context, ownerID int64) (*backup.Document, *backup.ExportStats, error)
	Import(ctx context.Context, ownerID int64, doc *backup.Document, mode backup.Mode) (*backup.ImportResult, error)
	Erase(ctx context.Context, ownerID int64, password string) (*services.DeletionSummary, error)
	Archive(ctx context.Context, ownerID int64) (*services.ArchiveResult, error)
	RestoreArchive(ctx context.Context, ownerID int64, key string, mode backup.Mode) (*backup.ImportResult, error)
}

type GRPCServer struct {
	address   string
	users     userSvc
	accounts  accountSvc
	logger    logging.Logger
	jwtSecret []byte
	maxMsg    int
}

type Option func(*GRPCServer)

// WithMaxMessageSize raises the receive and send limits of the server to n
// bytes. Backup documents easily outgrow the gRPC default of 4 MiB.
func WithMaxMessageSize(n int) Option {
	return func(s *GRPCServer) { s.maxMsg = n }
}

var _ BackupServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, us userSvc, as accountSvc, secretKey string, opts ...Option) *GRPCServer {
	s := &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		accounts:  as,
		jwtSecret: []byte(secretKey),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewServer builds a grpc.Server with the interceptors and the service
// registered, without listening.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	if s.maxMsg > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(s.maxMsg), grpc.MaxSendMsgSize(s.maxMsg))
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	RegisterBackupServiceServer(srv, s)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
