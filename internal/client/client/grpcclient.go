package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	gs "github.com/dmitrijs2005/bookkeeper/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ExportResult is a downloaded backup document together with the size and
// summary the server reported for it.
type ExportResult struct {
	Document []byte
	Size     int
	Summary  string
}

type ImportResult struct {
	Mode   string           `json:"mode"`
	Counts map[string]int   `json:"counts"`
	Purged map[string]int64 `json:"purged,omitempty"`
	Errors []string         `json:"errors"`
}

type ArchiveResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int    `json:"size"`
}

type DeletionSummary struct {
	OwnerID   int64            `json:"owner_id"`
	Username  string           `json:"username"`
	Counts    map[string]int64 `json:"counts"`
	DeletedAt time.Time        `json:"deleted_at"`
}

// GRPCClient talks to BackupService. It keeps the token pair obtained by
// Login and refreshes it once when the server reports an expired access
// token.
type GRPCClient struct {
	conn *grpc.ClientConn

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, refresh := s.tokens()
	if access != "" {
		ctx = withAccessToken(ctx, access)
	}

	err := invoker(ctx, method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	in, err := gs.ToStruct(gs.RefreshTokenRequest{RefreshToken: refresh})
	if err != nil {
		return err
	}
	out := &structpb.Struct{}
	if err := invoker(ctx, gs.FullMethod(gs.MethodRefreshToken), in, out, cc); err != nil {
		return err
	}
	var tokens gs.TokenResponse
	if err := gs.FromStruct(out, &tokens); err != nil {
		return err
	}
	s.setTokens(tokens.AccessToken, tokens.RefreshToken)

	ctx = withAccessToken(ctx, tokens.AccessToken)
	return invoker(ctx, method, req, reply, cc, opts...)
}

// WithMaxMessageSize lets calls send and receive messages of up to n bytes
// instead of the gRPC default of 4 MiB.
func WithMaxMessageSize(n int) grpc.DialOption {
	return grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(n), grpc.MaxCallSendMsgSize(n))
}

// NewGRPCClient connects to endpoint over plaintext gRPC. Extra dial options
// are applied after the defaults.
func NewGRPCClient(endpoint string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpoint, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context, method string, in proto.Message, out any, opts ...grpc.CallOption) error {
	resp := &structpb.Struct{}
	if err := s.conn.Invoke(ctx, gs.FullMethod(method), in, resp, opts...); err != nil {
		return s.mapError(err)
	}
	if out == nil {
		return nil
	}
	return gs.FromStruct(resp, out)
}

func (s *GRPCClient) callWith(ctx context.Context, method string, req any, out any) error {
	in, err := gs.ToStruct(req)
	if err != nil {
		return err
	}
	return s.call(ctx, method, in, out)
}

func (s *GRPCClient) Register(ctx context.Context, username, email, password string) (int64, error) {
	var resp gs.RegisterResponse
	req := gs.RegisterRequest{Username: username, Email: email, Password: password}
	if err := s.callWith(ctx, gs.MethodRegister, req, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (s *GRPCClient) Login(ctx context.Context, username, password string) error {
	var resp gs.TokenResponse
	req := gs.LoginRequest{Username: username, Password: password}
	if err := s.callWith(ctx, gs.MethodLogin, req, &resp); err != nil {
		return err
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

// Export downloads the caller's backup document.
func (s *GRPCClient) Export(ctx context.Context) (*ExportResult, error) {
	var header metadata.MD
	resp := &structpb.Struct{}
	if err := s.conn.Invoke(ctx, gs.FullMethod(gs.MethodExportAccount), &emptypb.Empty{}, resp, grpc.Header(&header)); err != nil {
		return nil, s.mapError(err)
	}

	doc, err := gs.StructJSON(resp)
	if err != nil {
		return nil, err
	}

	res := &ExportResult{Document: doc, Size: len(doc)}
	if v := header.Get(common.BackupSizeHeaderName); len(v) > 0 {
		if n, err := strconv.Atoi(v[0]); err == nil {
			res.Size = n
		}
	}
	if v := header.Get(common.BackupSummaryHeaderName); len(v) > 0 {
		res.Summary = v[0]
	}
	return res, nil
}

// Import uploads document and restores it into the caller's account.
func (s *GRPCClient) Import(ctx context.Context, mode string, document []byte) (*ImportResult, error) {
	if !json.Valid(document) {
		return nil, fmt.Errorf("%w: document is not valid JSON", ErrRejected)
	}
	var res ImportResult
	req := gs.ImportRequest{Mode: mode, Document: json.RawMessage(document)}
	if err := s.callWith(ctx, gs.MethodImportAccount, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *GRPCClient) Archive(ctx context.Context) (*ArchiveResult, error) {
	var res ArchiveResult
	if err := s.call(ctx, gs.MethodArchiveAccount, &emptypb.Empty{}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *GRPCClient) Restore(ctx context.Context, key, mode string) (*ImportResult, error) {
	var res ImportResult
	req := gs.RestoreRequest{Key: key, Mode: mode}
	if err := s.callWith(ctx, gs.MethodRestoreArchive, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Erase deletes the caller's account. password is checked again by the
// server.
func (s *GRPCClient) Erase(ctx context.Context, password string) (*DeletionSummary, error) {
	var res DeletionSummary
	if err := s.callWith(ctx, gs.MethodEraseAccount, gs.EraseRequest{Password: password}, &res); err != nil {
		return nil, err
	}
	s.setTokens("", "")
	return &res, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp gs.PingResponse
	if err := s.call(ctx, gs.MethodPing, &emptypb.Empty{}, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument, codes.FailedPrecondition, codes.AlreadyExists, codes.NotFound, codes.Aborted:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
