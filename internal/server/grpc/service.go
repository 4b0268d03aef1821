package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "bookkeeper.BackupService"

// Method names of BackupService.
const (
	MethodRegister       = "Register"
	MethodLogin          = "Login"
	MethodRefreshToken   = "RefreshToken"
	MethodExportAccount  = "ExportAccount"
	MethodImportAccount  = "ImportAccount"
	MethodEraseAccount   = "EraseAccount"
	MethodArchiveAccount = "ArchiveAccount"
	MethodRestoreArchive = "RestoreArchive"
	MethodPing           = "Ping"
)

// FullMethod returns the path used on the wire for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// BackupServiceServer is the server API of BackupService. Payloads are
// google.protobuf.Struct values carrying the JSON shapes of the request and
// response types in this package.
type BackupServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportAccount(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ImportAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EraseAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ArchiveAccount(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	RestoreArchive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// BackupServiceDesc describes BackupService for grpc.Server.RegisterService.
var BackupServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BackupServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, BackupServiceServer.Register),
		unary(MethodLogin, BackupServiceServer.Login),
		unary(MethodRefreshToken, BackupServiceServer.RefreshToken),
		unary(MethodExportAccount, BackupServiceServer.ExportAccount),
		unary(MethodImportAccount, BackupServiceServer.ImportAccount),
		unary(MethodEraseAccount, BackupServiceServer.EraseAccount),
		unary(MethodArchiveAccount, BackupServiceServer.ArchiveAccount),
		unary(MethodRestoreArchive, BackupServiceServer.RestoreArchive),
		unary(MethodPing, BackupServiceServer.Ping),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterBackupServiceServer registers srv on s.
func RegisterBackupServiceServer(s grpc.ServiceRegistrar, srv BackupServiceServer) {
	s.RegisterService(&BackupServiceDesc, srv)
}

func unary[Req any, PReq interface {
	*Req
	proto.Message
}](name string, call func(BackupServiceServer, context.Context, PReq) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BackupServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(BackupServiceServer), ctx, req.(PReq))
			})
		},
	}
}
