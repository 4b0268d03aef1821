package grpc

import (
	"bytes"
	"context"
	"errors"
	"strconv"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/server/backup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req RegisterRequest
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.logger.Info(ctx, "Registration request", "username", req.Username)

	user, err := s.users.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "username", user.Username, "id", user.ID)
	return s.reply(ctx, RegisterResponse{ID: user.ID, Username: user.Username})
}

func (s *GRPCServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req LoginRequest
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	tokens, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		return nil, s.toStatus(ctx, err)
	}

	return s.reply(ctx, TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

func (s *GRPCServer) RefreshToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req RefreshTokenRequest
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return s.reply(ctx, TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

// ExportAccount returns the backup document. Its size and per-collection
// summary travel as response headers.
func (s *GRPCServer) ExportAccount(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ownerID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	doc, stats, err := s.accounts.Export(ctx, ownerID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	header := metadata.Pairs(
		common.BackupSizeHeaderName, strconv.Itoa(stats.Size),
		common.BackupSummaryHeaderName, stats.Summary,
	)
	if err := grpc.SetHeader(ctx, header); err != nil {
		s.logger.Warn(ctx, "cannot set export headers", "error", err)
	}

	return s.reply(ctx, doc)
}

func (s *GRPCServer) ImportAccount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var req ImportRequest
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	mode, err := backup.ParseMode(req.Mode)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	doc, err := backup.Decode(bytes.NewReader(req.Document))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := backup.Validate(doc); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	res, err := s.accounts.Import(ctx, ownerID, doc, mode)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, res)
}

func (s *GRPCServer) EraseAccount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var req EraseRequest
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	summary, err := s.accounts.Erase(ctx, ownerID, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.PermissionDenied, "password does not match")
		}
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, summary)
}

func (s *GRPCServer) ArchiveAccount(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ownerID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.accounts.Archive(ctx, ownerID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, res)
}

func (s *GRPCServer) RestoreArchive(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var req RestoreRequest
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.Key == "" {
		return nil, status.Error(codes.InvalidArgument, "archive key is required")
	}
	mode, err := backup.ParseMode(req.Mode)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	res, err := s.accounts.RestoreArchive(ctx, ownerID, req.Key, mode)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, res)
}

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.reply(ctx, PingResponse{Status: "OK"})
}

func (s *GRPCServer) reply(ctx context.Context, v any) (*structpb.Struct, error) {
	out, err := ToStruct(v)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return out, nil
}
