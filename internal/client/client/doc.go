// Package client is the gRPC client of BackupService used by the CLI.
//
// GRPCClient calls the hand-declared service methods with
// grpc.ClientConn.Invoke, carrying google.protobuf.Struct payloads. After
// Login the access token is attached to every call; when the server answers
// Unauthenticated with "token expired" the client refreshes the token pair
// once and retries.
//
// Status codes are mapped to ErrUnauthorized, ErrUnavailable and
// ErrRejected so callers can use errors.Is.
package client
