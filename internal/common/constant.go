package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Response header keys carrying export side information. They are transport
// metadata only and never part of the backup document itself.
const (
	BackupSizeHeaderName    = "x-backup-size"
	BackupSummaryHeaderName = "x-backup-summary"
)
