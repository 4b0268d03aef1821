// Package cli implements the bookkeeper command line: account registration,
// export and import of backup documents, server-side archives and account
// erasure. Commands are built with cobra and talk to the server through
// the client package.
package cli
