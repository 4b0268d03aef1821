package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/bookkeeper/internal/client/client"
	"github.com/dmitrijs2005/bookkeeper/internal/client/config"
	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/spf13/cobra"
)

// BackupClient is the part of client.GRPCClient the commands use.
type BackupClient interface {
	Register(ctx context.Context, username, email, password string) (int64, error)
	Login(ctx context.Context, username, password string) error
	Export(ctx context.Context) (*client.ExportResult, error)
	Import(ctx context.Context, mode string, document []byte) (*client.ImportResult, error)
	Archive(ctx context.Context) (*client.ArchiveResult, error)
	Restore(ctx context.Context, key, mode string) (*client.ImportResult, error)
	Erase(ctx context.Context, password string) (*client.DeletionSummary, error)
	Close() error
}

// App carries what every command needs: configuration, terminal streams
// and a way to reach the server.
type App struct {
	config *config.Config
	reader *bufio.Reader
	out    io.Writer
	dial   func(addr string, maxMsg int) (BackupClient, error)
}

func dialGRPC(addr string, maxMsg int) (BackupClient, error) {
	return client.NewGRPCClient(addr, client.WithMaxMessageSize(maxMsg))
}

// NewApp returns an App reading answers from in and printing to out.
func NewApp(c *config.Config, in io.Reader, out io.Writer) *App {
	return &App{config: c, reader: bufio.NewReader(in), out: out, dial: dialGRPC}
}

// NewRootCommand builds the command tree. Persistent flags override the
// loaded configuration.
func (a *App) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookkeeper",
		Short:         "Back up, restore and erase a bookkeeper account",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.config.ServerEndpointAddr, "addr", "a", a.config.ServerEndpointAddr, "address and port of the server")
	pf.DurationVarP(&a.config.RequestTimeout, "timeout", "t", a.config.RequestTimeout, "timeout of a single command")
	pf.StringVarP(&a.config.Username, "user", "u", a.config.Username, "account username")
	pf.IntVar(&a.config.MaxMessageSize, "max-message-size", a.config.MaxMessageSize, "largest gRPC message in bytes")
	// Consumed by config.LoadConfig before cobra runs.
	pf.StringP("config", "c", "", "path to a JSON config file")

	root.AddCommand(
		a.registerCommand(),
		a.exportCommand(),
		a.importCommand(),
		a.archiveCommand(),
		a.restoreCommand(),
		a.eraseCommand(),
		a.versionCommand(),
	)
	return root
}

// connect dials the server.
func (a *App) connect(ctx context.Context) (context.Context, context.CancelFunc, BackupClient, error) {
	c, err := a.dial(a.config.ServerEndpointAddr, a.config.MaxMessageSize)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect %s: %w", a.config.ServerEndpointAddr, err)
	}
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	return ctx, cancel, c, nil
}

// session dials the server and logs in as the configured user, prompting
// for the username when none is configured.
func (a *App) session(ctx context.Context) (context.Context, func(), BackupClient, error) {
	username, err := a.username()
	if err != nil {
		return nil, nil, nil, err
	}

	password, err := getPassword("Password", a.out)
	if err != nil {
		return nil, nil, nil, err
	}
	defer common.WipeByteArray(password)

	return a.open(ctx, username, string(password))
}

// open dials the server and logs in. The returned func cancels the command
// context and closes the connection.
func (a *App) open(ctx context.Context, username, password string) (context.Context, func(), BackupClient, error) {
	ctx, cancel, c, err := a.connect(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	done := func() {
		cancel()
		_ = c.Close()
	}

	if err := c.Login(ctx, username, password); err != nil {
		done()
		return nil, nil, nil, fmt.Errorf("login: %w", err)
	}
	return ctx, done, c, nil
}

func (a *App) username() (string, error) {
	if u := strings.TrimSpace(a.config.Username); u != "" {
		return u, nil
	}
	u, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return "", err
	}
	if u == "" {
		return "", errors.New("username is required")
	}
	a.config.Username = u
	return u, nil
}

// getSimpleText and getPassword can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
