package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/client/client"
	"github.com/dmitrijs2005/bookkeeper/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	loginUser, loginPassword string
	loginErr                 error
	logins                   int

	registered []string

	export *client.ExportResult

	importMode string
	importDoc  []byte
	importRes  *client.ImportResult

	restoreKey, restoreMode string

	archive *client.ArchiveResult

	erasePassword string
	eraseRes      *client.DeletionSummary

	closed bool
}

func (f *fakeClient) Register(_ context.Context, username, email, password string) (int64, error) {
	f.registered = []string{username, email, password}
	return 7, nil
}

func (f *fakeClient) Login(_ context.Context, username, password string) error {
	f.logins++
	f.loginUser, f.loginPassword = username, password
	return f.loginErr
}

func (f *fakeClient) Export(context.Context) (*client.ExportResult, error) {
	return f.export, nil
}

func (f *fakeClient) Import(_ context.Context, mode string, document []byte) (*client.ImportResult, error) {
	f.importMode, f.importDoc = mode, document
	return f.importRes, nil
}

func (f *fakeClient) Archive(context.Context) (*client.ArchiveResult, error) {
	return f.archive, nil
}

func (f *fakeClient) Restore(_ context.Context, key, mode string) (*client.ImportResult, error) {
	f.restoreKey, f.restoreMode = key, mode
	return f.importRes, nil
}

func (f *fakeClient) Erase(_ context.Context, password string) (*client.DeletionSummary, error) {
	f.erasePassword = password
	return f.eraseRes, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

// stubPasswords makes getPassword return answers in order.
func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := getPassword
	t.Cleanup(func() { getPassword = orig })

	i := 0
	getPassword = func(string, io.Writer) ([]byte, error) {
		if i >= len(answers) {
			return nil, errors.New("unexpected password prompt")
		}
		i++
		return []byte(answers[i-1]), nil
	}
}

func run(t *testing.T, fake *fakeClient, stdin string, args ...string) (string, error) {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.RequestTimeout = 5 * time.Second

	var out bytes.Buffer
	app := NewApp(cfg, strings.NewReader(stdin), &out)
	app.dial = func(addr string, maxMsg int) (BackupClient, error) {
		assert.Equal(t, "127.0.0.1:50051", addr)
		assert.Equal(t, 64<<20, maxMsg)
		return fake, nil
	}

	root := app.NewRootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRegister(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		stubPasswords(t, "secret-pass", "secret-pass")
		fake := &fakeClient{}

		out, err := run(t, fake, "", "register", "-u", "alice", "--email", "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "alice@example.com", "secret-pass"}, fake.registered)
		assert.Contains(t, out, "Registered alice (id 7)")
		assert.True(t, fake.closed)
	})

	t.Run("passwords differ", func(t *testing.T) {
		stubPasswords(t, "secret-pass", "secret-pasS")
		fake := &fakeClient{}

		_, err := run(t, fake, "", "register", "-u", "alice")
		require.EqualError(t, err, "passwords do not match")
		assert.Nil(t, fake.registered)
	})

	t.Run("prompts for username", func(t *testing.T) {
		stubPasswords(t, "secret-pass", "secret-pass")
		fake := &fakeClient{}

		out, err := run(t, fake, "bob\n", "register")
		require.NoError(t, err)
		assert.Equal(t, "bob", fake.registered[0])
		assert.Contains(t, out, "Username")
	})
}

func TestExport(t *testing.T) {
	doc := []byte(`{"metadata":{"version":1},"entries":[]}`)

	t.Run("to file", func(t *testing.T) {
		stubPasswords(t, "secret-pass")
		fake := &fakeClient{export: &client.ExportResult{Document: doc, Size: 9999, Summary: "entries=0"}}
		path := filepath.Join(t.TempDir(), "backup.json")

		out, err := run(t, fake, "", "export", "-u", "alice", "-o", path)
		require.NoError(t, err)
		assert.Equal(t, "alice", fake.loginUser)
		assert.Equal(t, "secret-pass", fake.loginPassword)
		assert.Contains(t, out, "entries=0")

		saved, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, string(doc), string(saved))
		assert.Contains(t, string(saved), "\n  \"metadata\"")
		assert.Contains(t, out, fmt.Sprintf("(%d bytes)", len(saved)))
		assert.NotContains(t, out, "9999")
	})

	t.Run("to stdout", func(t *testing.T) {
		stubPasswords(t, "secret-pass")
		fake := &fakeClient{export: &client.ExportResult{Document: doc}}

		out, err := run(t, fake, "", "export", "-u", "alice")
		require.NoError(t, err)
		assert.JSONEq(t, string(doc), out)
	})

	t.Run("login rejected", func(t *testing.T) {
		stubPasswords(t, "wrong")
		fake := &fakeClient{loginErr: client.ErrUnauthorized}

		_, err := run(t, fake, "", "export", "-u", "alice")
		require.ErrorIs(t, err, client.ErrUnauthorized)
		assert.True(t, fake.closed)
	})
}

func TestImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"metadata":{"version":1}}`), 0o600))

	t.Run("replace", func(t *testing.T) {
		stubPasswords(t, "secret-pass")
		fake := &fakeClient{importRes: &client.ImportResult{
			Mode:   "replace",
			Counts: map[string]int{"tags": 1, "entries": 2},
			Purged: map[string]int64{"entries": 5},
			Errors: []string{"entries: row 3 rejected"},
		}}

		out, err := run(t, fake, "", "import", path, "--mode", "replace", "-u", "alice")
		require.NoError(t, err)
		assert.Equal(t, "replace", fake.importMode)
		assert.JSONEq(t, `{"metadata":{"version":1}}`, string(fake.importDoc))

		assert.Less(t, strings.Index(out, "entries"), strings.Index(out, "tags"))
		assert.Contains(t, out, "Purged before import")
		assert.Contains(t, out, "1 rows skipped")
		assert.Contains(t, out, "entries: row 3 rejected")
	})

	t.Run("default mode is merge", func(t *testing.T) {
		stubPasswords(t, "secret-pass")
		fake := &fakeClient{importRes: &client.ImportResult{Mode: "merge"}}

		_, err := run(t, fake, "", "import", path, "-u", "alice")
		require.NoError(t, err)
		assert.Equal(t, "merge", fake.importMode)
	})

	t.Run("from url", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"metadata":{"version":1},"tags":[]}`))
		}))
		defer ts.Close()

		stubPasswords(t, "secret-pass")
		fake := &fakeClient{importRes: &client.ImportResult{Mode: "merge"}}

		_, err := run(t, fake, "", "import", ts.URL+"/archive.json", "-u", "alice")
		require.NoError(t, err)
		assert.JSONEq(t, `{"metadata":{"version":1},"tags":[]}`, string(fake.importDoc))
	})

	t.Run("from stdin", func(t *testing.T) {
		stubPasswords(t, "secret-pass")
		fake := &fakeClient{importRes: &client.ImportResult{Mode: "merge"}}

		_, err := run(t, fake, `{"metadata":{"version":1}}`, "import", "-", "-u", "alice")
		require.NoError(t, err)
		assert.JSONEq(t, `{"metadata":{"version":1}}`, string(fake.importDoc))
	})

	t.Run("missing file does not dial", func(t *testing.T) {
		fake := &fakeClient{}

		_, err := run(t, fake, "", "import", filepath.Join(t.TempDir(), "nope.json"), "-u", "alice")
		require.Error(t, err)
		assert.Zero(t, fake.logins)
	})

	t.Run("needs a file", func(t *testing.T) {
		_, err := run(t, &fakeClient{}, "", "import")
		require.Error(t, err)
	})
}

func TestArchiveAndRestore(t *testing.T) {
	stubPasswords(t, "secret-pass", "secret-pass")
	fake := &fakeClient{
		archive:   &client.ArchiveResult{Key: "backups/7/k.json", URL: "https://s3.local/k", Size: 99},
		importRes: &client.ImportResult{Mode: "replace", Counts: map[string]int{"entries": 1}},
	}

	out, err := run(t, fake, "", "archive", "-u", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Key: backups/7/k.json")
	assert.Contains(t, out, "Download: https://s3.local/k")

	_, err = run(t, fake, "", "restore", "backups/7/k.json", "--mode", "replace", "-u", "alice")
	require.NoError(t, err)
	assert.Equal(t, "backups/7/k.json", fake.restoreKey)
	assert.Equal(t, "replace", fake.restoreMode)
}

func TestErase(t *testing.T) {
	summary := &client.DeletionSummary{Username: "alice", Counts: map[string]int64{"entries": 3}}

	t.Run("confirmed", func(t *testing.T) {
		stubPasswords(t, "secret-pass")
		fake := &fakeClient{eraseRes: summary}

		out, err := run(t, fake, "alice\n", "erase", "-u", "alice")
		require.NoError(t, err)
		assert.Equal(t, "secret-pass", fake.loginPassword)
		assert.Equal(t, "secret-pass", fake.erasePassword)
		assert.Contains(t, out, "Erased alice")
	})

	t.Run("wrong confirmation", func(t *testing.T) {
		fake := &fakeClient{eraseRes: summary}

		_, err := run(t, fake, "bob\n", "erase", "-u", "alice")
		require.EqualError(t, err, "erase cancelled")
		assert.Zero(t, fake.logins)
		assert.Empty(t, fake.erasePassword)
	})

	t.Run("yes flag", func(t *testing.T) {
		stubPasswords(t, "secret-pass")
		fake := &fakeClient{eraseRes: summary}

		_, err := run(t, fake, "", "erase", "-u", "alice", "--yes")
		require.NoError(t, err)
		assert.Equal(t, "secret-pass", fake.erasePassword)
	})
}

func TestVersion(t *testing.T) {
	out, err := run(t, &fakeClient{}, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Build version: N/A")
}
