package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/clipher/internal/client/client"
	"github.com/dmitrijs2005/clipher/internal/client/config"
	"github.com/dmitrijs2005/clipher/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/clipher/internal/client/services"
	"github.com/dmitrijs2005/clipher/internal/filex"
)

type authService interface {
	Register(ctx context.Context, userName string, password []byte) (*services.Enrollment, error)
	VerifyTfa(ctx context.Context, userName string, password []byte, code string) error
	Login(ctx context.Context, userName string, password []byte) (*client.LoginToken, error)
	CheckTfa(ctx context.Context, userName, loginToken, code string) (*client.AccessToken, error)
	WhoAmI(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	auth   authService
	db     *sql.DB
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if _, err := filex.EnsureDir(filepath.Dir(c.ProfilePath)); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing profile database: %w", err)
	}

	hc := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	as := services.NewAuthService(hc, profiles.NewSQLiteRepository(db))
	hc.DeviceID = as.DeviceID(ctx)

	return &App{config: c, auth: as, db: db, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}

// Run executes the command in the config and returns the process exit code.
func (app *App) Run(ctx context.Context) int {
	args := app.config.Command
	if len(args) == 0 {
		app.help()
		return 2
	}

	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "register":
		err = app.register(ctx, rest)
	case "verify-tfa":
		err = app.verifyTfa(ctx, rest)
	case "login":
		err = app.login(ctx, rest)
	case "whoami":
		err = app.whoami(ctx)
	case "logout":
		err = app.logout(ctx)
	case "ping":
		err = app.ping(ctx)
	case "help", "-h", "--help":
		app.help()
		return 0
	default:
		fmt.Fprintln(app.out, "Unknown command:", cmd)
		app.help()
		return 2
	}

	if err != nil {
		fmt.Fprintln(app.out, "error:", describe(err))
		return 1
	}
	return 0
}

func (app *App) help() {
	fmt.Fprintln(app.out, "Usage: clipher [-a server] [-p profile.db] [-t timeout] <command> [username]")
	fmt.Fprintln(app.out, "Commands: register, verify-tfa, login, whoami, logout, ping")
}
