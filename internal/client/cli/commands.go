package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clipher/internal/client/client"
	"github.com/dmitrijs2005/clipher/internal/common"
)

// maxOtpAttempts bounds how often login asks for the code again after a
// wrong one; the server rate limit applies as well.
const maxOtpAttempts = 3

var (
	errPasswordMismatch = errors.New("passwords do not match")
	errUserNameTooLong  = fmt.Errorf("user name is longer than %d characters", common.MaxUserNameLength)
	errPasswordTooLong  = fmt.Errorf("password is longer than %d characters", common.MaxPasswordLength)
	errCodeTooLong      = fmt.Errorf("code is longer than %d digits", common.MaxOtpLength)
)

func (app *App) password(prompt string) ([]byte, error) {
	pw, err := getPassword(app.out, prompt)
	if err != nil {
		return nil, err
	}
	if len(pw) > common.MaxPasswordLength {
		common.WipeByteArray(pw)
		return nil, errPasswordTooLong
	}
	return pw, nil
}

func (app *App) code(prompt string) (string, error) {
	code, err := getSimpleText(app.reader, prompt, app.out)
	if err != nil {
		return "", err
	}
	if len(code) > common.MaxOtpLength {
		return "", errCodeTooLong
	}
	return code, nil
}

func (app *App) userName(args []string) (string, error) {
	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		var err error
		if name, err = getSimpleText(app.reader, "Enter user name", app.out); err != nil {
			return "", err
		}
	}
	if name == "" {
		return "", errors.New("user name is required")
	}
	if len(name) > common.MaxUserNameLength {
		return "", errUserNameTooLong
	}
	return name, nil
}

func (app *App) register(ctx context.Context, args []string) error {
	userName, err := app.userName(args)
	if err != nil {
		return err
	}

	password, err := app.password("Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := app.password("Repeat password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return errPasswordMismatch
	}

	enr, err := app.auth.Register(ctx, userName, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "Registered %s.\n", enr.UserName)
	fmt.Fprintf(app.out, "Add this secret to your authenticator app: %s\n", enr.TfaSecret)

	code, err := app.code("Enter the 6-digit code to confirm (empty to do it later with verify-tfa)")
	if errors.Is(err, errCodeTooLong) {
		return err
	}
	if err != nil || code == "" {
		return nil
	}
	if err := app.auth.VerifyTfa(ctx, userName, password, code); err != nil {
		return err
	}
	fmt.Fprintln(app.out, "Authenticator confirmed.")
	return nil
}

func (app *App) verifyTfa(ctx context.Context, args []string) error {
	userName, err := app.userName(args)
	if err != nil {
		return err
	}

	password, err := app.password("Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	code, err := app.code("Enter the 6-digit code")
	if err != nil {
		return err
	}

	if err := app.auth.VerifyTfa(ctx, userName, password, code); err != nil {
		return err
	}
	fmt.Fprintln(app.out, "Authenticator confirmed.")
	return nil
}

func (app *App) login(ctx context.Context, args []string) error {
	userName, err := app.userName(args)
	if err != nil {
		return err
	}

	password, err := app.password("Enter password")
	if err != nil {
		return err
	}
	lt, err := app.auth.Login(ctx, userName, password)
	common.WipeByteArray(password)
	if err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		code, err := app.code("Enter the 6-digit code")
		if err != nil {
			return err
		}

		at, err := app.auth.CheckTfa(ctx, userName, lt.LoginToken, code)
		if err == nil {
			fmt.Fprintf(app.out, "Logged in as %s until %s.\n", userName, at.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		}
		if !errors.Is(err, common.ErrWrongTfaCode) || attempt >= maxOtpAttempts {
			return err
		}
		fmt.Fprintln(app.out, "Wrong code, try again.")
	}
}

func (app *App) whoami(ctx context.Context) error {
	name, err := app.auth.WhoAmI(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, name)
	return nil
}

func (app *App) logout(ctx context.Context) error {
	if err := app.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(app.out, "Logged out.")
	return nil
}

func (app *App) ping(ctx context.Context) error {
	if err := app.auth.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(app.out, "Server is up.")
	return nil
}

// describe turns protocol errors into short user-facing text.
func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	case errors.Is(err, client.ErrLocalDataNotAvailable):
		return "no local profile for this user; register on this device first"
	case errors.Is(err, client.ErrRateLimited) && errors.As(err, &apiErr):
		return fmt.Sprintf("too many attempts, retry in %s", apiErr.RetryAfter)
	case errors.Is(err, client.ErrUnauthorized):
		return "not logged in"
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return err.Error()
	}
}
