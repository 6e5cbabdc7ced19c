package authctl

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/fakhri2406/creadev/internal/common"
	"github.com/fakhri2406/creadev/internal/flagx"
	"github.com/fakhri2406/creadev/internal/server/services"
)

var userAddFlags = []string{
	"-username", "-role", "-email", "-first-name", "-last-name", "-phone",
}

// UserAdd creates an account. The password is read twice from the terminal.
func (a *App) UserAdd(ctx context.Context, args []string) error {
	var in services.NewAccount

	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.StringVar(&in.Username, "username", "", "account username")
	fs.StringVar(&in.Role, "role", common.RoleEditor, "account role")
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.FirstName, "first-name", "", "first name")
	fs.StringVar(&in.LastName, "last-name", "", "last name")
	fs.StringVar(&in.PhoneNumber, "phone", "", "phone number")

	if err := fs.Parse(flagx.FilterArgs(args, userAddFlags)); err != nil {
		return ErrUsage
	}
	if in.Username == "" {
		fmt.Fprintln(a.out, "-username is required")
		return ErrUsage
	}

	password, err := a.GetPassword("Enter password: ")
	if err != nil {
		return fmt.Errorf("error reading password: %w", err)
	}
	defer common.WipeByteArray(password)

	confirm, err := a.GetPassword("Repeat password: ")
	if err != nil {
		return fmt.Errorf("error reading password: %w", err)
	}
	defer common.WipeByteArray(confirm)

	if len(password) == 0 {
		return errors.New("password must not be empty")
	}
	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}

	in.Password = string(password)

	user, err := a.accounts.CreateAccount(ctx, in)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("user %q already exists", in.Username)
		}
		return err
	}

	fmt.Fprintf(a.out, "created %s (%s) id=%s\n", user.UserName, user.Role, user.ID)
	return nil
}
