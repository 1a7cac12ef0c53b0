package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
)

const minPasswordLength = 8

var (
	readPasswordFunc = term.ReadPassword // mockable

	errPasswordMismatch = errors.New("passwords do not match")
	errPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

func newCreateSuperuserCmd(connect func() (*app, error)) *cobra.Command {
	var username, email, surname string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an admin account, or reset an existing one to admin with a new password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(username) == "" {
				cmd.Usage()
				return errHelp
			}
			pwd, err := promptPassword(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			a, err := connect()
			if err != nil {
				return err
			}
			defer a.close()

			created, err := addSuperuser(cmd.Context(), a.repo, username, email, surname, pwd)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "superuser %q created\n", username)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "superuser %q updated\n", username)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&email, "email", "", "email address for password resets")
	cmd.Flags().StringVar(&surname, "surname", "Admin", "surname shown in the UI")
	return cmd
}

// promptPassword reads the password twice without echo
func promptPassword(out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter password: ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if len(pwd) < minPasswordLength {
		return "", errPasswordTooShort
	}

	fmt.Fprint(out, "Confirm password: ")
	confirm, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if string(pwd) != string(confirm) {
		return "", errPasswordMismatch
	}
	return string(pwd), nil
}

// addSuperuser updates or creates an active admin that is not asked to
// change the password on first login
func addSuperuser(ctx context.Context, repo *repository.Repository, username, email, surname, pwd string) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	username = strings.TrimSpace(username)

	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	user, err := repo.User.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &model.User{
			Username: username,
			Surname:  surname,
			Email:    strings.ToLower(strings.TrimSpace(email)),
		}
	case err != nil:
		return false, err
	}

	user.Role = model.RoleAdmin
	user.IsActive = true
	user.PasswordHash = string(hash)
	if email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(email))
	}

	created := user.UserID == ""
	if created {
		// the column default would turn a false flag back on
		if err := repo.User.Create(ctx, user); err != nil {
			return false, err
		}
	}
	user.MustChangePassword = false
	return created, repo.User.Update(ctx, user)
}
