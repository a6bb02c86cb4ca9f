package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/masomo-console/core/guard"
)

func (cli *commandLine) credentialsFlags(name string, args []string) (string, string, error) {
	fs := cli.newFlagSet(name)
	email := fs.String("email", "", "The administrator's email. The password will be prompted next.")
	if err := cli.parse(fs, args); err != nil {
		return "", "", err
	}
	if *email == "" {
		fs.Usage()
		return "", "", errHelp
	}
	pwd, err := cli.promptPassword("Enter password:")
	if err != nil {
		return "", "", err
	}
	if pwd == "" {
		fs.Usage()
		return "", "", errHelp
	}
	return *email, pwd, nil
}

func (cli *commandLine) runLogin(ctx context.Context, args []string) error {
	if err := cli.open(guard.PathLogin); err != nil {
		return err
	}
	email, pwd, err := cli.credentialsFlags("login", args)
	if err != nil {
		return err
	}
	if !cli.session.Login(ctx, email, pwd) {
		return errFailed
	}
	if err := cli.open(guard.PathHome); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Welcome, %s\n", cli.session.State().DisplayName())
	return nil
}

func (cli *commandLine) runRegister(ctx context.Context, args []string) error {
	if err := cli.open(guard.PathRegister); err != nil {
		return err
	}
	email, pwd, err := cli.credentialsFlags("register", args)
	if err != nil {
		return err
	}
	if !cli.session.Register(ctx, email, pwd) {
		return errFailed
	}
	return cli.open(guard.PathLogin)
}

func (cli *commandLine) runLogout(ctx context.Context) error {
	if !cli.session.Logout(ctx) {
		return errFailed
	}
	return cli.open(guard.PathLogin)
}

func (cli *commandLine) runWhoami() error {
	if err := cli.open(guard.PathHome); err != nil {
		return err
	}
	st := cli.session.State()
	identity := st.Identity
	if identity == "" {
		identity = "(unknown administrator)"
	}
	fmt.Fprintln(cli.out, cli.title.Render(identity))
	if exp, ok := cli.session.ExpiresAt(); ok {
		status := "valid until"
		if time.Now().After(exp) {
			status = "expired at"
		}
		fmt.Fprintf(cli.out, "token %s %s\n", status, exp.Format(time.RFC1123))
	}
	return nil
}
