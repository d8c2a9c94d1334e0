package main

import (
	"context"
	"time"

	"github.com/seepmela/mela/core"
)

func (cli *commandLine) resetPassword(mobile, pwd string) error {
	ctx := context.Background()
	app, err := cli.repo.GetApplicantByMobileOrEmail(ctx, core.CleanString(mobile, true /* lower */))
	if err != nil {
		return err
	}
	if err := app.SetPassword(pwd); err != nil {
		return err
	}
	app.PasswordChanged = true
	app.UpdatedAt = time.Now().UTC()
	_, err = cli.repo.UpdateApplicant(ctx, app)
	return err
}
