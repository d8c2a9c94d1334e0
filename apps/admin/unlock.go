package main

import (
	"context"
	"time"

	"github.com/seepmela/mela/core"
)

// unlock clears the lockout counter set by repeated failed logins.
func (cli *commandLine) unlock(mobile string) error {
	ctx := context.Background()
	app, err := cli.repo.GetApplicantByMobileOrEmail(ctx, core.CleanString(mobile, true /* lower */))
	if err != nil {
		return err
	}
	app.IsLocked = false
	app.LoginAttempts = 0
	app.UpdatedAt = time.Now().UTC()
	_, err = cli.repo.UpdateApplicant(ctx, app)
	return err
}
