package main

import (
	"context"
	"fmt"
	"time"

	"github.com/seepmela/mela/core"
	"github.com/seepmela/mela/core/applicant"
)

// addAdmin updates or creates an admin account. Admin accounts live in the
// applicant table but never go through registration; a synthetic citizenship
// number keeps the unique constraint satisfied.
func (cli *commandLine) addAdmin(name, mobile, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	mobile = core.CleanString(mobile)
	email = core.CleanString(email, true /* lower */)

	app, err := cli.repo.GetApplicantByMobileOrEmail(ctx, mobile)
	if err != nil {
		if err != applicant.ErrNotFound {
			return err
		}

		seq, err := cli.counters.NextApplicantSeq(ctx)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		app = applicant.Applicant{
			ApplicantID:           fmt.Sprintf("ADM%04d", seq),
			FullName:              name,
			MobileNumber:          mobile,
			Email:                 email,
			CitizenshipNumber:     "admin-" + mobile,
			PermanentMunicipality: "kathmandu",
			Age:                   18,
			Status:                applicant.StatusAccepted,
			Role:                  applicant.RoleAdmin,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := app.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.repo.CreateApplicant(ctx, app)
		return err
	}

	app.FullName = name
	if email != "" {
		app.Email = email
	}
	app.Role = applicant.RoleAdmin
	app.IsLocked = false
	app.LoginAttempts = 0
	app.UpdatedAt = time.Now().UTC()
	if err := app.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.repo.UpdateApplicant(ctx, app)
	return err
}
