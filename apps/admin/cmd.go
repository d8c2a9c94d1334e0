package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/seepmela/mela/core/applicant"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB
	repo     applicant.Repository
	counters applicant.CounterRepository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|down|status [ARGS] - run database migrations")
	fmt.Println("  addadmin -name NAME -mobile MOBILE [-email EMAIL] - create or update an admin account")
	fmt.Println("  resetpassword -mobile MOBILE|EMAIL - reset an account's password")
	fmt.Println("  unlock -mobile MOBILE|EMAIL - unlock a locked account")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAdminCmd := flag.NewFlagSet("addadmin", flag.ExitOnError)
	addAdminName := addAdminCmd.String("name", "", "The admin's full name.")
	addAdminMobile := addAdminCmd.String("mobile", "", "The admin's mobile number. The password will be prompted next.")
	addAdminEmail := addAdminCmd.String("email", "", "The admin's email address (optional).")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordMobile := resetPasswordCmd.String("mobile", "", "The account's mobile number or email. The password will be prompted next.")

	unlockCmd := flag.NewFlagSet("unlock", flag.ExitOnError)
	unlockMobile := unlockCmd.String("mobile", "", "The account's mobile number or email.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addadmin":
		if err := addAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAdminName == "" || *addAdminMobile == "" {
			addAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addAdminCmd)
		if err != nil {
			return err
		}
		return cli.addAdmin(*addAdminName, *addAdminMobile, *addAdminEmail, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordMobile == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordMobile, pwd)
	case "unlock":
		if err := unlockCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *unlockMobile == "" {
			unlockCmd.Usage()
			return errHelp
		}
		return cli.unlock(*unlockMobile)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword(cmd *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}
