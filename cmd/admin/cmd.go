package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"yayasan/internal/database"
	"yayasan/internal/model"
	"yayasan/internal/repository"
	"yayasan/internal/service"

	"golang.org/x/term"
	"gorm.io/gorm"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *gorm.DB
	users  service.UserService
	roles  service.RoleService
	scope  repository.ScopeRepository
	stdout io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.stdout, "Usage:")
	fmt.Fprintln(cli.stdout, "  migrate                                       - create or update the schema")
	fmt.Fprintln(cli.stdout, "  seed                                          - create the built-in roles and permissions")
	fmt.Fprintln(cli.stdout, "  createuser -name NAME -email EMAIL [-role R]  - create an account, the password is prompted")
	fmt.Fprintln(cli.stdout, "  resetpassword -email EMAIL                    - reset an account's password")
	fmt.Fprintln(cli.stdout, "  addclass -name NAME -branch CABANG            - register a class in a branch")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	createUserCmd := flag.NewFlagSet("createuser", flag.ContinueOnError)
	createUserName := createUserCmd.String("name", "", "Display name.")
	createUserEmail := createUserCmd.String("email", "", "Sign-in email. The password will be prompted next.")
	createUserRole := createUserCmd.String("role", "", "Role for accounts that are not guru or caregivers, e.g. Direktur.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	addClassCmd := flag.NewFlagSet("addclass", flag.ContinueOnError)
	addClassName := addClassCmd.String("name", "", "Class name.")
	addClassBranch := addClassCmd.String("branch", "", "Branch (cabang) the class belongs to.")

	for _, fs := range []*flag.FlagSet{createUserCmd, resetPasswordCmd, addClassCmd} {
		fs.SetOutput(cli.stdout)
	}

	switch args[1] {
	case "migrate":
		if err := database.Migrate(cli.db); err != nil {
			return err
		}
		fmt.Fprintln(cli.stdout, "schema is up to date")
		return nil

	case "seed":
		if err := cli.roles.SeedDefaultRolesAndPermissions(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.stdout, "default roles seeded")
		return nil

	case "createuser":
		if err := createUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createUserName == "" || *createUserEmail == "" {
			createUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			createUserCmd.Usage()
			return errHelp
		}
		user, err := cli.users.CreateUser(ctx, service.Actor{}, service.CreateUserRequest{
			Name:     *createUserName,
			Email:    *createUserEmail,
			Password: pwd,
			Role:     *createUserRole,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.stdout, "created user %s (%s)\n", user.Email, user.ID)
		return nil

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		if err := cli.users.ResetPassword(ctx, *resetPasswordEmail, pwd); err != nil {
			return err
		}
		fmt.Fprintln(cli.stdout, "password updated")
		return nil

	case "addclass":
		if err := addClassCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addClassName == "" || *addClassBranch == "" {
			addClassCmd.Usage()
			return errHelp
		}
		k := model.Kelas{Nama: *addClassName, Cabang: *addClassBranch}
		if err := cli.scope.CreateKelas(ctx, &k); err != nil {
			return err
		}
		fmt.Fprintf(cli.stdout, "created class %s in %s (%s)\n", k.Nama, k.Cabang, k.ID)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.stdout, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.stdout)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
