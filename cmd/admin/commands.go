package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/seed"
	"inkwell/internal/service"
	"inkwell/internal/validation"

	"gorm.io/gorm"
)

var errUsage = errors.New("invalid arguments")

type admin struct {
	users  *service.UserService
	posts  *service.PostService
	groups *service.GroupService
	out    io.Writer
}

func newAdmin(db *gorm.DB, out io.Writer) *admin {
	return &admin{
		users:  service.NewUserService(repository.NewUserRepository(db)),
		posts:  service.NewPostService(repository.NewPostRepository(db), nil),
		groups: service.NewGroupService(repository.NewGroupRepository(db)),
		out:    out,
	}
}

func (a *admin) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create-user":
		return a.createUser(ctx, rest)
	case "delete-user":
		if len(rest) != 1 {
			return errUsage
		}
		if err := a.users.DeleteUser(ctx, rest[0]); err != nil {
			return describe(err)
		}
		fmt.Fprintf(a.out, "Deleted user %s\n", rest[0])
	case "create-group":
		return a.createGroup(ctx, rest)
	case "import-groups":
		return a.importGroups(ctx, rest)
	case "list-groups":
		return a.listGroups(ctx)
	case "delete-group":
		if len(rest) != 1 {
			return errUsage
		}
		if err := a.groups.DeleteGroup(ctx, rest[0]); err != nil {
			return describe(err)
		}
		fmt.Fprintf(a.out, "Deleted group %s\n", rest[0])
	case "delete-post":
		if len(rest) != 1 {
			return errUsage
		}
		id, err := strconv.ParseUint(rest[0], 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid post id %q", rest[0])
		}
		if err := a.posts.DeletePost(ctx, uint(id)); err != nil {
			return describe(err)
		}
		fmt.Fprintf(a.out, "Deleted post %d\n", id)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
	return nil
}

func (a *admin) createUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	form := validation.SignupForm{}
	fs.StringVar(&form.Username, "username", "", "username")
	fs.StringVar(&form.Password1, "password", "", "password")
	fs.StringVar(&form.Email, "email", "", "email address")
	fs.StringVar(&form.FirstName, "first", "", "first name")
	fs.StringVar(&form.LastName, "last", "", "last name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}
	form.Password2 = form.Password1

	in, err := validation.ValidateSignupForm(form)
	if err != nil {
		return describe(err)
	}
	user, err := a.users.Signup(ctx, in)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "Created user %s (ID: %d)\n", user.Username, user.ID)
	return nil
}

func (a *admin) createGroup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-group", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	group := &models.Group{}
	fs.StringVar(&group.Slug, "slug", "", "url slug")
	fs.StringVar(&group.Title, "title", "", "display title")
	fs.StringVar(&group.Description, "description", "", "description")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}

	if err := a.groups.CreateGroup(ctx, group); err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "Created group %s (ID: %d)\n", group.Slug, group.ID)
	return nil
}

func (a *admin) importGroups(ctx context.Context, args []string) error {
	var groups []models.Group
	switch len(args) {
	case 0:
		groups = seed.BuiltInGroups()
	case 1:
		var err error
		if groups, err = seed.LoadGroupsFile(args[0]); err != nil {
			return err
		}
	default:
		return errUsage
	}

	if err := a.groups.ImportGroups(ctx, groups); err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "Imported %d groups\n", len(groups))
	return nil
}

func (a *admin) listGroups(ctx context.Context) error {
	groups, err := a.groups.ListGroups(ctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Fprintln(a.out, "No groups")
		return nil
	}
	for _, g := range groups {
		fmt.Fprintf(a.out, "%-20s %s\n", g.Slug, g.Title)
	}
	return nil
}

// describe flattens field validation errors into one readable line.
func describe(err error) error {
	fields := models.FieldErrors(err)
	if len(fields) == 0 {
		return err
	}
	parts := make([]string, 0, len(fields))
	for name, msg := range fields {
		parts = append(parts, name+": "+msg)
	}
	sort.Strings(parts)
	return errors.New(strings.Join(parts, "; "))
}
