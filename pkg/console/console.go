// Package console runs the interactive terminal loop: login, patient
// record lookups and the admin menu.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"mercator-hq/wardgate/pkg/access"
	"mercator-hq/wardgate/pkg/access/render"
	"mercator-hq/wardgate/pkg/admin"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/onboarding"
	"mercator-hq/wardgate/pkg/telemetry/logging"
)

// Authenticator resolves and authenticates console users.
type Authenticator interface {
	Resolve(ctx context.Context, username string) (*identity.Identity, error)
	Authenticate(ctx context.Context, username, password string) (*identity.Identity, error)
}

// Decider evaluates record access.
type Decider interface {
	Decide(ctx context.Context, id *identity.Identity, patientID int64) access.View
}

// Administrator provisions users.
type Administrator interface {
	CreateUser(ctx context.Context, actor *identity.Identity, user admin.NewUser) (int64, error)
	DeleteUser(ctx context.Context, actor *identity.Identity, username string) error
}

// PasswordReader prints prompt and reads a password.
type PasswordReader func(prompt string) (string, error)

// errQuit ends the loop.
var errQuit = errors.New("quit")

// Console is the interactive loop. It must not share a process with the
// world poller.
type Console struct {
	in       *bufio.Reader
	out      io.Writer
	auth     Authenticator
	decider  Decider
	admin    Administrator
	creator  onboarding.AccountCreator
	password PasswordReader
	logger   *slog.Logger
}

// New creates a console reading from in and writing to out. Passwords are
// read as plain lines from in until WithPasswordReader is called.
func New(in io.Reader, out io.Writer, auth Authenticator, decider Decider, adm Administrator, creator onboarding.AccountCreator) *Console {
	c := &Console{
		in:      bufio.NewReader(in),
		out:     out,
		auth:    auth,
		decider: decider,
		admin:   adm,
		creator: creator,
		logger:  slog.Default().With("component", "console"),
	}
	c.password = func(prompt string) (string, error) { return c.ask(prompt) }
	return c
}

// WithPasswordReader replaces the password prompt and returns c. A nil
// reader keeps the current one.
func (c *Console) WithPasswordReader(r PasswordReader) *Console {
	if r != nil {
		c.password = r
	}
	return c
}

// Run serves logins until the user types q, input ends or ctx is
// cancelled.
func (c *Console) Run(ctx context.Context) error {
	c.println("\n" + strings.Repeat("=", 50))
	c.println("      HOSPITAL SECURITY - CONSOLE SIMULATION      ")
	c.println(strings.Repeat("=", 50))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		err := c.login(ctx)
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) login(ctx context.Context) error {
	c.println(strings.Repeat("-", 30))
	username, err := c.ask("Enter Username (or 'q' to exit): ")
	if err != nil {
		return err
	}
	if strings.EqualFold(username, "q") {
		return errQuit
	}

	if _, err := c.auth.Resolve(ctx, username); errors.Is(err, identity.ErrNotFound) {
		return c.offerRegistration(ctx, username)
	} else if err != nil {
		return fmt.Errorf("resolve %s: %w", username, err)
	}

	password, err := c.password(fmt.Sprintf("Enter Password for %s: ", username))
	if err != nil {
		return err
	}
	id, err := c.auth.Authenticate(ctx, username, strings.TrimSpace(password))
	switch {
	case errors.Is(err, identity.ErrAuthFailure), errors.Is(err, identity.ErrNotFound):
		c.println("[!] AUTH FAILED: Invalid Password.")
		return nil
	case err != nil:
		return fmt.Errorf("authenticate %s: %w", username, err)
	}

	ctx = logging.WithActor(logging.WithSession(ctx, uuid.NewString()), id.Username)
	logger := c.logger.With("role", id.Role)
	logger.InfoContext(ctx, "console login")
	defer logger.InfoContext(ctx, "console logout")

	c.printf("\n[+] Greetings %s! Your role is: %s\n", id.FullName, id.Role)
	if id.Role == identity.RoleAdminDB {
		return c.adminMenu(ctx, id)
	}
	return c.lookupLoop(ctx, id)
}

func (c *Console) offerRegistration(ctx context.Context, username string) error {
	c.printf("[!] User '%s' not found in system.\n", username)
	answer, err := c.ask("Would you like to register as a patient? (yes/no): ")
	if err != nil {
		return err
	}
	if !onboarding.IsYes(answer) {
		c.println("[*] Registration cancelled.")
		return nil
	}

	form := onboarding.NewForm(c.in, c.out, c.creator)
	if _, err := form.Run(ctx, username); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		c.logger.Warn("console registration failed", "username", username, "error", err)
		c.println("[!] Registration failed. Please try again.")
		return nil
	}
	c.println("[+] Registration successful! Please login with your new credentials.")
	return nil
}

func (c *Console) lookupLoop(ctx context.Context, id *identity.Identity) error {
	for {
		cmd, err := c.ask(fmt.Sprintf("   (%s) Enter Patient ID or 'logout': ", id.Username))
		if err != nil {
			return err
		}
		if strings.EqualFold(cmd, "logout") {
			return nil
		}
		if !isDigits(cmd) {
			c.println("   [!] Please enter a valid Patient ID number.")
			continue
		}
		patientID, err := strconv.ParseInt(cmd, 10, 64)
		if err != nil {
			c.println("   [!] Please enter a valid Patient ID number.")
			continue
		}

		c.println("   [*] Verifying Access Policies...")
		view := c.decider.Decide(ctx, id, patientID)
		c.printf("   >> RESPONSE: %s\n\n", render.Text(view))
	}
}

func (c *Console) adminMenu(ctx context.Context, id *identity.Identity) error {
	for {
		c.println("   1) Create User")
		c.println("   2) Delete User")
		c.println("   3) Logout")
		choice, err := c.ask("   Select: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			msg, err := c.createUser(ctx, id)
			if err != nil {
				return err
			}
			c.println(msg)
		case "2":
			msg, err := c.deleteUser(ctx, id)
			if err != nil {
				return err
			}
			c.println(msg)
		default:
			return nil
		}
	}
}

func (c *Console) createUser(ctx context.Context, id *identity.Identity) (string, error) {
	c.println("\n--- CREATE NEW USER ---")
	var user admin.NewUser
	for _, q := range []struct {
		prompt string
		dst    *string
	}{
		{"New username: ", &user.Username},
		{"Password: ", &user.Password},
		{"Email: ", &user.Email},
		{"Full name: ", &user.FullName},
		{"Role (doctor/nurse/pharmacist/lab_tech/auditor/admin_db/patient): ", &user.Role},
	} {
		answer, err := c.ask(q.prompt)
		if err != nil {
			return "", err
		}
		*q.dst = answer
	}

	_, err := c.admin.CreateUser(ctx, id, user)
	var conflict *onboarding.ConflictError
	var invalid *onboarding.ValidationError
	switch {
	case err == nil:
		return fmt.Sprintf("User %s created successfully.", user.Username), nil
	case errors.Is(err, admin.ErrUnauthorized):
		return "ACCESS DENIED", nil
	case errors.As(err, &conflict):
		if conflict.Field == "email" {
			return "Email already exists.", nil
		}
		return "Username already exists.", nil
	case errors.As(err, &invalid) && invalid.Field == "role":
		return "Invalid role.", nil
	case errors.As(err, &invalid):
		return fmt.Sprintf("Invalid %s: %s.", invalid.Field, invalid.Reason), nil
	default:
		c.logger.ErrorContext(ctx, "user creation failed", "username", user.Username, "error", err)
		return "User creation failed.", nil
	}
}

func (c *Console) deleteUser(ctx context.Context, id *identity.Identity) (string, error) {
	username, err := c.ask("Username to DELETE: ")
	if err != nil {
		return "", err
	}

	err = c.admin.DeleteUser(ctx, id, username)
	switch {
	case err == nil:
		return fmt.Sprintf("User %s deleted.", username), nil
	case errors.Is(err, admin.ErrUnauthorized):
		return "ACCESS DENIED", nil
	case errors.Is(err, admin.ErrUserNotFound):
		return "User not found.", nil
	default:
		c.logger.ErrorContext(ctx, "user deletion failed", "username", username, "error", err)
		return "User deletion failed.", nil
	}
}

// ask prints prompt and returns the trimmed next line. io.EOF is returned
// only when no input is left.
func (c *Console) ask(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
