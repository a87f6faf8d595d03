package onboarding

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// formQuestion is one prompt of the console questionnaire.
type formQuestion struct {
	field   string
	prompt  string
	cancel  string
	upper   bool
	collect func(app *Application, value string)
}

var formQuestions = []formQuestion{
	{FieldFirstName, "Enter First Name: ", "[!] Registration cancelled: First name is required.", false,
		func(a *Application, v string) { a.FirstName = v }},
	{FieldLastName, "Enter Last Name: ", "[!] Registration cancelled: Last name is required.", false,
		func(a *Application, v string) { a.LastName = v }},
	{FieldEmail, "Enter Email: ", "[!] Registration cancelled: Valid email is required.", false,
		func(a *Application, v string) { a.Email = v }},
	{FieldPassword, "Enter Password (min 4 characters): ", "[!] Registration cancelled: Password must be at least 4 characters.", false,
		func(a *Application, v string) { a.Password = v }},
	{FieldGender, "Enter Gender (M/F/O): ", "[!] Invalid gender.", true,
		func(a *Application, v string) { a.Gender = v }},
	{FieldSSN, "Enter SSN (XXX-XX-XXXX): ", "[!] Invalid SSN format.", false,
		func(a *Application, v string) { a.SSN = v }},
	{FieldPhone, "Enter Phone (XXX XXX XXX): ", "[!] Invalid phone format.", false,
		func(a *Application, v string) { a.Phone = v }},
	{FieldAddress, "Enter Address: ", "[!] Address is required.", false,
		func(a *Application, v string) { a.Address = v }},
}

// Form is the blocking console questionnaire. It reads answers line by
// line from In and writes prompts to Out.
type Form struct {
	in      *bufio.Reader
	out     io.Writer
	creator AccountCreator
}

// NewForm creates a form. in is shared with the caller, who may keep
// reading from the same reader afterwards.
func NewForm(in *bufio.Reader, out io.Writer, creator AccountCreator) *Form {
	return &Form{in: in, out: out, creator: creator}
}

// Run asks every question in order, validating each answer as it is read,
// and creates the account. The first invalid answer cancels the form with
// a *ValidationError and nothing is written.
func (f *Form) Run(ctx context.Context, username string) (Account, error) {
	fmt.Fprintln(f.out, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(f.out, "      PATIENT REGISTRATION FORM")
	fmt.Fprintln(f.out, strings.Repeat("=", 50))

	app := Application{Username: username}
	for _, q := range formQuestions {
		if err := ctx.Err(); err != nil {
			return Account{}, err
		}

		answer, err := f.ask(q.prompt)
		if err != nil {
			return Account{}, err
		}
		if q.upper {
			answer = strings.ToUpper(answer)
		}
		if err := ValidateField(q.field, answer); err != nil {
			fmt.Fprintln(f.out, q.cancel)
			return Account{}, err
		}
		q.collect(&app, answer)
	}

	return f.creator.CreatePatientAccount(ctx, app)
}

func (f *Form) ask(prompt string) (string, error) {
	fmt.Fprint(f.out, prompt)
	line, err := f.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
