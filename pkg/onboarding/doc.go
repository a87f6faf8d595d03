// Package onboarding turns an unknown actor into a patient with a login.
//
// Two surfaces feed one persistence contract, Registrar.CreatePatientAccount:
//
//   - Form is a blocking single-shot questionnaire used by the console. It
//     validates every answer as it is read, including the optional
//     demographics, and cancels on the first invalid answer.
//   - Machine is an incremental, per-actor state machine driven by chat
//     messages from the game world. Its state lives in a SessionStore.
//
// # Machine Steps
//
//	0 confirm     yes/y/si/s advances; anything else cancels
//	1 first name  at least 2 characters
//	2 last name   at least 2 characters
//	3 email       must contain @
//	4 password    at least 4 characters; creates the account
//
// Invalid input re-prompts without changing the step. After the password
// step the session is removed whatever the outcome. The password is never
// written to the session.
package onboarding
