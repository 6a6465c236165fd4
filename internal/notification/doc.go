// Package notification composes and delivers price reports by email.
//
// Messages are built once by SendUnformatted or SendTable and handed to a
// Notifier. Three notifiers exist:
//
//   - SMTPNotifier sends over implicit TLS (SMTPS, usually port 465) with
//     PLAIN auth using the JSON credentials file.
//   - SESNotifier sends through Amazon SES v2.
//   - NoopNotifier only logs, for dry runs.
package notification
