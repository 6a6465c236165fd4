package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Credentials holds the login and server details of the sending email account.
// The JSON layout is {"email": ..., "pw": ..., "server": ..., "port": ...}.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"pw"`
	Server   string `json:"server"`
	Port     int    `json:"port"`
}

// Validate reports missing fields or an out-of-range port.
func (c Credentials) Validate() error {
	if c.Email == "" || c.Password == "" || c.Server == "" || c.Port == 0 {
		return ErrIncompleteCredentials
	}
	if c.Port < 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}

// String never includes the password.
func (c Credentials) String() string {
	return fmt.Sprintf("%s via %s:%d", c.Email, c.Server, c.Port)
}

// LoadCredentials reads and validates a JSON credentials file.
func LoadCredentials(path string) (Credentials, error) {
	var creds Credentials

	data, err := os.ReadFile(path) //nolint:gosec // User-provided credentials path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return creds, fmt.Errorf("%w: %s", ErrCredentialsNotFound, path)
		}
		return creds, err
	}

	if err := json.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("failed to parse credentials %s: %w", path, err)
	}

	if err := creds.Validate(); err != nil {
		return creds, fmt.Errorf("%s: %w", path, err)
	}

	return creds, nil
}

// Recipients is a list of email addresses. In JSON it may be written as a
// single string, a comma separated string or a list of strings.
type Recipients []string

// UnmarshalJSON accepts both string and list forms.
func (r *Recipients) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = SplitAddresses(single)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.New("recipients must be a string or a list of strings")
	}

	out := make(Recipients, 0, len(list))
	for _, addr := range list {
		out = append(out, SplitAddresses(addr)...)
	}
	*r = out
	return nil
}

// SplitAddresses splits a comma separated address list, dropping blanks.
func SplitAddresses(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadRecipients reads a JSON file holding {"email": <string or list>}.
func LoadRecipients(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided recipients path is intentional
	if err != nil {
		return nil, err
	}

	var doc struct {
		Email Recipients `json:"email"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse recipients %s: %w", path, err)
	}
	if len(doc.Email) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRecipients)
	}

	return doc.Email, nil
}
