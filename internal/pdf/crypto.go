package pdf

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrPasswordRequired is returned when an encrypted PDF cannot be opened
// with the given credentials.
var ErrPasswordRequired = errors.New("PDF is password protected")

// Credentials holds the passwords for an encrypted PDF.
type Credentials struct {
	UserPassword  string `json:"user_password,omitempty"`
	OwnerPassword string `json:"owner_password,omitempty"`
}

// Empty reports whether no password is set.
func (c Credentials) Empty() bool {
	return c.UserPassword == "" && c.OwnerPassword == ""
}

func (c Credentials) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = c.UserPassword
	conf.OwnerPW = c.OwnerPassword
	return conf
}

// IsEncrypted reports whether filename needs a password to be read.
func IsEncrypted(filename string) (bool, error) {
	_, err := api.PageCountFile(filename)
	if err == nil {
		return false, nil
	}
	if IsPasswordError(err) {
		return true, nil
	}
	return false, fmt.Errorf("failed to check PDF encryption status: %w", err)
}

// Decrypt writes a decrypted copy of filename to a temporary file. For
// unencrypted input the original path comes back and cleanup is a no-op.
// The caller must call cleanup once the copy is no longer needed.
func Decrypt(filename string, creds Credentials) (path string, cleanup func(), err error) {
	noop := func() {}

	encrypted, err := IsEncrypted(filename)
	if err != nil {
		return "", noop, err
	}
	if !encrypted {
		return filename, noop, nil
	}
	if creds.Empty() {
		return "", noop, fmt.Errorf("%w: %s", ErrPasswordRequired, filename)
	}

	tmp, err := os.CreateTemp("", "docstruct-decrypted-*.pdf")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create temporary file: %w", err)
	}
	_ = tmp.Close()
	remove := func() { _ = os.Remove(tmp.Name()) }

	if err := api.DecryptFile(filename, tmp.Name(), creds.configuration()); err != nil {
		remove()
		if IsPasswordError(err) {
			return "", noop, fmt.Errorf("%w: %s: %w", ErrPasswordRequired, filename, err)
		}
		return "", noop, fmt.Errorf("failed to decrypt PDF: %w", err)
	}
	return tmp.Name(), remove, nil
}

// IsPasswordError reports whether err looks like an encryption failure.
func IsPasswordError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPasswordRequired) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, keyword := range []string{"password", "encrypted", "decrypt", "invalid credentials"} {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}
