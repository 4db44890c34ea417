package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups this app's secrets in the OS keychain.
const KeyringService = "jobtrack"

// Get looks a password up in the keychain, falling back to envVar when the
// keyring has no usable entry. Passwords never live in config files.
func Get(account, envVar string) (string, error) {
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if envVar != "" {
		if pw := strings.TrimSpace(os.Getenv(envVar)); pw != "" {
			return pw, nil
		}
	}
	return "", fmt.Errorf("password not found for %q (set it in the keychain or via %s)", account, envVar)
}

func Set(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

// SMTPAccount names the keychain entry for the outgoing mail password.
func SMTPAccount(username, host string) string {
	return fmt.Sprintf("jobtrack:smtp:%s@%s", username, host)
}

// IMAPAccount names the keychain entry for the alert mailbox password.
func IMAPAccount(username, host string) string {
	return fmt.Sprintf("jobtrack:imap:%s@%s", username, host)
}
