// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads database credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: hein-username, hein-password, westlaw-username,
// westlaw-password, ssrn-username, ssrn-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Credentials holds one database's username/password pair.
type Credentials struct {
	Username string
	Password string
}

// Empty reports whether either half of the pair is missing.
func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// DatabaseCredentials extracts the username/password pair for a database
// from a loaded secrets map. The database name is the key file prefix,
// e.g. "hein" reads hein-username and hein-password.
func DatabaseCredentials(secrets map[string]string, database string) Credentials {
	return Credentials{
		Username: secrets[database+"-username"],
		Password: secrets[database+"-password"],
	}
}
