// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

// Package credentials stores the remote service account for unattended
// runs: a two-line file holding the username and the obfuscated secret,
// readable only by the owning user.
//
// Base64 is obfuscation, not encryption. The file's protection is its
// 0600 mode; the encoding only keeps the secret out of casual shoulder
// surfing and terminal scrollback.
package credentials

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMalformed reports a credential file that does not hold exactly a
// username line and a secret line.
var ErrMalformed = errors.New("malformed credential file")

// Save writes the credential file, replacing any existing one.
func Save(path, username, secret string) error {
	if strings.ContainsAny(username, "\r\n") {
		return fmt.Errorf("username must not contain line breaks")
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(secret))
	data := username + "\n" + encoded + "\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

// Load reads the credential file written by Save.
func Load(path string) (username, secret string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read credential file: %w", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 || lines[0] == "" {
		return "", "", ErrMalformed
	}
	decoded, err := base64.StdEncoding.DecodeString(lines[1])
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return lines[0], string(decoded), nil
}
