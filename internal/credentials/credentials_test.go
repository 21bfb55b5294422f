// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// TestSaveAndLoad tests the credential round trip
func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cred")
	if err := Save(path, "svc_backup", "s3cret-token"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	user, secret, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if user != "svc_backup" || secret != "s3cret-token" {
		t.Errorf("Load = %q, %q", user, secret)
	}

	// The secret must not appear in the file as written.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if strings.Contains(string(raw), "s3cret-token") {
		t.Error("secret stored in clear text")
	}
}

// TestSaveOverwrites tests that a second save replaces the first
func TestSaveOverwrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cred")
	if err := Save(path, "old", "old-secret"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := Save(path, "new", "new-secret"); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	user, secret, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if user != "new" || secret != "new-secret" {
		t.Errorf("Load = %q, %q", user, secret)
	}
}

// TestFileMode tests owner-only permissions
func TestFileMode(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	path := filepath.Join(t.TempDir(), "cred")
	if err := Save(path, "svc", "secret"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("file mode = %o, want 600", mode)
	}
}

// TestLoadMalformed tests rejection of invalid credential files
func TestLoadMalformed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"one line", "user\n"},
		{"three lines", "user\nc2VjcmV0\nextra\n"},
		{"bad encoding", "user\nnot base64!!\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_"))
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			if _, _, err := Load(path); !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

// TestSaveRejectsMultilineUser tests username validation
func TestSaveRejectsMultilineUser(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cred")
	if err := Save(path, "user\nimposter", "secret"); err == nil {
		t.Error("expected error for username with line break")
	}
}
