// GeoVault - Feature Service Archiving and Track Reconstruction
// Copyright 2026 The GeoVault Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geovault/geovault

package archive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseSourceList reads service URLs, one per line. Blank lines and lines
// starting with '#' are skipped, surrounding whitespace is stripped.
func ParseSourceList(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source list: %w", err)
	}
	return urls, nil
}

// LoadSourceList reads a source list file from disk.
func LoadSourceList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source list: %w", err)
	}
	defer f.Close()
	return ParseSourceList(f)
}
