// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hgctrg holds code to unpack and convert the raw data of the
// HGCal trigger links.
package hgctrg // import "github.com/go-lpc/hgctrg"

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version of hgctrg and its checksum.
// The returned values are only valid in binaries built with module support.
//
// For the hgctrg commands themselves, hgctrg is the main module: development
// builds report the VCS revision instead, with a "-dirty" suffix when the
// working tree was modified.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	const root = "github.com/go-lpc/hgctrg"
	if b.Main.Path == root {
		return mainVersion(b)
	}

	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		if m.Replace != nil {
			switch {
			case m.Replace.Version != "" && m.Replace.Path != "":
				return fmt.Sprintf("%s %s", m.Replace.Path, m.Replace.Version), m.Replace.Sum
			case m.Replace.Version != "":
				return m.Replace.Version, m.Replace.Sum
			case m.Replace.Path != "":
				return m.Replace.Path, m.Replace.Sum
			default:
				return m.Version + "*", ""
			}
		}
		return m.Version, m.Sum
	}
	return "", ""
}

func mainVersion(b *debug.BuildInfo) (version, sum string) {
	if v := b.Main.Version; v != "" && v != "(devel)" {
		return v, b.Main.Sum
	}

	var (
		rev   string
		dirty bool
	)
	for _, s := range b.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return b.Main.Version, ""
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev, ""
}
