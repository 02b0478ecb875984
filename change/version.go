// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package change

import (
	"fmt"
	"slices"
)

// Version is one API version: a release date plus the changes introduced in
// it relative to the version immediately before it. The oldest version of a
// bundle usually carries no changes.
type Version struct {
	date    Date
	changes []*Change
}

// NewVersion builds a version released on date with the given changes.
// Changes are kept in declaration order; migrations within one version run
// in that order.
func NewVersion(date Date, changes ...*Change) *Version {
	return &Version{date: date, changes: slices.Clone(changes)}
}

// Date returns the release date of the version.
func (v *Version) Date() Date {
	return v.date
}

// Changes returns the version changes introduced in this version.
// The returned slice must not be modified.
func (v *Version) Changes() []*Change {
	return v.changes
}

func (v *Version) validate() error {
	if err := v.date.Validate(); err != nil {
		return err
	}
	for _, c := range v.changes {
		if err := c.validate(); err != nil {
			return fmt.Errorf("version %s: %w", v.date, err)
		}
	}
	return nil
}

// Bundle is the ordered set of all versions of an API, newest first.
// A Bundle is immutable once built and safe for concurrent use.
type Bundle struct {
	versions []*Version
}

// NewBundle builds a bundle from versions ordered newest to oldest.
// It validates the ordering, every date, and every change up front so that
// version generation never has to deal with a malformed bundle.
func NewBundle(versions ...*Version) (*Bundle, error) {
	if len(versions) == 0 {
		return nil, ErrEmptyBundle
	}
	for i, v := range versions {
		if v == nil {
			return nil, fmt.Errorf("%w: index %d", ErrNilVersion, i)
		}
		if err := v.validate(); err != nil {
			return nil, err
		}
		if i == 0 {
			continue
		}
		prev := versions[i-1]
		if v.date == prev.date {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVersion, v.date)
		}
		if v.date.After(prev.date) {
			return nil, fmt.Errorf("%w: %s listed after %s", ErrUnorderedVersions, v.date, prev.date)
		}
	}
	return &Bundle{versions: slices.Clone(versions)}, nil
}

// MustNewBundle is like NewBundle but panics on error.
func MustNewBundle(versions ...*Version) *Bundle {
	b, err := NewBundle(versions...)
	if err != nil {
		panic(err)
	}
	return b
}

// Versions returns all versions, newest first.
// The returned slice must not be modified.
func (b *Bundle) Versions() []*Version {
	return b.versions
}

// Head returns the newest version of the bundle.
func (b *Bundle) Head() *Version {
	return b.versions[0]
}

// Oldest returns the oldest version of the bundle.
func (b *Bundle) Oldest() *Version {
	return b.versions[len(b.versions)-1]
}

// Dates returns the dates of all versions, newest first.
func (b *Bundle) Dates() []Date {
	dates := make([]Date, len(b.versions))
	for i, v := range b.versions {
		dates[i] = v.date
	}
	return dates
}

// Contains reports whether the bundle has a version released on d.
func (b *Bundle) Contains(d Date) bool {
	for _, v := range b.versions {
		if v.date == d {
			return true
		}
	}
	return false
}

// VersionsAfter returns the versions strictly newer than d, ordered oldest
// to newest. This is the chronological order in which a request issued
// against version d must be migrated forward.
func (b *Bundle) VersionsAfter(d Date) []*Version {
	var newer []*Version
	// b.versions is newest first; walk backwards for chronological order.
	for i := len(b.versions) - 1; i >= 0; i-- {
		if b.versions[i].date.After(d) {
			newer = append(newer, b.versions[i])
		}
	}
	return newer
}
