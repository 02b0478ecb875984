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

// Package change declares API versions and the version changes between them.
//
// A version is identified by a calendar date, Stripe style. A version change
// is a named, self-contained description of everything that differs between
// one version and the version immediately before it: endpoints that appeared
// or disappeared, endpoint metadata that changed, and how request and
// response bodies convert across the boundary.
//
// # Declaring a Bundle
//
// Versions are collected into a Bundle, ordered newest to oldest. Each
// version carries the changes that were introduced in it:
//
//	bundle, err := change.NewBundle(
//	    change.NewVersion(change.MustParseDate("2021-01-01"),
//	        change.NewChange("AddEmailToUsers",
//	            "Users gained a required email field.",
//	            change.RequestToNextVersion(schema.Of[UserCreate](), addDefaultEmail),
//	            change.ResponseToPreviousVersion(schema.Of[User](), dropEmail),
//	        ),
//	    ),
//	    change.NewVersion(change.MustParseDate("2000-01-01")),
//	)
//
// # Endpoint Instructions
//
// Structural differences are declared with the Endpoint builder:
//
//	change.Endpoint("/users", "GET").DidntExist()
//	change.Endpoint("/orders", "POST").Existed()
//	change.Endpoint("/users/:id", "GET").Had(change.Summary("Fetch one user"))
//
// DidntExist removes an endpoint from versions at and below the change,
// Existed restores an endpoint that only lives in older versions, and Had
// rewrites endpoint metadata for older versions.
//
// # Data Migrations
//
// Request migrations lift an older request body one version forward;
// response migrations lower a newer response body one version back. Both
// operate on decoded JSON bodies, never on typed structs, so a single
// migration works regardless of which concrete schema type a version uses.
package change
