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

// Package evolve generates date-versioned API surfaces from a single
// newest-version implementation.
//
// Handlers, schemas and routes are written once, against the newest version.
// Each older version is described declaratively as a chronological list of
// version changes: which endpoints appeared or disappeared, which metadata
// differed, and how request and response bodies convert between adjacent
// versions. Generate replays those changes newest to oldest and produces one
// complete, independently routable route collection per version. At request
// time, a caller-version body is lifted through the request migrations to
// the newest shape before the handler runs, and the handler's response is
// lowered back through the response migrations.
//
// # Key Features
//
//   - One handler and one schema set serve every API version
//   - Declarative version changes: endpoint existence, metadata, body shape
//   - Per-version schema packages with automatic annotation rewriting
//   - Deterministic request/response migration chains per route per version
//   - Mounting onto rivaas.dev/router with header/query version detection
//   - Per-version OpenAPI documents via rivaas.dev/openapi
//   - Optional validation, Prometheus metrics and OpenTelemetry tracing
//
// # Quick Start
//
//	reg := schema.MustNewRegistry("example.com/api/schemas/latest")
//	schema.MustRegister[User](reg)
//	reg.MustDeclarePackage(reg.VersionPackage("v2021_01_01"))
//
//	r := evolve.NewRouter()
//	r.GET("/users/:id", getUser).SetResponse(schema.Of[User]())
//
//	bundle := change.MustNewBundle(
//	    change.NewVersion(change.MustParseDate("2022-06-01")),
//	    change.NewVersion(change.MustParseDate("2021-01-01"),
//	        change.NewChange("drop-user-address", "Addresses moved to /addresses.",
//	            change.ResponseToPreviousVersion(schema.Of[User](), restoreAddress),
//	        ),
//	    ),
//	)
//
//	generated, err := evolve.Generate(r, bundle, reg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mux, err := generated.Router()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", mux)
//
// A client that sends "X-API-Version: 2021-01-01" gets the 2021 surface:
// routes that were deleted later do not resolve, metadata reads as it did
// then, and bodies are converted on the way in and out. A client on the
// newest version passes through with no conversions.
//
// # Version Changes
//
// Version changes live in the change package. Structural instructions are
// interpreted against the next newer version: Endpoint(...).DidntExist
// removes a route from this version down, Endpoint(...).Existed restores a
// route previously marked with Router.OnlyExistsInOlderVersions, and
// Endpoint(...).Had rewrites route metadata. Data instructions convert
// bodies between adjacent versions and compose across versions
// automatically.
//
// Generation is strict: instructions that match nothing, change nothing, or
// conflict fail Generate with an error naming the version change and route,
// so version drift is caught at startup rather than in production traffic.
package evolve
