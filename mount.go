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

package evolve

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"rivaas.dev/errors"
	"rivaas.dev/router"
	"rivaas.dev/router/version"

	"rivaas.dev/evolve/change"
)

// VersionHeader is the request header Router configures for version
// detection.
const VersionHeader = "X-API-Version"

// VersionQueryParam is the query parameter Router configures as a fallback
// version detector.
const VersionQueryParam = "version"

// MountOption configures how generated collections attach to a rivaas
// router.
type MountOption func(*mountConfig)

type mountConfig struct {
	lifecycles map[change.Date][]version.LifecycleOption
}

// WithVersionLifecycle forwards lifecycle options (deprecation, sunset date,
// migration docs) to the router for one version.
//
// Example:
//
//	g.Mount(r, evolve.WithVersionLifecycle(oldDate,
//	    version.Deprecated(),
//	    version.Sunset(time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)),
//	))
func WithVersionLifecycle(date change.Date, opts ...version.LifecycleOption) MountOption {
	return func(mc *mountConfig) {
		mc.lifecycles[date] = append(mc.lifecycles[date], opts...)
	}
}

// Mount registers every generated collection on r, one router version per
// collection, with each route served through its migration chain. The router
// must have versioning enabled; its detectors decide which collection a
// request reaches.
func (g *Generated) Mount(r *router.Router, opts ...MountOption) error {
	if r == nil {
		return fmt.Errorf("evolve: mount target router must not be nil")
	}
	mc := &mountConfig{lifecycles: make(map[change.Date][]version.LifecycleOption)}
	for _, opt := range opts {
		opt(mc)
	}

	for _, col := range g.collections {
		vr := r.Version(col.date.String(), mc.lifecycles[col.date]...)
		for _, op := range col.ops {
			for _, method := range op.Methods() {
				vr.Handle(method, op.Path(), g.adapter(op))
			}
		}
		g.cfg.logger.Debug("mounted version",
			"version", col.date.String(), "routes", len(col.ops))
	}
	return nil
}

// Router builds a rivaas router with version detection preconfigured and
// every collection mounted: the X-API-Version header first, the "version"
// query parameter as fallback, unknown or absent versions served by the
// newest collection. Build the router yourself and call Mount for different
// detection rules.
func (g *Generated) Router(opts ...MountOption) (*router.Router, error) {
	labels := make([]string, 0, len(g.collections))
	for _, col := range g.collections {
		labels = append(labels, col.date.String())
	}

	r, err := router.New(router.WithVersioning(
		version.WithHeaderDetection(VersionHeader),
		version.WithQueryDetection(VersionQueryParam),
		version.WithDefault(labels[0]),
		version.WithValidVersions(labels...),
		version.WithResponseHeaders(),
	))
	if err != nil {
		return nil, err
	}
	if err := g.Mount(r, opts...); err != nil {
		return nil, err
	}
	return r, nil
}

// adapter bridges one generated operation onto the rivaas router handler
// signature.
func (g *Generated) adapter(op *Operation) router.HandlerFunc {
	paramNames := pathParamNames(op.Path())
	return func(c *router.Context) {
		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				g.writeError(c, errors.WithStatus(
					fmt.Errorf("reading request body: %w", err), http.StatusBadRequest))
				return
			}
		}

		var params map[string]string
		if len(paramNames) > 0 {
			params = make(map[string]string, len(paramNames))
			for _, name := range paramNames {
				params[name] = c.Param(name)
			}
		}

		out, err := op.serve(c.RequestContext(), g.cfg, &callInput{
			method:  c.Request.Method,
			body:    body,
			headers: c.Request.Header.Clone(),
			query:   c.Request.URL.Query(),
			params:  params,
			raw:     c.Request,
			writer:  c.Response,
		})
		if err != nil {
			g.writeError(c, err)
			return
		}

		for key, values := range out.headers {
			for _, value := range values {
				c.Header(key, value)
			}
		}
		if out.body == nil {
			c.Status(out.status)
			return
		}
		if err := c.JSON(out.status, out.body); err != nil {
			g.cfg.logger.Error("writing response",
				"route", op.Path(), "error", err)
		}
	}
}

// writeError renders err through the configured error formatter.
func (g *Generated) writeError(c *router.Context, err error) {
	resp := g.cfg.formatter.Format(c.Request, err)
	for key, values := range resp.Headers {
		for _, value := range values {
			c.Header(key, value)
		}
	}
	data, merr := json.Marshal(resp.Body)
	if merr != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if werr := c.Data(resp.Status, resp.ContentType, data); werr != nil {
		g.cfg.logger.Error("writing error response", "error", werr)
	}
}

// pathParamNames extracts the ":name" and "*name" parameter names of a
// route path.
func pathParamNames(path string) []string {
	var names []string
	for _, seg := range strings.Split(path, "/") {
		if len(seg) > 1 && (seg[0] == ':' || seg[0] == '*') {
			names = append(names, seg[1:])
		}
	}
	return names
}
