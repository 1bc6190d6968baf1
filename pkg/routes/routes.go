// Package routes provides HTTP route registration and handler building on net/http.
package routes

import (
	"log/slog"
	"net/http"
)

// System defines route registration and multiplexer construction.
type System interface {
	RegisterGroup(group Group)
	RegisterRoute(route Route)
	Build() http.Handler
	Groups() []Group
	Routes() []Route
}

type registry struct {
	routes []Route
	groups []Group
	logger *slog.Logger
}

// New creates a route system with the specified logger.
func New(logger *slog.Logger) System {
	return &registry{
		logger: logger.With("system", "routes"),
		groups: []Group{},
		routes: []Route{},
	}
}

func (r *registry) Groups() []Group {
	return r.groups
}

func (r *registry) Routes() []Route {
	return r.routes
}

// RegisterRoute adds a top-level route.
func (r *registry) RegisterRoute(route Route) {
	r.routes = append(r.routes, route)
}

// RegisterGroup adds a route group.
func (r *registry) RegisterGroup(group Group) {
	r.groups = append(r.groups, group)
}

// Build constructs a ServeMux from all registered routes and groups.
func (r *registry) Build() http.Handler {
	mux := http.NewServeMux()

	for _, route := range r.routes {
		r.handle(mux, route.Method+" "+route.Pattern, route)
	}

	for _, group := range r.groups {
		r.registerGroup(mux, "", group)
	}

	return mux
}

func (r *registry) registerGroup(mux *http.ServeMux, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		r.handle(mux, route.Method+" "+fullPrefix+route.Pattern, route)
	}
	for _, child := range group.Children {
		r.registerGroup(mux, fullPrefix, child)
	}
}

func (r *registry) handle(mux *http.ServeMux, pattern string, route Route) {
	r.logger.Debug("route registered", "pattern", pattern, "summary", route.Summary)
	mux.HandleFunc(pattern, route.Handler)
}
