package routes

import "net/http"

// Group represents a collection of routes under a common URL prefix.
// Groups can contain child groups for hierarchical route organization.
type Group struct {
	Prefix      string
	Description string
	Routes      []Route
	Children    []Group
}

// Route binds a method and pattern to a handler.
// Pattern follows net/http ServeMux syntax and may contain wildcards such as {name}.
type Route struct {
	Method  string
	Pattern string
	Summary string
	Handler http.HandlerFunc
}
