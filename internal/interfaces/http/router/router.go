// Package router assembles the gin engine and the fiscal API route tree.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIPrefix is where every route group is mounted
const APIPrefix = "/api/v1"

// RouteRegistrar is anything that can add its routes to a gin group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Mount registers each registrar under APIPrefix
func Mount(engine *gin.Engine, registrars ...RouteRegistrar) {
	api := engine.Group(APIPrefix)
	for _, r := range registrars {
		r.RegisterRoutes(api)
	}
}

// RouteGroup declares routes and middleware up front and registers them
// in one pass. Middleware added with Use applies to the group's routes and
// to every nested group.
type RouteGroup struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	children   []*RouteGroup
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewRouteGroup starts a group at prefix
func NewRouteGroup(prefix string) *RouteGroup {
	return &RouteGroup{prefix: prefix}
}

// Use appends middleware
func (g *RouteGroup) Use(middleware ...gin.HandlerFunc) *RouteGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// Handle declares a route
func (g *RouteGroup) Handle(method, path string, handlers ...gin.HandlerFunc) *RouteGroup {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

func (g *RouteGroup) GET(path string, handlers ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodGet, path, handlers...)
}

func (g *RouteGroup) POST(path string, handlers ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodPost, path, handlers...)
}

func (g *RouteGroup) PUT(path string, handlers ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodPut, path, handlers...)
}

// Group nests a group. An empty prefix keeps the parent's path, which
// scopes middleware to a subset of routes.
func (g *RouteGroup) Group(prefix string) *RouteGroup {
	child := NewRouteGroup(prefix)
	g.children = append(g.children, child)
	return child
}

// Routes lists "METHOD /path" for every declared route, relative to the
// mount point, in declaration order.
func (g *RouteGroup) Routes() []string {
	var out []string
	g.walk("", func(method, path string) {
		out = append(out, method+" "+path)
	})
	return out
}

func (g *RouteGroup) walk(base string, visit func(method, path string)) {
	base += g.prefix
	for _, r := range g.routes {
		visit(r.method, base+r.path)
	}
	for _, child := range g.children {
		child.walk(base, visit)
	}
}

// RegisterRoutes implements RouteRegistrar
func (g *RouteGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(g.prefix)
	if len(g.middleware) > 0 {
		group.Use(g.middleware...)
	}
	for _, r := range g.routes {
		group.Handle(r.method, r.path, r.handlers...)
	}
	for _, child := range g.children {
		child.RegisterRoutes(group)
	}
}
