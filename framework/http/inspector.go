package http

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/container"
	"github.com/km-arc/go-container/framework/routing"
)

// Inspector serves a read-only JSON view of a container: its bindings,
// alias resolution, configuration and tag groups.
type Inspector struct {
	app *container.Container
}

// NewInspector creates an Inspector over app.
func NewInspector(app *container.Container) *Inspector {
	return &Inspector{app: app}
}

// Routes mounts the inspector endpoints on r.
//
//	GET /bindings        → ["cache", "container", ...]
//	GET /aliases/{id}    → {"id": "cache", "canonical": "cache.manager", "alias": true}
//	GET /config/{path}   → the value at a dot path, 404 when unset
//	GET /tagged/{tag}    → Go types of the tag's resolved members
func (i *Inspector) Routes(r *routing.Router) {
	r.Get("/bindings", i.Bindings)
	r.Get("/aliases/{id}", i.Alias)
	r.Get("/config/{path}", i.Config)
	r.Get("/tagged/{tag}", i.Tagged)
}

// Bindings lists every bound abstract, sorted.
func (i *Inspector) Bindings(w http.ResponseWriter, r *http.Request) {
	NewResponse(w).Success(i.app.Bindings())
}

// Alias reports what an id canonicalizes to.
func (i *Inspector) Alias(w http.ResponseWriter, r *http.Request) {
	id := routing.Param(r, "id")
	NewResponse(w).Success(map[string]any{
		"id":        id,
		"canonical": i.app.Canonical(id),
		"alias":     i.app.IsAlias(id),
	})
}

// Config returns the configuration value at a dot path.
func (i *Inspector) Config(w http.ResponseWriter, r *http.Request) {
	path := routing.Param(r, "path")
	res := NewResponse(w)
	if !i.app.HasConfig(path) {
		res.NotFound(fmt.Sprintf("config path [%s] is not set", path))
		return
	}
	res.Success(i.app.GetConfig(path, nil))
}

// Tagged resolves a tag and reports the Go type of each member.
func (i *Inspector) Tagged(w http.ResponseWriter, r *http.Request) {
	tag := routing.Param(r, "tag")
	res := NewResponse(w)
	members, err := i.app.Tagged(tag)
	if err != nil {
		i.app.Logger().Error("inspector: tagged resolution failed", zap.String("tag", tag), zap.Error(err))
		res.ServerError(err.Error())
		return
	}
	types := make([]string, len(members))
	for n, m := range members {
		types[n] = fmt.Sprintf("%T", m)
	}
	res.Success(types)
}
