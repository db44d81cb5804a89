// Package http provides Laravel-style JSON responses and a read-only
// inspector for a running container.
//
// # Response
//
//	res := gohttp.NewResponse(w)
//	res.Success(map[string]any{"id": 1})  // 200 {"data": {"id": 1}}
//	res.NotFound()                        // 404 {"message": "Not found."}
//	res.Error(http.StatusConflict, "...") // any status
//
// # Inspector
//
// Mount the inspector on a router to look inside the container over HTTP:
//
//	gohttp.NewInspector(app).Routes(router)
//
//	GET /bindings       bound abstracts
//	GET /aliases/{id}   alias resolution
//	GET /config/{path}  configuration lookup by dot path
//	GET /tagged/{tag}   Go types of a tag's members
package http
