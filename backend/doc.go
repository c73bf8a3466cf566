// Package backend selects a GPU Backend Interface implementation by name.
//
// Backend packages register a factory from their init function, so a
// program only needs to import the ones it wants:
//
//	import (
//	    "github.com/gogpu/gv/backend"
//	    _ "github.com/gogpu/gv/backend/software"
//	    _ "github.com/gogpu/gv/backend/wgpu"
//	)
//
//	b, err := backend.Default(800, 600)
//
// Default tries the registered backends in priority order (wgpu, then
// software) and returns the first one that opens. Open requests a
// specific backend:
//
//	b, err := backend.Open(backend.Software, 800, 600)
package backend
