// Package geom holds the 2D geometry shared by the renderer and its
// internal engines: points, rectangles, affine matrices and paths.
//
// The root package re-exports these types as aliases, so most callers
// never import geom directly.
package geom
