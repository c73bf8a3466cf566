// Package tessellate converts path segments into triangle meshes.
//
// [Service] is the capability the renderer consumes; [Tessellator] is the
// default implementation. Fills are decomposed into horizontal trapezoids:
// the flattened outline is cut at every vertex and edge crossing height,
// and within each band the spans inside the path under the requested fill
// rule become two triangles each. The result never overlaps itself, so it
// can be drawn with plain blending or written into a stencil buffer with
// a single increment.
//
// Strokes are built as a union of positively oriented polygons (one quad
// per segment plus join and cap pieces) filled with the non-zero rule.
//
// An optional feather adds a fringe of triangles along the outline whose
// coverage ramps from one to zero, for anti-aliasing without multisampling.
package tessellate
