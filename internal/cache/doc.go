// Package cache maps rasterized content (glyphs and images) to atlas slots.
//
// A Cache owns one atlas texture and the allocator that packs it. Lookups
// go through [Cache.GetOrInsert], which rasterizes on a miss, uploads the
// bitmap through the GPU backend and records the entry in a single LRU
// list shared by glyphs and images.
//
// # Frames
//
// Every entry returned during a frame is marked in flight and cannot be
// evicted until [Cache.EndFrame]. The [Ref] handed to callers is a
// non-owning lookup key: it names the texture and texel rectangle and the
// frame epoch it was issued in, and [Cache.Validate] rejects refs from
// earlier frames or from textures that were destroyed.
//
// # Pressure
//
// When the atlas is full the cache evicts least-recently-used entries one
// at a time, retrying after each, then grows the atlas once by doubling.
// Growing re-packs every live slot, re-uploads retained pixels and keeps
// the previous texture alive until the frame ends.
//
// The cache is not safe for concurrent use.
package cache
