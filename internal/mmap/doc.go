// Package mmap maps graph files read-only into memory.
//
// It backs the mapped degree lookup: a degree file that fits the memory
// budget is mapped once and shared by every worker goroutine, so random
// degree queries from many windows never seek.
//
//	m, err := mmap.Open(vertex.DegName(base))
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessRandom)
//
// Only unix platforms are supported. Mappings are safe for concurrent reads;
// callers must not touch Bytes() after Close().
package mmap
