// Package core provides the filesystem tools: reading, writing, inserting,
// replacing, listing and searching. Every tool addresses files through
// virtual paths and resolves them with the path mapper before touching disk.
package core
