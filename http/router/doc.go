// Package router translates inbound HTTP requests into the structured
// requests the dispatch loop processes, using a route table registered
// up front in a standard drover app layout.
package router
