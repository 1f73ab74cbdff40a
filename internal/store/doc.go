// Package store keeps the latest search status of every watched episode.
//
// This package is internal to searchwatch. It holds one [StatusRecord] per
// episode and publishes every change to subscribers, which the dashboard
// streams to browsers.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [StatusRecord]: Storage representation of an episode's search status
//
// Subscribers receive updates via channels with non-blocking sends; slow
// subscribers miss updates rather than block the poll loops.
package store
