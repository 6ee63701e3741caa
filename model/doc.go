// Package model defines the in-memory scientific object graph persisted by
// nixstore: a Recording holds Segments and ChannelGroups, which link to data
// leaves (time series, spike trains, event and interval sets).
//
// Objects are plain data structs; all persistence logic lives in the root
// package. Child collections are List values, which may be eager (built by
// the caller) or deferred (built by the reader, fetching on first access).
package model
