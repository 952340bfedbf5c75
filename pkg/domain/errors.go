package domain

import "errors"

// ErrThreadNotFound is returned when a thread ID has no persisted checkpoint.
// On a new thread this is indistinguishable from "no prior state" and callers
// start fresh.
var ErrThreadNotFound = errors.New("thread not found")

// ErrDuplicateNode is returned at graph-build time when two nodes share a name.
var ErrDuplicateNode = errors.New("duplicate node name")

// ErrUnknownRoute is returned when a router function produces a label that was
// not declared for its conditional edge.
var ErrUnknownRoute = errors.New("unknown route label")
