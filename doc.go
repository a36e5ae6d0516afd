/*
Package libvirt is currently just for providing docs for godoc.

The module implements the object event core of a virtualization management
library: typed events about domains and networks are queued by a producer
and delivered, in order, to every callback registered for their kind.

Events are built and owned by the "event" package. Registration, queueing
and dispatch live in the "state" package. The virteventd command under cmd/
wires both to a scheduler and replays scripted events for testing
subscribers.

The library supports propagation of logging and traces through a context.
See the "log" and "trace" packages for how to use this.

Errors produced by the library conform to the error types defined in the
"errdefs" package in order to be able to understand the kind of failure that
occurred and react accordingly.
*/
package libvirt
