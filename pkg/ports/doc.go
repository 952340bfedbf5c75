/*
Package ports defines the interfaces (contracts) between the Parley engine and
external collaborators: the classification capability, checkpoint persistence,
the conversation audit log, and distributed locking.

Following Hexagonal Architecture, the engine depends only on these interfaces;
concrete implementations live in pkg/adapters.
*/
package ports
