/*
Package session serializes conversation turns per thread and orchestrates
checkpoint persistence.

The engine assumes at most one in-flight invocation per thread; this package
enforces that with reference-counted per-thread locks, optionally extended
across replicas with a distributed locker. Concurrent turns for the same
thread queue behind the lock instead of being rejected.
*/
package session
