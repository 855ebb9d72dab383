/*
Package session provides single-writer access to formation sessions.

The underlying SessionStore is last-write-wins, so two concurrent handler
invocations on the same session would silently drop one side's mutations.
The Manager closes that gap: every handler body runs inside WithLock, which
serializes work per session ID locally (refcounted mutex map) and, when
configured, across replicas (distributed locker).

Operations on different sessions never contend.
*/
package session
