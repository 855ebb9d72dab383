/*
Package formation implements the company-formation state machine.

Every operation follows the same discipline: load the session through the
expiry-aware gate, validate the specific fields the step needs, mutate,
advance CurrentStep to the named step the handler represents, and save.
Steps are destinations rather than increments, so retrying a handler with
the same valid input reproduces the same resulting state.

Handler bodies run inside the per-session lock manager, so concurrent
invocations on the same session are serialized rather than silently
last-write-wins.
*/
package formation
