/*
Package ports defines the driven ports (interfaces) for the Charter formation engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends and remote collaborators.

# Key Interfaces

  - SessionStore: persisting, listing, and expiring formation sessions.
  - NameChecker: the external name-availability collaborator.
  - CertificateGenerator: the external certificate-generation collaborator.
  - DistributedLocker: distributed locking for concurrent session access.
*/
package ports
