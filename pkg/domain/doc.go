/*
Package domain contains the core domain models for the Charter formation engine.

It defines the formation session aggregate, the canonical step orderings per
company type, and the error taxonomy shared by every adapter. The package is
kept pure and free of external dependencies so it can be consumed by any
storage or transport adapter without friction.
*/
package domain
