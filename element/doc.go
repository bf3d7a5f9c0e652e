// Package element composes builders into element classes.
//
// A Composer applies an ordered list of Builders to a shared Descriptor at
// class-definition time. Each builder runs exactly once and may:
//
//   - define properties and methods on the descriptor (last definition wins),
//   - wrap methods through the descriptor's decorator chain,
//   - register before/after interceptors on the four lifecycle phases.
//
// Compose finalizes the hook registry and resolves the decorator chain into a
// Class. Each lifecycle callback of an Instance then runs
//
//	before interceptors → base behaviour → after interceptors
//
// in registration order. A failing interceptor aborts only the phase it
// belongs to; disconnect is best-effort and always runs every teardown step.
package element
