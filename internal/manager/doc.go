// Package manager owns the host's desired configuration: which catalog models
// are assigned to GPUs and which LoRA adapters are active per model. It is
// structured into small files by concern:
//
//   - manager.go: core Manager type, Load, persistence and commit helpers.
//   - config.go: ManagerConfig, collaborator interfaces and package defaults.
//   - types.go: State handed to the watchdog.
//   - errors.go: ValidationError kinds and helpers (IsValidation, KindOf, IsPersistence).
//   - assign.go: AssignModels validation and full-replace commit.
//   - adapters.go: ModifyAdapters add/remove with pair equality.
//   - views.go: read-only projections (ModelsView, Devices, History).
//   - notify.go: Notifier contract and the bounded AsyncNotifier.
//
// Every mutation runs validate, persist, swap under a single mutex; the
// notifier and history log run after the lock is released on a copied State.
// Validation always completes before anything is written.
package manager
