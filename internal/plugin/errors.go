package plugin

import "github.com/cockroachdb/errors"

// Error kinds returned by the loading pipeline and by Invoke. Errors carry the
// underlying diagnostic in their message and are classified with errors.Mark,
// so callers test them with errors.Is.
var (
	// ErrInvalidConfiguration is returned when the plugin root or a category
	// directory cannot be used.
	ErrInvalidConfiguration = errors.New("invalid plugin configuration")

	// ErrNameGenerationFailed is returned when no library filename can be built
	// from the requested plugin name.
	ErrNameGenerationFailed = errors.New("failed to generate plugin library name")

	// ErrLibraryOpenFailed is returned when the dynamic linker rejects the library.
	ErrLibraryOpenFailed = errors.New("failed to open plugin library")

	// ErrVersionQueryFailed is returned when the interface version symbol is missing.
	ErrVersionQueryFailed = errors.New("failed to query plugin interface version")

	// ErrFactoryFailed is returned when the factory is missing or returns null.
	ErrFactoryFailed = errors.New("plugin factory failed")

	// ErrDelayLoadFailed is returned when binding the operation table fails.
	ErrDelayLoadFailed = errors.New("delayed symbol binding failed")

	// ErrEmptyOperationList is returned when a category has no operations configured.
	ErrEmptyOperationList = errors.New("operation binding list is empty")

	// ErrStartOperationMissing is returned when a configured start symbol cannot be resolved.
	ErrStartOperationMissing = errors.New("start operation symbol not found")

	// ErrStopOperationMissing is returned when a configured stop symbol cannot be resolved.
	ErrStopOperationMissing = errors.New("stop operation symbol not found")

	// ErrOperationNotFound is returned by Invoke for names missing from the operation table.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrPreHookFailed is returned when the rule engine rejects an operation before the call.
	ErrPreHookFailed = errors.New("pre-operation hook failed")

	// ErrPostHookFailed is returned together with the operation result when
	// the rule engine fails after the call.
	ErrPostHookFailed = errors.New("post-operation hook failed")

	// ErrPathNotAllowed is returned when a library path escapes its category directory.
	ErrPathNotAllowed = errors.New("plugin path not in allowed directory")

	// ErrInvalidExtension is returned when a library file has the wrong extension.
	ErrInvalidExtension = errors.New("invalid plugin file extension")

	// ErrAlreadyLoaded is returned when an instance name is registered twice.
	ErrAlreadyLoaded = errors.New("plugin instance already loaded")
)
