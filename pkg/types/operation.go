package types

// OperationType defines the type of file system operation
type OperationType string

const (
	// OperationCreateSymlink creates a symbolic link
	OperationCreateSymlink OperationType = "create_symlink"

	// OperationCreateDir creates a directory
	OperationCreateDir OperationType = "create_dir"

	// OperationWriteFile writes content to a file
	OperationWriteFile OperationType = "write_file"

	// OperationDeleteFile deletes a file
	OperationDeleteFile OperationType = "delete_file"
)

// OperationStatus defines the state of an operation
type OperationStatus string

const (
	// StatusReady means the operation is ready to be executed
	StatusReady OperationStatus = "ready"
	// StatusSkipped means the operation was skipped (e.g., idempotent action)
	StatusSkipped OperationStatus = "skipped"
)

// Operation represents a low-level file system operation
// These are the actual operations that will be performed by synthfs
type Operation struct {
	// Type is the type of operation
	Type OperationType

	// Source is the symlink target (for symlink operations)
	Source string

	// Target is the path being created or modified
	Target string

	// Content is the content to write (for write operations)
	Content string

	// Mode is the file permissions (optional)
	Mode *uint32

	// Description is a human-readable description
	Description string

	// Status is the current state of the operation
	Status OperationStatus
}
