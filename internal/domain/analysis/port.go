package analysis

import "context"

// ToolLocator resolves executables on the search path.
type ToolLocator interface {
	// Missing returns the subset of names that cannot be resolved,
	// preserving input order.
	Missing(names []string) []string
}

// FileTool runs an external analyzer against one uploaded file.
type FileTool interface {
	Name() string
	Run(ctx context.Context, f UploadedFile) (ToolOutput, error)
}

// EnvironmentTool runs an external analyzer against the installed
// environment rather than a file.
type EnvironmentTool interface {
	Name() string
	Run(ctx context.Context) (ToolOutput, error)
}

// SourceAnalyzer parses Python source in-process.
type SourceAnalyzer interface {
	Complexity(f UploadedFile) ([]FunctionComplexity, error)
	Comments(f UploadedFile) ([]string, error)
}

// PerformanceProbe measures the execution cost of a file outside the
// server process.
type PerformanceProbe interface {
	Measure(ctx context.Context, f UploadedFile) (PerformanceSection, error)
}

// ArtifactStore archives serialized batch reports.
type ArtifactStore interface {
	PutJSON(ctx context.Context, key string, data []byte) (string, error)
}
