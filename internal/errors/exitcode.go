package errors

// Exit codes for the piodl command.
const (
	ExitSuccess        = 0   // Success, declined prompt, or unsupported platform
	ExitGenericError   = 1   // Generic error
	ExitNetworkError   = 2   // Download failed
	ExitCorruptArchive = 3   // Archive could not be read
	ExitPathTraversal  = 4   // Archive entry escapes the destination
	ExitExtraction     = 5   // Archive entry could not be written
	ExitInterrupted    = 130 // Interrupted by the user (128 + SIGINT)
)

// ExitCode maps err onto the process exit status.
// An unsupported platform ends the run gracefully; an interrupt does not.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case IsUnsupportedPlatform(err):
		return ExitSuccess
	case IsCanceled(err):
		return ExitInterrupted
	case IsNetwork(err):
		return ExitNetworkError
	case IsPathTraversal(err):
		return ExitPathTraversal
	case IsCorruptArchive(err):
		return ExitCorruptArchive
	case IsExtraction(err):
		return ExitExtraction
	default:
		return ExitGenericError
	}
}
