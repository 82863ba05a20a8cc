package sync

// Decision is the single action assigned to a path by the diff engine.
type Decision string

const (
	// NoOp: unchanged on both sides.
	NoOp Decision = "NoOp"
	// UploadLocal: local created/modified, remote absent or unmodified.
	UploadLocal Decision = "UploadLocal"
	// DownloadRemote: remote created/modified, local absent or unmodified.
	DownloadRemote Decision = "DownloadRemote"
	// CreateLocal: exists only remotely.
	CreateLocal Decision = "CreateLocal"
	// CreateRemote: exists only locally.
	CreateRemote Decision = "CreateRemote"
	// Conflict: changed independently on both sides; requires resolution.
	Conflict Decision = "Conflict"
	// Ignored: matched an exclusion pattern.
	Ignored Decision = "Ignored"
)

// Resolution is an operator's answer for a conflicting path.
type Resolution string

const (
	KeepLocal  Resolution = "local"
	KeepRemote Resolution = "remote"
	SkipPath   Resolution = "skip"
)

// Operation is one path's planned action together with the evidence that
// produced it.
type Operation struct {
	Path       string
	Decision   Decision
	Local      *FileEntry
	Remote     *FileEntry
	Resolution Resolution // set by the resolver for former conflicts
}
