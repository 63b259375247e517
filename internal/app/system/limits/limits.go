// internal/app/system/limits/limits.go
package limits

// Request body size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size of a JSON request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxUploadBody is the default cap on a multipart upload request. The
	// upload_max_mb setting overrides it.
	MaxUploadBody = 10 << 20 // 10 MB
)
