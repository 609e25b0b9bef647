// internal/app/system/limits/limits.go
package limits

// Request body size limits for the API.
const (
	// MaxJSONBody caps a JSON request body. Comment text and descriptions
	// are far below it.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxAttachmentUpload caps one multipart attachment upload, multipart
	// overhead included.
	MaxAttachmentUpload = 25 << 20 // 25 MB
)
