// internal/app/system/limits/limits.go
package limits

// Size limits for inbound payloads. These bounds keep a single client
// from exhausting memory; oversized input is rejected, not truncated.
const (
	// MaxIngestMessage is the largest TCP ingest message the server will
	// read. One read = one message on the wire, so this is also the
	// receive buffer size. The original deployment used a 4 KiB buffer;
	// 64 KiB leaves room for large batches while staying an explicit,
	// documented bound.
	MaxIngestMessage = 64 << 10 // 64 KiB

	// MaxFacadeBody is the maximum size for JSON bodies on the HTTP facade.
	MaxFacadeBody = 1 << 20 // 1 MB
)
