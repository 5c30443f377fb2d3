// Package transfer implements the adaptive throttled backup/restore engine:
// the work queue, dispatcher, per-mode transfers, and tree walkers.
package transfer

import (
	"fmt"
	"strings"
)

// EncodePath percent-encodes each segment of a remote path independently,
// preserving "/" as the segment separator, and drops the leading "/" so the
// result can be appended directly to a base endpoint that ends in "/".
// Every byte outside the RFC 3986 unreserved set (ALPHA, DIGIT, "-", ".",
// "_", "~") is escaped.
func EncodePath(remotePath string) string {
	trimmed := strings.TrimPrefix(remotePath, "/")
	if trimmed == "" {
		return ""
	}

	segments := strings.Split(trimmed, "/")
	for i, seg := range segments {
		var b strings.Builder
		for j := 0; j < len(seg); j++ {
			c := seg[j]
			if 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' ||
				c == '-' || c == '.' || c == '_' || c == '~' {
				b.WriteByte(c)
			} else {
				fmt.Fprintf(&b, "%%%02X", c)
			}
		}
		segments[i] = b.String()
	}
	return strings.Join(segments, "/")
}

// JoinEndpoint joins a base endpoint (expected to end in "/") with a remote
// path, encoding each path segment.
func JoinEndpoint(baseEndpoint, remotePath string) string {
	base := strings.TrimSuffix(baseEndpoint, "/") + "/"
	return base + EncodePath(remotePath)
}

// IsFolder reports whether a remote path denotes a folder (trailing "/").
func IsFolder(remotePath string) bool {
	return strings.HasSuffix(remotePath, "/")
}

// ParentFolder returns the folder path containing remotePath. For "/a/b/c"
// it returns "/a/b/"; for "/a/b/" (already a folder) it returns "/a/".
func ParentFolder(remotePath string) string {
	trimmed := strings.TrimSuffix(remotePath, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return "/"
	}
	return trimmed[:idx+1]
}
