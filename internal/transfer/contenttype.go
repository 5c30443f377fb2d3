package transfer

import (
	"mime"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

const octetStream = "application/octet-stream"

func init() {
	// The stdlib mime table is OS-dependent and doesn't reliably carry
	// calendar/contacts extensions used by this store's documents.
	_ = mime.AddExtensionType(".ics", "text/calendar")
	_ = mime.AddExtensionType(".vcf", "text/vcard")
}

// ResolveContentType implements the Restore content-type precedence:
// saved metadata beats magic-number sniffing beats extension lookup beats
// the generic fallback. metadataContentType may be empty.
func ResolveContentType(localPath, metadataContentType string) string {
	if metadataContentType != "" {
		return metadataContentType
	}

	if sniffed, ok := sniffContentType(localPath); ok {
		return sniffed
	}

	if ext := filepath.Ext(localPath); ext != "" {
		if guessed := mime.TypeByExtension(ext); guessed != "" {
			return guessed
		}
	}

	return octetStream
}

// sniffContentType reads the leading bytes of the file and returns a magic
// number-based guess. It never buffers the whole file.
func sniffContentType(localPath string) (string, bool) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", false
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil || mtype == nil {
		return "", false
	}

	// mimetype falls back to application/octet-stream itself when it can't
	// tell; treat that as "no signal" so extension lookup gets a chance.
	if mtype.String() == octetStream {
		return "", false
	}

	return mtype.String(), true
}
