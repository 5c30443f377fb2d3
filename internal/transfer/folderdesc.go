package transfer

// FolderDescription is the server's JSON body for a folder. Backup persists
// it verbatim as 000_folder-description.json; Restore reads it back to
// recover per-file metadata. Field names match the wire format exactly;
// only the fields declared here are decoded, so any other fields the server
// sent survive solely in the raw bytes Backup writes to disk.
type FolderDescription struct {
	Items map[string]FolderItemMetadata `json:"items"`
}

// FolderItemMetadata is the per-child metadata carried in a folder
// description's items map. Documents and subfolders share this shape;
// subfolders are distinguished by their key ending in "/".
type FolderItemMetadata struct {
	ETag          string `json:"ETag,omitempty"`
	ContentType   string `json:"Content-Type,omitempty"`
	ContentLength int64  `json:"Content-Length,omitempty"`
	LastModified  string `json:"Last-Modified,omitempty"`
}

// folderDescriptionFileName is the fixed name a folder's description is
// persisted under, inside that folder's own backing directory.
const folderDescriptionFileName = "000_folder-description.json"
