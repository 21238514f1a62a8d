package dto

// UploadFileMetadata is one element of the optional metadata form field: an
// ordered list zipped with the uploaded files. A client-supplied id keeps the
// file identity stable across re-uploads.
type UploadFileMetadata struct {
	Name       string `json:"name"`
	FolderPath string `json:"folderPath"`
	Id         string `json:"id"`
}

type UploadResponse struct {
	FileId     string `json:"file_id"`
	Filename   string `json:"filename"`
	FolderPath string `json:"folder_path,omitempty"`
	Chunks     int    `json:"chunks"`
}

// UploadBatchResponse reports every file in a multipart upload. Files that
// could not be indexed are listed as skipped instead of failing the batch.
type UploadBatchResponse struct {
	Indexed []UploadResponse `json:"indexed"`
	Skipped []SkippedFileDTO `json:"skipped,omitempty"`
}

type SkippedFileDTO struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

type FileDTO struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	FolderPath string `json:"folder_path,omitempty"`
}

type FolderDTO struct {
	Id    string    `json:"id"`
	Name  string    `json:"name"`
	Files []FileDTO `json:"files"`
}

type MetadataResponse struct {
	Files   []FileDTO   `json:"files"`
	Folders []FolderDTO `json:"folders"`
}
