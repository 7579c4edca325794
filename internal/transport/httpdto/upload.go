package httpdto

// UploadResponse is returned by POST /api/upload
type UploadResponse struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
	Size     int64  `json:"size"`
}
