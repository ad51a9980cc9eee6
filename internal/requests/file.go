package requests

// UploadFileRequest carries the optional metadata fields of a multipart upload
type UploadFileRequest struct {
	Name    string `form:"name" json:"name" validate:"omitempty,max=255"`
	Comment string `form:"comment" json:"comment" validate:"omitempty,max=2000"`
}

// UpdateFileRequest is a partial update; nil fields keep their prior value
type UpdateFileRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// ListFilesRequest holds pagination parameters for file listing
type ListFilesRequest struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}
