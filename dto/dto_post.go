package dto

type CreatePostRequest struct {
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	Published *bool    `json:"published"` // omitted -> published
}

type UpdatePostRequest struct {
	Body      *string  `json:"body"`
	Tags      []string `json:"tags"`
	Published *bool    `json:"published"`
}

type CreateCommentRequest struct {
	Text string `json:"text"`
}
