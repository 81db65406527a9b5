package domain

// StreamChunk is one increment from the analyze stream. Text carries the
// total accumulated payload so far; Err aborts the stream.
type StreamChunk struct {
	Text string
	Err  error
}

// ImageData holds a client-side image attachment. Raw bytes go to the
// backend base64-encoded; LocalRef is a client-local reference only.
type ImageData struct {
	MimeType string
	Data     []byte
	LocalRef string
}

type AnalyzeRequest struct {
	Question         string
	History          []ChatMessage
	SelectedAgentIDs []string
	ResponseMode     ResponseMode
	UserProfile      UserProfile
	Image            *ImageData
}

type SummarizeRequest struct {
	History          []ChatMessage
	SelectedAgentIDs []string
	UserProfile      UserProfile
}
