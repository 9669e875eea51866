package torrentio

// Stream represents one ranked torrent option from torrentio. The response
// order encodes relevance and is preserved end to end.
type Stream struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	InfoHash string `json:"infoHash"`
	FileIdx  int    `json:"fileIdx"`
}

// StreamsResponse represents the torrentio stream listing response
type StreamsResponse struct {
	Streams []Stream `json:"streams"`
}
