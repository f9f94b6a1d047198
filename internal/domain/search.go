package domain

// ResultType tags which table a search hit came from.
type ResultType string

const (
	ResultTypeChannel ResultType = "channel"
	ResultTypeThread  ResultType = "thread"
)

// SearchResult is an ephemeral similarity search hit. Similarity is
// 1 - cosineDistance in [0, 1]; higher is more similar. Exactly one of
// Channel and Thread is set, matching Type.
type SearchResult struct {
	Type       ResultType
	Similarity float64
	Channel    *Channel
	Thread     *Thread
}

// Stats holds aggregate counts over the knowledge base.
type Stats struct {
	TotalChannels         int
	ChannelsWithEmbedding int
	TotalThreads          int
	ThreadsWithEmbedding  int
	ThreadsByCategory     map[string]int
}
