package publisher

// Publisher mirrors accepted leads to an external stream so that other
// consumers can follow discoveries. Publishing is observability only: a
// failed publish is logged by the caller and never fails the crawl.
type Publisher interface {
	// Publish appends one message to the stream under the given key
	Publish(key string, message []byte) error

	// Trim trims the stream to its configured maximum length
	Trim() error

	// Close closes the publisher connection
	Close() error
}
