// Package mqtt defines the broker publishing contract used to mirror record
// changes to external consumers.
package mqtt

// Publisher sends a payload to a broker topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}
