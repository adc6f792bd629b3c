package mqtt

import (
	"fmt"
	"strings"
)

// DefaultPrefix is the topic root used when no --mqtt-prefix is given.
const DefaultPrefix = "devicecontrols"

// Topics builds the bridge's topic names under a prefix.
//
//	<prefix>/catalog        retained catalog
//	<prefix>/command/<id>   inbound actions
//	<prefix>/state/<id>     retained applied state
//	<prefix>/ack/<id>       acknowledgement per command
type Topics struct {
	Prefix string
}

// NewTopics returns Topics for prefix, trimming slashes and falling back to DefaultPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{Prefix: prefix}
}

// Catalog returns the retained catalog topic.
func (t Topics) Catalog() string {
	return t.Prefix + "/catalog"
}

// State returns the retained state topic for id.
func (t Topics) State(id string) string {
	return fmt.Sprintf("%s/state/%s", t.Prefix, id)
}

// Command returns the command topic for id.
func (t Topics) Command(id string) string {
	return fmt.Sprintf("%s/command/%s", t.Prefix, id)
}

// CommandWildcard matches commands for every device.
func (t Topics) CommandWildcard() string {
	return t.Prefix + "/command/+"
}

// Ack returns the acknowledgement topic for id.
func (t Topics) Ack(id string) string {
	return fmt.Sprintf("%s/ack/%s", t.Prefix, id)
}

// CommandDevice extracts the device id from a command topic.
func (t Topics) CommandDevice(topic string) (string, error) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/command/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", fmt.Errorf("%w: %q is not a command topic", ErrInvalidTopic, topic)
	}
	return rest, nil
}
