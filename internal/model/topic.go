package model

import "github.com/rs/zerolog/log"

// AnyTopic is a placeholder meaning "pick any of the supported topics".
const AnyTopic = "any"

// Topics is the list of valid topics. Must be synchronized with the
// front-end manually.
var Topics = []string{"aws", "css", "general", "js-ts", "rust"}

// TopicNames maps topic IDs to their display names, index-aligned with Topics.
var TopicNames = []string{"AWS", "CSS", "General Knowledge", "JS/TS", "Rust"}

// IsValidTopic reports whether the topic is in the supported list.
func IsValidTopic(topic string) bool {
	for _, t := range Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// TopicName returns the display name for a topic ID, or an empty string
// if the topic is unknown.
func TopicName(topic string) string {
	for i, t := range Topics {
		if t == topic {
			return TopicNames[i]
		}
	}
	return ""
}

// FilterValidTopics returns only valid topics from the given list.
func FilterValidTopics(topics []string) []string {
	if len(topics) == 0 {
		log.Info().Msg("No topics provided")
		return topics
	}

	valid := make([]string, 0, len(topics))
	for _, t := range topics {
		if IsValidTopic(t) {
			valid = append(valid, t)
		} else {
			log.Info().Str("topic", t).Msg("Invalid topic")
		}
	}
	return valid
}
