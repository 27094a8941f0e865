package models

// SequenceTopics stamps each topic with its array position
func SequenceTopics(topics []Topic) []Topic {
	for i := range topics {
		topics[i].Position = i
	}
	return topics
}

// SequenceChallenges stamps each challenge with its position among the
// challenges of the same topic, preserving array order.
func SequenceChallenges(challenges []Challenge) []Challenge {
	next := make(map[int64]int)
	for i := range challenges {
		topicID := challenges[i].TopicID
		challenges[i].Position = next[topicID]
		next[topicID]++
	}
	return challenges
}
