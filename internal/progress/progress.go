// Package progress derives topic and challenge unlock state from the
// topics, challenges and progress records returned by the API.
//
// Everything here is pure: no I/O and no mutation of the inputs. Order is
// taken from the Position field, which the API client stamps from array
// order, so the backend's response order stays authoritative for gating.
//
// Completion counts challenges, not records: several completed records for
// the same challenge count once, so a topic never passes 100 percent.
package progress

import (
	"errors"
	"math"
	"sort"

	"edufinanzas/internal/models"
)

// UnlockThreshold is the completion percentage a topic needs before the
// next topic opens.
const UnlockThreshold = 80

var (
	ErrChallengeLocked    = errors.New("challenge is locked")
	ErrChallengeCompleted = errors.New("challenge already completed")
	ErrInsufficientCoins  = errors.New("not enough coins")
)

// ChallengeView is the gating state of one challenge
type ChallengeView struct {
	Challenge models.Challenge
	Index     int
	Available bool
	Completed bool
}

// Locked is the inverse of Available
func (v ChallengeView) Locked() bool {
	return !v.Available
}

// Playable reports whether the challenge can be started now
func (v ChallengeView) Playable() bool {
	return v.Available && !v.Completed
}

// TopicView is the progress summary of one topic
type TopicView struct {
	Topic      models.Topic
	Total      int
	Completed  int
	Percentage int
	Unlocked   bool
}

// IsComplete reports whether every challenge of the topic is done
func (v TopicView) IsComplete() bool {
	return v.Total > 0 && v.Percentage == 100
}

// ChallengeAvailability computes the state of the challenge at index within
// the ordered challenges of its topic.
func ChallengeAvailability(challenge models.Challenge, index int, ordered []models.Challenge, records []models.ProgressRecord) ChallengeView {
	view := ChallengeView{
		Challenge: challenge,
		Index:     index,
		Completed: isCompleted(challenge.ID, records),
	}
	if index == 0 {
		view.Available = true
		return view
	}
	if index > 0 && index-1 < len(ordered) {
		view.Available = isCompleted(ordered[index-1].ID, records)
	}
	return view
}

// ChallengeViews evaluates every challenge of an already ordered list
func ChallengeViews(ordered []models.Challenge, records []models.ProgressRecord) []ChallengeView {
	views := make([]ChallengeView, len(ordered))
	for i, c := range ordered {
		views[i] = ChallengeAvailability(c, i, ordered, records)
	}
	return views
}

// ChallengesOfTopic returns the challenges owned by topicID, ordered by Position
func ChallengesOfTopic(topicID int64, challenges []models.Challenge) []models.Challenge {
	var out []models.Challenge
	for _, c := range challenges {
		if c.TopicID == topicID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

// TopicProgress computes completion and unlock state for every topic, left
// to right. Each topic's unlock depends on the already computed percentage of
// its predecessor, so the pass is sequential.
func TopicProgress(topics []models.Topic, challenges []models.Challenge, records []models.ProgressRecord) []TopicView {
	ordered := make([]models.Topic, len(topics))
	copy(ordered, topics)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	completed := completedSet(records)
	views := make([]TopicView, 0, len(ordered))

	for i, topic := range ordered {
		own := ChallengesOfTopic(topic.ID, challenges)

		done := 0
		for _, c := range own {
			if completed[c.ID] {
				done++
			}
		}

		view := TopicView{
			Topic:      topic,
			Total:      len(own),
			Completed:  done,
			Percentage: percentage(done, len(own)),
		}
		if i == 0 {
			view.Unlocked = true
		} else {
			view.Unlocked = views[i-1].Percentage >= UnlockThreshold
		}
		views = append(views, view)
	}
	return views
}

// TopicProgressByID indexes the result of TopicProgress by topic ID
func TopicProgressByID(views []TopicView) map[int64]TopicView {
	out := make(map[int64]TopicView, len(views))
	for _, v := range views {
		out[v.Topic.ID] = v
	}
	return out
}

// CheckStart reports why a challenge cannot be started, or nil
func CheckStart(view ChallengeView, balance int) error {
	if !view.Available {
		return ErrChallengeLocked
	}
	if view.Completed {
		return ErrChallengeCompleted
	}
	if balance < view.Challenge.Cost {
		return ErrInsufficientCoins
	}
	return nil
}

func percentage(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

func isCompleted(challengeID int64, records []models.ProgressRecord) bool {
	for _, r := range records {
		if r.ChallengeID == challengeID && r.Completed {
			return true
		}
	}
	return false
}

// completedSet collapses duplicate records so a challenge counts once
func completedSet(records []models.ProgressRecord) map[int64]bool {
	set := make(map[int64]bool, len(records))
	for _, r := range records {
		if r.Completed {
			set[r.ChallengeID] = true
		}
	}
	return set
}
