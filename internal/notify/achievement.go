package notify

import "github.com/where2dive/internal/achievement"

// EventAchievementUnlocked is the event type pushed after a successful unlock.
const EventAchievementUnlocked = "achievement_unlocked"

// UnlockedBadge is the toast payload for one achievement.
type UnlockedBadge struct {
	ID      string `json:"id"`
	Icon    string `json:"icon"`
	Title   string `json:"title"`
	TitleEn string `json:"titleEn"`
}

// UnlockEvent is the websocket message for newly unlocked achievements.
type UnlockEvent struct {
	Type         string          `json:"type"`
	Achievements []UnlockedBadge `json:"achievements"`
}

// AchievementNotifier adapts a Hub to achievement.Notifier.
type AchievementNotifier struct {
	hub     *Hub
	catalog *achievement.Catalog
}

func NewAchievementNotifier(hub *Hub, catalog *achievement.Catalog) *AchievementNotifier {
	return &AchievementNotifier{hub: hub, catalog: catalog}
}

// NotifyUnlocked sends one event listing the ids in evaluation order.
func (n *AchievementNotifier) NotifyUnlocked(userID uint, ids []string) {
	if n == nil || n.hub == nil || len(ids) == 0 {
		return
	}
	event := UnlockEvent{Type: EventAchievementUnlocked, Achievements: make([]UnlockedBadge, 0, len(ids))}
	for _, id := range ids {
		badge := UnlockedBadge{ID: id}
		if def, ok := n.catalog.Get(id); ok {
			badge.Icon = def.Icon
			badge.Title = def.Title
			badge.TitleEn = def.TitleEn
		}
		event.Achievements = append(event.Achievements, badge)
	}
	n.hub.Send(userID, event)
}
