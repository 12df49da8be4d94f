package reminder

import (
	"fmt"
	"strings"

	"kratzbaum/internal/model"
	"kratzbaum/internal/notifier"
)

// ComposeMessage builds the notification for a due reminder. linkBase, when
// set, turns the link absolute and points it at the plant.
func ComposeMessage(p model.Plant, t model.ReminderType, linkBase string) notifier.Message {
	link := "/plants"
	if base := strings.TrimRight(strings.TrimSpace(linkBase), "/"); base != "" {
		link = base + "/plants/" + p.ID
	}
	return notifier.Message{
		Title: fmt.Sprintf("Time to %s %s", t.Verb(), p.Name),
		Body:  fmt.Sprintf("Your plant %s needs %s!", p.Name, t.Gerund()),
		Link:  link,
	}
}
