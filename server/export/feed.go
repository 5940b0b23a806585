package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"github.com/hrygo/studyplan/server/planner"
	"github.com/hrygo/studyplan/server/service/plan"
	"github.com/hrygo/studyplan/server/timezone"
)

// MaxFeedItems caps the sessions listed in a feed.
const MaxFeedItems = 50

// RSS renders the plan's upcoming sessions, pending and dated today or later,
// as an RSS feed. link is the public URL of the plan.
func RSS(p *plan.Plan, link string) (string, error) {
	loc, err := timezone.ParseTimezone(p.Timezone)
	if err != nil {
		loc = timezone.UTC
	}

	feed := &feeds.Feed{
		Title:       p.Name,
		Link:        &feeds.Link{Href: link},
		Description: fmt.Sprintf("Upcoming sessions until %s", timezone.FormatDate(p.Deadline)),
		Id:          p.UID,
		Created:     time.Unix(p.CreatedTs, 0).UTC(),
		Updated:     time.Unix(p.UpdatedTs, 0).UTC(),
	}

	for _, item := range Upcoming(p) {
		if len(feed.Items) == MaxFeedItems {
			break
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          fmt.Sprintf("%s-%d", p.UID, item.ID),
			Title:       feedTitle(item),
			Link:        &feeds.Link{Href: fmt.Sprintf("%s#session-%d", strings.TrimSuffix(link, "/"), item.ID)},
			Description: strings.TrimPrefix(agendaLine(item), "- [ ] "),
			Created:     timezone.StartOfDate(item.Date, loc),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return "", fmt.Errorf("failed to render feed: %w", err)
	}
	return rss, nil
}

// Upcoming returns the pending sessions dated on or after the plan's AsOf day.
func Upcoming(p *plan.Plan) []planner.ScheduleItem {
	var items []planner.ScheduleItem
	for _, item := range p.Schedule {
		if item.Completed || item.Date.Before(p.AsOf) {
			continue
		}
		items = append(items, item)
	}
	return items
}

func feedTitle(item planner.ScheduleItem) string {
	if item.Type == planner.SessionReview {
		return fmt.Sprintf("%s: review %d of %s", item.Date, item.ReviewCycle, item.SubjectName)
	}
	return fmt.Sprintf("%s: study %s", item.Date, item.SubjectName)
}
