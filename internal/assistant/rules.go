package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/capitalize-ai/voice-assistant/internal/model"
)

// Detail caps for spoken lists.
const (
	maxTasksListed    = 5
	maxMeetingsListed = 5
	maxMessagesListed = 3
	maxCallsListed    = 3
	maxChoicesOffered = 3
)

const (
	replyUnavailable = "Sorry, I'm having trouble reaching your data right now. Please try again in a moment."
	taskDescription  = "Created by voice assistant"
)

var (
	countWords   = []string{"how many", "number", "count"}
	detailWords  = []string{"show", "list", "open"}
	followUpRefs = []string{"that", "it", "them"}
)

func (r *Router) createTask(t *turn) string {
	d := ExtractTaskDetails(t.raw, t.now)
	if d.Title == "" {
		return `What should the task be? Try saying "add task" followed by what you need to do.`
	}

	ctx, cancel := r.call(t)
	defer cancel()

	task, err := t.gateway.CreateTask(ctx, model.NewTask{
		Title:       d.Title,
		Description: taskDescription,
		Priority:    d.Priority,
		DueDate:     d.DueDate,
	})
	if err != nil {
		r.gatewayFailure(t.ctx, "create_task", err)
		return "Sorry, I couldn't create that task. Please try again."
	}
	t.effect(EffectTaskCreated, task.ID)

	reply := fmt.Sprintf(`I've added the task "%s" with %s priority`, d.Title, d.Priority)
	if d.DueDate != nil {
		reply += ", due " + spokenDay(*d.DueDate, t.now)
	}
	return reply + "."
}

func (r *Router) removeTask(t *turn) string {
	keyword := stripKeyword(t.lower, taskRemoveRe)
	pending := t.data.PendingTasks()

	if keyword == "" {
		if len(pending) == 0 {
			return "You don't have any pending tasks to remove."
		}
		return fmt.Sprintf("Which task should I remove? Your pending tasks include %s.", taskChoices(pending))
	}

	for _, task := range pending {
		if !strings.Contains(strings.ToLower(task.Title), keyword) {
			continue
		}

		ctx, cancel := r.call(t)
		err := t.gateway.DeleteTask(ctx, task.ID)
		cancel()
		if err != nil {
			r.gatewayFailure(t.ctx, "delete_task", err)
			return "Sorry, I couldn't remove that task. Please try again."
		}
		t.effect(EffectTaskDeleted, task.ID)

		if strings.Contains(t.lower, "complete task") {
			return fmt.Sprintf(`Nice work. I've marked "%s" as done and taken it off your list.`, task.Title)
		}
		return fmt.Sprintf(`I've removed the task "%s".`, task.Title)
	}

	return fmt.Sprintf(`I couldn't find a pending task matching "%s". Could you be more specific?`, keyword)
}

func (r *Router) createMeeting(t *turn) string {
	d := ExtractMeetingDetails(t.raw, t.now)
	if d.Title == "" {
		return `What should I call the meeting? Try "schedule meeting" followed by a title and a time.`
	}

	ctx, cancel := r.call(t)
	defer cancel()

	meeting, err := t.gateway.CreateMeeting(ctx, model.NewMeeting{
		Title:     d.Title,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Attendees: []string{},
	})
	if err != nil {
		r.gatewayFailure(t.ctx, "create_meeting", err)
		return "Sorry, I couldn't schedule that meeting. Please try again."
	}
	t.effect(EffectMeetingCreated, meeting.ID)

	return fmt.Sprintf(`I've scheduled "%s" for %s at %s.`,
		d.Title, spokenDay(d.StartTime, t.now), spokenClock(d.StartTime, t.now))
}

func (r *Router) cancelMeeting(t *turn) string {
	keyword := stripKeyword(t.lower, meetingCancelRe)

	if keyword == "" {
		today := t.data.MeetingsOn(t.now)
		if len(today) == 0 {
			return "You don't have any meetings today to cancel."
		}
		return fmt.Sprintf("Which meeting should I cancel? Today you have %s.", r.meetingChoices(today, t.now, false))
	}

	for _, m := range t.data.UpcomingMeetings(t.now) {
		if !strings.Contains(strings.ToLower(m.Title), keyword) {
			continue
		}

		status := model.MeetingCancelled
		ctx, cancel := r.call(t)
		_, err := t.gateway.UpdateMeeting(ctx, m.ID, model.MeetingUpdate{Status: &status})
		cancel()
		if err != nil {
			r.gatewayFailure(t.ctx, "cancel_meeting", err)
			return "Sorry, I couldn't cancel that meeting. Please try again."
		}
		t.effect(EffectMeetingCancelled, m.ID)

		return fmt.Sprintf(`I've cancelled "%s" on %s at %s.`,
			m.Title, spokenDay(m.StartTime, t.now), spokenClock(m.StartTime, t.now))
	}

	return fmt.Sprintf(`I couldn't find an upcoming meeting matching "%s". Could you be more specific?`, keyword)
}

func matchFollowUp(t *turn) bool {
	if t.history.Len() == 0 {
		return false
	}
	return containsAny(t.lower, followUpRefs...)
}

// followUp resolves "that"/"it"/"them" against the most recent turn.
func (r *Router) followUp(t *turn) string {
	last, _ := t.history.Last()
	prev := strings.ToLower(last.UserInput + " " + last.AIResponse)

	switch {
	case strings.Contains(prev, "meeting"):
		switch {
		case containsAny(t.lower, "schedule", "book", "set up"):
			return fmt.Sprintf(`Sure. You have %s today. Say "schedule meeting" followed by a title and time, like "schedule meeting design review tomorrow at 2pm".`,
				plural(len(t.data.MeetingsOn(t.now)), "meeting"))
		case containsAny(t.lower, "cancel", "remove", "delete"):
			upcoming := t.data.UpcomingMeetings(t.now)
			if len(upcoming) == 0 {
				return "You don't have any upcoming meetings to cancel."
			}
			return fmt.Sprintf(`Which one should I cancel? Your upcoming meetings are %s. Say "cancel meeting" followed by its name.`,
				r.meetingChoices(upcoming, t.now, true))
		case containsAny(t.lower, "detail", "more", "when", "where", "who"):
			upcoming := t.data.UpcomingMeetings(t.now)
			if len(upcoming) == 0 {
				return "You don't have any upcoming meetings."
			}
			return describeMeeting(upcoming[0], t.now)
		}

	case strings.Contains(prev, "task"):
		switch {
		case containsAny(t.lower, "prioritize", "organize", "order", "first"):
			return prioritizeTasks(t.data.PendingTasks())
		case containsAny(t.lower, "complete", "done", "finish"):
			pending := t.data.PendingTasks()
			if len(pending) == 0 {
				return "You don't have any pending tasks right now."
			}
			return fmt.Sprintf(`Which one did you finish? Say "complete task" followed by its name. Pending tasks include %s.`, taskChoices(pending))
		}
	}

	return fmt.Sprintf(`Following up on "%s", could you tell me a bit more about what you'd like me to do?`, last.UserInput)
}

func (r *Router) queryTasks(t *turn) string {
	tasks := t.data.PendingTasks()
	scope := "pending %s"
	if strings.Contains(t.lower, "today") {
		tasks = t.data.PendingTasksDueOn(t.now)
		scope = "pending %s due today"
	}
	noun := func(n int) string { return fmt.Sprintf(scope, plural(n, "task")) }

	switch {
	case containsAny(t.lower, countWords...):
		return fmt.Sprintf("You have %s.", noun(len(tasks)))
	case containsAny(t.lower, detailWords...):
		if len(tasks) == 0 {
			return fmt.Sprintf("You have %s.", noun(0))
		}
		items := make([]string, 0, len(tasks))
		for _, task := range tasks {
			items = append(items, fmt.Sprintf("%s (%s priority)", task.Title, task.Priority))
		}
		return "Here are your tasks: " + capped(items, maxTasksListed) + "."
	default:
		return fmt.Sprintf(`You have %s. Say "show tasks" to hear them.`, noun(len(tasks)))
	}
}

func (r *Router) queryMeetings(t *turn) string {
	today := t.data.MeetingsOn(t.now)

	switch {
	case containsAny(t.lower, countWords...):
		return fmt.Sprintf("You have %s today.", plural(len(today), "meeting"))
	case containsAny(t.lower, detailWords...):
		if len(today) == 0 {
			return "You don't have any meetings today."
		}
		items := make([]string, 0, len(today))
		for _, m := range today {
			items = append(items, fmt.Sprintf("%s at %s", m.Title, spokenClock(m.StartTime, t.now)))
		}
		return "Today's meetings: " + capped(items, maxMeetingsListed) + "."
	default:
		return fmt.Sprintf(`You have %s today. Say "show meetings" to hear them.`, plural(len(today), "meeting"))
	}
}

func (r *Router) queryMessages(t *turn) string {
	unread := t.data.UnreadMessages()

	switch {
	case containsAny(t.lower, countWords...):
		return fmt.Sprintf("You have %s.", plural(len(unread), "unread message"))
	case containsAny(t.lower, detailWords...):
		if len(unread) == 0 {
			return "You don't have any unread messages."
		}
		items := make([]string, 0, len(unread))
		for _, m := range unread {
			items = append(items, fmt.Sprintf("from %s: %s", m.Sender, preview(m.Content, 60)))
		}
		return "Unread messages, " + capped(items, maxMessagesListed) + "."
	default:
		return fmt.Sprintf(`You have %s. Say "show messages" to hear them.`, plural(len(unread), "unread message"))
	}
}

func (r *Router) queryCalls(t *turn) string {
	missed := t.data.MissedCalls()

	switch {
	case containsAny(t.lower, countWords...):
		return fmt.Sprintf("You have %s.", plural(len(missed), "missed call"))
	case containsAny(t.lower, detailWords...):
		if len(missed) == 0 {
			return "You don't have any missed calls."
		}
		items := make([]string, 0, len(missed))
		for _, c := range missed {
			items = append(items, fmt.Sprintf("%s on %s at %s", c.Contact, spokenDay(c.CalledAt, t.now), spokenClock(c.CalledAt, t.now)))
		}
		return "Missed calls from " + capped(items, maxCallsListed) + "."
	default:
		return fmt.Sprintf(`You have %s. Say "show calls" to hear them.`, plural(len(missed), "missed call"))
	}
}

func (r *Router) help(t *turn) string {
	return fmt.Sprintf(`I can manage your tasks and meetings and check your messages and calls. Right now you have %s. `+
		`Try "add task", "remove task", "schedule meeting" or "cancel meeting", or ask "how many tasks".`,
		overview(t))
}

func (r *Router) fallback(t *turn) string {
	last, ok := t.history.Last()
	if !ok {
		return fmt.Sprintf(`I heard "%s". You have %s. Say "help" to hear what I can do.`, t.raw, overview(t))
	}

	prev := strings.ToLower(last.UserInput + " " + last.AIResponse)
	switch {
	case strings.Contains(prev, "meeting"):
		return fmt.Sprintf(`I heard "%s". Still on meetings? You have %s today. Try "show meetings" or "schedule meeting".`,
			t.raw, plural(len(t.data.MeetingsOn(t.now)), "meeting"))
	case strings.Contains(prev, "task"):
		return fmt.Sprintf(`I heard "%s". Still on tasks? You have %s. Try "show tasks" or "add task".`,
			t.raw, plural(len(t.data.PendingTasks()), "pending task"))
	default:
		return fmt.Sprintf(`I heard "%s". You have %s. Say "help" to hear what I can do.`, t.raw, overview(t))
	}
}

// overview summarizes the snapshot counts in one clause.
func overview(t *turn) string {
	return fmt.Sprintf("%s, %s today, %s and %s",
		plural(len(t.data.PendingTasks()), "pending task"),
		plural(len(t.data.MeetingsOn(t.now)), "meeting"),
		plural(len(t.data.UnreadMessages()), "unread message"),
		plural(len(t.data.MissedCalls()), "missed call"),
	)
}

func taskChoices(pending []model.Task) string {
	titles := make([]string, 0, maxChoicesOffered)
	for i, task := range pending {
		if i == maxChoicesOffered {
			break
		}
		titles = append(titles, task.Title)
	}
	return joinSpoken(titles)
}

func (r *Router) meetingChoices(meetings []model.Meeting, now time.Time, withDay bool) string {
	items := make([]string, 0, maxChoicesOffered)
	for i, m := range meetings {
		if i == maxChoicesOffered {
			break
		}
		if withDay {
			items = append(items, fmt.Sprintf("%s on %s at %s", m.Title, spokenDay(m.StartTime, now), spokenClock(m.StartTime, now)))
		} else {
			items = append(items, fmt.Sprintf("%s at %s", m.Title, spokenClock(m.StartTime, now)))
		}
	}
	return joinSpoken(items)
}

func describeMeeting(m model.Meeting, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Your next meeting is "%s" %s at %s`, m.Title, spokenDay(m.StartTime, now), spokenClock(m.StartTime, now))
	if m.Location != "" {
		fmt.Fprintf(&b, " in %s", m.Location)
	}
	if len(m.Attendees) > 0 {
		fmt.Fprintf(&b, " with %s", joinSpoken(m.Attendees))
	}
	b.WriteString(".")
	return b.String()
}

func prioritizeTasks(pending []model.Task) string {
	if len(pending) == 0 {
		return "You don't have any pending tasks to organize."
	}

	counts := map[model.Priority]int{}
	for _, t := range pending {
		counts[t.Priority]++
	}

	start := model.PriorityLow
	if counts[model.PriorityHigh] > 0 {
		start = model.PriorityHigh
	} else if counts[model.PriorityMedium] > 0 {
		start = model.PriorityMedium
	}

	return fmt.Sprintf("You have %s: %d high, %d medium and %d low priority. I'd start with the %s priority ones.",
		plural(len(pending), "pending task"),
		counts[model.PriorityHigh], counts[model.PriorityMedium], counts[model.PriorityLow], start)
}

// spokenDay renders t as "today" or a short month/day relative to now.
func spokenDay(t, now time.Time) string {
	if sameDay(t, now) {
		return "today"
	}
	return t.In(now.Location()).Format("Jan 2")
}

func spokenClock(t, now time.Time) string {
	return t.In(now.Location()).Format("3:04 PM")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// capped joins up to limit items, noting how many were left out.
func capped(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, "; ")
	}
	return fmt.Sprintf("%s; +%d more", strings.Join(items[:limit], "; "), len(items)-limit)
}

func joinSpoken(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

func preview(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return strings.TrimSpace(string(r[:max])) + "..."
}
