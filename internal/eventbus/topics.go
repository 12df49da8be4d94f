package eventbus

// Event types published by kratzbaum components.
const (
	ReminderCreated   = "reminder.created"
	ReminderUpdated   = "reminder.updated"
	ReminderDeleted   = "reminder.deleted"
	ReminderSnoozed   = "reminder.snoozed"
	ReminderCompleted = "reminder.completed"
	ReminderNotified  = "reminder.notified"

	SweepCompleted = "sweep.completed"

	NotifierSent   = "notifier.sent"
	NotifierFailed = "notifier.failed"

	JobFinished = "job.finished"

	ConfigReload = "config.reload"
)
