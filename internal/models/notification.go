package models

type NotificationType string

const (
	NotificationExercisePublished   NotificationType = "exercise.published"
	NotificationSubmissionEvaluated NotificationType = "submission.evaluated"
	NotificationAssignmentGraded    NotificationType = "assignment.graded"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)
