package contracts

// Standard event types for the platform. The type string is also the topic
// routing key, so subscribers can bind with wildcard patterns like "course.*".
const (
	// Auth events
	UserRegistered = "user.registered"
	UserLoggedIn   = "user.logged_in"

	// Course events
	CourseCreated     = "course.created"
	CourseEnrolled    = "course.enrolled"
	CourseCompleted   = "course.completed"
	LessonCompleted   = "lesson.completed"
	EnrollmentCreated = "enrollment.created"
	ProgressUpdated   = "progress.updated"

	// Challenge events
	ChallengeStarted   = "challenge.started"
	ChallengeCompleted = "challenge.completed"
	ChallengeFailed    = "challenge.failed"

	// Gamification events
	PointsEarned  = "gamification.points_earned"
	BadgeEarned   = "gamification.badge_earned"
	StreakUpdated = "gamification.streak_updated"
)
