package config

const (
	// MaxProgramNameLength is the maximum length for program names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxProgramNameLength = 255

	// MaxLessonNameLength is the maximum length for lesson names.
	MaxLessonNameLength = 255

	// MaxContentTitleLength is the maximum length for content titles.
	MaxContentTitleLength = 255

	// MaxClassroomNameLength is the maximum length for classroom names.
	MaxClassroomNameLength = 255

	// MaxStudentNameLength is the maximum length for student display names.
	MaxStudentNameLength = 100

	// MaxLevelLength bounds proficiency level labels such as "A2" or "beginner".
	MaxLevelLength = 50

	// MaxStudentNumberLength bounds school-issued student numbers.
	MaxStudentNumberLength = 50

	// MaxDescriptionLength caps free-text descriptions on programs.
	MaxDescriptionLength = 2000

	// BufferPercentage is the grace allowance on top of a points balance.
	// Usage may exceed total points by this share before deductions are
	// rejected.
	BufferPercentage = 20

	// WarningThresholdPercentage is the usage share at which a balance
	// is reported as "warning".
	WarningThresholdPercentage = 80

	// MaxUsageLogPageSize bounds a single page of usage log results.
	MaxUsageLogPageSize = 100

	// DefaultUsageLogPageSize is used when the caller gives no limit.
	DefaultUsageLogPageSize = 20
)
