package models

import "time"

// LessonStatus mirrors the upstream period code.
type LessonStatus string

const (
	StatusRegular   LessonStatus = "regular"
	StatusCancelled LessonStatus = "cancelled"
	StatusIrregular LessonStatus = "irregular"
)

// Placeholder is stored for text fields the upstream leaves empty.
const Placeholder = "-"

// Lesson is one scheduled period instance. The ID is assigned by the
// upstream provider and stays stable across refreshes, so re-fetching a
// class+day is an upsert, never a duplicate insert.
type Lesson struct {
	ID        int64        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	StartTime time.Time    `gorm:"not null;index" json:"start_time"`
	EndTime   time.Time    `gorm:"not null" json:"end_time"`
	Status    LessonStatus `gorm:"not null;default:regular;index" json:"status"`

	CourseNr        int    `gorm:"not null;index" json:"course_nr"`
	CourseName      string `json:"course_name"`
	CourseShortName string `json:"course_short_name"`

	Subject      string `json:"subject"`
	ShortSubject string `json:"short_subject"`
	Teacher      string `json:"teacher"`
	ShortTeacher string `json:"short_teacher"`
	Room         string `json:"room"`
	ShortRoom    string `json:"short_room"`

	LessonText       string `json:"lesson_text"`
	Info             string `json:"info"`
	SubstitutionText string `json:"substitution_text"`
	Remark           string `json:"remark"`
}

// DisplaySubject prefers the long subject name and falls back to the
// short form when the upstream only delivered that one.
func (l Lesson) DisplaySubject() string {
	if l.Subject != "" && l.Subject != Placeholder {
		return l.Subject
	}
	return l.ShortSubject
}

// ImportWatermark records the last upstream import version applied to one
// calendar day. Day is formatted as "2006-01-02". VersionUnknown marks a
// day that was never synced.
type ImportWatermark struct {
	Day     string `gorm:"primaryKey;size:10"`
	Version int64  `gorm:"not null"`
}

// VersionUnknown is the watermark sentinel for a never-synced day.
const VersionUnknown int64 = -1

// CancellationNotice is the duplicate-suppression record for the
// cancellation sweep: one row per lesson we already notified about.
type CancellationNotice struct {
	LessonID   int64     `gorm:"primaryKey;autoIncrement:false" json:"lesson_id"`
	NoticeID   string    `gorm:"size:36" json:"notice_id"`
	CourseKey  string    `json:"course_key"`
	Subject    string    `json:"subject"`
	StartTime  time.Time `json:"start_time"`
	NotifiedAt time.Time `json:"notified_at"`
}

// User holds the account glue this core needs: the upstream login it syncs
// with and the delivery addresses notifications go to.
type User struct {
	ID       uint   `gorm:"primaryKey"`
	Username string `gorm:"uniqueIndex;not null"`

	// EncryptedSecret is the upstream password, sealed with the server-side
	// credential key. Never exposed over the API.
	EncryptedSecret string `gorm:"not null"`

	PrimaryCourseNr   int
	SecondaryCourseNr int

	TelegramChatID string
	Email          string
	WebhookURL     string

	Courses []UserCourse `gorm:"foreignKey:UserID"`
}

// UserCourse subscribes a user to one course key: either a numeric class id
// or a short-subject token. Used both for the timetable query and for
// resolving notification recipients.
type UserCourse struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	CourseKey string `gorm:"not null"`
	Notify    bool   `gorm:"not null;default:true"`

	User User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
