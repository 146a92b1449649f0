package untis

import (
	"encoding/json"

	"github.com/stundenapp/stundenapp-back/internal/models"
)

// Credentials opens one upstream session. Secret is the already-decrypted
// password; decryption is the auth layer's job, not ours.
type Credentials struct {
	Username string
	Secret   string
	Server   string
	School   string
}

// Class is one entry of the upstream class list.
type Class struct {
	ID        int    `json:"id"`
	Name      string `json:"longName"`
	ShortName string `json:"name"`
}

type rpcRequest struct {
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	JSONRPC string      `json:"jsonrpc"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type authResult struct {
	SessionID  string `json:"sessionId"`
	PersonType int    `json:"personType"`
	PersonID   int    `json:"personId"`
}

type timetableParams struct {
	ID        int `json:"id"`
	Type      int `json:"type"`
	StartDate int `json:"startDate"`
	EndDate   int `json:"endDate"`
}

// element is one entry of a period's kl/su/te/ro lists.
type element struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	LongName string `json:"longname"`
}

// period is the upstream timetable row. Every field except id/date/times is
// optional; toLesson fills the documented placeholder for anything absent.
type period struct {
	ID        int64     `json:"id"`
	Date      int       `json:"date"`
	StartTime int       `json:"startTime"`
	EndTime   int       `json:"endTime"`
	Code      string    `json:"code"`
	Classes   []element `json:"kl"`
	Subjects  []element `json:"su"`
	Teachers  []element `json:"te"`
	Rooms     []element `json:"ro"`
	LessonTxt string    `json:"lstext"`
	Info      string    `json:"info"`
	SubstText string    `json:"substText"`
	Remark    string    `json:"bkRemark"`
}

func statusFromCode(code string) models.LessonStatus {
	switch code {
	case "cancelled":
		return models.StatusCancelled
	case "irregular":
		return models.StatusIrregular
	default:
		return models.StatusRegular
	}
}

func orPlaceholder(s string) string {
	if s == "" {
		return models.Placeholder
	}
	return s
}

// toLesson maps one upstream period onto our lesson record. classID is the
// class the fetch was issued for; the upstream repeats it inside kl but not
// reliably, so the request-side id wins.
func (p period) toLesson(classID int, className, classShort string) models.Lesson {
	l := models.Lesson{
		ID:              p.ID,
		StartTime:       DecodeTime(p.Date, p.StartTime),
		EndTime:         DecodeTime(p.Date, p.EndTime),
		Status:          statusFromCode(p.Code),
		CourseNr:        classID,
		CourseName:      orPlaceholder(className),
		CourseShortName: orPlaceholder(classShort),

		LessonText:       orPlaceholder(p.LessonTxt),
		Info:             orPlaceholder(p.Info),
		SubstitutionText: orPlaceholder(p.SubstText),
		Remark:           orPlaceholder(p.Remark),
	}

	l.Subject, l.ShortSubject = firstNames(p.Subjects)
	l.Teacher, l.ShortTeacher = firstNames(p.Teachers)
	l.Room, l.ShortRoom = firstNames(p.Rooms)
	return l
}

func firstNames(els []element) (long, short string) {
	if len(els) == 0 {
		return models.Placeholder, models.Placeholder
	}
	return orPlaceholder(els[0].LongName), orPlaceholder(els[0].Name)
}
