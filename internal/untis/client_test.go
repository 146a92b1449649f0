package untis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stundenapp/stundenapp-back/internal/models"
)

// rpcServer fakes the upstream JSON-RPC endpoint with canned per-method
// responses.
func rpcServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp, ok := responses[req.Method]
		if !ok {
			t.Fatalf("unexpected method %q", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(resp)); err != nil {
			t.Fatal(err)
		}
	}))
}

func testCreds(server string) Credentials {
	return Credentials{Username: "maria", Secret: "geheim", Server: server, School: "testschule"}
}

func TestLoginSuccess(t *testing.T) {
	srv := rpcServer(t, map[string]string{
		"authenticate": `{"id":"authenticate","result":{"sessionId":"abc123","personType":5,"personId":42}}`,
	})
	defer srv.Close()

	session, err := NewClient().Login(context.Background(), testCreds(srv.URL))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session == nil {
		t.Fatal("Login returned nil session")
	}
}

func TestLoginRejected(t *testing.T) {
	srv := rpcServer(t, map[string]string{
		"authenticate": `{"id":"authenticate","error":{"code":-8504,"message":"bad credentials"}}`,
	})
	defer srv.Close()

	_, err := NewClient().Login(context.Background(), testCreds(srv.URL))
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("Login error = %v, want ErrAuth", err)
	}
}

func TestTimetableNoResultQuirk(t *testing.T) {
	srv := rpcServer(t, map[string]string{
		"authenticate": `{"id":"authenticate","result":{"sessionId":"abc123"}}`,
		"getTimetable": `{"id":"getTimetable","error":{"code":-1,"message":"no result"}}`,
	})
	defer srv.Close()

	session, err := NewClient().Login(context.Background(), testCreds(srv.URL))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err = session.Timetable(context.Background(), Class{ID: 1}, time.Now(), time.Now())
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("Timetable error = %v, want ErrNoResult", err)
	}
}

func TestLatestImportVersion(t *testing.T) {
	srv := rpcServer(t, map[string]string{
		"authenticate":        `{"id":"authenticate","result":{"sessionId":"abc123"}}`,
		"getLatestImportTime": `{"id":"getLatestImportTime","result":1709992800000}`,
	})
	defer srv.Close()

	session, err := NewClient().Login(context.Background(), testCreds(srv.URL))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	version, err := session.LatestImportVersion(context.Background())
	if err != nil {
		t.Fatalf("LatestImportVersion: %v", err)
	}
	if version != 1709992800000 {
		t.Errorf("version = %d, want 1709992800000", version)
	}
}

func TestTimetableMapsPeriods(t *testing.T) {
	srv := rpcServer(t, map[string]string{
		"authenticate": `{"id":"authenticate","result":{"sessionId":"abc123"}}`,
		"getTimetable": `{"id":"getTimetable","result":[
			{"id":7001,"date":20240310,"startTime":945,"endTime":1030,"code":"cancelled",
			 "su":[{"id":3,"name":"M","longname":"Mathematik"}],
			 "te":[{"id":9,"name":"MUE","longname":"Müller"}],
			 "ro":[{"id":2,"name":"R12","longname":"Raum 12"}],
			 "lstext":"Vertretung"},
			{"id":7002,"date":20240310,"startTime":1040,"endTime":1125}
		]}`,
	})
	defer srv.Close()

	session, err := NewClient().Login(context.Background(), testCreds(srv.URL))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	class := Class{ID: 2267, Name: "Klasse 10b", ShortName: "10b"}
	lessons, err := session.Timetable(context.Background(), class, time.Now(), time.Now())
	if err != nil {
		t.Fatalf("Timetable: %v", err)
	}
	if len(lessons) != 2 {
		t.Fatalf("got %d lessons, want 2", len(lessons))
	}

	first := lessons[0]
	if first.ID != 7001 {
		t.Errorf("ID = %d, want 7001", first.ID)
	}
	if first.Status != models.StatusCancelled {
		t.Errorf("Status = %q, want cancelled", first.Status)
	}
	if first.CourseNr != 2267 || first.CourseShortName != "10b" {
		t.Errorf("course linkage = %d/%q", first.CourseNr, first.CourseShortName)
	}
	if first.Subject != "Mathematik" || first.ShortSubject != "M" {
		t.Errorf("subject = %q/%q", first.Subject, first.ShortSubject)
	}
	if first.StartTime.Hour() != 9 || first.StartTime.Minute() != 45 {
		t.Errorf("start = %v", first.StartTime)
	}
	if !first.StartTime.Before(first.EndTime) {
		t.Errorf("start %v not before end %v", first.StartTime, first.EndTime)
	}

	// absent upstream fields fall back to the placeholder
	second := lessons[1]
	if second.Subject != models.Placeholder || second.Teacher != models.Placeholder || second.Room != models.Placeholder {
		t.Errorf("placeholders missing: %q %q %q", second.Subject, second.Teacher, second.Room)
	}
	if second.Status != models.StatusRegular {
		t.Errorf("Status = %q, want regular", second.Status)
	}
}

func TestEndpointURL(t *testing.T) {
	got := endpointURL(Credentials{Server: "neilo.webuntis.com", School: "gym-x"})
	want := "https://neilo.webuntis.com/WebUntis/jsonrpc.do?school=gym-x"
	if got != want {
		t.Errorf("endpointURL = %q, want %q", got, want)
	}
	if !strings.HasPrefix(endpointURL(Credentials{Server: "http://localhost:1"}), "http://localhost:1") {
		t.Error("explicit scheme must be kept")
	}
}
