package untis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stundenapp/stundenapp-back/internal/models"
)

var (
	// ErrAuth means the upstream rejected the login credentials.
	ErrAuth = errors.New("untis: authentication rejected")

	// ErrNoResult is the upstream quirk where "no lessons in range" comes
	// back as an RPC error instead of an empty list. Callers treat it as
	// success with zero records.
	ErrNoResult = errors.New("untis: no result")
)

// upstream error code for rejected credentials
const codeBadCredentials = -8504

// Opener opens authenticated upstream sessions.
type Opener interface {
	Login(ctx context.Context, creds Credentials) (UserSession, error)
}

// UserSession is one logged-in upstream session. Sessions are opened per
// logical operation and closed with Logout; they are not shared between
// concurrent operations.
type UserSession interface {
	LatestImportVersion(ctx context.Context) (int64, error)
	Classes(ctx context.Context) ([]Class, error)
	Timetable(ctx context.Context, class Class, from, to time.Time) ([]models.Lesson, error)
	Logout(ctx context.Context) error
}

// Client talks to a WebUntis-style JSON-RPC endpoint.
type Client struct {
	httpClient *http.Client
	clientName string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		clientName: "stundenapp",
	}
}

// Session implements UserSession over one JSESSIONID cookie.
type Session struct {
	client    *Client
	endpoint  string
	sessionID string
}

func endpointURL(creds Credentials) string {
	server := strings.TrimRight(creds.Server, "/")
	if !strings.HasPrefix(server, "http") {
		server = "https://" + server
	}
	return fmt.Sprintf("%s/WebUntis/jsonrpc.do?school=%s", server, creds.School)
}

// Login authenticates against the upstream and returns a live session.
func (c *Client) Login(ctx context.Context, creds Credentials) (UserSession, error) {
	endpoint := endpointURL(creds)

	params := map[string]string{
		"user":     creds.Username,
		"password": creds.Secret,
		"client":   c.clientName,
	}
	raw, err := c.call(ctx, endpoint, "", "authenticate", params)
	if err != nil {
		return nil, err
	}

	var auth authResult
	if err := json.Unmarshal(raw, &auth); err != nil {
		return nil, fmt.Errorf("decode authenticate result: %w", err)
	}
	if auth.SessionID == "" {
		return nil, ErrAuth
	}

	return &Session{client: c, endpoint: endpoint, sessionID: auth.SessionID}, nil
}

// LatestImportVersion probes the upstream data revision counter. The value
// is monotonically increasing; a higher number means the timetable data was
// re-imported since we last looked.
func (s *Session) LatestImportVersion(ctx context.Context) (int64, error) {
	raw, err := s.client.call(ctx, s.endpoint, s.sessionID, "getLatestImportTime", map[string]string{})
	if err != nil {
		return 0, err
	}
	var version int64
	if err := json.Unmarshal(raw, &version); err != nil {
		return 0, fmt.Errorf("decode import version: %w", err)
	}
	return version, nil
}

// Classes fetches the full class list of the school.
func (s *Session) Classes(ctx context.Context) ([]Class, error) {
	raw, err := s.client.call(ctx, s.endpoint, s.sessionID, "getKlassen", map[string]string{})
	if err != nil {
		return nil, err
	}
	var classes []Class
	if err := json.Unmarshal(raw, &classes); err != nil {
		return nil, fmt.Errorf("decode class list: %w", err)
	}
	return classes, nil
}

// Timetable fetches all periods of one class in [from, to] and maps them to
// lesson records at this boundary. Returns ErrNoResult when the upstream
// signals its empty-range quirk.
func (s *Session) Timetable(ctx context.Context, class Class, from, to time.Time) ([]models.Lesson, error) {
	params := timetableParams{
		ID:        class.ID,
		Type:      1,
		StartDate: EncodeDate(from),
		EndDate:   EncodeDate(to),
	}
	raw, err := s.client.call(ctx, s.endpoint, s.sessionID, "getTimetable", params)
	if err != nil {
		return nil, err
	}

	var periods []period
	if err := json.Unmarshal(raw, &periods); err != nil {
		return nil, fmt.Errorf("decode timetable: %w", err)
	}

	lessons := make([]models.Lesson, 0, len(periods))
	for _, p := range periods {
		lessons = append(lessons, p.toLesson(class.ID, class.Name, class.ShortName))
	}
	return lessons, nil
}

// Logout closes the upstream session. Best effort: an expired session is
// not worth an error to the caller.
func (s *Session) Logout(ctx context.Context) error {
	_, err := s.client.call(ctx, s.endpoint, s.sessionID, "logout", map[string]string{})
	return err
}

func (c *Client) call(ctx context.Context, endpoint, sessionID, method string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		ID:      method,
		Method:  method,
		Params:  params,
		JSONRPC: "2.0",
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: sessionID})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: bad status: %s", method, resp.Status)
	}

	var rpc rpcResponse
	if err := json.Unmarshal(data, &rpc); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}
	if rpc.Error != nil {
		if strings.EqualFold(rpc.Error.Message, "no result") {
			return nil, ErrNoResult
		}
		if rpc.Error.Code == codeBadCredentials {
			return nil, ErrAuth
		}
		return nil, fmt.Errorf("%s: upstream error %d: %s", method, rpc.Error.Code, rpc.Error.Message)
	}
	return rpc.Result, nil
}
