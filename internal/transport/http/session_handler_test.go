package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"mcq-studio/internal/app"
	"mcq-studio/internal/domain"
	"mcq-studio/internal/infra/memory"
	"mcq-studio/internal/workbook"
)

const primesCSV = "question,A,B,C,D,correct,multi\nWhich are primes?,2,4,5,9,\"A,C\",1\n2+2?,3,4,,,B,\n"

func newTestServer(t *testing.T, maxUpload int64) *httptest.Server {
	t.Helper()
	banks := memory.NewBankRepository(workbook.NewLoader(workbook.NewParser()), time.Minute)
	service := app.NewQuizService(memory.NewSessionStore(time.Hour), banks)
	server := httptest.NewServer(NewRouter(RouterConfig{
		Service:        service,
		Logger:         zerolog.Nop(),
		MaxUploadBytes: maxUpload,
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSessionRESTFlow(t *testing.T) {
	server := newTestServer(t, 0)

	var session sessionView
	doJSON(t, http.MethodPost, server.URL+"/sessions", nil, http.StatusCreated, &session)
	if session.ID == "" {
		t.Fatalf("expected a session id")
	}
	base := server.URL + "/sessions/" + session.ID

	var loaded sessionView
	upload(t, base+"/workbook", "bank.csv", primesCSV, http.StatusOK, &loaded)
	if len(loaded.Questions()) != 2 || loaded.Progress.Total != 2 {
		t.Fatalf("expected 2 questions, got %+v", loaded)
	}

	for _, key := range []string{"A", "c"} {
		body := map[string]string{"questionId": "1", "key": key}
		doJSON(t, http.MethodPost, base+"/selections", body, http.StatusOK, &loaded)
	}
	if loaded.Progress.Answered != 1 || loaded.Progress.Percent != 50 {
		t.Fatalf("expected half answered, got %+v", loaded.Progress)
	}

	var result resultView
	doJSON(t, http.MethodPost, base+"/submit", nil, http.StatusOK, &result)
	if result.Score != (domain.Score{CorrectCount: 1, Total: 2}) || result.Percent == nil || *result.Percent != 50 {
		t.Fatalf("unexpected result %+v", result)
	}

	doJSON(t, http.MethodPost, base+"/reset", nil, http.StatusOK, &loaded)
	if loaded.Progress.Answered != 0 || loaded.Submitted {
		t.Fatalf("expected reset session, got %+v", loaded)
	}

	doJSON(t, http.MethodDelete, base, nil, http.StatusNoContent, nil)
	doJSON(t, http.MethodGet, base, nil, http.StatusNotFound, nil)
}

func TestUploadErrorsMapToStatus(t *testing.T) {
	server := newTestServer(t, 1<<10)
	var session sessionView
	doJSON(t, http.MethodPost, server.URL+"/sessions", nil, http.StatusCreated, &session)
	base := server.URL + "/sessions/" + session.ID

	var body errorBody
	upload(t, base+"/workbook", "bad.csv", "question,A\nok,x\n,y\n", http.StatusUnprocessableEntity, &body)
	if body.Row != 3 {
		t.Fatalf("expected row 3, got %+v", body)
	}

	upload(t, base+"/workbook", "broken.xls", "whatever", http.StatusBadRequest, nil)
	upload(t, base+"/workbook", "huge.csv", string(bytes.Repeat([]byte("x"), 4<<10)), http.StatusRequestEntityTooLarge, nil)

	var state sessionView
	doJSON(t, http.MethodGet, base, nil, http.StatusOK, &state)
	if len(state.Questions()) != 0 || state.LoadError == "" {
		t.Fatalf("expected failed load to leave no questions, got %+v", state)
	}

	doJSON(t, http.MethodPost, base+"/submit", nil, http.StatusConflict, nil)
	doJSON(t, http.MethodPost, base+"/selections", map[string]string{"questionId": "1", "key": "Z"}, http.StatusBadRequest, nil)
}

func TestTemplatesRoundTrip(t *testing.T) {
	server := newTestServer(t, 0)
	for _, path := range []string{"/template.csv", "/template.xlsx"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		resp.Body.Close()

		rows, err := workbook.Read(domain.Upload{Name: path, Data: buf.Bytes()})
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		questions, err := workbook.NewParser().Parse(rows)
		if err != nil || len(questions) != 1 || !questions[0].AllowsMultiple {
			t.Fatalf("unexpected template %s: %+v, %v", path, questions, err)
		}
	}
}

func doJSON(t *testing.T, method, url string, body any, wantStatus int, out any) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &payload)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d", method, url, wantStatus, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
}

func upload(t *testing.T, url, name, content string, wantStatus int, out any) {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write([]byte(content))
	form.Close()

	resp, err := http.Post(url, form.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("upload %s: expected %d, got %d", name, wantStatus, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
}
