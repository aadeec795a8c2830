package headhunter

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
)

const resumeJSON = `{
  "id": "abc",
  "title": "Go Developer",
  "first_name": "Ivan",
  "middle_name": "",
  "last_name": "Petrov",
  "area": {"id": "1", "name": "Moscow"},
  "skills": "<p>Backend developer.</p><p>Built billing for 3 million users.</p>",
  "skill_set": ["Go", "PostgreSQL", "Kubernetes"],
  "contact": [
    {"type": {"id": "cell"}, "value": {"country": "7", "formatted": "+7 (999) 123-45-67"}},
    {"type": {"id": "email"}, "value": "ivan@example.com"}
  ],
  "site": [{"type": {"id": "linkedin"}, "url": "https://linkedin.com/in/ivan"}],
  "experience": [
    {
      "company": "Acme",
      "position": "Senior Go Developer",
      "start": "2021-03-01",
      "end": null,
      "description": "<ul><li>Reduced latency by 40%</li><li>Led a team of 5</li></ul>",
      "area": {"name": "Moscow"}
    },
    {
      "company": "Globex",
      "position": "Go Developer",
      "start": "2018-01-01",
      "end": "2021-02-01",
      "description": "Payments"
    }
  ],
  "education": {
    "level": {"id": "higher", "name": "Higher"},
    "primary": [{"name": "MSU", "organization": "CMC", "result": "Applied Mathematics", "year": 2017}]
  },
  "certificate": [{"title": "CKA", "achieved_at": "2022-05-01", "owner": "CNCF"}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(zap.NewNop(), "secret")
	c.APIURL = srv.URL
	c.HTTPClient = srv.Client()
	return c
}

func TestGetMineResumesFollowsPages(t *testing.T) {
	var (
		mu    sync.Mutex
		pages []string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resumes/mine" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		page := r.URL.Query().Get("page")
		mu.Lock()
		pages = append(pages, page)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch page {
		case "":
			_, _ = w.Write([]byte(`{"items":[{"id":"1","title":"Go Developer"}],"pages":2,"page":0,"per_page":1}`))
		case "1":
			_, _ = w.Write([]byte(`{"items":[{"id":"2","title":"SRE"}],"pages":2,"page":1,"per_page":1}`))
		default:
			t.Errorf("unexpected page %q", page)
		}
	})

	resumes, err := c.GetMineResumes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(pages, []string{"", "1"}) {
		t.Fatalf("unexpected pages requested: %v", pages)
	}
	if resumes.Len() != 2 {
		t.Fatalf("expected 2 resumes, got %d", resumes.Len())
	}
	if !reflect.DeepEqual(resumes.Titles(), []string{"Go Developer", "SRE"}) {
		t.Fatalf("unexpected titles: %v", resumes.Titles())
	}
	if r := resumes.FindByTitle("SRE"); r == nil || r.ID != "2" {
		t.Fatalf("expected to find SRE resume, got %+v", r)
	}
	if resumes.FindByTitle("Designer") != nil {
		t.Fatalf("did not expect a match for unknown title")
	}
}

func TestGetResumeCVDecodesGzip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resumes/abc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(resumeJSON))
		_ = gz.Close()
	})

	parsed, err := c.GetResumeCV(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.PersonalInfo.Name != "Ivan Petrov" {
		t.Fatalf("unexpected name %q", parsed.PersonalInfo.Name)
	}
}

func TestGetResumeCVBadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.GetResumeCV(context.Background(), "abc")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected bad status error, got %v", err)
	}

	if _, err := c.GetResumeCV(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestResumeToCV(t *testing.T) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(resumeJSON), &raw); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	c, err := ResumeToCV(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info := c.PersonalInfo
	if info.Email != "ivan@example.com" || info.Phone != "+7 (999) 123-45-67" {
		t.Fatalf("unexpected contacts: %+v", info)
	}
	if info.Location != "Moscow" || info.LinkedIn != "https://linkedin.com/in/ivan" {
		t.Fatalf("unexpected location or linkedin: %+v", info)
	}
	if c.Summary != "Backend developer.\nBuilt billing for 3 million users." {
		t.Fatalf("unexpected summary %q", c.Summary)
	}
	if got := c.Skills.Normalize().All; !reflect.DeepEqual(got, []string{"Go", "PostgreSQL", "Kubernetes"}) {
		t.Fatalf("unexpected skills: %v", got)
	}

	if len(c.Experience) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(c.Experience))
	}
	current := c.Experience[0]
	if !current.Current || current.StartDate != "2021-03" || current.EndDate != "" {
		t.Fatalf("unexpected current position: %+v", current)
	}
	if current.Description != "Reduced latency by 40%\nLed a team of 5" {
		t.Fatalf("unexpected description %q", current.Description)
	}
	past := c.Experience[1]
	if past.Current || past.EndDate != "2021-02" || past.Title != "Go Developer" {
		t.Fatalf("unexpected past position: %+v", past)
	}

	if len(c.Education) != 1 {
		t.Fatalf("expected 1 education entry, got %d", len(c.Education))
	}
	edu := c.Education[0]
	if edu.Institution != "MSU" || edu.Degree != "Higher" || edu.Field != "Applied Mathematics" || edu.EndDate != "2017" {
		t.Fatalf("unexpected education: %+v", edu)
	}

	if len(c.Certifications) != 1 || c.Certifications[0].Date != "2022-05" {
		t.Fatalf("unexpected certifications: %+v", c.Certifications)
	}
}

func TestResumeToCVEmpty(t *testing.T) {
	c, err := ResumeToCV(map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.PersonalInfo.Name != "" || len(c.Experience) != 0 {
		t.Fatalf("expected empty cv, got %+v", c)
	}
}

func TestGetVacancyPosting(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vacancies/123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"id": "123",
			"name": " Data Engineer ",
			"alternate_url": "https://hh.ru/vacancy/123",
			"employer": {"id": "9", "name": "Acme"},
			"description": "<p><strong>Tasks:</strong></p><ul><li>Build Kafka pipelines</li><li>Own Airflow DAGs</li></ul>",
			"key_skills": [{"name": "Python"}, {"name": " "}, {"name": "Kafka"}]
		}`))
	})

	v, err := c.GetVacancy(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	posting, err := v.Posting()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posting.Role != "Data Engineer" || posting.Employer != "Acme" {
		t.Fatalf("unexpected posting: %+v", posting)
	}
	if !reflect.DeepEqual(posting.Keywords, []string{"Python", "Kafka"}) {
		t.Fatalf("unexpected keywords: %v", posting.Keywords)
	}
	if posting.JobDescription != "Tasks:\nBuild Kafka pipelines\nOwn Airflow DAGs" {
		t.Fatalf("unexpected description %q", posting.JobDescription)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "blank", in: "  ", want: ""},
		{name: "plain", in: "just text", want: "just text"},
		{name: "breaks", in: "first<br>second<br/>third", want: "first\nsecond\nthird"},
		{name: "script removed", in: "<p>kept</p><script>alert(1)</script>", want: "kept"},
		{name: "lines trimmed", in: "<p>  a   b \n  c  </p>", want: "a b\nc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StripHTML(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
