package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSchedge serves a fixed subjects listing and one course per subject.
type fakeSchedge struct {
	mu       sync.Mutex
	requests []string
}

func (f *fakeSchedge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL.RequestURI())
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/subjects":
		_, _ = w.Write([]byte(`{
			"UA": {"CSCI": {"name": "Computer Science"}, "MATH": {"name": "Mathematics"}},
			"GY": {"CS": {"name": "Computer Science"}}
		}`))
	case "/2021/fa/UA/CSCI":
		_, _ = w.Write([]byte(`[{"name": "Intro to CS"}, {"name": "Data Structures"}]`))
	case "/2021/fa/UA/MATH":
		_, _ = w.Write([]byte(`[]`))
	case "/2021/fa/GY/CS":
		_, _ = w.Write([]byte(`null`))
	default:
		http.NotFound(w, r)
	}
}

func TestClientSubjects(t *testing.T) {
	srv := httptest.NewServer(&fakeSchedge{})
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second, nil)
	subjects, err := client.Subjects(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"GY", "UA"}, subjects.Schools())
	assert.Equal(t, []string{"CSCI", "MATH"}, subjects.Codes("UA"))
	assert.Equal(t, 3, subjects.Count())
}

func TestClientFetchCourses(t *testing.T) {
	fake := &fakeSchedge{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	subjects, err := client.Subjects(context.Background())
	require.NoError(t, err)

	var seen []string
	courses, err := client.FetchCourses(context.Background(), 2021, "fa", subjects, func(school, code string, done, total int) {
		assert.Equal(t, 3, total)
		assert.Equal(t, len(seen), done)
		seen = append(seen, school+"/"+code)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"GY/CS", "UA/CSCI", "UA/MATH"}, seen)
	require.Len(t, courses, 2)

	var first map[string]string
	require.NoError(t, json.Unmarshal(courses[0], &first))
	assert.Equal(t, "Intro to CS", first["name"])

	assert.Contains(t, fake.requests, "/2021/fa/UA/CSCI?full=true")
}

func TestClientFetchCoursesFiltered(t *testing.T) {
	srv := httptest.NewServer(&fakeSchedge{})
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	subjects, err := client.Subjects(context.Background())
	require.NoError(t, err)

	ua, err := subjects.Filter([]string{"UA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"UA"}, ua.Schools())

	_, err = subjects.Filter([]string{"XX"})
	assert.ErrorIs(t, err, ErrUnknownSchool)
}

func TestClientFetchCoursesErrors(t *testing.T) {
	srv := httptest.NewServer(&fakeSchedge{})
	defer srv.Close()
	client := NewClient(srv.URL, time.Second, nil)

	_, err := client.FetchCourses(context.Background(), 2021, "wi", Subjects{}, nil)
	assert.ErrorIs(t, err, ErrUnknownSemester)

	// Spring is not served by the fake, so the first subject 404s.
	subjects := Subjects{"UA": {"CSCI": json.RawMessage(`{}`)}}
	_, err = client.FetchCourses(context.Background(), 2021, "sp", subjects, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.FetchCourses(ctx, 2021, "fa", subjects, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
