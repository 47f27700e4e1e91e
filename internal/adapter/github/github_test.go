package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbridge/internal/domain"
	"toolbridge/internal/infra/config"
)

func testConfig(baseURL string) config.GitHubConfig {
	return config.GitHubConfig{
		BaseURL:     baseURL,
		Token:       "test-token",
		Username:    "octocat",
		CallTimeout: 5 * time.Second,
		Retry: config.RetryConfig{
			MaxRateLimitRetries: 2,
			MaxTransientRetries: 2,
			BaseBackoff:         time.Millisecond,
			MaxBackoff:          4 * time.Millisecond,
			MaxRateLimitWait:    time.Second,
		},
	}
}

func testExecutor(t *testing.T, handler http.Handler) (*Executor, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	e := NewExecutor(testConfig(srv.URL), config.LimitsConfig{MaxPageSize: 100},
		slog.New(slog.DiscardHandler))
	return e, srv
}

func TestGetRepositoryInfo(t *testing.T) {
	var gotAuth, gotAccept string
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		assert.Equal(t, "/repos/octocat/hello", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"name":             "hello",
			"full_name":        "octocat/hello",
			"html_url":         "https://github.com/octocat/hello",
			"stargazers_count": 42,
			"license":          map[string]any{"name": "MIT License"},
			"owner":            map[string]any{"login": "octocat", "type": "User"},
		})
	}))

	out, err := e.GetRepositoryInfo(context.Background(), RepositoryInfoArgs{Owner: "octocat", Repo: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "token test-token", gotAuth)
	assert.Equal(t, acceptHeader, gotAccept)

	payload := out.(map[string]any)
	assert.Equal(t, "octocat/hello", payload["repository"])
	data := payload["data"].(map[string]any)
	assert.Equal(t, "hello", data["name"])
	assert.Equal(t, float64(42), data["stars"])
	assert.Equal(t, "MIT License", data["license"])
}

func TestListIssuesSkipsPullRequestsAndTruncates(t *testing.T) {
	long := make([]rune, 600)
	for i := range long {
		long[i] = 'x'
	}
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"number": 1, "title": "real issue", "body": string(long), "state": "open",
				"user": map[string]any{"login": "alice"}},
			{"number": 2, "title": "sneaky pr", "state": "open",
				"pull_request": map[string]any{"url": "..."}},
		})
	}))

	out, err := e.ListIssues(context.Background(), ListIssuesArgs{Owner: "o", Repo: "r"})
	require.NoError(t, err)

	payload := out.(map[string]any)
	issues := payload["issues"].([]map[string]any)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, payload["count"])
	assert.Equal(t, "alice", issues[0]["user"])

	body := issues[0]["body"].(string)
	assert.Len(t, []rune(body), maxIssueBody+3)
	assert.Equal(t, "...", body[len(body)-3:])
}

func TestGetContentsDecodesSmallFiles(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte("package main\n"))
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		json.NewEncoder(w).Encode(map[string]any{
			"name": "main.go", "path": "main.go", "type": "file",
			"size": 13, "encoding": "base64", "content": content,
		})
	}))

	out, err := e.GetContents(context.Background(), ContentsArgs{Owner: "o", Repo: "r", Path: "main.go", Ref: "main"})
	require.NoError(t, err)

	payload := out.(map[string]any)
	assert.Equal(t, "file", payload["type"])
	file := payload["file"].(map[string]any)
	assert.Equal(t, "package main\n", file["content"])
}

func TestGetContentsLeavesLargeFilesEncoded(t *testing.T) {
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"name": "blob.bin", "type": "file",
			"size": 2 << 20, "encoding": "base64", "content": "aGk=",
		})
	}))

	out, err := e.GetContents(context.Background(), ContentsArgs{Owner: "o", Repo: "r", Path: "blob.bin"})
	require.NoError(t, err)

	file := out.(map[string]any)["file"].(map[string]any)
	_, present := file["content"]
	assert.False(t, present)
}

func TestGetContentsDirectoryListing(t *testing.T) {
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"name": "README.md", "path": "README.md", "type": "file", "size": 10},
			{"name": "src", "path": "src", "type": "dir"},
		})
	}))

	out, err := e.GetContents(context.Background(), ContentsArgs{Owner: "o", Repo: "r"})
	require.NoError(t, err)

	payload := out.(map[string]any)
	assert.Equal(t, "directory", payload["type"])
	assert.Equal(t, "/", payload["path"])
	assert.Len(t, payload["contents"], 2)
}

func TestListBranchesReportsNextPage(t *testing.T) {
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		w.Header().Set("Link", `<http://`+r.Host+`/repos/o/r/branches?per_page=50&page=3>; rel="next", <...>; rel="last"`)
		json.NewEncoder(w).Encode([]map[string]any{
			{"name": "main", "commit": map[string]any{"sha": "abc"}, "protected": true},
		})
	}))

	out, err := e.ListBranches(context.Background(), ListBranchesArgs{Owner: "o", Repo: "r", PerPage: 50, Page: 2})
	require.NoError(t, err)

	payload := out.(map[string]any)
	assert.Equal(t, 3, payload["next_page"])
	branches := payload["branches"].([]map[string]any)
	require.Len(t, branches, 1)
	assert.Equal(t, "abc", branches[0]["sha"])
}

func TestPerPageCapped(t *testing.T) {
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		json.NewEncoder(w).Encode([]map[string]any{})
	}))

	_, err := e.ListRepositories(context.Background(), ListRepositoriesArgs{Owner: "o", PerPage: 500})
	require.NoError(t, err)
}

func TestCreateIssueRequiresToken(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.Token = ""
	e := NewExecutor(cfg, config.LimitsConfig{MaxPageSize: 100}, slog.New(slog.DiscardHandler))

	_, err := e.CreateIssue(context.Background(), CreateIssueArgs{Owner: "o", Repo: "r", Title: "t"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthInvalid))
}

func TestCreateIssuePostsBody(t *testing.T) {
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "crash on start", body["title"])
		assert.Equal(t, []any{"bug"}, body["labels"])
		_, hasAssignees := body["assignees"]
		assert.False(t, hasAssignees)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"number": 7, "title": "crash on start", "state": "open",
			"user": map[string]any{"login": "octocat"},
		})
	}))

	out, err := e.CreateIssue(context.Background(), CreateIssueArgs{
		Owner: "o", Repo: "r", Title: "crash on start", Labels: []string{"bug"},
	})
	require.NoError(t, err)

	issue := out.(map[string]any)["issue"].(map[string]any)
	assert.Equal(t, float64(7), issue["number"])
}

func TestRateLimitedThenSuccess(t *testing.T) {
	var calls atomic.Int32
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix(), 10))
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{"message": "API rate limit exceeded"})
			return
		}
		w.Header().Set("X-RateLimit-Remaining", "4999")
		json.NewEncoder(w).Encode(map[string]any{"login": "alice"})
	}))

	var backoffs int
	e.gov.sleep = func(ctx context.Context, d time.Duration) error {
		backoffs++
		return nil
	}

	out, err := e.GetUserInfo(context.Background(), UserInfoArgs{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, backoffs)
	assert.Equal(t, "alice", out.(map[string]any)["user"].(map[string]any)["login"])
}

func TestRateLimitRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{"message": "slow down"})
	}))
	e.gov.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	_, err := e.GetUserInfo(context.Background(), UserInfoArgs{Username: "alice"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	// initial attempt plus MaxRateLimitRetries
	assert.Equal(t, int32(3), calls.Load())
}

func TestQuotaWaitCeiling(t *testing.T) {
	var calls atomic.Int32
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		json.NewEncoder(w).Encode(map[string]any{"login": "alice"})
	}))

	// First call succeeds but leaves the quota empty with a reset an hour out.
	_, err := e.GetUserInfo(context.Background(), UserInfoArgs{Username: "alice"})
	require.NoError(t, err)

	// Second call must fail fast instead of sleeping for an hour.
	_, err = e.GetUserInfo(context.Background(), UserInfoArgs{Username: "alice"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	assert.Equal(t, int32(1), calls.Load())
}

func TestServerErrorsRetriedThenTransient(t *testing.T) {
	var calls atomic.Int32
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	e.gov.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	_, err := e.GetUserInfo(context.Background(), UserInfoArgs{Username: "alice"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransient))
	assert.Equal(t, int32(3), calls.Load())
}

func TestNotFoundIsFatalAndNotRetried(t *testing.T) {
	var calls atomic.Int32
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"message": "Not Found"})
	}))

	_, err := e.GetRepositoryInfo(context.Background(), RepositoryInfoArgs{Owner: "o", Repo: "gone"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(err, domain.ErrFatal))
	assert.Equal(t, int32(1), calls.Load())
}

func TestUnauthorizedMapsToAuthInvalid(t *testing.T) {
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "Bad credentials"})
	}))

	_, err := e.GetAuthenticatedUser(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthInvalid))
	assert.Contains(t, err.Error(), "Bad credentials")
}

func TestGetPullRequestReviews(t *testing.T) {
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/o/r/pulls/42/reviews", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "state": "APPROVED", "body": "lgtm",
				"user": map[string]any{"login": "alice"}, "commit_id": "abc"},
			{"id": 2, "state": "CHANGES_REQUESTED",
				"user": map[string]any{"login": "bob"}},
		})
	}))

	out, err := e.GetPullRequestReviews(context.Background(),
		PullRequestReviewsArgs{Owner: "o", Repo: "r", PullNumber: 42})
	require.NoError(t, err)

	payload := out.(map[string]any)
	assert.Equal(t, 42, payload["pull_number"])
	reviews := payload["reviews"].([]map[string]any)
	require.Len(t, reviews, 2)
	assert.Equal(t, "alice", reviews[0]["user"])
	assert.Equal(t, "APPROVED", reviews[0]["state"])
}

func TestCreatePullRequestReviewDefaultsToComment(t *testing.T) {
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/o/r/pulls/7/reviews", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "COMMENT", body["event"])
		comments := body["comments"].([]any)
		require.Len(t, comments, 1)
		assert.Equal(t, "main.go", comments[0].(map[string]any)["path"])

		json.NewEncoder(w).Encode(map[string]any{
			"id": 9, "state": "COMMENTED",
			"user": map[string]any{"login": "octocat"},
		})
	}))

	out, err := e.CreatePullRequestReview(context.Background(), CreatePullRequestReviewArgs{
		Owner: "o", Repo: "r", PullNumber: 7,
		Comments: []ReviewDraftComment{{Path: "main.go", Line: 3, Body: "nit"}},
	})
	require.NoError(t, err)

	review := out.(map[string]any)["review"].(map[string]any)
	assert.Equal(t, "octocat", review["user"])
}

func TestGetPullRequestReviewComments(t *testing.T) {
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/o/r/pulls/42/comments", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 10, "body": "use errors.Is here", "path": "main.go", "line": 14,
				"side": "RIGHT", "user": map[string]any{"login": "alice"}},
		})
	}))

	out, err := e.GetPullRequestReviewComments(context.Background(),
		PullRequestReviewsArgs{Owner: "o", Repo: "r", PullNumber: 42})
	require.NoError(t, err)

	payload := out.(map[string]any)
	comments := payload["comments"].([]map[string]any)
	require.Len(t, comments, 1)
	assert.Equal(t, "main.go", comments[0]["path"])
	assert.Equal(t, "alice", comments[0]["user"])
}

func TestCreateReviewCommentRequiresToken(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.Token = ""
	e := NewExecutor(cfg, config.LimitsConfig{MaxPageSize: 100}, slog.New(slog.DiscardHandler))

	_, err := e.CreatePullRequestReviewComment(context.Background(), CreateReviewCommentArgs{
		Owner: "o", Repo: "r", PullNumber: 1, Body: "b", CommitID: "abc", Path: "f.go",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthInvalid))
}

func TestCreateReviewCommentDefaultsSide(t *testing.T) {
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "RIGHT", body["side"])
		assert.Equal(t, float64(12), body["line"])
		json.NewEncoder(w).Encode(map[string]any{
			"id": 3, "body": "b", "path": "f.go",
			"user": map[string]any{"login": "octocat"},
		})
	}))

	out, err := e.CreatePullRequestReviewComment(context.Background(), CreateReviewCommentArgs{
		Owner: "o", Repo: "r", PullNumber: 1, Body: "b", CommitID: "abc", Path: "f.go", Line: 12,
	})
	require.NoError(t, err)

	comment := out.(map[string]any)["comment"].(map[string]any)
	assert.Equal(t, "f.go", comment["path"])
}

func TestUpdateReviewCommentPatchesBody(t *testing.T) {
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/repos/o/r/pulls/comments/5", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "edited", body["body"])
		json.NewEncoder(w).Encode(map[string]any{
			"id": 5, "body": "edited",
			"user": map[string]any{"login": "octocat"},
		})
	}))

	out, err := e.UpdatePullRequestReviewComment(context.Background(), UpdateReviewCommentArgs{
		Owner: "o", Repo: "r", CommentID: 5, Body: "edited",
	})
	require.NoError(t, err)

	comment := out.(map[string]any)["comment"].(map[string]any)
	assert.Equal(t, "edited", comment["body"])
}

func TestDeleteReviewComment(t *testing.T) {
	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/repos/o/r/pulls/comments/8", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	out, err := e.DeletePullRequestReviewComment(context.Background(), DeleteReviewCommentArgs{
		Owner: "o", Repo: "r", CommentID: 8,
	})
	require.NoError(t, err)

	payload := out.(map[string]any)
	assert.Equal(t, true, payload["deleted"])
	assert.Equal(t, 8, payload["comment_id"])
}

func TestPaginationWalksToExhaustion(t *testing.T) {
	// Five branches at two per page: three pages, the last with no
	// next cursor.
	all := []string{"main", "dev", "feat-a", "feat-b", "hotfix"}
	const perPage = 2

	e, _ := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			var err error
			page, err = strconv.Atoi(p)
			require.NoError(t, err)
		}
		lo := (page - 1) * perPage
		hi := lo + perPage
		if hi > len(all) {
			hi = len(all)
		}
		if hi < len(all) {
			w.Header().Set("Link",
				`<http://`+r.Host+`/repos/o/r/branches?per_page=2&page=`+strconv.Itoa(page+1)+`>; rel="next"`)
		}
		out := make([]map[string]any, 0, perPage)
		for _, name := range all[lo:hi] {
			out = append(out, map[string]any{"name": name, "commit": map[string]any{"sha": name + "-sha"}})
		}
		json.NewEncoder(w).Encode(out)
	}))

	var got []string
	page, pages := 1, 0
	for {
		pages++
		out, err := e.ListBranches(context.Background(),
			ListBranchesArgs{Owner: "o", Repo: "r", PerPage: perPage, Page: page})
		require.NoError(t, err)

		payload := out.(map[string]any)
		for _, b := range payload["branches"].([]map[string]any) {
			got = append(got, b["name"].(string))
		}
		next, more := payload["next_page"]
		if !more {
			break
		}
		page = next.(int)
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, all, got)
}

func TestNextPageParsing(t *testing.T) {
	cases := []struct {
		name string
		link string
		want int
	}{
		{"empty", "", 0},
		{"next present", `<https://api.github.com/user/repos?page=3&per_page=100>; rel="next", <https://api.github.com/user/repos?page=50>; rel="last"`, 3},
		{"last page", `<https://api.github.com/user/repos?page=1>; rel="first", <https://api.github.com/user/repos?page=1>; rel="prev"`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextPage(tc.link))
		})
	}
}
