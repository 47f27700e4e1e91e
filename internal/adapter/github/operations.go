package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"toolbridge/internal/domain"
	"toolbridge/internal/infra/config"
)

const (
	defaultPageSize = 30
	maxIssueBody    = 500     // runes kept from issue and PR bodies
	maxDecodeBytes  = 1 << 20 // file contents above this stay encoded
)

// Executor implements the GitHub-backed operations. All requests go
// through the Governor; payload shapes stay stable so downstream
// consumers can rely on them.
type Executor struct {
	gov     *Governor
	client  *Client
	maxPage int
	logger  *slog.Logger
}

// NewExecutor wires the REST client and governor together.
func NewExecutor(cfg config.GitHubConfig, limits config.LimitsConfig, logger *slog.Logger) *Executor {
	client := NewClient(cfg, logger)
	return &Executor{
		gov:     NewGovernor(client, cfg.Retry, logger),
		client:  client,
		maxPage: limits.MaxPageSize,
		logger:  logger,
	}
}

// obj gives nil-safe traversal of decoded JSON objects. Indexing a nil
// map is legal in Go, so missing intermediate objects read as nil fields.
type obj map[string]any

func (o obj) sub(key string) obj {
	m, _ := o[key].(map[string]any)
	return m
}

func decodeObject(body json.RawMessage) (obj, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, domain.NewDomainError("github", domain.ErrTransient, "malformed api response")
	}
	return m, nil
}

func decodeArray(body json.RawMessage) ([]obj, error) {
	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, domain.NewDomainError("github", domain.ErrTransient, "malformed api response")
	}
	items := make([]obj, len(raw))
	for i, m := range raw {
		items[i] = m
	}
	return items, nil
}

func (e *Executor) perPage(requested int) int {
	if requested <= 0 {
		return defaultPageSize
	}
	if requested > e.maxPage {
		return e.maxPage
	}
	return requested
}

func pageQuery(q url.Values, page, perPage int) url.Values {
	q.Set("per_page", strconv.Itoa(perPage))
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

func truncateBody(s string) string {
	r := []rune(s)
	if len(r) <= maxIssueBody {
		return s
	}
	return string(r[:maxIssueBody]) + "..."
}

func logins(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		m, _ := it.(map[string]any)
		if login, ok := m["login"].(string); ok {
			out = append(out, login)
		}
	}
	return out
}

func labelNames(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		m, _ := it.(map[string]any)
		if name, ok := m["name"].(string); ok {
			out = append(out, name)
		}
	}
	return out
}

func repoSummary(r obj) map[string]any {
	return map[string]any{
		"name":        r["name"],
		"full_name":   r["full_name"],
		"description": r["description"],
		"url":         r["html_url"],
		"language":    r["language"],
		"stars":       r["stargazers_count"],
		"forks":       r["forks_count"],
		"updated_at":  r["updated_at"],
		"private":     r["private"],
	}
}

func withNextPage(payload map[string]any, next int) map[string]any {
	if next > 0 {
		payload["next_page"] = next
	}
	return payload
}

// RepositoryInfoArgs identifies a single repository.
type RepositoryInfoArgs struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

func (e *Executor) GetRepositoryInfo(ctx context.Context, args RepositoryInfoArgs) (any, error) {
	res, err := e.gov.Do(ctx, http.MethodGet, fmt.Sprintf("repos/%s/%s", args.Owner, args.Repo), nil, nil)
	if err != nil {
		return nil, err
	}
	r, err := decodeObject(res.Body)
	if err != nil {
		return nil, err
	}

	var license any
	if l := r.sub("license"); l != nil {
		license = l["name"]
	}
	info := map[string]any{
		"name":           r["name"],
		"full_name":      r["full_name"],
		"description":    r["description"],
		"url":            r["html_url"],
		"clone_url":      r["clone_url"],
		"ssh_url":        r["ssh_url"],
		"language":       r["language"],
		"stars":          r["stargazers_count"],
		"forks":          r["forks_count"],
		"watchers":       r["watchers_count"],
		"open_issues":    r["open_issues_count"],
		"size":           r["size"],
		"default_branch": r["default_branch"],
		"created_at":     r["created_at"],
		"updated_at":     r["updated_at"],
		"pushed_at":      r["pushed_at"],
		"private":        r["private"],
		"archived":       r["archived"],
		"disabled":       r["disabled"],
		"topics":         r["topics"],
		"license":        license,
		"owner": map[string]any{
			"login": r.sub("owner")["login"],
			"type":  r.sub("owner")["type"],
			"url":   r.sub("owner")["html_url"],
		},
	}
	return map[string]any{
		"operation":  "get_repository_info",
		"repository": args.Owner + "/" + args.Repo,
		"data":       info,
	}, nil
}

// ListRepositoriesArgs selects repositories of a user or organization.
type ListRepositoriesArgs struct {
	Owner   string `json:"owner"`
	Type    string `json:"type"`
	PerPage int    `json:"per_page"`
	Page    int    `json:"page"`
}

func (e *Executor) ListRepositories(ctx context.Context, args ListRepositoriesArgs) (any, error) {
	repoType := args.Type
	if repoType == "" {
		repoType = "all"
	}
	q := url.Values{"type": {repoType}, "sort": {"updated"}}
	res, err := e.gov.Do(ctx, http.MethodGet, fmt.Sprintf("users/%s/repos", args.Owner),
		pageQuery(q, args.Page, e.perPage(args.PerPage)), nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(res.Body)
	if err != nil {
		return nil, err
	}

	repos := make([]map[string]any, 0, len(items))
	for _, r := range items {
		repos = append(repos, repoSummary(r))
	}
	return withNextPage(map[string]any{
		"operation":    "list_repositories",
		"owner":        args.Owner,
		"type":         repoType,
		"count":        len(repos),
		"repositories": repos,
	}, res.NextPage), nil
}

// ContentsArgs addresses a file or directory in a repository tree.
type ContentsArgs struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Path  string `json:"path"`
	Ref   string `json:"ref"`
}

func (e *Executor) GetContents(ctx context.Context, args ContentsArgs) (any, error) {
	q := url.Values{}
	if args.Ref != "" {
		q.Set("ref", args.Ref)
	}
	res, err := e.gov.Do(ctx, http.MethodGet,
		fmt.Sprintf("repos/%s/%s/contents/%s", args.Owner, args.Repo, args.Path), q, nil)
	if err != nil {
		return nil, err
	}

	// The endpoint answers with an array for directories and an object
	// for single files.
	if items, err := decodeArray(res.Body); err == nil {
		entries := make([]map[string]any, 0, len(items))
		for _, it := range items {
			entries = append(entries, map[string]any{
				"name":         it["name"],
				"path":         it["path"],
				"type":         it["type"],
				"size":         it["size"],
				"url":          it["html_url"],
				"download_url": it["download_url"],
			})
		}
		path := args.Path
		if path == "" {
			path = "/"
		}
		return map[string]any{
			"operation":  "get_contents",
			"repository": args.Owner + "/" + args.Repo,
			"path":       path,
			"type":       "directory",
			"contents":   entries,
		}, nil
	}

	file, err := decodeObject(res.Body)
	if err != nil {
		return nil, err
	}
	info := map[string]any{
		"name":         file["name"],
		"path":         file["path"],
		"type":         file["type"],
		"size":         file["size"],
		"encoding":     file["encoding"],
		"url":          file["html_url"],
		"download_url": file["download_url"],
	}
	if enc, _ := file["encoding"].(string); enc == "base64" {
		if size, _ := file["size"].(float64); size < maxDecodeBytes {
			raw, _ := file["content"].(string)
			if decoded, derr := base64.StdEncoding.DecodeString(stripNewlines(raw)); derr == nil {
				info["content"] = string(decoded)
			} else {
				info["content"] = "binary file or encoding error"
			}
		}
	}
	return map[string]any{
		"operation":  "get_contents",
		"repository": args.Owner + "/" + args.Repo,
		"path":       args.Path,
		"type":       "file",
		"file":       info,
	}, nil
}

// stripNewlines removes the line breaks GitHub inserts into base64 blobs.
func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// ListIssuesArgs filters a repository's issues.
type ListIssuesArgs struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	State   string `json:"state"`
	Labels  string `json:"labels"`
	PerPage int    `json:"per_page"`
	Page    int    `json:"page"`
}

func (e *Executor) ListIssues(ctx context.Context, args ListIssuesArgs) (any, error) {
	state := args.State
	if state == "" {
		state = "open"
	}
	q := url.Values{"state": {state}, "sort": {"updated"}}
	if args.Labels != "" {
		q.Set("labels", args.Labels)
	}
	res, err := e.gov.Do(ctx, http.MethodGet,
		fmt.Sprintf("repos/%s/%s/issues", args.Owner, args.Repo),
		pageQuery(q, args.Page, e.perPage(args.PerPage)), nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(res.Body)
	if err != nil {
		return nil, err
	}

	issues := make([]map[string]any, 0, len(items))
	for _, it := range items {
		// The issues endpoint also returns pull requests.
		if _, isPR := it["pull_request"]; isPR {
			continue
		}
		body, _ := it["body"].(string)
		issues = append(issues, map[string]any{
			"number":     it["number"],
			"title":      it["title"],
			"body":       truncateBody(body),
			"state":      it["state"],
			"user":       it.sub("user")["login"],
			"assignees":  logins(it["assignees"]),
			"labels":     labelNames(it["labels"]),
			"created_at": it["created_at"],
			"updated_at": it["updated_at"],
			"url":        it["html_url"],
			"comments":   it["comments"],
		})
	}
	return withNextPage(map[string]any{
		"operation":  "list_issues",
		"repository": args.Owner + "/" + args.Repo,
		"state":      state,
		"count":      len(issues),
		"issues":     issues,
	}, res.NextPage), nil
}

// CreateIssueArgs describes a new issue.
type CreateIssueArgs struct {
	Owner     string   `json:"owner"`
	Repo      string   `json:"repo"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Labels    []string `json:"labels"`
	Assignees []string `json:"assignees"`
}

func (e *Executor) CreateIssue(ctx context.Context, args CreateIssueArgs) (any, error) {
	if !e.client.Authenticated() {
		return nil, domain.NewDomainError("github.create_issue", domain.ErrAuthInvalid,
			"token required for creating issues")
	}
	payload := map[string]any{"title": args.Title}
	if args.Body != "" {
		payload["body"] = args.Body
	}
	if len(args.Labels) > 0 {
		payload["labels"] = args.Labels
	}
	if len(args.Assignees) > 0 {
		payload["assignees"] = args.Assignees
	}

	res, err := e.gov.Do(ctx, http.MethodPost,
		fmt.Sprintf("repos/%s/%s/issues", args.Owner, args.Repo), nil, payload)
	if err != nil {
		return nil, err
	}
	issue, err := decodeObject(res.Body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"operation":  "create_issue",
		"repository": args.Owner + "/" + args.Repo,
		"issue": map[string]any{
			"number":     issue["number"],
			"title":      issue["title"],
			"body":       issue["body"],
			"state":      issue["state"],
			"user":       issue.sub("user")["login"],
			"url":        issue["html_url"],
			"created_at": issue["created_at"],
		},
	}, nil
}

// ListPullRequestsArgs filters a repository's pull requests.
type ListPullRequestsArgs struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	State   string `json:"state"`
	PerPage int    `json:"per_page"`
	Page    int    `json:"page"`
}

func (e *Executor) ListPullRequests(ctx context.Context, args ListPullRequestsArgs) (any, error) {
	state := args.State
	if state == "" {
		state = "open"
	}
	q := url.Values{"state": {state}, "sort": {"updated"}}
	res, err := e.gov.Do(ctx, http.MethodGet,
		fmt.Sprintf("repos/%s/%s/pulls", args.Owner, args.Repo),
		pageQuery(q, args.Page, e.perPage(args.PerPage)), nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(res.Body)
	if err != nil {
		return nil, err
	}

	pulls := make([]map[string]any, 0, len(items))
	for _, pr := range items {
		body, _ := pr["body"].(string)
		pulls = append(pulls, map[string]any{
			"number": pr["number"],
			"title":  pr["title"],
			"body":   truncateBody(body),
			"state":  pr["state"],
			"user":   pr.sub("user")["login"],
			"head": map[string]any{
				"ref": pr.sub("head")["ref"],
				"sha": pr.sub("head")["sha"],
			},
			"base": map[string]any{
				"ref": pr.sub("base")["ref"],
				"sha": pr.sub("base")["sha"],
			},
			"created_at": pr["created_at"],
			"updated_at": pr["updated_at"],
			"url":        pr["html_url"],
			"mergeable":  pr["mergeable"],
			"merged":     pr["merged"],
		})
	}
	return withNextPage(map[string]any{
		"operation":     "list_pull_requests",
		"repository":    args.Owner + "/" + args.Repo,
		"state":         state,
		"count":         len(pulls),
		"pull_requests": pulls,
	}, res.NextPage), nil
}

// ListBranchesArgs selects a repository's branches.
type ListBranchesArgs struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	PerPage int    `json:"per_page"`
	Page    int    `json:"page"`
}

func (e *Executor) ListBranches(ctx context.Context, args ListBranchesArgs) (any, error) {
	res, err := e.gov.Do(ctx, http.MethodGet,
		fmt.Sprintf("repos/%s/%s/branches", args.Owner, args.Repo),
		pageQuery(url.Values{}, args.Page, e.perPage(args.PerPage)), nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(res.Body)
	if err != nil {
		return nil, err
	}

	branches := make([]map[string]any, 0, len(items))
	for _, b := range items {
		branches = append(branches, map[string]any{
			"name":      b["name"],
			"sha":       b.sub("commit")["sha"],
			"protected": b["protected"],
			"url":       b.sub("commit")["url"],
		})
	}
	return withNextPage(map[string]any{
		"operation":  "list_branches",
		"repository": args.Owner + "/" + args.Repo,
		"count":      len(branches),
		"branches":   branches,
	}, res.NextPage), nil
}

// ListReleasesArgs selects a repository's releases.
type ListReleasesArgs struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	PerPage int    `json:"per_page"`
	Page    int    `json:"page"`
}

func (e *Executor) ListReleases(ctx context.Context, args ListReleasesArgs) (any, error) {
	res, err := e.gov.Do(ctx, http.MethodGet,
		fmt.Sprintf("repos/%s/%s/releases", args.Owner, args.Repo),
		pageQuery(url.Values{}, args.Page, e.perPage(args.PerPage)), nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(res.Body)
	if err != nil {
		return nil, err
	}

	releases := make([]map[string]any, 0, len(items))
	for _, r := range items {
		releases = append(releases, map[string]any{
			"name":         r["name"],
			"tag":          r["tag_name"],
			"draft":        r["draft"],
			"prerelease":   r["prerelease"],
			"author":       r.sub("author")["login"],
			"created_at":   r["created_at"],
			"published_at": r["published_at"],
			"url":          r["html_url"],
		})
	}
	return withNextPage(map[string]any{
		"operation":  "list_releases",
		"repository": args.Owner + "/" + args.Repo,
		"count":      len(releases),
		"releases":   releases,
	}, res.NextPage), nil
}

// SearchRepositoriesArgs is a repository search request.
type SearchRepositoriesArgs struct {
	Query   string `json:"query"`
	Sort    string `json:"sort"`
	Order   string `json:"order"`
	PerPage int    `json:"per_page"`
	Page    int    `json:"page"`
}

func (e *Executor) SearchRepositories(ctx context.Context, args SearchRepositoriesArgs) (any, error) {
	sort := args.Sort
	if sort == "" {
		sort = "stars"
	}
	order := args.Order
	if order == "" {
		order = "desc"
	}
	q := url.Values{"q": {args.Query}, "sort": {sort}, "order": {order}}
	res, err := e.gov.Do(ctx, http.MethodGet, "search/repositories",
		pageQuery(q, args.Page, e.perPage(args.PerPage)), nil)
	if err != nil {
		return nil, err
	}
	result, err := decodeObject(res.Body)
	if err != nil {
		return nil, err
	}

	rawItems, _ := result["items"].([]any)
	repos := make([]map[string]any, 0, len(rawItems))
	for _, raw := range rawItems {
		r, _ := raw.(map[string]any)
		s := repoSummary(r)
		s["owner"] = obj(r).sub("owner")["login"]
		delete(s, "private")
		repos = append(repos, s)
	}
	return withNextPage(map[string]any{
		"operation":    "search_repositories",
		"query":        args.Query,
		"total_count":  result["total_count"],
		"count":        len(repos),
		"repositories": repos,
	}, res.NextPage), nil
}

// PullRequestReviewsArgs addresses the reviews of one pull request.
type PullRequestReviewsArgs struct {
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	PullNumber int    `json:"pull_number"`
	PerPage    int    `json:"per_page"`
	Page       int    `json:"page"`
}

func reviewSummary(r obj) map[string]any {
	return map[string]any{
		"id":           r["id"],
		"user":         r.sub("user")["login"],
		"state":        r["state"],
		"body":         r["body"],
		"commit_id":    r["commit_id"],
		"submitted_at": r["submitted_at"],
		"url":          r["html_url"],
	}
}

func (e *Executor) GetPullRequestReviews(ctx context.Context, args PullRequestReviewsArgs) (any, error) {
	res, err := e.gov.Do(ctx, http.MethodGet,
		fmt.Sprintf("repos/%s/%s/pulls/%d/reviews", args.Owner, args.Repo, args.PullNumber),
		pageQuery(url.Values{}, args.Page, e.perPage(args.PerPage)), nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(res.Body)
	if err != nil {
		return nil, err
	}

	reviews := make([]map[string]any, 0, len(items))
	for _, r := range items {
		reviews = append(reviews, reviewSummary(r))
	}
	return withNextPage(map[string]any{
		"operation":   "get_pull_request_reviews",
		"repository":  args.Owner + "/" + args.Repo,
		"pull_number": args.PullNumber,
		"count":       len(reviews),
		"reviews":     reviews,
	}, res.NextPage), nil
}

// ReviewDraftComment is one inline comment attached to a new review.
type ReviewDraftComment struct {
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
	Side string `json:"side,omitempty"`
	Body string `json:"body"`
}

// CreatePullRequestReviewArgs describes a new review.
type CreatePullRequestReviewArgs struct {
	Owner      string               `json:"owner"`
	Repo       string               `json:"repo"`
	PullNumber int                  `json:"pull_number"`
	Event      string               `json:"event"`
	Body       string               `json:"body"`
	Comments   []ReviewDraftComment `json:"comments"`
}

func (e *Executor) CreatePullRequestReview(ctx context.Context, args CreatePullRequestReviewArgs) (any, error) {
	if !e.client.Authenticated() {
		return nil, domain.NewDomainError("github.create_pull_request_review", domain.ErrAuthInvalid,
			"token required for creating reviews")
	}
	event := args.Event
	if event == "" {
		event = "COMMENT"
	}
	payload := map[string]any{"event": event}
	if args.Body != "" {
		payload["body"] = args.Body
	}
	if len(args.Comments) > 0 {
		payload["comments"] = args.Comments
	}

	res, err := e.gov.Do(ctx, http.MethodPost,
		fmt.Sprintf("repos/%s/%s/pulls/%d/reviews", args.Owner, args.Repo, args.PullNumber), nil, payload)
	if err != nil {
		return nil, err
	}
	review, err := decodeObject(res.Body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"operation":   "create_pull_request_review",
		"repository":  args.Owner + "/" + args.Repo,
		"pull_number": args.PullNumber,
		"review":      reviewSummary(review),
	}, nil
}

func reviewCommentSummary(c obj) map[string]any {
	return map[string]any{
		"id":         c["id"],
		"user":       c.sub("user")["login"],
		"body":       c["body"],
		"path":       c["path"],
		"line":       c["line"],
		"side":       c["side"],
		"commit_id":  c["commit_id"],
		"created_at": c["created_at"],
		"updated_at": c["updated_at"],
		"url":        c["html_url"],
	}
}

func (e *Executor) GetPullRequestReviewComments(ctx context.Context, args PullRequestReviewsArgs) (any, error) {
	res, err := e.gov.Do(ctx, http.MethodGet,
		fmt.Sprintf("repos/%s/%s/pulls/%d/comments", args.Owner, args.Repo, args.PullNumber),
		pageQuery(url.Values{}, args.Page, e.perPage(args.PerPage)), nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(res.Body)
	if err != nil {
		return nil, err
	}

	comments := make([]map[string]any, 0, len(items))
	for _, c := range items {
		comments = append(comments, reviewCommentSummary(c))
	}
	return withNextPage(map[string]any{
		"operation":   "get_pull_request_review_comments",
		"repository":  args.Owner + "/" + args.Repo,
		"pull_number": args.PullNumber,
		"count":       len(comments),
		"comments":    comments,
	}, res.NextPage), nil
}

// CreateReviewCommentArgs describes a new inline comment on a pull
// request diff.
type CreateReviewCommentArgs struct {
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	PullNumber int    `json:"pull_number"`
	Body       string `json:"body"`
	CommitID   string `json:"commit_id"`
	Path       string `json:"path"`
	Line       int    `json:"line"`
	Side       string `json:"side"`
}

func (e *Executor) CreatePullRequestReviewComment(ctx context.Context, args CreateReviewCommentArgs) (any, error) {
	if !e.client.Authenticated() {
		return nil, domain.NewDomainError("github.create_pull_request_review_comment", domain.ErrAuthInvalid,
			"token required for creating review comments")
	}
	side := args.Side
	if side == "" {
		side = "RIGHT"
	}
	payload := map[string]any{
		"body":      args.Body,
		"commit_id": args.CommitID,
		"path":      args.Path,
		"side":      side,
	}
	if args.Line > 0 {
		payload["line"] = args.Line
	}

	res, err := e.gov.Do(ctx, http.MethodPost,
		fmt.Sprintf("repos/%s/%s/pulls/%d/comments", args.Owner, args.Repo, args.PullNumber), nil, payload)
	if err != nil {
		return nil, err
	}
	comment, err := decodeObject(res.Body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"operation":   "create_pull_request_review_comment",
		"repository":  args.Owner + "/" + args.Repo,
		"pull_number": args.PullNumber,
		"comment":     reviewCommentSummary(comment),
	}, nil
}

// UpdateReviewCommentArgs edits an existing review comment.
type UpdateReviewCommentArgs struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	CommentID int    `json:"comment_id"`
	Body      string `json:"body"`
}

func (e *Executor) UpdatePullRequestReviewComment(ctx context.Context, args UpdateReviewCommentArgs) (any, error) {
	if !e.client.Authenticated() {
		return nil, domain.NewDomainError("github.update_pull_request_review_comment", domain.ErrAuthInvalid,
			"token required for updating review comments")
	}
	res, err := e.gov.Do(ctx, http.MethodPatch,
		fmt.Sprintf("repos/%s/%s/pulls/comments/%d", args.Owner, args.Repo, args.CommentID),
		nil, map[string]any{"body": args.Body})
	if err != nil {
		return nil, err
	}
	comment, err := decodeObject(res.Body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"operation":  "update_pull_request_review_comment",
		"repository": args.Owner + "/" + args.Repo,
		"comment":    reviewCommentSummary(comment),
	}, nil
}

// DeleteReviewCommentArgs names the review comment to remove.
type DeleteReviewCommentArgs struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	CommentID int    `json:"comment_id"`
}

func (e *Executor) DeletePullRequestReviewComment(ctx context.Context, args DeleteReviewCommentArgs) (any, error) {
	if !e.client.Authenticated() {
		return nil, domain.NewDomainError("github.delete_pull_request_review_comment", domain.ErrAuthInvalid,
			"token required for deleting review comments")
	}
	// 204 No Content on success; there is no body to decode.
	_, err := e.gov.Do(ctx, http.MethodDelete,
		fmt.Sprintf("repos/%s/%s/pulls/comments/%d", args.Owner, args.Repo, args.CommentID), nil, nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"operation":  "delete_pull_request_review_comment",
		"repository": args.Owner + "/" + args.Repo,
		"comment_id": args.CommentID,
		"deleted":    true,
	}, nil
}

func userInfo(u obj) map[string]any {
	return map[string]any{
		"login":            u["login"],
		"name":             u["name"],
		"bio":              u["bio"],
		"company":          u["company"],
		"location":         u["location"],
		"email":            u["email"],
		"blog":             u["blog"],
		"twitter_username": u["twitter_username"],
		"public_repos":     u["public_repos"],
		"public_gists":     u["public_gists"],
		"followers":        u["followers"],
		"following":        u["following"],
		"created_at":       u["created_at"],
		"updated_at":       u["updated_at"],
		"url":              u["html_url"],
		"avatar_url":       u["avatar_url"],
		"type":             u["type"],
	}
}

// UserInfoArgs names a GitHub user.
type UserInfoArgs struct {
	Username string `json:"username"`
}

func (e *Executor) GetUserInfo(ctx context.Context, args UserInfoArgs) (any, error) {
	res, err := e.gov.Do(ctx, http.MethodGet, "users/"+args.Username, nil, nil)
	if err != nil {
		return nil, err
	}
	u, err := decodeObject(res.Body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"operation": "get_user_info",
		"username":  args.Username,
		"user":      userInfo(u),
	}, nil
}

// OrgInfoArgs names a GitHub organization.
type OrgInfoArgs struct {
	Org string `json:"org"`
}

func (e *Executor) GetOrgInfo(ctx context.Context, args OrgInfoArgs) (any, error) {
	res, err := e.gov.Do(ctx, http.MethodGet, "orgs/"+args.Org, nil, nil)
	if err != nil {
		return nil, err
	}
	o, err := decodeObject(res.Body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"operation": "get_org_info",
		"org":       args.Org,
		"organization": map[string]any{
			"login":        o["login"],
			"name":         o["name"],
			"description":  o["description"],
			"blog":         o["blog"],
			"location":     o["location"],
			"email":        o["email"],
			"public_repos": o["public_repos"],
			"followers":    o["followers"],
			"created_at":   o["created_at"],
			"updated_at":   o["updated_at"],
			"url":          o["html_url"],
			"avatar_url":   o["avatar_url"],
		},
	}, nil
}

func (e *Executor) GetAuthenticatedUser(ctx context.Context) (any, error) {
	if !e.client.Authenticated() {
		return nil, domain.NewDomainError("github.get_authenticated_user", domain.ErrAuthInvalid,
			"token required")
	}
	res, err := e.gov.Do(ctx, http.MethodGet, "user", nil, nil)
	if err != nil {
		return nil, err
	}
	u, err := decodeObject(res.Body)
	if err != nil {
		return nil, err
	}
	info := userInfo(u)
	if plan := u.sub("plan"); plan != nil {
		info["plan"] = plan["name"]
	}
	return map[string]any{
		"operation": "get_authenticated_user",
		"user":      info,
	}, nil
}

// ListMyRepositoriesArgs selects the authenticated user's repositories.
type ListMyRepositoriesArgs struct {
	Type    string `json:"type"`
	PerPage int    `json:"per_page"`
	Page    int    `json:"page"`
}

func (e *Executor) ListMyRepositories(ctx context.Context, args ListMyRepositoriesArgs) (any, error) {
	if !e.client.Authenticated() {
		return nil, domain.NewDomainError("github.list_my_repositories", domain.ErrAuthInvalid,
			"token required")
	}
	repoType := args.Type
	if repoType == "" {
		repoType = "all"
	}
	q := url.Values{"type": {repoType}, "sort": {"updated"}}
	res, err := e.gov.Do(ctx, http.MethodGet, "user/repos",
		pageQuery(q, args.Page, e.perPage(args.PerPage)), nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(res.Body)
	if err != nil {
		return nil, err
	}

	repos := make([]map[string]any, 0, len(items))
	for _, r := range items {
		s := repoSummary(r)
		s["clone_url"] = r["clone_url"]
		s["ssh_url"] = r["ssh_url"]
		s["fork"] = r["fork"]
		s["archived"] = r["archived"]
		s["default_branch"] = r["default_branch"]
		repos = append(repos, s)
	}
	return withNextPage(map[string]any{
		"operation":    "list_my_repositories",
		"username":     e.client.Username(),
		"type":         repoType,
		"count":        len(repos),
		"repositories": repos,
	}, res.NextPage), nil
}
