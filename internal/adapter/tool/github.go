package tool

import (
	"encoding/json"

	"toolbridge/internal/adapter/github"
	"toolbridge/internal/domain"
)

const ghRepoSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["owner", "repo"],
	"properties": {
		"owner": {"type": "string", "minLength": 1},
		"repo": {"type": "string", "minLength": 1}
	}
}`

const ghListRepositoriesSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["owner"],
	"properties": {
		"owner": {"type": "string", "minLength": 1},
		"type": {"type": "string", "enum": ["all", "owner", "member"]},
		"per_page": {"type": "integer", "minimum": 1, "maximum": 100},
		"page": {"type": "integer", "minimum": 1}
	}
}`

const ghContentsSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["owner", "repo"],
	"properties": {
		"owner": {"type": "string", "minLength": 1},
		"repo": {"type": "string", "minLength": 1},
		"path": {"type": "string"},
		"ref": {"type": "string"}
	}
}`

const ghListIssuesSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["owner", "repo"],
	"properties": {
		"owner": {"type": "string", "minLength": 1},
		"repo": {"type": "string", "minLength": 1},
		"state": {"type": "string", "enum": ["open", "closed", "all"]},
		"labels": {"type": "string"},
		"per_page": {"type": "integer", "minimum": 1, "maximum": 100},
		"page": {"type": "integer", "minimum": 1}
	}
}`

const ghCreateIssueSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["owner", "repo", "title"],
	"properties": {
		"owner": {"type": "string", "minLength": 1},
		"repo": {"type": "string", "minLength": 1},
		"title": {"type": "string", "minLength": 1},
		"body": {"type": "string"},
		"labels": {"type": "array", "items": {"type": "string"}},
		"assignees": {"type": "array", "items": {"type": "string"}}
	}
}`

const ghListPullsSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["owner", "repo"],
	"properties": {
		"owner": {"type": "string", "minLength": 1},
		"repo": {"type": "string", "minLength": 1},
		"state": {"type": "string", "enum": ["open", "closed", "all"]},
		"per_page": {"type": "integer", "minimum": 1, "maximum": 100},
		"page": {"type": "integer", "minimum": 1}
	}
}`

const ghRepoPagedSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["owner", "repo"],
	"properties": {
		"owner": {"type": "string", "minLength": 1},
		"repo": {"type": "string", "minLength": 1},
		"per_page": {"type": "integer", "minimum": 1, "maximum": 100},
		"page": {"type": "integer", "minimum": 1}
	}
}`

const ghSearchSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["query"],
	"properties": {
		"query": {"type": "string", "minLength": 1},
		"sort": {"type": "string", "enum": ["stars", "forks", "updated"]},
		"order": {"type": "string", "enum": ["asc", "desc"]},
		"per_page": {"type": "integer", "minimum": 1, "maximum": 100},
		"page": {"type": "integer", "minimum": 1}
	}
}`

const ghPullReviewsSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["owner", "repo", "pull_number"],
	"properties": {
		"owner": {"type": "string", "minLength": 1},
		"repo": {"type": "string", "minLength": 1},
		"pull_number": {"type": "integer", "minimum": 1},
		"per_page": {"type": "integer", "minimum": 1, "maximum": 100},
		"page": {"type": "integer", "minimum": 1}
	}
}`

const ghCreateReviewSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["owner", "repo", "pull_number"],
	"properties": {
		"owner": {"type": "string", "minLength": 1},
		"repo": {"type": "string", "minLength": 1},
		"pull_number": {"type": "integer", "minimum": 1},
		"event": {"type": "string", "enum": ["APPROVE", "REQUEST_CHANGES", "COMMENT"]},
		"body": {"type": "string"},
		"comments": {
			"type": "array",
			"items": {
				"type": "object",
				"additionalProperties": false,
				"required": ["path", "body"],
				"properties": {
					"path": {"type": "string", "minLength": 1},
					"line": {"type": "integer", "minimum": 1},
					"side": {"type": "string", "enum": ["LEFT", "RIGHT"]},
					"body": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

const ghCreateReviewCommentSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["owner", "repo", "pull_number", "body", "commit_id", "path"],
	"properties": {
		"owner": {"type": "string", "minLength": 1},
		"repo": {"type": "string", "minLength": 1},
		"pull_number": {"type": "integer", "minimum": 1},
		"body": {"type": "string", "minLength": 1},
		"commit_id": {"type": "string", "minLength": 1},
		"path": {"type": "string", "minLength": 1},
		"line": {"type": "integer", "minimum": 1},
		"side": {"type": "string", "enum": ["LEFT", "RIGHT"]}
	}
}`

const ghUpdateReviewCommentSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["owner", "repo", "comment_id", "body"],
	"properties": {
		"owner": {"type": "string", "minLength": 1},
		"repo": {"type": "string", "minLength": 1},
		"comment_id": {"type": "integer", "minimum": 1},
		"body": {"type": "string", "minLength": 1}
	}
}`

const ghDeleteReviewCommentSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["owner", "repo", "comment_id"],
	"properties": {
		"owner": {"type": "string", "minLength": 1},
		"repo": {"type": "string", "minLength": 1},
		"comment_id": {"type": "integer", "minimum": 1}
	}
}`

const ghUserSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["username"],
	"properties": {
		"username": {"type": "string", "minLength": 1}
	}
}`

const ghOrgSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["org"],
	"properties": {
		"org": {"type": "string", "minLength": 1}
	}
}`

const ghNoArgsSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {}
}`

const ghMyReposSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"type": {"type": "string", "enum": ["all", "owner", "member", "private", "public"]},
		"per_page": {"type": "integer", "minimum": 1, "maximum": 100},
		"page": {"type": "integer", "minimum": 1}
	}
}`

// GitHubTools builds the repository-service tool set bound to exec.
func GitHubTools(exec *github.Executor) []domain.Tool {
	return []domain.Tool{
		&definition{
			name:        "github_get_repository_info",
			description: "Get detailed information about a GitHub repository.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghRepoSchema),
			run:         typed(exec.GetRepositoryInfo),
		},
		&definition{
			name:        "github_list_repositories",
			description: "List repositories for a user or organization, most recently updated first.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghListRepositoriesSchema),
			run:         typed(exec.ListRepositories),
		},
		&definition{
			name:        "github_get_repository_contents",
			description: "Get a directory listing or file contents from a repository. Text files under 1 MiB are decoded.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghContentsSchema),
			run:         typed(exec.GetContents),
		},
		&definition{
			name:        "github_get_repository_branches",
			description: "List branches of a repository.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghRepoPagedSchema),
			run:         typed(exec.ListBranches),
		},
		&definition{
			name:        "github_list_releases",
			description: "List releases of a repository.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghRepoPagedSchema),
			run:         typed(exec.ListReleases),
		},
		&definition{
			name:        "github_list_issues",
			description: "List issues for a repository. Pull requests are excluded; long bodies are truncated.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghListIssuesSchema),
			run:         typed(exec.ListIssues),
		},
		&definition{
			name:        "github_create_issue",
			description: "Create a new issue in a repository. Requires an authenticated token.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghCreateIssueSchema),
			run:         typed(exec.CreateIssue),
		},
		&definition{
			name:        "github_list_pull_requests",
			description: "List pull requests for a repository.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghListPullsSchema),
			run:         typed(exec.ListPullRequests),
		},
		&definition{
			name:        "github_get_pull_request_reviews",
			description: "List reviews on a pull request.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghPullReviewsSchema),
			run:         typed(exec.GetPullRequestReviews),
		},
		&definition{
			name:        "github_create_pull_request_review",
			description: "Submit a review on a pull request, optionally with inline comments. Requires an authenticated token.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghCreateReviewSchema),
			run:         typed(exec.CreatePullRequestReview),
		},
		&definition{
			name:        "github_get_pull_request_review_comments",
			description: "List inline review comments on a pull request.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghPullReviewsSchema),
			run:         typed(exec.GetPullRequestReviewComments),
		},
		&definition{
			name:        "github_create_pull_request_review_comment",
			description: "Add an inline comment to a pull request diff. Requires an authenticated token.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghCreateReviewCommentSchema),
			run:         typed(exec.CreatePullRequestReviewComment),
		},
		&definition{
			name:        "github_update_pull_request_review_comment",
			description: "Edit the body of a pull request review comment. Requires an authenticated token.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghUpdateReviewCommentSchema),
			run:         typed(exec.UpdatePullRequestReviewComment),
		},
		&definition{
			name:        "github_delete_pull_request_review_comment",
			description: "Delete a pull request review comment. Requires an authenticated token.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghDeleteReviewCommentSchema),
			run:         typed(exec.DeletePullRequestReviewComment),
		},
		&definition{
			name:        "github_search_repositories",
			description: "Search repositories on GitHub.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghSearchSchema),
			run:         typed(exec.SearchRepositories),
		},
		&definition{
			name:        "github_get_user_info",
			description: "Get public profile information for a GitHub user.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghUserSchema),
			run:         typed(exec.GetUserInfo),
		},
		&definition{
			name:        "github_get_org_info",
			description: "Get public profile information for a GitHub organization.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghOrgSchema),
			run:         typed(exec.GetOrgInfo),
		},
		&definition{
			name:        "github_get_my_user_info",
			description: "Get profile information for the authenticated user.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghNoArgsSchema),
			run:         noArgs(exec.GetAuthenticatedUser),
		},
		&definition{
			name:        "github_get_my_repositories",
			description: "List repositories of the authenticated user.",
			backend:     domain.BackendGitHub,
			parameters:  json.RawMessage(ghMyReposSchema),
			run:         typed(exec.ListMyRepositories),
		},
	}
}
