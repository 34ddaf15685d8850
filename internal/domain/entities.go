package domain

import "time"

// IndexedDocument is a unit of retrievable text and the embedding computed from it.
type IndexedDocument struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
}

type ScoredDocument struct {
	Document IndexedDocument
	Score    float64
}

// ProviderIdentity names the embedding endpoint and model a vector was produced by.
type ProviderIdentity struct {
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
}

func (p ProviderIdentity) IsZero() bool {
	return p.Model == ""
}

type Repo struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

type RepoFile struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size,omitempty"`
	URL  string `json:"url"`
}

type User struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type PullRequest struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	HTMLURL   string    `json:"html_url"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

type Branch struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
		URL string `json:"url"`
	} `json:"commit"`
	Protected bool `json:"protected"`
}

// ChangedFile is a file entry of a pull request or a branch comparison.
type ChangedFile struct {
	SHA         string `json:"sha,omitempty"`
	Filename    string `json:"filename"`
	Status      string `json:"status"`
	Additions   int    `json:"additions"`
	Deletions   int    `json:"deletions"`
	Changes     int    `json:"changes,omitempty"`
	BlobURL     string `json:"blob_url,omitempty"`
	RawURL      string `json:"raw_url,omitempty"`
	ContentsURL string `json:"contents_url,omitempty"`
	Patch       string `json:"patch,omitempty"`
}

type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	HTMLURL string `json:"html_url"`
	Author  *User  `json:"author,omitempty"`
}

type BranchComparison struct {
	Status       string        `json:"status"`
	AheadBy      int           `json:"ahead_by"`
	BehindBy     int           `json:"behind_by"`
	TotalCommits int           `json:"total_commits"`
	Files        []ChangedFile `json:"files"`
	Commits      []Commit      `json:"commits"`
}

// ModelInfo describes a model installed on the inference server.
type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Source is a retrieved document cited in a generated answer.
type Source struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}
