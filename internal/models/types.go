package models

import (
	"time"
)

type Language string

const (
	LanguageZH Language = "zh"
	LanguageEN Language = "en"
)

type RequestType string

const (
	RequestTypeSearch    RequestType = "search"
	RequestTypeRecommend RequestType = "recommend"
)

// SearchQuery is the per-request view of the user input. It is built at
// request entry and discarded after the response; only its derived fields
// feed the flow log.
type SearchQuery struct {
	Raw           string
	Sanitized     string
	NormalizedKey string
	Language      Language
}

// Payload is a generated result object. Provider envelopes differ, so the
// pipeline treats the generation output as an opaque JSON object and only
// peeks at the few fields it needs.
type Payload = map[string]any

// ToolResult documents the shape of one entry in a search response's
// "results" array, as produced by the LLM. Entries are immutable once
// generated and replaced wholesale on regeneration.
type ToolResult struct {
	Name                string            `json:"name"`
	Category            string            `json:"category"`
	CoreUsage           string            `json:"coreUsage"`
	CorePositioning     string            `json:"corePositioning"`
	Installation        map[string]string `json:"installation"`
	DownloadURL         DownloadURL       `json:"downloadUrl"`
	CommonIssues        []CommonIssue     `json:"commonIssues"`
	CommonCommands      []CommonCommand   `json:"commonCommands"`
	Rating              float64           `json:"rating"`
	ApplicableScenarios string            `json:"applicableScenarios"`
}

type DownloadURL struct {
	Mirror   string `json:"mirror"`
	Official string `json:"official"`
}

type CommonIssue struct {
	Rank     int    `json:"rank"`
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
}

type CommonCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

type RelatedTool struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// SearchResponse documents the per-language response shape. The wire value
// is the opaque Payload; this type backs the OpenAPI docs and the analytics
// extraction.
type SearchResponse struct {
	SearchIntent  string        `json:"searchIntent"`
	OriginalQuery string        `json:"originalQuery"`
	ResultCount   int           `json:"resultCount"`
	SearchTime    string        `json:"searchTime"`
	Results       []ToolResult  `json:"results"`
	RelatedTools  []RelatedTool `json:"relatedTools"`
}

// ProviderCallRecord is the telemetry for one language pipeline's provider
// invocation. It is consumed only by the analytics sink.
type ProviderCallRecord struct {
	Language       Language      `json:"language"`
	Provider       string        `json:"provider"`
	Model          string        `json:"model"`
	PromptLength   int           `json:"prompt_length"`
	ResponseLength int           `json:"response_length"`
	Duration       time.Duration `json:"duration_ms"`
	Success        bool          `json:"success"`
	ErrorMessage   string        `json:"error_message,omitempty"`
}

// FlowRecord is one complete search flow, handed to the analytics sink after
// the response is computed.
type FlowRecord struct {
	ClientIP        string
	UserAgent       string
	Referer         string
	OriginalQuery   string
	NormalizedQuery string
	SearchIntent    string
	SearchType      RequestType
	ResultCount     int
	FromCache       bool
	TotalDuration   time.Duration
	Language        Language
	Results         []ToolResult
	Calls           []ProviderCallRecord
}
