package validator

import "time"

// RejectionReason explains why a URL failed validation.
type RejectionReason string

const (
	ReasonNotFound         RejectionReason = "not_found"
	ReasonForbidden        RejectionReason = "forbidden"
	ReasonServerError      RejectionReason = "server_error"
	ReasonHomepageRedirect RejectionReason = "homepage_redirect"
	ReasonNoArticleContent RejectionReason = "no_article_content"
	ReasonNetworkError     RejectionReason = "network_error"
	ReasonTimeout          RejectionReason = "timeout"
)

// Result is the outcome of validating one URL. Failures are data, never
// errors: Validate always returns a Result.
type Result struct {
	URL             string          `json:"url"`
	IsValid         bool            `json:"is_valid"`
	HTTPStatus      int             `json:"http_status,omitempty"`
	ResolvedURL     string          `json:"resolved_url,omitempty"`
	Title           string          `json:"title,omitempty"`
	RejectionReason RejectionReason `json:"rejection_reason,omitempty"`
	Detail          string          `json:"detail,omitempty"`
	Duration        time.Duration   `json:"-"`
}

// Label is the metrics/log label for the result: "valid" or the reason.
func (r Result) Label() string {
	if r.IsValid {
		return "valid"
	}
	if r.RejectionReason == "" {
		return "unknown"
	}
	return string(r.RejectionReason)
}

func rejected(r Result, reason RejectionReason, detail string) Result {
	r.IsValid = false
	r.RejectionReason = reason
	r.Detail = detail
	return r
}
