// Package types defines API request and response types.
package types

// SendEmailRequest represents a request to dispatch one email.
type SendEmailRequest struct {
	LeadID      string `json:"lead_id" validate:"omitempty,uuid"`
	ToEmail     string `json:"to_email" validate:"required,email"`
	FromEmail   string `json:"from_email" validate:"omitempty,email"`
	Subject     string `json:"subject" validate:"required,min=1,max=998"`
	HTMLBody    string `json:"html_body" validate:"required"`
	Provider    string `json:"provider" validate:"omitempty,oneof=sendgrid smtp ses"`
	TrackOpens  *bool  `json:"track_opens"`
	TrackClicks *bool  `json:"track_clicks"`
}

// OpenTracking reports whether open tracking is requested. Defaults to true
// when the field is omitted.
func (r *SendEmailRequest) OpenTracking() bool {
	return r.TrackOpens == nil || *r.TrackOpens
}

// ClickTracking reports whether click tracking is requested. Defaults to true
// when the field is omitted.
func (r *SendEmailRequest) ClickTracking() bool {
	return r.TrackClicks == nil || *r.TrackClicks
}
