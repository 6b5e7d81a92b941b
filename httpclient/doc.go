// Package httpclient is the HTTP transport shared by the tone and
// transcription collaborators.
//
// A Client joins paths to a base URL and applies default headers and token
// authentication. Retry and circuit breaking are optional. Bodies may be
// JSON values, raw bytes, readers or a *MultipartBody for audio uploads.
// Non-2xx responses become *Error values that say whether a retry makes
// sense:
//
//	c, _ := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.openai.com",
//	    Auth:    httpclient.BearerAuth(key),
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//	resp, err := httpclient.PostJSON[chatResponse](c, ctx, "/v1/chat/completions", body)
package httpclient
