package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the portion of an HTTP exchange the detectors inspect.
type Response struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
}

// Detector examines a search-engine response to determine if the request was
// blocked or challenged rather than answered.
type Detector func(res *Response) (detected bool, source string)

// DefaultDetectors returns the standard list of SERP block detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCaptchaInterstitial,
		detectUnusualTraffic,
		detectRateLimit,
	}
}

// Analyze runs the response through all provided detectors and returns the
// name of the first mechanism that triggered, if any.
func Analyze(res *Response, detectors []Detector) (string, bool) {
	if res == nil {
		return "", false
	}
	for _, d := range detectors {
		if detected, source := d(res); detected {
			return source, true
		}
	}
	return "", false
}

func getHeader(headers map[string][]string, key string) string {
	if vals, ok := headers[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	// Case-insensitive fallback
	lowerKey := strings.ToLower(key)
	for k, vals := range headers {
		if strings.ToLower(k) == lowerKey && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// detectCaptchaInterstitial looks for the /sorry/ captcha wall the search
// engine serves when it suspects automation.
func detectCaptchaInterstitial(res *Response) (bool, string) {
	if loc := getHeader(res.Headers, "Location"); strings.Contains(loc, "/sorry/") {
		return true, "Captcha"
	}

	if bytes.Contains(res.Body, []byte("g-recaptcha")) ||
		bytes.Contains(res.Body, []byte("recaptcha/api.js")) ||
		bytes.Contains(res.Body, []byte("/sorry/index")) {
		return true, "Captcha"
	}
	return false, ""
}

// detectUnusualTraffic looks for the "unusual traffic" block page, which can
// come back with a 200 status.
func detectUnusualTraffic(res *Response) (bool, string) {
	if bytes.Contains(res.Body, []byte("unusual traffic from your computer network")) ||
		bytes.Contains(res.Body, []byte("detected unusual traffic")) {
		return true, "UnusualTraffic"
	}
	return false, ""
}

// detectRateLimit catches plain throttling responses.
func detectRateLimit(res *Response) (bool, string) {
	if res.StatusCode == http.StatusTooManyRequests || res.StatusCode == http.StatusServiceUnavailable {
		return true, "RateLimit"
	}
	return false, ""
}
