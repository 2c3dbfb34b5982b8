// Package jd retrieves job description text from local files or URLs.
package jd

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const fetchTimeout = 30 * time.Second

// Fetch retrieves job description text. Inputs with an http(s) scheme are
// fetched over the network and stripped of markup; anything else is treated
// as a file path.
func Fetch(ctx context.Context, input string) (content string, err error) {
	parsed, urlErr := url.Parse(input)
	if urlErr == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		content, err = fetchFromURL(ctx, input)
		if err != nil {
			err = errors.Wrapf(err, "failed to fetch job description from URL: %s", input)
			return content, err
		}
		return content, err
	}

	var data []byte
	data, err = os.ReadFile(input)
	if err != nil {
		err = errors.Wrapf(err, "failed to read job description file: %s", input)
		return content, err
	}

	content = strings.TrimSpace(string(data))
	if content == "" {
		err = errors.Errorf("job description file is empty: %s", input)
		return content, err
	}

	return content, err
}

func fetchFromURL(ctx context.Context, urlStr string) (content string, err error) {
	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return content, err
	}

	req.Header.Set("User-Agent", "interview-coach/1.0")

	client := &http.Client{Timeout: fetchTimeout}

	var resp *http.Response
	resp, err = client.Do(req)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return content, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("HTTP request failed with status: %d", resp.StatusCode)
		return content, err
	}

	var body []byte
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return content, err
	}

	content = strings.TrimSpace(stripMarkup(string(body)))
	if content == "" {
		err = errors.New("fetched content is empty after processing")
		return content, err
	}

	return content, err
}

// stripMarkup drops script/style blocks and removes remaining tags so the
// analysis directive sees posting text, not page chrome.
func stripMarkup(html string) (text string) {
	text = dropElement(html, "script")
	text = dropElement(text, "style")

	var out strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			out.WriteRune(r)
		}
	}

	text = out.String()

	return text
}

// dropElement removes every occurrence of an element and its content.
func dropElement(html, tag string) (result string) {
	result = html
	open := "<" + tag
	closing := "</" + tag + ">"

	for {
		start := strings.Index(result, open)
		if start == -1 {
			break
		}

		end := strings.Index(result[start:], closing)
		if end == -1 {
			break
		}

		result = result[:start] + result[start+end+len(closing):]
	}

	return result
}
