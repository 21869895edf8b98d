package sargam

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	webTimeout = 10 * time.Second
	linkDelim  = "="
	linksPer   = 3
)

type HTTPClient interface {
	Get(string) (*http.Response, error)
}

// Shared HTTP Client
var sharedHTTPClient = &http.Client{
	Timeout: webTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	},
}

// SingleFetchWithClient handles the messy business of the HTTP connection
// and is testable with dependency injection, called by SingleFetch
func SingleFetchWithClient(url string, c HTTPClient) (int, []byte, error) {
	resp, err := c.Get(url)
	if err != nil {
		slog.Error("Fetch Error", slog.Any("error", err))
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Close Error", slog.Any("error", err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Could not read body", slog.Any("error", err))
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}

// SingleFetch returns the Response Code, raw byte stream body, and error
// This uses a Shared HTTP Client:
// - to reuse existing endpoint connections
// - to avoid stale connections that eat up OS FDs
func SingleFetch(url string) (int, []byte, error) {
	return SingleFetchWithClient(url, sharedHTTPClient)
}

// LinkSource is the content lookup service.
// It serves plain text, one "raga_id=url" per line,
// and a raga may appear on many lines.
// The links are opaque display strings, never interpreted.
type LinkSource struct {
	URL    string
	Client HTTPClient
}

func NewLinkSource(url string) *LinkSource {
	return &LinkSource{URL: url, Client: sharedHTTPClient}
}

// Fetch pulls every link, grouped by raga ID, at most three per raga.
// An unset URL yields no links and no error.
func (ls *LinkSource) Fetch() (map[string][]string, error) {
	if ls == nil || ls.URL == "" {
		return map[string][]string{}, nil
	}

	code, body, err := SingleFetchWithClient(ls.URL, ls.Client)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		slog.Error("link source returned non-200", slog.Int("code", code), slog.String("url", ls.URL))
		return nil, fmt.Errorf("link source %s: status %d", ls.URL, code)
	}

	return ParseLinks(bytes.NewReader(body), linkDelim)
}

// LinksFor returns the links for one raga. Failures are logged and
// treated as no links, enrichment never blocks the core.
func (ls *LinkSource) LinksFor(id string) []string {
	all, err := ls.Fetch()
	if err != nil {
		slog.Error("could not fetch links", slog.String("raga", id), slog.Any("error", err))
		return nil
	}
	return all[id]
}

// ParseLinks streams KV lines, removing whitespace and comments.
// Values are kept verbatim apart from surrounding quotes.
func ParseLinks(reader io.Reader, d string) (map[string][]string, error) {
	links := make(map[string][]string)
	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// ignore whitespace and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Split on the first delimiter /d/, URLs carry their own
		parts := strings.SplitN(line, d, 2)
		if len(parts) != 2 {
			slog.Error("WARNING: Invalid line", slog.String("line", line))
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if key == "" || value == "" {
			continue
		}
		if len(links[key]) < linksPer {
			links[key] = append(links[key], value)
		}
	}

	if err := scanner.Err(); err != nil {
		slog.Error("Problem scanning input", slog.Any("error", err))
		return nil, fmt.Errorf("scanning error: %w", err)
	}

	return links, nil
}
