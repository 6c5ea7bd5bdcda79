package shoutcast

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// parsePLS parses a PLS playlist file and returns the first stream URL
func parsePLS(body io.Reader) (string, error) {
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "File") {
			continue
		}
		if _, value, found := strings.Cut(line, "="); found {
			if url := strings.TrimSpace(value); url != "" {
				return url, nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read playlist: %w", err)
	}
	return "", fmt.Errorf("no stream URL found in PLS playlist")
}

// parseM3U parses an M3U playlist file and returns the first stream URL
func parseM3U(body io.Reader) (string, error) {
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read playlist: %w", err)
	}
	return "", fmt.Errorf("no stream URL found in M3U playlist")
}

// resolvePlaylistURL checks if the URL is a playlist file and resolves it to
// a stream URL. A URL that already answers with icy-metaint is returned
// unchanged.
func resolvePlaylistURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Add("accept", "*/*")
	req.Header.Add("user-agent", userAgent)

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	transport := &http.Transport{Dial: dialer.Dial}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("icy-metaint") != "" {
		return url, nil
	}

	contentType := resp.Header.Get("Content-Type")

	// Only playlist files are read in full; anything else would be the
	// unbounded stream itself.
	isPLS := strings.Contains(contentType, "audio/x-scpls") ||
		strings.Contains(contentType, "application/pls+xml") ||
		strings.HasSuffix(url, ".pls")

	isM3U := strings.Contains(contentType, "audio/mpegurl") ||
		strings.Contains(contentType, "application/vnd.apple.mpegurl") ||
		strings.HasSuffix(url, ".m3u") ||
		strings.HasSuffix(url, ".m3u8")

	if !isPLS && !isM3U {
		// Content sniffing for servers that mislabel playlists.
		head := make([]byte, 1024)
		n, _ := io.ReadFull(resp.Body, head)
		content := string(head[:n])
		switch {
		case strings.Contains(content, "[playlist]") || strings.Contains(content, "File1="):
			return parsePLS(strings.NewReader(content))
		case strings.Contains(content, "#EXTM3U") ||
			strings.HasPrefix(strings.TrimSpace(content), "http://") ||
			strings.HasPrefix(strings.TrimSpace(content), "https://"):
			return parseM3U(strings.NewReader(content))
		}
		// Some servers answer audio without ICY headers; treat the URL as a
		// plain (passthrough) stream.
		return url, nil
	}

	if isPLS {
		streamURL, err := parsePLS(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to parse PLS playlist: %w", err)
		}
		return streamURL, nil
	}

	streamURL, err := parseM3U(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse M3U playlist: %w", err)
	}
	return streamURL, nil
}
