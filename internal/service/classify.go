package service

import (
	"regexp"
	"strings"
)

// keywordThreshold is the minimum number of vocabulary hits for a
// document to count as technical.
const keywordThreshold = 3

var techKeywords = []string{
	"api", "server", "protocol", "algorithm", "database", "network",
	"latency", "throughput", "bandwidth", "kernel", "compiler", "runtime",
	"encryption", "authentication", "authorization", "framework",
	"middleware", "backend", "frontend", "deployment", "container",
	"kubernetes", "docker", "microservice", "endpoint", "http", "https",
	"tcp", "udp", "dns", "tls", "json", "xml", "sql", "cache", "queue",
	"thread", "concurrency", "cpu", "gpu", "firmware", "cluster", "cloud",
	"repository", "debugger", "binary", "hash", "token", "schema",
}

var keywordRegex = buildKeywordRegex(techKeywords)

func buildKeywordRegex(keywords []string) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// countKeywordHits counts case-insensitive whole-word occurrences of the
// technical vocabulary. Every occurrence counts, not just distinct words.
func countKeywordHits(text string) int {
	if text == "" {
		return 0
	}
	return len(keywordRegex.FindAllStringIndex(text, -1))
}

func isTechnical(text string) (bool, int) {
	hits := countKeywordHits(text)
	return hits >= keywordThreshold, hits
}
