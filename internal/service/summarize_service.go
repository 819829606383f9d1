package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"docbrief/internal/ai"
	"docbrief/internal/config"
	"docbrief/internal/filestore"
	"docbrief/internal/model"
	"docbrief/internal/pdftext"
)

var (
	ErrExtractionFailed = errors.New("failed to extract text from pdf")
	ErrEmptyDocument    = errors.New("pdf contains no readable text")
	ErrModelUnavailable = errors.New("summary model unavailable")
	ErrBadModelOutput   = errors.New("model returned invalid output")
)

const (
	minReadableChars = 10
	rejectionMessage = "This PDF is NOT a technical document, kindly upload a technical PDF."

	summarySystemPrompt = "You produce only JSON with a single key: summary"

	accountingTimeout = 10 * time.Second
)

// UsageRecorder and EventSink are the pipeline's best-effort collaborators.
// Their failures are logged and swallowed, never surfaced to the caller.
type UsageRecorder interface {
	IncFilesUploaded(ctx context.Context, userID string) error
	RecordSummary(ctx context.Context, entry *model.HistoryEntry) error
}

type EventSink interface {
	Emit(eventName, userID string, payload map[string]interface{})
}

type SummarizeService struct {
	provider ai.Provider
	cfg      config.AIConfig
	usage    UsageRecorder
	events   EventSink
	store    filestore.Store
	cache    *expirable.LRU[string, string]
	extract  func(data []byte) (string, error)
}

func NewSummarizeService(provider ai.Provider, cfg config.AIConfig, usage UsageRecorder, events EventSink, store filestore.Store) *SummarizeService {
	return &SummarizeService{
		provider: provider,
		cfg:      cfg,
		usage:    usage,
		events:   events,
		store:    store,
		cache:    expirable.NewLRU[string, string](1024, nil, 2*time.Hour),
		extract:  pdftext.Extract,
	}
}

type SummarizeInput struct {
	// UserID is empty for anonymous requests; accounting and history are
	// skipped in that case.
	UserID   string
	Filename string
	MimeType string
	Size     int64
	Data     []byte
	// BaseURL is used to build artifact URLs for the history record.
	BaseURL string
}

type SummarizeResult struct {
	// Rejection is set for the non-technical verdict, a valid terminal
	// outcome with no artifacts. Exactly one of Rejection/Summary is set.
	Rejection   string
	Reason      string
	KeywordHits int

	Summary     string
	ImageBase64 *string
	VideoBase64 *string
}

// Summarize runs the pipeline: extraction, classification, summary,
// then best-effort image and video generation. The summary stage is the
// only generation stage whose failure fails the request.
func (s *SummarizeService) Summarize(ctx context.Context, input SummarizeInput) (*SummarizeResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("filename", input.Filename))

	s.events.Emit("FILE_UPLOADED_BACKEND", input.UserID, map[string]interface{}{
		"filename": input.Filename,
		"size":     input.Size,
		"mimeType": input.MimeType,
	})
	if input.UserID != "" {
		userID := input.UserID
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), accountingTimeout)
			defer cancel()
			if err := s.usage.IncFilesUploaded(bgCtx, userID); err != nil {
				logutil.GetLogger(bgCtx).Warn("upload accounting failed",
					zap.String("user_id", userID), zap.Error(err))
			}
		}()
	}

	text, err := s.extract(input.Data)
	if err != nil {
		s.events.Emit("PDF_TEXT_EXTRACTION_FAILED", input.UserID, map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minReadableChars {
		s.events.Emit("PDF_TEXT_EMPTY", input.UserID, nil)
		return nil, ErrEmptyDocument
	}

	technical, hits := isTechnical(text)
	if !technical {
		s.events.Emit("PDF_REJECTED_NON_TECHNICAL", input.UserID, map[string]interface{}{
			"keywordHits": hits,
			"threshold":   keywordThreshold,
		})
		return &SummarizeResult{
			Rejection:   rejectionMessage,
			Reason:      fmt.Sprintf("Keyword hits %d < %d", hits, keywordThreshold),
			KeywordHits: hits,
		}, nil
	}

	summary, err := s.generateSummary(ctx, input.UserID, text)
	if err != nil {
		return nil, err
	}
	result := &SummarizeResult{Summary: summary, KeywordHits: hits}

	imageBytes := s.generateImage(ctx, logger, input.UserID, summary, result)
	videoBytes := s.generateVideo(ctx, logger, input.UserID, summary, result)

	if input.UserID != "" {
		s.recordHistory(ctx, logger, input, summary, imageBytes, videoBytes)
	}

	s.events.Emit("CONVERSION_COMPLETED_BACKEND", input.UserID, map[string]interface{}{
		"summary": true,
		"image":   result.ImageBase64 != nil,
		"video":   result.VideoBase64 != nil,
	})
	return result, nil
}

func (s *SummarizeService) generateSummary(ctx context.Context, userID, text string) (string, error) {
	text = truncateUTF8(text, s.cfg.MaxInputChars)
	cacheKey := summaryCacheKey(text)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached, nil
	}

	prompt := fmt.Sprintf("You are a strict assistant. Return ONLY a JSON object like:\n{\"summary\": \"...\"}\n\nSummarize the following technical text concisely:\n\n%s\n", text)
	raw, err := s.provider.GenerateText(ctx, s.cfg.SummaryModel, summarySystemPrompt, prompt)
	if err != nil {
		s.events.Emit("MODEL_SUMMARY_FAILED", userID, map[string]interface{}{"error": err.Error()})
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	summary, err := parseSummaryOutput(raw)
	if err != nil {
		return "", err
	}
	s.cache.Add(cacheKey, summary)
	return summary, nil
}

// parseSummaryOutput extracts the JSON object between the first "{" and
// the last "}", tolerating commentary the model wraps around it.
func parseSummaryOutput(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", ErrBadModelOutput
	}
	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return "", ErrBadModelOutput
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return "", ErrBadModelOutput
	}
	return parsed.Summary, nil
}

func (s *SummarizeService) generateImage(ctx context.Context, logger *zap.Logger, userID, summary string, result *SummarizeResult) []byte {
	data, err := s.provider.GenerateImage(ctx, s.cfg.ImageModel, makeImagePrompt(summary))
	if err != nil {
		logger.Warn("image generation failed", zap.Error(err))
		s.events.Emit("IMAGE_GENERATION_FAILED", userID, map[string]interface{}{"error": err.Error()})
		return nil
	}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	result.ImageBase64 = &uri
	return data
}

func (s *SummarizeService) generateVideo(ctx context.Context, logger *zap.Logger, userID, summary string, result *SummarizeResult) []byte {
	videoCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.VideoWaitBudgetSeconds)*time.Second)
	defer cancel()
	data, err := s.provider.GenerateVideo(videoCtx, s.cfg.VideoModel, makeVideoPrompt(summary, s.cfg.VideoSeconds), s.cfg.VideoSeconds)
	if err != nil {
		logger.Warn("video generation failed", zap.Error(err))
		s.events.Emit("VIDEO_GENERATION_FAILED", userID, map[string]interface{}{"error": err.Error()})
		return nil
	}
	uri := "data:video/mp4;base64," + base64.StdEncoding.EncodeToString(data)
	result.VideoBase64 = &uri
	return data
}

// recordHistory saves artifacts to the filestore and appends a history
// row. Everything here is best-effort: a failed save leaves a nil URL, a
// failed insert is logged and dropped.
func (s *SummarizeService) recordHistory(ctx context.Context, logger *zap.Logger, input SummarizeInput, summary string, imageBytes, videoBytes []byte) {
	entry := &model.HistoryEntry{
		ID:         uuid.NewString(),
		UserID:     input.UserID,
		Filename:   input.Filename,
		Summary:    summary,
		Size:       input.Size,
		MimeType:   input.MimeType,
		UploadedAt: time.Now().UnixMilli(),
	}
	entry.PDFURL = s.saveArtifact(ctx, logger, input.BaseURL, ".pdf", input.Data)
	if imageBytes != nil {
		entry.ImageURL = s.saveArtifact(ctx, logger, input.BaseURL, ".png", imageBytes)
	}
	if videoBytes != nil {
		entry.VideoURL = s.saveArtifact(ctx, logger, input.BaseURL, ".mp4", videoBytes)
	}
	if err := s.usage.RecordSummary(ctx, entry); err != nil {
		logger.Warn("history accounting failed", zap.String("user_id", input.UserID), zap.Error(err))
	}
}

func (s *SummarizeService) saveArtifact(ctx context.Context, logger *zap.Logger, baseURL, ext string, data []byte) *string {
	if s.store == nil {
		return nil
	}
	key := uuid.NewString() + ext
	if err := s.store.Save(ctx, key, data); err != nil {
		logger.Warn("artifact save failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	url := s.store.URL(key, baseURL)
	return &url
}

func makeImagePrompt(summary string) string {
	return "Create one clean, minimal technical illustration that captures the core idea of this summary: " + truncateUTF8(summary, 600)
}

func makeVideoPrompt(summary string, seconds int) string {
	return fmt.Sprintf("Create a %d second explainer animation visualizing this technical summary: %s", seconds, truncateUTF8(summary, 600))
}

func summaryCacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

func truncateUTF8(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
