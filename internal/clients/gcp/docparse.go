package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// ParseResult is the layout-parser output persisted to the processed bucket.
// Content carries the full document text; Pages the per-page breakdown.
type ParseResult struct {
	Provider  string     `json:"provider"`
	Processor string     `json:"processor"`
	MimeType  string     `json:"mime_type"`
	Content   string     `json:"content"`
	Pages     []PageText `json:"pages,omitempty"`
}

type PageText struct {
	Number int    `json:"number"`
	Text   string `json:"text,omitempty"`
}

// JSON renders the result for blob persistence.
func (r *ParseResult) JSON() ([]byte, error) {
	return json.Marshal(r)
}

type DocParseService interface {
	Parse(ctx context.Context, data []byte, mimeType string) (*ParseResult, error)
	Ping(ctx context.Context) (string, error)
	Close() error
}

type docParseService struct {
	log           *logger.Logger
	docClient     *documentai.DocumentProcessorClient
	processor     string
	processorBase string
}

func NewDocParseService(log *logger.Logger) (DocParseService, error) {
	serviceLog := log.With("service", "DocParseService")

	projectID := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROJECT_ID"))
	processorID := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_ID"))
	if projectID == "" {
		return nil, fmt.Errorf("missing env var DOCUMENTAI_PROJECT_ID")
	}
	if processorID == "" {
		return nil, fmt.Errorf("missing env var DOCUMENTAI_PROCESSOR_ID")
	}
	location := strings.TrimSpace(os.Getenv("DOCUMENTAI_LOCATION"))
	if location == "" {
		location = "eu"
	}
	version := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_VERSION"))

	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)

	ctx := context.Background()
	c, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	processorBase := fmt.Sprintf("projects/%s/locations/%s/processors/%s", projectID, location, processorID)
	processor := processorBase
	if version != "" {
		processor += "/processorVersions/" + version
	}

	serviceLog.Info("document parser initialized", "endpoint", endpoint)

	return &docParseService{
		log:           serviceLog,
		docClient:     c,
		processor:     processor,
		processorBase: processorBase,
	}, nil
}

func (s *docParseService) Close() error {
	if s == nil || s.docClient == nil {
		return nil
	}
	return s.docClient.Close()
}

// Ping fetches processor metadata without running a document through it.
// GetProcessor takes the processor path without a version suffix.
func (s *docParseService) Ping(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := s.docClient.GetProcessor(ctx, &documentaipb.GetProcessorRequest{Name: s.processorBase})
	if err != nil {
		return "", fmt.Errorf("documentai GetProcessor: %w", err)
	}
	return resp.GetState().String(), nil
}

func (s *docParseService) Parse(ctx context.Context, data []byte, mimeType string) (*ParseResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	if len(data) == 0 {
		return nil, fmt.Errorf("empty document data")
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	req := &documentaipb.ProcessRequest{
		Name: s.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
		FieldMask: &fieldmaskpb.FieldMask{Paths: []string{"text", "pages"}},
	}

	resp, err := s.docClient.ProcessDocument(ctx, req)
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.InvalidArgument {
			return nil, fmt.Errorf("documentai rejected input (%s): %w", st.Message(), err)
		}
		return nil, fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	if resp == nil || resp.Document == nil {
		return nil, fmt.Errorf("documentai returned no document")
	}

	return buildParseResult(resp.Document, s.processor, mimeType), nil
}

func buildParseResult(doc *documentaipb.Document, processor, mimeType string) *ParseResult {
	out := &ParseResult{
		Provider:  "gcp_documentai",
		Processor: processor,
		MimeType:  mimeType,
	}
	if doc == nil {
		return out
	}

	out.Content = strings.TrimSpace(doc.Text)

	for _, p := range doc.Pages {
		if p == nil {
			continue
		}
		var pageText strings.Builder
		for _, para := range p.Paragraphs {
			if para == nil || para.Layout == nil || para.Layout.TextAnchor == nil {
				continue
			}
			t := strings.TrimSpace(textFromAnchor(doc.Text, para.Layout.TextAnchor))
			if t == "" {
				continue
			}
			pageText.WriteString(t)
			pageText.WriteString("\n")
		}
		out.Pages = append(out.Pages, PageText{
			Number: int(p.PageNumber),
			Text:   strings.TrimSpace(pageText.String()),
		})
	}

	return out
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || len(anchor.TextSegments) == 0 || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.TextSegments {
		if seg == nil {
			continue
		}
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(full) {
			end = len(full)
		}
		if start >= end {
			continue
		}
		b.WriteString(full[start:end])
	}
	return b.String()
}
